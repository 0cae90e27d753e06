package emu

import (
	"math"

	emucore "github.com/user-none/eblitui/api"
	"github.com/user-none/go-chip-sn76489"
	"github.com/user-none/go-chip-z80"
	"github.com/user-none/partyboy/core"
)

// Compile-time interface checks.
var _ core.Core = (*Emulator)(nil)
var _ emucore.Emulator = (*Emulator)(nil)
var _ emucore.SaveStater = (*Emulator)(nil)
var _ emucore.BatterySaver = (*Emulator)(nil)

const (
	Name    = "partyboy"
	Version = "0.1.0"
)

// Machine timing. A frame is 154 lines of 456 cycles; lines 144-153 are
// vertical blank.
const (
	ClockHz        = 4194304
	CyclesPerLine  = 456
	TotalLines     = 154
	VisibleLines   = core.ScreenHeight
	CyclesPerFrame = CyclesPerLine * TotalLines
	FPS            = 60

	// handleChunkCycles is the fixed amount of work done by HandleTicks.
	handleChunkCycles = 4 * CyclesPerLine
)

// Emulator is the reference core: a Z80, an SN76489 and a 160x144
// memory-mapped display.
type Emulator struct {
	cpu *z80.CPU
	bus *Bus
	psg *sn76489.SN76489

	line       int // current scanline, 0-153
	lineCycles int // cycles executed on the current line

	// overshoot is how far the last instruction ran past a BatchTicks
	// budget. The next call is charged for it.
	overshoot uint64

	// V-blank interrupt is held until the CPU acknowledges it
	// (IFF1 transitions true->false).
	intPending bool

	drawFlag   bool
	frameCount uint64

	palette Palette
	front   []byte // RGB of the last completed frame
	rgba    []byte // RGBA conversion for eblitui frontends

	audioBuffer  []int16 // int16 stereo for eblitui frontends
	stateScratch []byte  // reused by snapshot serialization

	freed bool
}

// NewEmulator creates a core running rom. sram, when non-empty, is loaded
// into battery-backed cartridge RAM.
func NewEmulator(rom []byte, sram []byte) (*Emulator, error) {
	if err := ValidateROM(rom); err != nil {
		return nil, err
	}

	psg := sn76489.New(ClockHz, sampleRate, psgBufferSize, sn76489.Sega)
	psg.SetGain(psgGain)

	bus := NewBus(rom, psg)
	if len(sram) > 0 {
		bus.SetSRAM(sram)
	}

	e := &Emulator{
		cpu:         z80.New(bus),
		bus:         bus,
		psg:         psg,
		palette:     PaletteGreen,
		front:       make([]byte, core.FrameBufferSize),
		rgba:        make([]byte, core.ScreenWidth*core.ScreenHeight*4),
		audioBuffer: make([]int16, 0, 2048),
	}
	e.latchFrame()
	return e, nil
}

// Build satisfies core.Builder.
func Build(rom, ram []byte) (core.Core, error) {
	e, err := NewEmulator(rom, ram)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// BatchTicks executes up to cycles cycles, stopping at the end of a frame.
// Cycles the last instruction runs past the budget are taken from the next
// call, so small budgets do not speed the machine up.
func (e *Emulator) BatchTicks(cycles uint64) ([]float32, uint64) {
	if cycles == 0 {
		return nil, 0
	}
	if e.overshoot >= cycles {
		e.overshoot -= cycles
		return nil, 0
	}
	cycles -= e.overshoot
	e.overshoot = 0

	// A frame boundary is always reached within one frame of cycles.
	budget := CyclesPerFrame
	if cycles < uint64(budget) {
		budget = int(cycles)
	}

	samples := make([]float32, 0, samplesFor(budget))
	executed, samples := e.run(budget, true, samples)

	if uint64(executed) >= cycles {
		e.overshoot = uint64(executed) - cycles
		return samples, 0
	}
	return samples, cycles - uint64(executed)
}

// HandleTicks executes a fixed chunk of cycles. A frame completing inside the
// chunk sets the draw flag but does not end the chunk early.
func (e *Emulator) HandleTicks() []float32 {
	samples := make([]float32, 0, samplesFor(handleChunkCycles))
	_, samples = e.run(handleChunkCycles, false, samples)
	return samples
}

// ConsumeDrawFlag reports and clears the frame-completed flag.
func (e *Emulator) ConsumeDrawFlag() bool {
	f := e.drawFlag
	e.drawFlag = false
	return f
}

// FrameBuffer returns a copy of the last completed frame as packed RGB.
func (e *Emulator) FrameBuffer() []byte {
	out := make([]byte, core.FrameBufferSize)
	copy(out, e.front)
	return out
}

// KeyDown presses a joypad button.
func (e *Emulator) KeyDown(k core.Key) {
	if k.Valid() {
		e.bus.joypad |= 1 << k
	}
}

// KeyUp releases a joypad button.
func (e *Emulator) KeyUp(k core.Key) {
	if k.Valid() {
		e.bus.joypad &^= 1 << k
	}
}

// SaveRAM returns a copy of battery-backed RAM, or nil if the cartridge has
// none.
func (e *Emulator) SaveRAM() []byte {
	if !e.bus.HasSRAM() {
		return nil
	}
	return e.bus.GetSRAM()
}

// Free releases the core. No other method may be called afterwards.
func (e *Emulator) Free() {
	e.freed = true
	e.cpu = nil
	e.psg = nil
	e.bus = nil
	e.front = nil
	e.stateScratch = nil
}

// FrameCount returns the number of frames completed since power on.
func (e *Emulator) FrameCount() uint64 {
	return e.frameCount
}

// run executes budget cycles line by line. When stopAtFrame is set it
// returns as soon as a frame completes.
func (e *Emulator) run(budget int, stopAtFrame bool, samples []float32) (int, []float32) {
	executed := 0
	for executed < budget {
		step := budget - executed
		if toLineEnd := CyclesPerLine - e.lineCycles; step > toLineEnd {
			step = toLineEnd
		}

		consumed := e.stepCPU(step)
		e.psg.Run(consumed)
		samples = e.drainPSG(samples)

		executed += consumed
		e.lineCycles += consumed

		frameDone := false
		for e.lineCycles >= CyclesPerLine {
			e.lineCycles -= CyclesPerLine
			if e.endLine() {
				frameDone = true
			}
		}
		if frameDone && stopAtFrame {
			break
		}
	}
	return executed, samples
}

// stepCPU runs the CPU for at least budget cycles and returns the cycles
// consumed. While the v-blank interrupt is pending the CPU is single
// stepped so the acknowledge can be observed before the handler re-enables
// interrupts.
func (e *Emulator) stepCPU(budget int) int {
	used := 0
	for used < budget {
		if !e.intPending {
			c := e.cpu.StepCycles(budget - used)
			if c <= 0 {
				// Halted: time still passes.
				return budget
			}
			used += c
			continue
		}

		prevIFF1 := e.cpu.Registers().IFF1
		c := e.cpu.Step()
		if c <= 0 {
			return budget
		}
		used += c
		if prevIFF1 && !e.cpu.Registers().IFF1 {
			e.intPending = false
			e.cpu.INT(false, 0xFF)
		}
	}
	return used
}

// endLine advances to the next scanline and reports whether a frame
// completed.
func (e *Emulator) endLine() bool {
	e.line++
	if e.line == VisibleLines {
		e.intPending = true
		e.cpu.INT(true, 0xFF)
	}
	if e.line < TotalLines {
		e.bus.ly = uint8(e.line)
		return false
	}

	e.line = 0
	e.bus.ly = 0
	e.latchFrame()
	e.drawFlag = true
	e.frameCount++
	return true
}

// samplesFor estimates the interleaved sample count for a cycle budget.
func samplesFor(cycles int) int {
	frames := int(math.Ceil(float64(cycles)*sampleRate/ClockHz)) + 1
	return frames * 2
}
