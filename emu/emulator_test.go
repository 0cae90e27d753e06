package emu

import (
	"testing"

	"github.com/user-none/partyboy/core"
)

// makeTestROM builds a minimal cartridge with code at address 0 and an
// optional battery flag.
func makeTestROM(code []byte, battery bool) []byte {
	rom := make([]byte, headerEnd)
	copy(rom, code)
	copy(rom[headerTitle:], "TESTCART")
	if battery {
		rom[headerCartType] = cartTypeBattery
	}
	return rom
}

// JR $ (spin forever)
var progIdle = []byte{0x18, 0xFE}

func newTestEmulator(t *testing.T, code []byte) *Emulator {
	t.Helper()
	e, err := NewEmulator(makeTestROM(code, false), nil)
	if err != nil {
		t.Fatalf("NewEmulator: %v", err)
	}
	return e
}

func TestBatchTicksExactFrame(t *testing.T) {
	e := newTestEmulator(t, progIdle)

	_, remaining := e.BatchTicks(CyclesPerFrame)
	if remaining != 0 {
		t.Errorf("remaining = %d, want 0", remaining)
	}
	if !e.ConsumeDrawFlag() {
		t.Error("draw flag not set after one frame of cycles")
	}
	if e.ConsumeDrawFlag() {
		t.Error("draw flag should clear after consume")
	}
	if e.FrameCount() != 1 {
		t.Errorf("FrameCount = %d, want 1", e.FrameCount())
	}
}

func TestBatchTicksStopsAtFrameBoundary(t *testing.T) {
	e := newTestEmulator(t, progIdle)

	_, remaining := e.BatchTicks(3 * CyclesPerFrame)
	if e.FrameCount() != 1 {
		t.Fatalf("FrameCount = %d, want 1", e.FrameCount())
	}
	// At most one instruction of overshoot.
	if remaining < 2*CyclesPerFrame-32 || remaining > 2*CyclesPerFrame {
		t.Errorf("remaining = %d, want about %d", remaining, 2*CyclesPerFrame)
	}
}

func TestBatchTicksPartial(t *testing.T) {
	e := newTestEmulator(t, progIdle)

	_, remaining := e.BatchTicks(1000)
	if remaining != 0 {
		t.Errorf("remaining = %d, want 0", remaining)
	}
	if e.ConsumeDrawFlag() {
		t.Error("draw flag set before a frame completed")
	}
}

func TestBatchTicksChargesOvershoot(t *testing.T) {
	e := newTestEmulator(t, progIdle)

	// Each JR takes 12 cycles, more than any single 5 cycle budget.
	const calls, budget = 1000, 5
	for i := 0; i < calls; i++ {
		if _, remaining := e.BatchTicks(budget); remaining != 0 {
			t.Fatalf("remaining = %d, want 0", remaining)
		}
	}

	executed := e.line*CyclesPerLine + e.lineCycles
	if want := calls * budget; executed < want || executed >= want+12 {
		t.Errorf("executed %d cycles for %d requested", executed, want)
	}
}

func TestBatchTicksZero(t *testing.T) {
	e := newTestEmulator(t, progIdle)

	samples, remaining := e.BatchTicks(0)
	if len(samples) != 0 || remaining != 0 {
		t.Errorf("BatchTicks(0) = %d samples, %d remaining", len(samples), remaining)
	}
}

func TestBatchTicksAudioLength(t *testing.T) {
	e := newTestEmulator(t, progIdle)

	samples, _ := e.BatchTicks(CyclesPerFrame)
	if len(samples)%2 != 0 {
		t.Fatalf("odd sample count %d", len(samples))
	}
	// 70224 cycles at 4194304 Hz is about 803.6 frames at 48 kHz.
	frames := len(samples) / 2
	if frames < 790 || frames > 815 {
		t.Errorf("frames = %d, want about 804", frames)
	}
}

func TestHandleTicksFixedChunk(t *testing.T) {
	e := newTestEmulator(t, progIdle)

	total := 0
	for i := 0; i < TotalLines/4+1; i++ {
		total += len(e.HandleTicks())
	}
	if !e.ConsumeDrawFlag() {
		t.Error("draw flag not set after a frame's worth of HandleTicks")
	}
	if total == 0 {
		t.Error("HandleTicks produced no audio")
	}
}

func TestVRAMWriteShowsInFrame(t *testing.T) {
	// LD A,3; LD (8000h),A; JR $
	e := newTestEmulator(t, []byte{0x3E, 0x03, 0x32, 0x00, 0x80, 0x18, 0xFE})

	e.BatchTicks(CyclesPerFrame)
	fb := e.FrameBuffer()
	if len(fb) != core.FrameBufferSize {
		t.Fatalf("len(fb) = %d", len(fb))
	}
	dark := PaletteGreen[3]
	if fb[0] != dark[0] || fb[1] != dark[1] || fb[2] != dark[2] {
		t.Errorf("pixel 0 = %v, want %v", fb[0:3], dark)
	}
	light := PaletteGreen[0]
	if fb[3] != light[0] {
		t.Errorf("pixel 1 = %v, want %v", fb[3:6], light)
	}
}

func TestFrameBufferIsCopy(t *testing.T) {
	e := newTestEmulator(t, progIdle)

	a := e.FrameBuffer()
	a[0] ^= 0xFF
	b := e.FrameBuffer()
	if a[0] == b[0] {
		t.Error("FrameBuffer returned shared memory")
	}
}

func TestJoypadPort(t *testing.T) {
	// loop: IN A,(0); LD (E000h),A; JR loop
	e := newTestEmulator(t, []byte{0xDB, 0x00, 0x32, 0x00, 0xE0, 0x18, 0xF9})

	e.KeyDown(core.KeyStart)
	e.KeyDown(core.KeyA)
	e.BatchTicks(1000)
	if got := e.bus.wram[0]; got != 0x90 {
		t.Errorf("joypad = 0x%02X, want 0x90", got)
	}

	e.KeyUp(core.KeyStart)
	e.BatchTicks(1000)
	if got := e.bus.wram[0]; got != 0x10 {
		t.Errorf("joypad = 0x%02X, want 0x10", got)
	}
}

func TestVBlankInterruptOncePerFrame(t *testing.T) {
	code := make([]byte, 0x40)
	copy(code, []byte{
		0x31, 0x00, 0x00, // LD SP,0000h
		0xED, 0x56, // IM 1
		0xFB,       // EI
		0x76,       // HALT
		0x18, 0xFD, // JR -3
	})
	copy(code[0x38:], []byte{
		0x3A, 0x00, 0xE0, // LD A,(E000h)
		0x3C,             // INC A
		0x32, 0x00, 0xE0, // LD (E000h),A
		0xFB, // EI
		0xC9, // RET
	})
	e := newTestEmulator(t, code)

	for i := 0; i < 3; i++ {
		e.BatchTicks(CyclesPerFrame)
	}
	if got := e.bus.wram[0]; got != 3 {
		t.Errorf("interrupt count = %d, want 3", got)
	}
}

func TestPSGProducesTone(t *testing.T) {
	e := newTestEmulator(t, []byte{
		0x3E, 0x8E, 0xD3, 0x01, // tone 0 low nibble
		0x3E, 0x0F, 0xD3, 0x01, // tone 0 high bits
		0x3E, 0x90, 0xD3, 0x01, // tone 0 volume max
		0x18, 0xFE,
	})

	samples, _ := e.BatchTicks(CyclesPerFrame)
	var lo, hi float32
	for _, s := range samples {
		if s < lo {
			lo = s
		}
		if s > hi {
			hi = s
		}
	}
	if hi-lo == 0 {
		t.Error("expected a non-flat waveform")
	}
	for i := 0; i+1 < len(samples); i += 2 {
		if samples[i] != samples[i+1] {
			t.Fatalf("sample %d not duplicated to both channels", i)
		}
	}
}

func TestSaveRAM(t *testing.T) {
	// LD A,42h; LD (DA00h),A; JR $
	code := []byte{0x3E, 0x42, 0x32, 0x00, 0xDA, 0x18, 0xFE}

	e, err := NewEmulator(makeTestROM(code, true), nil)
	if err != nil {
		t.Fatal(err)
	}
	e.BatchTicks(1000)
	ram := e.SaveRAM()
	if len(ram) != sramSize || ram[0] != 0x42 {
		t.Fatalf("SaveRAM()[0] = %v", ram[:1])
	}

	e2, err := NewEmulator(makeTestROM(progIdle, true), ram)
	if err != nil {
		t.Fatal(err)
	}
	if e2.bus.sram[0] != 0x42 {
		t.Error("save RAM not restored on construction")
	}

	e3 := newTestEmulator(t, code)
	if e3.SaveRAM() != nil {
		t.Error("cartridge without battery should have no save RAM")
	}
}

func TestBuildRejectsBadROM(t *testing.T) {
	c, err := Build(make([]byte, 16), nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if c != nil {
		t.Error("Build returned a non-nil core on error")
	}
}

func TestRunFrameEmucore(t *testing.T) {
	e := newTestEmulator(t, progIdle)

	e.RunFrame()
	if e.FrameCount() != 1 {
		t.Errorf("FrameCount = %d, want 1", e.FrameCount())
	}
	if len(e.GetAudioSamples()) == 0 {
		t.Error("no audio after RunFrame")
	}
	fb := e.GetFramebuffer()
	if len(fb) != e.GetFramebufferStride()*e.GetActiveHeight() {
		t.Errorf("len(fb) = %d", len(fb))
	}
	if fb[3] != 0xFF {
		t.Error("alpha not opaque")
	}
}

func TestSetInputMapsButtons(t *testing.T) {
	e := newTestEmulator(t, progIdle)

	e.SetInput(0, 1<<0|1<<7) // up + start
	want := uint8(1<<core.KeyUp | 1<<core.KeyStart)
	if e.bus.joypad != want {
		t.Errorf("joypad = 0x%02X, want 0x%02X", e.bus.joypad, want)
	}
	e.SetInput(1, 0)
	if e.bus.joypad != want {
		t.Error("player 2 input should be ignored")
	}
}

func TestSetOptionPalette(t *testing.T) {
	e := newTestEmulator(t, progIdle)

	e.SetOption("palette", "gray")
	if fb := e.FrameBuffer(); fb[0] != 0xFF {
		t.Errorf("pixel 0 = %d, want 0xFF", fb[0])
	}
	e.SetOption("palette", "nope")
	if e.palette != PaletteGray {
		t.Error("unknown palette should be ignored")
	}
}
