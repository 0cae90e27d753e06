package emu

import emucore "github.com/user-none/eblitui/api"

// Region is an alias for emucore.Region.
type Region = emucore.Region

// The machine has a single 60 Hz timing; region only exists to satisfy
// eblitui frontends.
const RegionNTSC = emucore.RegionNTSC

// DetectRegion always reports NTSC.
func DetectRegion(rom []byte) Region {
	return RegionNTSC
}

// RunFrame runs until the next frame completes, collecting audio as 16-bit
// PCM for GetAudioSamples.
func (e *Emulator) RunFrame() {
	e.audioBuffer = e.audioBuffer[:0]
	for i := 0; i < 2; i++ {
		samples, _ := e.BatchTicks(CyclesPerFrame)
		e.audioBuffer = appendPCM16(e.audioBuffer, samples)
		if e.ConsumeDrawFlag() {
			return
		}
	}
}

// SetInput unpacks an eblitui button bitmask for player 0. Other players
// are ignored.
func (e *Emulator) SetInput(player int, buttons uint32) {
	if player != 0 {
		return
	}
	var pad uint8
	set := func(bit int, k uint8) {
		if buttons&(1<<bit) != 0 {
			pad |= 1 << k
		}
	}
	set(emucore.ButtonUp, 2)
	set(emucore.ButtonDown, 3)
	set(emucore.ButtonLeft, 1)
	set(emucore.ButtonRight, 0)
	set(4, 4) // A
	set(5, 5) // B
	set(6, 6) // Select
	set(7, 7) // Start
	e.bus.joypad = pad
}

// GetRegion returns RegionNTSC.
func (e *Emulator) GetRegion() Region {
	return RegionNTSC
}

// SetRegion is a no-op.
func (e *Emulator) SetRegion(Region) {}

// GetTiming returns the fixed frame rate and line count.
func (e *Emulator) GetTiming() emucore.Timing {
	return emucore.Timing{FPS: FPS, Scanlines: TotalLines}
}

// SetOption applies a core option. "palette" selects "green" or "gray".
func (e *Emulator) SetOption(key string, value string) {
	switch key {
	case "palette":
		if p, err := ParsePalette(value); err == nil {
			e.palette = p
			e.latchFrame()
		}
	}
}

// Close frees the emulator.
func (e *Emulator) Close() {
	if !e.freed {
		e.Free()
	}
}

// HasSRAM reports whether the cartridge has battery-backed RAM.
func (e *Emulator) HasSRAM() bool {
	return e.bus.HasSRAM()
}

// GetSRAM returns a copy of cartridge RAM.
func (e *Emulator) GetSRAM() []byte {
	return e.bus.GetSRAM()
}

// SetSRAM loads cartridge RAM.
func (e *Emulator) SetSRAM(data []byte) {
	e.bus.SetSRAM(data)
}
