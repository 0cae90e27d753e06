package emu

import (
	"github.com/user-none/go-chip-sn76489"
	"github.com/user-none/partyboy/core"
)

// Memory map sizes.
const (
	romWindow = 0x8000
	vramBase  = 0x8000
	vramSize  = core.ScreenWidth * core.ScreenHeight
	sramBase  = 0xDA00
	sramSize  = 0x0600
	wramBase  = 0xE000
	wramSize  = 0x2000
)

// I/O ports (low byte of the port address).
const (
	portJoypad  = 0x00 // IN: one bit per pressed button
	portPSG     = 0x01 // OUT: SN76489 data
	portLY      = 0x02 // IN: current scanline
	portPalette = 0x03 // IN/OUT: shade mapping, 2 bits per color index
)

const defaultPalette = 0xE4

// Bus implements z80.Bus for the machine's 16-bit address space.
//
// Memory map:
//
//	0x0000-0x7FFF  Cartridge ROM (reads past the image return 0xFF)
//	0x8000-0xD9FF  Video RAM, one byte per pixel (low 2 bits used)
//	0xDA00-0xDFFF  Cartridge RAM (battery backed when the header says so)
//	0xE000-0xFFFF  Work RAM
type Bus struct {
	rom  []byte
	vram [vramSize]byte
	sram [sramSize]byte
	wram [wramSize]byte

	hasSRAM bool
	romCRC  uint32

	joypad  uint8
	palette uint8
	ly      uint8

	psg *sn76489.SN76489
}

// NewBus creates a Bus for rom with the PSG attached to the output port.
func NewBus(rom []byte, psg *sn76489.SN76489) *Bus {
	return &Bus{
		rom:     rom,
		hasSRAM: HasBattery(rom),
		romCRC:  romChecksum(rom),
		palette: defaultPalette,
		psg:     psg,
	}
}

// Fetch reads an opcode byte. There is no M1-specific behavior.
func (b *Bus) Fetch(addr uint16) uint8 {
	return b.Read(addr)
}

// Read reads a byte from the address space.
func (b *Bus) Read(addr uint16) uint8 {
	switch {
	case addr < romWindow:
		if int(addr) < len(b.rom) {
			return b.rom[addr]
		}
		return 0xFF
	case addr < sramBase:
		return b.vram[addr-vramBase]
	case addr < wramBase:
		return b.sram[addr-sramBase]
	default:
		return b.wram[addr-wramBase]
	}
}

// Write writes a byte to the address space. ROM writes are ignored.
func (b *Bus) Write(addr uint16, val uint8) {
	switch {
	case addr < romWindow:
	case addr < sramBase:
		b.vram[addr-vramBase] = val
	case addr < wramBase:
		b.sram[addr-sramBase] = val
	default:
		b.wram[addr-wramBase] = val
	}
}

// In reads from an I/O port. Unmapped ports return 0xFF.
func (b *Bus) In(port uint16) uint8 {
	switch uint8(port) {
	case portJoypad:
		return b.joypad
	case portLY:
		return b.ly
	case portPalette:
		return b.palette
	default:
		return 0xFF
	}
}

// Out writes to an I/O port.
func (b *Bus) Out(port uint16, val uint8) {
	switch uint8(port) {
	case portPSG:
		b.psg.Write(val)
	case portPalette:
		b.palette = val
	}
}

// HasSRAM reports whether the cartridge has battery-backed RAM.
func (b *Bus) HasSRAM() bool {
	return b.hasSRAM
}

// GetSRAM returns a copy of cartridge RAM.
func (b *Bus) GetSRAM() []byte {
	out := make([]byte, sramSize)
	copy(out, b.sram[:])
	return out
}

// SetSRAM loads cartridge RAM. Short input leaves the tail untouched.
func (b *Bus) SetSRAM(data []byte) {
	copy(b.sram[:], data)
}
