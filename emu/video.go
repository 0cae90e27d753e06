package emu

import (
	"fmt"

	"github.com/user-none/partyboy/core"
)

// Palette maps the four display shades to RGB, lightest first.
type Palette [4][3]byte

var (
	PaletteGreen = Palette{
		{0xE0, 0xF8, 0xD0},
		{0x88, 0xC0, 0x70},
		{0x34, 0x68, 0x56},
		{0x08, 0x18, 0x20},
	}
	PaletteGray = Palette{
		{0xFF, 0xFF, 0xFF},
		{0xAA, 0xAA, 0xAA},
		{0x55, 0x55, 0x55},
		{0x00, 0x00, 0x00},
	}
)

var palettes = map[string]Palette{
	"green": PaletteGreen,
	"gray":  PaletteGray,
}

// PaletteNames lists the palette names ParsePalette accepts, default first.
var PaletteNames = []string{"green", "gray"}

// ParsePalette returns the named display palette.
func ParsePalette(name string) (Palette, error) {
	p, ok := palettes[name]
	if !ok {
		return Palette{}, fmt.Errorf("unknown palette %q", name)
	}
	return p, nil
}

// shade resolves a VRAM color index through the palette register.
func shade(reg, px uint8) uint8 {
	return (reg >> ((px & 3) * 2)) & 3
}

// latchFrame converts VRAM to the RGB front buffer.
func (e *Emulator) latchFrame() {
	reg := e.bus.palette
	for i, px := range e.bus.vram {
		c := e.palette[shade(reg, px)]
		o := i * core.BytesPerPixel
		e.front[o] = c[0]
		e.front[o+1] = c[1]
		e.front[o+2] = c[2]
	}
}

// GetFramebuffer returns the last completed frame as RGBA.
func (e *Emulator) GetFramebuffer() []byte {
	for i, j := 0, 0; i < len(e.front); i, j = i+3, j+4 {
		e.rgba[j] = e.front[i]
		e.rgba[j+1] = e.front[i+1]
		e.rgba[j+2] = e.front[i+2]
		e.rgba[j+3] = 0xFF
	}
	return e.rgba
}

// GetFramebufferStride returns the stride in bytes of the RGBA frame.
func (e *Emulator) GetFramebufferStride() int {
	return core.ScreenWidth * 4
}

// GetActiveHeight returns the number of visible lines.
func (e *Emulator) GetActiveHeight() int {
	return core.ScreenHeight
}
