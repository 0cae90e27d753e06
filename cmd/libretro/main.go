package main

import (
	libretro "github.com/user-none/eblitui/libretro"
	"github.com/user-none/partyboy/adapter"
)

// The bridge publishes the factory's core options, so the palette shows up
// as a libretro core variable with the same values the standalone -palette
// flag takes. The d-pad arrives on the api's fixed bits 0-3.
func init() {
	libretro.RegisterFactory(&adapter.Factory{}, []libretro.RetropadMapping{
		{RetroID: libretro.JoypadA, BitID: 4},      // A
		{RetroID: libretro.JoypadB, BitID: 5},      // B
		{RetroID: libretro.JoypadSelect, BitID: 6}, // Select
		{RetroID: libretro.JoypadStart, BitID: 7},  // Start
	})
}

func main() {}
