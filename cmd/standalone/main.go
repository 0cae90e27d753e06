//go:build !libretro && !ios

package main

import (
	"flag"
	"log"
	"strings"

	"github.com/user-none/eblitui/standalone"
	"github.com/user-none/partyboy/adapter"
	"github.com/user-none/partyboy/emu"
)

func main() {
	romPath := flag.String("rom", "", "path to ROM file (opens UI if not provided)")
	palette := flag.String("palette", emu.PaletteNames[0], "display palette: "+strings.Join(emu.PaletteNames, ", "))
	flag.Parse()

	factory := &adapter.Factory{}

	if *romPath != "" {
		if _, err := emu.ParsePalette(*palette); err != nil {
			log.Fatal(err)
		}
		options := map[string]string{"palette": *palette}
		if err := standalone.RunDirect(factory, *romPath, "auto", options); err != nil {
			log.Fatal(err)
		}
		return
	}

	if err := standalone.Run(factory); err != nil {
		log.Fatal(err)
	}
}
