package emu

import (
	"errors"
	"fmt"
	"hash/crc32"
	"strings"
)

// Cartridge header layout.
const (
	headerTitle    = 0x0134
	headerTitleEnd = 0x0144
	headerCartType = 0x0149
	headerEnd      = 0x0150

	cartTypeBattery = 0x01
)

var ErrROMTooLarge = errors.New("ROM larger than the 32KB cartridge window")

// ValidateROM checks that rom is large enough to hold a header and fits the
// cartridge window.
func ValidateROM(rom []byte) error {
	if len(rom) < headerEnd {
		return fmt.Errorf("ROM too short to contain header (%d bytes)", len(rom))
	}
	if len(rom) > romWindow {
		return ErrROMTooLarge
	}
	return nil
}

// Title returns the cartridge title from the header.
func Title(rom []byte) string {
	if len(rom) < headerTitleEnd {
		return ""
	}
	return strings.TrimRight(string(rom[headerTitle:headerTitleEnd]), "\x00 ")
}

// HasBattery reports whether the header declares battery-backed cart RAM.
func HasBattery(rom []byte) bool {
	return len(rom) > headerCartType && rom[headerCartType]&cartTypeBattery != 0
}

func romChecksum(rom []byte) uint32 {
	return crc32.ChecksumIEEE(rom)
}
