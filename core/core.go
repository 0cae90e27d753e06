// Package core defines the contract between the host loop and an emulator
// core. The host treats a core as an opaque, cycle-stepped engine: it asks
// for batches of cycles, collects audio and frames, and captures snapshots
// for rewind and save states.
package core

import (
	"errors"
	"fmt"
	"strings"
)

// Native display geometry. Frame buffers are packed RGB, 3 bytes per pixel.
const (
	ScreenWidth     = 160
	ScreenHeight    = 144
	BytesPerPixel   = 3
	FrameBufferSize = ScreenWidth * ScreenHeight * BytesPerPixel
)

// ErrForeignSnapshot is returned when a snapshot produced by one core
// implementation is handed to another.
var ErrForeignSnapshot = errors.New("snapshot was not produced by this core")

// Core is a runnable emulator instance. A Core is owned by exactly one
// goroutine; none of its methods are safe for concurrent use.
//
// After Free, no other method may be called.
type Core interface {
	// BatchTicks executes up to cycles hardware cycles, stopping early at a
	// frame boundary. It returns the interleaved stereo audio produced and
	// the cycles left unexecuted.
	BatchTicks(cycles uint64) (samples []float32, remaining uint64)

	// HandleTicks executes one small fixed chunk of cycles and returns the
	// audio produced.
	HandleTicks() []float32

	// ConsumeDrawFlag reports whether a frame completed since the last call
	// and clears the flag.
	ConsumeDrawFlag() bool

	// FrameBuffer returns the last completed frame as a newly allocated
	// FrameBufferSize slice. The caller owns the result.
	FrameBuffer() []byte

	KeyDown(k Key)
	KeyUp(k Key)

	// TakeSnapshot captures the complete core state.
	TakeSnapshot() (Snapshot, error)

	// LoadSnapshot restores a state captured by TakeSnapshot. The snapshot
	// is not consumed; the caller still owns it and must release it.
	LoadSnapshot(s Snapshot) error

	// SaveRAM returns a copy of battery-backed RAM, or nil if the loaded
	// cartridge has none.
	SaveRAM() []byte

	// Free releases the instance.
	Free()
}

// Snapshot is an opaque capture of core state. Each snapshot must be
// released exactly once, by whoever owns it last.
type Snapshot interface {
	Release()
}

// Builder constructs a core from a ROM image and optional persisted save RAM.
type Builder func(rom, ram []byte) (Core, error)

// Key identifies a joypad button.
type Key uint8

// Joypad buttons. The order matches the bit layout of the bundled core's
// joypad port.
const (
	KeyRight Key = iota
	KeyLeft
	KeyUp
	KeyDown
	KeyA
	KeyB
	KeySelect
	KeyStart
)

// NumKeys is the number of joypad buttons.
const NumKeys = 8

var keyNames = [NumKeys]string{"right", "left", "up", "down", "a", "b", "select", "start"}

// String returns the lower case button name.
func (k Key) String() string {
	if int(k) < NumKeys {
		return keyNames[k]
	}
	return fmt.Sprintf("key(%d)", uint8(k))
}

// Valid reports whether k names a joypad button.
func (k Key) Valid() bool {
	return int(k) < NumKeys
}

// ParseKey converts a button name (case-insensitive) to a Key.
func ParseKey(name string) (Key, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range keyNames {
		if n == name {
			return Key(i), nil
		}
	}
	return 0, fmt.Errorf("unknown key %q", name)
}
