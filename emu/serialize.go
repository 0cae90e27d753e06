package emu

import (
	"encoding/binary"
	"errors"
	"hash/crc32"

	"github.com/user-none/go-chip-sn76489"
	"github.com/user-none/go-chip-z80"
)

// Save state format constants
const (
	stateVersion    = 1
	stateMagic      = "PBoyState\x00\x00\x00"
	stateHeaderSize = 22 // magic(12) + version(2) + romCRC(4) + dataCRC(4)
)

// busSerializeSize covers VRAM, cart RAM, work RAM and the palette register.
// The joypad latch is live input and is not part of a state.
const busSerializeSize = vramSize + sramSize + wramSize + 1

// timingSerializeSize: line(2) + lineCycles(4) + intPending(1) + frameCount(8)
const timingSerializeSize = 15

var (
	ErrStateShort    = errors.New("save state too short")
	ErrStateMagic    = errors.New("invalid save state magic")
	ErrStateVersion  = errors.New("unsupported save state version")
	ErrStateROM      = errors.New("save state is for a different ROM")
	ErrStateCorrupt  = errors.New("save state data is corrupted")
	errEmulatorFreed = errors.New("emulator has been freed")
)

// boolByte converts a bool to a uint8 (0 or 1).
func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// SerializeSize returns the size in bytes of a save state.
func SerializeSize() int {
	return stateHeaderSize +
		z80.SerializeSize +
		sn76489.SerializeSize +
		busSerializeSize +
		timingSerializeSize
}

// Serialize creates a save state and returns it as a byte slice.
func (e *Emulator) Serialize() ([]byte, error) {
	data := make([]byte, SerializeSize())
	if err := e.serializeInto(data); err != nil {
		return nil, err
	}
	return data, nil
}

// serializeInto writes a save state into data, which must be
// SerializeSize() bytes.
func (e *Emulator) serializeInto(data []byte) error {
	if e.freed {
		return errEmulatorFreed
	}
	if len(data) < SerializeSize() {
		return ErrStateShort
	}

	copy(data[0:12], stateMagic)
	binary.LittleEndian.PutUint16(data[12:14], stateVersion)
	binary.LittleEndian.PutUint32(data[14:18], e.bus.romCRC)

	offset := stateHeaderSize

	if err := e.cpu.Serialize(data[offset:]); err != nil {
		return err
	}
	offset += z80.SerializeSize

	if err := e.psg.Serialize(data[offset:]); err != nil {
		return err
	}
	offset += sn76489.SerializeSize

	offset = e.serializeBus(data, offset)
	e.serializeTiming(data, offset)

	dataCRC := crc32.ChecksumIEEE(data[stateHeaderSize:SerializeSize()])
	binary.LittleEndian.PutUint32(data[18:22], dataCRC)
	return nil
}

// Deserialize restores emulator state from a save state byte slice. The
// displayed frame is rebuilt from the restored video RAM.
func (e *Emulator) Deserialize(data []byte) error {
	if err := e.VerifyState(data); err != nil {
		return err
	}

	offset := stateHeaderSize

	if err := e.cpu.Deserialize(data[offset:]); err != nil {
		return err
	}
	offset += z80.SerializeSize

	if err := e.psg.Deserialize(data[offset:]); err != nil {
		return err
	}
	offset += sn76489.SerializeSize
	e.psg.ResetBuffer()

	offset = e.deserializeBus(data, offset)
	e.deserializeTiming(data, offset)

	// Re-assert the interrupt line if it was held at capture time.
	e.cpu.INT(e.intPending, 0xFF)
	e.latchFrame()
	return nil
}

// VerifyState checks if a save state is valid without loading it.
func (e *Emulator) VerifyState(data []byte) error {
	if e.freed {
		return errEmulatorFreed
	}
	size := SerializeSize()
	if len(data) < size {
		return ErrStateShort
	}
	if string(data[0:12]) != stateMagic {
		return ErrStateMagic
	}
	if binary.LittleEndian.Uint16(data[12:14]) > stateVersion {
		return ErrStateVersion
	}
	if binary.LittleEndian.Uint32(data[14:18]) != e.bus.romCRC {
		return ErrStateROM
	}
	expectedCRC := binary.LittleEndian.Uint32(data[18:22])
	if crc32.ChecksumIEEE(data[stateHeaderSize:size]) != expectedCRC {
		return ErrStateCorrupt
	}
	return nil
}

func (e *Emulator) serializeBus(data []byte, offset int) int {
	offset += copy(data[offset:], e.bus.vram[:])
	offset += copy(data[offset:], e.bus.sram[:])
	offset += copy(data[offset:], e.bus.wram[:])
	data[offset] = e.bus.palette
	offset++
	return offset
}

func (e *Emulator) deserializeBus(data []byte, offset int) int {
	offset += copy(e.bus.vram[:], data[offset:offset+vramSize])
	offset += copy(e.bus.sram[:], data[offset:offset+sramSize])
	offset += copy(e.bus.wram[:], data[offset:offset+wramSize])
	e.bus.palette = data[offset]
	offset++
	return offset
}

func (e *Emulator) serializeTiming(data []byte, offset int) int {
	binary.LittleEndian.PutUint16(data[offset:], uint16(e.line))
	offset += 2
	binary.LittleEndian.PutUint32(data[offset:], uint32(e.lineCycles))
	offset += 4
	data[offset] = boolByte(e.intPending)
	offset++
	binary.LittleEndian.PutUint64(data[offset:], e.frameCount)
	offset += 8
	return offset
}

func (e *Emulator) deserializeTiming(data []byte, offset int) int {
	e.line = int(binary.LittleEndian.Uint16(data[offset:]))
	offset += 2
	e.lineCycles = int(binary.LittleEndian.Uint32(data[offset:]))
	offset += 4
	e.intPending = data[offset] != 0
	offset++
	e.frameCount = binary.LittleEndian.Uint64(data[offset:])
	offset += 8

	e.bus.ly = uint8(e.line)
	return offset
}
