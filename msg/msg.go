// Package msg defines the messages exchanged between the UI and the
// emulation worker, and the channel that carries them.
//
// Intents flow UI to worker, events flow worker to UI. Both are closed: only
// this package can add variants. Byte and sample slices carried by a message
// are moved, not shared, and the sender must not touch them after sending.
package msg

import "github.com/user-none/partyboy/core"

// Intent is a request from the UI to the worker.
type Intent interface {
	Kind() string
	intent()
}

// Event is a notification from the worker to the UI.
type Event interface {
	Kind() string
	event()
}

// Load replaces the running core with one built from ROM. RAM, when
// non-nil, is persisted battery RAM for that ROM.
type Load struct {
	ROM []byte
	RAM []byte
}

// InputDown presses a joypad button.
type InputDown struct{ Key core.Key }

// InputUp releases a joypad button.
type InputUp struct{ Key core.Key }

// Turbo switches maximum-speed mode on or off.
type Turbo struct{ On bool }

// Start resumes stepping.
type Start struct{}

// Stop pauses stepping.
type Stop struct{}

// StartRewind switches to replaying history.
type StartRewind struct{}

// StopRewind returns to stepping forward.
type StopRewind struct{}

// TakeSnapshot stores the current state in the save slot.
type TakeSnapshot struct{}

// LoadSnapshot restores the save slot.
type LoadSnapshot struct{}

// RunForSamples asks the worker to step until Count stereo frames of audio
// have been produced.
type RunForSamples struct{ Count int }

// RequestSaveRAM asks the worker for the core's battery RAM.
type RequestSaveRAM struct{}

// Shutdown terminates the worker.
type Shutdown struct{}

func (Load) Kind() string           { return "load" }
func (InputDown) Kind() string      { return "inputdown" }
func (InputUp) Kind() string        { return "inputup" }
func (Turbo) Kind() string          { return "turbo" }
func (Start) Kind() string          { return "start" }
func (Stop) Kind() string           { return "stop" }
func (StartRewind) Kind() string    { return "startrewind" }
func (StopRewind) Kind() string     { return "stoprewind" }
func (TakeSnapshot) Kind() string   { return "takesnapshot" }
func (LoadSnapshot) Kind() string   { return "loadsnapshot" }
func (RunForSamples) Kind() string  { return "runforsamples" }
func (RequestSaveRAM) Kind() string { return "requestsaveram" }
func (Shutdown) Kind() string       { return "shutdown" }

func (Load) intent()           {}
func (InputDown) intent()      {}
func (InputUp) intent()        {}
func (Turbo) intent()          {}
func (Start) intent()          {}
func (Stop) intent()           {}
func (StartRewind) intent()    {}
func (StopRewind) intent()     {}
func (TakeSnapshot) intent()   {}
func (LoadSnapshot) intent()   {}
func (RunForSamples) intent()  {}
func (RequestSaveRAM) intent() {}
func (Shutdown) intent()       {}

// Ready reports that the worker can build cores.
type Ready struct{}

// FPS reports the measured frame rate.
type FPS struct{ Value float64 }

// Frame carries one core.FrameBufferSize RGB frame.
type Frame struct{ Buffer []byte }

// Audio carries interleaved stereo samples.
type Audio struct{ Samples []float32 }

// SaveRAM answers RequestSaveRAM. Data is nil when the cartridge has no
// battery RAM or no core is loaded.
type SaveRAM struct{ Data []byte }

// Error reports a failed intent.
type Error struct{ Message string }

func (Ready) Kind() string   { return "ready" }
func (FPS) Kind() string     { return "fps" }
func (Frame) Kind() string   { return "recvframe" }
func (Audio) Kind() string   { return "recvaudio" }
func (SaveRAM) Kind() string { return "saveram" }
func (Error) Kind() string   { return "error" }

func (Ready) event()   {}
func (FPS) event()     {}
func (Frame) event()   {}
func (Audio) event()   {}
func (SaveRAM) event() {}
func (Error) event()   {}
