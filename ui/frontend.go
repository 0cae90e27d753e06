// Package ui is the consumer side of the emulation host: it turns UI
// actions into intents, and worker events into sound and pictures.
package ui

import (
	"log"
	"time"

	"github.com/user-none/partyboy/core"
	"github.com/user-none/partyboy/msg"
)

// pullTimeout allows a new RunForSamples request when the previous one was
// never fully answered.
const pullTimeout = 250 * time.Millisecond

// Frontend holds the UI goroutine's view of the worker: latest frame, last
// FPS report, readiness, and the audio sink fed by audio events. It sends
// intents on behalf of the input layer.
//
// Frontend is not safe for concurrent use; call it from the UI goroutine.
type Frontend struct {
	end  *msg.UIEnd
	sink *AudioSink // nil when no audio device is available
	pull bool       // request audio with RunForSamples
	now  func() time.Time

	ready   bool
	closed  bool
	pending *msg.Load // load sent before ready

	frame    []byte
	newFrame bool
	fps      float64
	saveRAM  []byte

	pulling  int // frames requested and not yet received
	pulledAt time.Time

	turbo     bool
	rewinding bool
	paused    bool
}

// NewFrontend creates a frontend on end. sink may be nil. With pull set,
// the frontend asks the worker for audio whenever the sink runs low.
func NewFrontend(end *msg.UIEnd, sink *AudioSink, pull bool) *Frontend {
	return &Frontend{
		end:  end,
		sink: sink,
		pull: pull && sink != nil,
		now:  time.Now,
	}
}

// Pump processes every event already waiting, then requests audio if the
// sink is running low. It only waits on the worker while handing over an
// intent, and keeps consuming events while it does.
func (f *Frontend) Pump() {
	for !f.closed {
		select {
		case ev, ok := <-f.end.Events():
			if !ok {
				f.closed = true
				return
			}
			f.handle(ev)
		default:
			f.requestAudio()
			return
		}
	}
}

func (f *Frontend) handle(ev msg.Event) {
	switch ev := ev.(type) {
	case msg.Ready:
		f.ready = true
		if load := f.pending; load != nil {
			f.pending = nil
			f.send(*load)
		}
	case msg.FPS:
		f.fps = ev.Value
	case msg.Frame:
		f.frame = ev.Buffer
		f.newFrame = true
	case msg.Audio:
		f.pulling -= len(ev.Samples) / 2
		if f.sink != nil {
			f.sink.HandleAudio(ev.Samples)
		}
	case msg.SaveRAM:
		f.saveRAM = ev.Data
	case msg.Error:
		log.Printf("Warning: emulation: %s", ev.Message)
	}
}

func (f *Frontend) requestAudio() {
	if !f.pull || !f.ready || f.paused || f.turbo || f.rewinding {
		return
	}
	if f.pulling > 0 && f.now().Sub(f.pulledAt) < pullTimeout {
		return
	}
	if !f.sink.NeedMoreSamples() {
		return
	}
	n := f.sink.SamplesWanted()
	if n <= 0 {
		return
	}
	if f.send(msg.RunForSamples{Count: n}) {
		f.pulling = n
		f.pulledAt = f.now()
	}
}

// send delivers in, handling any events that arrive while the intent
// buffer is full.
func (f *Frontend) send(in msg.Intent) bool {
	if f.closed {
		return false
	}
	if !f.end.Deliver(in, f.handle) {
		f.closed = true
		return false
	}
	return true
}

// Load starts rom with battery RAM ram. Before the worker is ready only the
// latest load is kept, and it is sent once Ready arrives.
func (f *Frontend) Load(rom, ram []byte) {
	load := msg.Load{ROM: rom, RAM: ram}
	f.paused = false
	f.pulling = 0
	f.resetAudio()
	if !f.ready {
		f.pending = &load
		return
	}
	f.send(load)
}

// KeyDown presses key.
func (f *Frontend) KeyDown(key core.Key) {
	f.send(msg.InputDown{Key: key})
}

// KeyUp releases key.
func (f *Frontend) KeyUp(key core.Key) {
	f.send(msg.InputUp{Key: key})
}

// SetTurbo switches turbo. Audio is silenced while turbo runs and the sink
// starts over from a fresh timeline when it ends.
func (f *Frontend) SetTurbo(on bool) {
	if on == f.turbo {
		return
	}
	f.turbo = on
	f.send(msg.Turbo{On: on})
	f.updateSink()
}

// SetRewind starts or stops rewinding, with the same audio handling as
// SetTurbo.
func (f *Frontend) SetRewind(on bool) {
	if on == f.rewinding {
		return
	}
	f.rewinding = on
	if on {
		f.send(msg.StartRewind{})
	} else {
		f.send(msg.StopRewind{})
	}
	f.updateSink()
}

func (f *Frontend) updateSink() {
	if f.sink == nil {
		return
	}
	if f.turbo || f.rewinding {
		f.sink.Stop()
		return
	}
	f.resetAudio()
}

func (f *Frontend) resetAudio() {
	if f.sink == nil {
		return
	}
	if err := f.sink.Reset(); err != nil {
		log.Printf("Warning: audio reset failed: %v", err)
	}
}

// AdjustVolume changes the volume by delta, within 0 to 1, and returns the
// new volume. Without audio it returns 0.
func (f *Frontend) AdjustVolume(delta float64) float64 {
	if f.sink == nil {
		return 0
	}
	v := min(max(f.sink.Volume()+delta, 0), 1)
	f.sink.SetVolume(v)
	return v
}

// Volume returns the audio volume, or 0 without audio.
func (f *Frontend) Volume() float64 {
	if f.sink == nil {
		return 0
	}
	return f.sink.Volume()
}

// TogglePause stops or restarts emulation.
func (f *Frontend) TogglePause() {
	f.paused = !f.paused
	if f.paused {
		f.send(msg.Stop{})
		return
	}
	f.pulling = 0
	f.send(msg.Start{})
}

// TakeSnapshot stores the current state in the save slot.
func (f *Frontend) TakeSnapshot() {
	f.send(msg.TakeSnapshot{})
}

// LoadSnapshot restores the save slot.
func (f *Frontend) LoadSnapshot() {
	f.send(msg.LoadSnapshot{})
}

// RequestSaveRAM asks the worker for the core's battery RAM. The answer is
// available from SaveRAM after a later Pump.
func (f *Frontend) RequestSaveRAM() {
	f.send(msg.RequestSaveRAM{})
}

// Frame returns the latest frame and whether it arrived since the previous
// call.
func (f *Frontend) Frame() ([]byte, bool) {
	fresh := f.newFrame
	f.newFrame = false
	return f.frame, fresh
}

// FPS returns the last reported frame rate.
func (f *Frontend) FPS() float64 { return f.fps }

// SaveRAM returns the last battery RAM the worker sent.
func (f *Frontend) SaveRAM() []byte { return f.saveRAM }

// Ready reports whether the worker has announced Ready.
func (f *Frontend) Ready() bool { return f.ready }

// Closed reports whether the worker has exited.
func (f *Frontend) Closed() bool { return f.closed }

// Paused reports whether emulation was stopped with TogglePause.
func (f *Frontend) Paused() bool { return f.paused }

// Turbo reports whether turbo is on.
func (f *Frontend) Turbo() bool { return f.turbo }

// Rewinding reports whether rewind is on.
func (f *Frontend) Rewinding() bool { return f.rewinding }

// Shutdown asks for the battery RAM, stops the worker and waits up to
// timeout for its event stream to close. It returns the last battery RAM
// received, which may be nil.
func (f *Frontend) Shutdown(timeout time.Duration) []byte {
	if f.ready {
		f.send(msg.RequestSaveRAM{})
	}
	f.send(msg.Shutdown{})

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for !f.closed {
		select {
		case ev, ok := <-f.end.Events():
			if !ok {
				f.closed = true
				break
			}
			f.handle(ev)
		case <-deadline.C:
			log.Printf("Warning: emulation worker did not stop within %v", timeout)
			f.closed = true
		}
	}
	f.end.Close()

	if f.sink != nil {
		if err := f.sink.Close(); err != nil {
			log.Printf("Warning: closing audio: %v", err)
		}
	}
	return f.saveRAM
}
