// Package host runs an emulator core in real time: it converts wall-clock
// time into cycle budgets, steps the core, keeps rewind history and talks to
// the UI only through msg.Channel.
package host

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/user-none/partyboy/core"
	"github.com/user-none/partyboy/msg"
)

// Loader prepares the core dependency. The worker calls it once, in the
// background, and announces Ready when it returns successfully.
type Loader func(ctx context.Context) (core.Builder, error)

// StaticLoader returns a Loader that is ready immediately.
func StaticLoader(b core.Builder) Loader {
	return func(context.Context) (core.Builder, error) { return b, nil }
}

// maxPullStalls ends a RunForSamples request when the core keeps producing
// no audio.
const maxPullStalls = 8

type loadResult struct {
	build core.Builder
	err   error
}

// Worker is the emulation side of the channel. All of its state is owned
// by the goroutine running Run; nothing here is safe for concurrent use.
type Worker struct {
	opts  Options
	end   *msg.WorkerEnd
	load  Loader
	now   func() time.Time
	sched *TickScheduler
	ring  *RewindRing

	build core.Builder
	core  core.Core
	slot  core.Snapshot // save-state slot

	stopped   bool
	turbo     bool
	rewinding bool

	// continuation is the pending timer pass. It is stopped and cleared
	// before the core it would drive is freed.
	continuation *time.Timer
}

// NewWorker creates a worker that posts to end and obtains its core builder
// from load.
func NewWorker(end *msg.WorkerEnd, load Loader, opts Options) *Worker {
	return &Worker{
		opts:  opts,
		end:   end,
		load:  load,
		now:   time.Now,
		sched: NewTickScheduler(opts.ClockHz, opts.FPSReportInterval),
		ring:  NewRewindRing(opts.RewindCapacity),
	}
}

// Run processes intents until Shutdown, until the UI detaches or until ctx
// is cancelled. On return the core and every snapshot have been released
// and the event stream is closed.
func (w *Worker) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer w.teardown()

	loaded := make(chan loadResult, 1)
	go func() {
		b, err := w.load(ctx)
		loaded <- loadResult{build: b, err: err}
	}()

	for {
		var tick <-chan time.Time
		if w.continuation != nil {
			tick = w.continuation.C
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.end.Detached():
			return nil
		case r := <-loaded:
			loaded = nil
			if r.err != nil {
				w.fail("load core", r.err)
				return fmt.Errorf("load core: %w", r.err)
			}
			w.build = r.build
			w.end.Post(msg.Ready{})
		case in := <-w.end.Intents():
			if w.handle(in) {
				return nil
			}
		case <-tick:
			w.continuation = nil
			w.pass()
		}
	}
}

// handle applies one intent and reports whether the worker should exit.
func (w *Worker) handle(in msg.Intent) bool {
	switch in := in.(type) {
	case msg.Load:
		w.loadROM(in)
	case msg.InputDown:
		if w.core != nil {
			w.core.KeyDown(in.Key)
		}
	case msg.InputUp:
		if w.core != nil {
			w.core.KeyUp(in.Key)
		}
	case msg.Turbo:
		w.turbo = in.On
	case msg.Start:
		w.stopped = false
	case msg.Stop:
		w.stopped = true
	case msg.StartRewind:
		w.rewinding = true
	case msg.StopRewind:
		w.rewinding = false
	case msg.TakeSnapshot:
		w.takeSnapshot()
	case msg.LoadSnapshot:
		w.loadSnapshot()
	case msg.RunForSamples:
		w.runForSamples(in.Count)
	case msg.RequestSaveRAM:
		var data []byte
		if w.core != nil {
			data = w.core.SaveRAM()
		}
		w.end.Post(msg.SaveRAM{Data: data})
	case msg.Shutdown:
		return true
	default:
		log.Printf("worker: unhandled intent %q", in.Kind())
	}
	return false
}

// loadROM replaces the core. A load always leaves emulation running, even
// when it fails and the old core stays.
func (w *Worker) loadROM(in msg.Load) {
	if w.build == nil {
		log.Printf("worker: %s before ready, ignored", in.Kind())
		return
	}
	w.stopped = false
	c, err := w.build(in.ROM, in.RAM)
	if err != nil {
		w.fail("load", err)
		return
	}

	w.cancelContinuation()
	w.freeCore()
	w.core = c
	w.sched.Reset(w.now())
	w.schedule()
}

func (w *Worker) takeSnapshot() {
	if w.core == nil {
		return
	}
	s, err := w.core.TakeSnapshot()
	if err != nil {
		w.fail("take snapshot", err)
		return
	}
	if w.slot != nil {
		w.slot.Release()
	}
	w.slot = s
}

// loadSnapshot restores and consumes the save slot.
func (w *Worker) loadSnapshot() {
	if w.core == nil || w.slot == nil {
		return
	}
	s := w.slot
	w.slot = nil
	err := w.core.LoadSnapshot(s)
	s.Release()
	if err != nil {
		w.fail("load snapshot", err)
		return
	}
	w.emitFrame()
}

// pass is one scheduling step.
func (w *Worker) pass() {
	if w.core == nil {
		return
	}
	now := w.now()

	budget := w.sched.CalculateTicksToRun(now, w.turbo)
	if w.turbo {
		budget = min(budget, w.opts.TurboBudget)
	} else if budget > w.opts.RunawayThreshold {
		budget = 0
	}

	if w.opts.Pacing == PacingTimer || w.turbo {
		w.stepForward(budget)
	}
	if w.rewinding {
		w.rewindStep()
	}
	if fps, ok := w.sched.ReportFPS(now); ok {
		w.end.Post(msg.FPS{Value: fps})
	}

	w.schedule()
}

// stepForward runs the core for budget cycles in frame-sized batches.
func (w *Worker) stepForward(budget uint64) {
	for budget > 0 && !w.stopped && !w.rewinding {
		samples, remaining := w.core.BatchTicks(budget)
		if !w.turbo && len(samples) > 0 {
			w.end.Post(msg.Audio{Samples: samples})
		}
		w.frameCheck()
		if remaining >= budget {
			break
		}
		budget = remaining
	}
}

// rewindStep replaces the core state with the newest history entry.
func (w *Worker) rewindStep() {
	s, ok := w.ring.PopState()
	if !ok {
		return
	}
	err := w.core.LoadSnapshot(s)
	s.Release()
	if err != nil {
		w.fail("rewind", err)
		return
	}
	w.emitFrame()
	w.sched.RecordFrameDraw()
}

// runForSamples steps the core in small chunks until count stereo frames
// of audio have been produced.
func (w *Worker) runForSamples(count int) {
	if count <= 0 {
		return
	}
	if w.core == nil || w.stopped || w.rewinding {
		w.end.Post(msg.Audio{Samples: make([]float32, count*2)})
		return
	}

	produced, stalls := 0, 0
	for produced < count && stalls < maxPullStalls {
		samples := w.core.HandleTicks()
		if len(samples) == 0 {
			stalls++
		} else {
			produced += len(samples) / 2
			w.end.Post(msg.Audio{Samples: samples})
		}
		w.frameCheck()
	}
}

// frameCheck emits a completed frame and records history for it.
func (w *Worker) frameCheck() {
	if !w.core.ConsumeDrawFlag() {
		return
	}
	w.emitFrame()
	w.sched.RecordFrameDraw()
	if !w.rewinding && !w.turbo {
		w.capture()
	}
}

func (w *Worker) capture() {
	s, err := w.core.TakeSnapshot()
	if err != nil {
		log.Printf("worker: rewind capture: %v", err)
		return
	}
	w.ring.PushState(s)
}

func (w *Worker) emitFrame() {
	w.end.Post(msg.Frame{Buffer: w.core.FrameBuffer()})
}

func (w *Worker) schedule() {
	if w.continuation != nil || w.core == nil {
		return
	}
	w.continuation = time.NewTimer(w.opts.FrameInterval)
}

func (w *Worker) cancelContinuation() {
	if w.continuation != nil {
		w.continuation.Stop()
		w.continuation = nil
	}
}

// freeCore releases the core and everything captured from it.
func (w *Worker) freeCore() {
	w.ring.Clear()
	if w.slot != nil {
		w.slot.Release()
		w.slot = nil
	}
	if w.core != nil {
		w.core.Free()
		w.core = nil
	}
}

func (w *Worker) teardown() {
	w.cancelContinuation()
	w.freeCore()
	w.end.Close()
}

func (w *Worker) fail(op string, err error) {
	log.Printf("worker: %s: %v", op, err)
	w.end.Post(msg.Error{Message: fmt.Sprintf("%s: %v", op, err)})
}
