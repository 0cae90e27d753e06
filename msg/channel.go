package msg

import "sync"

// Channel connects one UI and one worker. Delivery is FIFO per direction;
// there is no ordering between the two directions.
type Channel struct {
	intents chan Intent
	events  chan Event

	uiClosed   chan struct{}
	workerDone chan struct{}

	uiOnce     sync.Once
	workerOnce sync.Once
}

// NewChannel creates a channel with buffer slots in each direction. A
// buffer of zero makes every message a rendezvous.
func NewChannel(buffer int) *Channel {
	if buffer < 0 {
		buffer = 0
	}
	return &Channel{
		intents:    make(chan Intent, buffer),
		events:     make(chan Event, buffer),
		uiClosed:   make(chan struct{}),
		workerDone: make(chan struct{}),
	}
}

// UI returns the UI side of the channel.
func (c *Channel) UI() *UIEnd {
	return &UIEnd{c: c}
}

// Worker returns the worker side of the channel.
func (c *Channel) Worker() *WorkerEnd {
	return &WorkerEnd{c: c}
}

// UIEnd sends intents and receives events.
type UIEnd struct {
	c *Channel
}

// Send delivers an intent. It blocks while the intent buffer is full and
// returns false once the worker has exited. A goroutine that also reads
// Events must use Deliver instead, or a full buffer in each direction
// leaves both sides waiting.
func (u *UIEnd) Send(in Intent) bool {
	select {
	case <-u.c.workerDone:
		return false
	default:
	}
	select {
	case u.c.intents <- in:
		return true
	case <-u.c.workerDone:
		return false
	}
}

// Deliver is Send for the goroutine that also consumes events. While the
// intent buffer is full it keeps receiving events and passes them to
// handle, so a worker blocked in Post can reach its next receive. It
// returns false once the worker has exited.
func (u *UIEnd) Deliver(in Intent, handle func(Event)) bool {
	events := u.c.events
	for {
		select {
		case <-u.c.workerDone:
			return false
		default:
		}
		select {
		case u.c.intents <- in:
			return true
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			handle(ev)
		case <-u.c.workerDone:
			return false
		}
	}
}

// Events returns the event stream. It is closed when the worker exits.
func (u *UIEnd) Events() <-chan Event {
	return u.c.events
}

// Done is closed when the worker has exited.
func (u *UIEnd) Done() <-chan struct{} {
	return u.c.workerDone
}

// Close detaches the UI. Pending and future Posts by the worker are
// dropped.
func (u *UIEnd) Close() {
	u.c.uiOnce.Do(func() { close(u.c.uiClosed) })
}

// WorkerEnd receives intents and posts events.
type WorkerEnd struct {
	c *Channel
}

// Intents returns the intent stream.
func (w *WorkerEnd) Intents() <-chan Intent {
	return w.c.intents
}

// Detached is closed when the UI has detached.
func (w *WorkerEnd) Detached() <-chan struct{} {
	return w.c.uiClosed
}

// Post delivers an event. It blocks while the event buffer is full and
// returns false once the UI has detached.
func (w *WorkerEnd) Post(ev Event) bool {
	select {
	case <-w.c.uiClosed:
		return false
	default:
	}
	select {
	case w.c.events <- ev:
		return true
	case <-w.c.uiClosed:
		return false
	}
}

// Close marks the worker as exited and closes the event stream. It must
// only be called by the worker goroutine, after its last Post.
func (w *WorkerEnd) Close() {
	w.c.workerOnce.Do(func() {
		close(w.c.workerDone)
		close(w.c.events)
	})
}
