package host

import (
	"errors"

	"github.com/user-none/partyboy/core"
)

const (
	fakeCyclesPerFrame  = 70224
	fakeCyclesPerSample = 100 // one stereo sample frame per 100 cycles
	fakeChunk           = 400
)

var errFakeBuild = errors.New("bad rom")

// fakeCore is a deterministic core: a frame every fakeCyclesPerFrame cycles
// and one stereo sample frame per 100 cycles. It counts any call made after
// Free as misuse.
type fakeCore struct {
	pos      uint64
	frames   int
	draw     bool
	executed uint64
	batches  int

	keys    [core.NumKeys]bool
	loaded  []int
	taken   []*fakeSnapshot
	nextID  int
	freed   bool
	misuse  int
	saveRAM []byte
	snapErr error
}

func (c *fakeCore) use() {
	if c.freed {
		c.misuse++
	}
}

func (c *fakeCore) advance(cycles uint64, stopAtFrame bool) uint64 {
	run := cycles
	if stopAtFrame {
		run = min(cycles, fakeCyclesPerFrame-c.pos)
	}
	c.pos += run
	c.executed += run
	for c.pos >= fakeCyclesPerFrame {
		c.pos -= fakeCyclesPerFrame
		c.frames++
		c.draw = true
	}
	return run
}

func (c *fakeCore) BatchTicks(cycles uint64) ([]float32, uint64) {
	c.use()
	c.batches++
	run := c.advance(cycles, true)
	return make([]float32, 2*int(run/fakeCyclesPerSample)), cycles - run
}

func (c *fakeCore) HandleTicks() []float32 {
	c.use()
	c.advance(fakeChunk, false)
	return make([]float32, 2*fakeChunk/fakeCyclesPerSample)
}

func (c *fakeCore) ConsumeDrawFlag() bool {
	c.use()
	d := c.draw
	c.draw = false
	return d
}

func (c *fakeCore) FrameBuffer() []byte {
	c.use()
	fb := make([]byte, core.FrameBufferSize)
	fb[0] = byte(c.frames)
	return fb
}

func (c *fakeCore) KeyDown(k core.Key) { c.use(); c.keys[k] = true }
func (c *fakeCore) KeyUp(k core.Key)   { c.use(); c.keys[k] = false }

func (c *fakeCore) TakeSnapshot() (core.Snapshot, error) {
	c.use()
	if c.snapErr != nil {
		return nil, c.snapErr
	}
	c.nextID++
	s := &fakeSnapshot{id: c.nextID, frames: c.frames}
	c.taken = append(c.taken, s)
	return s, nil
}

func (c *fakeCore) LoadSnapshot(s core.Snapshot) error {
	c.use()
	fs, ok := s.(*fakeSnapshot)
	if !ok {
		return core.ErrForeignSnapshot
	}
	if fs.releases > 0 {
		c.misuse++
	}
	c.frames = fs.frames
	c.pos = 0
	c.loaded = append(c.loaded, fs.id)
	return nil
}

func (c *fakeCore) SaveRAM() []byte {
	c.use()
	return c.saveRAM
}

func (c *fakeCore) Free() {
	c.use()
	c.freed = true
}

// fakeBuilder records every core it builds.
type fakeBuilder struct {
	cores []*fakeCore
}

func (b *fakeBuilder) build(rom, ram []byte) (core.Core, error) {
	if len(rom) == 0 {
		return nil, errFakeBuild
	}
	c := &fakeCore{saveRAM: ram}
	b.cores = append(b.cores, c)
	return c, nil
}

func (b *fakeBuilder) last() *fakeCore {
	return b.cores[len(b.cores)-1]
}
