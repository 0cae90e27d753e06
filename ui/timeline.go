package ui

import (
	"encoding/binary"
	"io"
	"math"
	"sync"
)

// bytesPerFrame is one stereo float32 frame.
const bytesPerFrame = 8

// AudioTimeline is a thread-safe stereo buffer addressed by absolute frame
// position on the output clock. The sink schedules samples at future
// positions via Schedule, and oto's player reads them via Read. Read never
// blocks: positions nobody scheduled play as silence, so the clock keeps
// advancing while the emulator is stopped or starved.
type AudioTimeline struct {
	mu       sync.Mutex
	left     []float32
	right    []float32
	capacity int   // frames
	readPos  int64 // absolute frame of the next Read
	closed   bool
}

// NewAudioTimeline creates a timeline able to hold capacity frames ahead of
// the read position.
func NewAudioTimeline(capacity int) *AudioTimeline {
	if capacity < 1 {
		capacity = 1
	}
	return &AudioTimeline{
		left:     make([]float32, capacity),
		right:    make([]float32, capacity),
		capacity: capacity,
	}
}

// Schedule mixes left and right into the timeline starting at absolute frame
// at. Frames whose position has already been played are dropped, as are
// frames beyond the capacity window. Returns the number of frames kept.
func (t *AudioTimeline) Schedule(at int64, left, right []float32) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return 0
	}

	n := min(len(left), len(right))
	end := t.readPos + int64(t.capacity)
	kept := 0
	for i := 0; i < n; i++ {
		pos := at + int64(i)
		if pos < t.readPos {
			continue
		}
		if pos >= end {
			break
		}
		idx := pos % int64(t.capacity)
		t.left[idx] += left[i]
		t.right[idx] += right[i]
		kept++
	}
	return kept
}

// Read implements io.Reader, producing interleaved float32 little-endian
// stereo. Played slots are zeroed so later schedules start from silence.
// Returns io.EOF once closed.
func (t *AudioTimeline) Read(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return 0, io.EOF
	}

	frames := len(p) / bytesPerFrame
	for i := 0; i < frames; i++ {
		idx := t.readPos % int64(t.capacity)
		off := i * bytesPerFrame
		binary.LittleEndian.PutUint32(p[off:], math.Float32bits(t.left[idx]))
		binary.LittleEndian.PutUint32(p[off+4:], math.Float32bits(t.right[idx]))
		t.left[idx] = 0
		t.right[idx] = 0
		t.readPos++
	}
	return frames * bytesPerFrame, nil
}

// Position returns the absolute frame of the next Read.
func (t *AudioTimeline) Position() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.readPos
}

// Clear discards everything scheduled. The read position is kept so the
// clock stays monotonic.
func (t *AudioTimeline) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.left)
	clear(t.right)
}

// Close signals shutdown. Subsequent Reads return io.EOF.
func (t *AudioTimeline) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
}
