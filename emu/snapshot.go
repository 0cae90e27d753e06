package emu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/pierrec/lz4/v4"
	"github.com/user-none/partyboy/core"
)

// ErrReleased is returned when a released snapshot is loaded.
var ErrReleased = errors.New("snapshot has been released")

// Snapshot is an lz4 compressed save state. Rewind keeps hundreds of these,
// so the compressed buffers are pooled.
type Snapshot struct {
	buf        *[]byte
	rawLen     int
	compressed bool
}

var snapshotPool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, lz4.CompressBlockBound(SerializeSize()))
		return &b
	},
}

// Release returns the snapshot's buffer to the pool. Calling it more than
// once is harmless.
func (s *Snapshot) Release() {
	if s.released() {
		return
	}
	*s.buf = (*s.buf)[:0]
	snapshotPool.Put(s.buf)
	s.buf = nil
}

func (s *Snapshot) released() bool {
	return s.buf == nil
}

// TakeSnapshot captures the complete machine state.
func (e *Emulator) TakeSnapshot() (core.Snapshot, error) {
	size := SerializeSize()
	if cap(e.stateScratch) < size {
		e.stateScratch = make([]byte, size)
	}
	raw := e.stateScratch[:size]
	if err := e.serializeInto(raw); err != nil {
		return nil, err
	}

	buf := snapshotPool.Get().(*[]byte)
	bound := lz4.CompressBlockBound(size)
	if cap(*buf) < bound {
		*buf = make([]byte, 0, bound)
	}
	dst := (*buf)[:bound]

	s := &Snapshot{buf: buf, rawLen: size}
	n, err := lz4.CompressBlock(raw, dst, nil)
	switch {
	case err != nil:
		s.Release()
		return nil, fmt.Errorf("compress snapshot: %w", err)
	case n == 0:
		// Incompressible: store as is.
		*buf = append(dst[:0], raw...)
	default:
		*buf = dst[:n]
		s.compressed = true
	}
	return s, nil
}

// LoadSnapshot restores a state captured by TakeSnapshot. The snapshot is
// not consumed.
func (e *Emulator) LoadSnapshot(cs core.Snapshot) error {
	s, ok := cs.(*Snapshot)
	if !ok {
		return core.ErrForeignSnapshot
	}
	if s.released() {
		return ErrReleased
	}
	if !s.compressed {
		return e.Deserialize(*s.buf)
	}

	if cap(e.stateScratch) < s.rawLen {
		e.stateScratch = make([]byte, s.rawLen)
	}
	raw := e.stateScratch[:s.rawLen]
	n, err := lz4.UncompressBlock(*s.buf, raw)
	if err != nil {
		return fmt.Errorf("decompress snapshot: %w", err)
	}
	return e.Deserialize(raw[:n])
}
