package host

import "github.com/user-none/partyboy/core"

// DefaultRewindCapacity holds 12 seconds of history at one snapshot per
// frame.
const DefaultRewindCapacity = 60 * 12

// RewindRing stores snapshots in a ring buffer. Growth is bounded FIFO (the
// oldest entry is evicted and released when full) while PopState is LIFO,
// so the most recent history is rewound to first.
type RewindRing struct {
	buffer   []core.Snapshot // Ring buffer slots
	head     int             // Next write position
	count    int             // Number of valid entries
	capacity int             // Max entries
}

// NewRewindRing allocates a ring holding at most capacity snapshots.
// Capacities below one are raised to one.
func NewRewindRing(capacity int) *RewindRing {
	if capacity < 1 {
		capacity = 1
	}
	return &RewindRing{
		buffer:   make([]core.Snapshot, capacity),
		capacity: capacity,
	}
}

// PushState appends s, evicting and releasing the oldest entry when the
// ring is full. The ring takes ownership of s.
func (r *RewindRing) PushState(s core.Snapshot) {
	if r.count == r.capacity {
		// head is also the oldest slot when full
		r.buffer[r.head].Release()
	} else {
		r.count++
	}
	r.buffer[r.head] = s
	r.head = (r.head + 1) % r.capacity
}

// PopState removes and returns the newest entry. The caller owns the result
// and must release it. ok is false when the ring is empty.
func (r *RewindRing) PopState() (s core.Snapshot, ok bool) {
	if r.count == 0 {
		return nil, false
	}
	r.head = (r.head - 1 + r.capacity) % r.capacity
	s = r.buffer[r.head]
	r.buffer[r.head] = nil
	r.count--
	return s, true
}

// Len returns the number of stored snapshots.
func (r *RewindRing) Len() int {
	return r.count
}

// Cap returns the maximum number of stored snapshots.
func (r *RewindRing) Cap() int {
	return r.capacity
}

// Clear releases every stored snapshot.
func (r *RewindRing) Clear() {
	for r.count > 0 {
		s, _ := r.PopState()
		s.Release()
	}
	r.head = 0
}
