package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSnapshot counts its releases. frames is the fake core state it
// captured.
type fakeSnapshot struct {
	id       int
	frames   int
	releases int
}

func (s *fakeSnapshot) Release() { s.releases++ }

func pushN(r *RewindRing, n int) []*fakeSnapshot {
	out := make([]*fakeSnapshot, n)
	for i := range out {
		out[i] = &fakeSnapshot{id: i}
		r.PushState(out[i])
	}
	return out
}

func TestRewindRingDefaultCapacity(t *testing.T) {
	r := NewRewindRing(DefaultRewindCapacity)
	assert.Equal(t, 720, r.Cap())
	assert.Equal(t, 0, r.Len())
}

func TestRewindRingEvictsOldest(t *testing.T) {
	// 721 pushes into a 720 ring.
	r := NewRewindRing(DefaultRewindCapacity)
	snaps := pushN(r, DefaultRewindCapacity+1)

	assert.Equal(t, DefaultRewindCapacity, r.Len())
	assert.Equal(t, 1, snaps[0].releases, "first snapshot should be released once")
	for _, s := range snaps[1:] {
		assert.Zero(t, s.releases, "snapshot %d released early", s.id)
	}
}

func TestRewindRingKeepsNewest(t *testing.T) {
	const capacity, extra = 5, 7
	r := NewRewindRing(capacity)
	snaps := pushN(r, capacity+extra)

	require.Equal(t, capacity, r.Len())
	for i, s := range snaps {
		if i < extra {
			assert.Equal(t, 1, s.releases, "snapshot %d", i)
		} else {
			assert.Zero(t, s.releases, "snapshot %d", i)
		}
	}

	// Pops return newest first, down to the oldest retained.
	for want := capacity + extra - 1; want >= extra; want-- {
		s, ok := r.PopState()
		require.True(t, ok)
		assert.Equal(t, want, s.(*fakeSnapshot).id)
	}
	_, ok := r.PopState()
	assert.False(t, ok)
}

func TestRewindRingPopEmpty(t *testing.T) {
	r := NewRewindRing(3)

	s, ok := r.PopState()
	assert.False(t, ok)
	assert.Nil(t, s)
	assert.Equal(t, 0, r.Len())

	// Still usable afterwards.
	pushN(r, 1)
	assert.Equal(t, 1, r.Len())
}

func TestRewindRingPopDoesNotRelease(t *testing.T) {
	r := NewRewindRing(3)
	snaps := pushN(r, 2)

	s, ok := r.PopState()
	require.True(t, ok)
	assert.Same(t, snaps[1], s)
	assert.Zero(t, snaps[1].releases)
}

func TestRewindRingPushAfterPop(t *testing.T) {
	r := NewRewindRing(3)
	pushN(r, 3)
	r.PopState()
	r.PopState()

	fresh := &fakeSnapshot{id: 99}
	r.PushState(fresh)
	assert.Equal(t, 2, r.Len())

	s, ok := r.PopState()
	require.True(t, ok)
	assert.Same(t, fresh, s)
}

func TestRewindRingClear(t *testing.T) {
	r := NewRewindRing(4)
	snaps := pushN(r, 6)

	r.Clear()
	assert.Equal(t, 0, r.Len())
	for _, s := range snaps {
		assert.Equal(t, 1, s.releases, "snapshot %d", s.id)
	}
}

func TestRewindRingMinimumCapacity(t *testing.T) {
	r := NewRewindRing(0)
	assert.Equal(t, 1, r.Cap())

	snaps := pushN(r, 2)
	assert.Equal(t, 1, snaps[0].releases)
	assert.Equal(t, 1, r.Len())
}
