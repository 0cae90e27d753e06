package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/user-none/partyboy/core"
)

func TestDiffKeys(t *testing.T) {
	var prev, cur [core.NumKeys]bool
	prev[core.KeyA] = true
	prev[core.KeyUp] = true
	cur[core.KeyUp] = true
	cur[core.KeyStart] = true
	cur[core.KeyRight] = true

	down, up := diffKeys(prev, cur)
	assert.Equal(t, []core.Key{core.KeyRight, core.KeyStart}, down)
	assert.Equal(t, []core.Key{core.KeyA}, up)
}

func TestDiffKeysUnchanged(t *testing.T) {
	var state [core.NumKeys]bool
	state[core.KeyB] = true

	down, up := diffKeys(state, state)
	assert.Empty(t, down)
	assert.Empty(t, up)
}

func TestKeyboardCoversEveryButton(t *testing.T) {
	var seen [core.NumKeys]bool
	for _, k := range keyboard {
		seen[k] = true
	}
	for i, ok := range seen {
		assert.True(t, ok, "no key bound to %s", core.Key(i))
	}
}
