package notes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type noteOff struct{ channel, note, velocity uint8 }

func drain(r *Registry) []noteOff {
	var out []noteOff
	r.AllNotesOff(func(c, n, v uint8) { out = append(out, noteOff{c, n, v}) })
	return out
}

func TestRegistryStartsEmpty(t *testing.T) {
	r := New(8)
	assert.Equal(t, 8, r.Cap())
	assert.Zero(t, r.Len())
	assert.Empty(t, drain(r))
}

func TestMarkActiveAndInactive(t *testing.T) {
	r := New(4)
	r.MarkActive(0, 60)
	r.MarkActive(1, 60)
	r.MarkActive(0, 64)

	r.MarkInactive(0, 60)
	r.MarkInactive(2, 99) // unknown, no-op

	assert.Equal(t, []Slot{
		{Channel: 1, Note: 60, Active: true},
		{Channel: 0, Note: 64, Active: true},
	}, r.Active())
}

func TestMarkActiveReusesFirstFreeSlot(t *testing.T) {
	r := New(3)
	r.MarkActive(0, 1)
	r.MarkActive(0, 2)
	r.MarkInactive(0, 1)
	r.MarkActive(0, 3)

	assert.Equal(t, []noteOff{{0, 3, 0}, {0, 2, 0}}, drain(r))
}

func TestEvictionOverwritesSlotZero(t *testing.T) {
	const capacity = 32
	r := New(capacity)
	for n := 0; n <= capacity; n++ {
		r.MarkActive(0, uint8(n))
	}

	got := drain(r)
	assert.Len(t, got, capacity)

	seen := map[uint8]int{}
	for _, off := range got {
		seen[off.note]++
		assert.Zero(t, off.velocity)
	}
	assert.NotContains(t, seen, uint8(0), "first note is evicted")
	for n := 1; n <= capacity; n++ {
		assert.Equal(t, 1, seen[uint8(n)], "note %d", n)
	}
	// Slot order: the evicting note sits in slot 0.
	assert.Equal(t, uint8(capacity), got[0].note)
}

func TestAllNotesOffIsIdempotent(t *testing.T) {
	r := New(4)
	r.MarkActive(3, 40)
	r.MarkActive(3, 41)

	assert.Len(t, drain(r), 2)
	assert.Empty(t, drain(r))
	assert.Zero(t, r.Len())
}

func TestZeroCapacityTracksNothing(t *testing.T) {
	r := New(0)
	assert.NotPanics(t, func() { r.MarkActive(0, 60) })
	assert.Empty(t, drain(r))
	assert.Zero(t, New(-3).Cap())
}
