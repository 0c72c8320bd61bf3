package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMonotonic exercises testable property 4 of spec.md §8: for all
// StateMarker transitions recorded during a run, the sequence is
// strictly increasing.
func TestMonotonic(t *testing.T) {
	var h Holder
	require.Equal(t, NotYetCalled, h.Load())

	sequence := []Marker{
		HardenedMainCalled,
		WinImportsResolved,
		InitRuntime,
		GetTrustedMain,
		CalledTrustedMain,
	}
	for _, m := range sequence {
		h.Advance(m)
		assert.Equal(t, m, h.Load())
	}
}

func TestAdvanceRejectsNonIncreasing(t *testing.T) {
	var h Holder
	h.Advance(InitRuntime)

	assert.Panics(t, func() { h.Advance(InitRuntime) })
	assert.Panics(t, func() { h.Advance(HardenedMainCalled) })
}

func TestAtLeast(t *testing.T) {
	var h Holder
	assert.False(t, h.AtLeast(HardenedMainCalled))
	h.Advance(WinImportsResolved)
	assert.True(t, h.AtLeast(HardenedMainCalled))
	assert.True(t, h.AtLeast(WinImportsResolved))
	assert.False(t, h.AtLeast(InitRuntime))
}
