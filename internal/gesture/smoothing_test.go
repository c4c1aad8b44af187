package gesture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmootherConvergesToConstant(t *testing.T) {
	s := NewSmoother()

	in := Sample{X: 3, Y: -7, Z: 0.25}
	var out Sample
	for i := 0; i < SmoothingWindow; i++ {
		out = s.Smooth(in)
	}

	// After a full window of a constant input, the average is that constant
	// exactly, not merely approximately.
	assert.Equal(t, in, out)
}

func TestSmootherWarmupBiasedTowardZero(t *testing.T) {
	s := NewSmoother()

	out := s.Smooth(Sample{X: 10, Y: 10, Z: 10})
	assert.Equal(t, Sample{X: 2, Y: 2, Z: 2}, out)
}

func TestSmootherEvictsOldest(t *testing.T) {
	s := NewSmoother()

	for i := 0; i < SmoothingWindow; i++ {
		s.Smooth(Sample{X: 5})
	}
	// The next push evicts one of the 5s: (5*4 + 0) / 5
	out := s.Smooth(Sample{})
	require.InDelta(t, 4.0, out.X, 1e-12)
	require.Zero(t, out.Y)
	require.Zero(t, out.Z)
}

func TestAxisFiltersIndependent(t *testing.T) {
	s := NewSmoother()

	s.Smooth(Sample{X: 100})
	out := s.Smooth(Sample{Y: 50})

	assert.InDelta(t, 20.0, out.X, 1e-12)
	assert.InDelta(t, 10.0, out.Y, 1e-12)
	assert.Zero(t, out.Z)
}
