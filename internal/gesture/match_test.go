package gesture

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wavyTrace builds a non-degenerate trace with independent variation on all
// three axes.
func wavyTrace(n int) Trace {
	tr := make(Trace, n)
	for i := range tr {
		t := float64(i) * 0.1
		tr[i] = Sample{
			X: 80 * math.Sin(2*t),
			Y: 50 * math.Cos(3*t),
			Z: 30 * math.Sin(t+1),
		}
	}
	return tr
}

func TestMatchAcceptsIdenticalTraces(t *testing.T) {
	key := wavyTrace(60)

	ok, corr := Match(key, key, DefaultThreshold)
	require.True(t, ok)
	for i, c := range corr {
		assert.InDelta(t, 1.0, c, 1e-9, "axis %d", i)
	}
}

func TestMatchRejectsUnrelatedAttempt(t *testing.T) {
	key := wavyTrace(60)
	attempt := make(Trace, 60)
	for i := range attempt {
		t := float64(i) * 0.1
		// Anticorrelated motion on every axis.
		attempt[i] = Sample{
			X: -80 * math.Sin(2*t),
			Y: -50 * math.Cos(3*t),
			Z: -30 * math.Sin(t+1),
		}
	}

	ok, _ := Match(key, attempt, DefaultThreshold)
	assert.False(t, ok)
}

func TestMatchAllZeroKeyNeverAccepts(t *testing.T) {
	key := make(Trace, 40)

	ok, corr := Match(key, wavyTrace(40), DefaultThreshold)
	require.False(t, ok)
	for i, c := range corr {
		assert.True(t, math.IsNaN(c), "axis %d should be undefined", i)
	}
}

func TestMatchTruncatesToShorter(t *testing.T) {
	key := wavyTrace(40)
	attempt := wavyTrace(42)
	// Garbage beyond index 39 must be ignored.
	attempt[40] = Sample{X: 1e6}
	attempt[41] = Sample{Y: -1e6}

	ok, corr := Match(key, attempt, DefaultThreshold)
	require.True(t, ok)
	for i, c := range corr {
		assert.InDelta(t, 1.0, c, 1e-9, "axis %d", i)
	}
}

func TestMatchDoesNotModifyInputs(t *testing.T) {
	key := wavyTrace(50)
	attempt := wavyTrace(45)
	keyCopy := append(Trace(nil), key...)
	attemptCopy := append(Trace(nil), attempt...)

	Match(key, attempt, DefaultThreshold)

	assert.Equal(t, keyCopy, key)
	assert.Equal(t, attemptCopy, attempt)
}

func TestMatchThresholdIsStrict(t *testing.T) {
	key := wavyTrace(30)

	// Identical traces correlate at 1.0 on every axis; a threshold of 1.0
	// must still reject because the comparison is strictly greater-than.
	ok, _ := Match(key, key, 1.0)
	assert.False(t, ok)
}

func TestNormalizedPreservesDirection(t *testing.T) {
	in := Trace{
		{X: 3, Y: 4, Z: 0},
		{X: -1, Y: 2, Z: 2},
		{}, // zero magnitude stays untouched
	}

	out := normalized(in)
	require.Len(t, out, 3)

	for i := 0; i < 2; i++ {
		mag := math.Sqrt(out[i].X*out[i].X + out[i].Y*out[i].Y + out[i].Z*out[i].Z)
		assert.InDelta(t, 1.0, mag, 1e-12, "sample %d", i)
	}
	assert.Equal(t, Sample{}, out[2])

	// Direction preserved: same sign and ratio as the input.
	assert.InDelta(t, 0.6, out[0].X, 1e-12)
	assert.InDelta(t, 0.8, out[0].Y, 1e-12)
}
