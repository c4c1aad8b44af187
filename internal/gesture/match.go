package gesture

import "math"

// DefaultThreshold is the correlation each axis must strictly exceed for an
// unlock attempt to be accepted.
const DefaultThreshold = 0.70

// normalized returns a copy of t with every sample scaled to unit magnitude.
// A sample with zero magnitude is kept as-is; the comparison is
// direction-only, and removing silent samples would shift the series.
func normalized(t Trace) Trace {
	out := make(Trace, len(t))
	for i, s := range t {
		mag := math.Sqrt(s.X*s.X + s.Y*s.Y + s.Z*s.Z)
		if mag > 0 {
			s.X /= mag
			s.Y /= mag
			s.Z /= mag
		}
		out[i] = s
	}
	return out
}

// Match compares a stored key against an unlock attempt. Both traces are
// truncated to the shorter length, normalized per sample, and correlated per
// axis. The attempt is accepted only when all three axis correlations are
// defined and strictly greater than threshold; an undefined (NaN) axis always
// fails. Neither input trace is modified.
func Match(key, attempt Trace, threshold float64) (bool, [3]float64) {
	n := len(key)
	if len(attempt) < n {
		n = len(attempt)
	}

	k := normalized(key[:n])
	a := normalized(attempt[:n])

	corr := CorrelateAxes(k, a)
	for _, c := range corr {
		if math.IsNaN(c) || c <= threshold {
			return false, corr
		}
	}
	return true, corr
}
