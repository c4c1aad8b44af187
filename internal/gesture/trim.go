package gesture

import "math"

// TrimEpsilon is the per-axis magnitude below which a sample counts as
// silence for trimming purposes.
const TrimEpsilon = 1e-5

// silent reports whether every axis of s is below the trimming epsilon.
func silent(s Sample) bool {
	return math.Abs(s.X) <= TrimEpsilon &&
		math.Abs(s.Y) <= TrimEpsilon &&
		math.Abs(s.Z) <= TrimEpsilon
}

// Trim removes leading and trailing silence from the trace and returns the
// inclusive active range. Silent runs inside the gesture are preserved. A
// trace that is silent throughout trims to an empty trace. Trimming an
// already-trimmed trace returns it unchanged.
func (t Trace) Trim() Trace {
	lo := 0
	for lo < len(t) && silent(t[lo]) {
		lo++
	}
	if lo == len(t) {
		return Trace{}
	}

	hi := len(t) - 1
	for hi > lo && silent(t[hi]) {
		hi--
	}
	return t[lo : hi+1]
}
