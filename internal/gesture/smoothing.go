package gesture

// SmoothingWindow is the moving-average width per axis.
const SmoothingWindow = 5

// axisFilter is the moving-average state for one axis: a fixed circular
// buffer, the next insertion index, and the running sum of the buffer.
type axisFilter struct {
	buffer [SmoothingWindow]float64
	index  int
	sum    float64
}

// push evicts the oldest buffered value, inserts v, and returns the mean of
// the window. O(1). The buffer starts zero-filled, so the first
// SmoothingWindow outputs are biased toward zero; capture starts after a
// warm-up delay, which makes that acceptable.
func (f *axisFilter) push(v float64) float64 {
	f.sum -= f.buffer[f.index]
	f.buffer[f.index] = v
	f.sum += v
	f.index = (f.index + 1) % SmoothingWindow
	return f.sum / SmoothingWindow
}

// Smoother applies an independent moving average to each axis.
type Smoother struct {
	x, y, z axisFilter
}

// NewSmoother returns a Smoother with zero-filled buffers.
func NewSmoother() *Smoother {
	return &Smoother{}
}

// Smooth filters one sample through the per-axis windows.
func (s *Smoother) Smooth(in Sample) Sample {
	return Sample{
		X: s.x.push(in.X),
		Y: s.y.push(in.Y),
		Z: s.z.push(in.Z),
	}
}
