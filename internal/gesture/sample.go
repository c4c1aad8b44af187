package gesture

import "context"

// Sample is a single calibrated angular-rate reading in degrees per second,
// after bias subtraction, deadband, and smoothing.
type Sample struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Trace is one full capture in temporal order, after trimming.
type Trace []Sample

// Source provides calibrated samples paced by the sensor's data-ready signal.
type Source interface {
	// WaitReady blocks until the next sample is available.
	WaitReady(ctx context.Context) error
	// Read returns one calibrated sample in degrees per second.
	Read() (Sample, error)
}
