package gesture

import (
	"context"
	"fmt"
	"time"
)

// Defaults for a capture run. The cadence has to stay close to 50 ms: drift
// changes the trace length and degrades correlation between two recordings
// of the same physical gesture.
const (
	CaptureDuration = 3 * time.Second
	SampleInterval  = 50 * time.Millisecond
)

// Capturer drives one fixed-duration, fixed-cadence sampling run against a
// Source and assembles the trimmed trace.
type Capturer struct {
	Source   Source
	Interval time.Duration
	Duration time.Duration
}

// NewCapturer returns a Capturer with the default 3 s / 20 Hz schedule.
func NewCapturer(src Source) *Capturer {
	return &Capturer{
		Source:   src,
		Interval: SampleInterval,
		Duration: CaptureDuration,
	}
}

// Capture samples for the configured duration at the configured cadence,
// smoothing each axis, and returns the trace with leading and trailing
// silence trimmed. A fresh smoother is used for every run.
func (c *Capturer) Capture(ctx context.Context) (Trace, error) {
	steps := int(c.Duration / c.Interval)
	trace := make(Trace, 0, steps)
	smoother := NewSmoother()

	ticker := time.NewTicker(c.Interval)
	defer ticker.Stop()

	for i := 0; i < steps; i++ {
		if err := c.Source.WaitReady(ctx); err != nil {
			return nil, fmt.Errorf("capture: sample %d: %w", i, err)
		}
		s, err := c.Source.Read()
		if err != nil {
			return nil, fmt.Errorf("capture: sample %d: %w", i, err)
		}
		trace = append(trace, smoother.Smooth(s))

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return trace.Trim(), nil
}
