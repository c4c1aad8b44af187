package gyro

import (
	"context"

	"github.com/relabs-tech/gesture_sentry/internal/gesture"
)

// source adapts a calibrated Device into a gesture.Source producing
// degrees-per-second samples.
type source struct {
	dev *Device
	cal Calibration
}

// Source binds a calibration profile to the device. The profile is discarded
// with the source when the capture session ends.
func (d *Device) Source(cal Calibration) gesture.Source {
	return &source{dev: d, cal: cal}
}

func (s *source) WaitReady(ctx context.Context) error {
	return s.dev.WaitReady(ctx)
}

func (s *source) Read() (gesture.Sample, error) {
	raw, err := s.dev.ReadRaw()
	if err != nil {
		return gesture.Sample{}, err
	}
	raw = s.cal.Apply(raw)

	sens := s.dev.sensitivity
	return gesture.Sample{
		X: float64(raw.X) * sens,
		Y: float64(raw.Y) * sens,
		Z: float64(raw.Z) * sens,
	}, nil
}
