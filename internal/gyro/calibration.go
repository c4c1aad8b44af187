package gyro

import (
	"fmt"
	"time"
)

const (
	// CalibrationSamples is the number of raw readings averaged into the
	// zero-rate bias at the start of every capture session.
	CalibrationSamples = 128

	calibrationDelay = 10 * time.Millisecond
)

// RawSample is one reading in raw sensor counts, before conversion to
// degrees per second.
type RawSample struct {
	X int16 `json:"x"`
	Y int16 `json:"y"`
	Z int16 `json:"z"`
}

// RawReader reads raw angular-rate counts from the sensor.
type RawReader interface {
	ReadRaw() (RawSample, error)
}

// Calibration holds the per-axis zero-rate bias and the noise floor learned
// while the device is held still. It is immutable once built and rebuilt at
// the start of every Record/Unlock session.
type Calibration struct {
	Bias       [3]int16 `json:"bias"`
	NoiseFloor [3]int16 `json:"noise_floor"`
}

// Calibrate samples the resting sensor and derives the per-axis bias (mean)
// and noise floor (running maximum of the raw readings). The noise floor is
// a deadband heuristic, not a statistical bound: it suppresses ambient
// vibration but gives no Gaussian rejection guarantee.
func Calibrate(r RawReader) (Calibration, error) {
	return calibrate(r, CalibrationSamples, calibrationDelay)
}

func calibrate(r RawReader, n int, delay time.Duration) (Calibration, error) {
	var sum [3]int32
	var cal Calibration

	for i := 0; i < n; i++ {
		s, err := r.ReadRaw()
		if err != nil {
			return Calibration{}, fmt.Errorf("gyro: calibration sample %d: %w", i, err)
		}

		sum[0] += int32(s.X)
		sum[1] += int32(s.Y)
		sum[2] += int32(s.Z)

		if s.X > cal.NoiseFloor[0] {
			cal.NoiseFloor[0] = s.X
		}
		if s.Y > cal.NoiseFloor[1] {
			cal.NoiseFloor[1] = s.Y
		}
		if s.Z > cal.NoiseFloor[2] {
			cal.NoiseFloor[2] = s.Z
		}

		if delay > 0 {
			time.Sleep(delay)
		}
	}

	for i := range cal.Bias {
		cal.Bias[i] = int16(sum[i] / int32(n))
	}
	return cal, nil
}

func abs16(v int16) int16 {
	if v < 0 {
		return -v
	}
	return v
}

// Apply subtracts the zero-rate bias and zeroes any axis whose magnitude
// falls inside that axis's deadband.
func (c Calibration) Apply(s RawSample) RawSample {
	s.X -= c.Bias[0]
	s.Y -= c.Bias[1]
	s.Z -= c.Bias[2]

	if abs16(s.X) < abs16(c.NoiseFloor[0]) {
		s.X = 0
	}
	if abs16(s.Y) < abs16(c.NoiseFloor[1]) {
		s.Y = 0
	}
	if abs16(s.Z) < abs16(c.NoiseFloor[2]) {
		s.Z = 0
	}
	return s
}
