// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gesture

import (
	"context"
	"math"
)

type mockSource struct {
	step int
}

// NewMockSource creates a synthetic gesture source that generates a smooth
// wrist-twist motion. It is step-driven rather than clock-driven, so two
// captures starting from fresh sources produce identical traces.
func NewMockSource() Source {
	return &mockSource{}
}

func (m *mockSource) WaitReady(ctx context.Context) error {
	return ctx.Err()
}

func (m *mockSource) Read() (Sample, error) {
	t := float64(m.step) * 0.05
	m.step++

	return Sample{
		X: 90 * math.Sin(2*t),
		Y: 60 * math.Cos(3*t),
		Z: 40 * math.Sin(t+0.5),
	}, nil
}
