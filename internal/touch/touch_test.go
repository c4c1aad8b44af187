package touch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"
)

// fakeBus replays canned register contents keyed by the first written byte.
type fakeBus struct {
	registers map[byte][]byte
}

func (f *fakeBus) String() string { return "fake-i2c" }

func (f *fakeBus) Tx(addr uint16, w, r []byte) error {
	copy(r, f.registers[w[0]])
	return nil
}

func (f *fakeBus) SetSpeed(freq physic.Frequency) error { return nil }

func TestNewScreenAcceptsKnownChipID(t *testing.T) {
	bus := &fakeBus{registers: map[byte][]byte{regChipID: {chipIDFT6206}}}
	_, err := NewScreen(bus, DefaultAddr)
	assert.NoError(t, err)
}

func TestNewScreenRejectsUnknownChipID(t *testing.T) {
	bus := &fakeBus{registers: map[byte][]byte{regChipID: {0xFF}}}
	_, err := NewScreen(bus, DefaultAddr)
	assert.Error(t, err)
}

func TestPollDecodesTouchPoint(t *testing.T) {
	bus := &fakeBus{registers: map[byte][]byte{
		regChipID: {chipIDFT6206},
		// One touch at (0x078, 0x0C5) = (120, 197).
		regTDStatus: {0x01, 0x00, 0x78, 0x00, 0xC5},
	}}
	s, err := NewScreen(bus, DefaultAddr)
	require.NoError(t, err)

	p, ok, err := s.Poll()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Point{X: 120, Y: 197}, p)
}

func TestPollNoTouch(t *testing.T) {
	bus := &fakeBus{registers: map[byte][]byte{
		regChipID:   {chipIDFT6206},
		regTDStatus: {0x00, 0x0F, 0xFF, 0x0F, 0xFF},
	}}
	s, err := NewScreen(bus, DefaultAddr)
	require.NoError(t, err)

	_, ok, err := s.Poll()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestButtonContains(t *testing.T) {
	tests := []struct {
		name   string
		button Button
		point  Point
		want   bool
	}{
		{"inside record", RecordButton, Point{X: 100, Y: 100}, true},
		{"inside unlock", UnlockButton, Point{X: 100, Y: 200}, true},
		{"between the buttons", RecordButton, Point{X: 100, Y: 150}, false},
		{"left of record", RecordButton, Point{X: 10, Y: 100}, false},
		{"top-left corner counts", RecordButton, Point{X: 60, Y: 80}, true},
		{"bottom-right corner counts", RecordButton, Point{X: 180, Y: 130}, true},
		{"just past the right edge", RecordButton, Point{X: 181, Y: 100}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.button.Contains(tt.point))
		})
	}
}
