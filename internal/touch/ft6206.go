package touch

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
)

// DefaultAddr is the FT6206's fixed I2C address.
const DefaultAddr = 0x38

const (
	regTDStatus = 0x02 // low nibble: number of active touch points
	regChipID   = 0xA3

	chipIDFT6206 = 0x06
	chipIDFT6236 = 0x36
)

// Point is one touch coordinate in screen pixels.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Screen is an FT6206-class capacitive touch controller polled over I2C.
type Screen struct {
	dev i2c.Dev
}

// NewScreen probes the controller on the given bus.
func NewScreen(bus i2c.Bus, addr uint16) (*Screen, error) {
	s := &Screen{dev: i2c.Dev{Bus: bus, Addr: addr}}

	id := make([]byte, 1)
	if err := s.dev.Tx([]byte{regChipID}, id); err != nil {
		return nil, fmt.Errorf("touch: chip ID read: %w", err)
	}
	if id[0] != chipIDFT6206 && id[0] != chipIDFT6236 {
		return nil, fmt.Errorf("touch: unexpected chip ID 0x%02X", id[0])
	}
	return s, nil
}

// Poll reads the controller state and reports the first active touch point,
// if any. The second touch point of multi-touch gestures is ignored.
func (s *Screen) Poll() (Point, bool, error) {
	// TD_STATUS followed by P1_XH, P1_XL, P1_YH, P1_YL.
	buf := make([]byte, 5)
	if err := s.dev.Tx([]byte{regTDStatus}, buf); err != nil {
		return Point{}, false, fmt.Errorf("touch: status read: %w", err)
	}

	touches := int(buf[0] & 0x0F)
	if touches == 0 || touches > 2 {
		return Point{}, false, nil
	}

	return Point{
		X: int(buf[1]&0x0F)<<8 | int(buf[2]),
		Y: int(buf[3]&0x0F)<<8 | int(buf[4]),
	}, true, nil
}
