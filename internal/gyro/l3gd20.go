// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gyro

import (
	"context"
	"fmt"
	"log"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// L3GD20 register addresses and access modifiers.
const (
	regWhoAmI = 0x0F
	regCtrl1  = 0x20
	regCtrl3  = 0x22
	regCtrl4  = 0x23
	regOutXL  = 0x28

	spiRead          = 0x80
	spiAutoIncrement = 0x40

	// CTRL_REG1 low nibble: normal mode, X/Y/Z enabled.
	ctrl1PowerOn = 0x0F
	// CTRL_REG3: data-ready on INT2.
	ctrl3DRDYInt2 = 0x08

	whoAmIL3GD20  = 0xD4
	whoAmIL3GD20H = 0xD7
)

// ODR selects the output-data-rate and bandwidth bits of CTRL_REG1.
type ODR byte

const (
	ODR200Cutoff50 ODR = 0x60
	ODR400Cutoff50 ODR = 0xA0
)

// FullScale selects the CTRL_REG4 full-scale range. Each range maps to a
// fixed sensitivity used to convert raw counts to degrees per second.
type FullScale byte

const (
	FullScale245  FullScale = 0x00
	FullScale500  FullScale = 0x10
	FullScale2000 FullScale = 0x20
)

// Sensitivity in dps/digit per the L3GD20 datasheet.
const (
	sensitivity245  = 0.00875
	sensitivity500  = 0.0175
	sensitivity2000 = 0.07
)

// drdyTimeout bounds the wait for a data-ready edge. The original firmware
// assumed the gyro always eventually signals; a stuck interrupt line here is
// surfaced as an error instead of a hang.
const drdyTimeout = 500 * time.Millisecond

// Config holds the initialization parameters for the gyroscope.
type Config struct {
	ODR       ODR
	FullScale FullScale
}

// Device is an L3GD20 angular-rate sensor on an SPI port with a data-ready
// interrupt line.
type Device struct {
	conn        spi.Conn
	drdy        gpio.PinIn
	sensitivity float64
}

// New configures the gyroscope control registers and arms the data-ready
// interrupt pin.
func New(port spi.Port, drdy gpio.PinIn, cfg Config) (*Device, error) {
	c, err := port.Connect(1*physic.MegaHertz, spi.Mode3, 8)
	if err != nil {
		return nil, fmt.Errorf("gyro: SPI connect: %w", err)
	}

	d := &Device{conn: c, drdy: drdy}

	id, err := d.readReg(regWhoAmI)
	if err != nil {
		return nil, fmt.Errorf("gyro: WHO_AM_I read: %w", err)
	}
	if id != whoAmIL3GD20 && id != whoAmIL3GD20H {
		log.Printf("gyro: WARNING: unexpected WHO_AM_I 0x%02X, continuing anyway", id)
	}

	if err := d.writeReg(regCtrl1, byte(cfg.ODR)|ctrl1PowerOn); err != nil {
		return nil, fmt.Errorf("gyro: CTRL_REG1: %w", err)
	}
	if err := d.writeReg(regCtrl3, ctrl3DRDYInt2); err != nil {
		return nil, fmt.Errorf("gyro: CTRL_REG3: %w", err)
	}
	if err := d.writeReg(regCtrl4, byte(cfg.FullScale)); err != nil {
		return nil, fmt.Errorf("gyro: CTRL_REG4: %w", err)
	}

	switch cfg.FullScale {
	case FullScale245:
		d.sensitivity = sensitivity245
	case FullScale500:
		d.sensitivity = sensitivity500
	case FullScale2000:
		d.sensitivity = sensitivity2000
	default:
		return nil, fmt.Errorf("gyro: unknown full-scale selector 0x%02X", byte(cfg.FullScale))
	}

	if drdy != nil {
		if err := drdy.In(gpio.PullDown, gpio.RisingEdge); err != nil {
			return nil, fmt.Errorf("gyro: DRDY pin setup: %w", err)
		}
	}

	log.Printf("gyro: initialized (ODR=0x%02X, full-scale=0x%02X, sensitivity=%.5f dps/digit)",
		byte(cfg.ODR), byte(cfg.FullScale), d.sensitivity)
	return d, nil
}

func (d *Device) writeReg(reg, value byte) error {
	return d.conn.Tx([]byte{reg, value}, nil)
}

func (d *Device) readReg(reg byte) (byte, error) {
	r := make([]byte, 2)
	if err := d.conn.Tx([]byte{reg | spiRead, 0x00}, r); err != nil {
		return 0, err
	}
	return r[1], nil
}

// ReadRaw burst-reads the six output registers with address auto-increment
// and returns the raw counts in sensor byte order (little endian).
func (d *Device) ReadRaw() (RawSample, error) {
	w := []byte{regOutXL | spiRead | spiAutoIncrement, 0, 0, 0, 0, 0, 0}
	r := make([]byte, len(w))
	if err := d.conn.Tx(w, r); err != nil {
		return RawSample{}, fmt.Errorf("gyro: output register read: %w", err)
	}
	return RawSample{
		X: int16(r[1]) | int16(r[2])<<8,
		Y: int16(r[3]) | int16(r[4])<<8,
		Z: int16(r[5]) | int16(r[6])<<8,
	}, nil
}

// WaitReady blocks until the gyro raises its data-ready line, the timeout
// elapses, or ctx is cancelled.
func (d *Device) WaitReady(ctx context.Context) error {
	deadline := time.Now().Add(drdyTimeout)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.drdy.WaitForEdge(50 * time.Millisecond) {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("gyro: no data-ready edge within %v", drdyTimeout)
		}
	}
}

// Sensitivity returns the configured dps/digit conversion factor.
func (d *Device) Sensitivity() float64 {
	return d.sensitivity
}

// PowerOff puts the gyroscope into power-down mode.
func (d *Device) PowerOff() error {
	if err := d.writeReg(regCtrl1, 0x00); err != nil {
		return fmt.Errorf("gyro: power off: %w", err)
	}
	return nil
}
