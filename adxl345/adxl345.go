// Copyright 2023 Gilles Henrard. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package adxl345

import (
	"encoding/binary"
	"math"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"

	"github.com/gilleshenrard/STM32-leveler/errorstack"
)

// Registers used by the level. The full map is in the datasheet; registers
// keeping their reset value are not touched.
const (
	regDeviceID   byte = 0x00
	regBwRate     byte = 0x2C
	regPowerCtl   byte = 0x2D
	regDataFormat byte = 0x31
	regDataX0     byte = 0x32
)

// Register values
const (
	deviceID      byte = 0xE5
	rate100Hz     byte = 0x0A
	measureMode   byte = 0x08
	standbyMode   byte = 0x00
	fullResRange2 byte = 0x08 // full resolution, +/-2g
)

// SPI framing bits set on the register address.
const (
	readFlag      byte = 0x80
	multibyteFlag byte = 0x40
)

// Operation identifiers reported through errorstack codes.
const (
	opInitialise errorstack.Operation = iota
	opReadAxes
)

// Opts holds the configuration options.
type Opts struct {
	// ExpectedDeviceID allows clones advertising a different identity.
	// Zero means the stock 0xE5.
	ExpectedDeviceID byte
}

// DefaultOpts is the recommended configuration.
var DefaultOpts = Opts{}

// Sample is one burst read of the three axes, in LSB (4mg per count at
// full resolution).
type Sample struct {
	X, Y, Z int16
}

// Pitch returns the rotation around the Y axis, in degrees within
// [-90, 90]: the angle the X axis makes with the horizontal plane.
func (s Sample) Pitch() float32 {
	return degrees(math.Atan2(float64(s.X), math.Hypot(float64(s.Y), float64(s.Z))))
}

// Roll returns the rotation around the X axis, in degrees: the tilt of the
// Y axis against gravity.
func (s Sample) Roll() float32 {
	return degrees(math.Atan2(float64(s.Y), float64(s.Z)))
}

func degrees(rad float64) float32 {
	return float32(rad * 180 / math.Pi)
}

// Dev is a driver for the ADXL345 accelerometer.
type Dev struct {
	c        spi.Conn
	expected byte
}

// New opens the accelerometer on the given SPI port. The device only
// supports mode 3.
func New(p spi.Port, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	c, err := p.Connect(2*physic.MegaHertz, spi.Mode3, 8)
	if err != nil {
		return nil, err
	}
	expected := opts.ExpectedDeviceID
	if expected == 0 {
		expected = deviceID
	}
	return &Dev{c: c, expected: expected}, nil
}

func (d *Dev) String() string {
	return "ADXL345{+/-2g, 100Hz}"
}

// Halt implements conn.Resource. It puts the device in standby.
func (d *Dev) Halt() error {
	return d.writeRegister(regPowerCtl, standbyMode)
}

// Init verifies the device identity and programs full-resolution
// measurement at 100Hz.
//
// Steps: 1 identity read failed, 2 identity mismatch, 3 data format write
// failed, 4 rate write failed, 5 measurement mode write failed.
func (d *Dev) Init() errorstack.Code {
	id, err := d.readRegister(regDeviceID)
	if err != nil {
		return errorstack.New(opInitialise, 1, errorstack.SeverityError)
	}
	if id != d.expected {
		return errorstack.NewWithStatus(opInitialise, 2, id, errorstack.SeverityError)
	}

	if d.writeRegister(regDataFormat, fullResRange2) != nil {
		return errorstack.New(opInitialise, 3, errorstack.SeverityError)
	}
	if d.writeRegister(regBwRate, rate100Hz) != nil {
		return errorstack.New(opInitialise, 4, errorstack.SeverityError)
	}
	if d.writeRegister(regPowerCtl, measureMode) != nil {
		return errorstack.New(opInitialise, 5, errorstack.SeverityError)
	}
	return errorstack.Success
}

// ReadAxes bursts the six data registers in a single exchange, so the
// three axes are guaranteed to belong to the same measurement.
//
// Steps: 1 bus exchange failed.
func (d *Dev) ReadAxes() (Sample, errorstack.Code) {
	var w, r [7]byte
	w[0] = regDataX0 | readFlag | multibyteFlag
	if err := d.c.Tx(w[:], r[:]); err != nil {
		return Sample{}, errorstack.New(opReadAxes, 1, errorstack.SeverityError)
	}
	return Sample{
		X: int16(binary.LittleEndian.Uint16(r[1:3])),
		Y: int16(binary.LittleEndian.Uint16(r[3:5])),
		Z: int16(binary.LittleEndian.Uint16(r[5:7])),
	}, errorstack.Success
}

func (d *Dev) readRegister(reg byte) (byte, error) {
	w := [2]byte{reg | readFlag, 0}
	var r [2]byte
	if err := d.c.Tx(w[:], r[:]); err != nil {
		return 0, err
	}
	return r[1], nil
}

func (d *Dev) writeRegister(reg, value byte) error {
	return d.c.Tx([]byte{reg, value}, nil)
}

var _ conn.Resource = &Dev{}
