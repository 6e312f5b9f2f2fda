// Copyright 2023 Gilles Henrard. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pageview

import (
	"errors"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// ErrNotImplemented is returned for pin features a panel input does not
// have.
var ErrNotImplemented = errors.New("pageview: not implemented")

// Pin is one control input of the emulated panel. It observes the levels
// the driver writes.
type Pin struct {
	name   string
	number int
	set    func(gpio.Level)
}

// Halt implements conn.Resource.
func (p *Pin) Halt() error {
	return nil
}

// Name returns the name of the GPIO pin.
func (p *Pin) Name() string {
	return p.name
}

// Number returns the number of the GPIO pin.
func (p *Pin) Number() int {
	return p.number
}

// Deprecated: returns "Out"
func (p *Pin) Function() string {
	return "Out"
}

// Out feeds the specified gpio.Level to the emulated panel.
func (p *Pin) Out(l gpio.Level) error {
	p.set(l)
	return nil
}

// Not implemented.
func (p *Pin) PWM(duty gpio.Duty, f physic.Frequency) error {
	return ErrNotImplemented
}

func (p *Pin) String() string {
	return p.name
}

var _ gpio.PinOut = &Pin{}
