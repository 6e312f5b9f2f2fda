// Copyright 2023 Gilles Henrard. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1306

import (
	"fmt"
	"sync/atomic"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"

	"github.com/gilleshenrard/STM32-leveler/errorstack"
)

// Limits and geometry.
const (
	spiTimeout    = 10 * time.Millisecond // longest a synchronous bus exchange may last
	transferTicks = 10                    // countdown armed before an asynchronous write, in Tick units
	maxParameters = 6
	maxDataSize   = 1024 // 128 * 64 pixels / 8 per byte

	minAngle     float32 = -90.0
	maxAngle     float32 = 90.0
	negThreshold float32 = -0.05 // angles above this count as positive, absorbs float noise around zero

	angleNbChars = 6
)

// Positions in the six-character angle layout. The decimal point and the
// degree symbol are literals, their positions are not named.
const (
	posSign = iota
	posTens
	posUnits
	_
	posTenths
)

// Operation identifiers reported through errorstack codes.
const (
	opInitialise errorstack.Operation = iota
	opSendCommand
	opSendData
	opClearScreen
	opPrintAngle
	opPrintingAngle
	opWaitingTxDone
)

type state uint8

const (
	stateIdle state = iota
	statePrintingAngle
	stateWaitingForTxDone
)

// Dev is the driver of one SSD1306 display. It is a polled state machine:
// all methods except Tick must be invoked from the same goroutine.
type Dev struct {
	bus Bus
	dc  gpio.PinOut
	cs  gpio.PinOut
	rst gpio.PinOut

	state      state
	nextAngle  float32
	nextPage   uint8
	nextColumn uint8

	timer  int32 // armed before each transfer, decremented by Tick
	buffer [maxDataSize]byte
}

// New creates a driver on an arbitrary transport. dc selects command or
// data mode, cs is the active-low chip select, rst the active-low reset.
func New(bus Bus, dc, cs, rst gpio.PinOut) *Dev {
	return &Dev{
		bus: bus,
		dc:  dc,
		cs:  cs,
		rst: rst,
	}
}

// NewSPI creates a driver on a 4-wire SPI port. Chip select stays
// protocol-owned, so the port is connected with spi.NoCS.
func NewSPI(p spi.Port, dc, cs, rst gpio.PinOut) (*Dev, error) {
	c, err := p.Connect(3300*physic.KiloHertz, spi.Mode0|spi.NoCS, 8)
	if err != nil {
		return nil, err
	}
	return New(NewSPIBus(c), dc, cs, rst), nil
}

func (d *Dev) String() string {
	return "SSD1306{128x64 angle display}"
}

// Halt implements conn.Resource. It turns the display off.
func (d *Dev) Halt() error {
	return d.sendCommand(displayOff, nil).Err()
}

// Init resets the controller, programs the initialisation registers in
// their mandated order and clears the screen. The driver accepts print
// requests only once Init returned success.
//
// Steps: 1 to 8 identify the failing register table entry, 9 the screen
// clear, 10 a reset or chip select pin failure.
func (d *Dev) Init() errorstack.Code {
	// Keep the chip deselected while pulsing reset.
	if d.cs.Out(gpio.High) != nil || d.rst.Out(gpio.Low) != nil || d.rst.Out(gpio.High) != nil {
		return errorstack.New(opInitialise, 10, errorstack.SeverityError)
	}

	for i := range initSequence {
		e := &initSequence[i]
		var params []byte
		if e.nbParameters > 0 {
			params = []byte{e.value}
		}
		if code := d.sendCommand(e.reg, params); code.IsError() {
			return code.Push(opInitialise, uint8(i)+1)
		}
	}

	if code := d.clearScreen(); code.IsError() {
		return code.Push(opInitialise, 9)
	}

	d.state = stateIdle
	return errorstack.Success
}

// Ready reports whether the driver can accept a new print request.
func (d *Dev) Ready() bool {
	return d.state == stateIdle
}

// PrintAngle queues the printing of an angle, in degrees with sign, at the
// given start page and column. It returns immediately; the exchanges
// happen over the next Update calls.
//
// Steps: 1 angle outside [-90, 90] (warning, state unchanged), 2 a request
// is already in flight (warning, the pending request is untouched).
func (d *Dev) PrintAngle(angle float32, page, column uint8) errorstack.Code {
	if angle < minAngle || angle > maxAngle {
		return errorstack.New(opPrintAngle, 1, errorstack.SeverityWarning)
	}
	if d.state != stateIdle {
		return errorstack.New(opPrintAngle, 2, errorstack.SeverityWarning)
	}

	d.nextAngle = angle
	d.nextPage = page
	d.nextColumn = column
	d.state = statePrintingAngle
	return errorstack.Success
}

// Update runs one step of the state machine. It must be polled at a fixed
// cadence; while Idle it is a no-op returning success.
func (d *Dev) Update() errorstack.Code {
	switch d.state {
	case statePrintingAngle:
		return d.printPendingAngle()
	case stateWaitingForTxDone:
		return d.waitTransferDone()
	default:
		return errorstack.Success
	}
}

// Tick decrements the transfer countdown toward zero. It is meant to be
// driven by a periodic 1ms source and is the only method safe to call from
// another goroutine.
func (d *Dev) Tick() {
	for {
		v := atomic.LoadInt32(&d.timer)
		if v <= 0 {
			return
		}
		if atomic.CompareAndSwapInt32(&d.timer, v, v-1) {
			return
		}
	}
}

// sendCommand writes one register byte followed by up to 6 parameter
// bytes, bracketed by chip select. The parameters are never written when
// the register byte failed, and chip select is deasserted on every exit
// path that asserted it.
//
// Steps: 1 too many parameters (warning, bus untouched), 2 register byte
// write failed, 3 parameter write failed, 4 pin write failed.
func (d *Dev) sendCommand(register byte, parameters []byte) errorstack.Code {
	if len(parameters) > maxParameters {
		return errorstack.New(opSendCommand, 1, errorstack.SeverityWarning)
	}

	if d.dc.Out(gpio.Low) != nil || d.cs.Out(gpio.Low) != nil {
		return errorstack.New(opSendCommand, 4, errorstack.SeverityError)
	}

	if status := d.bus.WriteSync([]byte{register}, spiTimeout); status != StatusOK {
		_ = d.cs.Out(gpio.High)
		return errorstack.NewWithStatus(opSendCommand, 2, uint8(status), errorstack.SeverityError)
	}

	result := errorstack.Success
	if len(parameters) > 0 {
		if status := d.bus.WriteSync(parameters, spiTimeout); status != StatusOK {
			result = errorstack.NewWithStatus(opSendCommand, 3, uint8(status), errorstack.SeverityError)
		}
	}

	if err := d.cs.Out(gpio.High); err != nil && !result.IsError() {
		result = errorstack.New(opSendCommand, 4, errorstack.SeverityError)
	}
	return result
}

// sendData writes up to 1024 bytes of GDDRAM content, bracketed by chip
// select. An empty slice is a successful no-op that never touches the bus.
//
// Steps: 1 size above maximum (warning, bus untouched), 2 write failed,
// 3 pin write failed.
func (d *Dev) sendData(values []byte) errorstack.Code {
	if len(values) == 0 {
		return errorstack.Success
	}
	if len(values) > maxDataSize {
		return errorstack.New(opSendData, 1, errorstack.SeverityWarning)
	}

	if d.dc.Out(gpio.High) != nil || d.cs.Out(gpio.Low) != nil {
		return errorstack.New(opSendData, 3, errorstack.SeverityError)
	}

	result := errorstack.Success
	if status := d.bus.WriteSync(values, spiTimeout); status != StatusOK {
		result = errorstack.NewWithStatus(opSendData, 2, uint8(status), errorstack.SeverityError)
	}

	if err := d.cs.Out(gpio.High); err != nil && !result.IsError() {
		result = errorstack.New(opSendData, 3, errorstack.SeverityError)
	}
	return result
}

// clearScreen opens the full GDDRAM window and writes 1024 zeroed bytes.
//
// Steps: 1 column window failed, 2 page window failed, 3 buffer write
// failed.
func (d *Dev) clearScreen() errorstack.Code {
	if code := d.sendCommand(columnAddress, []byte{0, 127}); code.IsError() {
		return code.Push(opClearScreen, 1)
	}
	if code := d.sendCommand(pageAddress, []byte{0, 31}); code.IsError() {
		return code.Push(opClearScreen, 2)
	}

	for i := range d.buffer {
		d.buffer[i] = 0
	}
	if code := d.sendData(d.buffer[:]); code.IsError() {
		return code.Push(opClearScreen, 3)
	}
	return errorstack.Success
}

// printPendingAngle rasterises the pending request, programs its GDDRAM
// window and starts the asynchronous transfer. Every failure falls back to
// Idle.
//
// Steps: 1 column window failed, 2 page window failed, 3 transfer start
// failed, 4 pin write failed.
func (d *Dev) printPendingAngle() errorstack.Code {
	n := rasterise(d.buffer[:], angleGlyphs(d.nextAngle))

	limitColumns := []byte{d.nextColumn, d.nextColumn + angleNbChars*glyphWidth - 1}
	limitPages := []byte{d.nextPage, d.nextPage + glyphPages - 1}

	if code := d.sendCommand(columnAddress, limitColumns); code.IsError() {
		d.state = stateIdle
		return code.Push(opPrintingAngle, 1)
	}
	if code := d.sendCommand(pageAddress, limitPages); code.IsError() {
		d.state = stateIdle
		return code.Push(opPrintingAngle, 2)
	}

	if d.dc.Out(gpio.High) != nil || d.cs.Out(gpio.Low) != nil {
		d.state = stateIdle
		return errorstack.New(opPrintingAngle, 4, errorstack.SeverityError)
	}

	// Arm the countdown before starting the transfer so a Tick can never
	// race a stale zero into the supervision below.
	atomic.StoreInt32(&d.timer, transferTicks)
	if status := d.bus.WriteAsync(d.buffer[:n]); status != StatusOK {
		_ = d.cs.Out(gpio.High)
		d.state = stateIdle
		return errorstack.NewWithStatus(opPrintingAngle, 3, uint8(status), errorstack.SeverityError)
	}

	d.state = stateWaitingForTxDone
	return errorstack.Success
}

// waitTransferDone supervises the asynchronous transfer: it aborts it once
// the countdown elapsed, reports a no-op success while the bus is busy and
// releases the chip when the transfer finished.
//
// Steps: 1 timeout waiting for the transfer, 2 pin write failed.
func (d *Dev) waitTransferDone() errorstack.Code {
	if atomic.LoadInt32(&d.timer) <= 0 {
		_ = d.cs.Out(gpio.High)
		d.bus.Abort()
		d.state = stateIdle
		return errorstack.New(opWaitingTxDone, 1, errorstack.SeverityError)
	}

	if d.bus.Busy() {
		return errorstack.Success
	}

	d.state = stateIdle
	if d.cs.Out(gpio.High) != nil {
		return errorstack.New(opWaitingTxDone, 2, errorstack.SeverityError)
	}
	return errorstack.Success
}

// angleGlyphs decomposes an in-range angle into the six glyph indexes
// printed on screen: sign, tens, units, decimal point, tenths, degree.
// Digits are truncated, not rounded; the tenths are computed on a widened
// integer so the scaled magnitude cannot overflow a byte.
func angleGlyphs(angle float32) [angleNbChars]uint8 {
	glyphs := [angleNbChars]uint8{indexPlus, 0, 0, indexDot, 0, indexDegree}

	if angle < negThreshold {
		glyphs[posSign] = indexMinus
		angle = -angle
	}

	glyphs[posTens] = uint8(angle / 10)
	glyphs[posUnits] = uint8(angle) % 10
	glyphs[posTenths] = uint8(uint16(angle*10) % 10)
	return glyphs
}

// rasterise packs the glyph bitmaps into dst page-major, then
// character-major, then column-minor, matching the contiguous GDDRAM
// window the print targets. It returns the number of bytes written, always
// 2 pages * 6 characters * 11 columns.
func rasterise(dst []byte, glyphs [angleNbChars]uint8) int {
	i := 0
	for page := 0; page < glyphPages; page++ {
		for _, glyph := range glyphs {
			for column := 0; column < glyphWidth; column++ {
				dst[i] = verdana16Numbers[glyph][page*glyphWidth+column]
				i++
			}
		}
	}
	return i
}

var _ conn.Resource = &Dev{}
var _ fmt.Stringer = &Dev{}
