// Copyright 2023 Gilles Henrard. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pageview

import (
	"io"
	"time"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3/gpio"

	"github.com/gilleshenrard/STM32-leveler/ssd1306"
)

// Panel geometry.
const (
	width  = 128
	height = 64
	pages  = height / 8
)

// Registers the emulator interprets, per the SSD1306 datasheet.
const (
	regMemoryAddrMode byte = 0x20
	regColumnAddress  byte = 0x21
	regPageAddress    byte = 0x22
	regContrast       byte = 0x81
	regChargePump     byte = 0x8D
	regDisplayOff     byte = 0xAE
	regDisplayOn      byte = 0xAF
	regClockDivide    byte = 0xD5
	regHardwareConfig byte = 0xDA
)

// Record is one command received on the wire: a register byte and the
// parameter bytes that followed it.
type Record struct {
	Register byte
	Params   []byte
}

// Opts represents the options available for the emulator.
type Opts struct {
	// Writer receives the terminal rendering. Defaults to a colorable
	// stdout.
	Writer io.Writer
	// Palette picks the ANSI colors. Defaults to ansi256.Default.
	Palette *ansi256.Palette
	// CompleteAfter is the number of Busy polls an asynchronous write
	// stays in flight: 0 completes immediately, a negative value never
	// completes, which is how a transfer timeout is provoked.
	CompleteAfter int

	_ struct{}
}

// Emulator is a software SSD1306: an ssd1306.Bus plus the three control
// pins, backed by an in-memory GDDRAM instead of a panel.
//
// Like the driver it serves, it expects a single goroutine.
type Emulator struct {
	w             io.Writer
	palette       ansi256.Palette
	completeAfter int

	dc  gpio.Level
	cs  gpio.Level
	rst gpio.Level

	dcPin  Pin
	csPin  Pin
	rstPin Pin

	gddram [width * pages]byte
	on     bool

	colStart, colEnd   uint8
	pageStart, pageEnd uint8
	col, page          uint8

	records       []Record
	pendingParams int

	pending  []byte
	inFlight bool
	polls    int

	ignored int
	resets  int
}

// New creates an emulated panel. opts may be nil for the defaults.
func New(opts *Opts) *Emulator {
	if opts == nil {
		opts = &Opts{}
	}
	w := opts.Writer
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	e := &Emulator{
		w:             w,
		palette:       *p,
		completeAfter: opts.CompleteAfter,
		cs:            gpio.High,
		rst:           gpio.High,
	}
	e.dcPin = Pin{name: "pageview-dc", number: 0, set: e.setDC}
	e.csPin = Pin{name: "pageview-cs", number: 1, set: e.setCS}
	e.rstPin = Pin{name: "pageview-rst", number: 2, set: e.setRST}
	e.reset()
	return e
}

func (e *Emulator) String() string {
	return "pageview.Emulator{128x64}"
}

// DC returns the command/data control line input.
func (e *Emulator) DC() gpio.PinOut {
	return &e.dcPin
}

// CS returns the active-low chip select input.
func (e *Emulator) CS() gpio.PinOut {
	return &e.csPin
}

// RST returns the active-low reset input.
func (e *Emulator) RST() gpio.PinOut {
	return &e.rstPin
}

// Records returns every command received so far, in wire order.
func (e *Emulator) Records() []Record {
	return e.records
}

// On reports whether the panel was turned on.
func (e *Emulator) On() bool {
	return e.on
}

// WriteSync implements ssd1306.Bus.
func (e *Emulator) WriteSync(p []byte, timeout time.Duration) ssd1306.BusStatus {
	e.receive(p)
	return ssd1306.StatusOK
}

// WriteAsync implements ssd1306.Bus. The bytes land in GDDRAM when the
// transfer completes, after the configured number of Busy polls.
func (e *Emulator) WriteAsync(p []byte) ssd1306.BusStatus {
	if e.inFlight {
		return ssd1306.StatusBusy
	}
	e.pending = append(e.pending[:0], p...)
	e.inFlight = true
	e.polls = e.completeAfter
	return ssd1306.StatusOK
}

// Busy implements ssd1306.Bus.
func (e *Emulator) Busy() bool {
	if !e.inFlight {
		return false
	}
	if e.polls < 0 {
		return true
	}
	if e.polls > 0 {
		e.polls--
		return true
	}
	e.receive(e.pending)
	e.inFlight = false
	return false
}

// Abort implements ssd1306.Bus. The aborted bytes never reach GDDRAM.
func (e *Emulator) Abort() {
	e.inFlight = false
	e.pending = e.pending[:0]
}

func (e *Emulator) setDC(l gpio.Level) {
	e.dc = l
}

func (e *Emulator) setCS(l gpio.Level) {
	// Deselecting resets the command parser, a half-sent command does not
	// leak into the next exchange.
	if l == gpio.High {
		e.pendingParams = 0
	}
	e.cs = l
}

func (e *Emulator) setRST(l gpio.Level) {
	if e.rst == gpio.Low && l == gpio.High {
		e.reset()
		e.resets++
	}
	e.rst = l
}

func (e *Emulator) reset() {
	for i := range e.gddram {
		e.gddram[i] = 0
	}
	e.on = false
	e.colStart, e.colEnd = 0, width-1
	e.pageStart, e.pageEnd = 0, pages-1
	e.col, e.page = 0, 0
	e.pendingParams = 0
}

// receive feeds bytes to the controller. Bytes written while deselected
// are ignored, like on the real chip.
func (e *Emulator) receive(p []byte) {
	if e.cs != gpio.Low {
		e.ignored += len(p)
		return
	}
	for _, b := range p {
		if e.dc == gpio.Low {
			e.command(b)
		} else {
			e.data(b)
		}
	}
}

func (e *Emulator) command(b byte) {
	if e.pendingParams > 0 {
		rec := &e.records[len(e.records)-1]
		rec.Params = append(rec.Params, b)
		e.pendingParams--
		if e.pendingParams == 0 {
			e.apply(rec)
		}
		return
	}

	e.records = append(e.records, Record{Register: b})
	e.pendingParams = paramCount(b)
	if e.pendingParams == 0 {
		e.apply(&e.records[len(e.records)-1])
	}
}

func (e *Emulator) apply(rec *Record) {
	switch rec.Register {
	case regColumnAddress:
		e.colStart, e.colEnd = clampColumn(rec.Params[0]), clampColumn(rec.Params[1])
		e.col = e.colStart
	case regPageAddress:
		e.pageStart, e.pageEnd = rec.Params[0]&(pages-1), rec.Params[1]&(pages-1)
		e.page = e.pageStart
	case regDisplayOn:
		e.on = true
	case regDisplayOff:
		e.on = false
	}
}

// data writes one GDDRAM byte at the cursor and advances it through the
// window, horizontal addressing: columns first, then pages, then wrap.
func (e *Emulator) data(b byte) {
	e.gddram[int(e.page)*width+int(e.col)] = b

	if e.col < e.colEnd {
		e.col++
		return
	}
	e.col = e.colStart
	if e.page < e.pageEnd {
		e.page++
	} else {
		e.page = e.pageStart
	}
}

func clampColumn(c uint8) uint8 {
	if c > width-1 {
		return width - 1
	}
	return c
}

func paramCount(reg byte) int {
	switch reg {
	case regColumnAddress, regPageAddress:
		return 2
	case regMemoryAddrMode, regContrast, regChargePump, regClockDivide, regHardwareConfig:
		return 1
	default:
		return 0
	}
}

var _ ssd1306.Bus = &Emulator{}
