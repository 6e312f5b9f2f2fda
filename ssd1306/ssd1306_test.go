// Copyright 2023 Gilles Henrard. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1306

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/gilleshenrard/STM32-leveler/errorstack"
)

// record is one chip-select-bracketed exchange as seen on the wire, with
// the pin levels sampled at write time.
type record struct {
	dc    gpio.Level
	cs    gpio.Level
	async bool
	data  []byte
}

type fakeBus struct {
	dc *gpiotest.Pin
	cs *gpiotest.Pin

	writes      []record
	failSyncAt  int // 1-based index of the sync write to fail, 0 for none
	syncStatus  BusStatus
	asyncStatus BusStatus
	busyPolls   int // Busy() reports true this many times, -1 for forever
	aborted     int
}

func (b *fakeBus) WriteSync(p []byte, timeout time.Duration) BusStatus {
	b.writes = append(b.writes, record{
		dc:   b.dc.L,
		cs:   b.cs.L,
		data: append([]byte(nil), p...),
	})
	if b.failSyncAt > 0 && len(b.writes) == b.failSyncAt {
		return b.syncStatus
	}
	return StatusOK
}

func (b *fakeBus) WriteAsync(p []byte) BusStatus {
	if b.asyncStatus != StatusOK {
		return b.asyncStatus
	}
	b.writes = append(b.writes, record{
		dc:    b.dc.L,
		cs:    b.cs.L,
		async: true,
		data:  append([]byte(nil), p...),
	})
	return StatusOK
}

func (b *fakeBus) Busy() bool {
	if b.busyPolls < 0 {
		return true
	}
	if b.busyPolls > 0 {
		b.busyPolls--
		return true
	}
	return false
}

func (b *fakeBus) Abort() {
	b.aborted++
}

// failPin refuses every level change.
type failPin struct {
	*gpiotest.Pin
}

func (p *failPin) Out(gpio.Level) error {
	return errors.New("pin stuck")
}

func newTestDev() (*Dev, *fakeBus) {
	dc := &gpiotest.Pin{N: "dc"}
	cs := &gpiotest.Pin{N: "cs", L: gpio.High}
	rst := &gpiotest.Pin{N: "rst", L: gpio.High}
	bus := &fakeBus{dc: dc, cs: cs}
	return New(bus, dc, cs, rst), bus
}

func TestAngleGlyphs(t *testing.T) {
	for _, tc := range []struct {
		name  string
		angle float32
		want  [angleNbChars]uint8
	}{
		{"negative with tenths", -4.7, [angleNbChars]uint8{indexMinus, 0, 4, indexDot, 7, indexDegree}},
		{"positive with all digits", 12.3, [angleNbChars]uint8{indexPlus, 1, 2, indexDot, 3, indexDegree}},
		{"maximum", 90, [angleNbChars]uint8{indexPlus, 9, 0, indexDot, 0, indexDegree}},
		{"minimum", -90, [angleNbChars]uint8{indexMinus, 9, 0, indexDot, 0, indexDegree}},
		{"zero", 0, [angleNbChars]uint8{indexPlus, 0, 0, indexDot, 0, indexDegree}},
		{"noise above threshold", -0.04, [angleNbChars]uint8{indexPlus, 0, 0, indexDot, 0, indexDegree}},
		{"threshold itself", -0.05, [angleNbChars]uint8{indexPlus, 0, 0, indexDot, 0, indexDegree}},
		{"just below threshold", -0.1, [angleNbChars]uint8{indexMinus, 0, 0, indexDot, 1, indexDegree}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := angleGlyphs(tc.angle); got != tc.want {
				t.Errorf("angleGlyphs(%v) = %v, want %v", tc.angle, got, tc.want)
			}
		})
	}
}

func TestRasterise(t *testing.T) {
	glyphs := angleGlyphs(-4.7)
	var buf [maxDataSize]byte

	n := rasterise(buf[:], glyphs)

	if want := glyphPages * angleNbChars * glyphWidth; n != want {
		t.Fatalf("rasterise() = %d bytes, want %d", n, want)
	}
	for page := 0; page < glyphPages; page++ {
		for char, glyph := range glyphs {
			for column := 0; column < glyphWidth; column++ {
				got := buf[page*angleNbChars*glyphWidth+char*glyphWidth+column]
				want := verdana16Numbers[glyph][page*glyphWidth+column]
				if got != want {
					t.Fatalf("byte at page %d char %d column %d = %#x, want %#x", page, char, column, got, want)
				}
			}
		}
	}
}

func TestInitSequence(t *testing.T) {
	d, bus := newTestDev()

	if code := d.Init(); code.IsError() {
		t.Fatalf("Init() = %v", code)
	}

	want := []record{
		{dc: gpio.Low, cs: gpio.Low, data: []byte{scanDirectionN10}},
		{dc: gpio.Low, cs: gpio.Low, data: []byte{hardwareConfig}},
		{dc: gpio.Low, cs: gpio.Low, data: []byte{pinConfigAlternative}},
		{dc: gpio.Low, cs: gpio.Low, data: []byte{segmentRemap127}},
		{dc: gpio.Low, cs: gpio.Low, data: []byte{memoryAddrMode}},
		{dc: gpio.Low, cs: gpio.Low, data: []byte{horizontalAddressing}},
		{dc: gpio.Low, cs: gpio.Low, data: []byte{contrastControl}},
		{dc: gpio.Low, cs: gpio.Low, data: []byte{contrastHighest}},
		{dc: gpio.Low, cs: gpio.Low, data: []byte{clockDivideRatio}},
		{dc: gpio.Low, cs: gpio.Low, data: []byte{clockFreqMid}},
		{dc: gpio.Low, cs: gpio.Low, data: []byte{chargePumpRegulator}},
		{dc: gpio.Low, cs: gpio.Low, data: []byte{chargePumpEnable}},
		{dc: gpio.Low, cs: gpio.Low, data: []byte{displayOn}},
		{dc: gpio.Low, cs: gpio.Low, data: []byte{columnAddress}},
		{dc: gpio.Low, cs: gpio.Low, data: []byte{0, 127}},
		{dc: gpio.Low, cs: gpio.Low, data: []byte{pageAddress}},
		{dc: gpio.Low, cs: gpio.Low, data: []byte{0, 31}},
		{dc: gpio.High, cs: gpio.Low, data: make([]byte, maxDataSize)},
	}
	if diff := cmp.Diff(bus.writes, want, cmp.AllowUnexported(record{})); diff != "" {
		t.Errorf("Init() wire exchanges differ (-got +want):\n%s", diff)
	}
	if bus.cs.L != gpio.High {
		t.Error("chip select left asserted after Init()")
	}
	if !d.Ready() {
		t.Error("driver not ready after Init()")
	}
}

func TestInitFirstEntryFails(t *testing.T) {
	d, bus := newTestDev()
	bus.failSyncAt = 1
	bus.syncStatus = StatusError

	code := d.Init()

	if code.Severity() != errorstack.SeverityError {
		t.Fatalf("Init() = %v, want an error", code)
	}
	if got := code.Last(); got != (errorstack.Layer{Operation: opInitialise, Step: 1}) {
		t.Errorf("Last() = %+v, step does not identify table index 0", got)
	}
	if got := code.Origin(); got != (errorstack.Layer{Operation: opSendCommand, Step: 2}) {
		t.Errorf("Origin() = %+v", got)
	}
	if status, ok := code.BusStatus(); !ok || status != uint8(StatusError) {
		t.Errorf("BusStatus() = (%d, %v)", status, ok)
	}
	if len(bus.writes) != 1 {
		t.Errorf("%d writes after a failing first entry, want 1", len(bus.writes))
	}
	if bus.cs.L != gpio.High {
		t.Error("chip select left asserted after a failed command")
	}
}

func TestInitClearScreenFails(t *testing.T) {
	d, bus := newTestDev()
	bus.failSyncAt = 14 // first command of the screen clear
	bus.syncStatus = StatusTimeout

	code := d.Init()

	if code.Severity() != errorstack.SeverityError {
		t.Fatalf("Init() = %v, want an error", code)
	}
	if got := code.Last(); got != (errorstack.Layer{Operation: opInitialise, Step: 9}) {
		t.Errorf("Last() = %+v, want the screen clear step", got)
	}
	if code.Depth() != 3 {
		t.Errorf("Depth() = %d, want 3", code.Depth())
	}
}

func TestInitPinFailure(t *testing.T) {
	d, _ := newTestDev()
	d.rst = &failPin{&gpiotest.Pin{N: "rst"}}

	code := d.Init()

	if code.Severity() != errorstack.SeverityError {
		t.Fatalf("Init() = %v, want an error", code)
	}
	if got := code.Origin(); got != (errorstack.Layer{Operation: opInitialise, Step: 10}) {
		t.Errorf("Origin() = %+v", got)
	}
}

func TestSendCommandTooManyParameters(t *testing.T) {
	d, bus := newTestDev()

	code := d.sendCommand(columnAddress, make([]byte, maxParameters+1))

	if code.Severity() != errorstack.SeverityWarning {
		t.Errorf("severity = %v, want warning", code.Severity())
	}
	if got := code.Origin(); got != (errorstack.Layer{Operation: opSendCommand, Step: 1}) {
		t.Errorf("Origin() = %+v", got)
	}
	if len(bus.writes) != 0 {
		t.Errorf("%d bus writes, want 0", len(bus.writes))
	}
}

func TestSendCommandPinFailure(t *testing.T) {
	d, bus := newTestDev()
	d.dc = &failPin{&gpiotest.Pin{N: "dc"}}

	code := d.sendCommand(displayOn, nil)

	if code.Severity() != errorstack.SeverityError {
		t.Errorf("severity = %v, want error", code.Severity())
	}
	if got := code.Origin(); got != (errorstack.Layer{Operation: opSendCommand, Step: 4}) {
		t.Errorf("Origin() = %+v", got)
	}
	if len(bus.writes) != 0 {
		t.Errorf("%d bus writes, want 0", len(bus.writes))
	}
}

func TestSendCommandParameterFailureReleasesChip(t *testing.T) {
	d, bus := newTestDev()
	bus.failSyncAt = 2
	bus.syncStatus = StatusError

	code := d.sendCommand(columnAddress, []byte{0, 127})

	if got := code.Origin(); got != (errorstack.Layer{Operation: opSendCommand, Step: 3}) {
		t.Errorf("Origin() = %+v", got)
	}
	if len(bus.writes) != 2 {
		t.Errorf("%d bus writes, want 2", len(bus.writes))
	}
	if bus.cs.L != gpio.High {
		t.Error("chip select left asserted")
	}
}

func TestSendData(t *testing.T) {
	t.Run("empty is a no-op", func(t *testing.T) {
		d, bus := newTestDev()
		if code := d.sendData(nil); code.IsError() {
			t.Errorf("sendData(nil) = %v", code)
		}
		if len(bus.writes) != 0 {
			t.Errorf("%d bus writes, want 0", len(bus.writes))
		}
	})
	t.Run("oversized is rejected", func(t *testing.T) {
		d, bus := newTestDev()
		code := d.sendData(make([]byte, maxDataSize+1))
		if code.Severity() != errorstack.SeverityWarning {
			t.Errorf("severity = %v, want warning", code.Severity())
		}
		if got := code.Origin(); got != (errorstack.Layer{Operation: opSendData, Step: 1}) {
			t.Errorf("Origin() = %+v", got)
		}
		if len(bus.writes) != 0 {
			t.Errorf("%d bus writes, want 0", len(bus.writes))
		}
	})
	t.Run("data mode on the wire", func(t *testing.T) {
		d, bus := newTestDev()
		if code := d.sendData([]byte{0xAA}); code.IsError() {
			t.Fatalf("sendData() = %v", code)
		}
		want := []record{{dc: gpio.High, cs: gpio.Low, data: []byte{0xAA}}}
		if diff := cmp.Diff(bus.writes, want, cmp.AllowUnexported(record{})); diff != "" {
			t.Errorf("wire exchanges differ (-got +want):\n%s", diff)
		}
	})
}

func TestPrintAngleOutOfBounds(t *testing.T) {
	for _, angle := range []float32{90.01, -90.01, 180, -180} {
		d, bus := newTestDev()

		code := d.PrintAngle(angle, 0, 0)

		if code.Severity() != errorstack.SeverityWarning {
			t.Errorf("PrintAngle(%v) severity = %v, want warning", angle, code.Severity())
		}
		if got := code.Origin(); got != (errorstack.Layer{Operation: opPrintAngle, Step: 1}) {
			t.Errorf("Origin() = %+v", got)
		}
		if !d.Ready() {
			t.Errorf("PrintAngle(%v) changed the state", angle)
		}
		if len(bus.writes) != 0 {
			t.Errorf("PrintAngle(%v) touched the bus", angle)
		}
	}
}

func TestPrintAngleRejectedWhileBusy(t *testing.T) {
	d, _ := newTestDev()

	if code := d.PrintAngle(-4.7, 2, 10); code.IsError() {
		t.Fatalf("first PrintAngle() = %v", code)
	}
	code := d.PrintAngle(12.3, 0, 0)

	if code.Severity() != errorstack.SeverityWarning {
		t.Errorf("second PrintAngle() severity = %v, want warning", code.Severity())
	}
	if got := code.Origin(); got != (errorstack.Layer{Operation: opPrintAngle, Step: 2}) {
		t.Errorf("Origin() = %+v", got)
	}
	if d.nextAngle != -4.7 || d.nextPage != 2 || d.nextColumn != 10 {
		t.Error("rejected request overwrote the pending one")
	}
}

func TestUpdateIdleIsIdempotent(t *testing.T) {
	d, bus := newTestDev()

	for i := 0; i < 5; i++ {
		if code := d.Update(); code.IsError() {
			t.Fatalf("Update() #%d = %v", i, code)
		}
	}
	if len(bus.writes) != 0 {
		t.Errorf("%d bus writes while idle, want 0", len(bus.writes))
	}
}

func TestPrintAngleFlow(t *testing.T) {
	d, bus := newTestDev()
	bus.busyPolls = 2

	if code := d.PrintAngle(-4.7, 2, 10); code.IsError() {
		t.Fatalf("PrintAngle() = %v", code)
	}
	if d.Ready() {
		t.Error("Ready() while a request is pending")
	}

	// First tick: windows programmed, transfer started.
	if code := d.Update(); code.IsError() {
		t.Fatalf("Update() = %v", code)
	}

	var data [glyphPages * angleNbChars * glyphWidth]byte
	rasterise(data[:], angleGlyphs(-4.7))
	want := []record{
		{dc: gpio.Low, cs: gpio.Low, data: []byte{columnAddress}},
		{dc: gpio.Low, cs: gpio.Low, data: []byte{10, 10 + angleNbChars*glyphWidth - 1}},
		{dc: gpio.Low, cs: gpio.Low, data: []byte{pageAddress}},
		{dc: gpio.Low, cs: gpio.Low, data: []byte{2, 3}},
		{dc: gpio.High, cs: gpio.Low, async: true, data: data[:]},
	}
	if diff := cmp.Diff(bus.writes, want, cmp.AllowUnexported(record{})); diff != "" {
		t.Errorf("wire exchanges differ (-got +want):\n%s", diff)
	}
	if bus.cs.L != gpio.Low {
		t.Error("chip select released while the transfer is in flight")
	}

	// Transfer still busy for two polls: a no-op success each time.
	for i := 0; i < 2; i++ {
		if code := d.Update(); code.IsError() {
			t.Fatalf("Update() while busy = %v", code)
		}
		if d.Ready() {
			t.Fatal("Ready() while the transfer is in flight")
		}
	}

	// Transfer done: chip released, back to idle.
	if code := d.Update(); code.IsError() {
		t.Fatalf("Update() after completion = %v", code)
	}
	if !d.Ready() {
		t.Error("driver not ready after the transfer completed")
	}
	if bus.cs.L != gpio.High {
		t.Error("chip select left asserted after the transfer completed")
	}
}

func TestPrintAngleWindowFailures(t *testing.T) {
	for _, tc := range []struct {
		name       string
		failSyncAt int
		wantStep   uint8
	}{
		{"column window", 1, 1},
		{"page window", 3, 2},
	} {
		t.Run(tc.name, func(t *testing.T) {
			d, bus := newTestDev()
			bus.failSyncAt = tc.failSyncAt
			bus.syncStatus = StatusError

			if code := d.PrintAngle(-4.7, 2, 10); code.IsError() {
				t.Fatalf("PrintAngle() = %v", code)
			}
			code := d.Update()

			if code.Severity() != errorstack.SeverityError {
				t.Fatalf("Update() = %v, want an error", code)
			}
			if got := code.Last(); got != (errorstack.Layer{Operation: opPrintingAngle, Step: tc.wantStep}) {
				t.Errorf("Last() = %+v, want step %d", got, tc.wantStep)
			}
			if !d.Ready() {
				t.Error("driver not back to idle after the failure")
			}
		})
	}
}

func TestPrintAngleStartFailure(t *testing.T) {
	d, bus := newTestDev()
	bus.asyncStatus = StatusBusy

	if code := d.PrintAngle(-4.7, 2, 10); code.IsError() {
		t.Fatalf("PrintAngle() = %v", code)
	}
	code := d.Update()

	if code.Severity() != errorstack.SeverityError {
		t.Fatalf("Update() = %v, want an error", code)
	}
	if got := code.Origin(); got != (errorstack.Layer{Operation: opPrintingAngle, Step: 3}) {
		t.Errorf("Origin() = %+v", got)
	}
	if status, ok := code.BusStatus(); !ok || status != uint8(StatusBusy) {
		t.Errorf("BusStatus() = (%d, %v)", status, ok)
	}
	if !d.Ready() {
		t.Error("driver not back to idle after a failed start")
	}
	if bus.cs.L != gpio.High {
		t.Error("chip select left asserted after a failed start")
	}
}

func TestTransferTimeout(t *testing.T) {
	d, bus := newTestDev()
	bus.busyPolls = -1 // the transfer never completes

	if code := d.PrintAngle(-4.7, 2, 10); code.IsError() {
		t.Fatalf("PrintAngle() = %v", code)
	}
	if code := d.Update(); code.IsError() {
		t.Fatalf("Update() = %v", code)
	}

	// Countdown not elapsed: still supervising.
	for i := 0; i < transferTicks-1; i++ {
		d.Tick()
		if code := d.Update(); code.IsError() {
			t.Fatalf("Update() before timeout = %v", code)
		}
	}

	// Countdown elapsed: exactly one timeout error, then back to idle.
	d.Tick()
	code := d.Update()
	if code.Severity() != errorstack.SeverityError {
		t.Fatalf("Update() after timeout = %v, want an error", code)
	}
	if got := code.Origin(); got != (errorstack.Layer{Operation: opWaitingTxDone, Step: 1}) {
		t.Errorf("Origin() = %+v", got)
	}
	if bus.aborted != 1 {
		t.Errorf("aborted %d transfers, want 1", bus.aborted)
	}
	if bus.cs.L != gpio.High {
		t.Error("chip select left asserted after the timeout")
	}
	if !d.Ready() {
		t.Error("driver not back to idle after the timeout")
	}
	if code := d.Update(); code.IsError() {
		t.Errorf("Update() after recovery = %v, want success", code)
	}
}

func TestTickStopsAtZero(t *testing.T) {
	d, _ := newTestDev()
	for i := 0; i < 3; i++ {
		d.Tick()
	}
	if d.timer != 0 {
		t.Errorf("timer = %d after ticking an idle driver, want 0", d.timer)
	}
}

func TestHalt(t *testing.T) {
	d, bus := newTestDev()
	if err := d.Halt(); err != nil {
		t.Fatalf("Halt() = %v", err)
	}
	want := []record{{dc: gpio.Low, cs: gpio.Low, data: []byte{displayOff}}}
	if diff := cmp.Diff(bus.writes, want, cmp.AllowUnexported(record{})); diff != "" {
		t.Errorf("wire exchanges differ (-got +want):\n%s", diff)
	}
}
