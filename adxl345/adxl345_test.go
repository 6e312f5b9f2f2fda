// Copyright 2023 Gilles Henrard. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package adxl345

import (
	"math"
	"testing"

	"periph.io/x/conn/v3/conntest"
	"periph.io/x/conn/v3/spi/spitest"

	"github.com/gilleshenrard/STM32-leveler/errorstack"
)

func TestInit(t *testing.T) {
	pb := &spitest.Playback{
		Playback: conntest.Playback{
			Ops: []conntest.IO{
				{W: []byte{regDeviceID | readFlag, 0x00}, R: []byte{0x00, deviceID}},
				{W: []byte{regDataFormat, fullResRange2}},
				{W: []byte{regBwRate, rate100Hz}},
				{W: []byte{regPowerCtl, measureMode}},
			},
			DontPanic: true,
		},
	}
	defer pb.Close()

	d, err := New(pb, nil)
	if err != nil {
		t.Fatal(err)
	}
	if code := d.Init(); code.IsError() {
		t.Fatalf("Init() = %v", code)
	}
	if err := pb.Close(); err != nil {
		t.Errorf("unconsumed exchanges: %v", err)
	}
}

func TestInitWrongDeviceID(t *testing.T) {
	pb := &spitest.Playback{
		Playback: conntest.Playback{
			Ops: []conntest.IO{
				{W: []byte{regDeviceID | readFlag, 0x00}, R: []byte{0x00, 0x33}},
			},
			DontPanic: true,
		},
	}
	defer pb.Close()

	d, err := New(pb, nil)
	if err != nil {
		t.Fatal(err)
	}
	code := d.Init()

	if code.Severity() != errorstack.SeverityError {
		t.Fatalf("Init() = %v, want an error", code)
	}
	if got := code.Origin(); got != (errorstack.Layer{Operation: opInitialise, Step: 2}) {
		t.Errorf("Origin() = %+v", got)
	}
	if id, ok := code.BusStatus(); !ok || id != 0x33 {
		t.Errorf("BusStatus() = (%#x, %v), want the advertised identity", id, ok)
	}
}

func TestReadAxes(t *testing.T) {
	pb := &spitest.Playback{
		Playback: conntest.Playback{
			Ops: []conntest.IO{
				{
					W: []byte{regDataX0 | readFlag | multibyteFlag, 0, 0, 0, 0, 0, 0},
					// X=-100, Y=12, Z=256, little endian.
					R: []byte{0x00, 0x9C, 0xFF, 0x0C, 0x00, 0x00, 0x01},
				},
			},
			DontPanic: true,
		},
	}
	defer pb.Close()

	d, err := New(pb, nil)
	if err != nil {
		t.Fatal(err)
	}
	sample, code := d.ReadAxes()

	if code.IsError() {
		t.Fatalf("ReadAxes() = %v", code)
	}
	if want := (Sample{X: -100, Y: 12, Z: 256}); sample != want {
		t.Errorf("ReadAxes() = %+v, want %+v", sample, want)
	}
}

func TestPitchRoll(t *testing.T) {
	for _, tc := range []struct {
		name   string
		sample Sample
		pitch  float32
		roll   float32
	}{
		{"flat", Sample{0, 0, 256}, 0, 0},
		{"nose up", Sample{256, 0, 0}, 90, 0},
		{"nose down", Sample{-256, 0, 0}, -90, 0},
		{"on the side", Sample{0, 256, 0}, 0, 90},
		{"45 degrees", Sample{256, 0, 256}, 45, 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.sample.Pitch(); !near(got, tc.pitch) {
				t.Errorf("Pitch() = %v, want %v", got, tc.pitch)
			}
			if got := tc.sample.Roll(); !near(got, tc.roll) {
				t.Errorf("Roll() = %v, want %v", got, tc.roll)
			}
		})
	}
}

func near(got, want float32) bool {
	return math.Abs(float64(got-want)) < 0.01
}
