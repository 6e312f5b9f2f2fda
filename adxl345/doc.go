// Copyright 2023 Gilles Henrard. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package adxl345 reads tilt angles from an ADXL345 3-axis accelerometer
// on SPI.
//
// The driver is a thin register wrapper with no state machine: Init
// verifies the device identity and programs full-resolution continuous
// measurement, ReadAxes bursts the three axes in one exchange and the
// returned Sample converts to pitch and roll in degrees, ready to feed to
// the ssd1306 angle display.
//
// # Datasheet
//
// https://www.analog.com/media/en/technical-documentation/data-sheets/ADXL345.pdf
package adxl345
