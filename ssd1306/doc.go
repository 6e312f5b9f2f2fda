// Copyright 2023 Gilles Henrard. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ssd1306 controls a monochrome 128x64 OLED display via a SSD1306
// controller on a 4-wire SPI bus, specialised to print signed decimal angles
// with a pre-rasterised Verdana 16pt glyph set.
//
// The driver is a polled state machine: Init programs the controller and
// clears the screen, PrintAngle queues one print request without blocking,
// and Update, invoked at a fixed cadence from a single goroutine, walks the
// request through rasterisation, the command exchanges and one asynchronous
// bulk write supervised by a millisecond countdown fed through Tick.
//
// Every fallible operation returns an errorstack.Code; nothing panics and
// nothing blocks beyond the bus timeout.
//
// # Datasheet
//
// https://cdn-shop.adafruit.com/datasheets/SSD1306.pdf
package ssd1306
