// Copyright 2023 Gilles Henrard. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package pageview emulates the GDDRAM side of an SSD1306 panel.
//
// The Emulator plugs in wherever the real transport would: it implements
// ssd1306.Bus and hands out observer pins for the control lines, then
// interprets the wire protocol (chip-select bracketing, command versus
// data mode, column and page address windows, horizontal addressing with
// wrap) into a 128x64 frame. The frame renders to an ANSI terminal, an
// image.Image or a PNG file.
//
// It is useful both as a test double for wire-level assertions and as the
// backend of the leveler daemon's simulate mode while the hardware is in
// the mail.
package pageview
