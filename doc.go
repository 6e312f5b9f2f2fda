// Copyright 2023 Gilles Henrard. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package leveler is a container for the drivers of a digital spirit level:
// an SSD1306 OLED that prints tilt angles and an ADXL345 accelerometer that
// measures them.
//
// Every fallible driver operation reports through the errorstack package
// instead of plain errors, so a failure can be traced back through the
// layers that composed it.
package leveler
