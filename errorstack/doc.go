// Copyright 2023 Gilles Henrard. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package errorstack implements layered, allocation-free error codes.
//
// Drivers in this module do not unwind on failure. Instead every fallible
// operation returns a small Code value carrying a severity, a stack of
// (operation, step) provenance frames and an optional status byte from the
// underlying bus. A caller that receives a non-success Code either pushes
// its own frame on top with Push and returns it, or returns it unchanged.
// The outermost caller can then reconstruct which operation ultimately
// failed and at what depth, without a stack trace facility.
//
// Severities split in two: a Warning reports caller misuse that touched no
// hardware, an Error reports a bus or device failure that may have left a
// partial side effect.
package errorstack
