// Copyright 2023 Gilles Henrard. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package errorstack

import (
	"fmt"
	"strings"
)

// Severity qualifies how bad a failure is.
type Severity uint8

const (
	// SeveritySuccess is the zero severity: nothing failed.
	SeveritySuccess Severity = iota
	// SeverityWarning flags caller misuse. No hardware side effect occurred.
	SeverityWarning
	// SeverityError flags a hardware or bus failure. A side effect may have
	// partially occurred.
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeveritySuccess:
		return "success"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return fmt.Sprintf("Severity(%d)", uint8(s))
	}
}

// Operation identifies the function that created or composed a Code. Each
// driver package declares its own set of values.
type Operation uint8

// Layer is one provenance frame: which operation recorded it and at which
// step within that operation.
type Layer struct {
	Operation Operation
	Step      uint8
}

// maxLayers bounds the provenance stack so a Code stays a small value with
// no heap allocation on any path.
const maxLayers = 4

// Code is the return value of every fallible driver operation. The zero
// value means success.
//
// A Code is created at the call site that detects a problem and composed
// with one more layer at each caller on the way out. It is never stored
// long-term.
type Code struct {
	layers   [maxLayers]Layer
	depth    uint8
	severity Severity
	status   uint8
	hasStat  bool
}

// Success is the Code reporting that nothing failed.
var Success = Code{}

// New creates a Code at the site that detected the failure.
//
// A non-success Code must identify where it occurred, so a zero step is
// normalised to 1.
func New(op Operation, step uint8, severity Severity) Code {
	if severity != SeveritySuccess && step == 0 {
		step = 1
	}
	c := Code{
		depth:    1,
		severity: severity,
	}
	c.layers[0] = Layer{Operation: op, Step: step}
	return c
}

// NewWithStatus creates a Code carrying the status byte reported by the
// underlying bus layer.
func NewWithStatus(op Operation, step uint8, status uint8, severity Severity) Code {
	c := New(op, step, severity)
	c.status = status
	c.hasStat = true
	return c
}

// Push composes a Code received from a callee with the caller's own
// operation and step. The callee's report is kept reachable: severity,
// status and the origin frame are never discarded, and composition never
// upgrades or downgrades severity.
//
// When the frame array is full the newest intermediate frame is evicted so
// the origin and the outermost caller both stay reconstructable. The depth
// counter keeps counting regardless.
func (c Code) Push(op Operation, step uint8) Code {
	if step == 0 {
		step = 1
	}
	slot := c.depth
	if slot >= maxLayers {
		slot = maxLayers - 1
	}
	c.layers[slot] = Layer{Operation: op, Step: step}
	c.depth++
	return c
}

// IsError is true for the Warning and Error severities.
func (c Code) IsError() bool {
	return c.severity != SeveritySuccess
}

// Severity returns the severity recorded at creation.
func (c Code) Severity() Severity {
	return c.severity
}

// Origin returns the innermost frame: the operation and step that detected
// the failure.
func (c Code) Origin() Layer {
	return c.layers[0]
}

// Last returns the outermost recorded frame: the latest caller that
// composed the Code.
func (c Code) Last() Layer {
	if c.depth == 0 {
		return Layer{}
	}
	slot := c.depth - 1
	if slot >= maxLayers {
		slot = maxLayers - 1
	}
	return c.layers[slot]
}

// Depth returns how many layers composed the Code, including evicted ones.
func (c Code) Depth() int {
	return int(c.depth)
}

// BusStatus returns the status byte reported by the underlying bus, if the
// Code carries one.
func (c Code) BusStatus() (uint8, bool) {
	return c.status, c.hasStat
}

// Error implements error. Frames are printed outermost first, the way a
// stack trace would read.
func (c Code) Error() string {
	if !c.IsError() {
		return "success"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s:", c.severity)
	kept := c.depth
	if kept > maxLayers {
		kept = maxLayers
	}
	for i := int(kept) - 1; i >= 0; i-- {
		fmt.Fprintf(&b, " op %d step %d", c.layers[i].Operation, c.layers[i].Step)
		if i > 0 {
			b.WriteString(" <-")
		}
	}
	if c.depth > maxLayers {
		fmt.Fprintf(&b, " (%d frames evicted)", c.depth-maxLayers)
	}
	if c.hasStat {
		fmt.Fprintf(&b, " (bus status %d)", c.status)
	}
	return b.String()
}

// Err bridges to error-shaped call sites: it returns nil on success and the
// Code itself otherwise.
func (c Code) Err() error {
	if !c.IsError() {
		return nil
	}
	return c
}
