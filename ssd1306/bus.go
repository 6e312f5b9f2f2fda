// Copyright 2023 Gilles Henrard. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1306

import (
	"sync/atomic"
	"time"

	"periph.io/x/conn/v3"
)

// BusStatus is the status byte reported by the transport layer. It is
// carried verbatim inside errorstack codes.
type BusStatus uint8

const (
	StatusOK BusStatus = iota
	StatusError
	StatusBusy
	StatusTimeout
)

// Bus is the raw transport consumed by the driver: one synchronous write
// bounded by a timeout, plus a single asynchronous write in flight at a
// time whose completion is observed through Busy, never awaited.
//
// The driver owns chip select and the command/data line itself, so a Bus
// implementation must not toggle any pin.
type Bus interface {
	// WriteSync writes p and blocks at most timeout.
	WriteSync(p []byte, timeout time.Duration) BusStatus
	// WriteAsync starts writing p in the background. p must stay untouched
	// until Busy reports false or Abort is called.
	WriteAsync(p []byte) BusStatus
	// Busy reports whether an asynchronous write is still in flight.
	Busy() bool
	// Abort abandons the asynchronous write in flight, if any.
	Abort()
}

// SPIBus adapts a periph SPI connection to the Bus interface. The
// asynchronous write runs on a goroutine and publishes its completion
// through an atomic flag, standing in for the DMA engine of a
// microcontroller port.
type SPIBus struct {
	c    conn.Conn
	busy uint32
	gen  uint32
}

// NewSPIBus wraps an SPI connection. The connection must have been opened
// with spi.NoCS, chip select is protocol-owned.
func NewSPIBus(c conn.Conn) *SPIBus {
	return &SPIBus{c: c}
}

// WriteSync implements Bus.
func (b *SPIBus) WriteSync(p []byte, timeout time.Duration) BusStatus {
	done := make(chan error, 1)
	go func() {
		done <- b.c.Tx(p, nil)
	}()
	select {
	case err := <-done:
		if err != nil {
			return StatusError
		}
		return StatusOK
	case <-time.After(timeout):
		return StatusTimeout
	}
}

// WriteAsync implements Bus.
func (b *SPIBus) WriteAsync(p []byte) BusStatus {
	if !atomic.CompareAndSwapUint32(&b.busy, 0, 1) {
		return StatusBusy
	}
	gen := atomic.LoadUint32(&b.gen)
	go func() {
		_ = b.c.Tx(p, nil)
		// An aborted transfer must not clear the flag of a later one.
		if atomic.LoadUint32(&b.gen) == gen {
			atomic.StoreUint32(&b.busy, 0)
		}
	}()
	return StatusOK
}

// Busy implements Bus.
func (b *SPIBus) Busy() bool {
	return atomic.LoadUint32(&b.busy) != 0
}

// Abort implements Bus.
func (b *SPIBus) Abort() {
	atomic.AddUint32(&b.gen, 1)
	atomic.StoreUint32(&b.busy, 0)
}

var _ Bus = &SPIBus{}
