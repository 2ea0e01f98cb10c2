// Copyright 2026 The larpix-control Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pio holds the parallel pin-I/O buffer exchanged with the
// LArPix serial front-end: 8 logical pins sampled once per timestep,
// packed 8 pins per byte on the wire.
package pio // import "github.com/larpix/larpix-control/pio"

import "fmt"

const (
	// BufferSize is the fixed per-pin capacity, in timesteps.
	BufferSize = 1024
	// NumPins is the number of pins multiplexed onto one byte.
	NumPins = 8
)

// Data is a fixed-capacity bit buffer for the 8 I/O pins.
// Each entry is 0 or 1, one entry per timestep.
//
// Data is not safe for concurrent mutation: allocate one Data per
// in-flight transmission or reception buffer.
type Data struct {
	bits [NumPins][BufferSize]uint8
}

func (d *Data) pin(pin int) *[BufferSize]uint8 {
	if pin < 0 || pin >= NumPins {
		panic(fmt.Errorf("pio: invalid pin index %d", pin))
	}
	return &d.bits[pin]
}

// Bit returns bit i of the given pin.
func (d *Data) Bit(pin, i int) uint8 {
	return d.pin(pin)[i]
}

// SetBit sets bit i of the given pin to v (nonzero normalized to 1).
func (d *Data) SetBit(pin, i int, v uint8) {
	if v != 0 {
		v = 1
	}
	d.pin(pin)[i] = v
}

// InitHigh sets every bit of every pin to 1.
func (d *Data) InitHigh() {
	for i := range d.bits {
		for j := range d.bits[i] {
			d.bits[i][j] = 1
		}
	}
}

// InitLow sets every bit of every pin to 0.
func (d *Data) InitLow() {
	for i := range d.bits {
		for j := range d.bits[i] {
			d.bits[i][j] = 0
		}
	}
}

// SetClk overwrites the given pin with the UART bit-clock pattern,
// alternating every timestep starting low.
func (d *Data) SetClk(pin int) {
	ch := d.pin(pin)
	for i := range ch {
		ch[i] = uint8(i & 1)
	}
}

// SetBitstream copies bits into the given pin, one entry per
// timestep. Nonzero entries are normalized to 1. Input longer than
// the buffer capacity is silently truncated.
func (d *Data) SetBitstream(pin int, bits []uint8) {
	ch := d.pin(pin)
	n := len(bits)
	if n > BufferSize {
		n = BufferSize
	}
	for i := 0; i < n; i++ {
		if bits[i] != 0 {
			ch[i] = 1
		} else {
			ch[i] = 0
		}
	}
}

// Bitstream returns the first n entries of the given pin.
// n is clamped to the buffer capacity.
func (d *Data) Bitstream(pin, n int) []uint8 {
	ch := d.pin(pin)
	if n < 0 {
		n = 0
	}
	if n > BufferSize {
		n = BufferSize
	}
	out := make([]uint8, n)
	copy(out, ch[:n])
	return out
}

// Pack assembles the first n timesteps into a bytestream, one byte
// per timestep, pin 0 on the least significant bit.
// n is clamped to the buffer capacity.
func (d *Data) Pack(n int) []byte {
	if n < 0 {
		n = 0
	}
	if n > BufferSize {
		n = BufferSize
	}
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		var v byte
		for pin := 0; pin < NumPins; pin++ {
			if d.bits[pin][i] != 0 {
				v |= 1 << pin
			}
		}
		out[i] = v
	}
	return out
}

// Unpack disassembles a bytestream into the per-pin bit buffers,
// pin 0 from the least significant bit of each byte. Input longer
// than the buffer capacity is silently truncated.
func (d *Data) Unpack(p []byte) {
	n := len(p)
	if n > BufferSize {
		n = BufferSize
	}
	for i := 0; i < n; i++ {
		for pin := 0; pin < NumPins; pin++ {
			d.bits[pin][i] = uint8((p[i] >> pin) & 1)
		}
	}
}
