// Copyright 2026 The larpix-control Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uart

import (
	"golang.org/x/xerrors"

	"github.com/larpix/larpix-control/pio"
)

// Encoder frames successive UART packets onto one pin of a Data
// buffer, at consecutive offsets. The first error sticks: once an
// Encode fails, all further calls return the same error and the
// buffer is no longer touched.
type Encoder struct {
	data *pio.Data
	pin  int
	dil  int
	pos  int
	err  error
}

// NewEncoder returns a new Encoder framing packets onto the given pin
// of data with the given baud dilation (1 = undilated, ClockDilation
// for the production clock configuration).
func NewEncoder(data *pio.Data, pin, dilation int) *Encoder {
	return &Encoder{
		data: data,
		pin:  pin,
		dil:  dilation,
	}
}

// Pos returns the timestep at which the next frame will start.
func (enc *Encoder) Pos() int { return enc.pos }

// Encode frames p at the current position and advances past it.
func (enc *Encoder) Encode(p *Packet) error {
	if enc.err != nil {
		return enc.err
	}
	err := Embed(p, enc.data, enc.pin, enc.pos, enc.dil)
	if err != nil {
		enc.err = xerrors.Errorf("uart: could not encode packet at bit %d: %w", enc.pos, err)
		return enc.err
	}
	enc.pos += FrameLength(enc.dil)
	return nil
}

// Decoder extracts successive undilated UART frames from one pin of a
// Data buffer, at consecutive offsets. The first error sticks.
type Decoder struct {
	data *pio.Data
	pin  int
	pos  int
	err  error
}

// NewDecoder returns a new Decoder reading undilated frames from the
// given pin of data.
func NewDecoder(data *pio.Data, pin int) *Decoder {
	return &Decoder{
		data: data,
		pin:  pin,
	}
}

// Pos returns the timestep at which the next frame is expected.
func (dec *Decoder) Pos() int { return dec.pos }

// Decode extracts the frame at the current position into p and
// advances past it.
func (dec *Decoder) Decode(p *Packet) error {
	if dec.err != nil {
		return dec.err
	}
	pkt, err := Extract(dec.data, dec.pin, dec.pos)
	if err != nil {
		dec.err = xerrors.Errorf("uart: could not decode packet at bit %d: %w", dec.pos, err)
		return dec.err
	}
	*p = pkt
	dec.pos += FrameLength(1)
	return nil
}
