// Copyright 2026 The larpix-control Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uart

import (
	"golang.org/x/xerrors"

	"github.com/larpix/larpix-control/pio"
)

// ClockDilation is the master-clock to baud-rate ratio of the
// production clock configuration: each UART bit is held for 4 clock
// samples on the wire.
//
// Both the dilated frame (224 samples) and the legacy undilated frame
// (56 samples) are valid wire formats; callers select the one that
// matches their hardware clock configuration through the dilation
// argument of Embed (1 = undilated).
const ClockDilation = 4

// FrameLength returns the number of timesteps one framed packet
// occupies on the wire: start bit, 54 payload bits and stop bit, each
// held for dilation samples.
func FrameLength(dilation int) int {
	return (NumBits + 2) * dilation
}

// ErrInsufficientSpace reports that a frame would extend past the end
// of the pin buffer. The buffer is left unmodified.
var ErrInsufficientSpace = xerrors.New("uart: insufficient space in pin buffer")

// Embed frames p onto one pin of data, starting at timestep start:
// a start bit (0), the 54 payload bits, and a stop bit (1), each held
// for dilation samples. start always locates the leading start bit.
//
// The buffer is checked before any write; on ErrInsufficientSpace it
// is left unmodified.
func Embed(p *Packet, data *pio.Data, pin, start, dilation int) error {
	if dilation < 1 {
		return xerrors.Errorf("uart: invalid dilation %d", dilation)
	}
	n := FrameLength(dilation)
	if start < 0 || start+n > pio.BufferSize {
		return xerrors.Errorf("uart: could not embed %d-sample frame at bit %d: %w",
			n, start, ErrInsufficientSpace)
	}

	pos := start
	hold := func(bit uint8) {
		for i := 0; i < dilation; i++ {
			data.SetBit(pin, pos, bit)
			pos++
		}
	}
	hold(0) // start bit
	for _, bit := range p.bits {
		hold(bit)
	}
	hold(1) // stop bit
	return nil
}

// Extract reads one undilated frame from a pin of data, the start bit
// located at timestep start, and returns the 54 payload bits as a
// packet. The parity bit is returned as stored; validate it with
// CheckParity.
func Extract(data *pio.Data, pin, start int) (Packet, error) {
	var p Packet
	n := FrameLength(1)
	if start < 0 || start+n > pio.BufferSize {
		return p, xerrors.Errorf("uart: could not extract %d-sample frame at bit %d: %w",
			n, start, ErrInsufficientSpace)
	}
	for i := 0; i < NumBits; i++ {
		p.bits[i] = data.Bit(pin, start+1+i)
	}
	return p, nil
}
