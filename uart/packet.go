// Copyright 2026 The larpix-control Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package uart implements the 54-bit UART protocol word exchanged
// with the LArPix ASIC, and its framing onto the parallel pin buffer.
package uart // import "github.com/larpix/larpix-control/uart"

import "fmt"

// NumBits is the number of payload bits in one UART word,
// start and stop bits excluded.
const NumBits = 54

// PacketType selects the interpretation of the packet-type-specific
// bitfields of a Packet.
type PacketType uint8

const (
	PacketData        PacketType = 0
	PacketTest        PacketType = 1
	PacketConfigWrite PacketType = 2
	PacketConfigRead  PacketType = 3
)

func (pt PacketType) String() string {
	switch pt {
	case PacketData:
		return "data"
	case PacketTest:
		return "test"
	case PacketConfigWrite:
		return "config-write"
	case PacketConfigRead:
		return "config-read"
	}
	return fmt.Sprintf("PacketType(%d)", uint8(pt))
}

// Bit positions of the named fields, bit 0 = first payload bit after
// the start bit, LSB of each field at the low position.
const (
	ptypeLow  = 0
	ptypeHigh = 1

	chipidLow  = 2
	chipidHigh = 9

	channelidLow  = 10
	channelidHigh = 16

	timestampLow  = 17
	timestampHigh = 40

	datawordLow  = 41
	datawordHigh = 50

	fifoHalfBit = 51
	fifoFullBit = 52

	regAddrLow  = 10
	regAddrHigh = 17

	regDataLow  = 18
	regDataHigh = 25

	testCounterLowLSB  = 41 // test-counter bits [11:0]
	testCounterLowMSB  = 52
	testCounterHighLSB = 10 // test-counter bits [15:12]
	testCounterHighMSB = 13

	parityBit = 53
)

// Packet is one 54-bit UART word, stored one bit per byte.
//
// The named-field accessors are views into fixed bit ranges and never
// consult the packet-type field: reading or writing a field that does
// not belong to the packet's declared type is permitted and yields a
// meaningless value (it aliases bits the other interpretation owns).
// Callers that know the intended type are responsible for using the
// matching fields.
//
// Packet is not safe for concurrent mutation.
type Packet struct {
	bits [NumBits]uint8
}

// Bit returns bit i of the packet.
func (p *Packet) Bit(i int) uint8 {
	return p.bits[i]
}

// SetBit sets bit i of the packet to v (nonzero normalized to 1).
func (p *Packet) SetBit(i int, v uint8) {
	if v != 0 {
		v = 1
	}
	p.bits[i] = v
}

// Bits returns a copy of the 54 payload bits, LSB-first.
func (p *Packet) Bits() []uint8 {
	out := make([]uint8, NumBits)
	copy(out, p.bits[:])
	return out
}

func (p *Packet) field(lo, hi int) uint64 {
	return BitsToUint(p.bits[lo : hi+1])
}

func (p *Packet) setField(lo, hi int, v uint64) {
	copy(p.bits[lo:hi+1], UintToBits(v, hi-lo+1))
}

// Type returns the packet-type field (bits 0-1).
func (p *Packet) Type() PacketType {
	return PacketType(p.field(ptypeLow, ptypeHigh))
}

// SetType sets the packet-type field (bits 0-1).
func (p *Packet) SetType(pt PacketType) {
	p.setField(ptypeLow, ptypeHigh, uint64(pt))
}

// ChipID returns the 8-bit chip id field.
func (p *Packet) ChipID() uint8 {
	return uint8(p.field(chipidLow, chipidHigh))
}

// SetChipID sets the 8-bit chip id field.
func (p *Packet) SetChipID(id uint8) {
	p.setField(chipidLow, chipidHigh, uint64(id))
}

// ChannelID returns the 7-bit channel id field of a data packet.
func (p *Packet) ChannelID() uint8 {
	return uint8(p.field(channelidLow, channelidHigh))
}

// SetChannelID sets the 7-bit channel id field of a data packet.
func (p *Packet) SetChannelID(ch uint8) {
	p.setField(channelidLow, channelidHigh, uint64(ch))
}

// Timestamp returns the 24-bit timestamp field of a data packet.
func (p *Packet) Timestamp() uint32 {
	return uint32(p.field(timestampLow, timestampHigh))
}

// SetTimestamp sets the 24-bit timestamp field of a data packet.
// Bits of ts above the 24th are dropped.
func (p *Packet) SetTimestamp(ts uint32) {
	p.setField(timestampLow, timestampHigh, uint64(ts))
}

// Dataword returns the 10-bit ADC dataword field of a data packet.
func (p *Packet) Dataword() uint16 {
	return uint16(p.field(datawordLow, datawordHigh))
}

// SetDataword sets the 10-bit ADC dataword field of a data packet.
func (p *Packet) SetDataword(v uint16) {
	p.setField(datawordLow, datawordHigh, uint64(v))
}

// FIFOHalfFlag returns the fifo-half-full flag of a data packet.
func (p *Packet) FIFOHalfFlag() uint8 {
	return p.bits[fifoHalfBit]
}

// SetFIFOHalfFlag sets the fifo-half-full flag of a data packet.
func (p *Packet) SetFIFOHalfFlag(v uint8) {
	p.SetBit(fifoHalfBit, v)
}

// FIFOFullFlag returns the fifo-full flag of a data packet.
func (p *Packet) FIFOFullFlag() uint8 {
	return p.bits[fifoFullBit]
}

// SetFIFOFullFlag sets the fifo-full flag of a data packet.
func (p *Packet) SetFIFOFullFlag(v uint8) {
	p.SetBit(fifoFullBit, v)
}

// RegisterAddress returns the 8-bit register address field of a
// config packet.
func (p *Packet) RegisterAddress() uint8 {
	return uint8(p.field(regAddrLow, regAddrHigh))
}

// SetRegisterAddress sets the 8-bit register address field of a
// config packet.
func (p *Packet) SetRegisterAddress(addr uint8) {
	p.setField(regAddrLow, regAddrHigh, uint64(addr))
}

// RegisterData returns the 8-bit register data field of a config
// packet.
func (p *Packet) RegisterData() uint8 {
	return uint8(p.field(regDataLow, regDataHigh))
}

// SetRegisterData sets the 8-bit register data field of a config
// packet.
func (p *Packet) SetRegisterData(v uint8) {
	p.setField(regDataLow, regDataHigh, uint64(v))
}

// TestCounter returns the 16-bit counter of a test packet, assembled
// from its two sub-fields (low 12 bits at 41-52, high 4 bits at
// 10-13).
func (p *Packet) TestCounter() uint16 {
	lo := p.field(testCounterLowLSB, testCounterLowMSB)
	hi := p.field(testCounterHighLSB, testCounterHighMSB)
	return uint16(hi<<12 | lo)
}

// SetTestCounter sets the 16-bit counter of a test packet.
func (p *Packet) SetTestCounter(v uint16) {
	p.setField(testCounterLowLSB, testCounterLowMSB, uint64(v)&0xfff)
	p.setField(testCounterHighLSB, testCounterHighMSB, uint64(v)>>12)
}

// ComputeParity returns the parity bit value that makes the popcount
// over all 54 bits odd: 1 if the number of 1-bits among bits 0-52 is
// even, else 0.
func (p *Packet) ComputeParity() uint8 {
	var n int
	for _, b := range p.bits[:parityBit] {
		if b != 0 {
			n++
		}
	}
	return uint8(1 - n%2)
}

// SetParity writes ComputeParity into the parity bit.
func (p *Packet) SetParity() {
	p.bits[parityBit] = p.ComputeParity()
}

// ForceParity writes an explicit value to the parity bit, bypassing
// computation. Use it to construct deliberately corrupt packets.
func (p *Packet) ForceParity(v uint8) {
	p.SetBit(parityBit, v)
}

// Parity returns the stored parity bit.
func (p *Packet) Parity() uint8 {
	return p.bits[parityBit]
}

// CheckParity reports whether the stored parity bit matches
// ComputeParity. A mismatch is a data condition for the caller to
// judge, never an error raised by this package.
func (p *Packet) CheckParity() bool {
	return p.bits[parityBit] == p.ComputeParity()
}
