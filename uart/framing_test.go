// Copyright 2026 The larpix-control Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uart

import (
	"reflect"
	"testing"

	"golang.org/x/xerrors"

	"github.com/larpix/larpix-control/pio"
)

func testPacket(chipid uint8) Packet {
	var p Packet
	p.SetType(PacketData)
	p.SetChipID(chipid)
	p.SetChannelID(5)
	p.SetTimestamp(0xffff00)
	p.SetDataword(0x155)
	p.SetFIFOFullFlag(1)
	p.SetParity()
	return p
}

func TestEmbedExtractRoundTrip(t *testing.T) {
	for _, start := range []int{0, 1, 7, 100, pio.BufferSize - FrameLength(1)} {
		var data pio.Data
		data.InitHigh()

		p := testPacket(0x42)
		err := Embed(&p, &data, 1, start, 1)
		if err != nil {
			t.Fatalf("start=%d: could not embed packet: %+v", start, err)
		}

		got, err := Extract(&data, 1, start)
		if err != nil {
			t.Fatalf("start=%d: could not extract packet: %+v", start, err)
		}
		if !reflect.DeepEqual(got, p) {
			t.Fatalf("start=%d: invalid embed/extract round-trip:\ngot= %v\nwant=%v",
				start, got.Bits(), p.Bits())
		}
		if !got.CheckParity() {
			t.Fatalf("start=%d: parity lost in transit", start)
		}
	}
}

func TestEmbedFrame(t *testing.T) {
	const start = 10
	var data pio.Data
	data.InitHigh()

	p := testPacket(0x42)
	err := Embed(&p, &data, 0, start, 1)
	if err != nil {
		t.Fatalf("could not embed packet: %+v", err)
	}

	if got := data.Bit(0, start); got != 0 {
		t.Fatalf("start bit: got=%d, want=0", got)
	}
	if got := data.Bit(0, start+1+NumBits); got != 1 {
		t.Fatalf("stop bit: got=%d, want=1", got)
	}
	for i := 0; i < start; i++ {
		if got := data.Bit(0, i); got != 1 {
			t.Fatalf("bit %d before frame: got=%d, want=1 (untouched)", i, got)
		}
	}
}

func TestEmbedDilation(t *testing.T) {
	const start = 3
	var data pio.Data
	data.InitHigh()

	p := testPacket(0x42)
	err := Embed(&p, &data, 0, start, ClockDilation)
	if err != nil {
		t.Fatalf("could not embed packet: %+v", err)
	}

	// every sample of the frame is its bit held ClockDilation times.
	frame := append([]uint8{0}, p.Bits()...)
	frame = append(frame, 1)
	for i, bit := range frame {
		for j := 0; j < ClockDilation; j++ {
			pos := start + ClockDilation*i + j
			if got := data.Bit(0, pos); got != bit {
				t.Fatalf("sample %d: got=%d, want=%d", pos, got, bit)
			}
		}
	}
}

func TestEmbedInsufficientSpace(t *testing.T) {
	for _, tc := range []struct {
		name     string
		start    int
		dilation int
	}{
		{name: "undilated", start: pio.BufferSize - FrameLength(1) + 1, dilation: 1},
		{name: "dilated", start: pio.BufferSize - FrameLength(ClockDilation) + 1, dilation: ClockDilation},
		{name: "negative", start: -1, dilation: 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var data pio.Data
			data.InitLow()

			p := testPacket(0x42)
			err := Embed(&p, &data, 0, tc.start, tc.dilation)
			if err == nil {
				t.Fatalf("expected an error")
			}
			if !xerrors.Is(err, ErrInsufficientSpace) {
				t.Fatalf("invalid error: got=%+v, want=%+v", err, ErrInsufficientSpace)
			}
			// the buffer must be left untouched.
			for i, v := range data.Bitstream(0, pio.BufferSize) {
				if v != 0 {
					t.Fatalf("bit %d modified after failed embed", i)
				}
			}
		})
	}
}

func TestExtractInsufficientSpace(t *testing.T) {
	var data pio.Data
	_, err := Extract(&data, 0, pio.BufferSize-FrameLength(1)+1)
	if err == nil {
		t.Fatalf("expected an error")
	}
	if !xerrors.Is(err, ErrInsufficientSpace) {
		t.Fatalf("invalid error: got=%+v, want=%+v", err, ErrInsufficientSpace)
	}
}

func TestCodec(t *testing.T) {
	var data pio.Data
	data.InitHigh()

	pkts := []Packet{
		testPacket(1),
		testPacket(2),
		testPacket(120),
	}

	enc := NewEncoder(&data, 3, 1)
	for i := range pkts {
		if err := enc.Encode(&pkts[i]); err != nil {
			t.Fatalf("packet %d: could not encode: %+v", i, err)
		}
	}
	if got, want := enc.Pos(), len(pkts)*FrameLength(1); got != want {
		t.Fatalf("encoder position: got=%d, want=%d", got, want)
	}

	dec := NewDecoder(&data, 3)
	for i := range pkts {
		var got Packet
		if err := dec.Decode(&got); err != nil {
			t.Fatalf("packet %d: could not decode: %+v", i, err)
		}
		if !reflect.DeepEqual(got, pkts[i]) {
			t.Fatalf("packet %d: invalid codec round-trip:\ngot= %v\nwant=%v",
				i, got.Bits(), pkts[i].Bits())
		}
	}
}

func TestEncoderStickyError(t *testing.T) {
	var data pio.Data
	p := testPacket(0x42)

	enc := NewEncoder(&data, 0, ClockDilation)
	var err error
	for i := 0; i < pio.BufferSize; i++ {
		err = enc.Encode(&p)
		if err != nil {
			break
		}
	}
	if err == nil {
		t.Fatalf("expected an error")
	}
	if !xerrors.Is(err, ErrInsufficientSpace) {
		t.Fatalf("invalid error: got=%+v, want=%+v", err, ErrInsufficientSpace)
	}
	if got := enc.Encode(&p); got != err {
		t.Fatalf("error did not stick: got=%+v, want=%+v", got, err)
	}
}
