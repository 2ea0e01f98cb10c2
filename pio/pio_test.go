// Copyright 2026 The larpix-control Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pio

import (
	"bytes"
	"testing"
)

func TestInitHigh(t *testing.T) {
	var d Data
	d.InitHigh()
	for pin := 0; pin < NumPins; pin++ {
		for i, v := range d.bits[pin] {
			if v != 1 {
				t.Fatalf("pin %d bit %d: got=%d, want=1", pin, i, v)
			}
		}
	}
}

func TestInitLow(t *testing.T) {
	var d Data
	d.InitHigh()
	d.InitLow()
	for pin := 0; pin < NumPins; pin++ {
		for i, v := range d.bits[pin] {
			if v != 0 {
				t.Fatalf("pin %d bit %d: got=%d, want=0", pin, i, v)
			}
		}
	}
}

func TestSetClk(t *testing.T) {
	var d Data
	d.SetClk(2)
	for i, v := range d.bits[2] {
		if got, want := v, uint8(i&1); got != want {
			t.Fatalf("bit %d: got=%d, want=%d", i, got, want)
		}
	}
}

func TestPack(t *testing.T) {
	var d Data
	d.InitLow()
	d.SetClk(1)
	arr := d.Pack(BufferSize)
	for i, v := range arr {
		if got, want := v, byte((i%2)*2); got != want {
			t.Fatalf("byte %d: got=%d, want=%d", i, got, want)
		}
	}
}

func TestUnpack(t *testing.T) {
	var d Data
	arr := make([]byte, BufferSize)
	for i := range arr {
		arr[i] = byte(i % 0x100)
	}
	d.Unpack(arr)
	for i := range arr {
		for pin := 0; pin < NumPins; pin++ {
			if got, want := d.bits[pin][i], uint8((i>>pin)&1); got != want {
				t.Fatalf("pin %d bit %d: got=%d, want=%d", pin, i, got, want)
			}
		}
	}
}

func TestPackRoundTrip(t *testing.T) {
	arr := make([]byte, BufferSize)
	for i := range arr {
		arr[i] = byte((i * 37) % 0x100)
	}

	var d Data
	d.Unpack(arr)
	if got, want := d.Pack(BufferSize), arr; !bytes.Equal(got, want) {
		t.Fatalf("invalid pack/unpack round-trip:\ngot= %v\nwant=%v", got[:16], want[:16])
	}
}

func TestSetBitstream(t *testing.T) {
	var d Data
	d.InitHigh()
	bits := make([]uint8, 100)
	for i := range bits {
		bits[i] = uint8((i & 8) >> 3)
	}
	d.SetBitstream(2, bits)

	for i := 0; i < 100; i++ {
		if got, want := d.bits[2][i], bits[i]; got != want {
			t.Fatalf("bit %d: got=%d, want=%d", i, got, want)
		}
	}
	for i := 100; i < BufferSize; i++ {
		if got := d.bits[2][i]; got != 1 {
			t.Fatalf("bit %d: got=%d, want=1 (untouched)", i, got)
		}
	}
	for _, pin := range []int{1, 3} {
		for i := 0; i < BufferSize; i++ {
			if got := d.bits[pin][i]; got != 1 {
				t.Fatalf("pin %d bit %d: got=%d, want=1 (untouched)", pin, i, got)
			}
		}
	}
}

func TestSetBitstreamNormalize(t *testing.T) {
	var d Data
	d.SetBitstream(0, []uint8{0, 1, 2, 0xff, 0})
	want := []uint8{0, 1, 1, 1, 0}
	if got := d.Bitstream(0, len(want)); !bytes.Equal(got, want) {
		t.Fatalf("invalid normalization: got=%v, want=%v", got, want)
	}
}

func TestSetBitstreamTruncate(t *testing.T) {
	var d Data
	bits := make([]uint8, BufferSize+100)
	for i := range bits {
		bits[i] = 1
	}
	d.SetBitstream(0, bits) // must not index past capacity
	for i := 0; i < BufferSize; i++ {
		if got := d.bits[0][i]; got != 1 {
			t.Fatalf("bit %d: got=%d, want=1", i, got)
		}
	}
}

func TestGetBitstream(t *testing.T) {
	var d Data
	d.InitHigh()
	bits := make([]uint8, 100)
	for i := range bits {
		bits[i] = uint8((i & 8) >> 3)
	}
	d.SetBitstream(2, bits)

	if got := d.Bitstream(1, BufferSize); !allEqual(got, 1) {
		t.Fatalf("pin 1: got=%v, want all-1", got[:16])
	}
	got := d.Bitstream(2, 100)
	if !bytes.Equal(got, bits) {
		t.Fatalf("pin 2: got=%v, want=%v", got[:16], bits[:16])
	}
	if got := d.Bitstream(2, BufferSize+100); len(got) != BufferSize {
		t.Fatalf("length not clamped: got=%d, want=%d", len(got), BufferSize)
	}
}

func TestSetBit(t *testing.T) {
	var d Data
	d.SetBit(4, 100, 0xff) // nonzero normalized to 1
	if got := d.Bit(4, 100); got != 1 {
		t.Fatalf("got=%d, want=1", got)
	}
	d.SetBit(4, 100, 0)
	if got := d.Bit(4, 100); got != 0 {
		t.Fatalf("got=%d, want=0", got)
	}
}

func TestInvalidPin(t *testing.T) {
	for _, pin := range []int{-1, NumPins} {
		func() {
			defer func() {
				if recover() == nil {
					t.Fatalf("pin %d: expected a panic", pin)
				}
			}()
			var d Data
			d.SetClk(pin)
		}()
	}
}

func allEqual(bits []uint8, v uint8) bool {
	for _, b := range bits {
		if b != v {
			return false
		}
	}
	return true
}
