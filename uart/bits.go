// Copyright 2026 The larpix-control Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uart

// BitsToUint folds an LSB-first bitstream into an unsigned integer:
// bits[i] contributes bits[i]<<i. Nonzero entries count as 1.
//
// The accumulator is 64-bit wide so that 24-bit fields (timestamps)
// fold without truncation.
func BitsToUint(bits []uint8) uint64 {
	var v uint64
	for i, b := range bits {
		if b != 0 {
			v |= 1 << uint(i)
		}
	}
	return v
}

// UintToBits expands v into an LSB-first bitstream of n entries:
// bit i = (v >> i) & 1. Bits of v beyond n are dropped, matching
// hardware register truncation.
func UintToBits(v uint64, n int) []uint8 {
	bits := make([]uint8, n)
	for i := range bits {
		bits[i] = uint8((v >> uint(i)) & 1)
	}
	return bits
}
