// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package aead

import "encoding/binary"

// blockSize is the GF(2^128) block size used throughout GHASH.
const blockSize = 16

// gfMul multiplies X and Y in GF(2^128) per NIST SP 800-38D Algorithm 1,
// treating both as 128-bit big-endian blocks (bit 0 is the MSB of X[0]).
func gfMul(x, y [blockSize]byte) [blockSize]byte {
	var z, v [blockSize]byte
	v = y

	for i := 0; i < 128; i++ {
		byteIdx := i / 8
		bitIdx := 7 - uint(i%8)
		if (x[byteIdx]>>bitIdx)&1 == 1 {
			for j := range z {
				z[j] ^= v[j]
			}
		}

		lsbSet := v[15]&1 == 1
		// v >>= 1 (as a 128-bit big-endian integer)
		for j := 15; j > 0; j-- {
			v[j] = (v[j] >> 1) | (v[j-1] << 7)
		}
		v[0] >>= 1
		if lsbSet {
			v[0] ^= 0xe1
		}
	}
	return z
}

// ghash is an incremental GHASH accumulator: repeated absorb() calls may
// split input at arbitrary byte boundaries, not just 16-byte blocks.
type ghash struct {
	h       [blockSize]byte
	y       [blockSize]byte
	pending []byte
}

func newGHASH(h [blockSize]byte) *ghash {
	return &ghash{h: h}
}

func (g *ghash) absorb(data []byte) {
	g.pending = append(g.pending, data...)
	for len(g.pending) >= blockSize {
		var block [blockSize]byte
		copy(block[:], g.pending[:blockSize])
		g.absorbBlock(block)
		g.pending = g.pending[blockSize:]
	}
}

// endField pads any remaining partial block with zeros and absorbs it;
// call once all data for the current field (AAD, then separately
// ciphertext) has been written, since GCM pads each field independently.
func (g *ghash) endField() {
	if len(g.pending) == 0 {
		return
	}
	var block [blockSize]byte
	copy(block[:], g.pending)
	g.absorbBlock(block)
	g.pending = nil
}

func (g *ghash) absorbBlock(block [blockSize]byte) {
	var x [blockSize]byte
	for i := range x {
		x[i] = g.y[i] ^ block[i]
	}
	g.y = gfMul(x, g.h)
}

// absorbLengths absorbs the final 128-bit block encoding bit-lengths of the
// AAD and ciphertext, per the GCM spec, and returns the resulting GHASH tag.
func (g *ghash) absorbLengths(aadLen, ctLen int) [blockSize]byte {
	g.endField()
	var lenBlock [blockSize]byte
	binary.BigEndian.PutUint64(lenBlock[0:8], uint64(aadLen)*8)
	binary.BigEndian.PutUint64(lenBlock[8:16], uint64(ctLen)*8)
	g.absorbBlock(lenBlock)
	return g.y
}
