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

package iv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProducesDistinctFixedParts(t *testing.T) {
	a, err := New()
	require.NoError(t, err)
	b, err := New()
	require.NoError(t, err)

	assert.NotEqual(t, a.Bytes(), b.Bytes())
	assert.Equal(t, uint64(0), a.Counter())
}

func TestBumpIncrementsCounterOnly(t *testing.T) {
	v, err := New()
	require.NoError(t, err)
	before := v.Bytes()

	v.Bump()
	after := v.Bytes()

	assert.Equal(t, before[:8], after[:8], "fixed part must not change")
	assert.Equal(t, uint64(1), v.Counter())
}

func TestAsCBCAndAsGCMViews(t *testing.T) {
	v, err := New()
	require.NoError(t, err)
	v.Bump()
	v.Bump()

	full := v.AsCBC()
	gcm := v.AsGCM()

	assert.Equal(t, full[Size-GCMSize:], gcm[:])
	assert.Len(t, gcm, GCMSize)
}

func TestFromBytesRoundTrip(t *testing.T) {
	v, err := New()
	require.NoError(t, err)
	v.Bump()
	v.Bump()
	v.Bump()

	encoded := v.Bytes()
	restored := FromBytes(encoded)

	assert.Equal(t, encoded, restored.Bytes())
	assert.Equal(t, v.Counter(), restored.Counter())
}

func TestBumpWraparoundAllowed(t *testing.T) {
	v := FromBytes([Size]byte{})
	// Force the counter to its maximum value via repeated doubling would be
	// slow; instead exercise wraparound directly through FromBytes.
	var maxBytes [Size]byte
	for i := 8; i < Size; i++ {
		maxBytes[i] = 0xFF
	}
	v = FromBytes(maxBytes)
	assert.Equal(t, ^uint64(0), v.Counter())

	v.Bump()
	assert.Equal(t, uint64(0), v.Counter())
}

func TestZeroClearsState(t *testing.T) {
	v, err := New()
	require.NoError(t, err)
	v.Bump()

	v.Zero()

	assert.Equal(t, [Size]byte{}, v.Bytes())
	assert.Equal(t, uint64(0), v.Counter())
}
