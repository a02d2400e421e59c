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

package dh

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safecloud.example/safecloud/errs"
)

func TestGenerateKeyPairProducesValidPublic(t *testing.T) {
	kp, err := GenerateKeyPair()
	require.NoError(t, err)
	require.NotNil(t, kp.Public)
	assert.NoError(t, ValidatePublic(kp.Public))
}

func TestSharedSecretAgreement(t *testing.T) {
	alice, err := GenerateKeyPair()
	require.NoError(t, err)
	bob, err := GenerateKeyPair()
	require.NoError(t, err)

	aliceSecret, err := alice.SharedSecret(bob.Public)
	require.NoError(t, err)
	bobSecret, err := bob.SharedSecret(alice.Public)
	require.NoError(t, err)

	assert.Equal(t, aliceSecret, bobSecret)
}

func TestPublicBytesRoundTrip(t *testing.T) {
	kp, err := GenerateKeyPair()
	require.NoError(t, err)

	encoded := kp.PublicBytes()
	decoded := DecodePublic(encoded)
	assert.Equal(t, 0, kp.Public.Cmp(decoded))
}

func TestValidatePublicRejectsDegenerateValues(t *testing.T) {
	assert.Error(t, ValidatePublic(nil))

	err := ValidatePublic(big.NewInt(0))
	assert.True(t, errs.Is(err, errs.KindHandshakeInvalidPubKey))

	err = ValidatePublic(big.NewInt(1))
	assert.True(t, errs.Is(err, errs.KindHandshakeInvalidPubKey))

	pMinus1 := new(big.Int).Sub(p, big.NewInt(1))
	err = ValidatePublic(pMinus1)
	assert.True(t, errs.Is(err, errs.KindHandshakeInvalidPubKey))
}

func TestValidatePublicAcceptsGenerator(t *testing.T) {
	assert.NoError(t, ValidatePublic(g))
}

func TestZeroClearsPrivateExponent(t *testing.T) {
	kp, err := GenerateKeyPair()
	require.NoError(t, err)
	kp.Zero()
	assert.Equal(t, 0, kp.private.Sign())
}

func TestPublicBytesAreFixedWidth(t *testing.T) {
	kp, err := GenerateKeyPair()
	require.NoError(t, err)
	encoded := kp.PublicBytes()
	assert.Len(t, encoded, PubKeySize)
}
