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

package cryptoauth

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safecloud.example/safecloud/errs"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	key, err := GenerateSigningKey()
	require.NoError(t, err)

	msg := []byte("client-hello-transcript")
	sig, err := key.Sign(msg)
	require.NoError(t, err)

	assert.NoError(t, Verify(key.PublicKey(), msg, sig))
}

func TestVerifyRejectsTamperedMessage(t *testing.T) {
	key, err := GenerateSigningKey()
	require.NoError(t, err)

	sig, err := key.Sign([]byte("original"))
	require.NoError(t, err)

	err = Verify(key.PublicKey(), []byte("tampered"), sig)
	assert.True(t, errs.Is(err, errs.KindHandshakeAuthFailed))
}

func TestPrivateKeyPEMRoundTrip(t *testing.T) {
	key, err := GenerateSigningKey()
	require.NoError(t, err)

	pemBytes := EncodePrivateKeyPEM(key.Private)
	decoded, err := DecodePrivateKeyPEM(pemBytes)
	require.NoError(t, err)
	assert.Equal(t, 0, key.Private.N.Cmp(decoded.N))
}

func TestPublicKeyPEMRoundTrip(t *testing.T) {
	key, err := GenerateSigningKey()
	require.NoError(t, err)

	pemBytes, err := EncodePublicKeyPEM(key.PublicKey())
	require.NoError(t, err)
	decoded, err := DecodePublicKeyPEM(pemBytes)
	require.NoError(t, err)
	assert.Equal(t, 0, key.PublicKey().N.Cmp(decoded.N))
}

func TestCBCEncryptDecryptRoundTrip(t *testing.T) {
	var key [CBCKeySize]byte
	var ivBytes [CBCIVSize]byte
	_, err := rand.Read(key[:])
	require.NoError(t, err)
	_, err = rand.Read(ivBytes[:])
	require.NoError(t, err)

	plaintext := []byte("safecloud-auth-blob-username-and-nonce")
	ciphertext, err := EncryptCBC(key, ivBytes, plaintext)
	require.NoError(t, err)
	assert.Equal(t, 0, len(ciphertext)%16)

	recovered, err := DecryptCBC(key, ivBytes, ciphertext)
	require.NoError(t, err)
	assert.Equal(t, plaintext, recovered)
}

func TestCBCDecryptRejectsBadPadding(t *testing.T) {
	var key [CBCKeySize]byte
	var ivBytes [CBCIVSize]byte
	_, err := rand.Read(key[:])
	require.NoError(t, err)
	_, err = rand.Read(ivBytes[:])
	require.NoError(t, err)

	ciphertext, err := EncryptCBC(key, ivBytes, []byte("valid plaintext"))
	require.NoError(t, err)
	ciphertext[len(ciphertext)-1] ^= 0xFF

	_, err = DecryptCBC(key, ivBytes, ciphertext)
	assert.True(t, errs.Is(err, errs.KindHandshakeAuthFailed))
}

func TestCBCDecryptRejectsUnalignedCiphertext(t *testing.T) {
	var key [CBCKeySize]byte
	var ivBytes [CBCIVSize]byte

	_, err := DecryptCBC(key, ivBytes, []byte{0x01, 0x02, 0x03})
	assert.True(t, errs.Is(err, errs.KindHandshakeAuthFailed))
}
