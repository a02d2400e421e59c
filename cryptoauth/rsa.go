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

// Package cryptoauth implements the long-term-identity cryptography the
// handshake layer depends on: RSA-2048/SHA-256 signing for mutual
// authentication, and AES-128-CBC for the encrypted auth blob each side
// sends over its ephemeral DH-derived key. Grounded on the RS256 key-pair
// implementation the rest of the stack uses for agent identities.
package cryptoauth

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"

	"safecloud.example/safecloud/errs"
)

// KeyBits is the required RSA modulus size.
const KeyBits = 2048

// SigningKey wraps an RSA-2048 private key for RS256 sign/verify.
type SigningKey struct {
	Private *rsa.PrivateKey
}

// GenerateSigningKey creates a fresh RSA-2048 key pair, used by tests and by
// bootstrap tooling; production identities are normally decoded from PEM via
// DecodePrivateKeyPEM.
func GenerateSigningKey() (*SigningKey, error) {
	priv, err := rsa.GenerateKey(rand.Reader, KeyBits)
	if err != nil {
		return nil, errs.Wrap(errs.KindInternalError, "generating RSA signing key", err)
	}
	return &SigningKey{Private: priv}, nil
}

// Sign produces an RS256 signature (PKCS#1 v1.5 over SHA-256) of message.
func (k *SigningKey) Sign(message []byte) ([]byte, error) {
	hash := sha256.Sum256(message)
	sig, err := rsa.SignPKCS1v15(rand.Reader, k.Private, crypto.SHA256, hash[:])
	if err != nil {
		return nil, errs.Wrap(errs.KindInternalError, "RS256 signing failed", err)
	}
	return sig, nil
}

// PublicKey returns the corresponding RSA public key.
func (k *SigningKey) PublicKey() *rsa.PublicKey {
	return &k.Private.PublicKey
}

// Verify checks an RS256 signature of message against pub. A mismatch or
// malformed signature is reported as a handshake authentication failure,
// matching the severity the handshake layer expects.
func Verify(pub *rsa.PublicKey, message, signature []byte) error {
	hash := sha256.Sum256(message)
	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, hash[:], signature); err != nil {
		return errs.Wrap(errs.KindHandshakeAuthFailed, "RS256 signature verification failed", err)
	}
	return nil
}
