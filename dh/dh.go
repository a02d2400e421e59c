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

// Package dh implements classical (finite-field) Diffie-Hellman key
// exchange over RFC 5114's "2048-bit MODP Group with 256-bit Prime Order
// Subgroup" (the group the handshake's ephemeral keys use). No pack
// dependency offers non-elliptic-curve DH, and Go's standard library
// dropped crypto/dh entirely, so the fixed-group modular exponentiation is
// implemented directly against math/big.
package dh

import (
	"crypto/rand"
	"math/big"

	"safecloud.example/safecloud/errs"
)

// PubKeySize is the encoded size of a public key: the group modulus p is
// exactly 2048 bits (256 bytes).
const PubKeySize = 256

var (
	p = mustBigFromHex(rfc5114P)
	g = mustBigFromHex(rfc5114G)
	q = mustBigFromHex(rfc5114Q) // order of the 256-bit prime-order subgroup
)

func mustBigFromHex(hexDigits string) *big.Int {
	n, ok := new(big.Int).SetString(hexDigits, 16)
	if !ok {
		panic("dh: invalid embedded RFC 5114 constant")
	}
	return n
}

// KeyPair is one peer's ephemeral DH key pair for a single connection.
type KeyPair struct {
	private *big.Int
	Public  *big.Int
}

// GenerateKeyPair draws a private exponent from [2, q-1] and computes the
// corresponding public value g^x mod p, per RFC 5114 ss. 2.3.
func GenerateKeyPair() (*KeyPair, error) {
	// q-2 bounds the random range so the result, after +2, stays in [2, q-1].
	upper := new(big.Int).Sub(q, big.NewInt(2))
	x, err := rand.Int(rand.Reader, upper)
	if err != nil {
		return nil, errs.Wrap(errs.KindInternalError, "generating DH private key", err)
	}
	x.Add(x, big.NewInt(2))

	pub := new(big.Int).Exp(g, x, p)
	return &KeyPair{private: x, Public: pub}, nil
}

// PublicBytes encodes the public value as a fixed-width, big-endian
// PubKeySize-byte string (left-padded with zeros), the form carried on the
// wire inside the PEM envelope.
func (k *KeyPair) PublicBytes() [PubKeySize]byte {
	return encodeFixed(k.Public)
}

// SharedSecret validates the peer's public value is in [2, p-2] and
// computes peerPublic^x mod p, returned as a fixed-width big-endian byte
// string ready for SHA-256 truncation into the session key.
func (k *KeyPair) SharedSecret(peerPublic *big.Int) ([PubKeySize]byte, error) {
	if err := ValidatePublic(peerPublic); err != nil {
		return [PubKeySize]byte{}, err
	}
	secret := new(big.Int).Exp(peerPublic, k.private, p)
	return encodeFixed(secret), nil
}

// Zero clears the private exponent, called once key derivation completes.
func (k *KeyPair) Zero() {
	if k.private != nil {
		k.private.SetInt64(0)
	}
}

// ValidatePublic rejects degenerate peer public keys (0, 1, p-1) that would
// make the shared secret trivially guessable.
func ValidatePublic(pub *big.Int) error {
	if pub == nil {
		return errs.New(errs.KindHandshakeInvalidPubKey, "nil DH public key")
	}
	two := big.NewInt(2)
	pMinus2 := new(big.Int).Sub(p, two)
	if pub.Cmp(two) < 0 || pub.Cmp(pMinus2) > 0 {
		return errs.New(errs.KindHandshakeInvalidPubKey, "DH public key out of range")
	}
	return nil
}

// DecodePublic parses a fixed-width big-endian public key as received on
// the wire.
func DecodePublic(b [PubKeySize]byte) *big.Int {
	return new(big.Int).SetBytes(b[:])
}

func encodeFixed(n *big.Int) [PubKeySize]byte {
	var out [PubKeySize]byte
	b := n.Bytes()
	copy(out[PubKeySize-len(b):], b)
	return out
}
