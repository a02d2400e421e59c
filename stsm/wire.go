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

package stsm

import (
	"encoding/pem"
	"math/big"

	"safecloud.example/safecloud/dh"
	"safecloud.example/safecloud/errs"
	"safecloud.example/safecloud/iv"
)

// fixedPubBytes encodes a DH public value as a fixed dh.PubKeySize-byte
// big-endian string, the form the handshake transcript binds into its
// signature (Yc‖Ys).
func fixedPubBytes(pub *big.Int) []byte {
	var fixed [dh.PubKeySize]byte
	b := pub.Bytes()
	copy(fixed[dh.PubKeySize-len(b):], b)
	return fixed[:]
}

func encodeDHPublic(pub *big.Int) []byte {
	var fixed [dh.PubKeySize]byte
	b := pub.Bytes()
	copy(fixed[dh.PubKeySize-len(b):], b)
	return pem.EncodeToMemory(&pem.Block{Type: "DH PUBLIC KEY", Bytes: fixed[:]})
}

func decodeDHPublic(data []byte) (*big.Int, error) {
	block, _ := pem.Decode(data)
	if block == nil || block.Type != "DH PUBLIC KEY" || len(block.Bytes) != dh.PubKeySize {
		return nil, errs.New(errs.KindMalformedMessage, "malformed DH public key field")
	}
	var fixed [dh.PubKeySize]byte
	copy(fixed[:], block.Bytes)
	return dh.DecodePublic(fixed), nil
}

// encodeClientHello builds ClientHello's body: PEM-encoded ephemeral DH
// public key followed by the 16-byte initial connection IV.
func encodeClientHello(pub *big.Int, initialIV [iv.Size]byte) []byte {
	out := append([]byte{}, encodeDHPublic(pub)...)
	out = append(out, initialIV[:]...)
	return out
}

func decodeClientHello(body []byte) (*big.Int, [iv.Size]byte, error) {
	var ivBytes [iv.Size]byte
	if len(body) <= iv.Size {
		return nil, ivBytes, errs.New(errs.KindMalformedMessage, "ClientHello payload too short")
	}
	pemPart := body[:len(body)-iv.Size]
	copy(ivBytes[:], body[len(body)-iv.Size:])
	pub, err := decodeDHPublic(pemPart)
	if err != nil {
		return nil, ivBytes, err
	}
	return pub, ivBytes, nil
}

// authSize is the auth field's fixed wire size: a 256-byte RSA-2048
// signature, AES-128-CBC/PKCS#7 encrypted. 256 is an exact multiple of the
// cipher's 16-byte block size, so PKCS#7 always adds one full padding
// block, making the ciphertext exactly 256+16 = 272 bytes on every message.
// There is no room in this field for a length prefix or an embedded IV; the
// CBC IV is the connection's own shared IV (see encryptAuthBlob), never
// carried on the wire here.
const authSize = 272

// srvAuthPayload is SrvAuth's body: PEM DH public key, the fixed-size
// AES-128-CBC encrypted signature blob, and the server's X.509 certificate.
type srvAuthPayload struct {
	pub     *big.Int
	authEnc [authSize]byte
	cert    []byte
}

func encodeSrvAuth(p srvAuthPayload) []byte {
	out := append([]byte{}, encodeDHPublic(p.pub)...)
	out = append(out, p.authEnc[:]...)
	out = append(out, p.cert...)
	return out
}

func decodeSrvAuth(body []byte) (srvAuthPayload, error) {
	var out srvAuthPayload
	pemEnd := findPEMEnd(body)
	if pemEnd < 0 {
		return out, errs.New(errs.KindMalformedMessage, "SrvAuth missing DH public key block")
	}
	pub, err := decodeDHPublic(body[:pemEnd])
	if err != nil {
		return out, err
	}
	rest := body[pemEnd:]
	if len(rest) < authSize {
		return out, errs.New(errs.KindMalformedMessage, "SrvAuth truncated auth blob")
	}
	out.pub = pub
	copy(out.authEnc[:], rest[:authSize])
	out.cert = append([]byte{}, rest[authSize:]...)
	return out, nil
}

// cliAuthPayload is CliAuth's body: the client username (fixed upper bound,
// NUL-padded) and the fixed-size AES-128-CBC encrypted signature blob.
type cliAuthPayload struct {
	username string
	authEnc  [authSize]byte
}

func encodeCliAuth(p cliAuthPayload) []byte {
	var nameField [NameMax + 1]byte
	copy(nameField[:], p.username)
	out := append([]byte{}, nameField[:]...)
	out = append(out, p.authEnc[:]...)
	return out
}

func decodeCliAuth(body []byte) (cliAuthPayload, error) {
	var out cliAuthPayload
	if len(body) < NameMax+1+authSize {
		return out, errs.New(errs.KindMalformedMessage, "CliAuth payload too short")
	}
	nameField := body[:NameMax+1]
	end := 0
	for end < len(nameField) && nameField[end] != 0 {
		end++
	}
	out.username = string(nameField[:end])
	copy(out.authEnc[:], body[NameMax+1:NameMax+1+authSize])
	return out, nil
}

// findPEMEnd locates the end of the first PEM block in data (the "-----END"
// trailer line plus its newline), used to split a message body into its PEM
// prefix and the fields that follow it.
func findPEMEnd(data []byte) int {
	const marker = "-----END DH PUBLIC KEY-----"
	idx := indexOf(data, []byte(marker))
	if idx < 0 {
		return -1
	}
	end := idx + len(marker)
	if end < len(data) && data[end] == '\n' {
		end++
	}
	return end
}

func indexOf(haystack, needle []byte) int {
	if len(needle) == 0 || len(haystack) < len(needle) {
		return -1
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
