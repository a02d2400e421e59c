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
	"crypto/aes"
	"crypto/cipher"

	"safecloud.example/safecloud/errs"
)

// CBCKeySize and CBCIVSize are the AES-128-CBC parameters the handshake's
// auth blob uses: the DH-derived key truncated to 16 bytes, and the
// connection's own shared IV (never carried alongside the ciphertext; see
// stsm.encryptAuthBlob).
const (
	CBCKeySize = 16
	CBCIVSize  = 16
)

// EncryptCBC PKCS#7-pads plaintext and encrypts it under AES-128-CBC with
// the given key and IV.
func EncryptCBC(key [CBCKeySize]byte, iv [CBCIVSize]byte, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, errs.Wrap(errs.KindInternalError, "creating AES cipher", err)
	}
	padded := pkcs7Pad(plaintext, aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv[:]).CryptBlocks(out, padded)
	return out, nil
}

// DecryptCBC reverses EncryptCBC, validating and stripping the PKCS#7
// padding. A malformed pad is reported as a handshake authentication
// failure: the auth blob never legitimately decrypts to bad padding unless
// the peer used the wrong key.
func DecryptCBC(key [CBCKeySize]byte, iv [CBCIVSize]byte, ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, errs.Wrap(errs.KindInternalError, "creating AES cipher", err)
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, errs.New(errs.KindHandshakeAuthFailed, "auth blob ciphertext is not block-aligned")
	}
	out := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv[:]).CryptBlocks(out, ciphertext)
	return pkcs7Unpad(out)
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padLen)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}
	return padded
}

func pkcs7Unpad(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, errs.New(errs.KindHandshakeAuthFailed, "empty plaintext has no padding")
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > len(data) {
		return nil, errs.New(errs.KindHandshakeAuthFailed, "invalid PKCS#7 padding length")
	}
	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, errs.New(errs.KindHandshakeAuthFailed, "invalid PKCS#7 padding bytes")
		}
	}
	return data[:len(data)-padLen], nil
}
