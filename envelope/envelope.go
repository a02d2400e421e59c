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

// Package envelope implements the session envelope: every session message,
// once the handshake has produced a key, travels as
// {wrap_len:u16}{AES-128-GCM ciphertext}{tag:16B} with wrap_len itself bound
// in as the AEAD's additional authenticated data.
package envelope

import (
	"encoding/binary"

	"safecloud.example/safecloud/aead"
	"safecloud.example/safecloud/errs"
	"safecloud.example/safecloud/framing"
)

// Overhead is the envelope's fixed byte cost beyond the plaintext: the
// two-byte wrap_len prefix plus the sixteen-byte GCM tag.
const Overhead = 2 + aead.TagSize

// Wrap encrypts plaintext (one decrypted session message) and sends it as a
// single framed envelope over f. Each call binds the connection's AEAD
// manager through exactly one Encrypt{Init,AAD,Data,Final} sequence,
// advancing the shared IV by one.
func Wrap(f *framing.Framer, mgr *aead.Manager, plaintext []byte) error {
	wrapLen := uint16(2 + len(plaintext) + aead.TagSize)
	var aad [2]byte
	binary.BigEndian.PutUint16(aad[:], wrapLen)

	if err := mgr.EncryptInit(); err != nil {
		return err
	}
	if err := mgr.EncryptAAD(aad[:]); err != nil {
		return err
	}
	ciphertext := make([]byte, len(plaintext))
	if len(plaintext) > 0 {
		if _, err := mgr.EncryptData(append([]byte(nil), plaintext...), ciphertext); err != nil {
			return err
		}
	}
	var tag [aead.TagSize]byte
	if _, err := mgr.EncryptFinal(&tag); err != nil {
		return err
	}

	frame := make([]byte, 0, wrapLen)
	frame = append(frame, aad[:]...)
	frame = append(frame, ciphertext...)
	frame = append(frame, tag[:]...)
	return f.Send(frame)
}

// Unwrap reads one framed envelope from f, decrypts it, and returns the
// plaintext session message. A tag failure is session-recoverable per spec
// §4.5(c): decryption still bumps the IV exactly once, symmetrically with
// the sender, so the two sides never desynchronize even on a bad tag.
func Unwrap(f *framing.Framer, mgr *aead.Manager) ([]byte, error) {
	var lenBuf [2]byte
	if n, err := readFull(f, lenBuf[:]); err != nil {
		return nil, err
	} else if n != 2 {
		return nil, errs.New(errs.KindInvalidLength, "short envelope length prefix")
	}
	wrapLen := binary.BigEndian.Uint16(lenBuf[:])
	if int(wrapLen) < Overhead {
		return nil, errs.New(errs.KindInvalidLength, "envelope shorter than fixed overhead")
	}

	body := make([]byte, int(wrapLen)-2)
	if _, err := readFull(f, body); err != nil {
		return nil, err
	}
	ciphertext := body[:len(body)-aead.TagSize]
	var tag [aead.TagSize]byte
	copy(tag[:], body[len(body)-aead.TagSize:])

	if err := mgr.DecryptInit(); err != nil {
		return nil, err
	}
	if err := mgr.DecryptAAD(lenBuf[:]); err != nil {
		return nil, err
	}
	plaintext := make([]byte, len(ciphertext))
	if len(ciphertext) > 0 {
		if _, err := mgr.DecryptData(ciphertext, plaintext); err != nil {
			return nil, err
		}
	}
	if err := mgr.DecryptFinal(tag); err != nil {
		return nil, err
	}
	return plaintext, nil
}

func readFull(f *framing.Framer, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := f.ReadRaw(buf[total:])
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
