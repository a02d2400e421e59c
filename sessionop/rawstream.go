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

package sessionop

import (
	"io"

	"safecloud.example/safecloud/aead"
	"safecloud.example/safecloud/errs"
)

// rawSend reads exactly size bytes from src, encrypting and sending each
// chunk as it goes (secondary buffer = plaintext source, primary buffer =
// ciphertext sink per spec §4.7), then sends the trailing 16-byte tag raw.
// One call is exactly one EncryptInit..EncryptFinal sequence.
func (c *Channel) rawSend(src io.Reader, size int64) error {
	if err := c.Mgr.EncryptInit(); err != nil {
		return err
	}
	if err := c.Mgr.EncryptAAD(nil); err != nil {
		return err
	}

	buf := make([]byte, RawChunkSize)
	out := make([]byte, RawChunkSize)
	var remaining = size
	for remaining > 0 {
		n := int64(len(buf))
		if remaining < n {
			n = remaining
		}
		read, err := io.ReadFull(src, buf[:n])
		if err != nil {
			return errs.Wrap(errs.KindFileReadFailed, "reading file contents for upload/list body", err)
		}
		if _, err := c.Mgr.EncryptData(buf[:read], out[:read]); err != nil {
			return err
		}
		if err := c.Framer.Send(out[:read]); err != nil {
			return err
		}
		remaining -= int64(read)
	}

	var tag [aead.TagSize]byte
	if _, err := c.Mgr.EncryptFinal(&tag); err != nil {
		return err
	}
	return c.Framer.Send(tag[:])
}

// rawReceive mirrors rawSend: reads exactly size ciphertext bytes plus the
// trailing tag, decrypting into dst and verifying only once the whole
// stream and tag have arrived.
func (c *Channel) rawReceive(dst io.Writer, size int64) error {
	if err := c.Mgr.DecryptInit(); err != nil {
		return err
	}
	if err := c.Mgr.DecryptAAD(nil); err != nil {
		return err
	}

	in := make([]byte, RawChunkSize)
	out := make([]byte, RawChunkSize)
	var remaining = size
	for remaining > 0 {
		want := len(in)
		if int64(want) > remaining {
			want = int(remaining)
		}
		n, err := c.Framer.ReadRaw(in[:want])
		if err != nil {
			return err
		}
		if _, err := c.Mgr.DecryptData(in[:n], out[:n]); err != nil {
			return err
		}
		if _, err := dst.Write(out[:n]); err != nil {
			return errs.Wrap(errs.KindFileWriteFailed, "writing received file contents", err)
		}
		remaining -= int64(n)
	}

	var tag [aead.TagSize]byte
	if _, err := readExact(c, tag[:]); err != nil {
		return err
	}
	return c.Mgr.DecryptFinal(tag)
}

func readExact(c *Channel, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := c.Framer.ReadRaw(buf[total:])
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
