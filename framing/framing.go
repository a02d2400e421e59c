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

// Package framing implements length-prefixed message I/O over a stream
// socket, plus a raw byte-stream mode for the upload/download/list
// sub-phases. Discrete-message reads return one whole unit; raw reads never
// cross the caller-declared block boundary.
package framing

import (
	"encoding/binary"
	"io"
	"net"

	"safecloud.example/safecloud/errs"
)

// MsgMin is the smallest legal value of the two-byte length prefix: the
// header alone (length field + one type byte).
const MsgMin = 3

// PrimaryBufCapacity bounds both the largest frame this layer will accept
// and the largest single send() call.
const PrimaryBufCapacity = 1 << 20 // 1 MiB

// Framer reads and writes length-prefixed frames, or raw byte chunks, over
// one net.Conn. It is not safe for concurrent use.
type Framer struct {
	conn net.Conn
}

// New wraps conn for framed I/O.
func New(conn net.Conn) *Framer {
	return &Framer{conn: conn}
}

// ReadMessage blocks until one full length-prefixed frame has arrived and
// returns its payload (everything after the two-byte length prefix,
// including the type byte). PrimaryBufCapacity bounds the maximum frame.
func (f *Framer) ReadMessage() ([]byte, error) {
	var lenBuf [2]byte
	if err := f.readFull(lenBuf[:]); err != nil {
		return nil, err
	}
	length := int(binary.BigEndian.Uint16(lenBuf[:]))

	if length < MsgMin || length > PrimaryBufCapacity {
		return nil, errs.New(errs.KindInvalidLength, "frame length out of range")
	}

	body := make([]byte, length-2)
	if err := f.readFull(body); err != nil {
		return nil, err
	}
	return body, nil
}

// ReadRaw reads up to len(buf) bytes without imposing any framing
// structure; any nonzero read is reported upstream immediately. Callers
// (upload/download/list) track their own cumulative byte counts and never
// ask for more than the block size they have declared remaining.
func (f *Framer) ReadRaw(buf []byte) (int, error) {
	n, err := f.conn.Read(buf)
	if err != nil {
		return n, classifyReadErr(err)
	}
	return n, nil
}

// Send writes exactly len(payload) bytes as one atomic call. payload is the
// caller's full frame (length prefix already included) when used for
// message mode, or a raw chunk when used for the streaming sub-phase.
func (f *Framer) Send(payload []byte) error {
	if len(payload) > PrimaryBufCapacity {
		return errs.New(errs.KindBufferOverflow, "send exceeds primary buffer capacity")
	}
	written := 0
	for written < len(payload) {
		n, err := f.conn.Write(payload[written:])
		if err != nil {
			return classifyWriteErr(err)
		}
		written += n
	}
	return nil
}

// SendMessage prepends the two-byte big-endian length prefix (length =
// len(body)+2) and sends the frame atomically.
func (f *Framer) SendMessage(body []byte) error {
	total := len(body) + 2
	if total > PrimaryBufCapacity {
		return errs.New(errs.KindBufferOverflow, "message exceeds primary buffer capacity")
	}
	out := make([]byte, total)
	binary.BigEndian.PutUint16(out[:2], uint16(total))
	copy(out[2:], body)
	return f.Send(out)
}

func (f *Framer) readFull(buf []byte) error {
	_, err := io.ReadFull(f.conn, buf)
	if err != nil {
		return classifyReadErr(err)
	}
	return nil
}

func classifyReadErr(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return errs.Wrap(errs.KindPeerDisconnected, "peer closed connection", err)
	}
	return errs.Wrap(errs.KindPeerDisconnected, "read failed", err)
}

func classifyWriteErr(err error) error {
	if err == io.EOF || err == io.ErrClosedPipe {
		return errs.Wrap(errs.KindPeerDisconnected, "peer closed connection mid-write", err)
	}
	return errs.Wrap(errs.KindSendFailed, "write failed", err)
}

// Close closes the underlying connection.
func (f *Framer) Close() error {
	return f.conn.Close()
}

// Conn exposes the underlying net.Conn for callers (e.g. the connection
// manager) that need to set deadlines.
func (f *Framer) Conn() net.Conn {
	return f.conn
}
