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

// Package sessionop implements the five operation state machines (upload,
// download, delete, rename, list) that run once a connection is in the
// Session phase: idle -> active -> idle, each with an operation-specific
// active portion, driven over one shared envelope+raw-stream channel.
package sessionop

import (
	"safecloud.example/safecloud/aead"
	"safecloud.example/safecloud/envelope"
	"safecloud.example/safecloud/errs"
	"safecloud.example/safecloud/framing"
	"safecloud.example/safecloud/sessionmsg"
)

// RawChunkSize is the secondary-buffer read/write unit for the raw
// streaming sub-phase (upload/download/list bodies).
const RawChunkSize = 64 * 1024

// Channel bundles the framer and AEAD manager a connection's session phase
// shares between discrete (enveloped) session messages and raw byte
// streaming, so the five operation drivers below take one argument instead
// of threading both through every call.
type Channel struct {
	Framer *framing.Framer
	Mgr    *aead.Manager
}

// SendMsg wraps and sends one typed session message.
func (c *Channel) SendMsg(t sessionmsg.Type, body []byte) error {
	return envelope.Wrap(c.Framer, c.Mgr, sessionmsg.Encode(t, body))
}

// RecvMsg reads and decrypts the next enveloped session message.
func (c *Channel) RecvMsg() (sessionmsg.Type, []byte, error) {
	plaintext, err := envelope.Unwrap(c.Framer, c.Mgr)
	if err != nil {
		return 0, nil, err
	}
	return sessionmsg.Decode(plaintext)
}

// expectMsg reads the next message and requires it be one of want; any
// other (valid or error) type is session-recoverable per spec §7.
func (c *Channel) expectMsg(want ...sessionmsg.Type) (sessionmsg.Type, []byte, error) {
	t, body, err := c.RecvMsg()
	if err != nil {
		return 0, nil, err
	}
	for _, w := range want {
		if t == w {
			return t, body, nil
		}
	}
	_ = c.SendMsg(sessionmsg.TypeErrUnexpected, nil)
	return t, nil, errs.New(errs.KindUnexpectedMessage, "session message "+t.String()+" not valid for current step")
}
