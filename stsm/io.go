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
	"safecloud.example/safecloud/errs"
	"safecloud.example/safecloud/framing"
)

func send(f *framing.Framer, t MsgType, body []byte) error {
	frame := make([]byte, 0, len(body)+1)
	frame = append(frame, byte(t))
	frame = append(frame, body...)
	return f.SendMessage(frame)
}

func sendError(f *framing.Framer, t MsgType) error {
	return send(f, t, nil)
}

// recv reads the next STSM frame, rejecting it up front if it carries one of
// the error signalling types (the caller never proceeds past an error
// frame) or a byte not in the closed type set.
func recv(f *framing.Framer, want MsgType) (MsgType, []byte, error) {
	raw, err := f.ReadMessage()
	if err != nil {
		return 0, nil, err
	}
	if len(raw) < 1 {
		return 0, nil, errs.New(errs.KindMalformedMessage, "STSM frame missing type byte")
	}
	t := MsgType(raw[0])
	body := raw[1:]

	if isErrorMsg(t) {
		return t, nil, errFromWire(t)
	}
	if t < MsgClientHello || t > MsgSrvOk {
		_ = sendError(f, MsgErrUnknownMsgType)
		return t, nil, errs.New(errs.KindUnknownMessageType, "unrecognized STSM message type")
	}
	if t != want {
		_ = sendError(f, MsgErrUnexpectedMessage)
		return t, nil, errs.New(errs.KindUnexpectedMessage, "STSM message out of sequence")
	}
	return t, body, nil
}
