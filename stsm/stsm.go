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

// Package stsm implements the station-to-station-modified handshake: a
// deterministic four-message protocol that derives a shared 16-byte AES key
// and connection IV while mutually authenticating both peers by RSA
// signature. Messages are length-prefixed frames (framing.Framer) but never
// wrapped in the session envelope — there is no key yet to wrap them with.
package stsm

import "safecloud.example/safecloud/errs"

// MsgType identifies one of the twelve wire message kinds the handshake can
// carry: the four protocol steps plus eight signalling errors.
type MsgType byte

const (
	MsgClientHello MsgType = iota + 1
	MsgSrvAuth
	MsgCliAuth
	MsgSrvOk

	MsgErrInvalidPubKey
	MsgErrSrvAuthFailed
	MsgErrSrvCertRejected
	MsgErrCliAuthFailed
	MsgErrClientLoginFailed
	MsgErrUnexpectedMessage
	MsgErrMalformedMessage
	MsgErrUnknownMsgType
)

// NameMax is the maximum username length in bytes; the wire field is
// NameMax+1 to hold a NUL terminator.
const NameMax = 30

// errKindForMsgType maps a received STSM error signalling message to the
// errs.Kind the local side should raise, per the closed error taxonomy.
var errKindForMsgType = map[MsgType]errs.Kind{
	MsgErrInvalidPubKey:     errs.KindHandshakeInvalidPubKey,
	MsgErrSrvAuthFailed:     errs.KindHandshakeAuthFailed,
	MsgErrSrvCertRejected:   errs.KindHandshakeCertRejected,
	MsgErrCliAuthFailed:     errs.KindHandshakeAuthFailed,
	MsgErrClientLoginFailed: errs.KindHandshakeLoginFailed,
	MsgErrUnexpectedMessage: errs.KindUnexpectedMessage,
	MsgErrMalformedMessage:  errs.KindMalformedMessage,
	MsgErrUnknownMsgType:    errs.KindUnknownMessageType,
}

func isErrorMsg(t MsgType) bool {
	_, ok := errKindForMsgType[t]
	return ok
}

// errFromWire converts a received STSM error signalling message into a local
// error carrying the matching Kind. Receiving any STSM error terminates the
// connection; the receiver never replies to an error message.
func errFromWire(t MsgType) error {
	kind, ok := errKindForMsgType[t]
	if !ok {
		kind = errs.KindInternalError
	}
	return errs.New(kind, "peer signalled STSM error "+msgTypeName(t))
}

func msgTypeName(t MsgType) string {
	switch t {
	case MsgClientHello:
		return "ClientHello"
	case MsgSrvAuth:
		return "SrvAuth"
	case MsgCliAuth:
		return "CliAuth"
	case MsgSrvOk:
		return "SrvOk"
	case MsgErrInvalidPubKey:
		return "InvalidPubKey"
	case MsgErrSrvAuthFailed:
		return "SrvAuthFailed"
	case MsgErrSrvCertRejected:
		return "SrvCertRejected"
	case MsgErrCliAuthFailed:
		return "CliAuthFailed"
	case MsgErrClientLoginFailed:
		return "ClientLoginFailed"
	case MsgErrUnexpectedMessage:
		return "UnexpectedMessage"
	case MsgErrMalformedMessage:
		return "MalformedMessage"
	case MsgErrUnknownMsgType:
		return "UnknownMsgType"
	default:
		return "Unknown"
	}
}
