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

// Package errs defines the closed set of error kinds the wire layer can
// raise and the static severity each maps to.
package errs

import "errors"

// Kind identifies one of the closed set of wire-layer error conditions.
type Kind int

const (
	KindInvalidLength Kind = iota
	KindPeerDisconnected
	KindSendFailed
	KindBufferOverflow
	KindInvalidState
	KindBufferSize
	KindDecryptVerifyFailed
	KindHandshakeInvalidPubKey
	KindHandshakeCertRejected
	KindHandshakeAuthFailed
	KindHandshakeLoginFailed
	KindUnexpectedMessage
	KindMalformedMessage
	KindUnknownMessageType
	KindFileNotFound
	KindFileReadFailed
	KindFileWriteFailed
	KindFileTooLarge
	KindFileIsDirectory
	KindInvalidFileName
	KindInternalError
)

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "Unknown"
}

var kindNames = map[Kind]string{
	KindInvalidLength:          "InvalidLength",
	KindPeerDisconnected:       "PeerDisconnected",
	KindSendFailed:             "SendFailed",
	KindBufferOverflow:         "BufferOverflow",
	KindInvalidState:           "InvalidState",
	KindBufferSize:             "BufferSize",
	KindDecryptVerifyFailed:    "DecryptVerifyFailed",
	KindHandshakeInvalidPubKey: "HandshakeInvalidPubKey",
	KindHandshakeCertRejected:  "HandshakeCertRejected",
	KindHandshakeAuthFailed:    "HandshakeAuthFailed",
	KindHandshakeLoginFailed:   "HandshakeLoginFailed",
	KindUnexpectedMessage:      "UnexpectedMessage",
	KindMalformedMessage:       "MalformedMessage",
	KindUnknownMessageType:     "UnknownMessageType",
	KindFileNotFound:           "FileNotFound",
	KindFileReadFailed:         "FileReadFailed",
	KindFileWriteFailed:        "FileWriteFailed",
	KindFileTooLarge:           "FileTooLarge",
	KindFileIsDirectory:        "FileIsDirectory",
	KindInvalidFileName:        "InvalidFileName",
	KindInternalError:          "InternalError",
}

// Severity governs how the connection/session driver reacts to an error.
type Severity int

const (
	// Fatal ends the connection outright.
	Fatal Severity = iota
	// SessionRecoverable resets the session to Idle; the connection stays up.
	SessionRecoverable
	// Local never touches the wire.
	Local
)

// severityOf is the static mapping spec'd in the error handling design: the
// driver never guesses, it consults this table and fails closed (Fatal) on
// anything not listed.
var severityOf = map[Kind]Severity{
	KindInvalidLength:          Fatal,
	KindPeerDisconnected:       Fatal,
	KindSendFailed:             Fatal,
	KindBufferOverflow:         Fatal,
	KindHandshakeInvalidPubKey: Fatal,
	KindHandshakeCertRejected:  Fatal,
	KindHandshakeAuthFailed:    Fatal,
	KindHandshakeLoginFailed:   Fatal,
	KindUnknownMessageType:     Fatal,

	KindInvalidState:        SessionRecoverable,
	KindBufferSize:          SessionRecoverable,
	KindDecryptVerifyFailed: SessionRecoverable,
	KindUnexpectedMessage:   SessionRecoverable,
	KindMalformedMessage:    SessionRecoverable,
	KindFileNotFound:        SessionRecoverable,
	KindFileReadFailed:      SessionRecoverable,
	KindFileWriteFailed:     SessionRecoverable,
	KindInternalError:       SessionRecoverable,

	KindFileTooLarge:    Local,
	KindFileIsDirectory: Local,
	KindInvalidFileName: Local,
}

// SeverityOf returns the static severity for a Kind, failing closed to Fatal
// for any kind the table does not recognize.
func SeverityOf(k Kind) Severity {
	if s, ok := severityOf[k]; ok {
		return s
	}
	return Fatal
}

// Error is a Kind-tagged error with an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Kind.String() + ": " + e.Message + ": " + e.Cause.Error()
	}
	return e.Kind.String() + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Severity is a convenience accessor over SeverityOf(e.Kind).
func (e *Error) Severity() Severity { return SeverityOf(e.Kind) }

// New creates an *Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an *Error of the given kind wrapping cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// SeverityOfErr extracts the severity of err if it is (or wraps) an *Error,
// failing closed to Fatal for any other error including nil being absent.
func SeverityOfErr(err error) Severity {
	var e *Error
	if errors.As(err, &e) {
		return e.Severity()
	}
	return Fatal
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
