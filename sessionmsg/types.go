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

// Package sessionmsg defines the closed set of typed session messages that
// travel inside the session envelope once the handshake completes, plus the
// FileInfo/PoolFileInfo wire codecs the five operation state machines build
// their payloads from.
package sessionmsg

// Type is one of the wire message kinds in the closed set from spec §4.6.
// An unrecognized byte on the wire is always fatal (IV desynchronization is
// the only explanation, since the envelope already authenticated it).
type Type byte

const (
	TypeFileUploadReq Type = iota + 1
	TypeFileDownloadReq
	TypeFileDeleteReq
	TypeFileRenameReq
	TypeFileListReq
	TypeFileExists
	TypeFileNotExists
	TypePoolSize
	TypeConfirm
	TypeCancel
	TypeCompleted
	TypeBye
	TypeErrInternal
	TypeErrUnexpected
	TypeErrMalformed
	TypeErrUnknownType
)

// NameMax bounds a file name's encoded length (matches the u8 nameLen
// field's natural range and the reference's path-component limit).
const NameMax = 255

func (t Type) String() string {
	switch t {
	case TypeFileUploadReq:
		return "FileUploadReq"
	case TypeFileDownloadReq:
		return "FileDownloadReq"
	case TypeFileDeleteReq:
		return "FileDeleteReq"
	case TypeFileRenameReq:
		return "FileRenameReq"
	case TypeFileListReq:
		return "FileListReq"
	case TypeFileExists:
		return "FileExists"
	case TypeFileNotExists:
		return "FileNotExists"
	case TypePoolSize:
		return "PoolSize"
	case TypeConfirm:
		return "Confirm"
	case TypeCancel:
		return "Cancel"
	case TypeCompleted:
		return "Completed"
	case TypeBye:
		return "Bye"
	case TypeErrInternal:
		return "ErrInternal"
	case TypeErrUnexpected:
		return "ErrUnexpected"
	case TypeErrMalformed:
		return "ErrMalformed"
	case TypeErrUnknownType:
		return "ErrUnknownType"
	default:
		return "Unknown"
	}
}

// Valid reports whether t is a member of the closed message-type set.
func Valid(t Type) bool {
	return t >= TypeFileUploadReq && t <= TypeErrUnknownType
}

// IsError reports whether t is one of the four error-signalling types.
func IsError(t Type) bool {
	return t >= TypeErrInternal && t <= TypeErrUnknownType
}

// FileInfo is the local/remote file metadata snapshot carried by
// FileUploadReq/FileExists, per spec §4.1.
type FileInfo struct {
	Name         string
	Size         int64
	LastModified int64 // unix seconds
	Created      int64 // unix seconds
}
