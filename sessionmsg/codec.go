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

package sessionmsg

import (
	"encoding/binary"

	"safecloud.example/safecloud/errs"
)

// EncodeFileInfo serializes fi as {nameLen:u8}{size:i64}{lastModified:i64}
// {created:i64}{name: nameLen bytes}, the PoolFileInfo record layout from
// spec §4.1 reused for any single FileInfo payload.
func EncodeFileInfo(fi FileInfo) ([]byte, error) {
	if len(fi.Name) == 0 || len(fi.Name) > NameMax {
		return nil, errs.New(errs.KindInvalidFileName, "file name length out of bounds")
	}
	out := make([]byte, 1+8*3+len(fi.Name))
	out[0] = byte(len(fi.Name))
	binary.BigEndian.PutUint64(out[1:9], uint64(fi.Size))
	binary.BigEndian.PutUint64(out[9:17], uint64(fi.LastModified))
	binary.BigEndian.PutUint64(out[17:25], uint64(fi.Created))
	copy(out[25:], fi.Name)
	return out, nil
}

// DecodeFileInfo parses one FileInfo record and returns the number of bytes
// consumed, so callers (notably the list operation's carry-over parser) can
// decode a concatenation of records.
func DecodeFileInfo(body []byte) (FileInfo, int, error) {
	const headerLen = 1 + 8*3
	if len(body) < headerLen {
		return FileInfo{}, 0, errs.New(errs.KindMalformedMessage, "FileInfo record shorter than fixed header")
	}
	nameLen := int(body[0])
	total := headerLen + nameLen
	if len(body) < total {
		return FileInfo{}, 0, errs.New(errs.KindMalformedMessage, "FileInfo record truncated name")
	}
	fi := FileInfo{
		Size:         int64(binary.BigEndian.Uint64(body[1:9])),
		LastModified: int64(binary.BigEndian.Uint64(body[9:17])),
		Created:      int64(binary.BigEndian.Uint64(body[17:25])),
		Name:         string(body[headerLen:total]),
	}
	if len(fi.Name) == 0 {
		return FileInfo{}, 0, errs.New(errs.KindInvalidFileName, "FileInfo record has empty name")
	}
	return fi, total, nil
}

// EncodeName encodes a bare file name field as {nameLen:u8}{name}, used by
// FileDownloadReq/FileDeleteReq.
func EncodeName(name string) ([]byte, error) {
	if len(name) == 0 || len(name) > NameMax {
		return nil, errs.New(errs.KindInvalidFileName, "file name length out of bounds")
	}
	out := make([]byte, 1+len(name))
	out[0] = byte(len(name))
	copy(out[1:], name)
	return out, nil
}

// DecodeName parses a single {nameLen:u8}{name} field.
func DecodeName(body []byte) (string, error) {
	if len(body) < 1 {
		return "", errs.New(errs.KindMalformedMessage, "name field missing length byte")
	}
	nameLen := int(body[0])
	if len(body) < 1+nameLen || nameLen == 0 {
		return "", errs.New(errs.KindMalformedMessage, "name field truncated")
	}
	return string(body[1 : 1+nameLen]), nil
}

// RenamePayload is FileRenameReq's body: two length-prefixed names.
type RenamePayload struct {
	OldName string
	NewName string
}

// EncodeRename serializes {oldNameLen:u8}{oldName}{newNameLen:u8}{newName}.
func EncodeRename(p RenamePayload) ([]byte, error) {
	if p.OldName == p.NewName {
		return nil, errs.New(errs.KindInvalidFileName, "rename requires old != new")
	}
	oldField, err := EncodeName(p.OldName)
	if err != nil {
		return nil, err
	}
	newField, err := EncodeName(p.NewName)
	if err != nil {
		return nil, err
	}
	return append(oldField, newField...), nil
}

// DecodeRename parses FileRenameReq's body.
func DecodeRename(body []byte) (RenamePayload, error) {
	if len(body) < 1 {
		return RenamePayload{}, errs.New(errs.KindMalformedMessage, "rename payload too short")
	}
	oldLen := int(body[0])
	if len(body) < 1+oldLen {
		return RenamePayload{}, errs.New(errs.KindMalformedMessage, "rename payload truncated old name")
	}
	oldName := string(body[1 : 1+oldLen])
	rest := body[1+oldLen:]
	newName, err := DecodeName(rest)
	if err != nil {
		return RenamePayload{}, err
	}
	if oldName == newName {
		return RenamePayload{}, errs.New(errs.KindInvalidFileName, "rename requires old != new")
	}
	return RenamePayload{OldName: oldName, NewName: newName}, nil
}

// EncodePoolSize serializes the u32 byte count PoolSize carries.
func EncodePoolSize(n uint32) []byte {
	var out [4]byte
	binary.BigEndian.PutUint32(out[:], n)
	return out[:]
}

// DecodePoolSize parses PoolSize's u32 payload.
func DecodePoolSize(body []byte) (uint32, error) {
	if len(body) != 4 {
		return 0, errs.New(errs.KindMalformedMessage, "PoolSize payload must be exactly 4 bytes")
	}
	return binary.BigEndian.Uint32(body), nil
}

// Encode prepends t to body to produce the full session-message plaintext
// the envelope wraps.
func Encode(t Type, body []byte) []byte {
	out := make([]byte, 1+len(body))
	out[0] = byte(t)
	copy(out[1:], body)
	return out
}

// Decode splits a decrypted envelope plaintext into its type byte and body.
func Decode(plaintext []byte) (Type, []byte, error) {
	if len(plaintext) < 1 {
		return 0, nil, errs.New(errs.KindMalformedMessage, "session message missing type byte")
	}
	t := Type(plaintext[0])
	if !Valid(t) {
		return t, nil, errs.New(errs.KindUnknownMessageType, "unrecognized session message type")
	}
	return t, plaintext[1:], nil
}
