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
	"safecloud.example/safecloud/errs"
	"safecloud.example/safecloud/sessionmsg"
)

// MaxFileSize is the spec's file size cap: 2^32 - 1 bytes.
const MaxFileSize = 1<<32 - 1

// Confirmer asks the interactive user whether to proceed once the local and
// remote metadata disagree, per the upload/download tie-break policy in
// spec §4.7 (Delete takes its own confirmation callback; Rename takes none). The CLI surface supplies the real prompt; it is deliberately
// outside this package's scope (spec §1 Non-goals).
type Confirmer func(local, remote sessionmsg.FileInfo) bool

// needsConfirmation applies spec §4.7's metadata tie-break policy for
// upload/download: candidate is the file about to replace existing.
// Empty-vs-nonempty always prompts; a strictly newer candidate proceeds
// without asking; equal size+mtime, and an older or same-age candidate,
// both prompt. This is the protocol's decision of *whether* to ask, not
// the interactive prompt itself (out of scope per spec §1 Non-goals).
func needsConfirmation(candidate, existing sessionmsg.FileInfo) bool {
	if (candidate.Size == 0) != (existing.Size == 0) {
		return true
	}
	if candidate.LastModified > existing.LastModified {
		return false
	}
	return true
}

// Upload runs the client side of the upload operation for one local file:
// it stats and opens path through the caller's LocalFile.
func Upload(ch *Channel, local LocalFile, path string, confirm Confirmer) error {
	info, err := local.Stat(path)
	if err != nil {
		// Pass a directory rejection straight through (spec §4.7 step 1:
		// UploadDir is a local-only rejection with no wire traffic), rather
		// than flattening it into a generic read-failure kind.
		if errs.Is(err, errs.KindFileIsDirectory) {
			return err
		}
		return errs.Wrap(errs.KindFileReadFailed, "stat local file for upload", err)
	}
	if info.Size > MaxFileSize {
		return errs.New(errs.KindFileTooLarge, "file exceeds the 2^32-1 byte cap")
	}

	enc, err := sessionmsg.EncodeFileInfo(info)
	if err != nil {
		return err
	}
	if err := ch.SendMsg(sessionmsg.TypeFileUploadReq, enc); err != nil {
		return err
	}

	// rawPhaseDone tracks whether the raw byte phase (or the zero-byte
	// commit that substitutes for it) has actually happened, so a
	// Completed reply is only ever accepted once it's true per Open
	// Question (a) — a misbehaving server that replies Completed for a
	// non-empty upload without ever reading the raw bytes must not be
	// reported to the caller as a successful transfer.
	rawPhaseDone := false

	t, body, err := ch.expectMsg(sessionmsg.TypeCompleted, sessionmsg.TypeFileNotExists, sessionmsg.TypeFileExists)
	if err != nil {
		return err
	}
	switch t {
	case sessionmsg.TypeCompleted:
		rawPhaseDone = info.Size == 0 // zero-byte fast path: pool.Commit alone
		if !rawPhaseDone {
			return errs.New(errs.KindUnexpectedMessage, "server reported Completed before the raw upload phase")
		}
		return nil
	case sessionmsg.TypeFileExists:
		remote, _, err := sessionmsg.DecodeFileInfo(body)
		if err != nil {
			return err
		}
		if needsConfirmation(info, remote) && !confirm(info, remote) {
			return ch.SendMsg(sessionmsg.TypeCancel, nil)
		}
		if err := ch.SendMsg(sessionmsg.TypeConfirm, nil); err != nil {
			return err
		}
	case sessionmsg.TypeFileNotExists:
		// proceed directly
	}

	src, err := local.Open(path)
	if err != nil {
		return errs.Wrap(errs.KindFileReadFailed, "opening local file for upload", err)
	}
	defer src.Close()
	if err := ch.rawSend(src, info.Size); err != nil {
		return err
	}
	rawPhaseDone = true
	if _, _, err := ch.expectMsg(sessionmsg.TypeCompleted); err != nil {
		return err
	}
	if !rawPhaseDone {
		return errs.New(errs.KindUnexpectedMessage, "server reported Completed before the raw upload phase")
	}
	return nil
}

// Download runs the client side of the download operation.
func Download(ch *Channel, local LocalFile, name, destPath string, confirm Confirmer) error {
	enc, err := sessionmsg.EncodeName(name)
	if err != nil {
		return err
	}
	if err := ch.SendMsg(sessionmsg.TypeFileDownloadReq, enc); err != nil {
		return err
	}
	t, body, err := ch.expectMsg(sessionmsg.TypeFileNotExists, sessionmsg.TypeFileExists)
	if err != nil {
		return err
	}
	if t == sessionmsg.TypeFileNotExists {
		return errs.New(errs.KindFileNotFound, "server has no file named "+name)
	}
	remote, _, err := sessionmsg.DecodeFileInfo(body)
	if err != nil {
		return err
	}

	if existing, statErr := local.Stat(destPath); statErr == nil {
		if needsConfirmation(remote, existing) && !confirm(existing, remote) {
			return nil
		}
	}

	if remote.Size == 0 {
		if err := local.Touch(destPath, remote.LastModified); err != nil {
			return err
		}
		return ch.SendMsg(sessionmsg.TypeCompleted, nil)
	}

	dst, err := local.Create(destPath)
	if err != nil {
		return errs.Wrap(errs.KindFileWriteFailed, "creating local file for download", err)
	}
	err = ch.rawReceive(dst, remote.Size)
	closeErr := dst.Close()
	if err != nil {
		return err
	}
	if closeErr != nil {
		return errs.Wrap(errs.KindFileWriteFailed, "closing downloaded file", closeErr)
	}
	if err := local.Touch(destPath, remote.LastModified); err != nil {
		return err
	}
	return ch.SendMsg(sessionmsg.TypeCompleted, nil)
}

// Delete runs the client side of the delete operation.
func Delete(ch *Channel, name string, confirm func(remote sessionmsg.FileInfo) bool) error {
	enc, err := sessionmsg.EncodeName(name)
	if err != nil {
		return err
	}
	if err := ch.SendMsg(sessionmsg.TypeFileDeleteReq, enc); err != nil {
		return err
	}
	t, body, err := ch.expectMsg(sessionmsg.TypeFileNotExists, sessionmsg.TypeFileExists)
	if err != nil {
		return err
	}
	if t == sessionmsg.TypeFileNotExists {
		return errs.New(errs.KindFileNotFound, "server has no file named "+name)
	}
	remote, _, err := sessionmsg.DecodeFileInfo(body)
	if err != nil {
		return err
	}
	if !confirm(remote) {
		return ch.SendMsg(sessionmsg.TypeCancel, nil)
	}
	if err := ch.SendMsg(sessionmsg.TypeConfirm, nil); err != nil {
		return err
	}
	_, _, err = ch.expectMsg(sessionmsg.TypeCompleted)
	return err
}

// ErrRenameSameName is returned client-side, with no wire traffic, when
// oldName == newName.
var ErrRenameSameName = errs.New(errs.KindInvalidFileName, "rename requires a different new name")

// Rename runs the client side of the rename operation.
func Rename(ch *Channel, oldName, newName string) error {
	if oldName == newName {
		return ErrRenameSameName
	}
	enc, err := sessionmsg.EncodeRename(sessionmsg.RenamePayload{OldName: oldName, NewName: newName})
	if err != nil {
		return err
	}
	if err := ch.SendMsg(sessionmsg.TypeFileRenameReq, enc); err != nil {
		return err
	}
	t, _, err := ch.expectMsg(sessionmsg.TypeCompleted, sessionmsg.TypeFileNotExists, sessionmsg.TypeFileExists)
	if err != nil {
		return err
	}
	switch t {
	case sessionmsg.TypeCompleted:
		return nil
	case sessionmsg.TypeFileNotExists:
		return errs.New(errs.KindFileNotFound, "server has no file named "+oldName)
	default: // TypeFileExists
		return errs.New(errs.KindInternalError, "a file named "+newName+" already exists")
	}
}

// List runs the client side of the list operation, returning the parsed
// remote pool contents.
func List(ch *Channel) ([]sessionmsg.FileInfo, error) {
	if err := ch.SendMsg(sessionmsg.TypeFileListReq, nil); err != nil {
		return nil, err
	}
	_, body, err := ch.expectMsg(sessionmsg.TypePoolSize)
	if err != nil {
		return nil, err
	}
	n, err := sessionmsg.DecodePoolSize(body)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}

	dec := &sessionmsg.PoolListDecoder{}
	if err := ch.rawReceive(dec, int64(n)); err != nil {
		return nil, err
	}
	if err := ch.SendMsg(sessionmsg.TypeCompleted, nil); err != nil {
		return nil, err
	}
	return dec.Records, nil
}
