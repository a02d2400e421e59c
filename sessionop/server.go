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

	"safecloud.example/safecloud/errs"
	"safecloud.example/safecloud/sessionmsg"
)

// ServeOne waits for the next operation-initiating request and runs it to
// completion (idle -> active -> idle), returning when the session is back
// at Idle. Bye ends the session; the caller (connmgr) closes the socket
// after. Any other top-level message is a protocol violation.
func ServeOne(ch *Channel, pool Pool) (bye bool, err error) {
	t, body, err := ch.RecvMsg()
	if err != nil {
		return false, err
	}
	switch t {
	case sessionmsg.TypeFileUploadReq:
		return false, serveUpload(ch, pool, body)
	case sessionmsg.TypeFileDownloadReq:
		return false, serveDownload(ch, pool, body)
	case sessionmsg.TypeFileDeleteReq:
		return false, serveDelete(ch, pool, body)
	case sessionmsg.TypeFileRenameReq:
		return false, serveRename(ch, pool, body)
	case sessionmsg.TypeFileListReq:
		return false, serveList(ch, pool)
	case sessionmsg.TypeBye:
		return true, nil
	default:
		_ = ch.SendMsg(sessionmsg.TypeErrUnexpected, nil)
		return false, errs.New(errs.KindUnexpectedMessage, "unexpected message "+t.String()+" at idle")
	}
}

func serveUpload(ch *Channel, pool Pool, reqBody []byte) error {
	local, _, err := sessionmsg.DecodeFileInfo(reqBody)
	if err != nil {
		_ = ch.SendMsg(sessionmsg.TypeErrMalformed, nil)
		return err
	}

	remote, exists, err := pool.Stat(local.Name)
	if err != nil {
		_ = ch.SendMsg(sessionmsg.TypeErrInternal, nil)
		return errs.Wrap(errs.KindInternalError, "stat during upload", err)
	}

	if !exists {
		if local.Size == 0 {
			if err := pool.Commit("", local.Name, local.LastModified); err != nil {
				_ = ch.SendMsg(sessionmsg.TypeErrInternal, nil)
				return err
			}
			return ch.SendMsg(sessionmsg.TypeCompleted, nil)
		}
		if err := ch.SendMsg(sessionmsg.TypeFileNotExists, nil); err != nil {
			return err
		}
	} else {
		enc, err := sessionmsg.EncodeFileInfo(remote)
		if err != nil {
			return err
		}
		if err := ch.SendMsg(sessionmsg.TypeFileExists, enc); err != nil {
			return err
		}
		t, _, err := ch.expectMsg(sessionmsg.TypeConfirm, sessionmsg.TypeCancel)
		if err != nil {
			return err
		}
		if t == sessionmsg.TypeCancel {
			return nil
		}
	}

	tmp, tmpPath, err := pool.CreateTemp()
	if err != nil {
		_ = ch.SendMsg(sessionmsg.TypeErrInternal, nil)
		return errs.Wrap(errs.KindInternalError, "creating temp file for upload", err)
	}
	err = ch.rawReceive(tmp, local.Size)
	closeErr := tmp.Close()
	if err != nil {
		return err
	}
	if closeErr != nil {
		return errs.Wrap(errs.KindFileWriteFailed, "closing temp upload file", closeErr)
	}
	if err := pool.Commit(tmpPath, local.Name, local.LastModified); err != nil {
		return err
	}
	return ch.SendMsg(sessionmsg.TypeCompleted, nil)
}

func serveDownload(ch *Channel, pool Pool, reqBody []byte) error {
	name, err := sessionmsg.DecodeName(reqBody)
	if err != nil {
		_ = ch.SendMsg(sessionmsg.TypeErrMalformed, nil)
		return err
	}
	remote, exists, err := pool.Stat(name)
	if err != nil {
		_ = ch.SendMsg(sessionmsg.TypeErrInternal, nil)
		return err
	}
	if !exists {
		return ch.SendMsg(sessionmsg.TypeFileNotExists, nil)
	}
	enc, err := sessionmsg.EncodeFileInfo(remote)
	if err != nil {
		return err
	}
	if err := ch.SendMsg(sessionmsg.TypeFileExists, enc); err != nil {
		return err
	}

	if remote.Size == 0 {
		_, _, err := ch.expectMsg(sessionmsg.TypeCompleted)
		return err
	}

	src, err := pool.Open(name)
	if err != nil {
		return errs.Wrap(errs.KindFileReadFailed, "opening file for download", err)
	}
	defer src.Close()
	if err := ch.rawSend(src, remote.Size); err != nil {
		return err
	}
	_, _, err = ch.expectMsg(sessionmsg.TypeCompleted)
	return err
}

func serveDelete(ch *Channel, pool Pool, reqBody []byte) error {
	name, err := sessionmsg.DecodeName(reqBody)
	if err != nil {
		_ = ch.SendMsg(sessionmsg.TypeErrMalformed, nil)
		return err
	}
	remote, exists, err := pool.Stat(name)
	if err != nil {
		_ = ch.SendMsg(sessionmsg.TypeErrInternal, nil)
		return err
	}
	if !exists {
		return ch.SendMsg(sessionmsg.TypeFileNotExists, nil)
	}
	enc, err := sessionmsg.EncodeFileInfo(remote)
	if err != nil {
		return err
	}
	if err := ch.SendMsg(sessionmsg.TypeFileExists, enc); err != nil {
		return err
	}
	t, _, err := ch.expectMsg(sessionmsg.TypeConfirm, sessionmsg.TypeCancel)
	if err != nil {
		return err
	}
	if t == sessionmsg.TypeCancel {
		return nil
	}
	if err := pool.Delete(name); err != nil {
		_ = ch.SendMsg(sessionmsg.TypeErrInternal, nil)
		return err
	}
	return ch.SendMsg(sessionmsg.TypeCompleted, nil)
}

func serveRename(ch *Channel, pool Pool, reqBody []byte) error {
	req, err := sessionmsg.DecodeRename(reqBody)
	if err != nil {
		_ = ch.SendMsg(sessionmsg.TypeErrMalformed, nil)
		return err
	}
	if _, exists, err := pool.Stat(req.OldName); err != nil {
		_ = ch.SendMsg(sessionmsg.TypeErrInternal, nil)
		return err
	} else if !exists {
		return ch.SendMsg(sessionmsg.TypeFileNotExists, nil)
	}
	if newInfo, exists, err := pool.Stat(req.NewName); err != nil {
		_ = ch.SendMsg(sessionmsg.TypeErrInternal, nil)
		return err
	} else if exists {
		enc, err := sessionmsg.EncodeFileInfo(newInfo)
		if err != nil {
			return err
		}
		return ch.SendMsg(sessionmsg.TypeFileExists, enc)
	}
	if err := pool.Rename(req.OldName, req.NewName); err != nil {
		_ = ch.SendMsg(sessionmsg.TypeErrInternal, nil)
		return err
	}
	return ch.SendMsg(sessionmsg.TypeCompleted, nil)
}

func serveList(ch *Channel, pool Pool) error {
	files, err := pool.List()
	if err != nil {
		_ = ch.SendMsg(sessionmsg.TypeErrInternal, nil)
		return err
	}
	payload, err := sessionmsg.EncodePoolList(files)
	if err != nil {
		return err
	}
	if err := ch.SendMsg(sessionmsg.TypePoolSize, sessionmsg.EncodePoolSize(uint32(len(payload)))); err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	if err := ch.rawSend(byteReader(payload), int64(len(payload))); err != nil {
		return err
	}
	_, _, err = ch.expectMsg(sessionmsg.TypeCompleted)
	return err
}

func byteReader(b []byte) io.Reader {
	return &sliceReader{data: b}
}

type sliceReader struct {
	data []byte
	pos  int
}

func (r *sliceReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}
