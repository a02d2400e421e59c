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

// Package localfile implements sessionop.LocalFile against the client's
// working directory. Kept deliberately thin for the same reason as pool:
// spec §1 places local filesystem internals (canonicalization, extended
// metadata) out of scope; this is only the minimal surface Upload/Download
// need.
package localfile

import (
	"io"
	"os"
	"time"

	"safecloud.example/safecloud/errs"
	"safecloud.example/safecloud/sessionmsg"
)

// Dir implements sessionop.LocalFile rooted at a single base directory.
type Dir struct {
	base string
}

// New returns a LocalFile rooted at base (the client's current working
// directory in the common case).
func New(base string) *Dir {
	return &Dir{base: base}
}

func (d *Dir) path(name string) string {
	if d.base == "" {
		return name
	}
	return d.base + string(os.PathSeparator) + name
}

// Stat implements sessionop.LocalFile. A directory is reported as
// KindFileIsDirectory rather than a generic read failure, so callers (spec
// §4.7 step 1's UploadDir rejection) can reject it before any wire traffic.
func (d *Dir) Stat(path string) (sessionmsg.FileInfo, error) {
	fi, err := os.Stat(d.path(path))
	if err != nil {
		return sessionmsg.FileInfo{}, errs.Wrap(errs.KindFileReadFailed, "stat local file", err)
	}
	if fi.IsDir() {
		return sessionmsg.FileInfo{}, errs.New(errs.KindFileIsDirectory, path+" is a directory")
	}
	return sessionmsg.FileInfo{
		Name:         path,
		Size:         fi.Size(),
		LastModified: fi.ModTime().Unix(),
		Created:      fi.ModTime().Unix(),
	}, nil
}

// Open implements sessionop.LocalFile.
func (d *Dir) Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(d.path(path))
	if err != nil {
		return nil, errs.Wrap(errs.KindFileReadFailed, "opening local file", err)
	}
	return f, nil
}

// Create implements sessionop.LocalFile.
func (d *Dir) Create(path string) (io.WriteCloser, error) {
	f, err := os.OpenFile(d.path(path), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return nil, errs.Wrap(errs.KindFileWriteFailed, "creating local file", err)
	}
	return f, nil
}

// Touch implements sessionop.LocalFile: creates path if absent and sets its
// modification time to mtime.
func (d *Dir) Touch(path string, mtime int64) error {
	full := d.path(path)
	if _, err := os.Stat(full); os.IsNotExist(err) {
		f, err := os.OpenFile(full, os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return errs.Wrap(errs.KindFileWriteFailed, "creating touched file", err)
		}
		if err := f.Close(); err != nil {
			return errs.Wrap(errs.KindFileWriteFailed, "closing touched file", err)
		}
	}
	t := time.Unix(mtime, 0)
	if err := os.Chtimes(full, t, t); err != nil {
		return errs.Wrap(errs.KindFileWriteFailed, "setting touched file mtime", err)
	}
	return nil
}
