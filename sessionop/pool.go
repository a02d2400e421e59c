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

	"safecloud.example/safecloud/sessionmsg"
)

// Pool is the minimal per-user storage surface the server-side operation
// drivers need; the pool package implements it. Kept in this package (not
// imported from pool) so pool never needs to depend on sessionop.
type Pool interface {
	Stat(name string) (sessionmsg.FileInfo, bool, error)
	Open(name string) (io.ReadCloser, error)
	CreateTemp() (io.WriteCloser, string, error)
	Commit(tempPath, name string, mtime int64) error
	Delete(name string) error
	Rename(oldName, newName string) error
	List() ([]sessionmsg.FileInfo, error)
}

// LocalFile is the minimal local-filesystem surface the client-side
// operation drivers need; cmd/safecloud-client supplies the implementation.
// Kept thin per spec §1's scoping of local FS concerns out of the core.
type LocalFile interface {
	Stat(path string) (sessionmsg.FileInfo, error)
	Open(path string) (io.ReadCloser, error)
	Create(path string) (io.WriteCloser, error)
	Touch(path string, mtime int64) error
}
