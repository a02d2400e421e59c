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

// Package pool implements the server's per-user flat storage directory: a
// single directory of named files plus a per-connection temp directory
// uploads land in before being committed. It implements sessionop.Pool.
// Deliberately thin: canonicalization, extended metadata, and progress
// reporting are the local-FS-internals concern spec §1 places out of scope;
// this is only the minimal file placement the wire layer's five operations
// need.
package pool

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"safecloud.example/safecloud/errs"
	"safecloud.example/safecloud/sessionmsg"
)

// Pool is one user's flat storage directory, guarded by a directory-scoped
// mutex the way SAGE's vault.FileVault serializes access to its basePath.
type Pool struct {
	mu      sync.RWMutex
	dir     string
	tempDir string
}

// Open creates (if needed) the user's storage directory and a fresh
// per-connection temp subdirectory, per spec §6's "created/emptied per
// connection" lifecycle.
func Open(baseDir, username string) (*Pool, error) {
	dir := filepath.Join(baseDir, filepath.Base(username))
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, errs.Wrap(errs.KindInternalError, "creating pool directory", err)
	}
	tempDir := filepath.Join(dir, ".tmp-"+uuid.NewString())
	if err := os.MkdirAll(tempDir, 0700); err != nil {
		return nil, errs.Wrap(errs.KindInternalError, "creating pool temp directory", err)
	}
	return &Pool{dir: dir, tempDir: tempDir}, nil
}

// Close removes the per-connection temp directory and anything left in it
// (an upload that never reached Commit).
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return os.RemoveAll(p.tempDir)
}

func (p *Pool) path(name string) string {
	return filepath.Join(p.dir, filepath.Base(name))
}

// Stat implements sessionop.Pool.
func (p *Pool) Stat(name string) (sessionmsg.FileInfo, bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	fi, err := os.Stat(p.path(name))
	if os.IsNotExist(err) {
		return sessionmsg.FileInfo{}, false, nil
	}
	if err != nil {
		return sessionmsg.FileInfo{}, false, errs.Wrap(errs.KindInternalError, "stat pool file", err)
	}
	if fi.IsDir() {
		return sessionmsg.FileInfo{}, false, errs.New(errs.KindFileIsDirectory, name+" is a directory")
	}
	return sessionmsg.FileInfo{
		Name:         name,
		Size:         fi.Size(),
		LastModified: fi.ModTime().Unix(),
		Created:      fi.ModTime().Unix(),
	}, true, nil
}

// Open implements sessionop.Pool.
func (p *Pool) Open(name string) (io.ReadCloser, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	f, err := os.Open(p.path(name))
	if err != nil {
		return nil, errs.Wrap(errs.KindFileReadFailed, "opening pool file", err)
	}
	return f, nil
}

// CreateTemp implements sessionop.Pool, staging the upload body under the
// connection's temp directory until Commit moves it into place.
func (p *Pool) CreateTemp() (io.WriteCloser, string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	tempPath := filepath.Join(p.tempDir, uuid.NewString())
	f, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0600)
	if err != nil {
		return nil, "", errs.Wrap(errs.KindFileWriteFailed, "creating temp upload file", err)
	}
	return f, tempPath, nil
}

// Commit implements sessionop.Pool: renames the temp file into place (or,
// for the zero-byte fast path where tempPath is empty, creates an empty
// file directly) and sets its modification time to mtime.
func (p *Pool) Commit(tempPath, name string, mtime int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	dst := p.path(name)
	if tempPath == "" {
		f, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
		if err != nil {
			return errs.Wrap(errs.KindFileWriteFailed, "creating empty pool file", err)
		}
		if err := f.Close(); err != nil {
			return errs.Wrap(errs.KindFileWriteFailed, "closing empty pool file", err)
		}
	} else if err := os.Rename(tempPath, dst); err != nil {
		return errs.Wrap(errs.KindFileWriteFailed, "committing uploaded file", err)
	}
	t := time.Unix(mtime, 0)
	if err := os.Chtimes(dst, t, t); err != nil {
		return errs.Wrap(errs.KindFileWriteFailed, "setting committed file mtime", err)
	}
	return nil
}

// Delete implements sessionop.Pool.
func (p *Pool) Delete(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := os.Remove(p.path(name)); err != nil {
		return errs.Wrap(errs.KindFileWriteFailed, "deleting pool file", err)
	}
	return nil
}

// Rename implements sessionop.Pool.
func (p *Pool) Rename(oldName, newName string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := os.Rename(p.path(oldName), p.path(newName)); err != nil {
		return errs.Wrap(errs.KindFileWriteFailed, "renaming pool file", err)
	}
	return nil
}

// List implements sessionop.Pool, returning every file in the pool
// directory sorted by name for deterministic wire ordering.
func (p *Pool) List() ([]sessionmsg.FileInfo, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return nil, errs.Wrap(errs.KindInternalError, "listing pool directory", err)
	}
	var out []sessionmsg.FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, sessionmsg.FileInfo{
			Name:         e.Name(),
			Size:         info.Size(),
			LastModified: info.ModTime().Unix(),
			Created:      info.ModTime().Unix(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
