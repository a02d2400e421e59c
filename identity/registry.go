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

// Package identity holds the server's username -> public-key registry and
// the client's certificate/CRL trust store, the two identity surfaces STSM
// needs on either side of the handshake. Spec §1 Non-goals excludes the
// identity store/CA pipeline's internals (how accounts get provisioned);
// this package is the lookup surface the handshake calls into, not that
// pipeline.
package identity

import (
	"crypto/rsa"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"safecloud.example/safecloud/cryptoauth"
	"safecloud.example/safecloud/errs"
)

// ErrUserNotFound is the sentinel error for a username with no registered
// key. Registry.Lookup itself reports a missing username through its bool
// result and does not return this error.
var ErrUserNotFound = errs.New(errs.KindHandshakeLoginFailed, "no public key registered for username")

// Registry is the server-side username -> RSA public key store, looked up
// once per handshake's CliAuth message. Grounded on SAGE
// crypto/storage/memory.go's mutex-guarded map with sorted List.
type Registry struct {
	mu   sync.RWMutex
	keys map[string]*rsa.PublicKey
}

// NewRegistry returns an empty in-memory registry.
func NewRegistry() *Registry {
	return &Registry{keys: make(map[string]*rsa.PublicKey)}
}

// Register adds or replaces the public key for username.
func (r *Registry) Register(username string, pub *rsa.PublicKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys[username] = pub
}

// Lookup satisfies stsm.PublicKeyLookup.
func (r *Registry) Lookup(username string) (*rsa.PublicKey, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pub, ok := r.keys[username]
	return pub, ok
}

// Remove deletes username's registered key, if any.
func (r *Registry) Remove(username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.keys, username)
}

// LoadRegistry populates a new Registry from dir, reading one PEM-encoded
// RSA public key per file named <username>.pem. A missing dir yields an
// empty registry rather than an error, since a fresh server install has no
// users registered yet.
func LoadRegistry(dir string) (*Registry, error) {
	r := NewRegistry()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return r, nil
	}
	if err != nil {
		return nil, errs.Wrap(errs.KindInternalError, "reading users dir "+dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".pem") {
			continue
		}
		username := strings.TrimSuffix(e.Name(), ".pem")
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, errs.Wrap(errs.KindInternalError, "reading user key for "+username, err)
		}
		pub, err := cryptoauth.DecodePublicKeyPEM(data)
		if err != nil {
			return nil, errs.Wrap(errs.KindInternalError, "decoding user key for "+username, err)
		}
		r.Register(username, pub)
	}
	return r, nil
}

// Usernames returns every registered username in sorted order.
func (r *Registry) Usernames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.keys))
	for u := range r.keys {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}
