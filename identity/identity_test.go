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

package identity

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safecloud.example/safecloud/cryptoauth"
)

func TestRegistryRegisterLookupRemove(t *testing.T) {
	key, err := cryptoauth.GenerateSigningKey()
	require.NoError(t, err)

	r := NewRegistry()
	_, ok := r.Lookup("alice")
	assert.False(t, ok)

	r.Register("alice", key.PublicKey())
	pub, ok := r.Lookup("alice")
	require.True(t, ok)
	assert.Equal(t, key.PublicKey(), pub)

	assert.Equal(t, []string{"alice"}, r.Usernames())

	r.Remove("alice")
	_, ok = r.Lookup("alice")
	assert.False(t, ok)
}

func TestVaultStoreLoadRoundTrip(t *testing.T) {
	key, err := cryptoauth.GenerateSigningKey()
	require.NoError(t, err)

	v := NewVault(filepath.Join(t.TempDir(), "identity.key"))
	require.NoError(t, v.Store(key, "correct horse battery staple"))

	loaded, err := v.Load("correct horse battery staple")
	require.NoError(t, err)
	assert.Equal(t, key.Private.D, loaded.Private.D)
}

func TestVaultRejectsWrongPassphrase(t *testing.T) {
	key, err := cryptoauth.GenerateSigningKey()
	require.NoError(t, err)

	v := NewVault(filepath.Join(t.TempDir(), "identity.key"))
	require.NoError(t, v.Store(key, "right passphrase"))

	_, err = v.Load("wrong passphrase")
	assert.Error(t, err)
}
