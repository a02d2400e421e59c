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

package envelope

import (
	"crypto/rand"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safecloud.example/safecloud/aead"
	"safecloud.example/safecloud/errs"
	"safecloud.example/safecloud/framing"
	"safecloud.example/safecloud/iv"
)

func sharedKey(t *testing.T) [aead.KeySize]byte {
	t.Helper()
	var k [aead.KeySize]byte
	_, err := rand.Read(k[:])
	require.NoError(t, err)
	return k
}

func TestWrapUnwrapRoundTrip(t *testing.T) {
	key := sharedKey(t)
	connIV, err := iv.New()
	require.NoError(t, err)

	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()
	clientF := framing.New(client)
	serverF := framing.New(server)

	encMgr, err := aead.NewManager(key, connIV)
	require.NoError(t, err)
	decIV := iv.FromBytes(connIV.Bytes())
	decMgr, err := aead.NewManager(key, decIV)
	require.NoError(t, err)

	msg := []byte{0x05} // e.g. FileListReq type byte, no payload
	done := make(chan error, 1)
	go func() { done <- Wrap(clientF, encMgr, msg) }()

	got, err := Unwrap(serverF, decMgr)
	require.NoError(t, err)
	require.NoError(t, <-done)
	assert.Equal(t, msg, got)
	assert.Equal(t, connIV.Counter(), decIV.Counter())
}

func TestUnwrapDetectsTamperedCiphertext(t *testing.T) {
	key := sharedKey(t)
	connIV, err := iv.New()
	require.NoError(t, err)

	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()
	clientF := framing.New(client)
	serverF := framing.New(server)

	encMgr, err := aead.NewManager(key, connIV)
	require.NoError(t, err)
	decIV := iv.FromBytes(connIV.Bytes())
	decMgr, err := aead.NewManager(key, decIV)
	require.NoError(t, err)

	msg := []byte{0x01, 'a', 'b', 'c'}
	readCh := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 64)
		n, _ := server.Read(buf)
		readCh <- buf[:n]
	}()

	done := make(chan error, 1)
	go func() { done <- Wrap(clientF, encMgr, msg) }()
	raw := <-readCh
	require.NoError(t, <-done)

	raw[2] ^= 0x01 // flip a ciphertext bit (first byte after the length prefix)

	client2, server2 := net.Pipe()
	defer client2.Close()
	defer server2.Close()
	go func() { _, _ = client2.Write(raw) }()

	_, err = Unwrap(framing.New(server2), decMgr)
	assert.True(t, errs.Is(err, errs.KindDecryptVerifyFailed))
}
