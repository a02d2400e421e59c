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

package stsm

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safecloud.example/safecloud/cryptoauth"
	"safecloud.example/safecloud/framing"
)

func selfSignedServerCert(t *testing.T, key *rsa.PrivateKey) ([]byte, *x509.CertPool) {
	t.Helper()
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "safecloud-server"},
		NotBefore:    time.Unix(0, 0),
		NotAfter:     time.Unix(0, 0).Add(100 * 365 * 24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})

	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(pemBytes)
	return pemBytes, pool
}

func TestHandshakeRoundTrip(t *testing.T) {
	srvKey, err := cryptoauth.GenerateSigningKey()
	require.NoError(t, err)
	cliKey, err := cryptoauth.GenerateSigningKey()
	require.NoError(t, err)

	certPEM, roots := selfSignedServerCert(t, srvKey.Private)

	lookup := func(username string) (*rsa.PublicKey, bool) {
		if username == "alice" {
			return cliKey.PublicKey(), true
		}
		return nil, false
	}

	clientConn, serverConn := net.Pipe()
	clientF := framing.New(clientConn)
	serverF := framing.New(serverConn)
	defer clientF.Close()
	defer serverF.Close()

	clientResult := make(chan *Result, 1)
	clientErr := make(chan error, 1)
	go func() {
		r, err := RunClient(clientF, ClientIdentity{
			Username:   "alice",
			PrivateKey: cliKey,
			TrustRoots: roots,
		})
		clientResult <- r
		clientErr <- err
	}()

	serverResult, username, err := RunServer(serverF, ServerIdentity{
		PrivateKey:   srvKey,
		Certificate:  certPEM,
		LookupClient: lookup,
	})
	require.NoError(t, err)
	require.NoError(t, <-clientErr)

	cr := <-clientResult
	require.NotNil(t, cr)
	require.NotNil(t, serverResult)

	assert.Equal(t, "alice", username)
	assert.Equal(t, cr.SessionKey, serverResult.SessionKey)
	// Two auth blobs are CBC-sealed over the handshake (SrvAuth, CliAuth),
	// each bumping the shared connection IV once; both peers land in
	// lockstep on the same counter once the handshake completes.
	assert.Equal(t, uint64(2), cr.IV.Counter())
	assert.Equal(t, uint64(2), serverResult.IV.Counter())
}

func TestHandshakeRejectsUnknownUsername(t *testing.T) {
	srvKey, err := cryptoauth.GenerateSigningKey()
	require.NoError(t, err)
	cliKey, err := cryptoauth.GenerateSigningKey()
	require.NoError(t, err)
	certPEM, roots := selfSignedServerCert(t, srvKey.Private)

	lookup := func(username string) (*rsa.PublicKey, bool) { return nil, false }

	clientConn, serverConn := net.Pipe()
	clientF := framing.New(clientConn)
	serverF := framing.New(serverConn)
	defer clientF.Close()
	defer serverF.Close()

	clientErr := make(chan error, 1)
	go func() {
		_, err := RunClient(clientF, ClientIdentity{
			Username:   "bob",
			PrivateKey: cliKey,
			TrustRoots: roots,
		})
		clientErr <- err
	}()

	_, _, err = RunServer(serverF, ServerIdentity{
		PrivateKey:   srvKey,
		Certificate:  certPEM,
		LookupClient: lookup,
	})
	assert.Error(t, err)
	assert.Error(t, <-clientErr)
}
