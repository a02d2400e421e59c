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

package server

import (
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safecloud.example/safecloud/client"
	"safecloud.example/safecloud/cryptoauth"
	"safecloud.example/safecloud/identity"
	"safecloud.example/safecloud/sessionop"
	"safecloud.example/safecloud/stsm"
)

func selfSignedCert(t *testing.T, key *cryptoauth.SigningKey) ([]byte, *x509.CertPool) {
	t.Helper()
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "safecloud-server-test"},
		NotBefore:    time.Unix(0, 0),
		NotAfter:     time.Unix(0, 0).Add(100 * 365 * 24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.Private.PublicKey, key.Private)
	require.NoError(t, err)
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})

	roots := x509.NewCertPool()
	roots.AddCert(mustParseCert(t, der))
	return pemBytes, roots
}

func mustParseCert(t *testing.T, der []byte) *x509.Certificate {
	t.Helper()
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return cert
}

func TestClientServerHandshakeAndEmptyListRoundTrip(t *testing.T) {
	srvKey, err := cryptoauth.GenerateSigningKey()
	require.NoError(t, err)
	cliKey, err := cryptoauth.GenerateSigningKey()
	require.NoError(t, err)

	cert, roots := selfSignedCert(t, srvKey)

	registry := identity.NewRegistry()
	registry.Register("alice", cliKey.PublicKey())

	srv, err := New("127.0.0.1:0", srvKey, cert, registry, t.TempDir())
	require.NoError(t, err)
	defer srv.Close()
	go srv.Serve()

	cliID := stsm.ClientIdentity{
		Username:   "alice",
		PrivateKey: cliKey,
		TrustRoots: roots,
	}
	cl, err := client.Dial(srv.Addr().String(), 5*time.Second, cliID)
	require.NoError(t, err)
	defer cl.Close()

	ch := cl.Channel()
	files, err := sessionop.List(ch)
	require.NoError(t, err)
	assert.Empty(t, files)
}
