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
	"crypto/rsa"

	"safecloud.example/safecloud/cryptoauth"
	"safecloud.example/safecloud/dh"
	"safecloud.example/safecloud/errs"
	"safecloud.example/safecloud/framing"
	"safecloud.example/safecloud/iv"
)

// PublicKeyLookup resolves a username to its registered RSA public key, the
// identity store's read-only server-side registry.
type PublicKeyLookup func(username string) (*rsa.PublicKey, bool)

// ServerIdentity bundles the material the server side needs to authenticate
// itself and validate the connecting client.
type ServerIdentity struct {
	PrivateKey   *cryptoauth.SigningKey
	Certificate  []byte // PEM-encoded X.509 certificate
	LookupClient PublicKeyLookup
}

// ServerState names the server-side handshake states.
type ServerState int

const (
	ServerWaitingCliHello ServerState = iota
	ServerWaitingCliAuth
	ServerDone
)

// RunServer drives the full four-message handshake as the server. On
// success it also returns the authenticated username, needed to resolve the
// connection's storage pool.
func RunServer(f *framing.Framer, id ServerIdentity) (*Result, string, error) {
	// WaitingCliHello: receive ClientHello.
	_, body, err := recv(f, MsgClientHello)
	if err != nil {
		return nil, "", err
	}
	cliPub, clientIV, err := decodeClientHello(body)
	if err != nil {
		_ = sendError(f, MsgErrMalformedMessage)
		return nil, "", err
	}
	if err := dh.ValidatePublic(cliPub); err != nil {
		_ = sendError(f, MsgErrInvalidPubKey)
		return nil, "", err
	}

	// connIV is the connection's shared CBC IV, seeded from the client's
	// ClientHello value; both the SrvAuth and CliAuth auth blobs consume
	// and bump it in place, so it must exist before either is encrypted.
	connIV := iv.FromBytes(clientIV)

	kp, err := dh.GenerateKeyPair()
	if err != nil {
		return nil, "", err
	}
	secret, err := kp.SharedSecret(cliPub)
	if err != nil {
		_ = sendError(f, MsgErrInvalidPubKey)
		return nil, "", err
	}
	sessionKey := deriveSessionKey(secret)

	ownPub := kp.PublicBytes()
	transcript := append(append([]byte{}, fixedPubBytes(cliPub)...), ownPub[:]...)
	sig, err := id.PrivateKey.Sign(transcript)
	if err != nil {
		return nil, "", err
	}
	authEnc, err := encryptAuthBlob(sessionKey, connIV, sig)
	if err != nil {
		return nil, "", err
	}

	// WaitingCliHello -> WaitingCliAuth: send SrvAuth.
	if err := send(f, MsgSrvAuth, encodeSrvAuth(srvAuthPayload{
		pub:     kp.Public,
		authEnc: authEnc,
		cert:    id.Certificate,
	})); err != nil {
		return nil, "", err
	}

	// WaitingCliAuth: receive CliAuth.
	_, body, err = recv(f, MsgCliAuth)
	if err != nil {
		return nil, "", err
	}
	cliAuth, err := decodeCliAuth(body)
	if err != nil {
		_ = sendError(f, MsgErrMalformedMessage)
		return nil, "", err
	}

	cliPubKey, found := id.LookupClient(cliAuth.username)
	if !found {
		_ = sendError(f, MsgErrClientLoginFailed)
		return nil, "", errs.New(errs.KindHandshakeLoginFailed, "unknown username: "+cliAuth.username)
	}

	cliSig, err := decryptAuthBlob(sessionKey, connIV, cliAuth.authEnc[:])
	if err != nil {
		_ = sendError(f, MsgErrCliAuthFailed)
		return nil, "", err
	}
	cliTranscript := append(append([]byte(cliAuth.username), fixedPubBytes(cliPub)...), ownPub[:]...)
	if err := cryptoauth.Verify(cliPubKey, cliTranscript, cliSig); err != nil {
		_ = sendError(f, MsgErrCliAuthFailed)
		return nil, "", err
	}

	// WaitingCliAuth -> Done: send SrvOk.
	if err := send(f, MsgSrvOk, nil); err != nil {
		return nil, "", err
	}

	kp.Zero()
	return &Result{SessionKey: sessionKey, IV: connIV}, cliAuth.username, nil
}
