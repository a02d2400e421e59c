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
	"crypto/sha256"
	"crypto/x509"

	"safecloud.example/safecloud/cryptoauth"
	"safecloud.example/safecloud/dh"
	"safecloud.example/safecloud/errs"
	"safecloud.example/safecloud/framing"
	"safecloud.example/safecloud/iv"
)

// ClientIdentity bundles the material the client side needs to authenticate
// itself and validate the server.
type ClientIdentity struct {
	Username   string
	PrivateKey *cryptoauth.SigningKey
	TrustRoots *x509.CertPool
	CRL        *x509.RevocationList
}

// ClientState names the four client-side handshake states.
type ClientState int

const (
	ClientInit ClientState = iota
	ClientWaitingSrvAuth
	ClientWaitingSrvOk
	ClientDone
)

// Result is what a completed handshake yields: the shared session key and
// the connection IV (seeded with the client's freshly generated initial
// value), ready to hand to the connection manager.
type Result struct {
	SessionKey [16]byte
	IV         *iv.IV
}

// RunClient drives the full four-message handshake as the client, blocking
// on socket I/O at each step. On any error the connection should be closed
// by the caller; RunClient does not close f itself.
func RunClient(f *framing.Framer, id ClientIdentity) (*Result, error) {
	if len(id.Username) == 0 || len(id.Username) > NameMax {
		return nil, errs.New(errs.KindInternalError, "username length out of bounds")
	}

	kp, err := dh.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	connIV, err := iv.New()
	if err != nil {
		return nil, err
	}

	// ClientInit -> WaitingSrvAuth: send ClientHello.
	if err := send(f, MsgClientHello, encodeClientHello(kp.Public, connIV.Bytes())); err != nil {
		return nil, err
	}

	// WaitingSrvAuth: receive SrvAuth.
	_, body, err := recv(f, MsgSrvAuth)
	if err != nil {
		return nil, err
	}
	auth, err := decodeSrvAuth(body)
	if err != nil {
		_ = sendError(f, MsgErrMalformedMessage)
		return nil, err
	}
	if err := dh.ValidatePublic(auth.pub); err != nil {
		_ = sendError(f, MsgErrInvalidPubKey)
		return nil, err
	}

	cert, err := cryptoauth.ParseCertificatePEM(auth.cert)
	if err != nil {
		_ = sendError(f, MsgErrSrvCertRejected)
		return nil, err
	}
	if err := cryptoauth.VerifyChain(cert, id.TrustRoots); err != nil {
		_ = sendError(f, MsgErrSrvCertRejected)
		return nil, err
	}
	if err := cryptoauth.CheckRevocation(cert, id.CRL); err != nil {
		_ = sendError(f, MsgErrSrvCertRejected)
		return nil, err
	}
	srvPub, ok := cert.Raw.PublicKey.(*rsa.PublicKey)
	if !ok {
		_ = sendError(f, MsgErrSrvCertRejected)
		return nil, errs.New(errs.KindHandshakeCertRejected, "server certificate does not carry an RSA public key")
	}

	secret, err := kp.SharedSecret(auth.pub)
	if err != nil {
		_ = sendError(f, MsgErrInvalidPubKey)
		return nil, err
	}
	sessionKey := deriveSessionKey(secret)

	ownPub := kp.PublicBytes()
	transcript := append(append([]byte{}, ownPub[:]...), fixedPubBytes(auth.pub)...)
	sig, err := decryptAuthBlob(sessionKey, connIV, auth.authEnc[:])
	if err != nil {
		_ = sendError(f, MsgErrSrvAuthFailed)
		return nil, err
	}
	if err := cryptoauth.Verify(srvPub, transcript, sig); err != nil {
		_ = sendError(f, MsgErrSrvAuthFailed)
		return nil, err
	}

	// WaitingSrvAuth -> WaitingSrvOk: send CliAuth.
	cliTranscript := append(append([]byte(id.Username), ownPub[:]...), fixedPubBytes(auth.pub)...)
	cliSig, err := id.PrivateKey.Sign(cliTranscript)
	if err != nil {
		return nil, err
	}
	authEnc, err := encryptAuthBlob(sessionKey, connIV, cliSig)
	if err != nil {
		return nil, err
	}
	if err := send(f, MsgCliAuth, encodeCliAuth(cliAuthPayload{username: id.Username, authEnc: authEnc})); err != nil {
		return nil, err
	}

	// WaitingSrvOk -> Done: receive SrvOk.
	if _, _, err := recv(f, MsgSrvOk); err != nil {
		return nil, err
	}

	kp.Zero()
	return &Result{SessionKey: sessionKey, IV: connIV}, nil
}

func deriveSessionKey(secret [dh.PubKeySize]byte) [16]byte {
	h := sha256.Sum256(secret[:])
	var key [16]byte
	copy(key[:], h[:16])
	return key
}

// encryptAuthBlob and decryptAuthBlob run the auth signature's single
// AES-128-CBC step using the connection's own shared IV (established in
// ClientHello, see Result.IV) rather than a freshly generated one; spec §6
// fixes the auth field at exactly 272 bytes with no room for a carried IV.
// Each call consumes the IV's current value and bumps it afterward, so
// SrvAuth's and CliAuth's auth blobs never reuse the same keystream and
// both peers stay in lockstep without exchanging anything extra.
func encryptAuthBlob(sessionKey [16]byte, connIV *iv.IV, plaintext []byte) ([authSize]byte, error) {
	var out [authSize]byte
	ct, err := cryptoauth.EncryptCBC(sessionKey, connIV.AsCBC(), plaintext)
	if err != nil {
		return out, err
	}
	if len(ct) != authSize {
		return out, errs.New(errs.KindInternalError, "auth blob ciphertext is not 272 bytes")
	}
	connIV.Bump()
	copy(out[:], ct)
	return out, nil
}

func decryptAuthBlob(sessionKey [16]byte, connIV *iv.IV, ciphertext []byte) ([]byte, error) {
	pt, err := cryptoauth.DecryptCBC(sessionKey, connIV.AsCBC(), ciphertext)
	if err != nil {
		return nil, err
	}
	connIV.Bump()
	return pt, nil
}

