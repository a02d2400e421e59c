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

package cryptoauth

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"safecloud.example/safecloud/errs"
)

// EncodePrivateKeyPEM serializes an RSA private key as a PKCS#1 "RSA PRIVATE
// KEY" PEM block, the on-disk format for identity/'s private-key-at-rest
// store.
func EncodePrivateKeyPEM(key *rsa.PrivateKey) []byte {
	block := &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}
	return pem.EncodeToMemory(block)
}

// DecodePrivateKeyPEM parses a PKCS#1 "RSA PRIVATE KEY" PEM block.
func DecodePrivateKeyPEM(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil || block.Type != "RSA PRIVATE KEY" {
		return nil, errs.New(errs.KindInternalError, "not a PEM-encoded RSA private key")
	}
	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, errs.Wrap(errs.KindInternalError, "parsing RSA private key", err)
	}
	return key, nil
}

// EncodePublicKeyPEM serializes an RSA public key as a PKIX "PUBLIC KEY" PEM
// block, the form carried in the server's username->key registry.
func EncodePublicKeyPEM(pub *rsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, errs.Wrap(errs.KindInternalError, "marshaling RSA public key", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}

// DecodePublicKeyPEM parses a PKIX "PUBLIC KEY" PEM block.
func DecodePublicKeyPEM(data []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errs.New(errs.KindInternalError, "not PEM-encoded data")
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, errs.Wrap(errs.KindInternalError, "parsing RSA public key", err)
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, errs.New(errs.KindInternalError, "PEM block is not an RSA public key")
	}
	return rsaPub, nil
}

// Certificate wraps a parsed X.509 certificate used by the client's trust
// store (identity/) to validate the server's certificate chain during the
// handshake's SrvAuth step.
type Certificate struct {
	Raw *x509.Certificate
}

// ParseCertificatePEM parses a single PEM-encoded "CERTIFICATE" block.
func ParseCertificatePEM(data []byte) (*Certificate, error) {
	block, _ := pem.Decode(data)
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, errs.New(errs.KindInternalError, "not a PEM-encoded certificate")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, errs.Wrap(errs.KindInternalError, "parsing X.509 certificate", err)
	}
	return &Certificate{Raw: cert}, nil
}

// VerifyChain checks cert against a pool of trusted roots, rejecting an
// untrusted or expired certificate with KindHandshakeCertRejected per the
// handshake error taxonomy.
func VerifyChain(cert *Certificate, roots *x509.CertPool) error {
	_, err := cert.Raw.Verify(x509.VerifyOptions{Roots: roots})
	if err != nil {
		return errs.Wrap(errs.KindHandshakeCertRejected, fmt.Sprintf("certificate for %s not trusted", cert.Raw.Subject.CommonName), err)
	}
	return nil
}

// ParseCRLPEM parses a PEM-encoded certificate revocation list.
func ParseCRLPEM(data []byte) (*x509.RevocationList, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errs.New(errs.KindInternalError, "not a PEM-encoded CRL")
	}
	crl, err := x509.ParseRevocationList(block.Bytes)
	if err != nil {
		return nil, errs.Wrap(errs.KindInternalError, "parsing CRL", err)
	}
	return crl, nil
}

// CheckRevocation rejects cert with KindHandshakeCertRejected if its serial
// number appears in crl.
func CheckRevocation(cert *Certificate, crl *x509.RevocationList) error {
	if crl == nil {
		return nil
	}
	for _, entry := range crl.RevokedCertificateEntries {
		if entry.SerialNumber.Cmp(cert.Raw.SerialNumber) == 0 {
			return errs.New(errs.KindHandshakeCertRejected, "certificate has been revoked")
		}
	}
	return nil
}
