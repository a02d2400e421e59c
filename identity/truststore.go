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
	"crypto/x509"
	"encoding/pem"
	"os"

	"safecloud.example/safecloud/errs"
)

// TrustStore is the client-side trust material for validating the server's
// certificate during STSM: the CA root pool and an optional CRL.
type TrustStore struct {
	Roots *x509.CertPool
	CRL   *x509.RevocationList
}

// LoadTrustStore reads a PEM-encoded CA bundle and an optional PEM-encoded
// CRL file (pass an empty crlPath to skip revocation checking).
func LoadTrustStore(caBundlePath, crlPath string) (*TrustStore, error) {
	caPEM, err := os.ReadFile(caBundlePath)
	if err != nil {
		return nil, errs.Wrap(errs.KindInternalError, "reading CA bundle", err)
	}
	roots := x509.NewCertPool()
	if !roots.AppendCertsFromPEM(caPEM) {
		return nil, errs.New(errs.KindHandshakeCertRejected, "CA bundle contained no usable certificates")
	}

	ts := &TrustStore{Roots: roots}
	if crlPath == "" {
		return ts, nil
	}
	crlPEM, err := os.ReadFile(crlPath)
	if err != nil {
		return nil, errs.Wrap(errs.KindInternalError, "reading CRL", err)
	}
	crl, err := parseCRLPEM(crlPEM)
	if err != nil {
		return nil, err
	}
	ts.CRL = crl
	return ts, nil
}

func parseCRLPEM(data []byte) (*x509.RevocationList, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errs.New(errs.KindHandshakeCertRejected, "no PEM block found in CRL file")
	}
	crl, err := x509.ParseRevocationList(block.Bytes)
	if err != nil {
		return nil, errs.Wrap(errs.KindHandshakeCertRejected, "parsing CRL", err)
	}
	return crl, nil
}
