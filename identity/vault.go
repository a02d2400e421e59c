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
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/crypto/pbkdf2"

	"safecloud.example/safecloud/cryptoauth"
	"safecloud.example/safecloud/errs"
)

const pbkdf2Iterations = 100_000

// keyFile is the on-disk JSON envelope for one passphrase-encrypted RSA
// private key, grounded on SAGE pkg/agent/crypto/vault's EncryptedKeyData.
type keyFile struct {
	Salt       []byte    `json:"salt"`
	Nonce      []byte    `json:"nonce"`
	Ciphertext []byte    `json:"ciphertext"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Vault stores an identity's RSA private key at rest, encrypted with a
// passphrase-derived AES-256-GCM key (PBKDF2-SHA256, 100k iterations).
// The STSM session key itself is never persisted here; this only protects
// the long-lived signing key between process restarts.
type Vault struct {
	mu   sync.Mutex
	path string
}

// NewVault binds a Vault to a single file path (the private key lives
// outside the multi-key directory layout FileVault uses, since a SafeCloud
// peer has exactly one identity key).
func NewVault(path string) *Vault {
	return &Vault{path: path}
}

// Store encrypts key under passphrase and writes it to the vault's path
// with owner-only permissions.
func (v *Vault) Store(key *cryptoauth.SigningKey, passphrase string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	plaintext := cryptoauth.EncodePrivateKeyPEM(key.Private)

	salt := make([]byte, 32)
	if _, err := rand.Read(salt); err != nil {
		return errs.Wrap(errs.KindInternalError, "generating vault salt", err)
	}
	derived := pbkdf2.Key([]byte(passphrase), salt, pbkdf2Iterations, 32, sha256.New)

	block, err := aes.NewCipher(derived)
	if err != nil {
		return errs.Wrap(errs.KindInternalError, "creating vault cipher", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return errs.Wrap(errs.KindInternalError, "creating vault GCM mode", err)
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return errs.Wrap(errs.KindInternalError, "generating vault nonce", err)
	}
	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	data, err := json.MarshalIndent(keyFile{
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: ciphertext,
		UpdatedAt:  time.Now(),
	}, "", "  ")
	if err != nil {
		return errs.Wrap(errs.KindInternalError, "marshaling vault entry", err)
	}

	if err := os.MkdirAll(filepath.Dir(v.path), 0700); err != nil {
		return errs.Wrap(errs.KindInternalError, "creating vault directory", err)
	}
	if err := os.WriteFile(v.path, data, 0600); err != nil {
		return errs.Wrap(errs.KindInternalError, "writing vault file", err)
	}
	return nil
}

// Load decrypts and parses the signing key at the vault's path.
func (v *Vault) Load(passphrase string) (*cryptoauth.SigningKey, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	raw, err := os.ReadFile(v.path)
	if err != nil {
		return nil, errs.Wrap(errs.KindInternalError, "reading vault file", err)
	}
	var kf keyFile
	if err := json.Unmarshal(raw, &kf); err != nil {
		return nil, errs.Wrap(errs.KindInternalError, "parsing vault file", err)
	}

	derived := pbkdf2.Key([]byte(passphrase), kf.Salt, pbkdf2Iterations, 32, sha256.New)
	block, err := aes.NewCipher(derived)
	if err != nil {
		return nil, errs.Wrap(errs.KindInternalError, "creating vault cipher", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errs.Wrap(errs.KindInternalError, "creating vault GCM mode", err)
	}
	plaintext, err := gcm.Open(nil, kf.Nonce, kf.Ciphertext, nil)
	if err != nil {
		return nil, errs.New(errs.KindInternalError, fmt.Sprintf("%s: wrong passphrase or corrupt vault", v.path))
	}

	priv, err := cryptoauth.DecodePrivateKeyPEM(plaintext)
	if err != nil {
		return nil, err
	}
	return &cryptoauth.SigningKey{Private: priv}, nil
}
