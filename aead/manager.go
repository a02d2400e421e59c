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

// Package aead implements the staged AES-128-GCM cipher wrapper: an
// explicit Ready/EncAAD/EncData/DecAAD/DecData state machine over the
// connection's IV and session key, so callers cannot forget the AAD step
// or finalize twice. Unlike crypto/cipher's single-shot AEAD, EncryptData
// may be called any number of times before EncryptFinal — the session
// envelope calls it once per message, the raw upload/download/list
// sub-phase calls it once per streamed chunk of a large file, all under
// one tag computed at finalization.
package aead

import (
	"crypto/aes"
	"crypto/subtle"

	"safecloud.example/safecloud/errs"
	"safecloud.example/safecloud/iv"
)

// KeySize is the session key length in bytes (AES-128).
const KeySize = 16

// TagSize is the GCM authentication tag length in bytes.
const TagSize = 16

// State is the manager's current stage.
type State int

const (
	Ready State = iota
	EncAAD
	EncData
	DecAAD
	DecData
)

// Manager is a staged AES-128-GCM cipher bound to one connection's session
// key and IV. It is not safe for concurrent use; the connection manager
// serializes all calls through the connection's single goroutine.
type Manager struct {
	cipher *aesCipher
	iv     *iv.IV

	state   State
	gh      *ghash
	ctr     *ctrStream
	aadLen  int
	ctLen   int
	tagMask [TagSize]byte
}

// NewManager binds a Manager to the given 16-byte session key and the
// connection's shared IV. The Manager does not take ownership of key; the
// caller zeroizes it separately per the connection manager's zeroization
// discipline.
func NewManager(key [KeySize]byte, connIV *iv.IV) (*Manager, error) {
	c, err := newAESCipher(key)
	if err != nil {
		return nil, errs.Wrap(errs.KindInternalError, "creating AES block cipher", err)
	}
	return &Manager{cipher: c, iv: connIV, state: Ready}, nil
}

func (m *Manager) requireState(want ...State) error {
	for _, s := range want {
		if m.state == s {
			return nil
		}
	}
	return errs.New(errs.KindInvalidState, "aead manager called out of sequence")
}

// setup derives H, J0-based tag mask, and the keystream generator for the
// nonce currently held in the connection IV. Shared by encrypt and decrypt
// init paths since both read the same IV value (the peers never encrypt
// and decrypt concurrently on the same IV counter value).
func (m *Manager) setup() {
	var zero [blockSize]byte
	h := m.cipher.encryptBlock(zero)

	nonce := m.iv.AsGCM()
	var j0 [blockSize]byte
	copy(j0[:12], nonce[:])
	j0[15] = 1

	m.tagMask = m.cipher.encryptBlock(j0)
	m.gh = newGHASH(h)
	m.ctr = newCTRStream(m.cipher, j0)
	m.aadLen = 0
	m.ctLen = 0
}

// EncryptInit moves Ready -> EncAAD, binding the current IV and key.
func (m *Manager) EncryptInit() error {
	if err := m.requireState(Ready); err != nil {
		return err
	}
	m.setup()
	m.state = EncAAD
	return nil
}

// EncryptAAD absorbs the (possibly zero-length) additional authenticated
// data. EncAAD -> EncData. Calling it more than once per operation is a
// programmer error rejected with InvalidState.
func (m *Manager) EncryptAAD(aad []byte) error {
	if err := m.requireState(EncAAD); err != nil {
		return err
	}
	m.gh.absorb(aad)
	m.gh.endField()
	m.aadLen = len(aad)
	m.state = EncData
	return nil
}

// EncryptData encrypts one chunk of plaintext into out (len(out) must equal
// len(plain)), returning the cumulative ciphertext size written so far
// across all calls in this operation. It may be called from EncAAD (an
// implicit zero-length AAD) or EncData (streaming continuation). The
// plaintext buffer is zeroized before return.
func (m *Manager) EncryptData(plain, out []byte) (int, error) {
	if err := m.requireState(EncAAD, EncData); err != nil {
		return 0, err
	}
	if len(plain) <= 0 {
		return 0, errs.New(errs.KindBufferSize, "encrypt_data requires a positive-length input")
	}
	if len(out) < len(plain) {
		return 0, errs.New(errs.KindBufferSize, "output buffer smaller than input")
	}
	if m.state == EncAAD {
		m.gh.endField()
		m.state = EncData
	}

	m.ctr.xorKeyStream(out[:len(plain)], plain)
	m.gh.absorb(out[:len(plain)])
	m.ctLen += len(plain)

	zeroize(plain)

	return m.ctLen, nil
}

// EncryptFinal writes the 16-byte tag to tagOut, bumps the connection IV
// exactly once, and returns to Ready.
func (m *Manager) EncryptFinal(tagOut *[TagSize]byte) (int, error) {
	if err := m.requireState(EncAAD, EncData); err != nil {
		return 0, err
	}
	if m.state == EncAAD {
		m.gh.endField()
	}
	s := m.gh.absorbLengths(m.aadLen, m.ctLen)
	var tag [blockSize]byte
	for i := range tag {
		tag[i] = s[i] ^ m.tagMask[i]
	}
	*tagOut = tag

	total := m.ctLen
	m.reset()
	m.iv.Bump()
	return total, nil
}

// DecryptInit moves Ready -> DecAAD, binding the current IV and key.
func (m *Manager) DecryptInit() error {
	if err := m.requireState(Ready); err != nil {
		return err
	}
	m.setup()
	m.state = DecAAD
	return nil
}

// DecryptAAD is the decrypt-side mirror of EncryptAAD.
func (m *Manager) DecryptAAD(aad []byte) error {
	if err := m.requireState(DecAAD); err != nil {
		return err
	}
	m.gh.absorb(aad)
	m.gh.endField()
	m.aadLen = len(aad)
	m.state = DecData
	return nil
}

// DecryptData decrypts one chunk of ciphertext into out, returning the
// cumulative plaintext size produced so far. Tag verification happens only
// at DecryptFinal, so a corrupted chunk is only detected once the whole
// message/stream has arrived — matching the wire layer's single trailing
// tag per operation.
func (m *Manager) DecryptData(ciphertext, out []byte) (int, error) {
	if err := m.requireState(DecAAD, DecData); err != nil {
		return 0, err
	}
	if len(ciphertext) <= 0 {
		return 0, errs.New(errs.KindBufferSize, "decrypt_data requires a positive-length input")
	}
	if len(out) < len(ciphertext) {
		return 0, errs.New(errs.KindBufferSize, "output buffer smaller than input")
	}
	if m.state == DecAAD {
		m.gh.endField()
		m.state = DecData
	}

	m.gh.absorb(ciphertext)
	m.ctr.xorKeyStream(out[:len(ciphertext)], ciphertext)
	m.ctLen += len(ciphertext)

	return m.ctLen, nil
}

// DecryptFinal verifies expectedTag in constant time, bumps the IV exactly
// once regardless of outcome (the IVs stay synchronized even on a tag
// failure, which is why a bad tag is session-recoverable rather than
// fatal), and returns to Ready.
func (m *Manager) DecryptFinal(expectedTag [TagSize]byte) error {
	if err := m.requireState(DecAAD, DecData); err != nil {
		return err
	}
	if m.state == DecAAD {
		m.gh.endField()
	}
	s := m.gh.absorbLengths(m.aadLen, m.ctLen)
	var tag [blockSize]byte
	for i := range tag {
		tag[i] = s[i] ^ m.tagMask[i]
	}

	m.reset()
	m.iv.Bump()

	if subtle.ConstantTimeCompare(tag[:], expectedTag[:]) != 1 {
		return errs.New(errs.KindDecryptVerifyFailed, "GCM tag verification failed")
	}
	return nil
}

func (m *Manager) reset() {
	m.state = Ready
	m.gh = nil
	m.ctr = nil
	m.aadLen = 0
	m.ctLen = 0
	var z [TagSize]byte
	m.tagMask = z
}

// Zero clears the manager's working state and drops its cipher and IV
// references, called by the connection manager on teardown. crypto/aes's
// cipher.Block keeps no exported key bytes to overwrite; dropping the last
// reference to it is this layer's half of the zeroization discipline, the
// other half being the caller zeroizing the raw key array it passed in.
func (m *Manager) Zero() {
	m.reset()
	m.cipher = nil
	m.iv = nil
}

func zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// aesCipher wraps crypto/aes for single-block operations used by GHASH (the
// hash subkey and tag mask) and the CTR keystream generator below.
type aesCipher struct {
	block cipherBlock
}

type cipherBlock interface {
	Encrypt(dst, src []byte)
}

func newAESCipher(key [KeySize]byte) (*aesCipher, error) {
	b, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	return &aesCipher{block: b}, nil
}

func (c *aesCipher) encryptBlock(in [blockSize]byte) [blockSize]byte {
	var out [blockSize]byte
	c.block.Encrypt(out[:], in[:])
	return out
}

// ctrStream produces the AES-CTR keystream GCM uses for its ciphertext,
// starting at inc32(j0) per NIST SP 800-38D.
type ctrStream struct {
	cipher  *aesCipher
	counter [blockSize]byte
	keystream [blockSize]byte
	used    int
}

func newCTRStream(c *aesCipher, j0 [blockSize]byte) *ctrStream {
	s := &ctrStream{cipher: c, counter: j0}
	incCounter32(&s.counter)
	s.used = blockSize
	return s
}

func incCounter32(b *[blockSize]byte) {
	for i := blockSize - 1; i >= blockSize-4; i-- {
		b[i]++
		if b[i] != 0 {
			break
		}
	}
}

func (s *ctrStream) xorKeyStream(dst, src []byte) {
	for i := 0; i < len(src); i++ {
		if s.used == blockSize {
			s.keystream = s.cipher.encryptBlock(s.counter)
			incCounter32(&s.counter)
			s.used = 0
		}
		dst[i] = src[i] ^ s.keystream[s.used]
		s.used++
	}
}
