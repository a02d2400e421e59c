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

// Package connmgr binds one TCP connection's crypto material (the staged
// AEAD manager, its IV, the framer) together with its lifecycle phase and
// zeroizes everything on teardown. Each Conn owns exactly one connection's
// state; the server creates one Conn per accepted connection and serves each
// on its own goroutine. Unlike SAGE's session/manager.go map-of-sessions
// registry, Conn here owns a single connection's state directly rather than
// indexing many by session ID.
package connmgr

import (
	"net"
	"sync"

	"safecloud.example/safecloud/aead"
	"safecloud.example/safecloud/errs"
	"safecloud.example/safecloud/framing"
	"safecloud.example/safecloud/iv"
	"safecloud.example/safecloud/sessionop"
)

// Phase tracks which part of the protocol a Conn is in.
type Phase int

const (
	// PhaseHandshake is set for the duration of the STSM exchange, before a
	// session key exists.
	PhaseHandshake Phase = iota
	// PhaseSession is set once the handshake completes and the connection
	// is ready to carry envelope-wrapped session messages.
	PhaseSession
	// PhaseClosed is set once Close has run; further use is a programming
	// error.
	PhaseClosed
)

// Conn owns everything tied to one underlying net.Conn's cryptographic
// lifetime: the connection-wide IV, the staged AEAD manager derived from
// the STSM session key, and the length-prefixed framer wrapping the raw
// socket. Close zeroizes the session key and IV, mirroring SAGE
// session.SecureSession.Close's "clear sensitive key material" discipline.
type Conn struct {
	mu    sync.Mutex
	phase Phase

	netConn net.Conn
	framer  *framing.Framer
	iv      *iv.IV
	mgr     *aead.Manager
	key     [aead.KeySize]byte

	// Username is the authenticated user's name, set by Finalize: on the
	// server it is the peer named in STSM's CliAuth message, on the client
	// it is the client's own username.
	Username string
}

// NewHandshaking wraps a freshly-dialed or freshly-accepted net.Conn for the
// STSM exchange. No AEAD manager exists yet; Finalize installs one once the
// handshake derives a session key and IV.
func NewHandshaking(nc net.Conn) *Conn {
	return &Conn{
		netConn: nc,
		framer:  framing.New(nc),
		phase:   PhaseHandshake,
	}
}

// Framer exposes the length-prefixed framer STSM's message exchange uses
// directly, before any AEAD manager exists.
func (c *Conn) Framer() *framing.Framer {
	return c.framer
}

// Finalize installs the session key and IV the handshake derived, moving
// the connection from PhaseHandshake to PhaseSession.
func (c *Conn) Finalize(key [aead.KeySize]byte, connIV *iv.IV, username string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseHandshake {
		return errs.New(errs.KindInternalError, "Finalize called outside the handshake phase")
	}
	mgr, err := aead.NewManager(key, connIV)
	if err != nil {
		return errs.Wrap(errs.KindInternalError, "installing session AEAD manager", err)
	}
	c.key = key
	c.iv = connIV
	c.mgr = mgr
	c.Username = username
	c.phase = PhaseSession
	return nil
}

// Channel returns the sessionop.Channel view of this connection, valid only
// once Finalize has run.
func (c *Conn) Channel() (*sessionop.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseSession {
		return nil, errs.New(errs.KindInternalError, "Channel requested before the handshake finished")
	}
	return &sessionop.Channel{Framer: c.framer, Mgr: c.mgr}, nil
}

// Phase reports the connection's current lifecycle phase.
func (c *Conn) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Close zeroizes the session key, the IV, and the AEAD manager's working
// buffers, then closes the underlying socket. Safe to call more than once.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == PhaseClosed {
		return nil
	}
	for i := range c.key {
		c.key[i] = 0
	}
	if c.iv != nil {
		c.iv.Zero()
	}
	if c.mgr != nil {
		c.mgr.Zero()
	}
	c.phase = PhaseClosed
	return c.netConn.Close()
}
