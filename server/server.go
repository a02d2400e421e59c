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

// Package server is the listening-side peer facade: it accepts
// connections, runs the STSM handshake, and drives session operations
// against a per-user pool until the client says goodbye. Grounded on SAGE
// cmd/test-server/main.go's shape (construct dependencies, net.Listen,
// serve) generalized from an inline main() into a reusable Server type,
// with one goroutine per accepted connection per spec §5's concurrency
// model (an explicit redesign from the reference's cooperative select
// loop, see SPEC_FULL.md §5 and DESIGN.md's connmgr entry).
package server

import (
	"net"

	"safecloud.example/safecloud/connmgr"
	"safecloud.example/safecloud/cryptoauth"
	"safecloud.example/safecloud/errs"
	"safecloud.example/safecloud/identity"
	"safecloud.example/safecloud/internal/logger"
	"safecloud.example/safecloud/internal/metrics"
	"safecloud.example/safecloud/pool"
	"safecloud.example/safecloud/sessionop"
	"safecloud.example/safecloud/stsm"
)

// Server listens for connections and serves each one's STSM handshake and
// session operations until the client disconnects.
type Server struct {
	listener net.Listener
	identity *cryptoauth.SigningKey
	cert     []byte
	registry *identity.Registry
	poolRoot string
	log      logger.Logger
}

// New binds a Server to addr. Identity is the server's own signing key and
// certificate (shown to clients in SrvAuth); registry resolves a client's
// username to its RSA public key during CliAuth; poolRoot is the directory
// each authenticated user's flat storage pool lives under.
func New(addr string, key *cryptoauth.SigningKey, cert []byte, registry *identity.Registry, poolRoot string) (*Server, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errs.Wrap(errs.KindInternalError, "listening on "+addr, err)
	}
	return &Server{
		listener: lis,
		identity: key,
		cert:     cert,
		registry: registry,
		poolRoot: poolRoot,
		log:      logger.GetDefaultLogger(),
	}, nil
}

// Addr returns the address the server is actually listening on (useful
// when addr was passed as "host:0").
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve accepts connections until the listener is closed, handling each on
// its own goroutine. It returns once Close stops the listener.
func (s *Server) Serve() error {
	for {
		nc, err := s.listener.Accept()
		if err != nil {
			return errs.Wrap(errs.KindPeerDisconnected, "accepting connection", err)
		}
		metrics.ConnectionsAccepted.Inc()
		go s.handleConn(nc)
	}
}

// Close stops accepting new connections.
func (s *Server) Close() error {
	return s.listener.Close()
}

func (s *Server) handleConn(nc net.Conn) {
	remote := nc.RemoteAddr().String()
	conn := connmgr.NewHandshaking(nc)
	defer conn.Close()

	srvID := stsm.ServerIdentity{
		PrivateKey:   s.identity,
		Certificate:  s.cert,
		LookupClient: s.registry.Lookup,
	}
	result, username, err := stsm.RunServer(conn.Framer(), srvID)
	if err != nil {
		s.log.Warn("handshake failed", logger.ErrKind(err), logger.ConnID(remote))
		return
	}
	if err := conn.Finalize(result.SessionKey, result.IV, username); err != nil {
		s.log.Error("finalizing connection after handshake", logger.ErrKind(err), logger.ConnID(remote), logger.Username(username))
		return
	}
	s.log.Info("handshake completed", logger.ConnID(remote), logger.Username(username))

	userPool, err := pool.Open(s.poolRoot, username)
	if err != nil {
		s.log.Error("opening pool for authenticated user", logger.ErrKind(err), logger.ConnID(remote), logger.Username(username))
		return
	}
	defer userPool.Close()

	ch, err := conn.Channel()
	if err != nil {
		s.log.Error("obtaining session channel", logger.ErrKind(err), logger.ConnID(remote), logger.Username(username))
		return
	}

	for {
		bye, err := sessionop.ServeOne(ch, userPool)
		if err != nil {
			if errs.Is(err, errs.KindPeerDisconnected) {
				return
			}
			s.log.Warn("session operation failed", logger.ErrKind(err), logger.ConnID(remote), logger.Username(username))
			if errs.SeverityOfErr(err) == errs.Fatal {
				return
			}
			continue
		}
		if bye {
			s.log.Info("session closed", logger.ConnID(remote), logger.Username(username))
			return
		}
	}
}
