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

// Package client is the dialing-side peer facade: it connects, runs the
// STSM handshake as the client, and exposes the resulting sessionop.Channel
// for the caller (a CLI, a test, another library) to drive operations
// through. Grounded on SAGE cmd/test-client/main.go's shape, generalized
// into a reusable constructor.
package client

import (
	"net"
	"time"

	"safecloud.example/safecloud/connmgr"
	"safecloud.example/safecloud/errs"
	"safecloud.example/safecloud/sessionmsg"
	"safecloud.example/safecloud/sessionop"
	"safecloud.example/safecloud/stsm"
)

// Client is one connected, authenticated session against a SafeCloud
// server. Spec §1 Non-goals excludes multi-session concurrency: a Client
// drives exactly one connection.
type Client struct {
	conn *connmgr.Conn
	ch   *sessionop.Channel
}

// Dial connects to addr, runs the STSM handshake as id, and returns a ready
// Client. dialTimeout bounds only the TCP connect; the handshake itself has
// no separate deadline here (spec §5's session timeout is out of this
// layer's scope — a caller wanting one can wrap Dial's net.Conn).
func Dial(addr string, dialTimeout time.Duration, id stsm.ClientIdentity) (*Client, error) {
	nc, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return nil, errs.Wrap(errs.KindPeerDisconnected, "dialing "+addr, err)
	}
	conn := connmgr.NewHandshaking(nc)

	result, err := stsm.RunClient(conn.Framer(), id)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := conn.Finalize(result.SessionKey, result.IV, id.Username); err != nil {
		conn.Close()
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &Client{conn: conn, ch: ch}, nil
}

// Channel exposes the session channel sessionop's Upload/Download/Delete/
// Rename/List operations drive directly.
func (c *Client) Channel() *sessionop.Channel {
	return c.ch
}

// Close sends Bye and tears down the connection, zeroizing its key
// material.
func (c *Client) Close() error {
	_ = c.ch.SendMsg(sessionmsg.TypeBye, nil)
	return c.conn.Close()
}
