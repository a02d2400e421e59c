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

package framing

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safecloud.example/safecloud/errs"
)

func pipePair() (*Framer, *Framer) {
	a, b := net.Pipe()
	return New(a), New(b)
}

func TestSendMessageRoundTrip(t *testing.T) {
	client, server := pipePair()
	defer client.Close()
	defer server.Close()

	done := make(chan error, 1)
	go func() {
		done <- client.SendMessage([]byte{0x01, 'h', 'i'})
	}()

	got, err := server.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, <-done)

	assert.Equal(t, []byte{0x01, 'h', 'i'}, got)
}

func TestReadMessageRejectsTooShortLength(t *testing.T) {
	client, server := pipePair()
	defer client.Close()
	defer server.Close()

	go func() {
		// length prefix of 2 is below MsgMin (3).
		_ = client.Send([]byte{0x00, 0x02})
	}()

	_, err := server.ReadMessage()
	assert.True(t, errs.Is(err, errs.KindInvalidLength))
}

func TestSendRejectsOversizedPayload(t *testing.T) {
	client, _ := pipePair()
	defer client.Close()

	err := client.Send(make([]byte, PrimaryBufCapacity+1))
	assert.True(t, errs.Is(err, errs.KindBufferOverflow))
}

func TestReadRawRespectsBufferBoundary(t *testing.T) {
	client, server := pipePair()
	defer client.Close()
	defer server.Close()

	payload := []byte("0123456789")
	go func() {
		_ = client.Send(payload)
	}()

	buf := make([]byte, 4)
	n, err := server.ReadRaw(buf)
	require.NoError(t, err)
	assert.LessOrEqual(t, n, 4)
}

func TestReadMessageOnClosedConnReportsPeerDisconnected(t *testing.T) {
	client, server := pipePair()
	client.Close()

	_, err := server.ReadMessage()
	assert.True(t, errs.Is(err, errs.KindPeerDisconnected))
	server.Close()
}

func TestSendOnClosedConnReportsFailure(t *testing.T) {
	client, server := pipePair()
	server.Close()
	time.Sleep(10 * time.Millisecond)

	err := client.Send([]byte{0x00, 0x03, 0x01})
	assert.Error(t, err)
	client.Close()
}
