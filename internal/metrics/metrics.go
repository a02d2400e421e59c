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

// Package metrics exposes Prometheus counters and histograms for the
// connection, handshake and session-operation lifecycle.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "safecloud"

// Registry is a dedicated registry so tests can instantiate their own
// collector set without colliding with the global prometheus registry.
var Registry = prometheus.NewRegistry()

var (
	// ConnectionsAccepted counts accepted TCP connections, server side.
	ConnectionsAccepted = promauto.With(Registry).NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "connmgr",
		Name:      "connections_accepted_total",
		Help:      "Total number of connections accepted by the server.",
	})

	// HandshakesCompleted tracks STSM handshake outcomes by status.
	HandshakesCompleted = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "stsm",
		Name:      "handshakes_completed_total",
		Help:      "Total number of STSM handshakes completed, by status.",
	}, []string{"status"}) // ok, cert_rejected, auth_failed, login_failed

	// HandshakeDuration tracks handshake wall-clock time.
	HandshakeDuration = promauto.With(Registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "stsm",
		Name:      "handshake_duration_seconds",
		Help:      "STSM handshake duration in seconds.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	})

	// OperationsCompleted tracks session operations by kind and outcome.
	OperationsCompleted = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sessionop",
		Name:      "operations_completed_total",
		Help:      "Total number of session operations completed, by kind and outcome.",
	}, []string{"kind", "outcome"}) // kind: upload/download/delete/rename/list; outcome: ok/cancelled/error

	// BytesTransferred counts raw payload bytes moved in the streaming sub-phase.
	BytesTransferred = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sessionop",
		Name:      "bytes_transferred_total",
		Help:      "Total raw bytes transferred in streaming sub-phases, by direction.",
	}, []string{"direction"}) // sent, received

	// SessionResets counts transitions back to Idle caused by a recoverable error.
	SessionResets = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sessionop",
		Name:      "session_resets_total",
		Help:      "Total number of session-recoverable resets to Idle, by cause.",
	}, []string{"cause"})
)

// Handler returns an HTTP handler serving the registry in Prometheus format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
