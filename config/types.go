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

package config

import "time"

// Config is the top-level configuration for either a server or a client
// process. Fields unused by a given binary are simply left at their
// defaults.
type Config struct {
	Environment string          `yaml:"environment" json:"environment"`
	Server      *ServerConfig   `yaml:"server" json:"server"`
	Client      *ClientConfig   `yaml:"client" json:"client"`
	Identity    *IdentityConfig `yaml:"identity" json:"identity"`
	Pool        *PoolConfig     `yaml:"pool" json:"pool"`
	Session     *SessionConfig  `yaml:"session" json:"session"`
	Logging     *LoggingConfig  `yaml:"logging" json:"logging"`
	Metrics     *MetricsConfig  `yaml:"metrics" json:"metrics"`
}

// ServerConfig controls the listening side of the STSM handshake.
type ServerConfig struct {
	BindAddr string `yaml:"bind_addr" json:"bind_addr"`
	Port     int    `yaml:"port" json:"port"`
}

// ClientConfig controls the dialing side of the STSM handshake.
type ClientConfig struct {
	DefaultAddr string        `yaml:"default_addr" json:"default_addr"`
	DefaultPort int           `yaml:"default_port" json:"default_port"`
	DialTimeout time.Duration `yaml:"dial_timeout" json:"dial_timeout"`
}

// IdentityConfig locates the RSA key material and trust anchors each peer
// uses during the handshake.
type IdentityConfig struct {
	PrivateKeyPath   string `yaml:"private_key_path" json:"private_key_path"`
	CertPath         string `yaml:"cert_path" json:"cert_path"`
	TrustedCAPath    string `yaml:"trusted_ca_path" json:"trusted_ca_path"`
	CRLPath          string `yaml:"crl_path,omitempty" json:"crl_path,omitempty"`
	PassphraseEnvVar string `yaml:"passphrase_env_var,omitempty" json:"passphrase_env_var,omitempty"`
	// UsersDir holds one PEM-encoded RSA public key per file, named
	// <username>.pem; the server loads it into its identity.Registry at
	// startup. Client configs leave this unset.
	UsersDir string `yaml:"users_dir,omitempty" json:"users_dir,omitempty"`
}

// PoolConfig locates the server's per-user flat storage roots.
type PoolConfig struct {
	RootDir string `yaml:"root_dir" json:"root_dir"`
	TempDir string `yaml:"temp_dir" json:"temp_dir"`
}

// SessionConfig bounds the lifetime of a handshake and an idle session.
type SessionConfig struct {
	HandshakeTimeout time.Duration `yaml:"handshake_timeout" json:"handshake_timeout"`
	MaxIdleTime      time.Duration `yaml:"max_idle_time" json:"max_idle_time"`
}

// LoggingConfig mirrors internal/logger's Level/output knobs.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Output string `yaml:"output" json:"output"` // stdout, stderr, file path
}

// MetricsConfig controls whether the server exposes a Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Addr    string `yaml:"addr" json:"addr"`
	Path    string `yaml:"path" json:"path"`
}
