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

// Package config loads and validates SafeCloud server/client configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadFromFile reads a YAML (or, as a fallback, JSON) config file and
// applies defaults to any field left unset.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return nil, fmt.Errorf("failed to parse config file (tried YAML and JSON): %w", err)
		}
	}

	setDefaults(cfg)

	return cfg, nil
}

// SaveToFile writes cfg back out, choosing JSON or YAML by file extension.
func SaveToFile(cfg *Config, path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".json") {
		data, err = json.MarshalIndent(cfg, "", "  ")
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setDefaults fills in every field a fresh Config (or one loaded from a
// partial file) needs before it can be handed to a server or client.
func setDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	if cfg.Server == nil {
		cfg.Server = &ServerConfig{}
	}
	if cfg.Server.BindAddr == "" {
		cfg.Server.BindAddr = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 9120
	}

	if cfg.Client == nil {
		cfg.Client = &ClientConfig{}
	}
	if cfg.Client.DefaultAddr == "" {
		cfg.Client.DefaultAddr = "127.0.0.1"
	}
	if cfg.Client.DefaultPort == 0 {
		cfg.Client.DefaultPort = 9120
	}
	if cfg.Client.DialTimeout == 0 {
		cfg.Client.DialTimeout = 10 * time.Second
	}

	if cfg.Identity == nil {
		cfg.Identity = &IdentityConfig{}
	}
	if cfg.Identity.PrivateKeyPath == "" {
		cfg.Identity.PrivateKeyPath = ".safecloud/key.pem"
	}
	if cfg.Identity.CertPath == "" {
		cfg.Identity.CertPath = ".safecloud/cert.pem"
	}
	if cfg.Identity.TrustedCAPath == "" {
		cfg.Identity.TrustedCAPath = ".safecloud/ca.pem"
	}
	if cfg.Identity.UsersDir == "" {
		cfg.Identity.UsersDir = ".safecloud/users"
	}

	if cfg.Pool == nil {
		cfg.Pool = &PoolConfig{}
	}
	if cfg.Pool.RootDir == "" {
		cfg.Pool.RootDir = ".safecloud/pool"
	}
	if cfg.Pool.TempDir == "" {
		cfg.Pool.TempDir = ".safecloud/tmp"
	}

	if cfg.Session == nil {
		cfg.Session = &SessionConfig{}
	}
	if cfg.Session.HandshakeTimeout == 0 {
		cfg.Session.HandshakeTimeout = 15 * time.Second
	}
	if cfg.Session.MaxIdleTime == 0 {
		cfg.Session.MaxIdleTime = 5 * time.Minute
	}

	if cfg.Logging == nil {
		cfg.Logging = &LoggingConfig{}
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Metrics == nil {
		cfg.Metrics = &MetricsConfig{}
	}
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = "127.0.0.1:9121"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}
