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

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// LoaderOptions configures Load.
type LoaderOptions struct {
	// ConfigDir is the directory containing config files (default: ./config).
	ConfigDir string
	// Environment overrides automatic environment detection.
	Environment string
	// SkipValidation disables configuration validation.
	SkipValidation bool
}

// DefaultLoaderOptions returns the default loader options.
func DefaultLoaderOptions() LoaderOptions {
	return LoaderOptions{
		ConfigDir: "config",
	}
}

// GetEnvironment returns the deployment environment name, defaulting to
// "development" when SAFECLOUD_ENV is unset.
func GetEnvironment() string {
	if env := os.Getenv("SAFECLOUD_ENV"); env != "" {
		return env
	}
	return "development"
}

// Load loads configuration with automatic environment detection, falling
// back through <env>.yaml, default.yaml and config.yaml before returning a
// pure-defaults Config.
func Load(opts ...LoaderOptions) (*Config, error) {
	options := DefaultLoaderOptions()
	if len(opts) > 0 {
		options = opts[0]
	}

	env := options.Environment
	if env == "" {
		env = GetEnvironment()
	}

	candidates := []string{
		filepath.Join(options.ConfigDir, env+".yaml"),
		filepath.Join(options.ConfigDir, "default.yaml"),
		filepath.Join(options.ConfigDir, "config.yaml"),
	}

	var cfg *Config
	for _, path := range candidates {
		if c, err := loadConfigFile(path); err == nil {
			cfg = c
			break
		}
	}
	if cfg == nil {
		cfg = &Config{}
		setDefaults(cfg)
	}

	if cfg.Environment == "" {
		cfg.Environment = env
	}

	applyEnvironmentOverrides(cfg)

	if !options.SkipValidation {
		for _, e := range ValidateConfiguration(cfg) {
			if e.Level == "error" {
				return nil, fmt.Errorf("configuration validation failed: %s - %s", e.Field, e.Message)
			}
		}
	}

	return cfg, nil
}

func loadConfigFile(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}
	return LoadFromFile(path)
}

// applyEnvironmentOverrides lets deployment-time env vars win over whatever
// was in the file, without requiring a config file at all.
func applyEnvironmentOverrides(cfg *Config) {
	if addr := os.Getenv("SAFECLOUD_SERVER_BIND_ADDR"); addr != "" {
		cfg.Server.BindAddr = addr
	}
	if port := os.Getenv("SAFECLOUD_SERVER_PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = n
		}
	}
	if dir := os.Getenv("SAFECLOUD_POOL_ROOT"); dir != "" {
		cfg.Pool.RootDir = dir
	}
	if keyPath := os.Getenv("SAFECLOUD_IDENTITY_KEY"); keyPath != "" {
		cfg.Identity.PrivateKeyPath = keyPath
	}
	if level := os.Getenv("SAFECLOUD_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if v := os.Getenv("SAFECLOUD_METRICS_ENABLED"); v == "true" {
		cfg.Metrics.Enabled = true
	} else if v == "false" {
		cfg.Metrics.Enabled = false
	}
}

// LoadForEnvironment is a convenience wrapper around Load for a named
// environment.
func LoadForEnvironment(environment string) (*Config, error) {
	return Load(LoaderOptions{ConfigDir: "config", Environment: environment})
}

// MustLoad loads configuration or panics on error.
func MustLoad(opts ...LoaderOptions) *Config {
	cfg, err := Load(opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}
