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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "safecloud.yaml")

	content := `environment: staging
server:
  bind_addr: "0.0.0.0"
  port: 9200
pool:
  root_dir: /var/lib/safecloud/pool
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg, err := LoadFromFile(configPath)
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, 9200, cfg.Server.Port)
	assert.Equal(t, "/var/lib/safecloud/pool", cfg.Pool.RootDir)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Defaults fill in everything the file didn't set.
	assert.Equal(t, "127.0.0.1", cfg.Client.DefaultAddr)
	assert.NotZero(t, cfg.Session.HandshakeTimeout)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.Error(t, err)
}

func TestSaveAndReloadRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	yamlPath := filepath.Join(tmpDir, "out.yaml")
	jsonPath := filepath.Join(tmpDir, "out.json")

	cfg := &Config{}
	setDefaults(cfg)
	cfg.Server.Port = 12345

	require.NoError(t, SaveToFile(cfg, yamlPath))
	require.NoError(t, SaveToFile(cfg, jsonPath))

	reloaded, err := LoadFromFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, 12345, reloaded.Server.Port)

	reloadedJSON, err := LoadFromFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, 12345, reloadedJSON.Server.Port)
}

func TestSetDefaults(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 9120, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.BindAddr)
	assert.Equal(t, 9120, cfg.Client.DefaultPort)
	assert.Equal(t, ".safecloud/pool", cfg.Pool.RootDir)
	assert.Equal(t, ".safecloud/tmp", cfg.Pool.TempDir)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Metrics.Enabled)
}
