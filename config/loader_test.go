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

func TestLoadWithNoFilesFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(LoaderOptions{ConfigDir: t.TempDir(), Environment: "development"})
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 9120, cfg.Server.Port)
}

func TestLoadPicksEnvironmentFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "staging.yaml"), []byte("server:\n  port: 7000\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "default.yaml"), []byte("server:\n  port: 8000\n"), 0644))

	cfg, err := Load(LoaderOptions{ConfigDir: dir, Environment: "staging"})
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
}

func TestLoadEnvironmentOverride(t *testing.T) {
	os.Setenv("SAFECLOUD_SERVER_PORT", "31337")
	defer os.Unsetenv("SAFECLOUD_SERVER_PORT")

	cfg, err := Load(LoaderOptions{ConfigDir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, 31337, cfg.Server.Port)
}

func TestLoadValidationFailure(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "default.yaml"), []byte("server:\n  port: 99999\n"), 0644))

	_, err := Load(LoaderOptions{ConfigDir: dir})
	assert.Error(t, err)
}

func TestGetEnvironmentDefault(t *testing.T) {
	os.Unsetenv("SAFECLOUD_ENV")
	assert.Equal(t, "development", GetEnvironment())

	os.Setenv("SAFECLOUD_ENV", "production")
	defer os.Unsetenv("SAFECLOUD_ENV")
	assert.Equal(t, "production", GetEnvironment())
}

func TestMustLoadPanicsOnInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "default.yaml"), []byte("server:\n  port: -1\n"), 0644))

	assert.Panics(t, func() {
		MustLoad(LoaderOptions{ConfigDir: dir})
	})
}
