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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateConfigurationOK(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)

	errs := ValidateConfiguration(cfg)
	assert.Empty(t, errs)
}

func TestValidateConfigurationBadPort(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)
	cfg.Server.Port = 0

	errs := ValidateConfiguration(cfg)
	require := assert.New(t)
	require.Len(errs, 1)
	require.Equal("server.port", errs[0].Field)
	require.Equal("error", errs[0].Level)
}

func TestValidateConfigurationUnknownLogLevelIsWarnOnly(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)
	cfg.Logging.Level = "trace"

	errs := ValidateConfiguration(cfg)
	assert.Len(t, errs, 1)
	assert.Equal(t, "warn", errs[0].Level)
}
