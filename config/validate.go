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

import "fmt"

// ValidationError reports one problem found by ValidateConfiguration.
// Level is either "error" (Load fails) or "warn" (Load proceeds).
type ValidationError struct {
	Field   string
	Message string
	Level   string
}

func (e ValidationError) String() string {
	return fmt.Sprintf("[%s] %s: %s", e.Level, e.Field, e.Message)
}

// ValidateConfiguration checks a fully-defaulted Config for values that
// would make a server or client fail at startup.
func ValidateConfiguration(cfg *Config) []ValidationError {
	var errs []ValidationError

	if cfg.Server != nil {
		if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
			errs = append(errs, ValidationError{
				Field: "server.port", Message: "must be between 1 and 65535", Level: "error",
			})
		}
	}

	if cfg.Client != nil {
		if cfg.Client.DefaultPort <= 0 || cfg.Client.DefaultPort > 65535 {
			errs = append(errs, ValidationError{
				Field: "client.default_port", Message: "must be between 1 and 65535", Level: "error",
			})
		}
	}

	if cfg.Pool != nil && cfg.Pool.RootDir == "" {
		errs = append(errs, ValidationError{
			Field: "pool.root_dir", Message: "must not be empty", Level: "error",
		})
	}

	if cfg.Logging != nil {
		switch cfg.Logging.Level {
		case "debug", "info", "warn", "error":
		default:
			errs = append(errs, ValidationError{
				Field: "logging.level", Message: "unrecognized level, defaulting behavior is undefined", Level: "warn",
			})
		}
	}

	return errs
}
