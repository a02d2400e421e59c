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

package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"safecloud.example/safecloud/config"
	"safecloud.example/safecloud/cryptoauth"
	"safecloud.example/safecloud/identity"
	"safecloud.example/safecloud/internal/logger"
	"safecloud.example/safecloud/internal/metrics"
	"safecloud.example/safecloud/server"
)

var (
	configPath string
	bindAddr   string
	bindPort   int
)

var rootCmd = &cobra.Command{
	Use:   "safecloud-server",
	Short: "SafeCloud storage server: accepts authenticated, encrypted file sessions",
	RunE:  runServe,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (YAML or JSON)")
	rootCmd.Flags().StringVarP(&bindAddr, "address", "a", "", "bind address (overrides config)")
	rootCmd.Flags().IntVarP(&bindPort, "port", "p", 0, "bind port (overrides config)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := &config.Config{}
	if configPath != "" {
		loaded, err := config.LoadFromFile(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if cfg.Server == nil {
		cfg.Server = &config.ServerConfig{BindAddr: "0.0.0.0", Port: 9120}
	}
	if bindAddr != "" {
		cfg.Server.BindAddr = bindAddr
	}
	if bindPort != 0 {
		cfg.Server.Port = bindPort
	}
	if cfg.Identity == nil {
		cfg.Identity = &config.IdentityConfig{
			PrivateKeyPath: ".safecloud/key.pem",
			CertPath:       ".safecloud/cert.pem",
			TrustedCAPath:  ".safecloud/ca.pem",
			UsersDir:       ".safecloud/users",
		}
	}
	if cfg.Pool == nil {
		cfg.Pool = &config.PoolConfig{RootDir: ".safecloud/pool"}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = &config.MetricsConfig{Enabled: false, Addr: "127.0.0.1:9121", Path: "/metrics"}
	}

	log := logger.GetDefaultLogger()

	privPEM, err := os.ReadFile(cfg.Identity.PrivateKeyPath)
	if err != nil {
		return err
	}
	priv, err := cryptoauth.DecodePrivateKeyPEM(privPEM)
	if err != nil {
		return err
	}
	signingKey := &cryptoauth.SigningKey{Private: priv}

	cert, err := os.ReadFile(cfg.Identity.CertPath)
	if err != nil {
		return err
	}

	registry, err := identity.LoadRegistry(cfg.Identity.UsersDir)
	if err != nil {
		return err
	}
	log.Info("loaded user registry", logger.Int("count", len(registry.Usernames())))

	addr := fmt.Sprintf("%s:%d", cfg.Server.BindAddr, cfg.Server.Port)
	srv, err := server.New(addr, signingKey, cert, registry, cfg.Pool.RootDir)
	if err != nil {
		return err
	}
	log.Info("listening", logger.String("addr", srv.Addr().String()))

	if cfg.Metrics.Enabled {
		go func() {
			mux := http.NewServeMux()
			mux.Handle(cfg.Metrics.Path, metrics.Handler())
			log.Info("metrics endpoint", logger.String("addr", cfg.Metrics.Addr))
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
				log.Error("metrics server stopped", logger.Error(err))
			}
		}()
	}

	return srv.Serve()
}
