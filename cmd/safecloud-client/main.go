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

// Command safecloud-client is a thin line-oriented driver over the
// sessionop operations; the interactive prompt, banner, and command
// parsing proper belong to spec §1's excluded CLI layer, so this only
// wires flags to a Dial and a minimal command dispatch.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"safecloud.example/safecloud/client"
	"safecloud.example/safecloud/cryptoauth"
	"safecloud.example/safecloud/identity"
	"safecloud.example/safecloud/localfile"
	"safecloud.example/safecloud/sessionmsg"
	"safecloud.example/safecloud/sessionop"
	"safecloud.example/safecloud/stsm"
)

var (
	addr           string
	port           int
	username       string
	privateKeyPath string
	trustedCAPath  string
	crlPath        string
)

var rootCmd = &cobra.Command{
	Use:   "safecloud-client",
	Short: "SafeCloud storage client: connects, authenticates, and runs file operations",
	RunE:  runClient,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.Flags().StringVarP(&addr, "address", "a", "127.0.0.1", "server address")
	rootCmd.Flags().IntVarP(&port, "port", "p", 9120, "server port")
	rootCmd.Flags().StringVarP(&username, "user", "u", "", "username (max 30 bytes)")
	rootCmd.Flags().StringVar(&privateKeyPath, "key", ".safecloud/key.pem", "client private key path")
	rootCmd.Flags().StringVar(&trustedCAPath, "ca", ".safecloud/ca.pem", "trusted CA bundle path")
	rootCmd.Flags().StringVar(&crlPath, "crl", "", "optional CRL path")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runClient(cmd *cobra.Command, args []string) error {
	privPEM, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return err
	}
	priv, err := cryptoauth.DecodePrivateKeyPEM(privPEM)
	if err != nil {
		return err
	}

	trust, err := identity.LoadTrustStore(trustedCAPath, crlPath)
	if err != nil {
		return err
	}

	id := stsm.ClientIdentity{
		Username:   username,
		PrivateKey: &cryptoauth.SigningKey{Private: priv},
		TrustRoots: trust.Roots,
		CRL:        trust.CRL,
	}

	cl, err := client.Dial(fmt.Sprintf("%s:%d", addr, port), 10*time.Second, id)
	if err != nil {
		return err
	}
	defer cl.Close()

	fmt.Printf("connected as %s\n", username)
	return repl(cl)
}

func repl(cl *client.Client) error {
	local := localfile.New(".")
	ch := cl.Channel()
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("safecloud> ")
		if !scanner.Scan() {
			return nil
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if err := dispatch(ch, local, fields); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
}

func dispatch(ch *sessionop.Channel, local *localfile.Dir, fields []string) error {
	// sessionop already decides whether a prompt is warranted at all (the
	// metadata tie-break policy); these stand in for the interactive
	// prompt itself, which spec §1 Non-goals excludes from this layer.
	confirmAlways := func(local, remote sessionmsg.FileInfo) bool { return true }
	deleteConfirm := func(remote sessionmsg.FileInfo) bool { return true }

	switch fields[0] {
	case "upload":
		if len(fields) != 2 {
			return fmt.Errorf("usage: upload <path>")
		}
		return sessionop.Upload(ch, local, fields[1], confirmAlways)
	case "download":
		if len(fields) != 3 {
			return fmt.Errorf("usage: download <name> <dest>")
		}
		return sessionop.Download(ch, local, fields[1], fields[2], confirmAlways)
	case "delete":
		if len(fields) != 2 {
			return fmt.Errorf("usage: delete <name>")
		}
		return sessionop.Delete(ch, fields[1], deleteConfirm)
	case "rename":
		if len(fields) != 3 {
			return fmt.Errorf("usage: rename <old> <new>")
		}
		return sessionop.Rename(ch, fields[1], fields[2])
	case "list":
		files, err := sessionop.List(ch)
		if err != nil {
			return err
		}
		for _, f := range files {
			fmt.Printf("%s\t%d\n", f.Name, f.Size)
		}
		return nil
	case "quit", "exit":
		os.Exit(0)
	}
	return fmt.Errorf("unknown command %q", fields[0])
}
