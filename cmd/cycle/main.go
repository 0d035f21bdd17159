// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package main implements the cycle command: the federation HTTP service
// and a small client for browsing repositories and links in-process.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootOptions struct {
	principal string
	session   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "cycle",
		Short: "Federated repository facade",
		Long: `cycle presents several model repositories as one tree.

Settings are read from the environment (CYCLE_LINK_STORE, CYCLE_FS_ROOT,
CYCLE_SIGNAVIO_URL, DATABASE_URL, ...). The ls, cat and links commands run
against an in-process federation service for --principal.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.principal, "principal", "p", defaultPrincipal(), "Principal whose configuration is used")
	rootCmd.PersistentFlags().StringVar(&opts.session, "session", "cli", "Session id")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(lsCmd(opts))
	rootCmd.AddCommand(catCmd(opts))
	rootCmd.AddCommand(linksCmd(opts))

	return rootCmd
}

func defaultPrincipal() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "anonymous"
}
