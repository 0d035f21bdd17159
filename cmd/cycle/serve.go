// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"cycle/api"
	"cycle/shared/logger"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the federation HTTP API",
		Long: `Run the federation HTTP API until interrupted.

Examples:
  cycle serve
  CYCLE_LINK_STORE=postgres DATABASE_URL=postgres://... cycle serve --addr :9000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default $CYCLE_LISTEN_ADDR or :8090)")
	return cmd
}

func runServe(ctx context.Context, addr string) error {
	log := logger.New("cycle")

	a, err := newApp(ctx, log)
	if err != nil {
		return err
	}
	defer a.Close()

	if addr == "" {
		addr = a.settings.ListenAddr
	}

	if ttl := a.settings.SessionTTL; ttl > 0 {
		a.registry.StartSessionReaper(ctx, ttl/2, ttl)
	}

	log.Info("", "", "Starting Cycle", map[string]interface{}{
		"version":      version,
		"link_store":   a.settings.LinkStore,
		"fanout":       a.settings.FanOutPolicy,
		"session_ttl":  a.settings.SessionTTL.String(),
		"cors_origins": a.settings.CORSOrigins,
	})

	srv := api.NewServer(addr, api.NewHandler(a.registry, logger.New("api")), a.settings.CORSOrigins)
	return srv.Run(ctx)
}
