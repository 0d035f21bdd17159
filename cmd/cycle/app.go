// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package main

import (
	"context"
	"fmt"
	"io"

	"cycle/connectors/config"
	"cycle/connectors/registry"
	"cycle/federation"
	"cycle/links"
	"cycle/shared/logger"
)

// app holds the wired service collaborators.
type app struct {
	settings *config.Settings
	registry *federation.Registry
	links    links.Store
	closers  []io.Closer
}

// newApp reads settings from the environment and wires the configuration
// store, link store, secrets and connector registry.
func newApp(ctx context.Context, log *logger.Logger) (*app, error) {
	settings, err := config.LoadSettings()
	if err != nil {
		return nil, err
	}

	a := &app{settings: settings}

	store, err := config.OpenStore(ctx, settings)
	if err != nil {
		return nil, fmt.Errorf("failed to open configuration store: %w", err)
	}
	if c, ok := store.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}

	linkStore, err := links.Open(ctx, settings)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to open link store: %w", err)
	}
	a.links = linkStore
	a.closers = append(a.closers, linkStore)

	secrets, err := config.NewSecretsManager(ctx, settings)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create secrets manager: %w", err)
	}

	policy, err := federation.ParseFanOutPolicy(settings.FanOutPolicy)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.registry, err = federation.NewRegistry(federation.RegistryConfig{
		Store:     store,
		Builder:   registry.Builtin(),
		Links:     linkStore,
		Secrets:   secrets,
		Bootstrap: federation.BootstrapOptionsFromSettings(settings),
		Policy:    policy,
		Logger:    log,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// service returns the federation service of the given principal session.
func (a *app) service(ctx context.Context, opts *rootOptions) (*federation.Service, error) {
	return a.registry.Get(ctx, opts.principal, opts.session)
}

// Close releases the stores in reverse order of opening.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i].Close()
	}
	a.closers = nil
}
