// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package registry

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"sync"

	"cycle/connectors/base"
)

// ErrUnknownType is returned when no factory is registered for a
// configuration's type.
var ErrUnknownType = errors.New("unknown connector type")

// Factory builds a live connector from its configuration.
type Factory func(ctx context.Context, cfg *base.ConnectorConfig) (base.RepositoryConnector, error)

// Registry maps connector type names to factories. It is safe for
// concurrent use.
type Registry struct {
	factories map[string]Factory
	mu        sync.RWMutex
	logger    *log.Logger
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		logger:    log.New(os.Stdout, "[CYCLE_REGISTRY] ", log.LstdFlags),
	}
}

// Register adds a factory for connType.
func (r *Registry) Register(connType string, factory Factory) error {
	if connType == "" {
		return fmt.Errorf("connector type cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("factory for '%s' cannot be nil", connType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[connType]; exists {
		return fmt.Errorf("connector type '%s' already registered", connType)
	}
	r.factories[connType] = factory
	return nil
}

// Unregister removes the factory for connType.
func (r *Registry) Unregister(connType string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[connType]; !exists {
		return fmt.Errorf("connector type '%s' not found", connType)
	}
	delete(r.factories, connType)
	return nil
}

// Types returns the registered type names in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Build validates cfg and instantiates it through its type's factory.
func (r *Registry) Build(ctx context.Context, cfg *base.ConnectorConfig) (base.RepositoryConnector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	factory, ok := r.factories[cfg.Type]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("connector '%s': %w '%s'", cfg.ID, ErrUnknownType, cfg.Type)
	}

	conn, err := factory(ctx, cfg)
	if err != nil {
		r.logger.Printf("Failed to build connector '%s' (type: %s): %v", cfg.ID, cfg.Type, err)
		return nil, fmt.Errorf("failed to build connector '%s': %w", cfg.ID, err)
	}
	return conn, nil
}

// BuildAll instantiates every configuration of set, preserving order. The
// first failure aborts the build.
func (r *Registry) BuildAll(ctx context.Context, set *base.ConfigurationSet) ([]base.RepositoryConnector, error) {
	if err := set.Validate(); err != nil {
		return nil, err
	}

	out := make([]base.RepositoryConnector, 0, len(set.Connectors))
	for _, cfg := range set.Connectors {
		conn, err := r.Build(ctx, cfg)
		if err != nil {
			return nil, err
		}
		out = append(out, conn)
	}

	r.logger.Printf("Built %d connector(s) for principal '%s'", len(out), base.SanitizeLogString(set.PrincipalID))
	return out, nil
}
