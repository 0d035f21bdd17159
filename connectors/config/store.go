// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package config

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"

	"cycle/connectors/base"
)

// ErrConfigurationNotFound is returned by Store.Load when no configuration
// set has been saved for a principal.
var ErrConfigurationNotFound = errors.New("connector configuration not found")

// Store persists the connector configuration set of each principal.
type Store interface {
	Load(ctx context.Context, principalID string) (*base.ConfigurationSet, error)
	Save(ctx context.Context, set *base.ConfigurationSet) error
}

// MemoryStore keeps configuration sets in process memory.
type MemoryStore struct {
	sets map[string]*base.ConfigurationSet
	mu   sync.RWMutex
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sets: make(map[string]*base.ConfigurationSet)}
}

// Load implements Store
func (s *MemoryStore) Load(ctx context.Context, principalID string) (*base.ConfigurationSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set, ok := s.sets[principalID]
	if !ok {
		return nil, fmt.Errorf("principal %q: %w", principalID, ErrConfigurationNotFound)
	}
	return set.Clone(), nil
}

// Save implements Store
func (s *MemoryStore) Save(ctx context.Context, set *base.ConfigurationSet) error {
	if err := set.Validate(); err != nil {
		return fmt.Errorf("invalid configuration set: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets[set.PrincipalID] = set.Clone()
	return nil
}

// ChainStore reads from a list of stores in priority order and writes to the
// first one. A store answering ErrConfigurationNotFound passes the lookup to
// the next; any other error stops the chain.
type ChainStore struct {
	stores []Store
	logger *log.Logger
}

// NewChainStore creates a ChainStore. stores must not be empty.
func NewChainStore(stores ...Store) *ChainStore {
	return &ChainStore{
		stores: stores,
		logger: log.New(os.Stdout, "[CONFIG_STORE] ", log.LstdFlags),
	}
}

// Load implements Store
func (c *ChainStore) Load(ctx context.Context, principalID string) (*base.ConfigurationSet, error) {
	for i, s := range c.stores {
		set, err := s.Load(ctx, principalID)
		if err == nil {
			if i > 0 {
				c.logger.Printf("Configuration for %s loaded from fallback store %d", base.SanitizeLogString(principalID), i)
			}
			return set, nil
		}
		if !errors.Is(err, ErrConfigurationNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("principal %q: %w", principalID, ErrConfigurationNotFound)
}

// Save implements Store
func (c *ChainStore) Save(ctx context.Context, set *base.ConfigurationSet) error {
	if len(c.stores) == 0 {
		return fmt.Errorf("no configuration store configured")
	}
	return c.stores[0].Save(ctx, set)
}

// OpenStore builds the configuration store described by settings: Postgres
// when a database URL is set, falling back to the YAML directory when one is
// configured, otherwise an in-memory store. Persistent stores are fronted by
// a CachedStore when settings.ConfigCacheTTL is positive.
func OpenStore(ctx context.Context, settings *Settings) (Store, error) {
	var stores []Store

	if settings.DatabaseURL != "" {
		pg, err := OpenPostgresStore(ctx, settings.DatabaseURL)
		if err != nil {
			return nil, err
		}
		stores = append(stores, pg)
	}
	if settings.ConfigDir != "" {
		fs, err := NewFileStore(settings.ConfigDir)
		if err != nil {
			return nil, err
		}
		stores = append(stores, fs)
	}

	var store Store
	switch len(stores) {
	case 0:
		return NewMemoryStore(), nil
	case 1:
		store = stores[0]
	default:
		store = NewChainStore(stores...)
	}
	if settings.ConfigCacheTTL > 0 {
		store = NewCachedStore(store, settings.ConfigCacheTTL)
	}
	return store, nil
}
