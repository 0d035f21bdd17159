// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package config

import (
	"context"
	"io"
	"sync"
	"time"

	"cycle/connectors/base"
)

// CacheEntry is a cached value with its expiry.
type CacheEntry[T any] struct {
	Value     T
	ExpiresAt time.Time
}

// IsExpired checks if the cache entry has expired
func (e *CacheEntry[T]) IsExpired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// CacheStats counts cache lookups.
type CacheStats struct {
	Hits      int64
	Misses    int64
	Evictions int64
}

// CachedStore keeps loaded configuration sets for a TTL in front of a
// slower Store. Saves write through and refresh the entry.
type CachedStore struct {
	inner   Store
	ttl     time.Duration
	now     func() time.Time
	mu      sync.Mutex
	entries map[string]*CacheEntry[*base.ConfigurationSet]
	stats   CacheStats
}

// NewCachedStore wraps inner. A non-positive ttl defaults to 30s.
func NewCachedStore(inner Store, ttl time.Duration) *CachedStore {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachedStore{
		inner:   inner,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]*CacheEntry[*base.ConfigurationSet]),
	}
}

// Load implements Store. Not-found results are not cached.
func (c *CachedStore) Load(ctx context.Context, principalID string) (*base.ConfigurationSet, error) {
	c.mu.Lock()
	if e, ok := c.entries[principalID]; ok {
		if !e.IsExpired(c.now()) {
			c.stats.Hits++
			set := e.Value.Clone()
			c.mu.Unlock()
			return set, nil
		}
		delete(c.entries, principalID)
		c.stats.Evictions++
	}
	c.stats.Misses++
	c.mu.Unlock()

	set, err := c.inner.Load(ctx, principalID)
	if err != nil {
		return nil, err
	}
	c.put(set)
	return set.Clone(), nil
}

// Save implements Store
func (c *CachedStore) Save(ctx context.Context, set *base.ConfigurationSet) error {
	if err := c.inner.Save(ctx, set); err != nil {
		c.Invalidate(set.PrincipalID)
		return err
	}
	c.put(set)
	return nil
}

func (c *CachedStore) put(set *base.ConfigurationSet) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[set.PrincipalID] = &CacheEntry[*base.ConfigurationSet]{
		Value:     set.Clone(),
		ExpiresAt: c.now().Add(c.ttl),
	}
}

// Invalidate drops the cached set of a principal.
func (c *CachedStore) Invalidate(principalID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[principalID]; ok {
		delete(c.entries, principalID)
		c.stats.Evictions++
	}
}

// Stats returns a snapshot of the cache counters.
func (c *CachedStore) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Close closes the wrapped store when it holds resources.
func (c *CachedStore) Close() error {
	if closer, ok := c.inner.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
