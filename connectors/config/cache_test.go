// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package config

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cycle/connectors/base"
)

type countingLoads struct {
	*MemoryStore
	loads int
}

func (c *countingLoads) Load(ctx context.Context, principalID string) (*base.ConfigurationSet, error) {
	c.loads++
	return c.MemoryStore.Load(ctx, principalID)
}

func newCached(t *testing.T) (*CachedStore, *countingLoads, *time.Time) {
	t.Helper()
	inner := &countingLoads{MemoryStore: NewMemoryStore()}
	require.NoError(t, inner.Save(context.Background(), sampleSet("kermit")))

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewCachedStore(inner, time.Minute)
	c.now = func() time.Time { return now }
	return c, inner, &now
}

func TestCachedStore_HitsAndExpiry(t *testing.T) {
	ctx := context.Background()
	c, inner, now := newCached(t)

	_, err := c.Load(ctx, "kermit")
	require.NoError(t, err)
	set, err := c.Load(ctx, "kermit")
	require.NoError(t, err)
	assert.Equal(t, 1, inner.loads)
	assert.Len(t, set.Connectors, 2)

	set.Connectors[0].Name = "mutated"
	again, _ := c.Load(ctx, "kermit")
	assert.Equal(t, "Demo Repository", again.Connectors[0].Name, "cache must hand out copies")

	*now = now.Add(2 * time.Minute)
	_, err = c.Load(ctx, "kermit")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.loads)

	stats := c.Stats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)
	assert.Equal(t, int64(1), stats.Evictions)
}

func TestCachedStore_NotFoundIsNotCached(t *testing.T) {
	ctx := context.Background()
	c, inner, _ := newCached(t)

	_, err := c.Load(ctx, "gonzo")
	assert.ErrorIs(t, err, ErrConfigurationNotFound)
	_, err = c.Load(ctx, "gonzo")
	assert.ErrorIs(t, err, ErrConfigurationNotFound)
	assert.Equal(t, 2, inner.loads)
}

func TestCachedStore_SaveWritesThrough(t *testing.T) {
	ctx := context.Background()
	c, inner, _ := newCached(t)

	require.NoError(t, c.Save(ctx, sampleSet("gonzo")))
	_, err := inner.MemoryStore.Load(ctx, "gonzo")
	require.NoError(t, err)

	_, err = c.Load(ctx, "gonzo")
	require.NoError(t, err)
	assert.Equal(t, 0, inner.loads, "saved set is served from the cache")
}

func TestCachedStore_FailedSaveInvalidates(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("db down")
	c := NewCachedStore(failingStore{boom}, 0)
	c.put(sampleSet("kermit"))

	assert.ErrorIs(t, c.Save(ctx, sampleSet("kermit")), boom)
	_, err := c.Load(ctx, "kermit")
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, c.Close())
}
