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

func sampleSet(principal string) *base.ConfigurationSet {
	return &base.ConfigurationSet{
		PrincipalID: principal,
		Connectors: []*base.ConnectorConfig{
			{ID: "demo", Name: "Demo Repository", Type: "demo"},
			{ID: "files", Name: "Local Files", Type: "fs", Options: map[string]interface{}{"base_path": "/"}},
		},
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Load(ctx, "kermit")
	assert.ErrorIs(t, err, ErrConfigurationNotFound)

	set := sampleSet("kermit")
	require.NoError(t, s.Save(ctx, set))

	loaded, err := s.Load(ctx, "kermit")
	require.NoError(t, err)
	assert.Equal(t, set, loaded)

	loaded.Connectors[0].Name = "changed"
	again, _ := s.Load(ctx, "kermit")
	assert.Equal(t, "Demo Repository", again.Connectors[0].Name, "store must hand out copies")

	set.Connectors[0].Name = "mutated after save"
	again, _ = s.Load(ctx, "kermit")
	assert.Equal(t, "Demo Repository", again.Connectors[0].Name, "store must keep its own copy")
}

func TestMemoryStore_RejectsInvalidSet(t *testing.T) {
	s := NewMemoryStore()
	err := s.Save(context.Background(), &base.ConfigurationSet{PrincipalID: "p", Connectors: []*base.ConnectorConfig{{ID: "x"}}})
	assert.Error(t, err)
}

type failingStore struct{ err error }

func (f failingStore) Load(ctx context.Context, principalID string) (*base.ConfigurationSet, error) {
	return nil, f.err
}

func (f failingStore) Save(ctx context.Context, set *base.ConfigurationSet) error {
	return f.err
}

func TestChainStore(t *testing.T) {
	ctx := context.Background()
	primary := NewMemoryStore()
	fallback := NewMemoryStore()
	require.NoError(t, fallback.Save(ctx, sampleSet("kermit")))

	chain := NewChainStore(primary, fallback)

	t.Run("falls back on not found", func(t *testing.T) {
		set, err := chain.Load(ctx, "kermit")
		require.NoError(t, err)
		assert.Len(t, set.Connectors, 2)
	})

	t.Run("not found everywhere", func(t *testing.T) {
		_, err := chain.Load(ctx, "gonzo")
		assert.ErrorIs(t, err, ErrConfigurationNotFound)
	})

	t.Run("saves to primary", func(t *testing.T) {
		require.NoError(t, chain.Save(ctx, sampleSet("gonzo")))
		_, err := primary.Load(ctx, "gonzo")
		assert.NoError(t, err)
		_, err = fallback.Load(ctx, "gonzo")
		assert.ErrorIs(t, err, ErrConfigurationNotFound)
	})

	t.Run("hard error stops the chain", func(t *testing.T) {
		boom := errors.New("db down")
		c := NewChainStore(failingStore{boom}, fallback)
		_, err := c.Load(ctx, "kermit")
		assert.ErrorIs(t, err, boom)
	})

	t.Run("empty chain", func(t *testing.T) {
		assert.Error(t, NewChainStore().Save(ctx, sampleSet("x")))
	})
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	s, err := OpenStore(ctx, &Settings{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = OpenStore(ctx, &Settings{ConfigDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	s, err = OpenStore(ctx, &Settings{ConfigDir: t.TempDir(), ConfigCacheTTL: time.Minute})
	require.NoError(t, err)
	assert.IsType(t, &CachedStore{}, s)
}
