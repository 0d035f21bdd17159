// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package links

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cycle/connectors/config"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, &config.Settings{LinkStore: config.LinkStoreMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(ctx, &config.Settings{
		LinkStore:    config.LinkStoreSQLite,
		LinkStoreURL: filepath.Join(t.TempDir(), "links.db"),
	})
	require.NoError(t, err)
	assert.IsType(t, &SQLStore{}, s)
	require.NoError(t, s.Upsert(ctx, sampleRecord("l1", "/a.bpmn")))
	require.NoError(t, s.Close())

	mr := miniredis.RunT(t)
	s, err = Open(ctx, &config.Settings{LinkStore: config.LinkStoreRedis, LinkStoreURL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	assert.IsType(t, &RedisStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, &config.Settings{LinkStore: "cassandra"})
	assert.Error(t, err)
}

func TestOpen_SQLitePersists(t *testing.T) {
	ctx := context.Background()
	settings := &config.Settings{
		LinkStore:    config.LinkStoreSQLite,
		LinkStoreURL: filepath.Join(t.TempDir(), "links.db"),
	}

	s, err := Open(ctx, settings)
	require.NoError(t, err)
	require.NoError(t, s.Upsert(ctx, sampleRecord("l1", "/a.bpmn")))
	require.NoError(t, s.Close())

	s, err = Open(ctx, settings)
	require.NoError(t, err)
	defer s.Close()
	found, err := s.FindBySourceArtifactID(ctx, "/a.bpmn")
	require.NoError(t, err)
	assert.Len(t, found, 1)
}
