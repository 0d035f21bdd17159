// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package links

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := OpenRedisStore(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, mr
}

func TestRedisStore(t *testing.T) {
	store, mr := newRedisStore(t)
	exerciseStore(t, store)

	members, err := mr.Members(sourceKey("/a.bpmn"))
	require.NoError(t, err)
	assert.Equal(t, []string{"l1"}, members, "moved link leaves the old source index")
	assert.True(t, mr.Exists(linkKey("l2")))
}

func TestRedisStore_KeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	store, _ := newRedisStore(t)

	require.NoError(t, store.Upsert(ctx, sampleRecord("l1", "/a.bpmn")))
	first, err := store.FindBySourceArtifactID(ctx, "/a.bpmn")
	require.NoError(t, err)
	require.Len(t, first, 1)

	require.NoError(t, store.Upsert(ctx, sampleRecord("l1", "/a.bpmn")))
	second, err := store.FindBySourceArtifactID(ctx, "/a.bpmn")
	require.NoError(t, err)
	assert.True(t, first[0].CreatedAt.Equal(second[0].CreatedAt))
}

func TestRedisStore_SkipsDanglingIndexEntries(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)

	require.NoError(t, store.Upsert(ctx, sampleRecord("l1", "/a.bpmn")))
	_, err := mr.SAdd(sourceKey("/a.bpmn"), "ghost")
	require.NoError(t, err)

	found, err := store.FindBySourceArtifactID(ctx, "/a.bpmn")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "l1", found[0].ID)
}

func TestRedisStore_CorruptRecord(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)

	require.NoError(t, mr.Set(linkKey("bad"), "{not json"))
	_, err := mr.SAdd(sourceKey("/a.bpmn"), "bad")
	require.NoError(t, err)

	_, err = store.FindBySourceArtifactID(ctx, "/a.bpmn")
	assert.Error(t, err)
	assert.Error(t, store.Upsert(ctx, sampleRecord("bad", "/a.bpmn")))
}

func TestRedisStore_ServerDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client)
	defer store.Close()
	mr.Close()

	_, err := store.FindBySourceArtifactID(context.Background(), "/a.bpmn")
	assert.Error(t, err)
	assert.Error(t, store.Upsert(context.Background(), sampleRecord("l1", "/a.bpmn")))
}

func TestOpenRedisStore_Errors(t *testing.T) {
	_, err := OpenRedisStore(context.Background(), "not-a-url")
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	_, err = OpenRedisStore(context.Background(), "redis://"+addr)
	assert.Error(t, err)
}
