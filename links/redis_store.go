// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package links

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

const (
	redisLinkPrefix   = "cycle:link:"
	redisSourcePrefix = "cycle:links:source:"
)

// RedisStore keeps each link as a JSON string and indexes link ids in a set
// per source artifact.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps a connected client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// OpenRedisStore parses a redis:// URL and pings the server.
func OpenRedisStore(ctx context.Context, rawURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedisStore(client), nil
}

func linkKey(id string) string           { return redisLinkPrefix + id }
func sourceKey(artifactID string) string { return redisSourcePrefix + artifactID }

// Upsert implements Store
func (s *RedisStore) Upsert(ctx context.Context, r *Record) error {
	if err := r.Validate(); err != nil {
		return err
	}

	previous, err := s.get(ctx, r.ID)
	if err != nil {
		return err
	}
	stored := r.Clone()
	if previous != nil {
		stored.CreatedAt = previous.CreatedAt
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = nowUTC()
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to encode link %s: %w", r.ID, err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, linkKey(r.ID), data, 0)
		if previous != nil && previous.Source.ArtifactID != r.Source.ArtifactID {
			pipe.SRem(ctx, sourceKey(previous.Source.ArtifactID), r.ID)
		}
		pipe.SAdd(ctx, sourceKey(r.Source.ArtifactID), r.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to upsert link %s: %w", r.ID, err)
	}
	return nil
}

func (s *RedisStore) get(ctx context.Context, id string) (*Record, error) {
	data, err := s.client.Get(ctx, linkKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read link %s: %w", id, err)
	}
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode link %s: %w", id, err)
	}
	return &r, nil
}

// FindBySourceArtifactID implements Store
func (s *RedisStore) FindBySourceArtifactID(ctx context.Context, artifactID string) ([]*Record, error) {
	ids, err := s.client.SMembers(ctx, sourceKey(artifactID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to query links: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = linkKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read links: %w", err)
	}

	out := make([]*Record, 0, len(values))
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			// index entry without a record
			continue
		}
		var r Record
		if err := json.Unmarshal([]byte(str), &r); err != nil {
			return nil, fmt.Errorf("failed to decode link %s: %w", ids[i], err)
		}
		out = append(out, &r)
	}
	sortByID(out)
	return out, nil
}

// Close closes the client
func (s *RedisStore) Close() error {
	return s.client.Close()
}
