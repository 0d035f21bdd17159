// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package links

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultMongoDatabase = "cycle"
	mongoCollection      = "artifact_links"
)

// MongoStore keeps links as documents keyed by link id.
type MongoStore struct {
	coll   *mongo.Collection
	client *mongo.Client // set when the store owns the connection
}

// NewMongoStore wraps a collection and ensures the source artifact index.
func NewMongoStore(ctx context.Context, coll *mongo.Collection) (*MongoStore, error) {
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "source.artifact_id", Value: 1}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create link index: %w", err)
	}
	return &MongoStore{coll: coll}, nil
}

// OpenMongoStore connects to uri. The database is taken from the URI path,
// defaulting to "cycle".
func OpenMongoStore(ctx context.Context, uri string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	s, err := NewMongoStore(ctx, client.Database(mongoDatabase(uri)).Collection(mongoCollection))
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	s.client = client
	return s, nil
}

func mongoDatabase(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return defaultMongoDatabase
	}
	if db := strings.Trim(u.Path, "/"); db != "" {
		return db
	}
	return defaultMongoDatabase
}

// Upsert implements Store. created_at is only written on insert.
func (s *MongoStore) Upsert(ctx context.Context, r *Record) error {
	if err := r.Validate(); err != nil {
		return err
	}
	created := r.CreatedAt
	if created.IsZero() {
		created = nowUTC()
	}

	update := bson.M{
		"$set": bson.M{
			"source":        r.Source,
			"target":        r.Target,
			"description":   r.Description,
			"bidirectional": r.Bidirectional,
			"link_type":     r.LinkType,
		},
		"$setOnInsert": bson.M{"created_at": created},
	}
	_, err := s.coll.UpdateOne(ctx, bson.M{"_id": r.ID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert link %s: %w", r.ID, err)
	}
	return nil
}

// FindBySourceArtifactID implements Store
func (s *MongoStore) FindBySourceArtifactID(ctx context.Context, artifactID string) ([]*Record, error) {
	cursor, err := s.coll.Find(ctx,
		bson.M{"source.artifact_id": artifactID},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query links: %w", err)
	}
	var out []*Record
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode links: %w", err)
	}
	return out, nil
}

// Close disconnects the client when the store opened it.
func (s *MongoStore) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(context.Background())
}
