// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package links

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func endpointDoc(connector, artifact string, revision int64) bson.D {
	return bson.D{
		{Key: "connector_id", Value: connector},
		{Key: "artifact_id", Value: artifact},
		{Key: "element_id", Value: ""},
		{Key: "element_name", Value: ""},
		{Key: "revision", Value: revision},
	}
}

func TestMongoStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("upsert", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		store, err := NewMongoStore(context.Background(), mt.Coll)
		require.NoError(mt, err)

		mt.ClearEvents()
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 0},
		))
		require.NoError(mt, store.Upsert(context.Background(), sampleRecord("l1", "/a.bpmn")))

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "update", started.CommandName)

		assert.ErrorIs(mt, store.Upsert(context.Background(), &Record{ID: "x"}), ErrInvalidRecord)
		assert.NoError(mt, store.Close())
	})

	mt.Run("upsert write error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		store, err := NewMongoStore(context.Background(), mt.Coll)
		require.NoError(mt, err)

		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))
		err = store.Upsert(context.Background(), sampleRecord("l1", "/a.bpmn"))
		assert.ErrorContains(mt, err, "duplicate key")
	})

	mt.Run("find", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		store, err := NewMongoStore(context.Background(), mt.Coll)
		require.NoError(mt, err)

		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: "l1"},
				{Key: "source", Value: endpointDoc("demo", "/a.bpmn", 3)},
				{Key: "target", Value: endpointDoc("files", "/specs/review.txt", 1)},
				{Key: "description", Value: "covers"},
				{Key: "bidirectional", Value: true},
				{Key: "link_type", Value: ""},
				{Key: "created_at", Value: created},
			},
			bson.D{
				{Key: "_id", Value: "l2"},
				{Key: "source", Value: endpointDoc("demo", "/a.bpmn", 4)},
				{Key: "target", Value: endpointDoc("signavio", "/model/m1", 7)},
			},
		))

		found, err := store.FindBySourceArtifactID(context.Background(), "/a.bpmn")
		require.NoError(mt, err)
		require.Len(mt, found, 2)
		assert.Equal(mt, "l1", found[0].ID)
		assert.Equal(mt, "covers", found[0].Description)
		assert.True(mt, found[0].Bidirectional)
		assert.True(mt, created.Equal(found[0].CreatedAt))
		assert.Equal(mt, "signavio", found[1].Target.ConnectorID)
		assert.Equal(mt, int64(7), found[1].Target.Revision)
	})

	mt.Run("index failure", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    13,
			Message: "not authorized",
			Name:    "Unauthorized",
		}))
		_, err := NewMongoStore(context.Background(), mt.Coll)
		assert.ErrorContains(mt, err, "not authorized")
	})
}

func TestMongoDatabase(t *testing.T) {
	assert.Equal(t, "links", mongoDatabase("mongodb://localhost:27017/links"))
	assert.Equal(t, "cycle", mongoDatabase("mongodb://localhost:27017"))
	assert.Equal(t, "cycle", mongoDatabase("mongodb://localhost:27017/"))
}

var (
	_ Store = (*MongoStore)(nil)
	_ Store = (*RedisStore)(nil)
	_ Store = (*SQLStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
