// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package links

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord(id, sourceArtifact string) *Record {
	return &Record{
		ID: id,
		Source: Endpoint{
			ConnectorID: "demo",
			ArtifactID:  sourceArtifact,
			ElementID:   "task_review",
			ElementName: "Review application",
			Revision:    3,
		},
		Target: Endpoint{
			ConnectorID: "files",
			ArtifactID:  "/specs/review.txt",
			Revision:    1714557600,
		},
	}
}

func TestRecord_Validate(t *testing.T) {
	var nilRecord *Record
	assert.ErrorIs(t, nilRecord.Validate(), ErrInvalidRecord)

	tests := []struct {
		name   string
		mutate func(r *Record)
	}{
		{"missing id", func(r *Record) { r.ID = "" }},
		{"missing source connector", func(r *Record) { r.Source.ConnectorID = "" }},
		{"missing source artifact", func(r *Record) { r.Source.ArtifactID = "" }},
		{"missing target artifact", func(r *Record) { r.Target.ArtifactID = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := sampleRecord("l1", "/a.bpmn")
			tt.mutate(r)
			assert.ErrorIs(t, r.Validate(), ErrInvalidRecord)
		})
	}

	assert.NoError(t, sampleRecord("l1", "/a.bpmn").Validate())
}

// exerciseStore runs the behavior every Store shares.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, sampleRecord("l2", "/a.bpmn")))
	require.NoError(t, s.Upsert(ctx, sampleRecord("l1", "/a.bpmn")))
	require.NoError(t, s.Upsert(ctx, sampleRecord("l3", "/b.bpmn")))
	assert.ErrorIs(t, s.Upsert(ctx, sampleRecord("", "/a.bpmn")), ErrInvalidRecord)

	found, err := s.FindBySourceArtifactID(ctx, "/a.bpmn")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "l1", found[0].ID)
	assert.Equal(t, "l2", found[1].ID)
	assert.Equal(t, "Review application", found[0].Source.ElementName)
	assert.Equal(t, int64(3), found[0].Source.Revision)
	assert.Equal(t, "files", found[0].Target.ConnectorID)

	moved := sampleRecord("l2", "/b.bpmn")
	moved.Description = "moved"
	require.NoError(t, s.Upsert(ctx, moved))

	found, err = s.FindBySourceArtifactID(ctx, "/a.bpmn")
	require.NoError(t, err)
	require.Len(t, found, 1, "upsert replaces by id")

	found, err = s.FindBySourceArtifactID(ctx, "/b.bpmn")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "moved", found[0].Description)

	found, err = s.FindBySourceArtifactID(ctx, "/none")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	exerciseStore(t, s)
	assert.Equal(t, 3, s.Len())
	assert.NoError(t, s.Close())
}

func TestMemoryStore_Copies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	r := sampleRecord("l1", "/a.bpmn")
	require.NoError(t, s.Upsert(ctx, r))
	r.Source.ElementName = "changed"

	found, err := s.FindBySourceArtifactID(ctx, "/a.bpmn")
	require.NoError(t, err)
	assert.Equal(t, "Review application", found[0].Source.ElementName)
}
