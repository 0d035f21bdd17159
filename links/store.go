// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package links

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// ErrInvalidRecord is returned by Upsert for records missing an id or an
// endpoint.
var ErrInvalidRecord = errors.New("invalid link record")

// Endpoint is one side of a link.
type Endpoint struct {
	ConnectorID string `json:"connector_id" bson:"connector_id"`
	ArtifactID  string `json:"artifact_id" bson:"artifact_id"`
	ElementID   string `json:"element_id,omitempty" bson:"element_id"`
	ElementName string `json:"element_name,omitempty" bson:"element_name"`
	Revision    int64  `json:"revision" bson:"revision"`
}

// Record is a persisted link.
type Record struct {
	ID            string    `json:"id" bson:"_id"`
	Source        Endpoint  `json:"source" bson:"source"`
	Target        Endpoint  `json:"target" bson:"target"`
	Description   string    `json:"description,omitempty" bson:"description"`
	Bidirectional bool      `json:"bidirectional" bson:"bidirectional"`
	LinkType      string    `json:"link_type,omitempty" bson:"link_type"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
}

// Validate checks the fields every store indexes on.
func (r *Record) Validate() error {
	switch {
	case r == nil:
		return fmt.Errorf("%w: nil record", ErrInvalidRecord)
	case r.ID == "":
		return fmt.Errorf("%w: id is required", ErrInvalidRecord)
	case r.Source.ConnectorID == "" || r.Source.ArtifactID == "":
		return fmt.Errorf("%w: link %s has no source artifact", ErrInvalidRecord, r.ID)
	case r.Target.ConnectorID == "" || r.Target.ArtifactID == "":
		return fmt.Errorf("%w: link %s has no target artifact", ErrInvalidRecord, r.ID)
	}
	return nil
}

// Clone returns a copy of the record.
func (r *Record) Clone() *Record {
	c := *r
	return &c
}

// Store persists link records.
type Store interface {
	// Upsert inserts the record or replaces the one with the same id.
	Upsert(ctx context.Context, r *Record) error
	// FindBySourceArtifactID returns the links whose source artifact id
	// matches, ordered by link id.
	FindBySourceArtifactID(ctx context.Context, artifactID string) ([]*Record, error)
	Close() error
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

func sortByID(records []*Record) {
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
}

// MemoryStore keeps links in process memory.
type MemoryStore struct {
	records map[string]*Record
	mu      sync.RWMutex
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

// Upsert implements Store
func (s *MemoryStore) Upsert(ctx context.Context, r *Record) error {
	if err := r.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := r.Clone()
	if previous, ok := s.records[r.ID]; ok {
		stored.CreatedAt = previous.CreatedAt
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = nowUTC()
	}
	s.records[r.ID] = stored
	return nil
}

// FindBySourceArtifactID implements Store
func (s *MemoryStore) FindBySourceArtifactID(ctx context.Context, artifactID string) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Record
	for _, r := range s.records {
		if r.Source.ArtifactID == artifactID {
			out = append(out, r.Clone())
		}
	}
	sortByID(out)
	return out, nil
}

// Len returns the number of stored links.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Close implements Store
func (s *MemoryStore) Close() error {
	return nil
}
