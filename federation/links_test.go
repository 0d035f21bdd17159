// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package federation

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cycle/connectors/base"
	"cycle/connectors/sdk"
	"cycle/links"
)

func linkFixture(t *testing.T) (*Service, *links.MemoryStore, *sdk.MockConnector, *sdk.MockConnector) {
	t.Helper()
	a, b, _ := threeMocks()
	b.AddArtifact("/", "/specs/review.txt", "review.txt", "text-plain", 7, []byte("review"))
	store := links.NewMemoryStore()
	return newTestService(t, CollectAll, store, a, b), store, a, b
}

func newLink(t *testing.T, s *Service) *ArtifactLink {
	t.Helper()
	ctx := context.Background()
	src, err := s.GetRepositoryArtifact(ctx, "a", "/models/loan.bpmn")
	require.NoError(t, err)
	dst, err := s.GetRepositoryArtifact(ctx, "b", "/specs/review.txt")
	require.NoError(t, err)
	return &ArtifactLink{
		SourceArtifact:    src,
		SourceElementID:   "task_review",
		SourceElementName: "Review application",
		TargetArtifact:    dst,
		TargetElementID:   "section-2",
		TargetElementName: "Review rules",
	}
}

func TestAddArtifactLink_RoundTrip(t *testing.T) {
	s, store, _, _ := linkFixture(t)
	ctx := context.Background()

	link := newLink(t, s)
	link.Description = "ignored"
	link.Bidirectional = true
	link.LinkType = "ignored"
	require.NoError(t, s.AddArtifactLink(ctx, link))

	_, err := uuid.Parse(link.ID)
	require.NoError(t, err, "a missing id is filled with a UUID")
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, "", link.Description, "link reflects the stored state")
	assert.False(t, link.Bidirectional)
	assert.Equal(t, "", link.LinkType)
	assert.False(t, link.CreatedAt.IsZero())

	records, err := store.FindBySourceArtifactID(ctx, "/models/loan.bpmn")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(3), records[0].Source.Revision)
	assert.Equal(t, int64(7), records[0].Target.Revision)
	assert.Equal(t, "", records[0].Description)
	assert.False(t, records[0].Bidirectional)
	assert.Equal(t, "", records[0].LinkType)

	got, err := s.GetArtifactLinks(ctx, "a", "/models/loan.bpmn")
	require.NoError(t, err)
	require.Len(t, got, 1)
	l := got[0]
	assert.Equal(t, link.ID, l.ID)
	assert.Equal(t, "task_review", l.SourceElementID)
	assert.Equal(t, "Review application", l.SourceElementName)
	assert.Equal(t, "section-2", l.TargetElementID)
	assert.Equal(t, "Review rules", l.TargetElementName)
	assert.Equal(t, "/models/loan.bpmn", l.SourceArtifact.ID)
	assert.Equal(t, "b", l.TargetArtifact.ConnectorID)
	assert.Equal(t, "", l.Description)
}

func TestAddArtifactLink_UpsertByID(t *testing.T) {
	s, store, _, _ := linkFixture(t)
	ctx := context.Background()

	link := newLink(t, s)
	link.ID = "link-1"
	require.NoError(t, s.AddArtifactLink(ctx, link))
	link.SourceElementName = "Renamed task"
	require.NoError(t, s.AddArtifactLink(ctx, link))

	assert.Equal(t, 1, store.Len())
	got, err := s.GetArtifactLinks(ctx, "a", "/models/loan.bpmn")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "link-1", got[0].ID)
	assert.Equal(t, "Renamed task", got[0].SourceElementName)
}

func TestAddArtifactLink_Invalid(t *testing.T) {
	s, store, _, _ := linkFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, s.AddArtifactLink(ctx, nil), base.ErrInvalidArgument)
	assert.ErrorIs(t, s.AddArtifactLink(ctx, &ArtifactLink{SourceArtifact: &base.Artifact{ID: "/x", ConnectorID: "a"}}), base.ErrInvalidArgument)
	assert.Zero(t, store.Len())
}

type failingLinkStore struct {
	links.Store
	err error
}

func (f failingLinkStore) Upsert(ctx context.Context, r *links.Record) error { return f.err }

func (f failingLinkStore) FindBySourceArtifactID(ctx context.Context, id string) ([]*links.Record, error) {
	return nil, f.err
}

func TestArtifactLinks_StoreFailure(t *testing.T) {
	a, b, _ := threeMocks()
	b.AddArtifact("/", "/specs/review.txt", "review.txt", "text-plain", 7, nil)
	boom := errors.New("store offline")
	s := newTestService(t, CollectAll, failingLinkStore{err: boom}, a, b)

	assert.ErrorIs(t, s.AddArtifactLink(context.Background(), newLink(t, s)), boom)
	_, err := s.GetArtifactLinks(context.Background(), "a", "/models/loan.bpmn")
	assert.ErrorIs(t, err, boom)
}

func TestGetArtifactLinks_IgnoresConnectorID(t *testing.T) {
	s, _, _, _ := linkFixture(t)
	ctx := context.Background()
	require.NoError(t, s.AddArtifactLink(ctx, newLink(t, s)))

	got, err := s.GetArtifactLinks(ctx, "some-other-connector", "/models/loan.bpmn")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = s.GetArtifactLinks(ctx, "a", "/unlinked.bpmn")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestGetArtifactLinks_OrphanedConnector(t *testing.T) {
	s, store, _, _ := linkFixture(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, &links.Record{
		ID:     "orphan",
		Source: links.Endpoint{ConnectorID: "a", ArtifactID: "/models/loan.bpmn"},
		Target: links.Endpoint{ConnectorID: "retired", ArtifactID: "/gone.bpmn"},
	}))

	_, err := s.GetArtifactLinks(ctx, "a", "/models/loan.bpmn")
	require.ErrorIs(t, err, ErrLinkResolution)
	assert.ErrorIs(t, err, ErrConnectorNotFound)

	var lre *LinkResolutionError
	require.ErrorAs(t, err, &lre)
	assert.Equal(t, "orphan", lre.LinkID)
	assert.Equal(t, SideTarget, lre.Side)
	assert.Equal(t, "retired", lre.ConnectorID)
	assert.Equal(t, "/gone.bpmn", lre.ArtifactID)
	assert.Equal(t, 1, store.Len(), "the link is kept")
}

func TestGetArtifactLinks_MissingArtifact(t *testing.T) {
	s, _, a, _ := linkFixture(t)
	ctx := context.Background()
	require.NoError(t, s.AddArtifactLink(ctx, newLink(t, s)))

	a.RemoveArtifact("/models/loan.bpmn")

	_, err := s.GetArtifactLinks(ctx, "a", "/models/loan.bpmn")
	require.ErrorIs(t, err, ErrLinkResolution)
	assert.ErrorIs(t, err, base.ErrNodeNotFound)
	var lre *LinkResolutionError
	require.ErrorAs(t, err, &lre)
	assert.Equal(t, SideSource, lre.Side)
	assert.Contains(t, err.Error(), "source artifact")
}

func TestNotImplemented(t *testing.T) {
	s, store, a, b := linkFixture(t)
	ctx := context.Background()

	ops := map[string]func() error{
		"DeleteLink": func() error { return s.DeleteLink(ctx, "link-1") },
		"GetArtifactLinksForArtifact": func() error {
			_, err := s.GetArtifactLinksForArtifact(ctx, "/models/loan.bpmn")
			return err
		},
		"GetArtifactLinksForRevision": func() error {
			_, err := s.GetArtifactLinksForRevision(ctx, "/models/loan.bpmn", 3)
			return err
		},
		"GetArtifactLinksOfType": func() error {
			_, err := s.GetArtifactLinksOfType(ctx, "/models/loan.bpmn", 3, "refines")
			return err
		},
		"AddTag":                func() error { return s.AddTag(ctx, "/models/loan.bpmn", "draft") },
		"AddTagWithAlias":       func() error { return s.AddTagWithAlias(ctx, "/models/loan.bpmn", "draft", "wip") },
		"DeleteTag":             func() error { return s.DeleteTag(ctx, "/models/loan.bpmn", "draft") },
		"GetAllTags":            func() error { _, err := s.GetAllTags(ctx); return err },
		"GetAllTagsIgnoreAlias": func() error { _, err := s.GetAllTagsIgnoreAlias(ctx); return err },
		"GetTags":               func() error { _, err := s.GetTags(ctx, "/models/loan.bpmn"); return err },
	}

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < 2; i++ {
				err := op()
				require.ErrorIs(t, err, ErrNotImplemented)
				var nie *NotImplementedError
				require.ErrorAs(t, err, &nie)
				assert.Equal(t, name, nie.Operation)
			}
		})
	}

	assert.Zero(t, store.Len())
	assert.Empty(t, a.Calls())
	assert.Empty(t, b.Calls())
}
