// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package federation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"cycle/connectors/base"
	"cycle/connectors/sdk"
	"cycle/links"
)

// ArtifactLink relates an element of one artifact to an element of another,
// possibly in a different connector. Returned links carry the live
// artifacts of both endpoints.
type ArtifactLink struct {
	ID                string         `json:"id"`
	SourceArtifact    *base.Artifact `json:"source_artifact"`
	SourceElementID   string         `json:"source_element_id,omitempty"`
	SourceElementName string         `json:"source_element_name,omitempty"`
	TargetArtifact    *base.Artifact `json:"target_artifact"`
	TargetElementID   string         `json:"target_element_id,omitempty"`
	TargetElementName string         `json:"target_element_name,omitempty"`
	Description       string         `json:"description"`
	Bidirectional     bool           `json:"bidirectional"`
	LinkType          string         `json:"link_type"`
	CreatedAt         time.Time      `json:"created_at,omitzero"`
}

// Tag is a label attached to a repository node.
type Tag struct {
	Name  string `json:"name"`
	Alias string `json:"alias,omitempty"`
}

// AddArtifactLink stores link, keyed by its id. A link without an id is
// given a new UUID, written back to link.ID. Only ids, element ids and names
// and each endpoint artifact's current revision are stored; description,
// link type and the bidirectional flag are always stored empty. On success
// link is updated to the stored state, including its creation time.
func (s *Service) AddArtifactLink(ctx context.Context, link *ArtifactLink) error {
	if link == nil || link.SourceArtifact == nil || link.TargetArtifact == nil {
		return fmt.Errorf("%w: artifact link needs a source and a target artifact", base.ErrInvalidArgument)
	}
	if link.ID == "" {
		link.ID = uuid.NewString()
	}

	record := &links.Record{
		ID: link.ID,
		Source: links.Endpoint{
			ConnectorID: link.SourceArtifact.ConnectorID,
			ArtifactID:  link.SourceArtifact.ID,
			ElementID:   link.SourceElementID,
			ElementName: link.SourceElementName,
			Revision:    link.SourceArtifact.Revision(),
		},
		Target: links.Endpoint{
			ConnectorID: link.TargetArtifact.ConnectorID,
			ArtifactID:  link.TargetArtifact.ID,
			ElementID:   link.TargetElementID,
			ElementName: link.TargetElementName,
			Revision:    link.TargetArtifact.Revision(),
		},
		Description:   "",
		Bidirectional: false,
		LinkType:      "",
	}
	if err := s.links.Upsert(ctx, record); err != nil {
		return fmt.Errorf("failed to store artifact link %s: %w", link.ID, err)
	}
	stored, err := s.storedRecord(ctx, record)
	if err != nil {
		return fmt.Errorf("failed to read back artifact link %s: %w", link.ID, err)
	}
	link.Description = stored.Description
	link.Bidirectional = stored.Bidirectional
	link.LinkType = stored.LinkType
	link.CreatedAt = stored.CreatedAt

	s.logger.Info(s.principalID, sdk.GetRequestID(ctx), "Artifact link stored", map[string]interface{}{
		"link_id":             link.ID,
		"source_connector_id": record.Source.ConnectorID,
		"target_connector_id": record.Target.ConnectorID,
	})
	return nil
}

// storedRecord returns the persisted copy of r.
func (s *Service) storedRecord(ctx context.Context, r *links.Record) (*links.Record, error) {
	records, err := s.links.FindBySourceArtifactID(ctx, r.Source.ArtifactID)
	if err != nil {
		return nil, err
	}
	for _, stored := range records {
		if stored.ID == r.ID {
			return stored, nil
		}
	}
	return nil, fmt.Errorf("link %s missing after write", r.ID)
}

// GetArtifactLinks returns the links whose source is sourceArtifactID, with
// both endpoints resolved through the configured connectors. The lookup is
// by artifact id only; sourceConnectorID does not narrow it. A link whose
// endpoint no longer resolves fails the whole call with a
// LinkResolutionError.
func (s *Service) GetArtifactLinks(ctx context.Context, sourceConnectorID, sourceArtifactID string) ([]*ArtifactLink, error) {
	records, err := s.links.FindBySourceArtifactID(ctx, sourceArtifactID)
	if err != nil {
		return nil, fmt.Errorf("failed to query artifact links: %w", err)
	}

	out := make([]*ArtifactLink, 0, len(records))
	for _, r := range records {
		link, err := s.resolveLink(ctx, r)
		if err != nil {
			s.logger.Error(s.principalID, sdk.GetRequestID(ctx), "Artifact link cannot be resolved", map[string]interface{}{
				"link_id": r.ID,
				"error":   err.Error(),
			})
			return nil, err
		}
		out = append(out, link)
	}
	return out, nil
}

func (s *Service) resolveLink(ctx context.Context, r *links.Record) (*ArtifactLink, error) {
	source, err := s.resolveEndpoint(ctx, r.ID, SideSource, r.Source)
	if err != nil {
		return nil, err
	}
	target, err := s.resolveEndpoint(ctx, r.ID, SideTarget, r.Target)
	if err != nil {
		return nil, err
	}
	return &ArtifactLink{
		ID:                r.ID,
		SourceArtifact:    source,
		SourceElementID:   r.Source.ElementID,
		SourceElementName: r.Source.ElementName,
		TargetArtifact:    target,
		TargetElementID:   r.Target.ElementID,
		TargetElementName: r.Target.ElementName,
		Description:       r.Description,
		Bidirectional:     r.Bidirectional,
		LinkType:          r.LinkType,
		CreatedAt:         r.CreatedAt,
	}, nil
}

func (s *Service) resolveEndpoint(ctx context.Context, linkID, side string, ep links.Endpoint) (*base.Artifact, error) {
	fail := func(cause error) error {
		return &LinkResolutionError{
			LinkID:      linkID,
			Side:        side,
			ConnectorID: ep.ConnectorID,
			ArtifactID:  ep.ArtifactID,
			Cause:       cause,
		}
	}
	c, err := s.connector(ep.ConnectorID)
	if err != nil {
		return nil, fail(err)
	}
	a, err := c.GetRepositoryArtifact(ctx, ep.ArtifactID)
	if err != nil {
		return nil, fail(err)
	}
	return a, nil
}

// DeleteLink is not implemented.
func (s *Service) DeleteLink(ctx context.Context, linkID string) error {
	return notImplemented("DeleteLink")
}

// GetArtifactLinksForArtifact is not implemented.
func (s *Service) GetArtifactLinksForArtifact(ctx context.Context, sourceArtifactID string) ([]*ArtifactLink, error) {
	return nil, notImplemented("GetArtifactLinksForArtifact")
}

// GetArtifactLinksForRevision is not implemented.
func (s *Service) GetArtifactLinksForRevision(ctx context.Context, sourceArtifactID string, sourceRevision int64) ([]*ArtifactLink, error) {
	return nil, notImplemented("GetArtifactLinksForRevision")
}

// GetArtifactLinksOfType is not implemented.
func (s *Service) GetArtifactLinksOfType(ctx context.Context, sourceArtifactID string, sourceRevision int64, linkType string) ([]*ArtifactLink, error) {
	return nil, notImplemented("GetArtifactLinksOfType")
}

// AddTag is not implemented.
func (s *Service) AddTag(ctx context.Context, nodeID, tagName string) error {
	return notImplemented("AddTag")
}

// AddTagWithAlias is not implemented.
func (s *Service) AddTagWithAlias(ctx context.Context, nodeID, tagName, alias string) error {
	return notImplemented("AddTagWithAlias")
}

// DeleteTag is not implemented.
func (s *Service) DeleteTag(ctx context.Context, nodeID, tagName string) error {
	return notImplemented("DeleteTag")
}

// GetAllTags is not implemented.
func (s *Service) GetAllTags(ctx context.Context) ([]Tag, error) {
	return nil, notImplemented("GetAllTags")
}

// GetAllTagsIgnoreAlias is not implemented.
func (s *Service) GetAllTagsIgnoreAlias(ctx context.Context) ([]Tag, error) {
	return nil, notImplemented("GetAllTagsIgnoreAlias")
}

// GetTags is not implemented.
func (s *Service) GetTags(ctx context.Context, nodeID string) ([]Tag, error) {
	return nil, notImplemented("GetTags")
}
