// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package federation

import (
	"context"
	"fmt"
	"time"

	"cycle/connectors/base"
	"cycle/connectors/sdk"
	"cycle/links"
	"cycle/shared/logger"
)

// RootID is the connector id and node id of the virtual root.
const RootID = "/"

// Service is the federated view of one principal's connectors. The
// connector list is fixed at construction, so routing needs no locking.
type Service struct {
	principalID string
	connectors  []base.RepositoryConnector
	links       links.Store
	policy      FanOutPolicy
	logger      *logger.Logger
}

// Option configures a Service
type Option func(*Service)

// WithFanOutPolicy sets the policy for Login and CommitPendingChanges.
func WithFanOutPolicy(p FanOutPolicy) Option {
	return func(s *Service) { s.policy = p }
}

// WithLogger sets the logger
func WithLogger(l *logger.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a Service over connectors, which must have distinct
// configuration ids. A nil link store selects an in-memory one.
func NewService(principalID string, connectors []base.RepositoryConnector, store links.Store, opts ...Option) (*Service, error) {
	if principalID == "" {
		return nil, ErrInvalidPrincipal
	}

	seen := make(map[string]bool, len(connectors))
	for i, c := range connectors {
		if c == nil || c.Configuration() == nil {
			return nil, fmt.Errorf("connector %d has no configuration", i)
		}
		id := c.Configuration().ID
		if seen[id] {
			return nil, fmt.Errorf("duplicate connector id %q", id)
		}
		seen[id] = true
	}

	if store == nil {
		store = links.NewMemoryStore()
	}
	s := &Service{
		principalID: principalID,
		connectors:  append([]base.RepositoryConnector(nil), connectors...),
		links:       store,
		policy:      CollectAll,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.New("federation")
	}
	return s, nil
}

// PrincipalID returns the principal the service belongs to.
func (s *Service) PrincipalID() string {
	return s.principalID
}

// FanOutPolicy returns the policy used by Login and CommitPendingChanges.
func (s *Service) FanOutPolicy() FanOutPolicy {
	return s.policy
}

// Connectors returns copies of the connector configurations in
// configuration order.
func (s *Service) Connectors() []*base.ConnectorConfig {
	out := make([]*base.ConnectorConfig, len(s.connectors))
	for i, c := range s.connectors {
		out[i] = c.Configuration().Clone()
	}
	return out
}

// connector finds the connector configured under id.
func (s *Service) connector(id string) (base.RepositoryConnector, error) {
	for _, c := range s.connectors {
		if c.Configuration().ID == id {
			return c, nil
		}
	}
	return nil, &ConnectorNotFoundError{ConnectorID: id}
}

// fanOut runs fn on every connector in configuration order.
func (s *Service) fanOut(ctx context.Context, op string, fn func(c base.RepositoryConnector) error) error {
	var failures []ConnectorFailure
	for _, c := range s.connectors {
		err := fn(c)
		if err == nil {
			continue
		}
		id := c.Configuration().ID
		s.logger.Warn(s.principalID, sdk.GetRequestID(ctx), op+" failed for connector "+base.SanitizeLogString(id), map[string]interface{}{
			"connector_id": id,
			"policy":       s.policy.String(),
			"error":        err.Error(),
		})
		if s.policy == FailFast {
			return err
		}
		failures = append(failures, ConnectorFailure{ConnectorID: id, Err: err})
	}
	if len(failures) > 0 {
		return &FanOutError{Operation: op, Attempted: len(s.connectors), Failures: failures}
	}
	return nil
}

// Login logs into every configured connector. It reports true when every
// login succeeded.
func (s *Service) Login(ctx context.Context, username, password string) (bool, error) {
	err := s.fanOut(ctx, "Login", func(c base.RepositoryConnector) error {
		return c.Login(ctx, username, password)
	})
	return err == nil, err
}

// CommitPendingChanges commits on every configured connector with the same
// comment. connectorID is accepted for API compatibility and not used to
// narrow the fan-out.
func (s *Service) CommitPendingChanges(ctx context.Context, connectorID, comment string) error {
	return s.fanOut(ctx, "CommitPendingChanges", func(c base.RepositoryConnector) error {
		return c.CommitPendingChanges(ctx, comment)
	})
}

// GetChildren lists a folder. For connectorID "/" it returns the virtual
// root: one folder per connector, in configuration order, and nodeID is
// ignored.
func (s *Service) GetChildren(ctx context.Context, connectorID, nodeID string) (*base.NodeCollection, error) {
	if connectorID == RootID {
		return s.rootFolders(), nil
	}
	c, err := s.connector(connectorID)
	if err != nil {
		return nil, err
	}
	return c.GetChildren(ctx, nodeID)
}

// rootFolders synthesizes the virtual root listing. Each entry is the root
// folder of one connector; being a true root it has no parent.
func (s *Service) rootFolders() *base.NodeCollection {
	coll := base.NewNodeCollection()
	for _, c := range s.connectors {
		cfg := c.Configuration()
		coll.Add(&base.Folder{
			ID:             RootID,
			ConnectorID:    cfg.ID,
			ParentFolderID: "",
			Metadata:       base.NodeMetadata{Name: cfg.Name, Path: RootID},
		})
	}
	return coll
}

// GetRepositoryArtifact returns an artifact
func (s *Service) GetRepositoryArtifact(ctx context.Context, connectorID, artifactID string) (*base.Artifact, error) {
	c, err := s.connector(connectorID)
	if err != nil {
		return nil, err
	}
	return c.GetRepositoryArtifact(ctx, artifactID)
}

// GetRepositoryFolder returns a folder
func (s *Service) GetRepositoryFolder(ctx context.Context, connectorID, folderID string) (*base.Folder, error) {
	c, err := s.connector(connectorID)
	if err != nil {
		return nil, err
	}
	return c.GetRepositoryFolder(ctx, folderID)
}

// GetRepositoryArtifactPreview returns the preview content of an artifact
func (s *Service) GetRepositoryArtifactPreview(ctx context.Context, connectorID, artifactID string) (*base.Content, error) {
	c, err := s.connector(connectorID)
	if err != nil {
		return nil, err
	}
	return c.GetRepositoryArtifactPreview(ctx, artifactID)
}

// GetContent returns an artifact's content in the given representation
func (s *Service) GetContent(ctx context.Context, connectorID, artifactID, representation string) (*base.Content, error) {
	c, err := s.connector(connectorID)
	if err != nil {
		return nil, err
	}
	return c.GetContent(ctx, artifactID, representation)
}

// CreateArtifact creates an artifact in a folder
func (s *Service) CreateArtifact(ctx context.Context, connectorID, folderID, name, artifactType string, content *base.Content) (*base.Artifact, error) {
	c, err := s.connector(connectorID)
	if err != nil {
		return nil, err
	}
	return c.CreateArtifact(ctx, folderID, name, artifactType, content)
}

// CreateArtifactFromContentRepresentation creates an artifact from content
// in a named representation
func (s *Service) CreateArtifactFromContentRepresentation(ctx context.Context, connectorID, folderID, name, artifactType, representation string, content *base.Content) (*base.Artifact, error) {
	c, err := s.connector(connectorID)
	if err != nil {
		return nil, err
	}
	return c.CreateArtifactFromContentRepresentation(ctx, folderID, name, artifactType, representation, content)
}

// CreateFolder creates a folder below parentFolderID
func (s *Service) CreateFolder(ctx context.Context, connectorID, parentFolderID, name string) (*base.Folder, error) {
	c, err := s.connector(connectorID)
	if err != nil {
		return nil, err
	}
	return c.CreateFolder(ctx, parentFolderID, name)
}

// UpdateContent replaces an artifact's content
func (s *Service) UpdateContent(ctx context.Context, connectorID, artifactID string, content *base.Content) error {
	c, err := s.connector(connectorID)
	if err != nil {
		return err
	}
	return c.UpdateContent(ctx, artifactID, content)
}

// UpdateContentRepresentation replaces an artifact's content given in a
// named representation
func (s *Service) UpdateContentRepresentation(ctx context.Context, connectorID, artifactID, representation string, content *base.Content) error {
	c, err := s.connector(connectorID)
	if err != nil {
		return err
	}
	return c.UpdateContentRepresentation(ctx, artifactID, representation, content)
}

// DeleteArtifact deletes an artifact
func (s *Service) DeleteArtifact(ctx context.Context, connectorID, artifactID string) error {
	c, err := s.connector(connectorID)
	if err != nil {
		return err
	}
	return c.DeleteArtifact(ctx, artifactID)
}

// DeleteFolder deletes a folder and everything below it
func (s *Service) DeleteFolder(ctx context.Context, connectorID, folderID string) error {
	c, err := s.connector(connectorID)
	if err != nil {
		return err
	}
	return c.DeleteFolder(ctx, folderID)
}

// GetSupportedArtifactTypes returns the types that can be created in a
// folder. The virtual root, and any id of length one or less, supports
// none; the connector is not consulted for those.
func (s *Service) GetSupportedArtifactTypes(ctx context.Context, connectorID, folderID string) ([]*base.ArtifactType, error) {
	if len(folderID) <= 1 {
		return []*base.ArtifactType{}, nil
	}
	c, err := s.connector(connectorID)
	if err != nil {
		return nil, err
	}
	return c.GetSupportedArtifactTypes(ctx, folderID)
}

// ExecuteParameterizedAction runs an action on an artifact. Connector
// references among params are bound to the live connectors first; if any
// reference is unknown nothing is dispatched. params itself is not modified.
func (s *Service) ExecuteParameterizedAction(ctx context.Context, connectorID, artifactID, actionID string, params base.ActionParameters) error {
	c, err := s.connector(connectorID)
	if err != nil {
		return err
	}
	resolved, err := s.ResolveParameters(params)
	if err != nil {
		return err
	}

	start := time.Now()
	err = c.ExecuteParameterizedAction(ctx, artifactID, actionID, resolved)
	fields := map[string]interface{}{
		"connector_id": connectorID,
		"action_id":    actionID,
		"parameters":   resolved.Names(),
	}
	if err != nil {
		fields["error"] = err.Error()
		s.logger.Error(s.principalID, sdk.GetRequestID(ctx), "Action failed", fields)
		return err
	}
	s.logger.InfoWithDuration(s.principalID, sdk.GetRequestID(ctx), "Action executed",
		float64(time.Since(start).Microseconds())/1000, fields)
	return nil
}

// ResolveParameters returns a copy of params in which every connector
// reference carries the live connector it names.
func (s *Service) ResolveParameters(params base.ActionParameters) (base.ActionParameters, error) {
	out := make(base.ActionParameters, len(params))
	for name, p := range params {
		if p.IsConnectorRef() {
			c, err := s.connector(p.ConnectorID())
			if err != nil {
				return nil, fmt.Errorf("parameter %s: %w", name, err)
			}
			p = p.Resolved(c)
		}
		out[name] = p
	}
	return out, nil
}

// HealthCheck checks every connector. A failing check is reported in the
// status, never as an error of the whole call.
func (s *Service) HealthCheck(ctx context.Context) map[string]*base.HealthStatus {
	results := make(map[string]*base.HealthStatus, len(s.connectors))
	for _, c := range s.connectors {
		id := c.Configuration().ID
		status, err := c.HealthCheck(ctx)
		if err != nil {
			s.logger.Warn(s.principalID, sdk.GetRequestID(ctx), "Health check failed", map[string]interface{}{
				"connector_id": id,
				"error":        err.Error(),
			})
			status = &base.HealthStatus{
				Healthy:   false,
				Error:     err.Error(),
				Timestamp: time.Now(),
			}
		}
		results[id] = status
	}
	return results
}
