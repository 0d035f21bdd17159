// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package base

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// RepositoryConnector is implemented by every backend the federation layer
// can route to. Node ids passed to a connector are private to it.
type RepositoryConnector interface {
	// Configuration returns the configuration the connector was built from.
	Configuration() *ConnectorConfig

	// Session
	Login(ctx context.Context, username, password string) error
	CommitPendingChanges(ctx context.Context, comment string) error

	// Navigation
	GetChildren(ctx context.Context, nodeID string) (*NodeCollection, error)
	GetRepositoryArtifact(ctx context.Context, artifactID string) (*Artifact, error)
	GetRepositoryFolder(ctx context.Context, folderID string) (*Folder, error)
	GetRepositoryArtifactPreview(ctx context.Context, artifactID string) (*Content, error)
	GetContent(ctx context.Context, artifactID, representation string) (*Content, error)

	// Mutation
	CreateArtifact(ctx context.Context, folderID, name, artifactType string, content *Content) (*Artifact, error)
	CreateArtifactFromContentRepresentation(ctx context.Context, folderID, name, artifactType, representation string, content *Content) (*Artifact, error)
	CreateFolder(ctx context.Context, parentFolderID, name string) (*Folder, error)
	UpdateContent(ctx context.Context, artifactID string, content *Content) error
	UpdateContentRepresentation(ctx context.Context, artifactID, representation string, content *Content) error
	DeleteArtifact(ctx context.Context, artifactID string) error
	DeleteFolder(ctx context.Context, folderID string) error

	GetSupportedArtifactTypes(ctx context.Context, folderID string) ([]*ArtifactType, error)
	ExecuteParameterizedAction(ctx context.Context, artifactID, actionID string, params ActionParameters) error

	HealthCheck(ctx context.Context) (*HealthStatus, error)
}

// ConnectorConfig holds the configuration for one connector instance
type ConnectorConfig struct {
	ID                string                 `json:"id" yaml:"id"`                                                     // Unique within a configuration set
	Name              string                 `json:"name" yaml:"name"`                                                 // Display name
	Type              string                 `json:"type" yaml:"type"`                                                 // demo, fs, signavio, git, s3, gcs, azureblob
	ConnectionURL     string                 `json:"connection_url,omitempty" yaml:"connection_url,omitempty"`         // Endpoint, bucket URL or repository path
	Credentials       map[string]string      `json:"credentials,omitempty" yaml:"credentials,omitempty"`               // Username, password, API keys
	Options           map[string]interface{} `json:"options,omitempty" yaml:"options,omitempty"`                       // Connector-specific options
	Timeout           time.Duration          `json:"timeout,omitempty" yaml:"timeout,omitempty"`                       // Operation timeout
	MaxRetries        int                    `json:"max_retries,omitempty" yaml:"max_retries,omitempty"`               // Retry count for transient failures
	CredentialsSecret string                 `json:"credentials_secret,omitempty" yaml:"credentials_secret,omitempty"` // Secret merged into Credentials at load
}

// Validate checks the fields every connector type relies on.
func (c *ConnectorConfig) Validate() error {
	if c == nil {
		return fmt.Errorf("connector config is nil")
	}
	if c.ID == "" {
		return fmt.Errorf("connector id is required")
	}
	if c.ID == "/" || strings.ContainsAny(c.ID, "/ \t\n") {
		return fmt.Errorf("connector id %q must not contain '/' or whitespace", c.ID)
	}
	if c.Type == "" {
		return fmt.Errorf("connector %q: type is required", c.ID)
	}
	return nil
}

// Clone returns a deep copy of the configuration. Option values are copied
// one level deep.
func (c *ConnectorConfig) Clone() *ConnectorConfig {
	if c == nil {
		return nil
	}
	out := *c
	if c.Credentials != nil {
		out.Credentials = make(map[string]string, len(c.Credentials))
		for k, v := range c.Credentials {
			out.Credentials[k] = v
		}
	}
	if c.Options != nil {
		out.Options = make(map[string]interface{}, len(c.Options))
		for k, v := range c.Options {
			if list, ok := v.([]interface{}); ok {
				v = append([]interface{}(nil), list...)
			}
			out.Options[k] = v
		}
	}
	return &out
}

// DisplayName returns Name, falling back to ID.
func (c *ConnectorConfig) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.ID
}

// ConfigurationSet is the ordered list of connector configurations stored
// for one principal. Order is significant: it is the order of the virtual
// root listing and of every fan-out.
type ConfigurationSet struct {
	PrincipalID string             `json:"principal_id" yaml:"principal_id"`
	Connectors  []*ConnectorConfig `json:"connectors" yaml:"connectors"`
}

// Validate checks every configuration and rejects duplicate ids.
func (s *ConfigurationSet) Validate() error {
	if s == nil {
		return fmt.Errorf("configuration set is nil")
	}
	if s.PrincipalID == "" {
		return fmt.Errorf("principal id is required")
	}
	seen := make(map[string]bool, len(s.Connectors))
	for i, c := range s.Connectors {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("connector %d: %w", i, err)
		}
		if seen[c.ID] {
			return fmt.Errorf("duplicate connector id %q", c.ID)
		}
		seen[c.ID] = true
	}
	return nil
}

// Clone returns a deep copy of the set.
func (s *ConfigurationSet) Clone() *ConfigurationSet {
	if s == nil {
		return nil
	}
	out := &ConfigurationSet{
		PrincipalID: s.PrincipalID,
		Connectors:  make([]*ConnectorConfig, len(s.Connectors)),
	}
	for i, c := range s.Connectors {
		out.Connectors[i] = c.Clone()
	}
	return out
}

// HealthStatus represents the health of a connector
type HealthStatus struct {
	Healthy   bool              `json:"healthy"`
	Latency   time.Duration     `json:"latency"`
	Details   map[string]string `json:"details,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Error     string            `json:"error,omitempty"`
}
