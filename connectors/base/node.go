// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package base

import (
	"encoding/json"
	"time"
)

// Node kinds as they appear in serialized collections.
const (
	KindFolder   = "folder"
	KindArtifact = "artifact"
)

// NodeMetadata carries the descriptive attributes of a node.
type NodeMetadata struct {
	Name         string            `json:"name"`
	Path         string            `json:"path,omitempty"`
	Author       string            `json:"author,omitempty"`
	Created      time.Time         `json:"created,omitzero"`
	LastModified time.Time         `json:"last_modified,omitzero"`
	Properties   map[string]string `json:"properties,omitempty"`
}

// RepositoryNode is either a *Folder or an *Artifact. A node id is only
// meaningful together with its connector id.
type RepositoryNode interface {
	NodeID() string
	NodeConnectorID() string
	NodeMetadata() *NodeMetadata
	IsFolder() bool
}

// Folder is a container node.
type Folder struct {
	ID             string       `json:"id"`
	ConnectorID    string       `json:"connector_id"`
	ParentFolderID string       `json:"parent_folder_id"`
	Metadata       NodeMetadata `json:"metadata"`
}

func (f *Folder) NodeID() string              { return f.ID }
func (f *Folder) NodeConnectorID() string     { return f.ConnectorID }
func (f *Folder) NodeMetadata() *NodeMetadata { return &f.Metadata }
func (f *Folder) IsFolder() bool              { return true }

// MarshalJSON adds the node kind.
func (f *Folder) MarshalJSON() ([]byte, error) {
	type plain Folder
	return json.Marshal(struct {
		Kind string `json:"kind"`
		*plain
	}{KindFolder, (*plain)(f)})
}

// Artifact is a content-bearing node.
type Artifact struct {
	ID             string        `json:"id"`
	ConnectorID    string        `json:"connector_id"`
	ParentFolderID string        `json:"parent_folder_id"`
	Type           *ArtifactType `json:"type,omitempty"`
	Metadata       NodeMetadata  `json:"metadata"`
}

func (a *Artifact) NodeID() string              { return a.ID }
func (a *Artifact) NodeConnectorID() string     { return a.ConnectorID }
func (a *Artifact) NodeMetadata() *NodeMetadata { return &a.Metadata }
func (a *Artifact) IsFolder() bool              { return false }

// Revision returns the revision of the artifact's type, zero when untyped.
func (a *Artifact) Revision() int64 {
	if a == nil || a.Type == nil {
		return 0
	}
	return a.Type.Revision
}

// MarshalJSON adds the node kind.
func (a *Artifact) MarshalJSON() ([]byte, error) {
	type plain Artifact
	return json.Marshal(struct {
		Kind string `json:"kind"`
		*plain
	}{KindArtifact, (*plain)(a)})
}

// ArtifactType describes the kind of an artifact. Connectors return a copy
// per artifact so Revision can carry the artifact's own revision.
type ArtifactType struct {
	Name            string   `json:"name"`
	MimeType        string   `json:"mime_type"`
	Revision        int64    `json:"revision,omitempty"`
	Representations []string `json:"representations,omitempty"`
	Actions         []string `json:"actions,omitempty"`
}

// WithRevision returns a copy of t stamped with rev.
func (t *ArtifactType) WithRevision(rev int64) *ArtifactType {
	if t == nil {
		return nil
	}
	out := *t
	out.Representations = append([]string(nil), t.Representations...)
	out.Actions = append([]string(nil), t.Actions...)
	out.Revision = rev
	return &out
}

// SupportsRepresentation reports whether name is one of the type's
// representations. An empty name always matches.
func (t *ArtifactType) SupportsRepresentation(name string) bool {
	if name == "" {
		return true
	}
	for _, r := range t.Representations {
		if r == name {
			return true
		}
	}
	return false
}

// Content is a blob of artifact content in one representation.
type Content struct {
	Data     []byte `json:"data"`
	MimeType string `json:"mime_type,omitempty"`
}

// NodeCollection is an ordered listing of nodes.
type NodeCollection struct {
	Nodes []RepositoryNode
}

// NewNodeCollection creates a collection holding nodes in the given order.
func NewNodeCollection(nodes ...RepositoryNode) *NodeCollection {
	return &NodeCollection{Nodes: nodes}
}

// Add appends a node.
func (c *NodeCollection) Add(n RepositoryNode) {
	c.Nodes = append(c.Nodes, n)
}

// Len returns the number of nodes.
func (c *NodeCollection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Nodes)
}

// Folders returns the folders in listing order.
func (c *NodeCollection) Folders() []*Folder {
	var out []*Folder
	for _, n := range c.Nodes {
		if f, ok := n.(*Folder); ok {
			out = append(out, f)
		}
	}
	return out
}

// Artifacts returns the artifacts in listing order.
func (c *NodeCollection) Artifacts() []*Artifact {
	var out []*Artifact
	for _, n := range c.Nodes {
		if a, ok := n.(*Artifact); ok {
			out = append(out, a)
		}
	}
	return out
}

// MarshalJSON encodes the collection as an array of nodes.
func (c *NodeCollection) MarshalJSON() ([]byte, error) {
	if c == nil || c.Nodes == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c.Nodes)
}
