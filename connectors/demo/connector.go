// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package demo

import (
	"context"
	"fmt"
	"path"
	"sort"
	"sync"
	"time"

	"cycle/connectors/base"
	"cycle/connectors/sdk"
)

// Type is the connector type name.
const Type = "demo"

// Artifact types offered by the demo repository.
const (
	TypeBPMN = "bpmn20-xml"
	TypeText = "text-plain"
	TypePNG  = "png"
)

// Representations of demo artifacts.
const (
	RepresentationXML   = "xml"
	RepresentationImage = "png"
	RepresentationText  = "text"
)

var artifactTypes = map[string]*base.ArtifactType{
	TypeBPMN: {Name: TypeBPMN, MimeType: "application/xml", Representations: []string{RepresentationXML, RepresentationImage}, Actions: []string{base.ActionCopyTo}},
	TypeText: {Name: TypeText, MimeType: "text/plain", Representations: []string{RepresentationText}, Actions: []string{base.ActionCopyTo}},
	TypePNG:  {Name: TypePNG, MimeType: "image/png", Representations: []string{RepresentationImage}, Actions: []string{base.ActionCopyTo}},
}

var representationMime = map[string]string{
	RepresentationXML:   "application/xml",
	RepresentationImage: "image/png",
	RepresentationText:  "text/plain",
}

const root = "/"

type node struct {
	id       string
	parent   string
	name     string
	folder   bool
	typeName string
	revision int64
	content  map[string][]byte
	children []string
	created  time.Time
	modified time.Time
}

// Connector is the demo repository.
type Connector struct {
	*sdk.BaseConnector
	nodes map[string]*node
	mu    sync.RWMutex
}

// New creates a demo connector holding a fresh copy of the example tree.
func New(cfg *base.ConnectorConfig) (*Connector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Connector{
		BaseConnector: sdk.NewBaseConnector(Type, cfg),
		nodes:         make(map[string]*node),
	}
	now := time.Now().UTC()
	c.nodes[root] = &node{id: root, folder: true, name: cfg.DisplayName(), created: now, modified: now}
	c.seed(now)
	return c, nil
}

func (c *Connector) seed(now time.Time) {
	processes := c.addFolder(root, "processes", now)
	drafts := c.addFolder(processes, "drafts", now)
	docs := c.addFolder(root, "documents", now)

	c.addArtifact(processes, "loan-approval.bpmn", TypeBPMN, map[string][]byte{
		RepresentationXML:   []byte(loanApprovalXML),
		RepresentationImage: pngPlaceholder,
	}, now)
	c.addArtifact(drafts, "invoice-check.bpmn", TypeBPMN, map[string][]byte{
		RepresentationXML: []byte(invoiceCheckXML),
	}, now)
	c.addArtifact(docs, "readme.txt", TypeText, map[string][]byte{
		RepresentationText: []byte("Example repository. Everything here is kept in memory.\n"),
	}, now)
	c.addArtifact(docs, "loan-approval.png", TypePNG, map[string][]byte{
		RepresentationImage: pngPlaceholder,
	}, now)
}

// addFolder and addArtifact must be called with mu held or before the
// connector is shared.
func (c *Connector) addFolder(parent, name string, now time.Time) string {
	id := path.Join(parent, name)
	c.nodes[id] = &node{id: id, parent: parent, name: name, folder: true, created: now, modified: now}
	p := c.nodes[parent]
	p.children = append(p.children, id)
	return id
}

func (c *Connector) addArtifact(parent, name, typeName string, content map[string][]byte, now time.Time) *node {
	id := path.Join(parent, name)
	n := &node{id: id, parent: parent, name: name, typeName: typeName, revision: 1, content: content, created: now, modified: now}
	c.nodes[id] = n
	p := c.nodes[parent]
	p.children = append(p.children, id)
	return n
}

func key(id string) string {
	if id == "" {
		return root
	}
	return id
}

func (c *Connector) folderNode(id string) (*node, error) {
	n, ok := c.nodes[key(id)]
	if !ok || !n.folder {
		return nil, c.NotFound(id)
	}
	return n, nil
}

func (c *Connector) artifactNode(id string) (*node, error) {
	n, ok := c.nodes[id]
	if !ok || n.folder {
		return nil, c.NotFound(id)
	}
	return n, nil
}

func (c *Connector) toFolder(n *node) *base.Folder {
	return &base.Folder{
		ID:             n.id,
		ConnectorID:    c.ID(),
		ParentFolderID: n.parent,
		Metadata: base.NodeMetadata{
			Name:         n.name,
			Path:         n.id,
			Created:      n.created,
			LastModified: n.modified,
		},
	}
}

func (c *Connector) toArtifact(n *node) *base.Artifact {
	return &base.Artifact{
		ID:             n.id,
		ConnectorID:    c.ID(),
		ParentFolderID: n.parent,
		Type:           artifactTypes[n.typeName].WithRevision(n.revision),
		Metadata: base.NodeMetadata{
			Name:         n.name,
			Path:         n.id,
			Author:       c.Username(),
			Created:      n.created,
			LastModified: n.modified,
		},
	}
}

// GetChildren implements base.RepositoryConnector
func (c *Connector) GetChildren(ctx context.Context, nodeID string) (*base.NodeCollection, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	parent, err := c.folderNode(nodeID)
	if err != nil {
		return nil, err
	}
	coll := base.NewNodeCollection()
	for _, id := range parent.children {
		n := c.nodes[id]
		if n.folder {
			coll.Add(c.toFolder(n))
		} else {
			coll.Add(c.toArtifact(n))
		}
	}
	return coll, nil
}

// GetRepositoryArtifact implements base.RepositoryConnector
func (c *Connector) GetRepositoryArtifact(ctx context.Context, artifactID string) (*base.Artifact, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n, err := c.artifactNode(artifactID)
	if err != nil {
		return nil, err
	}
	return c.toArtifact(n), nil
}

// GetRepositoryFolder implements base.RepositoryConnector
func (c *Connector) GetRepositoryFolder(ctx context.Context, folderID string) (*base.Folder, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n, err := c.folderNode(folderID)
	if err != nil {
		return nil, err
	}
	return c.toFolder(n), nil
}

// GetRepositoryArtifactPreview returns the image representation when the
// artifact has one.
func (c *Connector) GetRepositoryArtifactPreview(ctx context.Context, artifactID string) (*base.Content, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n, err := c.artifactNode(artifactID)
	if err != nil {
		return nil, err
	}
	data, ok := n.content[RepresentationImage]
	if !ok {
		return nil, c.NotFound(artifactID + "#preview")
	}
	return &base.Content{Data: append([]byte(nil), data...), MimeType: representationMime[RepresentationImage]}, nil
}

// GetContent implements base.RepositoryConnector. An empty representation
// selects the type's first representation.
func (c *Connector) GetContent(ctx context.Context, artifactID, representation string) (*base.Content, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n, err := c.artifactNode(artifactID)
	if err != nil {
		return nil, err
	}
	rep, err := c.representation(n.typeName, representation, "GetContent")
	if err != nil {
		return nil, err
	}
	data, ok := n.content[rep]
	if !ok {
		return nil, c.NotFound(artifactID + "#" + rep)
	}
	return &base.Content{Data: append([]byte(nil), data...), MimeType: representationMime[rep]}, nil
}

func (c *Connector) representation(typeName, requested, op string) (string, error) {
	t := artifactTypes[typeName]
	if requested == "" {
		return t.Representations[0], nil
	}
	if !t.SupportsRepresentation(requested) {
		return "", base.NewConnectorError(c.ID(), op,
			fmt.Sprintf("type %s has no representation %q", typeName, requested), base.ErrInvalidArgument)
	}
	return requested, nil
}

// CreateArtifact implements base.RepositoryConnector
func (c *Connector) CreateArtifact(ctx context.Context, folderID, name, artifactType string, content *base.Content) (*base.Artifact, error) {
	return c.CreateArtifactFromContentRepresentation(ctx, folderID, name, artifactType, "", content)
}

// CreateArtifactFromContentRepresentation implements base.RepositoryConnector
func (c *Connector) CreateArtifactFromContentRepresentation(ctx context.Context, folderID, name, artifactType, representation string, content *base.Content) (*base.Artifact, error) {
	if err := base.ValidateNodeName(name); err != nil {
		return nil, base.NewConnectorError(c.ID(), "CreateArtifact", "invalid name", err)
	}
	if artifactType == "" {
		artifactType = TypeText
	}
	if _, ok := artifactTypes[artifactType]; !ok {
		return nil, base.NewConnectorError(c.ID(), "CreateArtifact",
			fmt.Sprintf("unknown artifact type %q", artifactType), base.ErrInvalidArgument)
	}
	rep, err := c.representation(artifactType, representation, "CreateArtifact")
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	parent, err := c.folderNode(folderID)
	if err != nil {
		return nil, err
	}
	if _, exists := c.nodes[path.Join(parent.id, name)]; exists {
		return nil, base.NewConnectorError(c.ID(), "CreateArtifact",
			fmt.Sprintf("%s already exists", path.Join(parent.id, name)), base.ErrInvalidArgument)
	}

	now := time.Now().UTC()
	n := c.addArtifact(parent.id, name, artifactType, map[string][]byte{rep: contentBytes(content)}, now)
	parent.modified = now
	return c.toArtifact(n), nil
}

// CreateFolder implements base.RepositoryConnector
func (c *Connector) CreateFolder(ctx context.Context, parentFolderID, name string) (*base.Folder, error) {
	if err := base.ValidateNodeName(name); err != nil {
		return nil, base.NewConnectorError(c.ID(), "CreateFolder", "invalid name", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	parent, err := c.folderNode(parentFolderID)
	if err != nil {
		return nil, err
	}
	if _, exists := c.nodes[path.Join(parent.id, name)]; exists {
		return nil, base.NewConnectorError(c.ID(), "CreateFolder",
			fmt.Sprintf("%s already exists", path.Join(parent.id, name)), base.ErrInvalidArgument)
	}

	now := time.Now().UTC()
	id := c.addFolder(parent.id, name, now)
	parent.modified = now
	return c.toFolder(c.nodes[id]), nil
}

// UpdateContent implements base.RepositoryConnector
func (c *Connector) UpdateContent(ctx context.Context, artifactID string, content *base.Content) error {
	return c.UpdateContentRepresentation(ctx, artifactID, "", content)
}

// UpdateContentRepresentation replaces one representation and bumps the
// artifact revision.
func (c *Connector) UpdateContentRepresentation(ctx context.Context, artifactID, representation string, content *base.Content) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, err := c.artifactNode(artifactID)
	if err != nil {
		return err
	}
	rep, err := c.representation(n.typeName, representation, "UpdateContent")
	if err != nil {
		return err
	}
	n.content[rep] = contentBytes(content)
	n.revision++
	n.modified = time.Now().UTC()
	return nil
}

// DeleteArtifact implements base.RepositoryConnector
func (c *Connector) DeleteArtifact(ctx context.Context, artifactID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.artifactNode(artifactID); err != nil {
		return err
	}
	c.remove(artifactID)
	return nil
}

// DeleteFolder removes a folder and everything below it. The root cannot
// be deleted.
func (c *Connector) DeleteFolder(ctx context.Context, folderID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if key(folderID) == root {
		return base.NewConnectorError(c.ID(), "DeleteFolder", "the root folder cannot be deleted", base.ErrInvalidArgument)
	}
	if _, err := c.folderNode(folderID); err != nil {
		return err
	}
	c.remove(folderID)
	return nil
}

func (c *Connector) remove(id string) {
	n := c.nodes[id]
	for _, child := range n.children {
		c.remove(child)
	}
	delete(c.nodes, id)

	if p, ok := c.nodes[n.parent]; ok {
		for i, child := range p.children {
			if child == id {
				p.children = append(p.children[:i:i], p.children[i+1:]...)
				break
			}
		}
	}
}

// GetSupportedArtifactTypes returns every demo type ordered by name.
func (c *Connector) GetSupportedArtifactTypes(ctx context.Context, folderID string) ([]*base.ArtifactType, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if _, err := c.folderNode(folderID); err != nil {
		return nil, err
	}
	out := make([]*base.ArtifactType, 0, len(artifactTypes))
	for _, t := range artifactTypes {
		out = append(out, t.WithRevision(0))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ExecuteParameterizedAction implements base.RepositoryConnector
func (c *Connector) ExecuteParameterizedAction(ctx context.Context, artifactID, actionID string, params base.ActionParameters) error {
	return sdk.ExecuteCommonAction(ctx, c, artifactID, actionID, params)
}

func contentBytes(content *base.Content) []byte {
	if content == nil {
		return nil
	}
	return append([]byte(nil), content.Data...)
}
