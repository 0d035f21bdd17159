// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package sdk

import (
	"context"
	"path"
	"sync"
	"time"

	"cycle/connectors/base"
)

// MockConnector is an in-memory RepositoryConnector for tests. Every call is
// recorded, and any operation can be made to fail with SetError.
type MockConnector struct {
	config *base.ConnectorConfig

	folders   map[string]*base.Folder
	artifacts map[string]*base.Artifact
	contents  map[string]*base.Content
	children  map[string][]string
	types     []*base.ArtifactType

	errors   map[string]error
	onAction func(ctx context.Context, artifactID, actionID string, params base.ActionParameters) error

	calls          []Call
	loginCalls     []LoginCall
	commitComments []string
	actionParams   []base.ActionParameters

	mu sync.Mutex
}

// Call records one connector call
type Call struct {
	Operation string
	NodeID    string
	Time      time.Time
}

// LoginCall records a Login call
type LoginCall struct {
	Username string
	Password string
}

const mockRoot = "/"

// NewMockConnector creates a mock connector with an empty root folder
func NewMockConnector(id, name string) *MockConnector {
	return NewMockConnectorWithConfig(&base.ConnectorConfig{ID: id, Name: name, Type: "mock"})
}

// NewMockConnectorWithConfig creates a mock connector for cfg
func NewMockConnectorWithConfig(cfg *base.ConnectorConfig) *MockConnector {
	m := &MockConnector{
		config:    cfg,
		folders:   make(map[string]*base.Folder),
		artifacts: make(map[string]*base.Artifact),
		contents:  make(map[string]*base.Content),
		children:  make(map[string][]string),
		errors:    make(map[string]error),
		types: []*base.ArtifactType{
			{Name: "text-plain", MimeType: "text/plain", Representations: []string{"raw"}},
		},
	}
	m.folders[mockRoot] = &base.Folder{ID: mockRoot, ConnectorID: cfg.ID, Metadata: base.NodeMetadata{Name: cfg.DisplayName()}}
	return m
}

func mockKey(id string) string {
	if id == "" {
		return mockRoot
	}
	return id
}

// AddFolder adds a folder below parentID
func (m *MockConnector) AddFolder(parentID, id, name string) *base.Folder {
	m.mu.Lock()
	defer m.mu.Unlock()
	parentID = mockKey(parentID)
	f := &base.Folder{ID: id, ConnectorID: m.config.ID, ParentFolderID: parentID, Metadata: base.NodeMetadata{Name: name}}
	m.folders[id] = f
	m.children[parentID] = append(m.children[parentID], id)
	return f
}

// AddArtifact adds an artifact below folderID
func (m *MockConnector) AddArtifact(folderID, id, name, typeName string, revision int64, data []byte) *base.Artifact {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addArtifactLocked(mockKey(folderID), id, name, typeName, revision, data)
}

func (m *MockConnector) addArtifactLocked(folderID, id, name, typeName string, revision int64, data []byte) *base.Artifact {
	a := &base.Artifact{
		ID:             id,
		ConnectorID:    m.config.ID,
		ParentFolderID: folderID,
		Type:           &base.ArtifactType{Name: typeName, MimeType: "text/plain", Revision: revision},
		Metadata:       base.NodeMetadata{Name: name},
	}
	m.artifacts[id] = a
	m.contents[id] = &base.Content{Data: data, MimeType: "text/plain"}
	m.children[folderID] = append(m.children[folderID], id)
	return a
}

// RemoveArtifact deletes an artifact without recording a call
func (m *MockConnector) RemoveArtifact(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(id)
}

func (m *MockConnector) removeLocked(id string) {
	var parent string
	if a, ok := m.artifacts[id]; ok {
		parent = a.ParentFolderID
		delete(m.artifacts, id)
		delete(m.contents, id)
	} else if f, ok := m.folders[id]; ok {
		parent = f.ParentFolderID
		for _, child := range m.children[id] {
			m.removeLocked(child)
		}
		delete(m.children, id)
		delete(m.folders, id)
	}
	kids := m.children[parent]
	for i, c := range kids {
		if c == id {
			m.children[parent] = append(kids[:i:i], kids[i+1:]...)
			break
		}
	}
}

// SetError makes operation fail with err; nil clears it
func (m *MockConnector) SetError(operation string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.errors, operation)
		return
	}
	m.errors[operation] = err
}

// SetSupportedTypes replaces the supported artifact types
func (m *MockConnector) SetSupportedTypes(types ...*base.ArtifactType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.types = types
}

// SetOnAction overrides ExecuteParameterizedAction
func (m *MockConnector) SetOnAction(fn func(ctx context.Context, artifactID, actionID string, params base.ActionParameters) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onAction = fn
}

// record must be called with mu held
func (m *MockConnector) record(op, nodeID string) error {
	m.calls = append(m.calls, Call{Operation: op, NodeID: nodeID, Time: time.Now()})
	return m.errors[op]
}

// Calls returns every recorded call
func (m *MockConnector) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// CallCount returns how often operation was called
func (m *MockConnector) CallCount(operation string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Operation == operation {
			n++
		}
	}
	return n
}

// LoginCalls returns the recorded Login calls
func (m *MockConnector) LoginCalls() []LoginCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]LoginCall(nil), m.loginCalls...)
}

// CommitComments returns the comments passed to CommitPendingChanges
func (m *MockConnector) CommitComments() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.commitComments...)
}

// ActionParams returns the parameters of every ExecuteParameterizedAction call
func (m *MockConnector) ActionParams() []base.ActionParameters {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]base.ActionParameters(nil), m.actionParams...)
}

// Configuration implements base.RepositoryConnector
func (m *MockConnector) Configuration() *base.ConnectorConfig {
	return m.config
}

// Login implements base.RepositoryConnector
func (m *MockConnector) Login(ctx context.Context, username, password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loginCalls = append(m.loginCalls, LoginCall{Username: username, Password: password})
	return m.record("Login", "")
}

// CommitPendingChanges implements base.RepositoryConnector
func (m *MockConnector) CommitPendingChanges(ctx context.Context, comment string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commitComments = append(m.commitComments, comment)
	return m.record("CommitPendingChanges", "")
}

// GetChildren implements base.RepositoryConnector
func (m *MockConnector) GetChildren(ctx context.Context, nodeID string) (*base.NodeCollection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("GetChildren", nodeID); err != nil {
		return nil, err
	}
	key := mockKey(nodeID)
	if _, ok := m.folders[key]; !ok {
		return nil, base.NewNodeNotFoundError(m.config.ID, nodeID)
	}
	coll := base.NewNodeCollection()
	for _, id := range m.children[key] {
		if f, ok := m.folders[id]; ok {
			coll.Add(f)
		} else if a, ok := m.artifacts[id]; ok {
			coll.Add(a)
		}
	}
	return coll, nil
}

// GetRepositoryArtifact implements base.RepositoryConnector
func (m *MockConnector) GetRepositoryArtifact(ctx context.Context, artifactID string) (*base.Artifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("GetRepositoryArtifact", artifactID); err != nil {
		return nil, err
	}
	a, ok := m.artifacts[artifactID]
	if !ok {
		return nil, base.NewNodeNotFoundError(m.config.ID, artifactID)
	}
	return a, nil
}

// GetRepositoryFolder implements base.RepositoryConnector
func (m *MockConnector) GetRepositoryFolder(ctx context.Context, folderID string) (*base.Folder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("GetRepositoryFolder", folderID); err != nil {
		return nil, err
	}
	f, ok := m.folders[mockKey(folderID)]
	if !ok {
		return nil, base.NewNodeNotFoundError(m.config.ID, folderID)
	}
	return f, nil
}

// GetRepositoryArtifactPreview implements base.RepositoryConnector
func (m *MockConnector) GetRepositoryArtifactPreview(ctx context.Context, artifactID string) (*base.Content, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("GetRepositoryArtifactPreview", artifactID); err != nil {
		return nil, err
	}
	c, ok := m.contents[artifactID]
	if !ok {
		return nil, base.NewNodeNotFoundError(m.config.ID, artifactID)
	}
	return c, nil
}

// GetContent implements base.RepositoryConnector
func (m *MockConnector) GetContent(ctx context.Context, artifactID, representation string) (*base.Content, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("GetContent", artifactID); err != nil {
		return nil, err
	}
	c, ok := m.contents[artifactID]
	if !ok {
		return nil, base.NewNodeNotFoundError(m.config.ID, artifactID)
	}
	return c, nil
}

// CreateArtifact implements base.RepositoryConnector
func (m *MockConnector) CreateArtifact(ctx context.Context, folderID, name, artifactType string, content *base.Content) (*base.Artifact, error) {
	return m.CreateArtifactFromContentRepresentation(ctx, folderID, name, artifactType, "", content)
}

// CreateArtifactFromContentRepresentation implements base.RepositoryConnector
func (m *MockConnector) CreateArtifactFromContentRepresentation(ctx context.Context, folderID, name, artifactType, representation string, content *base.Content) (*base.Artifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("CreateArtifact", folderID); err != nil {
		return nil, err
	}
	key := mockKey(folderID)
	if _, ok := m.folders[key]; !ok {
		return nil, base.NewNodeNotFoundError(m.config.ID, folderID)
	}
	var data []byte
	if content != nil {
		data = content.Data
	}
	return m.addArtifactLocked(key, path.Join(key, name), name, artifactType, 1, data), nil
}

// CreateFolder implements base.RepositoryConnector
func (m *MockConnector) CreateFolder(ctx context.Context, parentFolderID, name string) (*base.Folder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("CreateFolder", parentFolderID); err != nil {
		return nil, err
	}
	key := mockKey(parentFolderID)
	if _, ok := m.folders[key]; !ok {
		return nil, base.NewNodeNotFoundError(m.config.ID, parentFolderID)
	}
	id := path.Join(key, name)
	f := &base.Folder{ID: id, ConnectorID: m.config.ID, ParentFolderID: key, Metadata: base.NodeMetadata{Name: name}}
	m.folders[id] = f
	m.children[key] = append(m.children[key], id)
	return f, nil
}

// UpdateContent implements base.RepositoryConnector
func (m *MockConnector) UpdateContent(ctx context.Context, artifactID string, content *base.Content) error {
	return m.UpdateContentRepresentation(ctx, artifactID, "", content)
}

// UpdateContentRepresentation implements base.RepositoryConnector
func (m *MockConnector) UpdateContentRepresentation(ctx context.Context, artifactID, representation string, content *base.Content) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("UpdateContent", artifactID); err != nil {
		return err
	}
	a, ok := m.artifacts[artifactID]
	if !ok {
		return base.NewNodeNotFoundError(m.config.ID, artifactID)
	}
	m.contents[artifactID] = content
	a.Type = a.Type.WithRevision(a.Type.Revision + 1)
	return nil
}

// DeleteArtifact implements base.RepositoryConnector
func (m *MockConnector) DeleteArtifact(ctx context.Context, artifactID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("DeleteArtifact", artifactID); err != nil {
		return err
	}
	if _, ok := m.artifacts[artifactID]; !ok {
		return base.NewNodeNotFoundError(m.config.ID, artifactID)
	}
	m.removeLocked(artifactID)
	return nil
}

// DeleteFolder implements base.RepositoryConnector
func (m *MockConnector) DeleteFolder(ctx context.Context, folderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("DeleteFolder", folderID); err != nil {
		return err
	}
	if _, ok := m.folders[folderID]; !ok || folderID == mockRoot {
		return base.NewNodeNotFoundError(m.config.ID, folderID)
	}
	m.removeLocked(folderID)
	return nil
}

// GetSupportedArtifactTypes implements base.RepositoryConnector
func (m *MockConnector) GetSupportedArtifactTypes(ctx context.Context, folderID string) ([]*base.ArtifactType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("GetSupportedArtifactTypes", folderID); err != nil {
		return nil, err
	}
	return append([]*base.ArtifactType(nil), m.types...), nil
}

// ExecuteParameterizedAction implements base.RepositoryConnector. Without an
// override it runs the common actions.
func (m *MockConnector) ExecuteParameterizedAction(ctx context.Context, artifactID, actionID string, params base.ActionParameters) error {
	m.mu.Lock()
	m.actionParams = append(m.actionParams, params)
	err := m.record("ExecuteParameterizedAction", artifactID)
	fn := m.onAction
	m.mu.Unlock()

	if err != nil {
		return err
	}
	if fn != nil {
		return fn(ctx, artifactID, actionID, params)
	}
	return ExecuteCommonAction(ctx, m, artifactID, actionID, params)
}

// HealthCheck implements base.RepositoryConnector
func (m *MockConnector) HealthCheck(ctx context.Context) (*base.HealthStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("HealthCheck", ""); err != nil {
		return nil, err
	}
	return &base.HealthStatus{Healthy: true, Timestamp: time.Now()}, nil
}

var _ base.RepositoryConnector = (*MockConnector)(nil)
