// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package fs

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"cycle/connectors/base"
	"cycle/connectors/sdk"
)

// Type is the connector type name.
const Type = "fs"

// Connector serves a local directory tree.
type Connector struct {
	*sdk.BaseConnector
	basePath string
	exclude  []string
	readOnly bool
	catalog  *sdk.TypeCatalog
}

// New creates a filesystem connector. base_path must name an existing
// directory.
func New(cfg *base.ConnectorConfig) (*Connector, error) {
	validator := sdk.NewDefaultConfigValidator([]string{"base_path"}, map[string]interface{}{"read_only": false})
	cfg, err := validator.Prepare(cfg)
	if err != nil {
		return nil, err
	}

	c := &Connector{BaseConnector: sdk.NewBaseConnector(Type, cfg), catalog: sdk.DefaultTypeCatalog()}

	basePath, err := filepath.Abs(c.OptionString("base_path", ""))
	if err != nil {
		return nil, base.NewConnectorError(cfg.ID, "New", "invalid base_path", err)
	}
	info, err := os.Stat(basePath)
	if err != nil {
		return nil, base.NewConnectorError(cfg.ID, "New", "base_path is not accessible", err)
	}
	if !info.IsDir() {
		return nil, base.NewConnectorError(cfg.ID, "New", fmt.Sprintf("base_path %s is not a directory", basePath), base.ErrInvalidArgument)
	}

	c.basePath = basePath
	c.readOnly = c.OptionBool("read_only", false)
	for _, pattern := range c.OptionStrings("exclude") {
		if !doublestar.ValidatePattern(pattern) {
			return nil, base.NewConnectorError(cfg.ID, "New", fmt.Sprintf("invalid exclude pattern %q", pattern), base.ErrInvalidArgument)
		}
		c.exclude = append(c.exclude, pattern)
	}

	c.Log("Filesystem connector %s rooted at %s", cfg.ID, basePath)
	return c, nil
}

// BasePath returns the absolute directory served by the connector.
func (c *Connector) BasePath() string {
	return c.basePath
}

// resolve maps a node id to its relative slash path and absolute OS path.
func (c *Connector) resolve(op, id string) (rel, abs string, err error) {
	rel, err = base.CleanNodePath(id)
	if err != nil {
		return "", "", base.NewConnectorError(c.ID(), op, "invalid node id", fmt.Errorf("%w: %v", base.ErrInvalidArgument, err))
	}
	if rel != "" && c.excluded(rel) {
		return "", "", c.NotFound(id)
	}
	return rel, filepath.Join(c.basePath, filepath.FromSlash(rel)), nil
}

// excluded reports whether rel or any of its ancestors matches an exclude
// pattern.
func (c *Connector) excluded(rel string) bool {
	if len(c.exclude) == 0 {
		return false
	}
	for prefix := rel; prefix != "." && prefix != ""; prefix = path.Dir(prefix) {
		for _, pattern := range c.exclude {
			if ok, _ := doublestar.Match(pattern, prefix); ok {
				return true
			}
		}
	}
	return false
}

func nodeID(rel string) string {
	return "/" + rel
}

func parentID(rel string) string {
	if rel == "" {
		return ""
	}
	dir := path.Dir(rel)
	if dir == "." {
		return "/"
	}
	return nodeID(dir)
}

func (c *Connector) toFolder(rel string, info iofs.FileInfo) *base.Folder {
	name := info.Name()
	if rel == "" {
		name = c.Configuration().DisplayName()
	}
	return &base.Folder{
		ID:             nodeID(rel),
		ConnectorID:    c.ID(),
		ParentFolderID: parentID(rel),
		Metadata: base.NodeMetadata{
			Name:         name,
			Path:         nodeID(rel),
			LastModified: info.ModTime().UTC(),
		},
	}
}

// toArtifact stamps the type with the modification time in seconds, which
// moves forward on every write.
func (c *Connector) toArtifact(rel string, info iofs.FileInfo) *base.Artifact {
	return &base.Artifact{
		ID:             nodeID(rel),
		ConnectorID:    c.ID(),
		ParentFolderID: parentID(rel),
		Type:           c.catalog.ForFileName(info.Name()).WithRevision(info.ModTime().Unix()),
		Metadata: base.NodeMetadata{
			Name:         info.Name(),
			Path:         nodeID(rel),
			LastModified: info.ModTime().UTC(),
			Properties:   map[string]string{"size": fmt.Sprintf("%d", info.Size())},
		},
	}
}

func (c *Connector) statErr(id string, op string, err error) error {
	if errors.Is(err, iofs.ErrNotExist) {
		return c.NotFound(id)
	}
	return c.Wrap(op, err)
}

func (c *Connector) stat(op, id string, wantDir bool) (string, string, iofs.FileInfo, error) {
	rel, abs, err := c.resolve(op, id)
	if err != nil {
		return "", "", nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", "", nil, c.statErr(id, op, err)
	}
	if info.IsDir() != wantDir {
		return "", "", nil, c.NotFound(id)
	}
	return rel, abs, info, nil
}

// GetChildren lists folders first, then files, each sorted by name.
func (c *Connector) GetChildren(ctx context.Context, nodeID string) (coll *base.NodeCollection, err error) {
	defer c.Observe("GetChildren", time.Now(), &err)

	rel, abs, _, err := c.stat("GetChildren", nodeID, true)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, c.statErr(nodeID, "GetChildren", err)
	}

	var folders, files []base.RepositoryNode
	for _, e := range entries {
		childRel := path.Join(rel, e.Name())
		if c.excluded(childRel) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if e.IsDir() {
			folders = append(folders, c.toFolder(childRel, info))
		} else if info.Mode().IsRegular() {
			files = append(files, c.toArtifact(childRel, info))
		}
	}
	byName := func(nodes []base.RepositoryNode) {
		sort.Slice(nodes, func(i, j int) bool {
			return nodes[i].NodeMetadata().Name < nodes[j].NodeMetadata().Name
		})
	}
	byName(folders)
	byName(files)
	return base.NewNodeCollection(append(folders, files...)...), nil
}

// GetRepositoryArtifact implements base.RepositoryConnector
func (c *Connector) GetRepositoryArtifact(ctx context.Context, artifactID string) (a *base.Artifact, err error) {
	defer c.Observe("GetRepositoryArtifact", time.Now(), &err)

	rel, _, info, err := c.stat("GetRepositoryArtifact", artifactID, false)
	if err != nil {
		return nil, err
	}
	return c.toArtifact(rel, info), nil
}

// GetRepositoryFolder implements base.RepositoryConnector
func (c *Connector) GetRepositoryFolder(ctx context.Context, folderID string) (f *base.Folder, err error) {
	defer c.Observe("GetRepositoryFolder", time.Now(), &err)

	rel, _, info, err := c.stat("GetRepositoryFolder", folderID, true)
	if err != nil {
		return nil, err
	}
	return c.toFolder(rel, info), nil
}

// GetContent returns the file bytes. Only the raw representation exists.
func (c *Connector) GetContent(ctx context.Context, artifactID, representation string) (content *base.Content, err error) {
	defer c.Observe("GetContent", time.Now(), &err)

	_, abs, info, err := c.stat("GetContent", artifactID, false)
	if err != nil {
		return nil, err
	}
	typ := c.catalog.ForFileName(info.Name())
	if !typ.SupportsRepresentation(representation) {
		return nil, base.NewConnectorError(c.ID(), "GetContent",
			fmt.Sprintf("no representation %q", representation), base.ErrInvalidArgument)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, c.statErr(artifactID, "GetContent", err)
	}
	return &base.Content{Data: data, MimeType: typ.MimeType}, nil
}

func (c *Connector) checkWritable(op string) error {
	if c.readOnly {
		return base.NewConnectorError(c.ID(), op, "connector is read-only", base.ErrUnsupported)
	}
	return nil
}

// CreateArtifact implements base.RepositoryConnector
func (c *Connector) CreateArtifact(ctx context.Context, folderID, name, artifactType string, content *base.Content) (*base.Artifact, error) {
	return c.CreateArtifactFromContentRepresentation(ctx, folderID, name, artifactType, "", content)
}

// CreateArtifactFromContentRepresentation writes a new file. The file must
// not exist yet.
func (c *Connector) CreateArtifactFromContentRepresentation(ctx context.Context, folderID, name, artifactType, representation string, content *base.Content) (a *base.Artifact, err error) {
	defer c.Observe("CreateArtifact", time.Now(), &err)

	if err := c.checkWritable("CreateArtifact"); err != nil {
		return nil, err
	}
	if err := base.ValidateNodeName(name); err != nil {
		return nil, base.NewConnectorError(c.ID(), "CreateArtifact", "invalid name", err)
	}
	typ, ok := c.catalog.Resolve(artifactType, name)
	if !ok {
		return nil, base.NewConnectorError(c.ID(), "CreateArtifact",
			fmt.Sprintf("unknown artifact type %q", artifactType), base.ErrInvalidArgument)
	}
	if !typ.SupportsRepresentation(representation) {
		return nil, base.NewConnectorError(c.ID(), "CreateArtifact",
			fmt.Sprintf("no representation %q", representation), base.ErrInvalidArgument)
	}

	parentRel, parentAbs, _, err := c.stat("CreateArtifact", folderID, true)
	if err != nil {
		return nil, err
	}
	rel := path.Join(parentRel, name)
	if c.excluded(rel) {
		return nil, base.NewConnectorError(c.ID(), "CreateArtifact", fmt.Sprintf("%s is excluded", name), base.ErrInvalidArgument)
	}
	abs := filepath.Join(parentAbs, name)

	f, err := os.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, iofs.ErrExist) {
		return nil, base.NewConnectorError(c.ID(), "CreateArtifact", fmt.Sprintf("%s already exists", nodeID(rel)), base.ErrInvalidArgument)
	}
	if err != nil {
		return nil, c.Wrap("CreateArtifact", err)
	}
	if content != nil {
		if _, err := f.Write(content.Data); err != nil {
			f.Close()
			return nil, c.Wrap("CreateArtifact", err)
		}
	}
	if err := f.Close(); err != nil {
		return nil, c.Wrap("CreateArtifact", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, c.Wrap("CreateArtifact", err)
	}
	a = c.toArtifact(rel, info)
	if artifactType != "" {
		a.Type = typ.WithRevision(info.ModTime().Unix())
	}
	return a, nil
}

// CreateFolder implements base.RepositoryConnector
func (c *Connector) CreateFolder(ctx context.Context, parentFolderID, name string) (f *base.Folder, err error) {
	defer c.Observe("CreateFolder", time.Now(), &err)

	if err := c.checkWritable("CreateFolder"); err != nil {
		return nil, err
	}
	if err := base.ValidateNodeName(name); err != nil {
		return nil, base.NewConnectorError(c.ID(), "CreateFolder", "invalid name", err)
	}
	parentRel, parentAbs, _, err := c.stat("CreateFolder", parentFolderID, true)
	if err != nil {
		return nil, err
	}
	rel := path.Join(parentRel, name)
	if c.excluded(rel) {
		return nil, base.NewConnectorError(c.ID(), "CreateFolder", fmt.Sprintf("%s is excluded", name), base.ErrInvalidArgument)
	}
	abs := filepath.Join(parentAbs, name)
	if err := os.Mkdir(abs, 0o755); err != nil {
		if errors.Is(err, iofs.ErrExist) {
			return nil, base.NewConnectorError(c.ID(), "CreateFolder", fmt.Sprintf("%s already exists", nodeID(rel)), base.ErrInvalidArgument)
		}
		return nil, c.Wrap("CreateFolder", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, c.Wrap("CreateFolder", err)
	}
	return c.toFolder(rel, info), nil
}

// UpdateContent implements base.RepositoryConnector
func (c *Connector) UpdateContent(ctx context.Context, artifactID string, content *base.Content) error {
	return c.UpdateContentRepresentation(ctx, artifactID, "", content)
}

// UpdateContentRepresentation overwrites an existing file.
func (c *Connector) UpdateContentRepresentation(ctx context.Context, artifactID, representation string, content *base.Content) (err error) {
	defer c.Observe("UpdateContent", time.Now(), &err)

	if err := c.checkWritable("UpdateContent"); err != nil {
		return err
	}
	_, abs, info, err := c.stat("UpdateContent", artifactID, false)
	if err != nil {
		return err
	}
	if !c.catalog.ForFileName(info.Name()).SupportsRepresentation(representation) {
		return base.NewConnectorError(c.ID(), "UpdateContent",
			fmt.Sprintf("no representation %q", representation), base.ErrInvalidArgument)
	}
	var data []byte
	if content != nil {
		data = content.Data
	}
	return c.Wrap("UpdateContent", os.WriteFile(abs, data, info.Mode().Perm()))
}

// DeleteArtifact implements base.RepositoryConnector
func (c *Connector) DeleteArtifact(ctx context.Context, artifactID string) (err error) {
	defer c.Observe("DeleteArtifact", time.Now(), &err)

	if err := c.checkWritable("DeleteArtifact"); err != nil {
		return err
	}
	_, abs, _, err := c.stat("DeleteArtifact", artifactID, false)
	if err != nil {
		return err
	}
	return c.Wrap("DeleteArtifact", os.Remove(abs))
}

// DeleteFolder removes a directory recursively. The base directory cannot
// be deleted.
func (c *Connector) DeleteFolder(ctx context.Context, folderID string) (err error) {
	defer c.Observe("DeleteFolder", time.Now(), &err)

	if err := c.checkWritable("DeleteFolder"); err != nil {
		return err
	}
	rel, abs, _, err := c.stat("DeleteFolder", folderID, true)
	if err != nil {
		return err
	}
	if rel == "" {
		return base.NewConnectorError(c.ID(), "DeleteFolder", "the base directory cannot be deleted", base.ErrInvalidArgument)
	}
	return c.Wrap("DeleteFolder", os.RemoveAll(abs))
}

// GetSupportedArtifactTypes implements base.RepositoryConnector
func (c *Connector) GetSupportedArtifactTypes(ctx context.Context, folderID string) ([]*base.ArtifactType, error) {
	if _, _, _, err := c.stat("GetSupportedArtifactTypes", folderID, true); err != nil {
		return nil, err
	}
	return c.catalog.Types(), nil
}

// ExecuteParameterizedAction implements base.RepositoryConnector
func (c *Connector) ExecuteParameterizedAction(ctx context.Context, artifactID, actionID string, params base.ActionParameters) error {
	return sdk.ExecuteCommonAction(ctx, c, artifactID, actionID, params)
}

// HealthCheck verifies the base directory is still reachable.
func (c *Connector) HealthCheck(ctx context.Context) (*base.HealthStatus, error) {
	start := time.Now()
	status, _ := c.BaseConnector.HealthCheck(ctx)
	status.Details["base_path"] = c.basePath
	if _, err := os.Stat(c.basePath); err != nil {
		status.Healthy = false
		status.Error = err.Error()
	}
	status.Latency = time.Since(start)
	return status, nil
}

// DefaultRoot returns the first filesystem root of the host: "/" on Unix,
// the system drive on Windows.
func DefaultRoot() string {
	if vol := os.Getenv("SystemDrive"); vol != "" && filepath.Separator == '\\' {
		return vol + `\`
	}
	if filepath.Separator == '\\' {
		return `C:\`
	}
	return "/"
}
