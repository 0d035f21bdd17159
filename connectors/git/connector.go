// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package git

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"cycle/connectors/base"
	"cycle/connectors/sdk"
)

// Type is the connector type name.
const Type = "git"

// Connector serves a git worktree.
type Connector struct {
	*sdk.BaseConnector
	repo    *gogit.Repository
	tree    *gogit.Worktree
	fs      billy.Filesystem
	catalog *sdk.TypeCatalog
	mu      sync.Mutex
}

// New opens the repository named by the path option or connection_url.
func New(cfg *base.ConnectorConfig) (*Connector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	b := sdk.NewBaseConnector(Type, cfg)
	dir := b.OptionString("path", cfg.ConnectionURL)
	if dir == "" {
		return nil, fmt.Errorf("connector %q: path or connection_url is required", cfg.ID)
	}

	repo, err := gogit.PlainOpen(dir)
	if errors.Is(err, gogit.ErrRepositoryNotExists) && b.OptionBool("init", false) {
		b.Log("Initializing repository at %s", dir)
		repo, err = gogit.PlainInit(dir, false)
	}
	if err != nil {
		return nil, base.NewConnectorError(cfg.ID, "New", fmt.Sprintf("cannot open repository %s", dir), err)
	}
	return NewWithRepository(cfg, repo)
}

// NewWithRepository wraps an already opened repository. It must have a
// worktree.
func NewWithRepository(cfg *base.ConnectorConfig, repo *gogit.Repository) (*Connector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	tree, err := repo.Worktree()
	if err != nil {
		return nil, base.NewConnectorError(cfg.ID, "New", "repository has no worktree", err)
	}
	return &Connector{
		BaseConnector: sdk.NewBaseConnector(Type, cfg),
		repo:          repo,
		tree:          tree,
		fs:            tree.Filesystem,
		catalog:       sdk.DefaultTypeCatalog(),
	}, nil
}

func (c *Connector) resolve(op, id string) (string, error) {
	rel, err := base.CleanNodePath(id)
	if err != nil {
		return "", base.NewConnectorError(c.ID(), op, "invalid node id", fmt.Errorf("%w: %v", base.ErrInvalidArgument, err))
	}
	if rel == gitDir || strings.HasPrefix(rel, gitDir+"/") {
		return "", c.NotFound(id)
	}
	return rel, nil
}

const gitDir = ".git"

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

func (c *Connector) stat(op, id string, wantDir bool) (string, os.FileInfo, error) {
	rel, err := c.resolve(op, id)
	if err != nil {
		return "", nil, err
	}
	info, err := c.fs.Stat(c.fsPath(rel))
	if err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return "", nil, c.NotFound(id)
		}
		return "", nil, c.Wrap(op, err)
	}
	if info.IsDir() != wantDir {
		return "", nil, c.NotFound(id)
	}
	return rel, info, nil
}

func (c *Connector) fsPath(rel string) string {
	if rel == "" {
		return "/"
	}
	return rel
}

// revision counts the commits touching rel. Files never committed, and
// repositories without commits, are at revision 0.
func (c *Connector) revision(rel string) (int64, error) {
	iter, err := c.repo.Log(&gogit.LogOptions{FileName: &rel})
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	defer iter.Close()

	var n int64
	err = iter.ForEach(func(*object.Commit) error {
		n++
		return nil
	})
	return n, err
}

func (c *Connector) toFolder(rel string, info os.FileInfo) *base.Folder {
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

func (c *Connector) toArtifact(rel string, info os.FileInfo) (*base.Artifact, error) {
	rev, err := c.revision(rel)
	if err != nil {
		return nil, c.Wrap("revision", err)
	}
	return &base.Artifact{
		ID:             nodeID(rel),
		ConnectorID:    c.ID(),
		ParentFolderID: parentID(rel),
		Type:           c.catalog.ForFileName(info.Name()).WithRevision(rev),
		Metadata: base.NodeMetadata{
			Name:         info.Name(),
			Path:         nodeID(rel),
			LastModified: info.ModTime().UTC(),
			Properties:   map[string]string{"size": fmt.Sprintf("%d", info.Size())},
		},
	}, nil
}

// Login records the user as the default commit author.
func (c *Connector) Login(ctx context.Context, username, password string) error {
	c.MarkLoggedIn(username)
	return nil
}

// CommitPendingChanges stages every change in the worktree and commits it.
// A clean worktree is not an error.
func (c *Connector) CommitPendingChanges(ctx context.Context, comment string) (err error) {
	defer c.Observe("CommitPendingChanges", time.Now(), &err)

	c.mu.Lock()
	defer c.mu.Unlock()

	status, err := c.tree.Status()
	if err != nil {
		return c.Wrap("CommitPendingChanges", err)
	}
	if status.IsClean() {
		c.Log("Nothing to commit in %s", c.ID())
		return nil
	}
	if err := c.tree.AddWithOptions(&gogit.AddOptions{All: true}); err != nil {
		return c.Wrap("CommitPendingChanges", err)
	}

	if comment == "" {
		comment = "Changes committed by " + c.author().Name
	}
	hash, err := c.tree.Commit(comment, &gogit.CommitOptions{All: true, Author: c.author()})
	if err != nil {
		return c.Wrap("CommitPendingChanges", err)
	}
	c.Log("Committed %s in %s", hash.String()[:8], c.ID())
	return nil
}

func (c *Connector) author() *object.Signature {
	name := c.OptionString("author_name", c.Username())
	if name == "" {
		name = "cycle"
	}
	return &object.Signature{
		Name:  name,
		Email: c.OptionString("author_email", name+"@localhost"),
		When:  time.Now(),
	}
}

// GetChildren lists folders first, then files, each sorted by name. The
// .git directory is never listed.
func (c *Connector) GetChildren(ctx context.Context, nodeID string) (coll *base.NodeCollection, err error) {
	defer c.Observe("GetChildren", time.Now(), &err)

	c.mu.Lock()
	defer c.mu.Unlock()

	rel, _, err := c.stat("GetChildren", nodeID, true)
	if err != nil {
		return nil, err
	}
	infos, err := c.fs.ReadDir(c.fsPath(rel))
	if err != nil {
		return nil, c.Wrap("GetChildren", err)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name() < infos[j].Name() })

	var folders, files []base.RepositoryNode
	for _, info := range infos {
		childRel := path.Join(rel, info.Name())
		switch {
		case childRel == gitDir:
		case info.IsDir():
			folders = append(folders, c.toFolder(childRel, info))
		case info.Mode().IsRegular():
			a, err := c.toArtifact(childRel, info)
			if err != nil {
				return nil, err
			}
			files = append(files, a)
		}
	}
	return base.NewNodeCollection(append(folders, files...)...), nil
}

// GetRepositoryArtifact implements base.RepositoryConnector
func (c *Connector) GetRepositoryArtifact(ctx context.Context, artifactID string) (a *base.Artifact, err error) {
	defer c.Observe("GetRepositoryArtifact", time.Now(), &err)

	c.mu.Lock()
	defer c.mu.Unlock()

	rel, info, err := c.stat("GetRepositoryArtifact", artifactID, false)
	if err != nil {
		return nil, err
	}
	return c.toArtifact(rel, info)
}

// GetRepositoryFolder implements base.RepositoryConnector
func (c *Connector) GetRepositoryFolder(ctx context.Context, folderID string) (*base.Folder, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rel, info, err := c.stat("GetRepositoryFolder", folderID, true)
	if err != nil {
		return nil, err
	}
	return c.toFolder(rel, info), nil
}

// GetContent reads the worktree copy of a file.
func (c *Connector) GetContent(ctx context.Context, artifactID, representation string) (content *base.Content, err error) {
	defer c.Observe("GetContent", time.Now(), &err)

	c.mu.Lock()
	defer c.mu.Unlock()

	rel, info, err := c.stat("GetContent", artifactID, false)
	if err != nil {
		return nil, err
	}
	typ := c.catalog.ForFileName(info.Name())
	if !typ.SupportsRepresentation(representation) {
		return nil, base.NewConnectorError(c.ID(), "GetContent",
			fmt.Sprintf("no representation %q", representation), base.ErrInvalidArgument)
	}
	data, err := util.ReadFile(c.fs, rel)
	if err != nil {
		return nil, c.Wrap("GetContent", err)
	}
	return &base.Content{Data: data, MimeType: typ.MimeType}, nil
}

// CreateArtifact implements base.RepositoryConnector
func (c *Connector) CreateArtifact(ctx context.Context, folderID, name, artifactType string, content *base.Content) (*base.Artifact, error) {
	return c.CreateArtifactFromContentRepresentation(ctx, folderID, name, artifactType, "", content)
}

// CreateArtifactFromContentRepresentation writes a new file into the
// worktree.
func (c *Connector) CreateArtifactFromContentRepresentation(ctx context.Context, folderID, name, artifactType, representation string, content *base.Content) (a *base.Artifact, err error) {
	defer c.Observe("CreateArtifact", time.Now(), &err)

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

	c.mu.Lock()
	defer c.mu.Unlock()

	parentRel, _, err := c.stat("CreateArtifact", folderID, true)
	if err != nil {
		return nil, err
	}
	rel := path.Join(parentRel, name)
	if rel == gitDir {
		return nil, base.NewConnectorError(c.ID(), "CreateArtifact", "reserved name", base.ErrInvalidArgument)
	}
	if _, err := c.fs.Stat(rel); err == nil {
		return nil, base.NewConnectorError(c.ID(), "CreateArtifact", fmt.Sprintf("%s already exists", nodeID(rel)), base.ErrInvalidArgument)
	}
	var data []byte
	if content != nil {
		data = content.Data
	}
	if err := util.WriteFile(c.fs, rel, data, 0o644); err != nil {
		return nil, c.Wrap("CreateArtifact", err)
	}
	info, err := c.fs.Stat(rel)
	if err != nil {
		return nil, c.Wrap("CreateArtifact", err)
	}
	a, err = c.toArtifact(rel, info)
	if err != nil {
		return nil, err
	}
	if artifactType != "" {
		a.Type = typ.WithRevision(a.Revision())
	}
	return a, nil
}

// CreateFolder creates a directory. Git does not track empty directories,
// so the folder disappears from other clones until a file is committed in
// it.
func (c *Connector) CreateFolder(ctx context.Context, parentFolderID, name string) (*base.Folder, error) {
	if err := base.ValidateNodeName(name); err != nil {
		return nil, base.NewConnectorError(c.ID(), "CreateFolder", "invalid name", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	parentRel, _, err := c.stat("CreateFolder", parentFolderID, true)
	if err != nil {
		return nil, err
	}
	rel := path.Join(parentRel, name)
	if rel == gitDir {
		return nil, base.NewConnectorError(c.ID(), "CreateFolder", "reserved name", base.ErrInvalidArgument)
	}
	if _, err := c.fs.Stat(rel); err == nil {
		return nil, base.NewConnectorError(c.ID(), "CreateFolder", fmt.Sprintf("%s already exists", nodeID(rel)), base.ErrInvalidArgument)
	}
	if err := c.fs.MkdirAll(rel, 0o755); err != nil {
		return nil, c.Wrap("CreateFolder", err)
	}
	info, err := c.fs.Stat(rel)
	if err != nil {
		return nil, c.Wrap("CreateFolder", err)
	}
	return c.toFolder(rel, info), nil
}

// UpdateContent implements base.RepositoryConnector
func (c *Connector) UpdateContent(ctx context.Context, artifactID string, content *base.Content) error {
	return c.UpdateContentRepresentation(ctx, artifactID, "", content)
}

// UpdateContentRepresentation overwrites the worktree copy of a file.
func (c *Connector) UpdateContentRepresentation(ctx context.Context, artifactID, representation string, content *base.Content) (err error) {
	defer c.Observe("UpdateContent", time.Now(), &err)

	c.mu.Lock()
	defer c.mu.Unlock()

	rel, info, err := c.stat("UpdateContent", artifactID, false)
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
	return c.Wrap("UpdateContent", util.WriteFile(c.fs, rel, data, info.Mode().Perm()))
}

// DeleteArtifact implements base.RepositoryConnector
func (c *Connector) DeleteArtifact(ctx context.Context, artifactID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	rel, _, err := c.stat("DeleteArtifact", artifactID, false)
	if err != nil {
		return err
	}
	return c.Wrap("DeleteArtifact", c.fs.Remove(rel))
}

// DeleteFolder removes a directory and its contents from the worktree.
func (c *Connector) DeleteFolder(ctx context.Context, folderID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	rel, _, err := c.stat("DeleteFolder", folderID, true)
	if err != nil {
		return err
	}
	if rel == "" {
		return base.NewConnectorError(c.ID(), "DeleteFolder", "the worktree root cannot be deleted", base.ErrInvalidArgument)
	}
	return c.Wrap("DeleteFolder", util.RemoveAll(c.fs, rel))
}

// GetSupportedArtifactTypes implements base.RepositoryConnector
func (c *Connector) GetSupportedArtifactTypes(ctx context.Context, folderID string) ([]*base.ArtifactType, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, _, err := c.stat("GetSupportedArtifactTypes", folderID, true); err != nil {
		return nil, err
	}
	return c.catalog.Types(), nil
}

// ExecuteParameterizedAction implements base.RepositoryConnector
func (c *Connector) ExecuteParameterizedAction(ctx context.Context, artifactID, actionID string, params base.ActionParameters) error {
	return sdk.ExecuteCommonAction(ctx, c, artifactID, actionID, params)
}

// HealthCheck reports the current branch and whether the worktree has
// uncommitted changes.
func (c *Connector) HealthCheck(ctx context.Context) (*base.HealthStatus, error) {
	start := time.Now()
	status, _ := c.BaseConnector.HealthCheck(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if head, err := c.repo.Head(); err == nil {
		status.Details["head"] = head.Name().Short()
	}
	wt, err := c.tree.Status()
	if err != nil {
		status.Healthy = false
		status.Error = err.Error()
	} else {
		status.Details["clean"] = fmt.Sprintf("%t", wt.IsClean())
	}
	status.Latency = time.Since(start)
	return status, nil
}
