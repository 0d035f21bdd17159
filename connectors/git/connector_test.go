// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package git

import (
	"context"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cycle/connectors/base"
)

func newMemoryRepo(t *testing.T) (*Connector, *gogit.Repository) {
	t.Helper()
	fs := memfs.New()
	repo, err := gogit.Init(memory.NewStorage(), fs)
	require.NoError(t, err)

	require.NoError(t, util.WriteFile(fs, "models/loan.bpmn", []byte("<definitions/>"), 0o644))
	require.NoError(t, util.WriteFile(fs, "README.md", []byte("models"), 0o644))

	c, err := NewWithRepository(&base.ConnectorConfig{
		ID:      "git",
		Name:    "Model Repository",
		Type:    Type,
		Options: map[string]interface{}{"author_email": "modeler@example.org"},
	}, repo)
	require.NoError(t, err)
	require.NoError(t, c.Login(context.Background(), "kermit", "kermit"))
	return c, repo
}

func TestNew_OpenAndInit(t *testing.T) {
	dir := t.TempDir()

	_, err := New(&base.ConnectorConfig{ID: "git", Type: Type, Options: map[string]interface{}{"path": dir}})
	assert.Error(t, err, "not a repository and init is off")

	c, err := New(&base.ConnectorConfig{ID: "git", Type: Type, Options: map[string]interface{}{"path": dir, "init": true}})
	require.NoError(t, err)
	root, err := c.GetChildren(context.Background(), "/")
	require.NoError(t, err)
	assert.Equal(t, 0, root.Len(), ".git is hidden")

	_, err = New(&base.ConnectorConfig{ID: "git", Type: Type})
	assert.Error(t, err)
}

func TestGetChildren(t *testing.T) {
	c, _ := newMemoryRepo(t)
	ctx := context.Background()

	root, err := c.GetChildren(ctx, "")
	require.NoError(t, err)
	require.Equal(t, 2, root.Len())
	assert.Equal(t, "/models", root.Nodes[0].NodeID())
	assert.Equal(t, "/README.md", root.Nodes[1].NodeID())

	models, err := c.GetChildren(ctx, "/models")
	require.NoError(t, err)
	a := models.Artifacts()[0]
	assert.Equal(t, "/models/loan.bpmn", a.ID)
	assert.Equal(t, "bpmn20-xml", a.Type.Name)
	assert.Equal(t, int64(0), a.Revision(), "uncommitted in an empty repository")
	assert.Equal(t, "/models", a.ParentFolderID)

	_, err = c.GetChildren(ctx, "/.git")
	assert.ErrorIs(t, err, base.ErrNodeNotFound)
	_, err = c.GetChildren(ctx, "/../x")
	assert.ErrorIs(t, err, base.ErrInvalidArgument)
}

func TestCommitPendingChanges_RevisionCounting(t *testing.T) {
	c, repo := newMemoryRepo(t)
	ctx := context.Background()

	require.NoError(t, c.CommitPendingChanges(ctx, "initial import"))
	a, err := c.GetRepositoryArtifact(ctx, "/models/loan.bpmn")
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.Revision())

	head, err := repo.Head()
	require.NoError(t, err)
	commit, err := repo.CommitObject(head.Hash())
	require.NoError(t, err)
	assert.Equal(t, "initial import", commit.Message)
	assert.Equal(t, "kermit", commit.Author.Name)
	assert.Equal(t, "modeler@example.org", commit.Author.Email)

	require.NoError(t, c.UpdateContent(ctx, "/models/loan.bpmn", &base.Content{Data: []byte("<definitions id='2'/>")}))
	a, err = c.GetRepositoryArtifact(ctx, "/models/loan.bpmn")
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.Revision(), "revision moves on commit")

	require.NoError(t, c.CommitPendingChanges(ctx, ""))
	a, err = c.GetRepositoryArtifact(ctx, "/models/loan.bpmn")
	require.NoError(t, err)
	assert.Equal(t, int64(2), a.Revision())

	readme, err := c.GetRepositoryArtifact(ctx, "/README.md")
	require.NoError(t, err)
	assert.Equal(t, int64(1), readme.Revision())
}

func TestCommitPendingChanges_CleanWorktree(t *testing.T) {
	c, repo := newMemoryRepo(t)
	ctx := context.Background()

	require.NoError(t, c.CommitPendingChanges(ctx, "first"))
	first, err := repo.Head()
	require.NoError(t, err)

	require.NoError(t, c.CommitPendingChanges(ctx, "nothing changed"))
	second, err := repo.Head()
	require.NoError(t, err)
	assert.Equal(t, first.Hash(), second.Hash())
}

func TestCommitPendingChanges_Deletion(t *testing.T) {
	c, repo := newMemoryRepo(t)
	ctx := context.Background()
	require.NoError(t, c.CommitPendingChanges(ctx, "first"))

	require.NoError(t, c.DeleteArtifact(ctx, "/README.md"))
	require.NoError(t, c.CommitPendingChanges(ctx, "remove readme"))

	head, err := repo.Head()
	require.NoError(t, err)
	commit, err := repo.CommitObject(head.Hash())
	require.NoError(t, err)
	tree, err := commit.Tree()
	require.NoError(t, err)
	_, err = tree.File("README.md")
	assert.Error(t, err)
	_, err = tree.File("models/loan.bpmn")
	assert.NoError(t, err)
}

func TestMutations(t *testing.T) {
	c, _ := newMemoryRepo(t)
	ctx := context.Background()

	f, err := c.CreateFolder(ctx, "/models", "drafts")
	require.NoError(t, err)
	assert.Equal(t, "/models/drafts", f.ID)

	_, err = c.CreateFolder(ctx, "/", ".git")
	assert.ErrorIs(t, err, base.ErrInvalidArgument)

	a, err := c.CreateArtifact(ctx, f.ID, "notes.txt", "", &base.Content{Data: []byte("draft")})
	require.NoError(t, err)
	assert.Equal(t, "text-plain", a.Type.Name)

	_, err = c.CreateArtifact(ctx, f.ID, "notes.txt", "", nil)
	assert.ErrorIs(t, err, base.ErrInvalidArgument)

	content, err := c.GetContent(ctx, a.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "draft", string(content.Data))

	require.NoError(t, c.DeleteFolder(ctx, "/models"))
	_, err = c.GetRepositoryFolder(ctx, "/models")
	assert.ErrorIs(t, err, base.ErrNodeNotFound)
	assert.ErrorIs(t, c.DeleteFolder(ctx, "/"), base.ErrInvalidArgument)
}

func TestHealthCheck(t *testing.T) {
	c, _ := newMemoryRepo(t)
	ctx := context.Background()

	status, err := c.HealthCheck(ctx)
	require.NoError(t, err)
	assert.Equal(t, "false", status.Details["clean"])

	require.NoError(t, c.CommitPendingChanges(ctx, "first"))
	status, err = c.HealthCheck(ctx)
	require.NoError(t, err)
	assert.Equal(t, "true", status.Details["clean"])
	assert.Equal(t, "master", status.Details["head"])
}
