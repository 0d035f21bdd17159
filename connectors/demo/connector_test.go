// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package demo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cycle/connectors/base"
	"cycle/connectors/sdk"
)

func newDemo(t *testing.T) *Connector {
	t.Helper()
	c, err := New(&base.ConnectorConfig{ID: "demo", Name: "Demo Repository", Type: Type})
	require.NoError(t, err)
	return c
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	_, err := New(&base.ConnectorConfig{ID: "", Type: Type})
	assert.Error(t, err)
}

func TestGetChildren_Root(t *testing.T) {
	c := newDemo(t)
	ctx := context.Background()

	for _, rootID := range []string{"", "/"} {
		coll, err := c.GetChildren(ctx, rootID)
		require.NoError(t, err)
		folders := coll.Folders()
		require.Len(t, folders, 2)
		assert.Equal(t, "/processes", folders[0].ID)
		assert.Equal(t, "documents", folders[1].Metadata.Name)
		assert.Equal(t, "demo", folders[0].ConnectorID)
		assert.Equal(t, "/", folders[0].ParentFolderID)
	}
}

func TestGetChildren_Errors(t *testing.T) {
	c := newDemo(t)
	ctx := context.Background()

	_, err := c.GetChildren(ctx, "/nope")
	assert.ErrorIs(t, err, base.ErrNodeNotFound)

	_, err = c.GetChildren(ctx, "/documents/readme.txt")
	assert.ErrorIs(t, err, base.ErrNodeNotFound, "artifacts have no children")
}

func TestGetRepositoryArtifact(t *testing.T) {
	c := newDemo(t)
	a, err := c.GetRepositoryArtifact(context.Background(), "/processes/loan-approval.bpmn")
	require.NoError(t, err)
	assert.Equal(t, TypeBPMN, a.Type.Name)
	assert.Equal(t, int64(1), a.Revision())
	assert.Equal(t, "/processes", a.ParentFolderID)

	_, err = c.GetRepositoryArtifact(context.Background(), "/processes")
	assert.ErrorIs(t, err, base.ErrNodeNotFound)
}

func TestGetContent(t *testing.T) {
	c := newDemo(t)
	ctx := context.Background()

	content, err := c.GetContent(ctx, "/processes/loan-approval.bpmn", "")
	require.NoError(t, err)
	assert.Equal(t, "application/xml", content.MimeType)
	assert.Contains(t, string(content.Data), "loanApproval")

	content, err = c.GetContent(ctx, "/processes/loan-approval.bpmn", RepresentationImage)
	require.NoError(t, err)
	assert.Equal(t, "image/png", content.MimeType)

	_, err = c.GetContent(ctx, "/processes/loan-approval.bpmn", "pdf")
	assert.ErrorIs(t, err, base.ErrInvalidArgument)

	_, err = c.GetContent(ctx, "/processes/drafts/invoice-check.bpmn", RepresentationImage)
	assert.ErrorIs(t, err, base.ErrNodeNotFound)
}

func TestGetRepositoryArtifactPreview(t *testing.T) {
	c := newDemo(t)
	ctx := context.Background()

	preview, err := c.GetRepositoryArtifactPreview(ctx, "/processes/loan-approval.bpmn")
	require.NoError(t, err)
	assert.Equal(t, pngPlaceholder, preview.Data)

	_, err = c.GetRepositoryArtifactPreview(ctx, "/documents/readme.txt")
	assert.ErrorIs(t, err, base.ErrNodeNotFound)
}

func TestCreateUpdateDelete(t *testing.T) {
	c := newDemo(t)
	ctx := context.Background()

	f, err := c.CreateFolder(ctx, "/documents", "notes")
	require.NoError(t, err)
	assert.Equal(t, "/documents/notes", f.ID)

	a, err := c.CreateArtifact(ctx, f.ID, "todo.txt", TypeText, &base.Content{Data: []byte("one")})
	require.NoError(t, err)
	assert.Equal(t, "/documents/notes/todo.txt", a.ID)
	assert.Equal(t, int64(1), a.Revision())

	_, err = c.CreateArtifact(ctx, f.ID, "todo.txt", TypeText, nil)
	assert.ErrorIs(t, err, base.ErrInvalidArgument, "duplicate name")

	require.NoError(t, c.UpdateContent(ctx, a.ID, &base.Content{Data: []byte("two")}))
	a, err = c.GetRepositoryArtifact(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), a.Revision())
	content, err := c.GetContent(ctx, a.ID, RepresentationText)
	require.NoError(t, err)
	assert.Equal(t, "two", string(content.Data))

	require.NoError(t, c.DeleteArtifact(ctx, a.ID))
	_, err = c.GetRepositoryArtifact(ctx, a.ID)
	assert.ErrorIs(t, err, base.ErrNodeNotFound)

	require.NoError(t, c.DeleteFolder(ctx, "/processes"))
	_, err = c.GetRepositoryArtifact(ctx, "/processes/drafts/invoice-check.bpmn")
	assert.ErrorIs(t, err, base.ErrNodeNotFound)
	root, err := c.GetChildren(ctx, "/")
	require.NoError(t, err)
	assert.Equal(t, 1, root.Len())

	assert.ErrorIs(t, c.DeleteFolder(ctx, "/"), base.ErrInvalidArgument)
}

func TestCreateArtifact_Validation(t *testing.T) {
	c := newDemo(t)
	ctx := context.Background()

	_, err := c.CreateArtifact(ctx, "/", "a/b", TypeText, nil)
	assert.ErrorIs(t, err, base.ErrInvalidArgument)

	_, err = c.CreateArtifact(ctx, "/", "a.xls", "spreadsheet", nil)
	assert.ErrorIs(t, err, base.ErrInvalidArgument)

	_, err = c.CreateArtifact(ctx, "/missing", "a.txt", TypeText, nil)
	assert.ErrorIs(t, err, base.ErrNodeNotFound)

	a, err := c.CreateArtifactFromContentRepresentation(ctx, "", "model.bpmn", TypeBPMN, RepresentationImage, &base.Content{Data: pngPlaceholder})
	require.NoError(t, err)
	_, err = c.GetContent(ctx, a.ID, RepresentationImage)
	assert.NoError(t, err)
	_, err = c.GetContent(ctx, a.ID, "")
	assert.ErrorIs(t, err, base.ErrNodeNotFound, "xml representation was never written")
}

func TestGetSupportedArtifactTypes(t *testing.T) {
	c := newDemo(t)
	types, err := c.GetSupportedArtifactTypes(context.Background(), "/processes")
	require.NoError(t, err)
	require.Len(t, types, 3)
	assert.Equal(t, TypeBPMN, types[0].Name)
	assert.Equal(t, TypeText, types[2].Name)
}

func TestInstancesAreIndependent(t *testing.T) {
	a := newDemo(t)
	b := newDemo(t)
	require.NoError(t, a.DeleteFolder(context.Background(), "/documents"))
	_, err := b.GetRepositoryFolder(context.Background(), "/documents")
	assert.NoError(t, err)
}

func TestExecuteParameterizedAction_CopyTo(t *testing.T) {
	ctx := context.Background()
	src := newDemo(t)
	target := sdk.NewMockConnector("target", "Target")

	params := base.ActionParameters{
		base.ParamTargetConnector: base.ConnectorRef("target").Resolved(target),
		base.ParamTargetName:      base.Value("copy.txt"),
	}
	require.NoError(t, src.ExecuteParameterizedAction(ctx, "/documents/readme.txt", base.ActionCopyTo, params))

	copied, err := target.GetContent(ctx, "/copy.txt", "")
	require.NoError(t, err)
	assert.Contains(t, string(copied.Data), "Example repository")

	err = src.ExecuteParameterizedAction(ctx, "/documents/readme.txt", "publish", nil)
	assert.ErrorIs(t, err, base.ErrUnsupported)
}
