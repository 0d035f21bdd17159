// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package sdk

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cycle/connectors/base"
)

func TestMockConnectorTree(t *testing.T) {
	ctx := context.Background()
	m := NewMockConnector("demo", "Demo")
	m.AddFolder("/", "/models", "models")
	m.AddArtifact("/models", "/models/a.bpmn", "a.bpmn", "bpmn20-xml", 4, []byte("x"))

	root, err := m.GetChildren(ctx, "/")
	require.NoError(t, err)
	require.Equal(t, 1, root.Len())
	assert.True(t, root.Nodes[0].IsFolder())

	children, err := m.GetChildren(ctx, "/models")
	require.NoError(t, err)
	require.Len(t, children.Artifacts(), 1)
	assert.Equal(t, int64(4), children.Artifacts()[0].Revision())

	require.NoError(t, m.UpdateContent(ctx, "/models/a.bpmn", &base.Content{Data: []byte("y")}))
	a, err := m.GetRepositoryArtifact(ctx, "/models/a.bpmn")
	require.NoError(t, err)
	assert.Equal(t, int64(5), a.Revision())

	require.NoError(t, m.DeleteFolder(ctx, "/models"))
	_, err = m.GetRepositoryArtifact(ctx, "/models/a.bpmn")
	assert.ErrorIs(t, err, base.ErrNodeNotFound)

	root, err = m.GetChildren(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 0, root.Len())
}

func TestMockConnectorRecording(t *testing.T) {
	ctx := context.Background()
	m := NewMockConnector("demo", "Demo")
	boom := errors.New("boom")
	m.SetError("Login", boom)

	assert.ErrorIs(t, m.Login(ctx, "u", "p"), boom)
	m.SetError("Login", nil)
	assert.NoError(t, m.Login(ctx, "u2", "p2"))

	assert.Equal(t, 2, m.CallCount("Login"))
	assert.Equal(t, []LoginCall{{"u", "p"}, {"u2", "p2"}}, m.LoginCalls())

	require.NoError(t, m.CommitPendingChanges(ctx, "msg"))
	assert.Equal(t, []string{"msg"}, m.CommitComments())
}
