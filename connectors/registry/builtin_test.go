// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cycle/connectors/base"
)

func TestBuiltin_Types(t *testing.T) {
	assert.Equal(t,
		[]string{"azureblob", "demo", "fs", "gcs", "git", "memory", "s3", "signavio"},
		Builtin().Types())
}

func TestBuiltin_Build(t *testing.T) {
	ctx := context.Background()
	r := Builtin()

	set := &base.ConfigurationSet{
		PrincipalID: "kermit",
		Connectors: []*base.ConnectorConfig{
			{ID: "demo", Name: "Demo Repository", Type: "demo"},
			{ID: "files", Name: "Files", Type: "fs", Options: map[string]interface{}{"base_path": t.TempDir()}},
			{ID: "scratch", Name: "Scratch", Type: "memory"},
			{ID: "models", Name: "Models", Type: "git", Options: map[string]interface{}{"path": t.TempDir(), "init": true}},
			{ID: "signavio", Name: "Signavio", Type: "signavio", ConnectionURL: "http://localhost:8080/activiti-modeler/"},
		},
	}
	conns, err := r.BuildAll(ctx, set)
	require.NoError(t, err)
	require.Len(t, conns, 5)
	for i, c := range conns {
		assert.Equal(t, set.Connectors[i].ID, c.Configuration().ID)
	}

	children, err := conns[0].GetChildren(ctx, "/")
	require.NoError(t, err)
	assert.NotZero(t, children.Len())
}

func TestBuiltin_BuildFailure(t *testing.T) {
	_, err := Builtin().Build(context.Background(), &base.ConnectorConfig{ID: "files", Type: "fs"})
	require.Error(t, err)

	_, err = Builtin().Build(context.Background(), &base.ConnectorConfig{ID: "x", Type: "ftp"})
	assert.True(t, errors.Is(err, ErrUnknownType))
}
