// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package sdk

import (
	"context"
	"fmt"

	"cycle/connectors/base"
)

// ExecuteCommonAction runs the actions every bundled connector supports.
// Connectors call it from ExecuteParameterizedAction for action ids they do
// not handle themselves.
func ExecuteCommonAction(ctx context.Context, src base.RepositoryConnector, artifactID, actionID string, params base.ActionParameters) error {
	switch actionID {
	case base.ActionCopyTo:
		return CopyArtifact(ctx, src, artifactID, params)
	default:
		return base.NewConnectorError(src.Configuration().ID, "ExecuteParameterizedAction",
			fmt.Sprintf("unknown action %q", actionID), base.ErrUnsupported)
	}
}

// CopyArtifact copies an artifact's default content into the connector bound
// to the targetConnectorId parameter. targetFolderId and targetName are
// optional; the name defaults to the source artifact's name.
func CopyArtifact(ctx context.Context, src base.RepositoryConnector, artifactID string, params base.ActionParameters) error {
	srcID := src.Configuration().ID

	target, ok := params.Connector(base.ParamTargetConnector)
	if !ok {
		return base.NewConnectorError(srcID, base.ActionCopyTo,
			fmt.Sprintf("parameter %q must be a resolved connector reference", base.ParamTargetConnector), base.ErrInvalidArgument)
	}

	artifact, err := src.GetRepositoryArtifact(ctx, artifactID)
	if err != nil {
		return err
	}
	content, err := src.GetContent(ctx, artifactID, "")
	if err != nil {
		return err
	}

	folderID, _ := params.String(base.ParamTargetFolder)
	name, ok := params.String(base.ParamTargetName)
	if !ok || name == "" {
		name = artifact.Metadata.Name
	}
	typeName := ""
	if artifact.Type != nil {
		typeName = artifact.Type.Name
	}

	if _, err := target.CreateArtifact(ctx, folderID, name, typeName, content); err != nil {
		return fmt.Errorf("copy %s/%s to %s: %w", srcID, artifactID, target.Configuration().ID, err)
	}
	return nil
}
