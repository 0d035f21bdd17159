// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

/*
Package base defines the contract between the federation layer and the
repository connectors it aggregates.

# Connector Interface

Every backend implements RepositoryConnector. A connector is built from one
ConnectorConfig and addresses its nodes with ids that are private to it;
callers always pair a node id with the id of the connector that issued it.

	type RepositoryConnector interface {
	    Configuration() *ConnectorConfig
	    Login(ctx context.Context, username, password string) error
	    GetChildren(ctx context.Context, nodeID string) (*NodeCollection, error)
	    GetRepositoryArtifact(ctx context.Context, artifactID string) (*Artifact, error)
	    ...
	}

# Node Model

Folder and Artifact both implement RepositoryNode. Listings are returned as
an ordered NodeCollection and serialize to a JSON array in which every node
carries a "kind" field.

# Action Parameters

Parameterized actions take ActionParameters. A parameter is either an
opaque Value or a ConnectorRef naming another configured connector:

	params := base.ActionParameters{
	    base.ParamTargetConnector: base.ConnectorRef("files"),
	    base.ParamTargetFolder:    base.Value("/imports"),
	}

The federation layer resolves references before dispatch, so an action
implementation reads the live connector with params.Connector(name).

# Errors

Missing nodes are reported as *NodeNotFoundError, which matches
ErrNodeNotFound under errors.Is. Backend failures are wrapped in
*ConnectorError.
*/
package base
