// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package base

import (
	"errors"
	"fmt"
)

var (
	// ErrNodeNotFound is matched by every connector-reported missing node.
	ErrNodeNotFound = errors.New("repository node not found")

	// ErrUnsupported is returned when a connector does not offer an operation
	// (for example writes on a read-only backend).
	ErrUnsupported = errors.New("operation not supported by connector")

	// ErrInvalidArgument is returned for malformed names, ids or action
	// parameters.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotLoggedIn is returned by connectors that require Login first.
	ErrNotLoggedIn = errors.New("connector is not logged in")
)

// NodeNotFoundError names the missing node.
type NodeNotFoundError struct {
	ConnectorID string
	NodeID      string
}

func (e *NodeNotFoundError) Error() string {
	return fmt.Sprintf("node %q not found in connector %q", e.NodeID, e.ConnectorID)
}

// Is reports a match against ErrNodeNotFound.
func (e *NodeNotFoundError) Is(target error) bool {
	return target == ErrNodeNotFound
}

// NewNodeNotFoundError creates a new NodeNotFoundError
func NewNodeNotFoundError(connectorID, nodeID string) *NodeNotFoundError {
	return &NodeNotFoundError{ConnectorID: connectorID, NodeID: nodeID}
}

// ConnectorError represents errors specific to connector operations
type ConnectorError struct {
	ConnectorID string
	Operation   string
	Message     string
	Cause       error
}

func (e *ConnectorError) Error() string {
	if e.Cause != nil {
		return e.ConnectorID + "." + e.Operation + ": " + e.Message + " (cause: " + e.Cause.Error() + ")"
	}
	return e.ConnectorID + "." + e.Operation + ": " + e.Message
}

func (e *ConnectorError) Unwrap() error {
	return e.Cause
}

// NewConnectorError creates a new ConnectorError
func NewConnectorError(connectorID, operation, message string, cause error) *ConnectorError {
	return &ConnectorError{
		ConnectorID: connectorID,
		Operation:   operation,
		Message:     message,
		Cause:       cause,
	}
}
