// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package federation

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConnectorNotFound is matched by ConnectorNotFoundError.
	ErrConnectorNotFound = errors.New("connector not found")

	// ErrLinkResolution is matched by LinkResolutionError.
	ErrLinkResolution = errors.New("artifact link cannot be resolved")

	// ErrNotImplemented is matched by NotImplementedError.
	ErrNotImplemented = errors.New("not implemented")

	// ErrInvalidPrincipal is returned when no principal id is given.
	ErrInvalidPrincipal = errors.New("principal id is required")
)

// ConnectorNotFoundError is returned when no configured connector has the
// requested id.
type ConnectorNotFoundError struct {
	ConnectorID string
}

func (e *ConnectorNotFoundError) Error() string {
	return fmt.Sprintf("couldn't find repository connector with id %q", e.ConnectorID)
}

// Is reports a match against ErrConnectorNotFound.
func (e *ConnectorNotFoundError) Is(target error) bool {
	return target == ErrConnectorNotFound
}

// Link endpoint sides
const (
	SideSource = "source"
	SideTarget = "target"
)

// LinkResolutionError names the endpoint of a stored link that no longer
// resolves. Cause is the connector error, or a ConnectorNotFoundError when
// the endpoint's connector is no longer configured.
type LinkResolutionError struct {
	LinkID      string
	Side        string
	ConnectorID string
	ArtifactID  string
	Cause       error
}

func (e *LinkResolutionError) Error() string {
	return fmt.Sprintf("%s artifact %q of connector %q not found for artifact link %q: %v",
		e.Side, e.ArtifactID, e.ConnectorID, e.LinkID, e.Cause)
}

// Is reports a match against ErrLinkResolution.
func (e *LinkResolutionError) Is(target error) bool {
	return target == ErrLinkResolution
}

func (e *LinkResolutionError) Unwrap() error {
	return e.Cause
}

// NotImplementedError is returned by operations that are declared but not
// built. Calling one has no side effect.
type NotImplementedError struct {
	Operation string
}

func (e *NotImplementedError) Error() string {
	return e.Operation + ": not implemented yet"
}

// Is reports a match against ErrNotImplemented.
func (e *NotImplementedError) Is(target error) bool {
	return target == ErrNotImplemented
}

func notImplemented(op string) error {
	return &NotImplementedError{Operation: op}
}

// ConnectorFailure is one connector's error during a fan-out.
type ConnectorFailure struct {
	ConnectorID string
	Err         error
}

// FanOutError collects the failures of a fan-out operation run under
// CollectAll.
type FanOutError struct {
	Operation string
	Attempted int
	Failures  []ConnectorFailure
}

func (e *FanOutError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = fmt.Sprintf("%s: %v", f.ConnectorID, f.Err)
	}
	return fmt.Sprintf("%s failed for %d of %d connectors: %s",
		e.Operation, len(e.Failures), e.Attempted, strings.Join(parts, "; "))
}

// Unwrap exposes every connector error to errors.Is and errors.As.
func (e *FanOutError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}

// FailedConnectors returns the ids of the failed connectors in order.
func (e *FanOutError) FailedConnectors() []string {
	ids := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		ids[i] = f.ConnectorID
	}
	return ids
}
