// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package sdk

import "context"

// ContextKey is a type for context keys
type ContextKey string

const (
	// ContextKeyPrincipalID is the context key for the principal id
	ContextKeyPrincipalID ContextKey = "principal_id"

	// ContextKeyRequestID is the context key for request ID
	ContextKeyRequestID ContextKey = "request_id"
)

// GetPrincipalID extracts the principal id from context
func GetPrincipalID(ctx context.Context) string {
	if v, ok := ctx.Value(ContextKeyPrincipalID).(string); ok {
		return v
	}
	return ""
}

// GetRequestID extracts request ID from context
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return v
	}
	return ""
}

// WithPrincipalID adds the principal id to context
func WithPrincipalID(ctx context.Context, principalID string) context.Context {
	return context.WithValue(ctx, ContextKeyPrincipalID, principalID)
}

// WithRequestID adds request ID to context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}
