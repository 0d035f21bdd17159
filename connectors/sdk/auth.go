// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package sdk

import (
	"context"
	"fmt"
	"net/http"
	"sync"
)

// AuthProvider applies credentials to outgoing HTTP requests
type AuthProvider interface {
	// Authenticate applies authentication to the given request
	Authenticate(ctx context.Context, req *http.Request) error

	// Type returns the authentication type name
	Type() string
}

// APIKeyAuth places a key in a request header. Remote modelers hand out a
// session token at login that is sent this way.
type APIKeyAuth struct {
	apiKey  string
	keyName string
	mu      sync.RWMutex
}

// NewAPIKeyAuth creates a header API key provider
func NewAPIKeyAuth(apiKey, keyName string) *APIKeyAuth {
	if keyName == "" {
		keyName = "X-API-Key"
	}
	return &APIKeyAuth{apiKey: apiKey, keyName: keyName}
}

// Authenticate applies the API key to the request
func (a *APIKeyAuth) Authenticate(ctx context.Context, req *http.Request) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.apiKey == "" {
		return fmt.Errorf("API key is not set")
	}
	req.Header.Set(a.keyName, a.apiKey)
	return nil
}

// Type returns the authentication type
func (a *APIKeyAuth) Type() string {
	return "api_key"
}

// SetAPIKey updates the API key
func (a *APIKeyAuth) SetAPIKey(apiKey string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.apiKey = apiKey
}

// HasKey reports whether a key is set.
func (a *APIKeyAuth) HasKey() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.apiKey != ""
}

// BasicAuth provides HTTP Basic authentication
type BasicAuth struct {
	username string
	password string
}

// NewBasicAuth creates a new Basic authentication provider
func NewBasicAuth(username, password string) *BasicAuth {
	return &BasicAuth{username: username, password: password}
}

// Authenticate applies Basic auth to the request
func (b *BasicAuth) Authenticate(ctx context.Context, req *http.Request) error {
	if b.username == "" {
		return fmt.Errorf("username is not set")
	}
	req.SetBasicAuth(b.username, b.password)
	return nil
}

// Type returns the authentication type
func (b *BasicAuth) Type() string {
	return "basic"
}

// ChainedAuth applies several providers in order
type ChainedAuth struct {
	providers []AuthProvider
}

// NewChainedAuth creates a provider applying each of providers
func NewChainedAuth(providers ...AuthProvider) *ChainedAuth {
	return &ChainedAuth{providers: providers}
}

// Authenticate applies every provider, stopping at the first failure
func (c *ChainedAuth) Authenticate(ctx context.Context, req *http.Request) error {
	for _, p := range c.providers {
		if err := p.Authenticate(ctx, req); err != nil {
			return fmt.Errorf("%s auth failed: %w", p.Type(), err)
		}
	}
	return nil
}

// Type returns the authentication type
func (c *ChainedAuth) Type() string {
	return "chained"
}
