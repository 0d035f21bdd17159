// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package sdk

import (
	"context"
	"net/http"
	"testing"
)

func TestAPIKeyAuth(t *testing.T) {
	ctx := context.Background()

	t.Run("unset key fails", func(t *testing.T) {
		auth := NewAPIKeyAuth("", "x-signavio-id")
		req, _ := http.NewRequest(http.MethodGet, "http://localhost/p/directory", nil)
		if err := auth.Authenticate(ctx, req); err == nil {
			t.Error("expected error for unset key")
		}
		if auth.HasKey() {
			t.Error("expected HasKey false")
		}
	})

	t.Run("key set after login", func(t *testing.T) {
		auth := NewAPIKeyAuth("", "x-signavio-id")
		auth.SetAPIKey("token-1")
		req, _ := http.NewRequest(http.MethodGet, "http://localhost/p/directory", nil)
		if err := auth.Authenticate(ctx, req); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if req.Header.Get("x-signavio-id") != "token-1" {
			t.Errorf("header = %q", req.Header.Get("x-signavio-id"))
		}
		if auth.Type() != "api_key" {
			t.Errorf("Type() = %s", auth.Type())
		}
	})

	t.Run("default header name", func(t *testing.T) {
		auth := NewAPIKeyAuth("k", "")
		req, _ := http.NewRequest(http.MethodGet, "http://localhost/", nil)
		_ = auth.Authenticate(ctx, req)
		if req.Header.Get("X-API-Key") != "k" {
			t.Errorf("expected X-API-Key header, got %v", req.Header)
		}
	})
}

func TestBasicAndChainedAuth(t *testing.T) {
	ctx := context.Background()
	req, _ := http.NewRequest(http.MethodGet, "http://localhost/", nil)

	chain := NewChainedAuth(NewBasicAuth("kermit", "secret"), NewAPIKeyAuth("k", "X-Extra"))
	if err := chain.Authenticate(ctx, req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	user, pass, ok := req.BasicAuth()
	if !ok || user != "kermit" || pass != "secret" {
		t.Errorf("unexpected basic auth: %s %s %v", user, pass, ok)
	}
	if req.Header.Get("X-Extra") != "k" {
		t.Error("expected chained API key header")
	}

	if err := NewChainedAuth(NewBasicAuth("", "")).Authenticate(ctx, req); err == nil {
		t.Error("expected error from empty basic auth")
	}
}
