// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package registry

import (
	"context"
	"errors"
	"sync"
	"testing"

	"cycle/connectors/base"
	"cycle/connectors/sdk"
)

func mockFactory(ctx context.Context, cfg *base.ConnectorConfig) (base.RepositoryConnector, error) {
	return sdk.NewMockConnectorWithConfig(cfg), nil
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	if err := r.Register("mock", mockFactory); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Register("mock", mockFactory); err == nil {
		t.Error("expected duplicate registration error")
	}
	if err := r.Register("", mockFactory); err == nil {
		t.Error("expected empty type error")
	}
	if err := r.Register("nil", nil); err == nil {
		t.Error("expected nil factory error")
	}

	if err := r.Register("other", mockFactory); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	types := r.Types()
	if len(types) != 2 || types[0] != "mock" || types[1] != "other" {
		t.Errorf("Types() = %v", types)
	}

	if err := r.Unregister("other"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := r.Unregister("other"); err == nil {
		t.Error("expected error unregistering twice")
	}
}

func TestRegistry_Build(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()
	_ = r.Register("mock", mockFactory)

	conn, err := r.Build(ctx, &base.ConnectorConfig{ID: "demo", Name: "Demo", Type: "mock"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conn.Configuration().ID != "demo" {
		t.Errorf("unexpected id %s", conn.Configuration().ID)
	}

	_, err = r.Build(ctx, &base.ConnectorConfig{ID: "x", Type: "nope"})
	if !errors.Is(err, ErrUnknownType) {
		t.Errorf("expected ErrUnknownType, got %v", err)
	}

	if _, err := r.Build(ctx, &base.ConnectorConfig{Type: "mock"}); err == nil {
		t.Error("expected validation error for missing id")
	}
}

func TestRegistry_BuildFactoryError(t *testing.T) {
	r := NewRegistry()
	boom := errors.New("bucket missing")
	_ = r.Register("broken", func(ctx context.Context, cfg *base.ConnectorConfig) (base.RepositoryConnector, error) {
		return nil, boom
	})

	_, err := r.Build(context.Background(), &base.ConnectorConfig{ID: "b", Type: "broken"})
	if !errors.Is(err, boom) {
		t.Errorf("expected factory error to be wrapped, got %v", err)
	}
}

func TestRegistry_BuildAllPreservesOrder(t *testing.T) {
	r := NewRegistry()
	_ = r.Register("mock", mockFactory)

	set := &base.ConfigurationSet{
		PrincipalID: "kermit",
		Connectors: []*base.ConnectorConfig{
			{ID: "c", Type: "mock"},
			{ID: "a", Type: "mock"},
			{ID: "b", Type: "mock"},
		},
	}

	conns, err := r.BuildAll(context.Background(), set)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"c", "a", "b"}
	for i, c := range conns {
		if c.Configuration().ID != want[i] {
			t.Errorf("position %d: got %s, want %s", i, c.Configuration().ID, want[i])
		}
	}

	set.Connectors = append(set.Connectors, &base.ConnectorConfig{ID: "d", Type: "unknown"})
	if _, err := r.BuildAll(context.Background(), set); !errors.Is(err, ErrUnknownType) {
		t.Errorf("expected ErrUnknownType, got %v", err)
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	_ = r.Register("mock", mockFactory)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = r.Build(context.Background(), &base.ConnectorConfig{ID: "demo", Type: "mock"})
			_ = r.Types()
		}()
	}
	wg.Wait()
}
