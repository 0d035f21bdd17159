// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package registry

import (
	"context"

	"cycle/connectors/azureblob"
	"cycle/connectors/base"
	"cycle/connectors/demo"
	"cycle/connectors/fs"
	"cycle/connectors/gcs"
	"cycle/connectors/git"
	"cycle/connectors/objectstore"
	"cycle/connectors/s3"
	"cycle/connectors/signavio"
)

// Builtin returns a registry with every bundled connector type.
func Builtin() *Registry {
	r := NewRegistry()
	for connType, factory := range builtinFactories() {
		// Types are distinct, so Register cannot fail here.
		_ = r.Register(connType, factory)
	}
	return r
}

// built drops the typed nil a failed constructor returns.
func built[T base.RepositoryConnector](conn T, err error) (base.RepositoryConnector, error) {
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func builtinFactories() map[string]Factory {
	return map[string]Factory{
		demo.Type: func(ctx context.Context, cfg *base.ConnectorConfig) (base.RepositoryConnector, error) {
			return built(demo.New(cfg))
		},
		fs.Type: func(ctx context.Context, cfg *base.ConnectorConfig) (base.RepositoryConnector, error) {
			return built(fs.New(cfg))
		},
		signavio.Type: func(ctx context.Context, cfg *base.ConnectorConfig) (base.RepositoryConnector, error) {
			return built(signavio.New(cfg))
		},
		git.Type: func(ctx context.Context, cfg *base.ConnectorConfig) (base.RepositoryConnector, error) {
			return built(git.New(cfg))
		},
		objectstore.TypeMemory: func(ctx context.Context, cfg *base.ConnectorConfig) (base.RepositoryConnector, error) {
			return built(objectstore.NewMemory(cfg))
		},
		s3.Type: func(ctx context.Context, cfg *base.ConnectorConfig) (base.RepositoryConnector, error) {
			return built(s3.New(ctx, cfg))
		},
		gcs.Type: func(ctx context.Context, cfg *base.ConnectorConfig) (base.RepositoryConnector, error) {
			return built(gcs.New(ctx, cfg))
		},
		azureblob.Type: func(ctx context.Context, cfg *base.ConnectorConfig) (base.RepositoryConnector, error) {
			return built(azureblob.New(cfg))
		},
	}
}
