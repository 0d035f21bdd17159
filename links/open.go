// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package links

import (
	"context"
	"fmt"

	"cycle/connectors/config"
)

// Open returns the link store selected by settings.
func Open(ctx context.Context, s *config.Settings) (Store, error) {
	switch s.LinkStore {
	case "", config.LinkStoreMemory:
		return NewMemoryStore(), nil
	case config.LinkStorePostgres:
		return OpenSQLStore(ctx, DialectPostgres, s.LinkStoreURL)
	case config.LinkStoreMySQL:
		return OpenSQLStore(ctx, DialectMySQL, s.LinkStoreURL)
	case config.LinkStoreSQLite:
		return OpenSQLStore(ctx, DialectSQLite, s.LinkStoreURL)
	case config.LinkStoreRedis:
		return OpenRedisStore(ctx, s.LinkStoreURL)
	case config.LinkStoreMongo:
		return OpenMongoStore(ctx, s.LinkStoreURL)
	default:
		return nil, fmt.Errorf("unknown link store %q", s.LinkStore)
	}
}
