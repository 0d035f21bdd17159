// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package links persists artifact links: relationships between two model
// elements that may live in different connectors. A Record stores only ids,
// element names and the revision each endpoint had when the link was made;
// the federation layer resolves the artifacts themselves at read time.
//
// Backends: MemoryStore, SQLStore (postgres, mysql, sqlite), RedisStore and
// MongoStore. Open picks one from the service settings.
package links
