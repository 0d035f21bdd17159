// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package fs exposes a directory of the local filesystem as a repository.
//
// Node ids are slash-separated paths relative to the configured base_path,
// with a leading slash ("/" is the base directory itself). Ids that would
// leave the base directory are rejected. Paths matching any of the
// doublestar patterns in the exclude option are hidden.
//
// Options:
//
//	base_path  directory to expose (required)
//	exclude    list of glob patterns, e.g. ["**/.git", "**/*.tmp"]
//	read_only  reject all mutations
package fs
