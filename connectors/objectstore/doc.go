// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package objectstore maps a bucket of a flat object store onto a folder
// tree. Folders are "/"-delimited key prefixes, created explicitly as
// zero-length marker objects whose key ends in "/". Node ids are the object
// keys below the configured prefix, with a leading slash.
//
// The s3, gcs and azureblob packages provide Bucket implementations;
// MemoryBucket serves tests and the "memory" connector type.
package objectstore
