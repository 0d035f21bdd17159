// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package gcs serves a Google Cloud Storage bucket as a repository
// connector. Artifact revisions are object generations.
//
// Options: bucket (required), endpoint, anonymous, prefix, read_only.
// Credentials: credentials_file or credentials_json; without either the
// application default credentials are used.
package gcs
