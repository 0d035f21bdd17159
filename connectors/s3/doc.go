// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package s3 serves an Amazon S3 bucket, or any S3-compatible store such as
// MinIO, as a repository connector.
//
// Options:
//
//	bucket            bucket name (required)
//	region            AWS region, default us-east-1
//	endpoint          custom endpoint for S3-compatible services
//	force_path_style  use path-style addressing
//	prefix            key prefix that acts as the connector root
//	read_only         reject mutations
//
// Credentials access_key_id, secret_access_key and session_token are
// optional; without them the default AWS credential chain is used.
package s3
