// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package azureblob serves an Azure Blob Storage container as a repository
// connector.
//
// Options: container (required), account_name, endpoint, use_managed_identity,
// prefix, read_only. Credentials: connection_string or account_key.
// Authentication is tried in that order: connection string, shared key,
// then DefaultAzureCredential when use_managed_identity is set.
package azureblob
