// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package api exposes the federation service over HTTP/JSON.
//
// Every /api/v1 request names its principal in the X-Cycle-Principal header
// and may name a session in X-Cycle-Session (default "default"). Node
// addresses are passed as query parameters, so the virtual root is simply
// connector=/.
//
// API Endpoints:
//   - POST   /api/v1/login                    - Log into every connector
//   - POST   /api/v1/commit                   - Commit pending changes everywhere
//   - DELETE /api/v1/session                  - Drop the caller's session
//   - GET    /api/v1/connectors               - Configured connectors, in order
//   - GET    /api/v1/health                   - Per-connector health
//   - GET    /api/v1/children?connector&node  - List a folder or the virtual root
//   - GET    /api/v1/artifact?connector&id    - Artifact metadata
//   - DELETE /api/v1/artifact?connector&id    - Delete an artifact
//   - GET    /api/v1/folder?connector&id      - Folder metadata
//   - DELETE /api/v1/folder?connector&id      - Delete a folder
//   - GET    /api/v1/content?connector&id&representation - Raw content
//   - PUT    /api/v1/content?connector&id&representation - Replace content
//   - GET    /api/v1/preview?connector&id     - Preview content
//   - POST   /api/v1/artifacts                - Create an artifact
//   - POST   /api/v1/folders                  - Create a folder
//   - GET    /api/v1/artifact-types?connector&folder - Types creatable in a folder
//   - POST   /api/v1/actions                  - Run a parameterized action
//   - GET    /api/v1/links?connector&artifact - Links from an artifact
//   - POST   /api/v1/links                    - Create or replace a link
//   - DELETE /api/v1/links/{id}               - Not implemented
//   - GET    /api/v1/tags, POST /api/v1/tags, DELETE /api/v1/tags - Not implemented
//
// Outside the versioned API: GET /healthz and GET /prometheus.
package api
