// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package federation presents every repository connector configured for a
// principal behind one API.
//
// A Service holds the live connectors of one principal session in
// configuration order. Calls are keyed by (connector id, node id): the
// Service either answers itself (the virtual root, connector id "/") or
// routes to exactly one connector. Login and CommitPendingChanges fan out to
// every connector under a FanOutPolicy. Artifact links are persisted through
// a links.Store and resolved against the live connectors on every read.
//
// A Registry caches one Service per (principal, session). The first access
// for a principal loads its configuration set, bootstrapping and saving the
// default set (demo, signavio, files) when none is stored.
package federation
