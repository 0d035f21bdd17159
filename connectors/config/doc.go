// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

/*
Package config loads and saves the connector configuration set of each
principal and reads the service settings.

# Stores

A Store returns ErrConfigurationNotFound for principals that have never been
configured; callers use that signal to bootstrap a default set.

  - MemoryStore: process memory, for tests and single-process use
  - PostgresStore: connector_configurations table, one row per connector
  - FileStore: one YAML document per principal with ${VAR} expansion
  - ChainStore: priority chain, for example Postgres then files

Example YAML document:

	version: "1"
	principal_id: kermit
	connectors:
	  - id: signavio
	    name: Signavio Modeler
	    type: signavio
	    connection_url: ${SIGNAVIO_URL:-http://localhost:8080/activiti-modeler/}
	    credentials_secret: SIGNAVIO

# Secrets

Configurations may name a credentials_secret. ResolveCredentials merges the
secret into the credentials using AWS Secrets Manager, environment variables
or an in-memory map.

# Settings

LoadSettings reads CYCLE_* variables, DATABASE_URL, REDIS_URL and AWS_REGION.
*/
package config
