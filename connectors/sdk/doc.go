// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

/*
Package sdk provides the building blocks shared by the bundled repository
connectors.

# BaseConnector

Connectors embed *BaseConnector to get configuration access, login state,
a prefixed logger, retry policy and metrics:

	type Connector struct {
	    *sdk.BaseConnector
	    root string
	}

	func New(cfg *base.ConnectorConfig) (*Connector, error) {
	    return &Connector{BaseConnector: sdk.NewBaseConnector("fs", cfg)}, nil
	}

BaseConnector supplies no-op CommitPendingChanges, a Login that only records
the user, and a preview lookup that reports NodeNotFound. Connectors
override what their backend supports.

# Actions

ExecuteCommonAction implements the "copy-to" action over any pair of
connectors, using the resolved targetConnectorId parameter.

# Retry

RetryWithBackoff retries transient failures with exponential backoff and
jitter. Remote connectors report non-2xx answers as *StatusError so that
DefaultRetryCondition can tell 503 from 404. Wrap an error in
NonRetryableError to stop immediately.

# Metrics

Every operation recorded through ConnectorMetrics is exported as
cycle_connector_calls_total and cycle_connector_duration_milliseconds.

# Testing

MockConnector is an in-memory RepositoryConnector with call recording and
per-operation error injection.
*/
package sdk
