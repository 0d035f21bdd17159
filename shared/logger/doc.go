// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

/*
Package logger provides structured JSON logging for Cycle components.

Each entry is a single JSON line carrying the timestamp, level, component,
instance and container names, the principal the work was done for and the
request id used to correlate a federated call across connectors.

	log := logger.New("federation")
	log.Info("kermit", "req-1", "Connector set bootstrapped", map[string]interface{}{
	    "connectors": 3,
	})

INSTANCE_ID and the container hostname are read once at construction.
Logger instances are safe for concurrent use.
*/
package logger
