// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package sdk

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"cycle/connectors/base"
)

// Prometheus metrics for repository connectors
var (
	promConnectorCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cycle_connector_calls_total",
			Help: "Total number of repository connector calls",
		},
		[]string{"connector_type", "operation", "status"},
	)
	promConnectorDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cycle_connector_duration_milliseconds",
			Help:    "Repository connector call duration in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		},
		[]string{"connector_type", "operation"},
	)
)

func init() {
	prometheus.MustRegister(promConnectorCalls)
	prometheus.MustRegister(promConnectorDuration)
}

// ConnectorMetrics records operations for one connector type. Totals are
// also kept locally so health checks can report them without scraping.
type ConnectorMetrics struct {
	connectorType string

	callsTotal    int64
	errorsTotal   int64
	notFoundTotal int64
	durationTotal int64
}

// NewConnectorMetrics creates metrics for the given connector type
func NewConnectorMetrics(connectorType string) *ConnectorMetrics {
	return &ConnectorMetrics{connectorType: connectorType}
}

// Record counts one operation.
func (m *ConnectorMetrics) Record(operation string, duration time.Duration, err error) {
	atomic.AddInt64(&m.callsTotal, 1)
	atomic.AddInt64(&m.durationTotal, int64(duration))

	status := "success"
	switch {
	case err == nil:
	case errors.Is(err, base.ErrNodeNotFound):
		status = "not_found"
		atomic.AddInt64(&m.notFoundTotal, 1)
	default:
		status = "error"
		atomic.AddInt64(&m.errorsTotal, 1)
	}

	promConnectorCalls.WithLabelValues(m.connectorType, operation, status).Inc()
	promConnectorDuration.WithLabelValues(m.connectorType, operation).Observe(float64(duration.Milliseconds()))
}

// MetricsSnapshot is a point-in-time copy of the local totals
type MetricsSnapshot struct {
	ConnectorType string        `json:"connector_type"`
	CallsTotal    int64         `json:"calls_total"`
	ErrorsTotal   int64         `json:"errors_total"`
	NotFoundTotal int64         `json:"not_found_total"`
	AvgLatency    time.Duration `json:"avg_latency"`
}

// GetStats returns the local totals
func (m *ConnectorMetrics) GetStats() *MetricsSnapshot {
	calls := atomic.LoadInt64(&m.callsTotal)
	var avg time.Duration
	if calls > 0 {
		avg = time.Duration(atomic.LoadInt64(&m.durationTotal) / calls)
	}
	return &MetricsSnapshot{
		ConnectorType: m.connectorType,
		CallsTotal:    calls,
		ErrorsTotal:   atomic.LoadInt64(&m.errorsTotal),
		NotFoundTotal: atomic.LoadInt64(&m.notFoundTotal),
		AvgLatency:    avg,
	}
}
