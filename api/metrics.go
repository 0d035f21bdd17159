// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"cycle/connectors/sdk"
	"cycle/shared/logger"
)

// Prometheus metrics
var (
	promRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cycle_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"route", "method", "status"},
	)
	promRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cycle_api_request_duration_milliseconds",
			Help:    "API request duration in milliseconds",
			Buckets: []float64{5, 10, 50, 100, 200, 500, 1000, 2000, 5000},
		},
		[]string{"route"},
	)
)

func init() {
	prometheus.MustRegister(promRequestsTotal)
	prometheus.MustRegister(promRequestDuration)
}

// Request headers
const (
	HeaderPrincipal = "X-Cycle-Principal"
	HeaderSession   = "X-Cycle-Session"
	HeaderRequestID = "X-Request-ID"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func routeName(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// instrument tags the request context with principal and request id,
// records metrics and logs the request.
func instrument(l *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := r.Header.Get(HeaderRequestID)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			principal := r.Header.Get(HeaderPrincipal)
			ctx := sdk.WithRequestID(r.Context(), requestID)
			if principal != "" {
				ctx = sdk.WithPrincipalID(ctx, principal)
			}
			w.Header().Set(HeaderRequestID, requestID)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r.WithContext(ctx))

			route := routeName(r)
			elapsed := float64(time.Since(start).Microseconds()) / 1000
			promRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
			promRequestDuration.WithLabelValues(route).Observe(elapsed)

			l.InfoWithDuration(principal, requestID, r.Method+" "+route, elapsed, map[string]interface{}{
				"status": rec.status,
			})
		})
	}
}
