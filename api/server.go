// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"cycle/shared/logger"
)

// NewRouter builds the full HTTP handler: API routes, /healthz and
// /prometheus, behind request instrumentation and CORS. Empty origins
// allow any origin.
func NewRouter(h *Handler, corsOrigins []string) http.Handler {
	r := mux.NewRouter()
	r.Use(instrument(h.logger))

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSONResponse(w, map[string]interface{}{"status": "ok"}, http.StatusOK)
	}).Methods("GET")
	r.Handle("/prometheus", promhttp.Handler()).Methods("GET")

	h.RegisterHandlers(r)

	r.NotFoundHandler = http.HandlerFunc(notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{HeaderRequestID},
		AllowCredentials: true,
	})
	return c.Handler(r)
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeJSONError(w, "route not found", http.StatusNotFound)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
}

// Server is the HTTP front end of the federation service.
type Server struct {
	httpServer *http.Server
	logger     *logger.Logger
}

// NewServer creates a server listening on addr.
func NewServer(addr string, h *Handler, corsOrigins []string) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(h, corsOrigins),
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: h.logger,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("", "", "Cycle API listening", map[string]interface{}{"addr": s.httpServer.Addr})
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("", "", "Cycle API stopped", nil)
	return nil
}
