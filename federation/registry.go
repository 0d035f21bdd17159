// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package federation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cycle/connectors/base"
	"cycle/connectors/config"
	"cycle/connectors/sdk"
	"cycle/links"
	"cycle/shared/logger"
)

// DefaultSessionKey is used when a caller names no session.
const DefaultSessionKey = "default"

// ConnectorBuilder materializes live connectors from a configuration set,
// preserving its order.
type ConnectorBuilder interface {
	BuildAll(ctx context.Context, set *base.ConfigurationSet) ([]base.RepositoryConnector, error)
}

// RegistryConfig holds the collaborators of a Registry. Store and Builder
// are required.
type RegistryConfig struct {
	Store     config.Store
	Builder   ConnectorBuilder
	Links     links.Store
	Secrets   config.SecretsManager
	Bootstrap BootstrapOptions
	Policy    FanOutPolicy
	Logger    *logger.Logger
}

type sessionKey struct {
	principalID string
	session     string
}

type session struct {
	service  *Service
	lastUsed time.Time
}

// Registry caches one Service per principal session.
type Registry struct {
	cfg RegistryConfig

	mu       sync.Mutex
	sessions map[sessionKey]*session

	bootstrapLocks *keyedMutex
	logger         *logger.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(cfg RegistryConfig) (*Registry, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("configuration store is required")
	}
	if cfg.Builder == nil {
		return nil, fmt.Errorf("connector builder is required")
	}
	if cfg.Links == nil {
		cfg.Links = links.NewMemoryStore()
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.New("federation")
	}
	return &Registry{
		cfg:            cfg,
		sessions:       make(map[sessionKey]*session),
		bootstrapLocks: newKeyedMutex(),
		logger:         cfg.Logger,
	}, nil
}

// Get returns the Service of the principal's session, creating it on first
// access. Creation for one principal is serialized, so concurrent first
// accesses save the default configuration at most once.
func (r *Registry) Get(ctx context.Context, principalID, sessionID string) (*Service, error) {
	if principalID == "" {
		return nil, ErrInvalidPrincipal
	}
	if sessionID == "" {
		sessionID = DefaultSessionKey
	}
	key := sessionKey{principalID: principalID, session: sessionID}

	if svc := r.cached(key); svc != nil {
		return svc, nil
	}

	unlock := r.bootstrapLocks.Lock(principalID)
	defer unlock()

	if svc := r.cached(key); svc != nil {
		return svc, nil
	}

	svc, err := r.bootstrap(ctx, principalID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.sessions[key] = &session{service: svc, lastUsed: time.Now()}
	r.mu.Unlock()
	return svc, nil
}

func (r *Registry) cached(key sessionKey) *Service {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[key]; ok {
		s.lastUsed = time.Now()
		return s.service
	}
	return nil
}

// bootstrap loads or creates the principal's configuration, builds the
// connectors and logs into them.
func (r *Registry) bootstrap(ctx context.Context, principalID string) (*Service, error) {
	requestID := sdk.GetRequestID(ctx)
	start := time.Now()

	set, err := r.cfg.Store.Load(ctx, principalID)
	switch {
	case errors.Is(err, config.ErrConfigurationNotFound):
		set = DefaultConfiguration(principalID, r.cfg.Bootstrap)
		if err := r.cfg.Store.Save(ctx, set); err != nil {
			return nil, fmt.Errorf("failed to save default configuration: %w", err)
		}
		r.logger.Info(principalID, requestID, "Created default configuration", map[string]interface{}{
			"connectors": len(set.Connectors),
		})
	case err != nil:
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	set = set.Clone()
	if err := config.ResolveCredentials(ctx, set, r.cfg.Secrets); err != nil {
		return nil, fmt.Errorf("failed to resolve credentials: %w", err)
	}

	conns, err := r.cfg.Builder.BuildAll(ctx, set)
	if err != nil {
		return nil, fmt.Errorf("failed to build connectors: %w", err)
	}

	svc, err := NewService(principalID, conns, r.cfg.Links,
		WithFanOutPolicy(r.cfg.Policy),
		WithLogger(r.logger),
	)
	if err != nil {
		return nil, err
	}

	// TODO: take connector credentials from the caller instead of reusing the principal id.
	r.logger.Warn(principalID, requestID, "Logging into connectors with the principal id as username and password", nil)
	if _, err := svc.Login(ctx, principalID, principalID); err != nil {
		r.logger.Warn(principalID, requestID, "Login incomplete; affected connectors stay logged out", map[string]interface{}{
			"error": err.Error(),
		})
	}

	r.logger.InfoWithDuration(principalID, requestID, "Federation service ready",
		float64(time.Since(start).Microseconds())/1000,
		map[string]interface{}{"connectors": len(conns), "policy": r.cfg.Policy.String()})
	return svc, nil
}

// Release drops a session. It reports whether the session existed.
func (r *Registry) Release(principalID, sessionID string) bool {
	if sessionID == "" {
		sessionID = DefaultSessionKey
	}
	key := sessionKey{principalID: principalID, session: sessionID}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[key]; !ok {
		return false
	}
	delete(r.sessions, key)
	return true
}

// Sweep drops sessions idle for at least maxIdle and returns how many were
// dropped.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	dropped := 0
	for key, s := range r.sessions {
		if time.Since(s.lastUsed) >= maxIdle {
			delete(r.sessions, key)
			dropped++
		}
	}
	return dropped
}

// Len returns the number of cached sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// StartSessionReaper runs Sweep every interval until ctx is done.
func (r *Registry) StartSessionReaper(ctx context.Context, interval, maxIdle time.Duration) {
	r.logger.Info("", "", "Starting session reaper", map[string]interface{}{
		"interval": interval.String(),
		"max_idle": maxIdle.String(),
	})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := r.Sweep(maxIdle); n > 0 {
					r.logger.Info("", "", "Dropped idle sessions", map[string]interface{}{"count": n})
				}
			}
		}
	}()
}
