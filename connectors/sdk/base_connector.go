// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package sdk

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"cycle/connectors/base"
)

// BaseConnector carries the state every repository connector needs: its
// configuration, login state, logger, retry policy and operation metrics.
// Concrete connectors embed it and implement the node operations.
type BaseConnector struct {
	connType     string
	config       *base.ConnectorConfig
	loggedIn     bool
	username     string
	logger       *log.Logger
	authProvider AuthProvider
	retryConfig  *RetryConfig
	rateLimiter  *rate.Limiter
	metrics      *ConnectorMetrics
	mu           sync.RWMutex
}

// NewBaseConnector creates a BaseConnector for cfg. The config is cloned so
// later mutation by the caller does not leak into a live connector.
func NewBaseConnector(connType string, cfg *base.ConnectorConfig) *BaseConnector {
	cfg = cfg.Clone()
	if cfg == nil {
		cfg = &base.ConnectorConfig{Type: connType}
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	retry := DefaultRetryConfig()
	if cfg.MaxRetries > 0 {
		retry.MaxRetries = cfg.MaxRetries
	}

	c := &BaseConnector{
		connType:    connType,
		config:      cfg,
		logger:      log.New(os.Stdout, fmt.Sprintf("[CYCLE_%s] ", connType), log.LstdFlags),
		retryConfig: retry,
		metrics:     NewConnectorMetrics(connType),
	}
	if rps := c.OptionFloat("rate_limit", 0); rps > 0 {
		burst := int(c.OptionFloat("rate_burst", 1))
		if burst < 1 {
			burst = 1
		}
		c.rateLimiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return c
}

// Configuration implements base.RepositoryConnector
func (c *BaseConnector) Configuration() *base.ConnectorConfig {
	return c.config
}

// ID returns the configuration id.
func (c *BaseConnector) ID() string {
	return c.config.ID
}

// Type returns the connector type name.
func (c *BaseConnector) Type() string {
	return c.connType
}

// Login records the session user. Connectors with a remote session override
// it and call MarkLoggedIn on success.
func (c *BaseConnector) Login(ctx context.Context, username, password string) error {
	c.MarkLoggedIn(username)
	return nil
}

// MarkLoggedIn records a successful login.
func (c *BaseConnector) MarkLoggedIn(username string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loggedIn = true
	c.username = username
}

// IsLoggedIn reports whether Login has succeeded.
func (c *BaseConnector) IsLoggedIn() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loggedIn
}

// Username returns the user of the current session.
func (c *BaseConnector) Username() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.username
}

// CommitPendingChanges is a no-op for connectors that write through.
func (c *BaseConnector) CommitPendingChanges(ctx context.Context, comment string) error {
	return nil
}

// GetRepositoryArtifactPreview reports that no preview exists.
func (c *BaseConnector) GetRepositoryArtifactPreview(ctx context.Context, artifactID string) (*base.Content, error) {
	return nil, base.NewNodeNotFoundError(c.config.ID, artifactID+"#preview")
}

// HealthCheck reports the login state.
func (c *BaseConnector) HealthCheck(ctx context.Context) (*base.HealthStatus, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := &base.HealthStatus{
		Healthy:   true,
		Timestamp: time.Now(),
		Details: map[string]string{
			"connector_type": c.connType,
			"logged_in":      fmt.Sprintf("%t", c.loggedIn),
		},
	}
	return status, nil
}

// Unsupported returns a ConnectorError wrapping base.ErrUnsupported.
func (c *BaseConnector) Unsupported(operation string) error {
	return base.NewConnectorError(c.config.ID, operation, "not supported by "+c.connType, base.ErrUnsupported)
}

// NotFound returns a NodeNotFoundError for this connector.
func (c *BaseConnector) NotFound(nodeID string) error {
	return base.NewNodeNotFoundError(c.config.ID, nodeID)
}

// Wrap wraps a backend error in a ConnectorError, passing nil and
// not-found errors through unchanged.
func (c *BaseConnector) Wrap(operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, base.ErrNodeNotFound) {
		return err
	}
	return base.NewConnectorError(c.config.ID, operation, "backend call failed", err)
}

// Observe records an operation in the connector metrics. Use as
//
//	defer c.Observe("GetChildren", time.Now(), &err)
func (c *BaseConnector) Observe(operation string, start time.Time, errp *error) {
	var err error
	if errp != nil {
		err = *errp
	}
	c.metrics.Record(operation, time.Since(start), err)
}

// SetLogger replaces the connector logger
func (c *BaseConnector) SetLogger(logger *log.Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger = logger
}

// Log writes a line through the connector logger.
func (c *BaseConnector) Log(format string, args ...interface{}) {
	c.mu.RLock()
	logger := c.logger
	c.mu.RUnlock()
	logger.Printf(format, args...)
}

// SetAuthProvider sets the provider applied to outgoing HTTP requests
func (c *BaseConnector) SetAuthProvider(auth AuthProvider) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authProvider = auth
}

// GetAuthProvider returns the configured auth provider
func (c *BaseConnector) GetAuthProvider() AuthProvider {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.authProvider
}

// SetRetryConfig replaces the retry policy
func (c *BaseConnector) SetRetryConfig(config *RetryConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retryConfig = config
}

// GetRetryConfig returns the retry policy
func (c *BaseConnector) GetRetryConfig() *RetryConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.retryConfig
}

// SetRateLimiter limits outgoing requests; nil removes the limit
func (c *BaseConnector) SetRateLimiter(limiter *rate.Limiter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rateLimiter = limiter
}

// WaitRateLimit blocks until the rate limiter admits one request. Without a
// limiter it returns immediately.
func (c *BaseConnector) WaitRateLimit(ctx context.Context) error {
	c.mu.RLock()
	limiter := c.rateLimiter
	c.mu.RUnlock()
	if limiter == nil {
		return nil
	}
	if err := limiter.Wait(ctx); err != nil {
		return c.Wrap("rate limit", err)
	}
	return nil
}

// GetMetrics returns the connector metrics
func (c *BaseConnector) GetMetrics() *ConnectorMetrics {
	return c.metrics
}

// GetTimeout returns the per-operation timeout
func (c *BaseConnector) GetTimeout() time.Duration {
	return c.config.Timeout
}

// OptionString returns a string option or def.
func (c *BaseConnector) OptionString(key, def string) string {
	if v, ok := c.config.Options[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return def
}

// OptionBool returns a boolean option or def.
func (c *BaseConnector) OptionBool(key string, def bool) bool {
	if v, ok := c.config.Options[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// OptionFloat returns a numeric option or def. Integers from YAML and
// numeric strings are accepted.
func (c *BaseConnector) OptionFloat(key string, def float64) float64 {
	switch v := c.config.Options[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

// OptionStrings returns a list option. YAML and JSON decoding produce
// []interface{}, so both that and []string are accepted.
func (c *BaseConnector) OptionStrings(key string) []string {
	switch v := c.config.Options[key].(type) {
	case []string:
		return append([]string(nil), v...)
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	}
	return nil
}

// Credential returns a credential value or def.
func (c *BaseConnector) Credential(key, def string) string {
	if v, ok := c.config.Credentials[key]; ok && v != "" {
		return v
	}
	return def
}
