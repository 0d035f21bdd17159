// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"
)

// Link store backends
const (
	LinkStoreMemory   = "memory"
	LinkStorePostgres = "postgres"
	LinkStoreMySQL    = "mysql"
	LinkStoreSQLite   = "sqlite"
	LinkStoreRedis    = "redis"
	LinkStoreMongo    = "mongo"
)

// Secrets backends
const (
	SecretsNone = "none"
	SecretsEnv  = "env"
	SecretsAWS  = "aws"
)

// DefaultSignavioURL is the endpoint of the bootstrapped remote modeler.
const DefaultSignavioURL = "http://localhost:8080/activiti-modeler/"

// Settings holds the service-level configuration read from the environment
type Settings struct {
	ListenAddr     string
	DatabaseURL    string
	ConfigDir      string
	LinkStore      string
	LinkStoreURL   string
	RedisURL       string
	SignavioURL    string
	FilesystemRoot string
	FanOutPolicy   string
	SessionTTL     time.Duration
	ConfigCacheTTL time.Duration
	SecretsBackend string
	AWSRegion      string
	CORSOrigins    []string
}

// LoadSettings reads Settings from environment variables, applying defaults
// and validating enumerations and durations.
func LoadSettings() (*Settings, error) {
	s := &Settings{
		ListenAddr:     getEnvOrDefault("CYCLE_LISTEN_ADDR", ":8090"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		ConfigDir:      os.Getenv("CYCLE_CONFIG_DIR"),
		LinkStore:      strings.ToLower(getEnvOrDefault("CYCLE_LINK_STORE", LinkStoreMemory)),
		LinkStoreURL:   os.Getenv("CYCLE_LINK_STORE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		SignavioURL:    getEnvOrDefault("CYCLE_SIGNAVIO_URL", DefaultSignavioURL),
		FilesystemRoot: os.Getenv("CYCLE_FS_ROOT"),
		FanOutPolicy:   strings.ToLower(getEnvOrDefault("CYCLE_FANOUT_POLICY", "collect-all")),
		SecretsBackend: strings.ToLower(getEnvOrDefault("CYCLE_SECRETS", SecretsEnv)),
		AWSRegion:      os.Getenv("AWS_REGION"),
		CORSOrigins:    splitList(getEnvOrDefault("CYCLE_CORS_ORIGINS", "*")),
	}

	ttl := getEnvOrDefault("CYCLE_SESSION_TTL", "30m")
	d, err := time.ParseDuration(ttl)
	if err != nil {
		return nil, fmt.Errorf("invalid CYCLE_SESSION_TTL %q: %w", ttl, err)
	}
	s.SessionTTL = d

	cacheTTL := getEnvOrDefault("CYCLE_CONFIG_CACHE_TTL", "30s")
	d, err = time.ParseDuration(cacheTTL)
	if err != nil {
		return nil, fmt.Errorf("invalid CYCLE_CONFIG_CACHE_TTL %q: %w", cacheTTL, err)
	}
	s.ConfigCacheTTL = d

	if s.LinkStoreURL == "" {
		switch s.LinkStore {
		case LinkStoreRedis:
			s.LinkStoreURL = s.RedisURL
		case LinkStorePostgres:
			s.LinkStoreURL = s.DatabaseURL
		}
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks enumerations and required companions.
func (s *Settings) Validate() error {
	switch s.LinkStore {
	case LinkStoreMemory:
	case LinkStorePostgres, LinkStoreMySQL, LinkStoreSQLite, LinkStoreRedis, LinkStoreMongo:
		if s.LinkStoreURL == "" {
			return fmt.Errorf("link store %q requires CYCLE_LINK_STORE_URL", s.LinkStore)
		}
	default:
		return fmt.Errorf("invalid CYCLE_LINK_STORE %q", s.LinkStore)
	}

	switch s.FanOutPolicy {
	case "collect-all", "fail-fast":
	default:
		return fmt.Errorf("invalid CYCLE_FANOUT_POLICY %q (want collect-all or fail-fast)", s.FanOutPolicy)
	}

	switch s.SecretsBackend {
	case SecretsNone, SecretsEnv, SecretsAWS:
	default:
		return fmt.Errorf("invalid CYCLE_SECRETS %q", s.SecretsBackend)
	}

	if s.SessionTTL < 0 {
		return fmt.Errorf("CYCLE_SESSION_TTL must not be negative")
	}
	if s.ConfigCacheTTL < 0 {
		return fmt.Errorf("CYCLE_CONFIG_CACHE_TTL must not be negative")
	}
	return nil
}

// NewSecretsManager returns the secrets manager selected by settings, nil
// for "none".
func NewSecretsManager(ctx context.Context, s *Settings) (SecretsManager, error) {
	switch s.SecretsBackend {
	case SecretsAWS:
		return NewAWSSecretsManager(ctx, AWSSecretsManagerOptions{Region: s.AWSRegion})
	case SecretsEnv:
		return NewEnvSecretsManager(), nil
	default:
		return nil, nil
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
