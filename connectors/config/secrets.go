// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package config

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"cycle/connectors/base"
)

// SecretsManager resolves a secret reference into credential key/values.
type SecretsManager interface {
	GetSecret(ctx context.Context, ref string) (map[string]string, error)
}

// secretsAPI is the subset of the Secrets Manager client used here.
type secretsAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSSecretsManager reads secrets from AWS Secrets Manager and caches them
// for a TTL.
type AWSSecretsManager struct {
	client secretsAPI
	cache  map[string]*secretCacheEntry
	mu     sync.RWMutex
	ttl    time.Duration
	logger *log.Logger
}

type secretCacheEntry struct {
	value     map[string]string
	expiresAt time.Time
}

// AWSSecretsManagerOptions configures the AWS secrets manager
type AWSSecretsManagerOptions struct {
	Region   string
	CacheTTL time.Duration
	Logger   *log.Logger
}

// NewAWSSecretsManager loads the default AWS config and creates a client
func NewAWSSecretsManager(ctx context.Context, opts AWSSecretsManagerOptions) (*AWSSecretsManager, error) {
	cfgOpts := []func(*awsconfig.LoadOptions) error{}
	if opts.Region != "" {
		cfgOpts = append(cfgOpts, awsconfig.WithRegion(opts.Region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, cfgOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return newAWSSecretsManager(secretsmanager.NewFromConfig(cfg), opts), nil
}

func newAWSSecretsManager(client secretsAPI, opts AWSSecretsManagerOptions) *AWSSecretsManager {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stdout, "[SECRETS_MANAGER] ", log.LstdFlags)
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &AWSSecretsManager{
		client: client,
		cache:  make(map[string]*secretCacheEntry),
		ttl:    ttl,
		logger: logger,
	}
}

// GetSecret implements SecretsManager. JSON object secrets are returned as
// their key/values; any other string is returned under "value".
func (s *AWSSecretsManager) GetSecret(ctx context.Context, secretARN string) (map[string]string, error) {
	s.mu.RLock()
	entry, exists := s.cache[secretARN]
	s.mu.RUnlock()

	if exists && time.Now().Before(entry.expiresAt) {
		return entry.value, nil
	}

	result, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretARN),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get secret %s: %w", maskARN(secretARN), err)
	}
	if result.SecretString == nil {
		return nil, fmt.Errorf("secret %s has no string value", maskARN(secretARN))
	}

	var credentials map[string]string
	if err := json.Unmarshal([]byte(*result.SecretString), &credentials); err != nil {
		credentials = map[string]string{"value": *result.SecretString}
	}

	s.mu.Lock()
	s.cache[secretARN] = &secretCacheEntry{
		value:     credentials,
		expiresAt: time.Now().Add(s.ttl),
	}
	s.mu.Unlock()

	s.logger.Printf("Retrieved and cached secret %s", maskARN(secretARN))
	return credentials, nil
}

// InvalidateSecret drops a cached secret
func (s *AWSSecretsManager) InvalidateSecret(secretARN string) {
	s.mu.Lock()
	delete(s.cache, secretARN)
	s.mu.Unlock()
}

func maskARN(arn string) string {
	if len(arn) <= 12 {
		return "***"
	}
	return "..." + arn[len(arn)-8:]
}

// LocalSecretsManager serves secrets from memory, for development and tests.
type LocalSecretsManager struct {
	secrets map[string]map[string]string
	mu      sync.RWMutex
}

// NewLocalSecretsManager creates an empty LocalSecretsManager
func NewLocalSecretsManager() *LocalSecretsManager {
	return &LocalSecretsManager{secrets: make(map[string]map[string]string)}
}

// GetSecret implements SecretsManager
func (s *LocalSecretsManager) GetSecret(ctx context.Context, ref string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if secret, exists := s.secrets[ref]; exists {
		return secret, nil
	}
	return nil, fmt.Errorf("secret %s not found in local secrets manager", ref)
}

// SetSecret stores a secret
func (s *LocalSecretsManager) SetSecret(ref string, value map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secrets[ref] = value
}

// EnvSecretsManager treats the secret reference as an environment variable
// prefix: ref "SIGNAVIO" reads SIGNAVIO_USERNAME, SIGNAVIO_PASSWORD and so on.
type EnvSecretsManager struct{}

// NewEnvSecretsManager creates an EnvSecretsManager
func NewEnvSecretsManager() *EnvSecretsManager {
	return &EnvSecretsManager{}
}

var envSecretFields = []string{
	"USERNAME", "PASSWORD", "API_KEY", "TOKEN",
	"ACCESS_KEY", "SECRET_KEY", "ACCOUNT_KEY", "CLIENT_ID", "CLIENT_SECRET",
}

// GetSecret implements SecretsManager
func (s *EnvSecretsManager) GetSecret(ctx context.Context, ref string) (map[string]string, error) {
	credentials := make(map[string]string)
	for _, field := range envSecretFields {
		if value := os.Getenv(ref + "_" + field); value != "" {
			credentials[strings.ToLower(field)] = value
		}
	}
	if len(credentials) == 0 {
		return nil, fmt.Errorf("no credentials found for prefix %s", ref)
	}
	return credentials, nil
}

// ResolveCredentials merges the secret named by each configuration's
// CredentialsSecret into its Credentials. Secret values win over inline
// values. The set is modified in place.
func ResolveCredentials(ctx context.Context, set *base.ConfigurationSet, sm SecretsManager) error {
	for _, cfg := range set.Connectors {
		if cfg.CredentialsSecret == "" {
			continue
		}
		if sm == nil {
			return fmt.Errorf("connector %s references secret %s but no secrets manager is configured", cfg.ID, maskARN(cfg.CredentialsSecret))
		}
		secret, err := sm.GetSecret(ctx, cfg.CredentialsSecret)
		if err != nil {
			return fmt.Errorf("connector %s: %w", cfg.ID, err)
		}
		if cfg.Credentials == nil {
			cfg.Credentials = make(map[string]string, len(secret))
		}
		for k, v := range secret {
			cfg.Credentials[k] = v
		}
	}
	return nil
}
