// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package config

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"

	"cycle/connectors/base"
)

// PostgresStore persists configuration sets in the connector_configurations
// table, one row per connector, ordered by position.
type PostgresStore struct {
	db     *sql.DB
	logger *log.Logger
}

// OpenPostgresStore connects to dbURL, retrying while the database comes up,
// and initializes the schema.
func OpenPostgresStore(ctx context.Context, dbURL string) (*PostgresStore, error) {
	const maxRetries = 5
	var db *sql.DB
	var err error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		db, err = sql.Open("postgres", dbURL)
		if err == nil {
			err = db.PingContext(ctx)
			if err == nil {
				break
			}
			db.Close()
		}

		if attempt < maxRetries {
			backoff := time.Duration(attempt*2) * time.Second
			log.Printf("[ConfigStorage] Database connection failed (attempt %d/%d): %v, retrying in %v", attempt, maxRetries, err, backoff)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
	}

	return NewPostgresStore(ctx, db)
}

// NewPostgresStore wraps an open database and creates the schema.
func NewPostgresStore(ctx context.Context, db *sql.DB) (*PostgresStore, error) {
	s := &PostgresStore{
		db:     db,
		logger: log.New(log.Writer(), "[ConfigStorage] ", log.LstdFlags),
	}
	if err := s.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS connector_configurations (
		principal_id VARCHAR(255) NOT NULL,
		position INTEGER NOT NULL,
		connector_id VARCHAR(255) NOT NULL,
		name VARCHAR(255) NOT NULL,
		type VARCHAR(50) NOT NULL,
		connection_url TEXT NOT NULL DEFAULT '',
		options JSONB NOT NULL DEFAULT '{}'::jsonb,
		credentials JSONB NOT NULL DEFAULT '{}'::jsonb,
		credentials_secret TEXT NOT NULL DEFAULT '',
		timeout_ms BIGINT NOT NULL DEFAULT 0,
		max_retries INTEGER NOT NULL DEFAULT 0,
		updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
		PRIMARY KEY (principal_id, position),
		UNIQUE (principal_id, connector_id)
	);
	`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Load implements Store
func (s *PostgresStore) Load(ctx context.Context, principalID string) (*base.ConfigurationSet, error) {
	query := `
		SELECT connector_id, name, type, connection_url, options, credentials,
		       credentials_secret, timeout_ms, max_retries
		FROM connector_configurations
		WHERE principal_id = $1
		ORDER BY position
	`

	rows, err := s.db.QueryContext(ctx, query, principalID)
	if err != nil {
		return nil, fmt.Errorf("failed to query configuration: %w", err)
	}
	defer rows.Close()

	set := &base.ConfigurationSet{PrincipalID: principalID}
	for rows.Next() {
		var (
			cfg                          base.ConnectorConfig
			optionsJSON, credentialsJSON []byte
			timeoutMs                    int64
		)
		if err := rows.Scan(&cfg.ID, &cfg.Name, &cfg.Type, &cfg.ConnectionURL,
			&optionsJSON, &credentialsJSON, &cfg.CredentialsSecret, &timeoutMs, &cfg.MaxRetries); err != nil {
			return nil, fmt.Errorf("failed to scan configuration row: %w", err)
		}
		if err := json.Unmarshal(optionsJSON, &cfg.Options); err != nil {
			return nil, fmt.Errorf("failed to unmarshal options of %s: %w", cfg.ID, err)
		}
		if err := json.Unmarshal(credentialsJSON, &cfg.Credentials); err != nil {
			return nil, fmt.Errorf("failed to unmarshal credentials of %s: %w", cfg.ID, err)
		}
		cfg.Timeout = time.Duration(timeoutMs) * time.Millisecond
		set.Connectors = append(set.Connectors, &cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read configuration rows: %w", err)
	}

	if len(set.Connectors) == 0 {
		return nil, fmt.Errorf("principal %q: %w", principalID, ErrConfigurationNotFound)
	}
	return set, nil
}

// Save implements Store. The principal's rows are replaced in one
// transaction.
func (s *PostgresStore) Save(ctx context.Context, set *base.ConfigurationSet) error {
	if err := set.Validate(); err != nil {
		return fmt.Errorf("invalid configuration set: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM connector_configurations WHERE principal_id = $1`, set.PrincipalID); err != nil {
		return fmt.Errorf("failed to clear configuration: %w", err)
	}

	insert := `
		INSERT INTO connector_configurations
			(principal_id, position, connector_id, name, type, connection_url,
			 options, credentials, credentials_secret, timeout_ms, max_retries)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	for i, cfg := range set.Connectors {
		optionsJSON, err := json.Marshal(nonNilOptions(cfg.Options))
		if err != nil {
			return fmt.Errorf("failed to marshal options of %s: %w", cfg.ID, err)
		}
		credentialsJSON, err := json.Marshal(nonNilCredentials(cfg.Credentials))
		if err != nil {
			return fmt.Errorf("failed to marshal credentials of %s: %w", cfg.ID, err)
		}
		if _, err := tx.ExecContext(ctx, insert,
			set.PrincipalID, i, cfg.ID, cfg.Name, cfg.Type, cfg.ConnectionURL,
			optionsJSON, credentialsJSON, cfg.CredentialsSecret,
			cfg.Timeout.Milliseconds(), cfg.MaxRetries,
		); err != nil {
			return fmt.Errorf("failed to save connector %s: %w", cfg.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit configuration: %w", err)
	}

	s.logger.Printf("Saved %d connector configuration(s) for %s", len(set.Connectors), base.SanitizeLogString(set.PrincipalID))
	return nil
}

// Close closes the database
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func nonNilOptions(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return map[string]interface{}{}
	}
	return m
}

func nonNilCredentials(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
