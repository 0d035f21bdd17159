// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package links

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// SQL dialects
const (
	DialectPostgres = "postgres"
	DialectMySQL    = "mysql"
	DialectSQLite   = "sqlite"
)

// driverNames maps dialects to registered database/sql drivers.
var driverNames = map[string]string{
	DialectPostgres: "postgres",
	DialectMySQL:    "mysql",
	DialectSQLite:   "sqlite",
}

const linkColumns = `id,
	source_connector_id, source_artifact_id, source_element_id, source_element_name, source_revision,
	target_connector_id, target_artifact_id, target_element_id, target_element_name, target_revision,
	description, bidirectional, link_type, created_at`

// updatedColumns are rewritten on conflict. created_at keeps its first value.
var updatedColumns = []string{
	"source_connector_id", "source_artifact_id", "source_element_id", "source_element_name", "source_revision",
	"target_connector_id", "target_artifact_id", "target_element_id", "target_element_name", "target_revision",
	"description", "bidirectional", "link_type",
}

// SQLStore persists links in the artifact_links table.
type SQLStore struct {
	db      *sql.DB
	dialect string
	logger  *log.Logger
}

// OpenSQLStore opens dsn with the driver for dialect and creates the schema.
func OpenSQLStore(ctx context.Context, dialect, dsn string) (*SQLStore, error) {
	driver, ok := driverNames[dialect]
	if !ok {
		return nil, fmt.Errorf("unsupported link store dialect %q", dialect)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s link store: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		// One connection, so an in-memory database is shared by every query.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s link store: %w", dialect, err)
	}

	s, err := NewSQLStore(ctx, db, dialect)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLStore wraps an open database and creates the schema.
func NewSQLStore(ctx context.Context, db *sql.DB, dialect string) (*SQLStore, error) {
	if _, ok := driverNames[dialect]; !ok {
		return nil, fmt.Errorf("unsupported link store dialect %q", dialect)
	}
	s := &SQLStore{
		db:      db,
		dialect: dialect,
		logger:  log.New(log.Writer(), "[LinkStorage] ", log.LstdFlags),
	}
	if err := s.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	s.logger.Printf("Link store ready (dialect: %s)", dialect)
	return s, nil
}

func (s *SQLStore) schema() []string {
	switch s.dialect {
	case DialectMySQL:
		return []string{`
	CREATE TABLE IF NOT EXISTS artifact_links (
		id VARCHAR(255) NOT NULL PRIMARY KEY,
		source_connector_id VARCHAR(255) NOT NULL,
		source_artifact_id VARCHAR(1024) NOT NULL,
		source_element_id VARCHAR(255) NOT NULL DEFAULT '',
		source_element_name VARCHAR(1024) NOT NULL DEFAULT '',
		source_revision BIGINT NOT NULL DEFAULT 0,
		target_connector_id VARCHAR(255) NOT NULL,
		target_artifact_id VARCHAR(1024) NOT NULL,
		target_element_id VARCHAR(255) NOT NULL DEFAULT '',
		target_element_name VARCHAR(1024) NOT NULL DEFAULT '',
		target_revision BIGINT NOT NULL DEFAULT 0,
		description TEXT NOT NULL,
		bidirectional BOOLEAN NOT NULL DEFAULT FALSE,
		link_type VARCHAR(255) NOT NULL DEFAULT '',
		created_at BIGINT NOT NULL DEFAULT 0,
		INDEX idx_artifact_links_source (source_artifact_id(255))
	)`}
	default:
		return []string{`
	CREATE TABLE IF NOT EXISTS artifact_links (
		id TEXT NOT NULL PRIMARY KEY,
		source_connector_id TEXT NOT NULL,
		source_artifact_id TEXT NOT NULL,
		source_element_id TEXT NOT NULL DEFAULT '',
		source_element_name TEXT NOT NULL DEFAULT '',
		source_revision BIGINT NOT NULL DEFAULT 0,
		target_connector_id TEXT NOT NULL,
		target_artifact_id TEXT NOT NULL,
		target_element_id TEXT NOT NULL DEFAULT '',
		target_element_name TEXT NOT NULL DEFAULT '',
		target_revision BIGINT NOT NULL DEFAULT 0,
		description TEXT NOT NULL DEFAULT '',
		bidirectional BOOLEAN NOT NULL DEFAULT FALSE,
		link_type TEXT NOT NULL DEFAULT '',
		created_at BIGINT NOT NULL DEFAULT 0
	)`,
			`CREATE INDEX IF NOT EXISTS idx_artifact_links_source ON artifact_links (source_artifact_id)`,
		}
	}
}

func (s *SQLStore) initSchema(ctx context.Context) error {
	for _, stmt := range s.schema() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// placeholder returns the n-th (1-based) bind parameter.
func (s *SQLStore) placeholder(n int) string {
	if s.dialect == DialectPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (s *SQLStore) upsertQuery() string {
	params := make([]string, 15)
	for i := range params {
		params[i] = s.placeholder(i + 1)
	}
	insert := fmt.Sprintf("INSERT INTO artifact_links (%s) VALUES (%s)", linkColumns, strings.Join(params, ", "))

	sets := make([]string, len(updatedColumns))
	for i, col := range updatedColumns {
		if s.dialect == DialectMySQL {
			sets[i] = fmt.Sprintf("%s = VALUES(%s)", col, col)
		} else {
			sets[i] = fmt.Sprintf("%s = excluded.%s", col, col)
		}
	}
	if s.dialect == DialectMySQL {
		return insert + " ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")
	}
	return insert + " ON CONFLICT (id) DO UPDATE SET " + strings.Join(sets, ", ")
}

// Upsert implements Store
func (s *SQLStore) Upsert(ctx context.Context, r *Record) error {
	if err := r.Validate(); err != nil {
		return err
	}
	created := r.CreatedAt
	if created.IsZero() {
		created = nowUTC()
	}

	_, err := s.db.ExecContext(ctx, s.upsertQuery(),
		r.ID,
		r.Source.ConnectorID, r.Source.ArtifactID, r.Source.ElementID, r.Source.ElementName, r.Source.Revision,
		r.Target.ConnectorID, r.Target.ArtifactID, r.Target.ElementID, r.Target.ElementName, r.Target.Revision,
		r.Description, r.Bidirectional, r.LinkType, created.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert link %s: %w", r.ID, err)
	}
	return nil
}

// FindBySourceArtifactID implements Store
func (s *SQLStore) FindBySourceArtifactID(ctx context.Context, artifactID string) ([]*Record, error) {
	query := fmt.Sprintf("SELECT %s FROM artifact_links WHERE source_artifact_id = %s ORDER BY id",
		linkColumns, s.placeholder(1))

	rows, err := s.db.QueryContext(ctx, query, artifactID)
	if err != nil {
		return nil, fmt.Errorf("failed to query links: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		var (
			r         Record
			createdMs int64
		)
		if err := rows.Scan(&r.ID,
			&r.Source.ConnectorID, &r.Source.ArtifactID, &r.Source.ElementID, &r.Source.ElementName, &r.Source.Revision,
			&r.Target.ConnectorID, &r.Target.ArtifactID, &r.Target.ElementID, &r.Target.ElementName, &r.Target.Revision,
			&r.Description, &r.Bidirectional, &r.LinkType, &createdMs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan link row: %w", err)
		}
		r.CreatedAt = time.UnixMilli(createdMs).UTC()
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read link rows: %w", err)
	}
	return out, nil
}

// Dialect returns the SQL dialect.
func (s *SQLStore) Dialect() string {
	return s.dialect
}

// Close closes the database
func (s *SQLStore) Close() error {
	return s.db.Close()
}
