// Package db opens the PostGIS store and owns its schema migrations.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

// Config holds database configuration.
type Config struct {
	URL             string
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// Open returns a pooled connection to the store. It does not dial; use Ping
// to check reachability.
func Open(cfg Config) (*sqlx.DB, error) {
	connCfg, err := pgx.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing database url: %w", err)
	}

	db := sqlx.NewDb(stdlib.OpenDB(*connCfg), "pgx")
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}
	lifetime := cfg.ConnMaxLifetime
	if lifetime == 0 {
		lifetime = 30 * time.Minute
	}
	db.SetConnMaxLifetime(lifetime)
	return db, nil
}

// Ping checks the store within timeout.
func Ping(ctx context.Context, db *sql.DB, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("pinging database: %w", err)
	}
	return nil
}

// migrations run in order inside one transaction. Each is idempotent.
var migrations = []string{
	`CREATE EXTENSION IF NOT EXISTS postgis`,
	`CREATE TABLE IF NOT EXISTS chart_presets (
		id             BIGSERIAL PRIMARY KEY,
		name           TEXT        NOT NULL,
		type           TEXT        NOT NULL CHECK (type IN ('pie', 'bar', 'bar_groupé', 'ligne')),
		schema_version INTEGER     NOT NULL DEFAULT 1,
		is_public      BOOLEAN     NOT NULL DEFAULT FALSE,
		owner_id       TEXT,
		config         JSONB       NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT chart_presets_name_owner_key UNIQUE NULLS NOT DISTINCT (name, owner_id)
	)`,
	`CREATE INDEX IF NOT EXISTS chart_presets_created_at_idx ON chart_presets (created_at DESC)`,
}

// Migrate creates the tables the service owns.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting migration: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range migrations {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing migration: %w", err)
	}
	return nil
}
