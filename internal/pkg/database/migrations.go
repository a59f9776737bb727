package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// Migration is one schema step, written for each supported dialect.
type Migration struct {
	Version     int
	Description string
	Postgres    string
	SQLite      string
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "images",
		Postgres: `
CREATE TABLE IF NOT EXISTS images (
	hash           TEXT PRIMARY KEY,
	size           BIGINT NOT NULL,
	mime_type      TEXT NOT NULL,
	extension      TEXT NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL,
	last_accessed  TIMESTAMPTZ,
	access_count   BIGINT NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_images_created_at ON images (created_at);
CREATE INDEX IF NOT EXISTS idx_images_mime_type ON images (mime_type);`,
		SQLite: `
CREATE TABLE IF NOT EXISTS images (
	hash           TEXT PRIMARY KEY,
	size           INTEGER NOT NULL,
	mime_type      TEXT NOT NULL,
	extension      TEXT NOT NULL,
	created_at     TIMESTAMP NOT NULL,
	last_accessed  TIMESTAMP,
	access_count   INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_images_created_at ON images (created_at);
CREATE INDEX IF NOT EXISTS idx_images_mime_type ON images (mime_type);`,
	},
	{
		Version:     2,
		Description: "transform cache",
		Postgres: `
CREATE TABLE IF NOT EXISTS transform_cache (
	cache_key      TEXT PRIMARY KEY,
	original_hash  TEXT NOT NULL,
	params         TEXT NOT NULL,
	file_path      TEXT NOT NULL,
	mime_type      TEXT NOT NULL,
	file_size      BIGINT NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL,
	last_accessed  TIMESTAMPTZ NOT NULL,
	access_count   BIGINT NOT NULL DEFAULT 1,
	heat_score     DOUBLE PRECISION NOT NULL DEFAULT 1.0
);
CREATE INDEX IF NOT EXISTS idx_transform_cache_original ON transform_cache (original_hash);
CREATE INDEX IF NOT EXISTS idx_transform_cache_heat ON transform_cache (heat_score);
CREATE INDEX IF NOT EXISTS idx_transform_cache_last_accessed ON transform_cache (last_accessed);`,
		SQLite: `
CREATE TABLE IF NOT EXISTS transform_cache (
	cache_key      TEXT PRIMARY KEY,
	original_hash  TEXT NOT NULL,
	params         TEXT NOT NULL,
	file_path      TEXT NOT NULL,
	mime_type      TEXT NOT NULL,
	file_size      INTEGER NOT NULL,
	created_at     TIMESTAMP NOT NULL,
	last_accessed  TIMESTAMP NOT NULL,
	access_count   INTEGER NOT NULL DEFAULT 1,
	heat_score     REAL NOT NULL DEFAULT 1.0
);
CREATE INDEX IF NOT EXISTS idx_transform_cache_original ON transform_cache (original_hash);
CREATE INDEX IF NOT EXISTS idx_transform_cache_heat ON transform_cache (heat_score);
CREATE INDEX IF NOT EXISTS idx_transform_cache_last_accessed ON transform_cache (last_accessed);`,
	},
}

// Migrate applies every migration newer than the recorded schema version.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
	version     INTEGER PRIMARY KEY,
	applied_at  TIMESTAMP NOT NULL
)`); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	var current int
	if err := db.GetContext(ctx, &current, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations"); err != nil {
		return fmt.Errorf("get current version: %w", err)
	}

	postgres := IsPostgres(db)
	for _, m := range migrations {
		if m.Version <= current {
			continue
		}

		stmt := m.SQLite
		if postgres {
			stmt = m.Postgres
		}

		tx, err := db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %d (%s): %w", m.Version, m.Description, err)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind("INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)"), m.Version, time.Now().UTC()); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}

		log.Info().Int("version", m.Version).Str("description", m.Description).Msg("Applied migration")
	}

	return nil
}
