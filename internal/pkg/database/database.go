package database

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// Open picks the driver from the URL scheme:
//
//	postgres://..., postgresql://...  -> lib/pq
//	sqlite://path, sqlite::memory:    -> modernc.org/sqlite
func Open(databaseURL string, maxConns int) (*sqlx.DB, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return NewPostgres(databaseURL, maxConns)
	case strings.HasPrefix(databaseURL, "sqlite://"):
		return NewSQLite(strings.TrimPrefix(databaseURL, "sqlite://"))
	case strings.HasPrefix(databaseURL, "sqlite:"):
		return NewSQLite(strings.TrimPrefix(databaseURL, "sqlite:"))
	default:
		return nil, fmt.Errorf("unsupported database url: %q", databaseURL)
	}
}

// Close closes the database connection
func Close(db *sqlx.DB) {
	if db != nil {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Str("driver", db.DriverName()).Msg("Error closing database connection")
		} else {
			log.Info().Str("driver", db.DriverName()).Msg("Database connection closed")
		}
	}
}

// IsPostgres reports whether db talks to PostgreSQL.
func IsPostgres(db *sqlx.DB) bool {
	return db.DriverName() == "postgres"
}
