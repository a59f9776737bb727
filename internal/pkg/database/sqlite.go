package database

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

const (
	busyTimeoutMS = 5000

	// A single connection serializes writers; SQLite would otherwise return SQLITE_BUSY
	// under concurrent cache updates.
	sqliteMaxOpenConns = 1
)

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// NewSQLite opens (and creates if needed) an embedded SQLite database.
// path ":memory:" gives a private in-memory database, used by tests.
func NewSQLite(path string) (*sqlx.DB, error) {
	dsn, err := sqliteDSN(path)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	db.SetMaxOpenConns(sqliteMaxOpenConns)
	db.SetMaxIdleConns(sqliteMaxOpenConns)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", stmt, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	log.Info().Str("path", path).Msg("Connected to SQLite")
	return db, nil
}

func sqliteDSN(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("sqlite path is required")
	}
	// Times are written as "2006-01-02 15:04:05.999999999-07:00" so SQLite date
	// functions and string comparisons work on them.
	query := url.Values{}
	query.Set("_time_format", "sqlite")
	query.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeoutMS))

	if path == ":memory:" {
		return path + "?" + query.Encode(), nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	u := url.URL{Scheme: "file", Path: path, RawQuery: query.Encode()}
	return u.String(), nil
}
