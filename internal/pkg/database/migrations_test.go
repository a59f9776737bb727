package database

import (
	"context"
	"testing"
)

func TestMigrateSQLite(t *testing.T) {
	t.Parallel()

	db, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// Second run must be a no-op.
	if err := Migrate(ctx, db); err != nil {
		t.Fatalf("second migrate: %v", err)
	}

	var version int
	if err := db.Get(&version, "SELECT MAX(version) FROM schema_migrations"); err != nil {
		t.Fatalf("read version: %v", err)
	}
	if version != len(migrations) {
		t.Fatalf("expected version %d, got %d", len(migrations), version)
	}

	for _, table := range []string{"images", "transform_cache"} {
		var n int
		if err := db.Get(&n, "SELECT COUNT(*) FROM "+table); err != nil {
			t.Fatalf("table %s missing: %v", table, err)
		}
	}
}

func TestOpenRejectsUnknownScheme(t *testing.T) {
	t.Parallel()

	if _, err := Open("mysql://localhost/db", 1); err == nil {
		t.Fatal("expected error for unsupported scheme")
	}
}

func TestOpenSQLiteFile(t *testing.T) {
	t.Parallel()

	db, err := Open("sqlite://"+t.TempDir()+"/nested/rifs.db", 1)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if IsPostgres(db) {
		t.Fatal("sqlite db reported as postgres")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	db, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec("CREATE TABLE t (id TEXT PRIMARY KEY)"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := db.Exec("INSERT INTO t (id) VALUES ('a')"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	_, err = db.Exec("INSERT INTO t (id) VALUES ('a')")
	if !IsUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}
	if IsUniqueViolation(nil) {
		t.Fatal("nil is not a violation")
	}
}
