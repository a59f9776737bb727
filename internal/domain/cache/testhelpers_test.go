package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rifs/rifs-api/internal/pkg/database"
	"github.com/rifs/rifs-api/internal/pkg/storage"
)

var testNow = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

func testHash(i int) string {
	return fmt.Sprintf("%064x", i)
}

func defaultSettings() Settings {
	return Settings{
		Enabled:        true,
		MaxSize:        1000,
		MaxEntries:     100,
		MaxCacheAge:    time.Hour,
		DecayFactor:    0.5,
		MinHeatScore:   0.1,
		SpaceThreshold: 0.8,
	}
}

func setupRepo(t *testing.T) Repository {
	t.Helper()

	db, err := database.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewRepository(db)
}

func setupService(t *testing.T, settings Settings) (*Service, Repository, *storage.LocalStorage) {
	t.Helper()

	repo := setupRepo(t)
	files, err := storage.NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("local storage: %v", err)
	}

	svc := NewService(repo, files, settings)
	svc.now = func() time.Time { return testNow }
	return svc, repo, files
}

// seedEntry writes a file of size bytes and a row with the given access history
func seedEntry(t *testing.T, repo Repository, files *storage.LocalStorage, i int, size int, count int64, created, lastAccessed time.Time) *Entry {
	t.Helper()

	key := testHash(1000 + i)
	path, err := storage.ShardedKey(key, "png")
	if err != nil {
		t.Fatalf("sharded key: %v", err)
	}
	if err := files.Put(context.Background(), path, make([]byte, size), "image/png"); err != nil {
		t.Fatalf("write cache file: %v", err)
	}

	e := &Entry{
		CacheKey:     key,
		OriginalHash: testHash(i),
		Params:       "w10",
		FilePath:     path,
		MimeType:     "image/png",
		FileSize:     int64(size),
		CreatedAt:    created,
		LastAccessed: lastAccessed,
		AccessCount:  count,
		HeatScore:    1.0,
	}
	if err := repo.Insert(context.Background(), e); err != nil {
		t.Fatalf("insert entry: %v", err)
	}
	return e
}
