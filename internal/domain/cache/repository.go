package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Repository defines transform cache metadata access
type Repository interface {
	Insert(ctx context.Context, e *Entry) error
	FindByKey(ctx context.Context, key string) (*Entry, error)
	UpdateAccess(ctx context.Context, key string, at time.Time, heat float64) error
	DeleteByKey(ctx context.Context, key string) error
	DeleteByOriginalHash(ctx context.Context, hash string) (int64, error)
	ListByOriginalHash(ctx context.Context, hash string) ([]*Entry, error)
	FindCleanupCandidates(ctx context.Context, olderThan time.Time, limit int) ([]*Entry, error)
	FindLowHeat(ctx context.Context, maxHeat float64, limit int) ([]*Entry, error)
	ListAll(ctx context.Context) ([]*Entry, error)
	UpdateHeat(ctx context.Context, key string, heat float64) error
	ClearAll(ctx context.Context) (int64, error)
	Stats(ctx context.Context) (*Usage, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates new cache repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// Insert writes the entry, replacing any row with the same key
func (r *repository) Insert(ctx context.Context, e *Entry) error {
	query := r.db.Rebind(`
		INSERT INTO transform_cache (
			cache_key, original_hash, params, file_path, mime_type, file_size,
			created_at, last_accessed, access_count, heat_score
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (cache_key) DO UPDATE SET
			original_hash = excluded.original_hash,
			params = excluded.params,
			file_path = excluded.file_path,
			mime_type = excluded.mime_type,
			file_size = excluded.file_size,
			created_at = excluded.created_at,
			last_accessed = excluded.last_accessed,
			access_count = excluded.access_count,
			heat_score = excluded.heat_score
	`)
	_, err := r.db.ExecContext(ctx, query,
		e.CacheKey,
		e.OriginalHash,
		e.Params,
		e.FilePath,
		e.MimeType,
		e.FileSize,
		e.CreatedAt,
		e.LastAccessed,
		e.AccessCount,
		e.HeatScore,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert cache entry: %w", err)
	}
	return nil
}

func (r *repository) FindByKey(ctx context.Context, key string) (*Entry, error) {
	query := r.db.Rebind(`SELECT * FROM transform_cache WHERE cache_key = ?`)
	var e Entry
	err := r.db.GetContext(ctx, &e, query, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (r *repository) UpdateAccess(ctx context.Context, key string, at time.Time, heat float64) error {
	query := r.db.Rebind(`
		UPDATE transform_cache
		SET access_count = access_count + 1, last_accessed = ?, heat_score = ?
		WHERE cache_key = ?
	`)
	_, err := r.db.ExecContext(ctx, query, at, heat, key)
	return err
}

func (r *repository) DeleteByKey(ctx context.Context, key string) error {
	query := r.db.Rebind(`DELETE FROM transform_cache WHERE cache_key = ?`)
	_, err := r.db.ExecContext(ctx, query, key)
	return err
}

func (r *repository) DeleteByOriginalHash(ctx context.Context, hash string) (int64, error) {
	query := r.db.Rebind(`DELETE FROM transform_cache WHERE original_hash = ?`)
	res, err := r.db.ExecContext(ctx, query, hash)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *repository) ListByOriginalHash(ctx context.Context, hash string) ([]*Entry, error) {
	query := r.db.Rebind(`SELECT * FROM transform_cache WHERE original_hash = ? ORDER BY created_at ASC`)
	var entries []*Entry
	err := r.db.SelectContext(ctx, &entries, query, hash)
	return entries, err
}

// FindCleanupCandidates returns entries created before olderThan, least recently used first.
// limit <= 0 returns all of them.
func (r *repository) FindCleanupCandidates(ctx context.Context, olderThan time.Time, limit int) ([]*Entry, error) {
	query := `SELECT * FROM transform_cache WHERE created_at < ? ORDER BY last_accessed ASC, cache_key ASC`
	args := []interface{}{olderThan}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	var entries []*Entry
	err := r.db.SelectContext(ctx, &entries, r.db.Rebind(query), args...)
	return entries, err
}

// FindLowHeat returns entries with heat_score <= maxHeat, coldest first.
// limit <= 0 returns all of them.
func (r *repository) FindLowHeat(ctx context.Context, maxHeat float64, limit int) ([]*Entry, error) {
	query := `SELECT * FROM transform_cache WHERE heat_score <= ? ORDER BY heat_score ASC, last_accessed ASC, cache_key ASC`
	args := []interface{}{maxHeat}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	var entries []*Entry
	err := r.db.SelectContext(ctx, &entries, r.db.Rebind(query), args...)
	return entries, err
}

func (r *repository) ListAll(ctx context.Context) ([]*Entry, error) {
	var entries []*Entry
	err := r.db.SelectContext(ctx, &entries, `SELECT * FROM transform_cache ORDER BY cache_key ASC`)
	return entries, err
}

func (r *repository) UpdateHeat(ctx context.Context, key string, heat float64) error {
	query := r.db.Rebind(`UPDATE transform_cache SET heat_score = ? WHERE cache_key = ?`)
	_, err := r.db.ExecContext(ctx, query, heat, key)
	return err
}

func (r *repository) ClearAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transform_cache`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *repository) Stats(ctx context.Context) (*Usage, error) {
	var u Usage
	err := r.db.GetContext(ctx, &u, `
		SELECT
			COUNT(*) AS count,
			COALESCE(SUM(file_size), 0) AS total_size,
			COALESCE(SUM(access_count), 0) AS total_accesses,
			COALESCE(AVG(heat_score), 0.0) AS average_heat
		FROM transform_cache
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate cache usage: %w", err)
	}
	return &u, nil
}
