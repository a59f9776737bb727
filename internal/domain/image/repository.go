package image

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/rifs/rifs-api/internal/pkg/database"
)

// Repository defines image metadata access
type Repository interface {
	Create(ctx context.Context, img *Image) error
	GetByHash(ctx context.Context, hash string) (*Image, error)
	TouchAccess(ctx context.Context, hash string, at time.Time) error
	Delete(ctx context.Context, hash string) (bool, error)
	List(ctx context.Context, q Query) ([]*Image, error)
	Count(ctx context.Context, q Query) (int, error)
	Stats(ctx context.Context, since time.Time) (*Stats, error)
}

// ErrDuplicate is returned by Create when the hash already has a row
var ErrDuplicate = errors.New("image already exists")

var orderColumns = map[string]string{
	"hash":         "hash",
	"size":         "size",
	"created_at":   "created_at",
	"access_count": "access_count",
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates new image repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, img *Image) error {
	query := r.db.Rebind(`
		INSERT INTO images (hash, size, mime_type, extension, created_at, last_accessed, access_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := r.db.ExecContext(ctx, query,
		img.Hash,
		img.Size,
		img.MimeType,
		img.Extension,
		img.CreatedAt,
		img.LastAccessed,
		img.AccessCount,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert image: %w", err)
	}
	return nil
}

func (r *repository) GetByHash(ctx context.Context, hash string) (*Image, error) {
	query := r.db.Rebind(`SELECT * FROM images WHERE hash = ?`)
	var img Image
	err := r.db.GetContext(ctx, &img, query, hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &img, nil
}

func (r *repository) TouchAccess(ctx context.Context, hash string, at time.Time) error {
	query := r.db.Rebind(`UPDATE images SET access_count = access_count + 1, last_accessed = ? WHERE hash = ?`)
	_, err := r.db.ExecContext(ctx, query, at, hash)
	return err
}

func (r *repository) Delete(ctx context.Context, hash string) (bool, error) {
	query := r.db.Rebind(`DELETE FROM images WHERE hash = ?`)
	res, err := r.db.ExecContext(ctx, query, hash)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *repository) List(ctx context.Context, q Query) ([]*Image, error) {
	where, args := buildWhere(q)

	orderBy, ok := orderColumns[q.OrderBy]
	if !ok {
		orderBy = "created_at"
	}
	orderDir := "DESC"
	if strings.EqualFold(q.OrderDir, "asc") {
		orderDir = "ASC"
	}

	query := "SELECT * FROM images" + where +
		fmt.Sprintf(" ORDER BY %s %s, hash ASC LIMIT ? OFFSET ?", orderBy, orderDir)
	args = append(args, q.Limit, q.Offset)

	var images []*Image
	err := r.db.SelectContext(ctx, &images, r.db.Rebind(query), args...)
	return images, err
}

func (r *repository) Count(ctx context.Context, q Query) (int, error) {
	where, args := buildWhere(q)

	var count int
	err := r.db.GetContext(ctx, &count, r.db.Rebind("SELECT COUNT(*) FROM images"+where), args...)
	return count, err
}

func (r *repository) Stats(ctx context.Context, since time.Time) (*Stats, error) {
	stats := &Stats{
		ByMimeType: []MimeTypeStat{},
		ByDay:      []DayStat{},
	}

	var totals struct {
		Count int64 `db:"count"`
		Size  int64 `db:"total_size"`
	}
	if err := r.db.GetContext(ctx, &totals, `SELECT COUNT(*) AS count, COALESCE(SUM(size), 0) AS total_size FROM images`); err != nil {
		return nil, fmt.Errorf("failed to load totals: %w", err)
	}
	stats.TotalImages = totals.Count
	stats.TotalSize = totals.Size
	if totals.Count > 0 {
		stats.AverageSize = float64(totals.Size) / float64(totals.Count)
	}

	if err := r.db.SelectContext(ctx, &stats.ByMimeType, `
		SELECT mime_type, COUNT(*) AS count, COALESCE(SUM(size), 0) AS total_size
		FROM images
		GROUP BY mime_type
		ORDER BY count DESC, mime_type ASC
	`); err != nil {
		return nil, fmt.Errorf("failed to load mime type stats: %w", err)
	}

	day := "DATE(created_at)"
	if database.IsPostgres(r.db) {
		day = "TO_CHAR(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD')"
	}

	var days []struct {
		Day   string `db:"day"`
		Count int64  `db:"count"`
		Size  int64  `db:"total_size"`
	}
	query := r.db.Rebind(fmt.Sprintf(`
		SELECT %[1]s AS day, COUNT(*) AS count, COALESCE(SUM(size), 0) AS total_size
		FROM images
		WHERE created_at >= ?
		GROUP BY %[1]s
		ORDER BY day ASC
	`, day))
	if err := r.db.SelectContext(ctx, &days, query, since.UTC()); err != nil {
		return nil, fmt.Errorf("failed to load daily stats: %w", err)
	}
	for _, d := range days {
		stats.ByDay = append(stats.ByDay, DayStat{Date: d.Day, Count: d.Count, TotalSize: d.Size})
	}

	return stats, nil
}

func buildWhere(q Query) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)

	if q.MimeType != "" {
		conds = append(conds, "mime_type = ?")
		args = append(args, q.MimeType)
	}
	if q.MinSize != nil {
		conds = append(conds, "size >= ?")
		args = append(args, *q.MinSize)
	}
	if q.MaxSize != nil {
		conds = append(conds, "size <= ?")
		args = append(args, *q.MaxSize)
	}
	if q.StartTime != nil {
		conds = append(conds, "created_at >= ?")
		args = append(args, q.StartTime.UTC())
	}
	if q.EndTime != nil {
		conds = append(conds, "created_at <= ?")
		args = append(args, q.EndTime.UTC())
	}
	if q.Search != "" {
		conds = append(conds, "hash LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Search)+"%")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
