package image

import (
	"time"

	"github.com/rifs/rifs-api/internal/pkg/storage"
)

// Image is a stored original, addressed by the sha256 of its bytes
type Image struct {
	Hash         string     `db:"hash" json:"hash"`
	Size         int64      `db:"size" json:"size"`
	MimeType     string     `db:"mime_type" json:"mime_type"`
	Extension    string     `db:"extension" json:"extension"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	LastAccessed *time.Time `db:"last_accessed" json:"last_accessed,omitempty"`
	AccessCount  int64      `db:"access_count" json:"access_count"`
}

// StorageKey returns the sharded object key, e.g. "ab/cd/abcd....jpg"
func (i *Image) StorageKey() string {
	key, _ := storage.ShardedKey(i.Hash, i.Extension)
	return key
}

// Filename is the name offered to clients in Content-Disposition
func (i *Image) Filename() string {
	return i.Hash + "." + i.Extension
}

// Query filters and orders image listings
type Query struct {
	MimeType  string
	MinSize   *int64
	MaxSize   *int64
	StartTime *time.Time
	EndTime   *time.Time
	Search    string // substring of the hash
	OrderBy   string
	OrderDir  string
	Limit     int
	Offset    int
}

// MimeTypeStat aggregates images of one type
type MimeTypeStat struct {
	MimeType  string `db:"mime_type" json:"mime_type"`
	Count     int64  `db:"count" json:"count"`
	TotalSize int64  `db:"total_size" json:"total_size"`
}

// DayStat aggregates uploads of one calendar day (UTC)
type DayStat struct {
	Date      string `json:"date"`
	Count     int64  `json:"count"`
	TotalSize int64  `json:"total_size"`
}

// Stats summarises the whole store
type Stats struct {
	TotalImages int64          `json:"total_images"`
	TotalSize   int64          `json:"total_size"`
	AverageSize float64        `json:"average_size"`
	ByMimeType  []MimeTypeStat `json:"by_mime_type"`
	ByDay       []DayStat      `json:"by_day"`
}
