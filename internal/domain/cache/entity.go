package cache

import (
	"time"
)

// Entry is one cached transform result, keyed by sha256(original_hash + ":" + params)
type Entry struct {
	CacheKey     string    `db:"cache_key" json:"cache_key"`
	OriginalHash string    `db:"original_hash" json:"original_hash"`
	Params       string    `db:"params" json:"params"`
	FilePath     string    `db:"file_path" json:"file_path"` // relative to the cache dir
	MimeType     string    `db:"mime_type" json:"mime_type"`
	FileSize     int64     `db:"file_size" json:"file_size"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	LastAccessed time.Time `db:"last_accessed" json:"last_accessed"`
	AccessCount  int64     `db:"access_count" json:"access_count"`
	HeatScore    float64   `db:"heat_score" json:"heat_score"`
}

// Usage is the aggregate the eviction engine gates on
type Usage struct {
	Count         int64   `db:"count" json:"count"`
	TotalSize     int64   `db:"total_size" json:"total_size"`
	TotalAccesses int64   `db:"total_accesses" json:"total_accesses"`
	AverageHeat   float64 `db:"average_heat" json:"average_heat"`
}

// Stats is the cache state reported to operators
type Stats struct {
	Enabled        bool     `json:"enabled"`
	TotalEntries   int64    `json:"total_entries"`
	TotalSize      int64    `json:"total_size"`
	TotalSizeHuman string   `json:"total_size_human"`
	AverageSize    int64    `json:"average_size"`
	AverageHeat    float64  `json:"average_heat"`
	TotalAccesses  int64    `json:"total_accesses"`
	HitRate        float64  `json:"hit_rate"` // accesses / (accesses + entries), each entry costs one miss
	MaxSize        int64    `json:"max_size"`
	MaxEntries     int      `json:"max_entries"`
	UsageRatio     float64  `json:"usage_ratio"`
	SpaceThreshold float64  `json:"space_threshold"`
	DiskFiles      int      `json:"disk_files"`
	DiskBytes      int64    `json:"disk_bytes"`
	StaleEntries   []*Entry `json:"stale_entries"`
}

// CleanupResult summarises one cleanup run
type CleanupResult struct {
	CleanedCount    int      `json:"cleaned_count"`
	FreedSpace      int64    `json:"freed_space"`
	AppliedPolicies []string `json:"applied_policies"`
	DurationMs      int64    `json:"duration_ms"`
}
