package system

import "time"

const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
	StatusDisabled = "disabled"
	StatusError    = "error"
)

// Check is the outcome of probing one dependency
type Check struct {
	Status    string `json:"status"`
	LatencyMs int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// Health is the GET /health body
type Health struct {
	Status  string           `json:"status"`
	Version string           `json:"version"`
	Uptime  string           `json:"uptime"`
	Checks  map[string]Check `json:"checks"`
}

// DatabaseStats mirrors sql.DBStats for the pool
type DatabaseStats struct {
	Driver             string `json:"driver"`
	MaxOpenConnections int    `json:"max_open_connections"`
	OpenConnections    int    `json:"open_connections"`
	InUse              int    `json:"in_use"`
	Idle               int    `json:"idle"`
	WaitCount          int64  `json:"wait_count"`
	WaitDuration       string `json:"wait_duration"`
	MaxIdleClosed      int64  `json:"max_idle_closed"`
	MaxLifetimeClosed  int64  `json:"max_lifetime_closed"`
}

type RuntimeStats struct {
	GoVersion      string    `json:"go_version"`
	NumCPU         int       `json:"num_cpu"`
	Goroutines     int       `json:"goroutines"`
	HeapAlloc      uint64    `json:"heap_alloc"`
	HeapAllocHuman string    `json:"heap_alloc_human"`
	StartedAt      time.Time `json:"started_at"`
	Uptime         string    `json:"uptime"`
}

// ConfigSnapshot is the non-secret part of the running configuration
type ConfigSnapshot struct {
	Env                  string  `json:"env"`
	StorageBackend       string  `json:"storage_backend"`
	MaxFileSize          int64   `json:"max_file_size"`
	MaxFileSizeHuman     string  `json:"max_file_size_human"`
	CacheEnabled         bool    `json:"cache_enabled"`
	CacheMaxSize         int64   `json:"cache_max_size"`
	CacheMaxSizeHuman    string  `json:"cache_max_size_human"`
	CacheMaxEntries      int     `json:"cache_max_entries"`
	CacheMaxAge          int     `json:"cache_max_age"`
	CacheCleanupInterval string  `json:"cache_cleanup_interval"`
	CacheDecayFactor     float64 `json:"cache_decay_factor"`
	CacheMinHeatScore    float64 `json:"cache_min_heat_score"`
	CacheSpaceThreshold  float64 `json:"cache_space_threshold"`
	TransformWorkers     int     `json:"transform_workers"`
	RequestTimeout       string  `json:"request_timeout"`
	RedisEnabled         bool    `json:"redis_enabled"`
	AdminEnabled         bool    `json:"admin_enabled"`
}

// Stats is the GET /api/system/stats body
type Stats struct {
	Database       DatabaseStats  `json:"database"`
	Runtime        RuntimeStats   `json:"runtime"`
	Config         ConfigSnapshot `json:"config"`
	MonitorClients int            `json:"monitor_clients"`
}
