package system

import (
	"context"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/rifs/rifs-api/internal/config"
	"github.com/rifs/rifs-api/internal/pkg/storage"
)

const (
	Version = "1.0.0"

	checkTimeout    = 2 * time.Second
	storageCheckKey = "00/00/health-check"
)

// ClientCounter reports live monitor connections
type ClientCounter interface {
	Clients() int
}

// Service checks dependencies and reports process state
type Service struct {
	db        *sqlx.DB
	redis     *redis.Client
	originals storage.ObjectStore
	cacheDir  *storage.LocalStorage
	cfg       *config.Config
	monitor   ClientCounter
	startedAt time.Time
}

// NewService creates system service; redisClient and monitor may be nil
func NewService(db *sqlx.DB, redisClient *redis.Client, originals storage.ObjectStore, cacheDir *storage.LocalStorage, cfg *config.Config, monitor ClientCounter) *Service {
	return &Service{
		db:        db,
		redis:     redisClient,
		originals: originals,
		cacheDir:  cacheDir,
		cfg:       cfg,
		monitor:   monitor,
		startedAt: time.Now().UTC(),
	}
}

// Health pings every dependency. Redis is optional and reported as disabled when absent.
func (s *Service) Health(ctx context.Context) *Health {
	checks := map[string]Check{
		"database": s.check(ctx, func(ctx context.Context) error {
			return s.db.PingContext(ctx)
		}),
		"storage": s.check(ctx, func(ctx context.Context) error {
			_, err := s.originals.Exists(ctx, storageCheckKey)
			return err
		}),
	}

	if s.cacheDir != nil {
		checks["cache_dir"] = s.check(ctx, func(ctx context.Context) error {
			_, err := s.cacheDir.Exists(ctx, storageCheckKey)
			return err
		})
	}

	if s.redis == nil {
		checks["redis"] = Check{Status: StatusDisabled}
	} else {
		checks["redis"] = s.check(ctx, func(ctx context.Context) error {
			return s.redis.Ping(ctx).Err()
		})
	}

	status := StatusOK
	for _, c := range checks {
		if c.Status == StatusError {
			status = StatusDegraded
			break
		}
	}

	return &Health{
		Status:  status,
		Version: Version,
		Uptime:  time.Since(s.startedAt).Round(time.Second).String(),
		Checks:  checks,
	}
}

func (s *Service) check(ctx context.Context, fn func(context.Context) error) Check {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	c := Check{Status: StatusOK, LatencyMs: time.Since(start).Milliseconds()}
	if err != nil {
		c.Status = StatusError
		c.Error = err.Error()
	}
	return c
}

// Stats returns pool, runtime and configuration figures
func (s *Service) Stats() *Stats {
	pool := s.db.Stats()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	stats := &Stats{
		Database: DatabaseStats{
			Driver:             s.db.DriverName(),
			MaxOpenConnections: pool.MaxOpenConnections,
			OpenConnections:    pool.OpenConnections,
			InUse:              pool.InUse,
			Idle:               pool.Idle,
			WaitCount:          pool.WaitCount,
			WaitDuration:       pool.WaitDuration.String(),
			MaxIdleClosed:      pool.MaxIdleClosed,
			MaxLifetimeClosed:  pool.MaxLifetimeClosed,
		},
		Runtime: RuntimeStats{
			GoVersion:      runtime.Version(),
			NumCPU:         runtime.NumCPU(),
			Goroutines:     runtime.NumGoroutine(),
			HeapAlloc:      mem.HeapAlloc,
			HeapAllocHuman: humanize.IBytes(mem.HeapAlloc),
			StartedAt:      s.startedAt,
			Uptime:         time.Since(s.startedAt).Round(time.Second).String(),
		},
		Config: ConfigSnapshot{
			Env:                  s.cfg.Env,
			StorageBackend:       s.cfg.StorageBackend,
			MaxFileSize:          s.cfg.StorageMaxFileSize,
			MaxFileSizeHuman:     humanize.Bytes(uint64(s.cfg.StorageMaxFileSize)),
			CacheEnabled:         s.cfg.CacheEnabled,
			CacheMaxSize:         s.cfg.CacheMaxSize,
			CacheMaxSizeHuman:    humanize.Bytes(uint64(s.cfg.CacheMaxSize)),
			CacheMaxEntries:      s.cfg.CacheMaxEntries,
			CacheMaxAge:          s.cfg.CacheMaxAge,
			CacheCleanupInterval: s.cfg.CacheCleanupInterval.String(),
			CacheDecayFactor:     s.cfg.CacheDecayFactor,
			CacheMinHeatScore:    s.cfg.CacheMinHeatScore,
			CacheSpaceThreshold:  s.cfg.CacheSpaceThreshold,
			TransformWorkers:     s.cfg.TransformWorkers,
			RequestTimeout:       s.cfg.ServerRequestTimeout.String(),
			RedisEnabled:         s.redis != nil,
			AdminEnabled:         s.cfg.AdminEnabled(),
		},
	}

	if s.monitor != nil {
		stats.MonitorClients = s.monitor.Clients()
	}
	return stats
}
