package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rifs/rifs-api/internal/config"
	"github.com/rifs/rifs-api/internal/pkg/imaging"
	"github.com/rifs/rifs-api/internal/pkg/logger"
	"github.com/rifs/rifs-api/internal/pkg/storage"
)

const (
	zeroHeatEpsilon   = 0.001
	tier2SafetyMargin = 0.9
	staleEntriesShown = 10
	fallbackExtension = "cache"
)

// Settings are the cache knobs taken from config
type Settings struct {
	Enabled        bool
	MaxSize        int64
	MaxEntries     int
	MaxCacheAge    time.Duration
	DecayFactor    float64
	MinHeatScore   float64
	SpaceThreshold float64
}

// SettingsFromConfig copies the cache section of cfg
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		Enabled:        cfg.CacheEnabled,
		MaxSize:        cfg.CacheMaxSize,
		MaxEntries:     cfg.CacheMaxEntries,
		MaxCacheAge:    cfg.CacheMaxCacheAge,
		DecayFactor:    cfg.CacheDecayFactor,
		MinHeatScore:   cfg.CacheMinHeatScore,
		SpaceThreshold: cfg.CacheSpaceThreshold,
	}
}

// Service stores transform results on disk with their metadata in the database
type Service struct {
	repo     Repository
	files    *storage.LocalStorage
	settings Settings
	now      func() time.Time

	mu        sync.RWMutex
	listeners []func(Event)
}

// NewService creates cache service
func NewService(repo Repository, files *storage.LocalStorage, settings Settings) *Service {
	return &Service{
		repo:     repo,
		files:    files,
		settings: settings,
		now:      time.Now,
	}
}

// Enabled reports whether new results are written to the cache
func (s *Service) Enabled() bool {
	return s.settings.Enabled
}

// Subscribe registers fn to receive cache events
func (s *Service) Subscribe(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Service) publish(eventType EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners
	s.mu.RUnlock()

	ev := Event{Type: eventType, Data: data, Time: s.now().UTC()}
	for _, fn := range listeners {
		fn(ev)
	}
}

// Key derives the cache key of a transform: hex sha256 of "<hash>:<canonical params>"
func Key(hash string, params imaging.Params) string {
	sum := sha256.Sum256([]byte(hash + ":" + params.Normalized()))
	return hex.EncodeToString(sum[:])
}

func extensionFor(mime string) string {
	if f, ok := imaging.FormatFromMime(mime); ok {
		return f.Extension()
	}
	return fallbackExtension
}

// Lookup returns the entry for key, or nil on a miss. A row whose file has gone
// missing is deleted and reported as a miss.
func (s *Service) Lookup(ctx context.Context, key string) (*Entry, error) {
	entry, err := s.repo.FindByKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to look up cache entry: %w", err)
	}
	if entry == nil {
		return nil, nil
	}

	exists, err := s.files.Exists(ctx, entry.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat cache file: %w", err)
	}
	if !exists {
		s.dropStale(ctx, entry)
		return nil, nil
	}
	return entry, nil
}

func (s *Service) dropStale(ctx context.Context, entry *Entry) {
	logger.FromContext(ctx).Warn().
		Str("cache_key", entry.CacheKey).
		Str("file_path", entry.FilePath).
		Msg("Cache file missing, dropping stale entry")
	if err := s.repo.DeleteByKey(ctx, entry.CacheKey); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Str("cache_key", entry.CacheKey).Msg("Failed to delete stale cache entry")
	}
}

// Put writes a transform result and records it with a fresh heat of 1.0
func (s *Service) Put(ctx context.Context, hash string, params imaging.Params, data []byte, mime string) (*Entry, error) {
	if !s.settings.Enabled {
		return nil, ErrCacheDisabled
	}

	key := Key(hash, params)
	filePath, err := storage.ShardedKey(key, extensionFor(mime))
	if err != nil {
		return nil, err
	}

	if err := s.files.Put(ctx, filePath, data, mime); err != nil {
		return nil, fmt.Errorf("failed to write cache file: %w", err)
	}

	now := s.now().UTC().Truncate(time.Microsecond)
	entry := &Entry{
		CacheKey:     key,
		OriginalHash: hash,
		Params:       params.Normalized(),
		FilePath:     filePath,
		MimeType:     mime,
		FileSize:     int64(len(data)),
		CreatedAt:    now,
		LastAccessed: now,
		AccessCount:  1,
		HeatScore:    1.0,
	}

	if err := s.repo.Insert(ctx, entry); err != nil {
		if derr := s.files.Delete(ctx, filePath); derr != nil {
			log.Error().Err(derr).Str("cache_key", key).Msg("Failed to remove orphaned cache file")
		}
		return nil, err
	}

	logger.FromContext(ctx).Debug().
		Str("cache_key", key).
		Str("hash", hash).
		Str("params", entry.Params).
		Str("size", logger.Bytes(entry.FileSize)).
		Msg("Transform cached")

	return entry, nil
}

// Read returns the cached bytes and records the access
func (s *Service) Read(ctx context.Context, entry *Entry) ([]byte, error) {
	data, err := s.files.Get(ctx, entry.FilePath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			s.dropStale(ctx, entry)
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}

	now := s.now().UTC()
	heat := HeatScore(entry.AccessCount+1, entry.CreatedAt, now, now, s.settings.DecayFactor)
	if err := s.repo.UpdateAccess(ctx, entry.CacheKey, now, heat); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Str("cache_key", entry.CacheKey).Msg("Failed to update cache access stats")
	} else {
		entry.AccessCount++
		entry.LastAccessed = now
		entry.HeatScore = heat
	}

	return data, nil
}

// RemoveByOriginal deletes every cached transform of an original, files first
func (s *Service) RemoveByOriginal(ctx context.Context, hash string) (int, error) {
	entries, err := s.repo.ListByOriginalHash(ctx, hash)
	if err != nil {
		return 0, fmt.Errorf("failed to list cache entries: %w", err)
	}

	for _, e := range entries {
		if err := s.files.Delete(ctx, e.FilePath); err != nil {
			log.Warn().Err(err).Str("cache_key", e.CacheKey).Msg("Failed to delete cache file")
		}
	}

	n, err := s.repo.DeleteByOriginalHash(ctx, hash)
	if err != nil {
		return 0, fmt.Errorf("failed to delete cache entries: %w", err)
	}

	if n > 0 {
		s.publish(EventInvalidated, map[string]interface{}{"hash": hash, "removed": n})
	}
	return int(n), nil
}

// ClearAll drops every entry and recreates an empty cache directory
func (s *Service) ClearAll(ctx context.Context) (*CleanupResult, error) {
	start := time.Now()

	usage, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, err
	}
	n, err := s.repo.ClearAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to clear cache entries: %w", err)
	}
	if err := s.files.Reset(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to reset cache directory")
	}

	result := &CleanupResult{
		CleanedCount:    int(n),
		FreedSpace:      usage.TotalSize,
		AppliedPolicies: []string{"clear all"},
		DurationMs:      time.Since(start).Milliseconds(),
	}

	log.Info().
		Int("cleaned", result.CleanedCount).
		Str("freed", logger.Bytes(result.FreedSpace)).
		Msg("Cache cleared")

	s.publish(EventCleanup, result)
	return result, nil
}

func hitRate(u *Usage) float64 {
	total := u.TotalAccesses + u.Count
	if total == 0 {
		return 0
	}
	return float64(u.TotalAccesses) / float64(total)
}

// Stats reports cache usage against the configured limits
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	usage, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		Enabled:        s.settings.Enabled,
		TotalEntries:   usage.Count,
		TotalSize:      usage.TotalSize,
		TotalSizeHuman: logger.Bytes(usage.TotalSize),
		AverageHeat:    usage.AverageHeat,
		TotalAccesses:  usage.TotalAccesses,
		HitRate:        hitRate(usage),
		MaxSize:        s.settings.MaxSize,
		MaxEntries:     s.settings.MaxEntries,
		UsageRatio:     s.usageRatio(usage.TotalSize),
		SpaceThreshold: s.settings.SpaceThreshold,
	}
	if usage.Count > 0 {
		stats.AverageSize = usage.TotalSize / usage.Count
	}

	if s.settings.MaxCacheAge > 0 {
		stale, err := s.repo.FindCleanupCandidates(ctx, s.now().UTC().Add(-s.settings.MaxCacheAge), staleEntriesShown)
		if err != nil {
			return nil, fmt.Errorf("failed to list stale cache entries: %w", err)
		}
		stats.StaleEntries = stale
	}
	if stats.StaleEntries == nil {
		stats.StaleEntries = []*Entry{}
	}

	files, bytes, err := s.files.DiskUsage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to measure cache directory: %w", err)
	}
	stats.DiskFiles = files
	stats.DiskBytes = bytes

	return stats, nil
}

func (s *Service) usageRatio(totalSize int64) float64 {
	if s.settings.MaxSize <= 0 {
		return 0
	}
	return float64(totalSize) / float64(s.settings.MaxSize)
}
