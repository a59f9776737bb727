package cache

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rifs/rifs-api/internal/pkg/logger"
)

// DecayAll recomputes every entry's heat and persists the ones that moved by more
// than zeroHeatEpsilon. Per-row failures are logged and skipped.
func (s *Service) DecayAll(ctx context.Context) (int, error) {
	entries, err := s.repo.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list cache entries: %w", err)
	}

	now := s.now().UTC()
	updated := 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return updated, err
		}

		heat := HeatScore(e.AccessCount, e.CreatedAt, e.LastAccessed, now, s.settings.DecayFactor)
		if math.Abs(heat-e.HeatScore) <= zeroHeatEpsilon {
			continue
		}
		if err := s.repo.UpdateHeat(ctx, e.CacheKey, heat); err != nil {
			log.Warn().Err(err).Str("cache_key", e.CacheKey).Msg("Failed to update heat score")
			continue
		}
		e.HeatScore = heat
		updated++
	}

	log.Debug().Int("updated", updated).Int("total", len(entries)).Msg("Heat decay finished")
	return updated, nil
}

// AutoCleanup evicts entries only when usage reaches the space threshold.
// Tier 1 removes entries with no heat left; tier 2 removes low-heat entries, coldest
// first, until usage falls to MaxSize*SpaceThreshold*0.9. The entry count never starts
// a cleanup on its own.
func (s *Service) AutoCleanup(ctx context.Context) (*CleanupResult, error) {
	start := time.Now()
	result := &CleanupResult{AppliedPolicies: []string{}}

	usage, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, err
	}

	if !s.overThreshold(usage) {
		if s.settings.MaxEntries > 0 && usage.Count > int64(s.settings.MaxEntries) {
			log.Warn().
				Int64("entries", usage.Count).
				Int("max_entries", s.settings.MaxEntries).
				Msg("Cache over entry limit but under space threshold, nothing evicted")
		}
		result.AppliedPolicies = append(result.AppliedPolicies, "no cleanup needed")
		result.DurationMs = time.Since(start).Milliseconds()
		return result, nil
	}

	log.Info().
		Str("size", logger.Bytes(usage.TotalSize)).
		Int64("entries", usage.Count).
		Float64("ratio", s.usageRatio(usage.TotalSize)).
		Msg("Cache over space threshold, starting cleanup")

	decayed, err := s.DecayAll(ctx)
	if err != nil {
		return nil, err
	}
	if decayed > 0 {
		result.AppliedPolicies = append(result.AppliedPolicies, fmt.Sprintf("heat decay: %d", decayed))
	}

	// Tier 1
	cold, err := s.repo.FindLowHeat(ctx, zeroHeatEpsilon, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to find zero-heat entries: %w", err)
	}
	if n, freed := s.evict(ctx, cold); n > 0 {
		result.CleanedCount += n
		result.FreedSpace += freed
		result.AppliedPolicies = append(result.AppliedPolicies, fmt.Sprintf("zero heat: %d", n))
	}

	// Tier 2
	usage, err = s.repo.Stats(ctx)
	if err != nil {
		return nil, err
	}
	if s.overThreshold(usage) {
		n, freed, err := s.evictLowHeat(ctx, usage)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			result.CleanedCount += n
			result.FreedSpace += freed
			result.AppliedPolicies = append(result.AppliedPolicies, fmt.Sprintf("low heat: %d", n))
		}
	}

	result.DurationMs = time.Since(start).Milliseconds()

	log.Info().
		Int("cleaned", result.CleanedCount).
		Str("freed", logger.Bytes(result.FreedSpace)).
		Strs("policies", result.AppliedPolicies).
		Int64("took_ms", result.DurationMs).
		Msg("Cache cleanup finished")

	s.publish(EventCleanup, result)
	return result, nil
}

func (s *Service) overThreshold(u *Usage) bool {
	return s.settings.MaxSize > 0 && s.usageRatio(u.TotalSize) >= s.settings.SpaceThreshold
}

func (s *Service) evictLowHeat(ctx context.Context, usage *Usage) (int, int64, error) {
	candidates, err := s.repo.FindLowHeat(ctx, s.settings.MinHeatScore, 0)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to find low-heat entries: %w", err)
	}

	target := int64(float64(s.settings.MaxSize) * s.settings.SpaceThreshold * tier2SafetyMargin)
	size := usage.TotalSize

	var (
		removed int
		freed   int64
	)
	for _, e := range candidates {
		if size <= target {
			break
		}
		if e.HeatScore <= zeroHeatEpsilon || e.HeatScore >= s.settings.MinHeatScore {
			continue
		}

		n, f := s.evict(ctx, []*Entry{e})
		if n == 0 {
			continue
		}
		removed += n
		freed += f
		size -= e.FileSize
	}

	if size > target {
		log.Warn().
			Str("size", logger.Bytes(size)).
			Str("target", logger.Bytes(target)).
			Msg("Cache still over target, remaining entries are too hot to evict")
	}

	return removed, freed, nil
}

// evict removes files then rows. freed counts only files actually removed.
func (s *Service) evict(ctx context.Context, entries []*Entry) (int, int64) {
	var (
		removed int
		freed   int64
	)
	for _, e := range entries {
		if ctx.Err() != nil {
			break
		}
		fileErr := s.files.Delete(ctx, e.FilePath)
		if fileErr != nil {
			log.Warn().Err(fileErr).Str("cache_key", e.CacheKey).Msg("Failed to delete cache file")
		}
		if err := s.repo.DeleteByKey(ctx, e.CacheKey); err != nil {
			log.Error().Err(err).Str("cache_key", e.CacheKey).Msg("Failed to delete cache entry")
			continue
		}
		if fileErr == nil {
			freed += e.FileSize
		}
		removed++
	}
	return removed, freed
}
