package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CACHE_MAX_SIZE", "")
	t.Setenv("PORT", "3000")

	cfg := Load()

	if cfg.Port != "3000" {
		t.Fatalf("expected port 3000, got %s", cfg.Port)
	}
	if cfg.CacheMaxSize != 100*1000*1000 {
		t.Fatalf("empty size should fall back to 100MB, got %d", cfg.CacheMaxSize)
	}
	if cfg.TransformWorkers <= 0 {
		t.Fatalf("expected positive worker count, got %d", cfg.TransformWorkers)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CACHE_MAX_SIZE", "10 MiB")
	t.Setenv("CACHE_CLEANUP_INTERVAL", "120")
	t.Setenv("CACHE_MAX_CACHE_AGE", "2h")
	t.Setenv("CACHE_SPACE_THRESHOLD", "0.5")
	t.Setenv("CACHE_ENABLED", "false")
	t.Setenv("CACHE_WORKER_EMBEDDED", "false")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg := Load()

	if cfg.CacheMaxSize != 10*1024*1024 {
		t.Fatalf("expected 10 MiB, got %d", cfg.CacheMaxSize)
	}
	if cfg.CacheCleanupInterval != 2*time.Minute {
		t.Fatalf("bare integers are seconds, got %v", cfg.CacheCleanupInterval)
	}
	if cfg.CacheMaxCacheAge != 2*time.Hour {
		t.Fatalf("expected 2h, got %v", cfg.CacheMaxCacheAge)
	}
	if cfg.CacheSpaceThreshold != 0.5 || cfg.CacheEnabled || cfg.CacheWorkerEmbedded {
		t.Fatalf("unexpected cache settings: %+v", cfg)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins: %v", cfg.AllowedOrigins)
	}
}

func TestLoadRejectsOutOfRangeFractions(t *testing.T) {
	tests := []struct {
		decay, threshold         string
		wantDecay, wantThreshold float64
	}{
		{decay: "1", threshold: "1", wantDecay: 0.9, wantThreshold: 1},
		{decay: "0", threshold: "0", wantDecay: 0.9, wantThreshold: 0.8},
		{decay: "-0.5", threshold: "1.5", wantDecay: 0.9, wantThreshold: 0.8},
		{decay: "1.2", threshold: "-1", wantDecay: 0.9, wantThreshold: 0.8},
		{decay: "0.5", threshold: "0.95", wantDecay: 0.5, wantThreshold: 0.95},
	}

	for _, tt := range tests {
		t.Run(tt.decay+"_"+tt.threshold, func(t *testing.T) {
			t.Setenv("CACHE_DECAY_FACTOR", tt.decay)
			t.Setenv("CACHE_SPACE_THRESHOLD", tt.threshold)

			cfg := Load()

			if cfg.CacheDecayFactor != tt.wantDecay {
				t.Fatalf("decay %s: expected %v, got %v", tt.decay, tt.wantDecay, cfg.CacheDecayFactor)
			}
			if cfg.CacheSpaceThreshold != tt.wantThreshold {
				t.Fatalf("threshold %s: expected %v, got %v", tt.threshold, tt.wantThreshold, cfg.CacheSpaceThreshold)
			}
		})
	}
}

func TestParseDuration(t *testing.T) {
	t.Parallel()

	tests := map[string]time.Duration{
		"3600":  time.Hour,
		"90s":   90 * time.Second,
		"bogus": time.Minute,
		"0":     time.Minute,
		"-5s":   time.Minute,
	}
	for in, want := range tests {
		if got := parseDuration(in, time.Minute); got != want {
			t.Errorf("parseDuration(%q) = %v, want %v", in, got, want)
		}
	}
}
