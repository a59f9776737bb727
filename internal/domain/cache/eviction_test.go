package cache

import (
	"context"
	"math"
	"reflect"
	"testing"
	"time"
)

func TestAutoCleanupBelowThreshold(t *testing.T) {
	t.Parallel()

	svc, repo, files := setupService(t, defaultSettings())
	ctx := context.Background()

	// cold but the cache is nearly empty, so nothing may go
	seedEntry(t, repo, files, 1, 300, 1, testNow.Add(-100*time.Hour), testNow.Add(-100*time.Hour))

	result, err := svc.AutoCleanup(ctx)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if result.CleanedCount != 0 || result.FreedSpace != 0 {
		t.Fatalf("expected no deletions, got %+v", result)
	}
	if !reflect.DeepEqual(result.AppliedPolicies, []string{"no cleanup needed"}) {
		t.Fatalf("unexpected policies %v", result.AppliedPolicies)
	}
	if usage, _ := repo.Stats(ctx); usage.Count != 1 {
		t.Fatalf("expected the entry to survive, got %d rows", usage.Count)
	}
}

func TestAutoCleanupTiers(t *testing.T) {
	t.Parallel()

	svc, repo, files := setupService(t, defaultSettings())
	ctx := context.Background()

	var events []Event
	svc.Subscribe(func(ev Event) { events = append(events, ev) })

	// with decay 0.5: zero ~ 0, cold 0.1*0.5^5, cool 0.1*0.5^2, hot 10
	zero := seedEntry(t, repo, files, 1, 300, 1, testNow.Add(-100*time.Hour), testNow.Add(-100*time.Hour))
	cold := seedEntry(t, repo, files, 2, 300, 1, testNow.Add(-10*time.Hour), testNow.Add(-5*time.Hour))
	cool := seedEntry(t, repo, files, 3, 300, 1, testNow.Add(-10*time.Hour), testNow.Add(-2*time.Hour))
	hot := seedEntry(t, repo, files, 4, 300, 10, testNow.Add(-time.Hour), testNow)

	result, err := svc.AutoCleanup(ctx)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	// 1200/1000 over 0.8; zero heat frees 300 leaving 900, still over 0.8, so low heat
	// evicts the coldest until usage <= 1000*0.8*0.9 = 720
	want := []string{"heat decay: 4", "zero heat: 1", "low heat: 1"}
	if !reflect.DeepEqual(result.AppliedPolicies, want) {
		t.Fatalf("policies = %v, want %v", result.AppliedPolicies, want)
	}
	if result.CleanedCount != 2 || result.FreedSpace != 600 {
		t.Fatalf("unexpected result %+v", result)
	}

	for _, e := range []*Entry{zero, cold} {
		if row, _ := repo.FindByKey(ctx, e.CacheKey); row != nil {
			t.Fatalf("entry %s should have been evicted", e.CacheKey)
		}
		if ok, _ := files.Exists(ctx, e.FilePath); ok {
			t.Fatalf("file %s should have been removed", e.FilePath)
		}
	}
	for _, e := range []*Entry{cool, hot} {
		if row, _ := repo.FindByKey(ctx, e.CacheKey); row == nil {
			t.Fatalf("entry %s should have survived", e.CacheKey)
		}
	}

	if len(events) != 1 || events[0].Type != EventCleanup {
		t.Fatalf("expected a cleanup event, got %+v", events)
	}
}

func TestAutoCleanupKeepsHotEntries(t *testing.T) {
	t.Parallel()

	svc, repo, files := setupService(t, defaultSettings())
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		seedEntry(t, repo, files, i, 400, 10, testNow.Add(-time.Hour), testNow)
	}

	result, err := svc.AutoCleanup(ctx)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if result.CleanedCount != 0 {
		t.Fatalf("hot entries must never be evicted, got %+v", result)
	}
	if usage, _ := repo.Stats(ctx); usage.Count != 3 {
		t.Fatalf("expected 3 rows, got %d", usage.Count)
	}
}

func TestAutoCleanupIgnoresEntryCountBelowThreshold(t *testing.T) {
	t.Parallel()

	settings := defaultSettings()
	settings.MaxEntries = 2
	svc, repo, files := setupService(t, settings)
	ctx := context.Background()

	// 30 bytes of 1000 is far below 0.8 even though the count is over MaxEntries
	seedEntry(t, repo, files, 1, 10, 1, testNow.Add(-10*time.Hour), testNow.Add(-5*time.Hour))
	seedEntry(t, repo, files, 2, 10, 1, testNow.Add(-10*time.Hour), testNow.Add(-2*time.Hour))
	seedEntry(t, repo, files, 3, 10, 10, testNow.Add(-time.Hour), testNow)

	result, err := svc.AutoCleanup(ctx)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if result.CleanedCount != 0 || result.FreedSpace != 0 {
		t.Fatalf("expected no deletions, got %+v", result)
	}
	if !reflect.DeepEqual(result.AppliedPolicies, []string{"no cleanup needed"}) {
		t.Fatalf("unexpected policies %v", result.AppliedPolicies)
	}
	if usage, _ := repo.Stats(ctx); usage.Count != 3 {
		t.Fatalf("expected all 3 rows to survive, got %d", usage.Count)
	}
}

func TestAutoCleanupStopsAfterZeroHeatWhenTargetMet(t *testing.T) {
	t.Parallel()

	svc, repo, files := setupService(t, defaultSettings())
	ctx := context.Background()

	// 900/1000 is over 0.8; dropping the zero-heat entry leaves 400
	zero := seedEntry(t, repo, files, 1, 500, 1, testNow.Add(-100*time.Hour), testNow.Add(-100*time.Hour))
	// 1 access over 10h, idle 1h at 0.5: heat 0.05, under MinHeatScore
	low := seedEntry(t, repo, files, 2, 200, 1, testNow.Add(-10*time.Hour), testNow.Add(-time.Hour))
	hot := seedEntry(t, repo, files, 3, 200, 10, testNow.Add(-time.Hour), testNow)

	result, err := svc.AutoCleanup(ctx)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	want := []string{"heat decay: 3", "zero heat: 1"}
	if !reflect.DeepEqual(result.AppliedPolicies, want) {
		t.Fatalf("policies = %v, want %v", result.AppliedPolicies, want)
	}
	if result.CleanedCount != 1 || result.FreedSpace != 500 {
		t.Fatalf("unexpected result %+v", result)
	}
	if row, _ := repo.FindByKey(ctx, zero.CacheKey); row != nil {
		t.Fatal("zero-heat entry should have been evicted")
	}
	row, _ := repo.FindByKey(ctx, low.CacheKey)
	if row == nil {
		t.Fatal("low-heat entry should survive once usage is back under the threshold")
	}
	if math.Abs(row.HeatScore-0.05) > 1e-9 {
		t.Fatalf("expected heat 0.05, got %v", row.HeatScore)
	}
	if row, _ := repo.FindByKey(ctx, hot.CacheKey); row == nil {
		t.Fatal("hot entry should have survived")
	}
}

func TestDecayAllPersistsOnlyMeaningfulChanges(t *testing.T) {
	t.Parallel()

	svc, repo, files := setupService(t, defaultSettings())
	ctx := context.Background()

	// heat recomputes to exactly 1.0, same as stored
	steady := seedEntry(t, repo, files, 1, 10, 1, testNow, testNow)
	// 1 access over 4h, idle 2h at 0.5: 0.0625
	cooling := seedEntry(t, repo, files, 2, 10, 1, testNow.Add(-4*time.Hour), testNow.Add(-2*time.Hour))

	updated, err := svc.DecayAll(ctx)
	if err != nil {
		t.Fatalf("decay: %v", err)
	}
	if updated != 1 {
		t.Fatalf("expected one update, got %d", updated)
	}

	row, _ := repo.FindByKey(ctx, cooling.CacheKey)
	if row.HeatScore != 0.0625 {
		t.Fatalf("expected heat 0.0625, got %v", row.HeatScore)
	}
	row, _ = repo.FindByKey(ctx, steady.CacheKey)
	if row.HeatScore != 1.0 {
		t.Fatalf("expected heat 1.0, got %v", row.HeatScore)
	}
}
