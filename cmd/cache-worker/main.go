package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/rifs/rifs-api/internal/config"
	"github.com/rifs/rifs-api/internal/domain/cache"
	"github.com/rifs/rifs-api/internal/pkg/database"
	"github.com/rifs/rifs-api/internal/pkg/logger"
	"github.com/rifs/rifs-api/internal/pkg/storage"
)

func main() {
	cfg := config.Load()
	if err := logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Env,
		LogFile:     cfg.LogFile,
	}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := newRootCmd(cfg).Execute(); err != nil {
		log.Error().Err(err).Msg("cache-worker failed")
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:           "cache-worker",
		Short:         "Run heat decay and cache cleanup against the shared database and cache directory",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cfg, once)
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "run a single pass, then exit")
	return cmd
}

func run(ctx context.Context, cfg *config.Config, once bool) error {
	log.Info().
		Dur("interval", cfg.CacheCleanupInterval).
		Str("cache_dir", cfg.CacheDir).
		Bool("once", once).
		Msg("Starting cache-worker")

	if !cfg.CacheEnabled {
		log.Warn().Msg("CACHE_ENABLED is false, nothing to do")
		return nil
	}

	db, err := database.Open(cfg.DatabaseURL, cfg.DatabaseMaxConnections)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer database.Close(db)

	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	rdb, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer database.CloseRedis(rdb)

	files, err := storage.NewLocalStorage(cfg.CacheDir)
	if err != nil {
		return fmt.Errorf("open cache directory: %w", err)
	}

	svc := cache.NewService(cache.NewRepository(db), files, cache.SettingsFromConfig(cfg))

	// events reach API monitors through Redis; without it they are dropped
	monitor := cache.NewMonitor(rdb, nil)
	defer monitor.Close()
	svc.Subscribe(monitor.Publish)

	worker := cache.NewWorker(svc, cfg.CacheCleanupInterval, rdb)

	if once {
		result := worker.RunOnce()
		if result == nil {
			return fmt.Errorf("cleanup pass failed")
		}
		log.Info().
			Int("cleaned", result.CleanedCount).
			Int64("freed_bytes", result.FreedSpace).
			Strs("policies", result.AppliedPolicies).
			Msg("Cleanup pass finished")
		return nil
	}

	worker.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	select {
	case <-sigChan:
		log.Info().Msg("Shutdown signal received")
	case <-ctx.Done():
	}

	worker.Stop()
	log.Info().Msg("cache-worker stopped")
	return nil
}
