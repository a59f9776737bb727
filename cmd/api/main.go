package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/rifs/rifs-api/internal/config"
	"github.com/rifs/rifs-api/internal/pkg/database"
	"github.com/rifs/rifs-api/internal/pkg/logger"
)

func main() {
	cfg := config.Load()
	if err := logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Env,
		LogFile:     cfg.LogFile,
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize logger")
	}

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Str("storage", cfg.StorageBackend).
		Bool("cache", cfg.CacheEnabled).
		Msg("Starting RIFS API")

	db, err := database.Open(cfg.DatabaseURL, cfg.DatabaseMaxConnections)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close(db)

	ctx := context.Background()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	redis, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redis)

	a, err := newApp(ctx, cfg, db, redis)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	a.start()

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      a.router(),
		ReadTimeout:  cfg.ServerRequestTimeout,
		WriteTimeout: cfg.ServerRequestTimeout + cfg.ServerRequestTimeout/4,
		IdleTimeout:  2 * cfg.ServerRequestTimeout,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	a.stop()

	log.Info().Msg("Server exited properly")
}
