package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/rifs/rifs-api/internal/config"
	"github.com/rifs/rifs-api/internal/domain/admin"
	"github.com/rifs/rifs-api/internal/domain/cache"
	"github.com/rifs/rifs-api/internal/domain/image"
	"github.com/rifs/rifs-api/internal/domain/system"
	"github.com/rifs/rifs-api/internal/domain/transform"
	"github.com/rifs/rifs-api/internal/middleware"
	"github.com/rifs/rifs-api/internal/pkg/imaging"
	"github.com/rifs/rifs-api/internal/pkg/jwt"
	"github.com/rifs/rifs-api/internal/pkg/storage"
)

// app holds the wired services of one API process
type app struct {
	cfg *config.Config

	imageSvc     *image.Service
	cacheSvc     *cache.Service
	transformSvc *transform.Service
	monitor      *cache.Monitor
	worker       *cache.Worker

	imageHandler     *image.Handler
	transformHandler *transform.Handler
	cacheHandler     *cache.Handler
	adminHandler     *admin.Handler
	systemHandler    *system.Handler

	adminAuth func(http.Handler) http.Handler
}

// newApp wires repositories, storage and services. redisClient may be nil.
func newApp(ctx context.Context, cfg *config.Config, db *sqlx.DB, redisClient *redis.Client) (*app, error) {
	originals, err := newOriginalStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("originals storage: %w", err)
	}

	cacheFiles, err := storage.NewLocalStorage(cfg.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("cache storage: %w", err)
	}

	// ---------- Services ----------
	imageSvc := image.NewService(image.NewRepository(db), originals, cfg.StorageMaxFileSize)
	cacheSvc := cache.NewService(cache.NewRepository(db), cacheFiles, cache.SettingsFromConfig(cfg))
	imageSvc.SetInvalidator(cacheSvc)

	processor := imaging.NewProcessor(imaging.DefaultConfig())
	transformSvc := transform.NewService(imageSvc, cacheSvc, processor, cfg.TransformWorkers)

	monitor := cache.NewMonitor(redisClient, cfg.AllowedOrigins)
	cacheSvc.Subscribe(monitor.Publish)

	var jwtService *jwt.Service
	if cfg.AdminEnabled() {
		jwtService = jwt.NewService(cfg.AdminJWTSecret, cfg.AdminTokenTTL)
	} else {
		log.Warn().Msg("ADMIN_JWT_SECRET not set, admin endpoints are open")
	}

	systemSvc := system.NewService(db, redisClient, originals, cacheFiles, cfg, monitor)

	return &app{
		cfg:          cfg,
		imageSvc:     imageSvc,
		cacheSvc:     cacheSvc,
		transformSvc: transformSvc,
		monitor:      monitor,
		worker:       cache.NewWorker(cacheSvc, cfg.CacheCleanupInterval, redisClient),

		imageHandler:     image.NewHandler(imageSvc, cfg.StorageMaxFileSize),
		transformHandler: transform.NewHandler(transformSvc, cfg.CacheMaxAge),
		cacheHandler:     cache.NewHandler(cacheSvc, monitor, redisClient),
		adminHandler:     admin.NewHandler(admin.NewService(cfg.AdminPasswordHash, jwtService)),
		systemHandler:    system.NewHandler(systemSvc),

		adminAuth: middleware.AdminAuth(jwtService),
	}, nil
}

func newOriginalStore(ctx context.Context, cfg *config.Config) (storage.ObjectStore, error) {
	switch cfg.StorageBackend {
	case "s3":
		return storage.NewS3Storage(ctx, storage.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	case "local", "":
		return storage.NewLocalStorage(cfg.StorageUploadDir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// start runs the background loops
func (a *app) start() {
	go a.monitor.Run()
	if a.runsWorker() {
		a.worker.Start()
	}
}

// stop halts background loops; safe after start only
func (a *app) stop() {
	if a.runsWorker() {
		a.worker.Stop()
	}
	a.monitor.Close()
}

func (a *app) runsWorker() bool {
	return a.cacheSvc.Enabled() && a.cfg.CacheWorkerEmbedded
}

func (a *app) router() chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(a.cfg.AllowedOrigins))
	r.Use(middleware.Timeout(a.cfg.ServerRequestTimeout))
	r.Use(chimw.Compress(5, "application/json", "text/plain"))

	r.Get("/health", a.systemHandler.Health)
	r.Get("/api/v1/ping", a.systemHandler.Ping)

	r.Post("/upload", a.imageHandler.Upload)
	r.Mount("/images", a.imageHandler.Routes(a.transformHandler.Serve))

	r.Route("/api", func(r chi.Router) {
		r.Mount("/images", a.imageHandler.APIRoutes())
		r.Get("/stats", a.imageHandler.Stats)

		r.Mount("/cache", a.cacheHandler.Routes(a.adminAuth))
		r.Mount("/admin", a.adminHandler.Routes())
		r.Mount("/system", system.Routes(a.systemHandler, a.adminAuth))
	})

	return r
}
