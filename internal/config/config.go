package config

import (
	"log"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port                  string
	Env                   string
	ServerRequestTimeout  time.Duration
	ServerShutdownTimeout time.Duration

	// Database
	DatabaseURL            string
	DatabaseMaxConnections int

	// Redis (optional, wakes the cache worker)
	RedisURL string

	// CORS
	AllowedOrigins []string

	// Storage
	StorageBackend     string // local or s3
	StorageUploadDir   string
	StorageMaxFileSize int64
	S3Endpoint         string
	S3Region           string
	S3Bucket           string
	S3AccessKey        string
	S3SecretKey        string

	// Cache
	CacheEnabled         bool
	CacheDir             string
	CacheMaxAge          int // seconds, Cache-Control max-age
	CacheMaxEntries      int
	CacheMaxSize         int64
	CacheMaxCacheAge     time.Duration
	CacheCleanupInterval time.Duration
	CacheDecayFactor     float64
	CacheMinHeatScore    float64
	CacheSpaceThreshold  float64
	CacheWorkerEmbedded  bool // false when cmd/cache-worker runs the loop

	// Transform
	TransformWorkers int

	// Admin
	AdminJWTSecret    string
	AdminPasswordHash string
	AdminTokenTTL     time.Duration

	// Logging
	LogLevel string
	LogFile  string
}

func Load() *Config {
	// Load .env file in development
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		// Server
		Port:                  getEnv("PORT", "3000"),
		Env:                   getEnv("ENV", "development"),
		ServerRequestTimeout:  parseDuration(getEnv("SERVER_REQUEST_TIMEOUT", "60s"), 60*time.Second),
		ServerShutdownTimeout: parseDuration(getEnv("SERVER_SHUTDOWN_TIMEOUT", "30s"), 30*time.Second),

		// Database
		DatabaseURL:            getEnv("DATABASE_URL", "sqlite://data/rifs.db"),
		DatabaseMaxConnections: parseInt(getEnv("DATABASE_MAX_CONNECTIONS", "10"), 10),

		// Redis
		RedisURL: getEnv("REDIS_URL", ""),

		// CORS
		AllowedOrigins: parseStringSlice(getEnv("ALLOWED_ORIGINS", "*")),

		// Storage
		StorageBackend:     strings.ToLower(getEnv("STORAGE_BACKEND", "local")),
		StorageUploadDir:   getEnv("STORAGE_UPLOAD_DIR", "uploads"),
		StorageMaxFileSize: parseBytes(getEnv("STORAGE_MAX_FILE_SIZE", "10MB"), 10*1000*1000),
		S3Endpoint:         getEnv("S3_ENDPOINT", ""),
		S3Region:           getEnv("S3_REGION", "us-east-1"),
		S3Bucket:           getEnv("S3_BUCKET", "rifs-originals"),
		S3AccessKey:        getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:        getEnv("S3_SECRET_KEY", ""),

		// Cache
		CacheEnabled:         parseBool(getEnv("CACHE_ENABLED", "true"), true),
		CacheDir:             getEnv("CACHE_DIR", "cache"),
		CacheMaxAge:          parseInt(getEnv("CACHE_MAX_AGE", "31536000"), 31536000),
		CacheMaxEntries:      parseInt(getEnv("CACHE_MAX_ENTRIES", "1000"), 1000),
		CacheMaxSize:         parseBytes(getEnv("CACHE_MAX_SIZE", "100MB"), 100*1000*1000),
		CacheMaxCacheAge:     parseDuration(getEnv("CACHE_MAX_CACHE_AGE", "3600s"), time.Hour),
		CacheCleanupInterval: parseDuration(getEnv("CACHE_CLEANUP_INTERVAL", "3600s"), time.Hour),
		CacheDecayFactor:     parseFraction(getEnv("CACHE_DECAY_FACTOR", "0.9"), 0.9, false),
		CacheMinHeatScore:    parseFloat(getEnv("CACHE_MIN_HEAT_SCORE", "0.1"), 0.1),
		CacheSpaceThreshold:  parseFraction(getEnv("CACHE_SPACE_THRESHOLD", "0.8"), 0.8, true),
		CacheWorkerEmbedded:  parseBool(getEnv("CACHE_WORKER_EMBEDDED", "true"), true),

		// Transform
		TransformWorkers: parseInt(getEnv("TRANSFORM_WORKERS", strconv.Itoa(runtime.GOMAXPROCS(0))), runtime.GOMAXPROCS(0)),

		// Admin
		AdminJWTSecret:    getEnv("ADMIN_JWT_SECRET", ""),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		AdminTokenTTL:     parseDuration(getEnv("ADMIN_TOKEN_TTL", "12h"), 12*time.Hour),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// parseDuration accepts Go durations ("90s", "1h") and bare integers as seconds.
func parseDuration(s string, defaultValue time.Duration) time.Duration {
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		if n <= 0 {
			return defaultValue
		}
		return time.Duration(n) * time.Second
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

// parseBytes accepts "100MB", "10 MiB" or a bare byte count.
func parseBytes(s string, defaultValue int64) int64 {
	n, err := humanize.ParseBytes(s)
	if err != nil || n == 0 {
		return defaultValue
	}
	return int64(n)
}

func parseBool(s string, defaultValue bool) bool {
	value, err := strconv.ParseBool(s)
	if err != nil {
		return defaultValue
	}
	return value
}

func parseInt(s string, defaultValue int) int {
	value, err := strconv.Atoi(s)
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}

func parseFloat(s string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// parseFraction accepts values in (0,1), or (0,1] when allowOne is set.
func parseFraction(s string, defaultValue float64, allowOne bool) float64 {
	value := parseFloat(s, defaultValue)
	if value <= 0 || value > 1 || (value == 1 && !allowOne) {
		return defaultValue
	}
	return value
}

func parseStringSlice(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// AdminEnabled reports whether admin endpoints require a token.
func (c *Config) AdminEnabled() bool {
	return c.AdminJWTSecret != ""
}
