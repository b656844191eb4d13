package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv   string
	LogLevel string

	// HTTP
	HTTPAddr  string
	JWTSecret string

	// Database
	DatabaseURL      string
	DatabaseDriver   string
	SQLitePath       string
	DatabaseMaxConns int

	// Redis
	RedisURL string

	// RabbitMQ
	RabbitMQURL string

	// Routing service (driving directions)
	RoutingURL     string
	RoutingTimeout time.Duration
	TravelCacheTTL time.Duration

	// Geocoding service
	GeocodingURL     string
	GeocodingTimeout time.Duration
	DefaultLongitude float64
	DefaultLatitude  float64

	// Outbox
	OutboxPollInterval     time.Duration
	OutboxBatchSize        int
	OutboxMaxRetries       int
	OutboxStatsInterval    time.Duration
	OutboxRetentionDays    int
	OutboxCleanupInterval  time.Duration
	OutboxProcessorEnabled bool

	// Worker
	WorkerHealthAddr string

	// Event-driven revalidation window (days ahead to re-check when an
	// availability or directory change arrives)
	RevalidationWindowDays int
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		HTTPAddr:  getEnv("ROTA_HTTP_ADDR", "0.0.0.0:8080"),
		JWTSecret: getEnv("ROTA_JWT_SECRET", ""),

		DatabaseURL:      getEnv("DATABASE_URL", ""),
		DatabaseDriver:   getEnv("DATABASE_DRIVER", "auto"),
		SQLitePath:       getEnv("ROTA_SQLITE_PATH", ""),
		DatabaseMaxConns: getIntEnv("DATABASE_MAX_CONNS", 10),

		RedisURL: getEnv("REDIS_URL", ""),

		RabbitMQURL: getEnv("RABBITMQ_URL", ""),

		RoutingURL:     getEnv("ROTA_ROUTING_URL", ""),
		RoutingTimeout: getDurationEnv("ROTA_ROUTING_TIMEOUT", 5*time.Second),
		TravelCacheTTL: getDurationEnv("ROTA_TRAVEL_CACHE_TTL", 24*time.Hour),

		GeocodingURL:     getEnv("ROTA_GEOCODING_URL", ""),
		GeocodingTimeout: getDurationEnv("ROTA_GEOCODING_TIMEOUT", 5*time.Second),
		DefaultLongitude: getFloatEnv("ROTA_DEFAULT_LONGITUDE", -0.1276),
		DefaultLatitude:  getFloatEnv("ROTA_DEFAULT_LATITUDE", 51.5072),

		OutboxPollInterval:     getDurationEnv("OUTBOX_POLL_INTERVAL", 100*time.Millisecond),
		OutboxBatchSize:        getIntEnv("OUTBOX_BATCH_SIZE", 100),
		OutboxMaxRetries:       getIntEnv("OUTBOX_MAX_RETRIES", 5),
		OutboxStatsInterval:    getDurationEnv("OUTBOX_STATS_INTERVAL", 30*time.Second),
		OutboxRetentionDays:    getIntEnv("OUTBOX_RETENTION_DAYS", 14),
		OutboxCleanupInterval:  getDurationEnv("OUTBOX_CLEANUP_INTERVAL", 24*time.Hour),
		OutboxProcessorEnabled: getBoolEnv("OUTBOX_PROCESSOR_ENABLED", true),

		WorkerHealthAddr: getEnv("WORKER_HEALTH_ADDR", "0.0.0.0:8081"),

		RevalidationWindowDays: getIntEnv("ROTA_REVALIDATION_WINDOW_DAYS", 28),
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// AuthEnabled reports whether the bearer-token middleware should run.
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
