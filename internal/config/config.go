package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sadopc/tempo/internal/store"
)

var ErrInvalidConfig = errors.New("invalid config")

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Config holds application configuration.
type Config struct {
	// Application
	Env       string
	LogLevel  string
	LogFormat string
	LogFile   string

	// Storage
	StoreDriver string
	DBPath      string
	RedisURL    string

	// Circuit breaker around the store
	BreakerFailures int
	BreakerTimeout  time.Duration

	// Timer
	DefaultMinutes int
	TickInterval   time.Duration
	Timezone       string

	// UI
	NoticeTTL time.Duration
	Bell      bool
}

// Load reads configuration from the environment, after loading a .env file
// from the working directory when one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:       getEnv("TEMPO_ENV", "development"),
		LogLevel:  getEnv("TEMPO_LOG_LEVEL", "info"),
		LogFormat: getEnv("TEMPO_LOG_FORMAT", "text"),
		LogFile:   getEnv("TEMPO_LOG_FILE", defaultLogFile()),

		StoreDriver: getEnv("TEMPO_STORE", DriverSQLite),
		DBPath:      getEnv("TEMPO_DB_PATH", defaultDBPath()),
		RedisURL:    getEnv("TEMPO_REDIS_URL", "redis://localhost:6379/0"),

		BreakerFailures: getIntEnv("TEMPO_BREAKER_FAILURES", 3),
		BreakerTimeout:  getDurationEnv("TEMPO_BREAKER_TIMEOUT", 30*time.Second),

		DefaultMinutes: getIntEnv("TEMPO_DEFAULT_MINUTES", 25),
		TickInterval:   getDurationEnv("TEMPO_TICK_INTERVAL", time.Second),
		Timezone:       getEnv("TEMPO_TIMEZONE", ""),

		NoticeTTL: getDurationEnv("TEMPO_NOTICE_TTL", 5*time.Second),
		Bell:      getBoolEnv("TEMPO_BELL", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the application cannot run with.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverSQLite, DriverRedis, DriverMemory:
	default:
		return fmt.Errorf("%w: unknown store driver %q", ErrInvalidConfig, c.StoreDriver)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.LogFormat)
	}
	if c.BreakerFailures < 1 {
		return fmt.Errorf("%w: breaker failures must be positive", ErrInvalidConfig)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("%w: tick interval must be positive", ErrInvalidConfig)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Location is the time zone that sessions are bucketed by. An empty
// Timezone means the local zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
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

func defaultDBPath() string {
	path, err := store.DefaultDBPath()
	if err != nil {
		return "tempo.db"
	}
	return path
}

func defaultLogFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "tempo.log"
	}
	return filepath.Join(dir, "tempo", "tempo.log")
}
