package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers accepted in STORE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	LogLevel  string
	LogFormat string

	StoreDriver string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	SQLitePath string

	ScraperURL       string
	ScraperTimeoutMs int

	MaxConcurrency   int
	RateLimitMs      int
	MaxRetries       int
	ReprocessWorkers int

	// EnvFileLoaded is false when no .env file was found.
	EnvFileLoaded bool
}

// Load reads the .env file, if any, and returns a populated Config struct.
// Variables already set in the process environment win over the file.
func Load(files ...string) *Config {
	loaded := godotenv.Load(files...) == nil

	return &Config{
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "color"),

		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", DriverPostgres)),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "rental"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "rental123"),
		PostgresDB:       getEnv("POSTGRES_DB", "rental_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		SQLitePath: getEnv("SQLITE_PATH", "./data/listings.db"),

		ScraperURL:       strings.TrimRight(getEnv("SCRAPER_URL", "http://localhost:8080"), "/"),
		ScraperTimeoutMs: getEnvInt("SCRAPER_TIMEOUT_MS", 30000),

		MaxConcurrency:   getEnvInt("MAX_CONCURRENCY", 3),
		RateLimitMs:      getEnvInt("RATE_LIMIT_MS", 500),
		MaxRetries:       getEnvInt("MAX_RETRIES", 3),
		ReprocessWorkers: getEnvInt("REPROCESS_WORKERS", 8),

		EnvFileLoaded: loaded,
	}
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverPostgres, DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.MaxConcurrency < 1 {
		return fmt.Errorf("config: MAX_CONCURRENCY must be at least 1, got %d", c.MaxConcurrency)
	}
	if c.ReprocessWorkers < 1 {
		return fmt.Errorf("config: REPROCESS_WORKERS must be at least 1, got %d", c.ReprocessWorkers)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("config: MAX_RETRIES must be at least 1, got %d", c.MaxRetries)
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func (c *Config) ScraperTimeout() time.Duration {
	return time.Duration(c.ScraperTimeoutMs) * time.Millisecond
}

func (c *Config) RateLimit() time.Duration {
	return time.Duration(c.RateLimitMs) * time.Millisecond
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}
