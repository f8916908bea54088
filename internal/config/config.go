// Package config contains everything related to configuration
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	APIBaseURL        string
	APITimeout        time.Duration
	DatabasePath      string
	ViewsPath         string
	LogFile           string
	LogLevel          string
	LinkBase          string
	MetricsAddr       string
	SearchDebounce    time.Duration
	SnapshotInterval  time.Duration
	DefaultBucketSize float64
	TopWords          int
	Notify            bool
}

// Default values
const (
	defaultAPIBaseURL       = "http://localhost:8000"
	defaultAPITimeout       = 10 * time.Second
	defaultLinkBase         = "http://localhost:5173/"
	defaultSearchDebounce   = 300 * time.Millisecond
	defaultSnapshotInterval = 5 * time.Minute
	defaultBucketSize       = 10.0
	defaultTopWords         = 10
	maxTopWords             = 100
	defaultLogLevel         = "info"
)

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	// Try loading .env from multiple locations
	envPaths := getEnvPaths()
	for _, path := range envPaths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	cfg := &Config{
		APIBaseURL:        getEnvString("BOOKS_API_URL", defaultAPIBaseURL),
		APITimeout:        getEnvDuration("API_TIMEOUT", defaultAPITimeout),
		DatabasePath:      getEnvString("DATABASE_PATH", getDefaultPath("snapshots.db")),
		ViewsPath:         getEnvString("VIEWS_PATH", getDefaultPath("views.json")),
		LogFile:           getEnvString("LOG_FILE", getDefaultPath("bookdash.log")),
		LogLevel:          getEnvString("LOG_LEVEL", defaultLogLevel),
		LinkBase:          getEnvString("LINK_BASE", defaultLinkBase),
		MetricsAddr:       getEnvString("METRICS_ADDR", ""),
		SearchDebounce:    getEnvDuration("SEARCH_DEBOUNCE", defaultSearchDebounce),
		SnapshotInterval:  getEnvDuration("SNAPSHOT_INTERVAL", defaultSnapshotInterval),
		DefaultBucketSize: getEnvFloat("DEFAULT_BUCKET_SIZE", defaultBucketSize),
		TopWords:          getEnvInt("TOP_WORDS", defaultTopWords),
		Notify:            getEnvBool("NOTIFY", true),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Ensure database directory exists
	if err := ensureDir(filepath.Dir(cfg.DatabasePath)); err != nil {
		return nil, err
	}

	// Ensure views directory exists
	if err := ensureDir(filepath.Dir(cfg.ViewsPath)); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("BOOKS_API_URL must be an absolute URL, got %q", c.APIBaseURL)
	}
	if c.DefaultBucketSize <= 0 {
		return fmt.Errorf("DEFAULT_BUCKET_SIZE must be positive, got %v", c.DefaultBucketSize)
	}
	if c.TopWords < 1 || c.TopWords > maxTopWords {
		return fmt.Errorf("TOP_WORDS must be between 1 and %d, got %d", maxTopWords, c.TopWords)
	}
	if c.SearchDebounce < 0 || c.SnapshotInterval < 0 {
		return fmt.Errorf("SEARCH_DEBOUNCE and SNAPSHOT_INTERVAL must not be negative")
	}
	return nil
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	// Current directory
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	// Home directory locations
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "bookdash", ".env"),
			filepath.Join(home, ".bookdash", ".env"),
		)
	}

	// Parent directories (useful for development)
	if cwd, err := os.Getwd(); err == nil {
		parent := filepath.Dir(cwd)
		paths = append(paths, filepath.Join(parent, ".env"))
	}

	return paths
}

// getDefaultPath returns name inside the bookdash config directory.
func getDefaultPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(home, ".config", "bookdash", name)
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "30s", "1m", "500ms".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// Try parsing as seconds if no unit specified
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
