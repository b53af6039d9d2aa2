package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Logging   LoggingConfig   `yaml:"logging"`
	Import    ImportConfig    `yaml:"import"`
	Providers ProvidersConfig `yaml:"providers"`
	Snapshot  SnapshotConfig  `yaml:"snapshot"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level          string `yaml:"level"`
	Format         string `yaml:"format"`
	FilePath       string `yaml:"file_path"`
	FileMaxSizeMB  int    `yaml:"file_max_size_mb"`
	FileMaxFiles   int    `yaml:"file_max_files"`
	FileMaxAgeDays int    `yaml:"file_max_age_days"`
}

// ImportConfig tunes the artist import pipeline.
type ImportConfig struct {
	// Concurrency bounds the per-release detail fetch worker pool.
	Concurrency int `yaml:"concurrency"`
	// PageSize is the limit passed to paginated browse calls.
	PageSize int `yaml:"page_size"`
	// RateLimitBackoff is the fixed sleep between retries after a provider
	// signals rate limiting.
	RateLimitBackoff time.Duration `yaml:"rate_limit_backoff"`
	// ReleaseTypes lists the release-group primary types to import.
	ReleaseTypes []string `yaml:"release_types"`
	// Palette enables cover palette extraction.
	Palette bool `yaml:"palette"`
}

// SnapshotConfig controls the catalog copy taken before each import run.
type SnapshotConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Dir       string `yaml:"dir"` // defaults to "snapshots" beside the database
	Retention int    `yaml:"retention"`
}

// ProvidersConfig holds provider endpoints and credentials.
type ProvidersConfig struct {
	MusicBrainzURL string `yaml:"musicbrainz_url"`
	CoverArtURL    string `yaml:"coverart_url"`
	DiscogsURL     string `yaml:"discogs_url"`
	DiscogsToken   string `yaml:"discogs_token"`
	WikipediaURL   string `yaml:"wikipedia_url"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: "./data/cadence.db",
		},
		Logging: LoggingConfig{
			Level:          "info",
			Format:         "json",
			FileMaxSizeMB:  100,
			FileMaxFiles:   3,
			FileMaxAgeDays: 30,
		},
		Import: ImportConfig{
			Concurrency:      8,
			PageSize:         100,
			RateLimitBackoff: 5 * time.Second,
			ReleaseTypes:     []string{"album", "ep"},
			Palette:          true,
		},
		Snapshot: SnapshotConfig{
			Enabled:   true,
			Retention: 5,
		},
		Providers: ProvidersConfig{
			MusicBrainzURL: "https://musicbrainz.org/ws/2",
			CoverArtURL:    "https://coverartarchive.org",
			DiscogsURL:     "https://api.discogs.com",
			WikipediaURL:   "https://en.wikipedia.org",
		},
	}
}

// Load reads config from a YAML file (if it exists) and overrides with
// environment variables. Environment variables take precedence.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFromFile(path); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) loadFromEnv() error {
	if v := os.Getenv("CADENCE_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("CADENCE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("CADENCE_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("CADENCE_LOG_FILE"); v != "" {
		c.Logging.FilePath = v
	}
	if v := os.Getenv("CADENCE_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CADENCE_CONCURRENCY: %w", err)
		}
		c.Import.Concurrency = n
	}
	if v := os.Getenv("CADENCE_RATE_LIMIT_BACKOFF"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CADENCE_RATE_LIMIT_BACKOFF: %w", err)
		}
		c.Import.RateLimitBackoff = d
	}
	if v := os.Getenv("CADENCE_RELEASE_TYPES"); v != "" {
		var types []string
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				types = append(types, t)
			}
		}
		c.Import.ReleaseTypes = types
	}
	if v := os.Getenv("CADENCE_SNAPSHOT_DIR"); v != "" {
		c.Snapshot.Dir = v
	}
	if v := os.Getenv("CADENCE_DISCOGS_TOKEN"); v != "" {
		c.Providers.DiscogsToken = v
	}
	return nil
}

func (c *Config) validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	if c.Import.Concurrency < 1 {
		return fmt.Errorf("invalid import concurrency: %d", c.Import.Concurrency)
	}
	if c.Import.PageSize < 1 || c.Import.PageSize > 100 {
		return fmt.Errorf("invalid page size: %d (must be 1-100)", c.Import.PageSize)
	}
	if c.Import.RateLimitBackoff <= 0 {
		return fmt.Errorf("rate limit backoff must be positive")
	}
	if c.Snapshot.Retention < 0 {
		return fmt.Errorf("invalid snapshot retention: %d", c.Snapshot.Retention)
	}
	if c.Snapshot.Dir == "" {
		c.Snapshot.Dir = filepath.Join(filepath.Dir(c.Database.Path), "snapshots")
	}
	for i, t := range c.Import.ReleaseTypes {
		c.Import.ReleaseTypes[i] = strings.ToLower(strings.TrimSpace(t))
	}
	c.Providers.MusicBrainzURL = strings.TrimRight(c.Providers.MusicBrainzURL, "/")
	c.Providers.CoverArtURL = strings.TrimRight(c.Providers.CoverArtURL, "/")
	c.Providers.DiscogsURL = strings.TrimRight(c.Providers.DiscogsURL, "/")
	c.Providers.WikipediaURL = strings.TrimRight(c.Providers.WikipediaURL, "/")
	return nil
}
