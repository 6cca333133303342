package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration.
type Config struct {
	// Card database API configuration
	API APIConfig `toml:"api"`

	// Lookup queue configuration
	Queue QueueConfig `toml:"queue"`

	// Card cache configuration
	Cache CacheConfig `toml:"cache"`

	// Persistent store configuration
	Storage StorageConfig `toml:"storage"`

	// Rendering configuration
	Render RenderConfig `toml:"render"`

	// Application configuration
	App AppConfig `toml:"app"`
}

// APIConfig contains card database API settings.
type APIConfig struct {
	BaseURL   string  `toml:"base_url"`   // Card database API root
	RateLimit float64 `toml:"rate_limit"` // Requests per second
	Timeout   string  `toml:"timeout"`    // HTTP client timeout (e.g., "30s")
	UserAgent string  `toml:"user_agent"` // Overrides the default User-Agent
}

// QueueConfig contains request batching settings.
type QueueConfig struct {
	BatchSize     int    `toml:"batch_size"`     // Requests per batch
	MaxConcurrent int    `toml:"max_concurrent"` // Concurrent lookups per batch
	LookupTimeout string `toml:"lookup_timeout"` // Per-name timeout (e.g., "15s")
	BatchDelay    string `toml:"batch_delay"`    // Pause between batches (e.g., "50ms")
}

// CacheConfig contains card cache settings.
type CacheConfig struct {
	Key          string `toml:"key"`           // Store key of the snapshot
	Expiry       string `toml:"expiry"`        // Entry expiry (e.g., "168h")
	MaxEntries   int    `toml:"max_entries"`   // Max cached cards
	SaveInterval string `toml:"save_interval"` // Auto-save interval (e.g., "1m"); "0s" saves only on exit
}

// StorageConfig contains persistent store settings.
type StorageConfig struct {
	Path  string `toml:"path"`  // SQLite file; empty uses the data directory, ":memory:" disables persistence
	Quota int64  `toml:"quota"` // Byte quota of the store (0 = unlimited)
}

// RenderConfig contains post rendering settings.
type RenderConfig struct {
	Sanitize bool   `toml:"sanitize"` // Sanitize post HTML before rendering
	Format   string `toml:"format"`   // Default input format: "html" or "markdown"
}

// AppConfig contains general application settings.
type AppConfig struct {
	DebugMode bool `toml:"debug_mode"` // Enable debug logging
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:   "https://db.ygoprodeck.com/api/v7",
			RateLimit: 15,
			Timeout:   "30s",
		},
		Queue: QueueConfig{
			BatchSize:     20,
			MaxConcurrent: 8,
			LookupTimeout: "15s",
			BatchDelay:    "50ms",
		},
		Cache: CacheConfig{
			Key:          "ygo-cache-v3",
			Expiry:       "168h",
			MaxEntries:   10000,
			SaveInterval: "1m",
		},
		Storage: StorageConfig{
			Path:  "",
			Quota: 5 * 1024 * 1024,
		},
		Render: RenderConfig{
			Sanitize: true,
			Format:   "html",
		},
		App: AppConfig{
			DebugMode: false,
		},
	}
}

// Dir returns the application data directory, creating it if needed.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}

	dir := filepath.Join(homeDir, ".ygo-embed")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}
	return dir, nil
}

// DefaultPath returns the path of the default configuration file.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load loads the configuration from path, or from DefaultPath when path is
// empty. Returns the default config if the file doesn't exist; settings
// missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return config, nil
}

// Save saves the configuration to path, or to DefaultPath when path is
// empty.
func (c *Config) Save(path string) error {
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return err
		}
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	durations := []struct {
		name, value string
	}{
		{"api timeout", c.API.Timeout},
		{"lookup timeout", c.Queue.LookupTimeout},
		{"batch delay", c.Queue.BatchDelay},
		{"cache expiry", c.Cache.Expiry},
		{"cache save interval", c.Cache.SaveInterval},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(d.value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", d.name, d.value, err)
		}
		if v < 0 {
			return fmt.Errorf("%s cannot be negative: %s", d.name, d.value)
		}
	}

	if c.API.BaseURL == "" {
		return errors.New("api base url is required")
	}
	if c.API.RateLimit <= 0 {
		return fmt.Errorf("api rate limit must be positive: %v", c.API.RateLimit)
	}

	if c.Queue.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive: %d", c.Queue.BatchSize)
	}
	if c.Queue.MaxConcurrent <= 0 {
		return fmt.Errorf("max concurrent lookups must be positive: %d", c.Queue.MaxConcurrent)
	}

	if c.Cache.MaxEntries <= 0 {
		return fmt.Errorf("cache max entries must be positive: %d", c.Cache.MaxEntries)
	}
	if c.Storage.Quota < 0 {
		return fmt.Errorf("storage quota cannot be negative: %d", c.Storage.Quota)
	}

	switch c.Render.Format {
	case "html", "markdown":
	default:
		return fmt.Errorf("unknown render format %q", c.Render.Format)
	}

	return nil
}

// GetAPITimeout returns the HTTP client timeout as a duration.
func (c *Config) GetAPITimeout() (time.Duration, error) {
	return time.ParseDuration(c.API.Timeout)
}

// GetLookupTimeout returns the per-name lookup timeout as a duration.
func (c *Config) GetLookupTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Queue.LookupTimeout)
}

// GetBatchDelay returns the pause between batches as a duration.
func (c *Config) GetBatchDelay() (time.Duration, error) {
	return time.ParseDuration(c.Queue.BatchDelay)
}

// GetCacheExpiry returns the cache entry expiry as a duration.
func (c *Config) GetCacheExpiry() (time.Duration, error) {
	return time.ParseDuration(c.Cache.Expiry)
}

// GetSaveInterval returns the cache auto-save interval as a duration.
func (c *Config) GetSaveInterval() (time.Duration, error) {
	return time.ParseDuration(c.Cache.SaveInterval)
}

// StoragePath returns the SQLite path to use, defaulting to cache.db in
// the data directory.
func (c *Config) StoragePath() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "cache.db"), nil
}
