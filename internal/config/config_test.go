package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 20, cfg.Queue.BatchSize)
	assert.Equal(t, "ygo-cache-v3", cfg.Cache.Key)

	expiry, err := cfg.GetCacheExpiry()
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, expiry)

	interval, err := cfg.GetSaveInterval()
	require.NoError(t, err)
	assert.Equal(t, time.Minute, interval)

	delay, err := cfg.GetBatchDelay()
	require.NoError(t, err)
	assert.Equal(t, 50*time.Millisecond, delay)
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[queue]
batch_size = 10
lookup_timeout = "10s"

[storage]
path = ":memory:"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 10, cfg.Queue.BatchSize)
	assert.Equal(t, 8, cfg.Queue.MaxConcurrent)
	assert.Equal(t, "https://db.ygoprodeck.com/api/v7", cfg.API.BaseURL)

	storagePath, err := cfg.StoragePath()
	require.NoError(t, err)
	assert.Equal(t, ":memory:", storagePath)
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[queue\nbatch_size = "), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := DefaultConfig()
	cfg.App.DebugMode = true
	cfg.Render.Format = "markdown"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad duration", func(c *Config) { c.Queue.LookupTimeout = "soon" }},
		{"negative duration", func(c *Config) { c.Queue.BatchDelay = "-1s" }},
		{"zero batch size", func(c *Config) { c.Queue.BatchSize = 0 }},
		{"zero concurrency", func(c *Config) { c.Queue.MaxConcurrent = 0 }},
		{"zero rate limit", func(c *Config) { c.API.RateLimit = 0 }},
		{"empty base url", func(c *Config) { c.API.BaseURL = "" }},
		{"zero max entries", func(c *Config) { c.Cache.MaxEntries = 0 }},
		{"negative quota", func(c *Config) { c.Storage.Quota = -1 }},
		{"unknown format", func(c *Config) { c.Render.Format = "rst" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_ZeroIntervalsAllowed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cache.SaveInterval = "0s"
	cfg.Queue.BatchDelay = "0s"
	require.NoError(t, cfg.Validate())

	interval, err := cfg.GetSaveInterval()
	require.NoError(t, err)
	assert.Zero(t, interval)
}
