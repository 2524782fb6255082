// Package config provides configuration loading and structs for the dagit
// companion server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Upstream  UpstreamConfig  `yaml:"upstream"`
	Search    SearchConfig    `yaml:"search"`
	Schedules SchedulesConfig `yaml:"schedules"`
	Cache     CacheConfig     `yaml:"cache"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// UpstreamConfig holds settings for the GraphQL endpoint the workspace is
// fetched from.
type UpstreamConfig struct {
	Endpoint       string `yaml:"endpoint"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	// RateLimit is the request budget in requests per second. Zero means
	// use the default; negative disables limiting.
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
}

// Timeout returns the per-request timeout.
func (u *UpstreamConfig) Timeout() time.Duration {
	return time.Duration(u.TimeoutSeconds) * time.Second
}

// SearchConfig holds search index settings.
type SearchConfig struct {
	ResultLimit int `yaml:"result_limit"`
	Fuzziness   int `yaml:"fuzziness"`
	// IncludeResources adds top-level resources to the searchable records.
	// Changing it requires rebuilding the search session.
	IncludeResources bool  `yaml:"include_resources"`
	Highlight        *bool `yaml:"highlight"`
	// RefreshIntervalSeconds is the cadence of the server's background
	// re-fetch of issued index slots.
	RefreshIntervalSeconds int `yaml:"refresh_interval_seconds"`
}

// HighlightOrDefault returns whether match highlighting is enabled;
// defaults to true when unset.
func (s *SearchConfig) HighlightOrDefault() bool {
	if s.Highlight != nil {
		return *s.Highlight
	}
	return true
}

// RefreshInterval returns the background index refresh cadence.
func (s *SearchConfig) RefreshInterval() time.Duration {
	return time.Duration(s.RefreshIntervalSeconds) * time.Second
}

// SchedulesConfig holds schedule row polling settings.
type SchedulesConfig struct {
	PollIntervalSeconds int `yaml:"poll_interval_seconds"`
	// IdleTTLSeconds is how long a watched row may go unrequested before
	// its poller is stopped.
	IdleTTLSeconds int `yaml:"idle_ttl_seconds"`
}

// PollInterval returns the refresh interval for watched schedule rows.
func (s *SchedulesConfig) PollInterval() time.Duration {
	return time.Duration(s.PollIntervalSeconds) * time.Second
}

// IdleTTL returns the idle expiry for watched schedule rows.
func (s *SchedulesConfig) IdleTTL() time.Duration {
	return time.Duration(s.IdleTTLSeconds) * time.Second
}

// CacheConfig holds settings for the local snapshot cache.
type CacheConfig struct {
	DatabasePath string `yaml:"database_path"`
	Disabled     bool   `yaml:"disabled"`
}

// Load reads and parses the config file at path, expands paths, and applies
// defaults. Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Cache.DatabasePath = expandPath(cfg.Cache.DatabasePath, configDir)

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are
// relative to configDir; other relative paths are relative to the home
// directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
