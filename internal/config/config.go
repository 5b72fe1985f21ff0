// Package config holds loadpilot configuration: operating cost rates,
// decision thresholds, market lists, and cache/store settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all loadpilot configuration.
type Config struct {
	General    GeneralConfig `toml:"general"`
	Store      StoreConfig   `toml:"store"`
	Costs      CostRates     `toml:"costs"`
	Thresholds Thresholds    `toml:"thresholds"`
	Markets    Markets       `toml:"markets"`
	Cache      CacheConfig   `toml:"cache"`
	Daemon     DaemonConfig  `toml:"daemon"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	DefaultPeriod string `toml:"default_period"`
	Quiet         bool   `toml:"quiet"`
}

// StoreConfig selects and configures the remote record store backend.
type StoreConfig struct {
	Backend   string `toml:"backend"` // "http" or "redis"
	BaseURL   string `toml:"base_url,omitempty"`
	APIKey    string `toml:"api_key,omitempty"`
	RedisAddr string `toml:"redis_addr,omitempty"`
	Principal string `toml:"principal,omitempty"`
}

// CacheConfig bounds the financial cache TTL and the single-flight wait.
type CacheConfig struct {
	TTLSeconds      int `toml:"ttl_seconds"`
	PollIntervalMS  int `toml:"poll_interval_ms"`
	MaxWaitAttempts int `toml:"max_wait_attempts"`
}

// DaemonConfig holds the HTTP API settings.
type DaemonConfig struct {
	Addr            string `toml:"addr"`
	PollIntervalSec int    `toml:"poll_interval_sec"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			DefaultPeriod: "all",
		},
		Store: StoreConfig{
			Backend: "http",
			BaseURL: "http://localhost:9090/api",
		},
		Costs:      DefaultCostRates,
		Thresholds: DefaultThresholds,
		Markets:    DefaultMarkets,
		Cache: CacheConfig{
			TTLSeconds:      30,
			PollIntervalMS:  100,
			MaxWaitAttempts: 50,
		},
		Daemon: DaemonConfig{
			Addr:            "127.0.0.1:8790",
			PollIntervalSec: 60,
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "loadpilot")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "loadpilot")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
// Missing sections keep their default values.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// StoreAPIKey returns the store API key from env var or config, in that order.
func StoreAPIKey(cfg Config) string {
	if key := os.Getenv("LOADPILOT_STORE_KEY"); key != "" {
		return key
	}
	return cfg.Store.APIKey
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}
