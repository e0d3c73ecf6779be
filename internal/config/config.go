// Package config loads and validates application configuration from YAML
// files and environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root application configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Storage       StorageConfig       `yaml:"storage"`
	Autosave      AutosaveConfig      `yaml:"autosave"`
	History       HistoryConfig       `yaml:"history"`
	Validation    ValidationConfig    `yaml:"validation"`
	Templates     TemplatesConfig     `yaml:"templates"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig describes HTTP server settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	PublicOrigin    string        `yaml:"public_origin"`
}

// StorageConfig selects the key-value backend of the persistence gateway.
type StorageConfig struct {
	Driver string      `yaml:"driver"`
	Dir    string      `yaml:"dir"`
	Redis  RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr   string `yaml:"addr"`
	DB     int    `yaml:"db"`
	Prefix string `yaml:"prefix"`
}

// AutosaveConfig describes the periodic save of the open form.
type AutosaveConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

// HistoryConfig bounds the undo timeline. MaxDepth 0 keeps every snapshot.
type HistoryConfig struct {
	MaxDepth int `yaml:"max_depth"`
}

// ValidationConfig sizes the compiled pattern cache.
type ValidationConfig struct {
	PatternCacheSize int           `yaml:"pattern_cache_size"`
	PatternCacheTTL  time.Duration `yaml:"pattern_cache_ttl"`
}

// TemplatesConfig points at a directory of YAML template files.
type TemplatesConfig struct {
	Dir string `yaml:"dir"`
}

// ObservabilityConfig describes logging and metrics settings.
type ObservabilityConfig struct {
	LogLevel string        `yaml:"log_level"`
	Metrics  MetricsConfig `yaml:"metrics"`
}

// MetricsConfig describes Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Defaults returns a Config with sensible default values.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 15 * time.Second,
			PublicOrigin:    "http://localhost:8080",
		},
		Storage: StorageConfig{
			Driver: "memory",
			Dir:    "./data",
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "formcraft:",
			},
		},
		Autosave: AutosaveConfig{
			Enabled:  true,
			Interval: 30 * time.Second,
		},
		Validation: ValidationConfig{
			PatternCacheSize: 128,
			PatternCacheTTL:  time.Hour,
		},
		Observability: ObservabilityConfig{
			LogLevel: "info",
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
	}
}

// Load reads an optional YAML config file, applies environment variable
// overrides, and validates the result. An empty path or a missing file
// leaves the defaults in place.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parsing %s: %w", path, err)
			}
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation: %w", err)
	}

	return cfg, nil
}

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Addr == "" {
		errs = append(errs, "server.addr is required")
	}
	switch c.Storage.Driver {
	case "memory":
	case "file":
		if c.Storage.Dir == "" {
			errs = append(errs, "storage.dir is required for the file driver")
		}
	case "redis":
		if c.Storage.Redis.Addr == "" {
			errs = append(errs, "storage.redis.addr is required for the redis driver")
		}
	default:
		errs = append(errs, fmt.Sprintf("storage.driver %q must be memory, file or redis", c.Storage.Driver))
	}
	if c.Autosave.Enabled && c.Autosave.Interval <= 0 {
		errs = append(errs, "autosave.interval must be positive")
	}
	if c.History.MaxDepth < 0 {
		errs = append(errs, "history.max_depth must not be negative")
	}
	if c.Validation.PatternCacheSize < 0 {
		errs = append(errs, "validation.pattern_cache_size must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// applyEnvOverrides reads FORMCRAFT_* environment variables and overrides
// config values. Only the most commonly overridden fields are supported.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FORMCRAFT_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("FORMCRAFT_LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv("FORMCRAFT_STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("FORMCRAFT_STORAGE_DIR"); v != "" {
		cfg.Storage.Dir = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Storage.Redis.Addr = v
	}
	if v := os.Getenv("FORMCRAFT_AUTOSAVE_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Autosave.Interval = d
		}
	}
	if v := os.Getenv("FORMCRAFT_TEMPLATES_DIR"); v != "" {
		cfg.Templates.Dir = v
	}
}
