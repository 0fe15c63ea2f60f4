// Package config loads the funnel configuration: defaults, then a YAML or
// JSON file, then FUNNEL_* environment variables.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/aretw0/funnel/internal/runtime"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "FUNNEL_"

// Store drivers.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
)

// Config is the full funnel configuration.
type Config struct {
	LogLevel  string `yaml:"log_level" json:"log_level" env:"LOG_LEVEL"`
	LogFormat string `yaml:"log_format" json:"log_format" env:"LOG_FORMAT"`
	// Owner scopes snapshots to one user on shared stores.
	Owner     string       `yaml:"owner" json:"owner" env:"OWNER"`
	SkipLimit int          `yaml:"skip_limit" json:"skip_limit" env:"SKIP_LIMIT"`
	Store     StoreConfig  `yaml:"store" json:"store" envPrefix:"STORE_"`
	HTTP      HTTPConfig   `yaml:"http" json:"http" envPrefix:"HTTP_"`
	Delays    DelaysConfig `yaml:"delays" json:"delays" envPrefix:"DELAY_"`
}

// StoreConfig selects and tunes the snapshot backend.
type StoreConfig struct {
	Driver        string        `yaml:"driver" json:"driver" env:"DRIVER"`
	Path          string        `yaml:"path" json:"path" env:"PATH"`
	RedisAddr     string        `yaml:"redis_addr" json:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword string        `yaml:"redis_password" json:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int           `yaml:"redis_db" json:"redis_db" env:"REDIS_DB"`
	TTL           time.Duration `yaml:"ttl" json:"ttl" env:"TTL"`
	// EncryptionKey is a base64 encoded 32-byte key. Empty disables encryption.
	EncryptionKey string   `yaml:"encryption_key" json:"encryption_key" env:"ENCRYPTION_KEY"`
	FallbackKeys  []string `yaml:"fallback_keys" json:"fallback_keys" env:"FALLBACK_KEYS" envSeparator:","`
	// PIIKeys are field names masked before they reach the backend.
	PIIKeys []string `yaml:"pii_keys" json:"pii_keys" env:"PII_KEYS" envSeparator:","`
}

// HTTPConfig tunes the API server.
type HTTPConfig struct {
	Addr            string        `yaml:"addr" json:"addr" env:"ADDR"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" json:"idle_timeout" env:"IDLE_TIMEOUT"`
	// Metrics mounts the Prometheus handler at /metrics.
	Metrics bool `yaml:"metrics" json:"metrics" env:"METRICS"`
}

// DelaysConfig mirrors runtime.Delays.
type DelaysConfig struct {
	TypingPerRune time.Duration `yaml:"typing_per_rune" json:"typing_per_rune" env:"TYPING_PER_RUNE"`
	TypingMin     time.Duration `yaml:"typing_min" json:"typing_min" env:"TYPING_MIN"`
	TypingMax     time.Duration `yaml:"typing_max" json:"typing_max" env:"TYPING_MAX"`
	AutoAdvance   time.Duration `yaml:"auto_advance" json:"auto_advance" env:"AUTO_ADVANCE"`
	Transition    time.Duration `yaml:"transition" json:"transition" env:"TRANSITION"`
}

// Runtime converts to engine delays.
func (d DelaysConfig) Runtime() runtime.Delays {
	return runtime.Delays(d)
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel:  "info",
		LogFormat: "text",
		SkipLimit: 64,
		Store: StoreConfig{
			Driver: DriverFile,
			Path:   ".funnel/snapshots",
		},
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
			IdleTimeout:     2 * time.Minute,
			Metrics:         true,
		},
		Delays: DelaysConfig(runtime.DefaultDelays),
	}
}

// Load reads path over the defaults, then applies the environment.
// A missing file is not an error when path is empty.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := readFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if !slices.Contains([]string{DriverMemory, DriverFile, DriverRedis, DriverSQLite}, c.Store.Driver) {
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.Store.Driver))
	}
	if (c.Store.Driver == DriverFile || c.Store.Driver == DriverSQLite) && c.Store.Path == "" {
		errs = append(errs, fmt.Errorf("store driver %s needs a path", c.Store.Driver))
	}
	if c.Store.Driver == DriverRedis && c.Store.RedisAddr == "" {
		errs = append(errs, errors.New("store driver redis needs redis_addr"))
	}
	if c.SkipLimit <= 0 {
		errs = append(errs, fmt.Errorf("skip_limit must be positive, got %d", c.SkipLimit))
	}
	if !slices.Contains([]string{"text", "json"}, strings.ToLower(c.LogFormat)) {
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	return errors.Join(errs...)
}
