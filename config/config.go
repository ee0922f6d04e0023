// Package config provides unified configuration loading for the accord
// engine: defaults, YAML file, then environment variable overrides, in
// that precedence order.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/BaSui01/accord/negotiation/resolve"
	"github.com/BaSui01/accord/persistence"
)

// Config is the complete accord configuration.
type Config struct {
	// Engine holds negotiation protocol defaults.
	Engine EngineConfig `yaml:"engine"`

	// Store configures the optional negotiation log backend.
	Store persistence.Config `yaml:"store"`

	// Log configures logging output.
	Log LogConfig `yaml:"log"`

	// Metrics configures prometheus metrics.
	Metrics MetricsConfig `yaml:"metrics"`
}

// EngineConfig holds negotiation protocol defaults.
type EngineConfig struct {
	// MaxRounds is the default round budget per negotiation.
	MaxRounds int `yaml:"max_rounds"`

	// Timeout is the default wall-clock budget per negotiation.
	Timeout time.Duration `yaml:"timeout"`

	// Strategy is the default conflict resolution strategy name.
	Strategy string `yaml:"strategy"`

	// SweepInterval is how often the background sweeper scans for
	// expired negotiations. Zero disables the sweeper.
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// LogConfig configures logging output.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is one of json, console.
	Format string `yaml:"format"`
}

// MetricsConfig configures prometheus metrics.
type MetricsConfig struct {
	// Enabled turns metric collection on.
	Enabled bool `yaml:"enabled"`

	// Namespace prefixes all metric names.
	Namespace string `yaml:"namespace"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Engine: EngineConfig{
			MaxRounds:     10,
			Timeout:       5 * time.Minute,
			Strategy:      resolve.NameCompromise,
			SweepInterval: 10 * time.Second,
		},
		Store: persistence.DefaultConfig(),
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "accord",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, and
// ACCORD_* environment variables, in increasing precedence.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overrides selected fields from the environment.
func applyEnv(cfg *Config) {
	if v := os.Getenv("ACCORD_ENGINE_MAX_ROUNDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Engine.MaxRounds = n
		}
	}
	if v := os.Getenv("ACCORD_ENGINE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Engine.Timeout = d
		}
	}
	if v := os.Getenv("ACCORD_ENGINE_STRATEGY"); v != "" {
		cfg.Engine.Strategy = v
	}
	if v := os.Getenv("ACCORD_STORE_TYPE"); v != "" {
		cfg.Store.Type = persistence.StoreType(v)
	}
	if v := os.Getenv("ACCORD_STORE_REDIS_ADDR"); v != "" {
		cfg.Store.Redis.Addr = v
	}
	if v := os.Getenv("ACCORD_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

// Validate checks cross-field consistency.
func (c Config) Validate() error {
	if c.Engine.MaxRounds <= 0 {
		return fmt.Errorf("engine.max_rounds must be positive, got %d", c.Engine.MaxRounds)
	}
	if c.Engine.Timeout <= 0 {
		return fmt.Errorf("engine.timeout must be positive, got %s", c.Engine.Timeout)
	}
	valid := false
	for _, name := range resolve.Names() {
		if c.Engine.Strategy == name {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("engine.strategy %q is not a known strategy", c.Engine.Strategy)
	}
	switch c.Store.Type {
	case persistence.StoreTypeMemory, persistence.StoreTypeRedis, persistence.StoreTypeSQLite:
	default:
		return fmt.Errorf("store.type %q is not a known backend", c.Store.Type)
	}
	return nil
}
