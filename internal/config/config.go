// Package config loads server configuration from YAML files and
// SATTRACK_* environment variables, with env taking precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration for the sattrackd server.
type Config struct {
	API       APIConfig       `mapstructure:"api"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Celestrak CelestrakConfig `mapstructure:"celestrak"`
	Tracker   TrackerConfig   `mapstructure:"tracker"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Log       LogConfig       `mapstructure:"log"`
}

// APIConfig configures the public HTTP listener.
type APIConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// MetricsConfig configures the separate metrics listener. An empty
// address disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// DatabaseConfig points at the sqlite catalog file.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// CelestrakConfig configures the upstream TLE source.
type CelestrakConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// TrackerConfig configures the live recompute loop.
type TrackerConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Interval  time.Duration `mapstructure:"interval"`
	Mode      string        `mapstructure:"mode"` // realtime | accelerated
	TimeScale float64       `mapstructure:"time_scale"`
	StartTime string        `mapstructure:"start_time"` // RFC3339; empty anchors at startup
}

// EngineConfig configures batch position computation.
type EngineConfig struct {
	Workers int `mapstructure:"workers"` // 0 means one per CPU
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Default returns the built-in configuration, the same values Load
// starts from before the file and environment are applied.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Decoding pure defaults cannot fail; the panic guards drift
	// between setDefaults and the struct fields.
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("config: decode defaults: %v", err))
	}
	return &cfg
}

// Load reads configuration. With a non-empty path the file must exist;
// otherwise Load looks for sattrack.yaml in . and ./configs and falls
// back to defaults when absent. SATTRACK_* environment variables
// override both, e.g. SATTRACK_API_ADDR or SATTRACK_CELESTRAK_BASE_URL.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	v.SetEnvPrefix("SATTRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("sattrack")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.addr", ":8080")
	v.SetDefault("api.shutdown_timeout", 10*time.Second)
	v.SetDefault("metrics.addr", ":9090")
	v.SetDefault("database.path", "sattrack.db")
	v.SetDefault("celestrak.base_url", "https://celestrak.org")
	v.SetDefault("celestrak.timeout", 10*time.Second)
	v.SetDefault("celestrak.cache_ttl", 15*time.Minute)
	v.SetDefault("tracker.enabled", true)
	v.SetDefault("tracker.interval", time.Second)
	v.SetDefault("tracker.mode", "realtime")
	v.SetDefault("tracker.time_scale", 1.0)
	v.SetDefault("tracker.start_time", "")
	v.SetDefault("engine.workers", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if c.API.Addr == "" {
		return fmt.Errorf("config: api.addr must not be empty")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("config: database.path must not be empty")
	}
	if c.Celestrak.BaseURL == "" {
		return fmt.Errorf("config: celestrak.base_url must not be empty")
	}
	if c.Celestrak.Timeout <= 0 {
		return fmt.Errorf("config: celestrak.timeout must be positive, got %v", c.Celestrak.Timeout)
	}
	if c.Tracker.Interval <= 0 {
		return fmt.Errorf("config: tracker.interval must be positive, got %v", c.Tracker.Interval)
	}
	switch c.Tracker.Mode {
	case "realtime", "accelerated":
	default:
		return fmt.Errorf("config: tracker.mode must be realtime or accelerated, got %q", c.Tracker.Mode)
	}
	if c.Tracker.TimeScale <= 0 {
		return fmt.Errorf("config: tracker.time_scale must be positive, got %v", c.Tracker.TimeScale)
	}
	if c.Tracker.StartTime != "" {
		if _, err := time.Parse(time.RFC3339, c.Tracker.StartTime); err != nil {
			return fmt.Errorf("config: tracker.start_time is not RFC3339: %w", err)
		}
	}
	if c.Engine.Workers < 0 {
		return fmt.Errorf("config: engine.workers must not be negative, got %d", c.Engine.Workers)
	}
	return nil
}
