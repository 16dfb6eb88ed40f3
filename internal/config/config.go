// Package config loads the application configuration: built-in
// defaults, then an optional YAML file, then HRAMBA_* environment
// variables, strongest last.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the whole application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Review   ReviewConfig   `mapstructure:"review"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`

	// Login attempts allowed per second and the burst on top, per
	// remote address.
	LoginRate  float64 `mapstructure:"login_rate"`
	LoginBurst int     `mapstructure:"login_burst"`
}

// DatabaseConfig holds the SQLite settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// ReviewConfig controls the review expiry sweep.
type ReviewConfig struct {
	// ThresholdDays is how long a review mark lasts. Zero or less
	// means reviews never expire.
	ThresholdDays int `mapstructure:"threshold_days"`

	// SweepInterval is how often the server runs the sweep.
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// Threshold returns the expiry threshold as a duration.
func (c ReviewConfig) Threshold() time.Duration {
	return time.Duration(c.ThresholdDays) * 24 * time.Hour
}

// LogConfig holds the logging settings, see internal/logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Path   string `mapstructure:"path"`
}

// Load reads the configuration. With an empty path it looks for an
// optional hramba.yaml in the working directory; an explicit path must
// exist.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.login_rate", 0.2)
	v.SetDefault("server.login_burst", 5)
	v.SetDefault("database.path", "hramba.sqlite3")
	v.SetDefault("review.threshold_days", 30)
	v.SetDefault("review.sweep_interval", time.Hour)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.path", "")

	v.SetEnvPrefix("HRAMBA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	} else {
		v.SetConfigName("hramba")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}
