// Package config defines the toolkit's configuration structures. No I/O
// or parsing logic lives here — only plain data types and validation.
package config

import (
	"fmt"

	"github.com/haidi-ustc/stk/internal/infrastructure/monitoring/logging"
)

// CacheConfig holds the construction cache tunables.
type CacheConfig struct {
	Capacity int `mapstructure:"capacity"`
}

// MetricsConfig holds the Prometheus exposition tunables.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Subsystem string `mapstructure:"subsystem"`
	Listen    string `mapstructure:"listen"`
}

// Config is the root configuration object.
type Config struct {
	Log     logging.LogConfig `mapstructure:"log"`
	Cache   CacheConfig       `mapstructure:"cache"`
	Metrics MetricsConfig     `mapstructure:"metrics"`
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.Cache.Capacity < 0 {
		return fmt.Errorf("cache.capacity must not be negative, got %d", c.Cache.Capacity)
	}
	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		return fmt.Errorf("metrics.namespace is required when metrics are enabled")
	}
	switch c.Log.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("log.format must be \"json\" or \"console\", got %q", c.Log.Format)
	}
	return nil
}
