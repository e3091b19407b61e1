package sweeper

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds expiry sweep settings.
type Config struct {
	Enabled     bool   `toml:"enabled"`
	Interval    string `toml:"interval"`
	BatchLimit  int    `toml:"batch_limit"`
	Concurrency int    `toml:"concurrency"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Enabled     string
	Interval    string
	BatchLimit  string
	Concurrency string
}

// IntervalDuration returns Interval as a time.Duration.
func (c *Config) IntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.Interval)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Enabled {
		c.Enabled = true
	}
	if overlay.Interval != "" {
		c.Interval = overlay.Interval
	}
	if overlay.BatchLimit != 0 {
		c.BatchLimit = overlay.BatchLimit
	}
	if overlay.Concurrency != 0 {
		c.Concurrency = overlay.Concurrency
	}
}

func (c *Config) loadDefaults() {
	if c.Interval == "" {
		c.Interval = "1m"
	}
	if c.BatchLimit == 0 {
		c.BatchLimit = 100
	}
	if c.Concurrency == 0 {
		c.Concurrency = 4
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Enabled != "" {
		if v := os.Getenv(env.Enabled); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				c.Enabled = b
			}
		}
	}
	if env.Interval != "" {
		if v := os.Getenv(env.Interval); v != "" {
			c.Interval = v
		}
	}
	if env.BatchLimit != "" {
		if v := os.Getenv(env.BatchLimit); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.BatchLimit = n
			}
		}
	}
	if env.Concurrency != "" {
		if v := os.Getenv(env.Concurrency); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.Concurrency = n
			}
		}
	}
}

func (c *Config) validate() error {
	d, err := time.ParseDuration(c.Interval)
	if err != nil {
		return fmt.Errorf("invalid interval: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	if c.BatchLimit < 1 {
		return fmt.Errorf("batch_limit must be at least 1")
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1")
	}
	return nil
}
