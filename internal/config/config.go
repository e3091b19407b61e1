package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/oficiohq/oficio/internal/sweeper"
	"github.com/oficiohq/oficio/pkg/database"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvOficioEnv             = "OFICIO_ENV"
	EnvOficioShutdownTimeout = "OFICIO_SHUTDOWN_TIMEOUT"
	EnvOficioVersion         = "OFICIO_VERSION"
)

var databaseEnv = &database.Env{
	Driver:          "OFICIO_DB_DRIVER",
	Host:            "OFICIO_DB_HOST",
	Port:            "OFICIO_DB_PORT",
	Name:            "OFICIO_DB_NAME",
	User:            "OFICIO_DB_USER",
	Password:        "OFICIO_DB_PASSWORD",
	SSLMode:         "OFICIO_DB_SSL_MODE",
	Path:            "OFICIO_DB_PATH",
	MaxOpenConns:    "OFICIO_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "OFICIO_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "OFICIO_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "OFICIO_DB_CONN_TIMEOUT",
}

var sweeperEnv = &sweeper.Env{
	Enabled:     "OFICIO_SWEEPER_ENABLED",
	Interval:    "OFICIO_SWEEPER_INTERVAL",
	BatchLimit:  "OFICIO_SWEEPER_BATCH_LIMIT",
	Concurrency: "OFICIO_SWEEPER_CONCURRENCY",
}

// Config is the root configuration for the oficio service.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Database        database.Config `toml:"database"`
	API             APIConfig       `toml:"api"`
	Sla             SlaConfig       `toml:"sla"`
	Sweeper         sweeper.Config  `toml:"sweeper"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the OFICIO_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvOficioEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.API.Merge(&overlay.API)
	c.Sla.Merge(&overlay.Sla)
	c.Sweeper.Merge(&overlay.Sweeper)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Sla.Finalize(); err != nil {
		return fmt.Errorf("sla: %w", err)
	}
	if err := c.Sweeper.Finalize(sweeperEnv); err != nil {
		return fmt.Errorf("sweeper: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvOficioShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvOficioVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvOficioEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
