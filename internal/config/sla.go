package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/oficiohq/oficio/internal/correspondence"
)

const (
	EnvSlaDefaultDays     = "OFICIO_SLA_DEFAULT_DAYS"
	EnvSlaAtRiskPercent   = "OFICIO_SLA_AT_RISK_PERCENT"
	EnvSlaCriticalPercent = "OFICIO_SLA_CRITICAL_PERCENT"
)

// SlaConfig holds deadline policy settings: the default deadline, named
// per-request-type deadlines, and the severity band thresholds.
type SlaConfig struct {
	DefaultDays     int            `toml:"default_days"`
	Deadlines       map[string]int `toml:"deadlines"`
	AtRiskPercent   float64        `toml:"at_risk_percent"`
	CriticalPercent float64        `toml:"critical_percent"`
}

// Policy builds the domain policy from the configured values.
func (c *SlaConfig) Policy() correspondence.Policy {
	return correspondence.Policy{
		DefaultDays:     c.DefaultDays,
		Deadlines:       c.Deadlines,
		AtRiskPercent:   c.AtRiskPercent,
		CriticalPercent: c.CriticalPercent,
	}
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *SlaConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *SlaConfig) Merge(overlay *SlaConfig) {
	if overlay.DefaultDays != 0 {
		c.DefaultDays = overlay.DefaultDays
	}
	if len(overlay.Deadlines) > 0 {
		c.Deadlines = overlay.Deadlines
	}
	if overlay.AtRiskPercent != 0 {
		c.AtRiskPercent = overlay.AtRiskPercent
	}
	if overlay.CriticalPercent != 0 {
		c.CriticalPercent = overlay.CriticalPercent
	}
}

func (c *SlaConfig) loadDefaults() {
	if c.DefaultDays == 0 {
		c.DefaultDays = 15
	}
	if c.AtRiskPercent == 0 {
		c.AtRiskPercent = 70
	}
	if c.CriticalPercent == 0 {
		c.CriticalPercent = 90
	}
}

func (c *SlaConfig) loadEnv() {
	if v := os.Getenv(EnvSlaDefaultDays); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.DefaultDays = n
		}
	}
	if v := os.Getenv(EnvSlaAtRiskPercent); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.AtRiskPercent = f
		}
	}
	if v := os.Getenv(EnvSlaCriticalPercent); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.CriticalPercent = f
		}
	}
}

func (c *SlaConfig) validate() error {
	if c.DefaultDays < 1 {
		return fmt.Errorf("default_days must be at least 1")
	}
	for name, days := range c.Deadlines {
		if days < 1 {
			return fmt.Errorf("deadline for %q must be at least 1", name)
		}
	}
	if c.AtRiskPercent <= 0 || c.CriticalPercent <= 0 {
		return fmt.Errorf("band thresholds must be positive")
	}
	if c.AtRiskPercent >= c.CriticalPercent {
		return fmt.Errorf("at_risk_percent must be below critical_percent")
	}
	return nil
}
