// Package config loads and validates tracker configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	ECFR     ECFRConfig     `mapstructure:"ecfr"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// ECFRConfig points the client at the remote API.
type ECFRConfig struct {
	BaseURL             string `mapstructure:"base_url"`
	UserAgent           string `mapstructure:"user_agent"`
	ListTimeoutSeconds  int    `mapstructure:"list_timeout_seconds"`
	FetchTimeoutSeconds int    `mapstructure:"fetch_timeout_seconds"`
}

// FetchConfig governs the fan-out of one cycle.
type FetchConfig struct {
	Concurrency        int `mapstructure:"concurrency"`
	CycleBudgetSeconds int `mapstructure:"cycle_budget_seconds"`
}

// ScheduleConfig sets the daily refresh time in UTC.
type ScheduleConfig struct {
	Hour   int `mapstructure:"hour"`
	Minute int `mapstructure:"minute"`
}

// StorageConfig locates the durable snapshot document.
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("ecfr.base_url", "https://www.ecfr.gov/api/versioner/v1")
	v.SetDefault("ecfr.user_agent", "ecfr-tracker/1.0 (+https://github.com/fedreg/ecfr-tracker)")
	v.SetDefault("ecfr.list_timeout_seconds", 30)
	v.SetDefault("ecfr.fetch_timeout_seconds", 60)
	v.SetDefault("fetch.concurrency", 10)
	v.SetDefault("fetch.cycle_budget_seconds", 300)
	v.SetDefault("schedule.hour", 2)
	v.SetDefault("schedule.minute", 0)
	v.SetDefault("storage.path", "data/agency_data.json")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.ECFR.BaseURL == "" {
		return fmt.Errorf("ecfr.base_url must be set")
	}
	if c.ECFR.ListTimeoutSeconds <= 0 || c.ECFR.FetchTimeoutSeconds <= 0 {
		return fmt.Errorf("ecfr timeouts must be > 0")
	}
	if c.Fetch.Concurrency <= 0 {
		return fmt.Errorf("fetch.concurrency must be > 0")
	}
	if c.Fetch.CycleBudgetSeconds <= 0 {
		return fmt.Errorf("fetch.cycle_budget_seconds must be > 0")
	}
	if c.Schedule.Hour < 0 || c.Schedule.Hour > 23 {
		return fmt.Errorf("schedule.hour must be between 0 and 23")
	}
	if c.Schedule.Minute < 0 || c.Schedule.Minute > 59 {
		return fmt.Errorf("schedule.minute must be between 0 and 59")
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path must be set")
	}
	return nil
}

// ListTimeout returns the title listing timeout as a duration.
func (c Config) ListTimeout() time.Duration {
	return time.Duration(c.ECFR.ListTimeoutSeconds) * time.Second
}

// FetchTimeout returns the per-title content fetch timeout as a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.ECFR.FetchTimeoutSeconds) * time.Second
}

// CycleBudget returns the overall fan-out budget as a duration.
func (c Config) CycleBudget() time.Duration {
	return time.Duration(c.Fetch.CycleBudgetSeconds) * time.Second
}
