// Package config loads the tracker configuration from file, environment,
// and flags via viper, decoding into a typed Config.
package config

import (
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/mufasadb/poe-level-tracker/internal/core/store"
)

// Config is the full application configuration.
type Config struct {
	Poll    PollConfig    `mapstructure:"poll"`
	API     APIConfig     `mapstructure:"api"`
	Rate    RateConfig    `mapstructure:"rate"`
	Store   store.Config  `mapstructure:"store"`
	Notify  NotifyConfig  `mapstructure:"notify"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// PollConfig drives the orchestration loop.
type PollConfig struct {
	Interval     time.Duration `mapstructure:"interval"`
	AccountDelay time.Duration `mapstructure:"account_delay"`
	Leagues      []string      `mapstructure:"leagues"`
	Accounts     []string      `mapstructure:"accounts"`
}

// APIConfig points at the remote character endpoint.
type APIConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Realm     string        `mapstructure:"realm"`
	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// RateConfig tunes the rate governor. The remote service's enforcement
// thresholds are observed, not documented, so these stay configurable.
type RateConfig struct {
	MinSpacing     time.Duration `mapstructure:"min_spacing"`
	DefaultBackoff time.Duration `mapstructure:"default_backoff"`
	WarnThreshold  float64       `mapstructure:"warn_threshold"`
	CheckInterval  time.Duration `mapstructure:"check_interval"`
}

// NotifyConfig configures the level-up sinks.
type NotifyConfig struct {
	WebhookURL string `mapstructure:"webhook_url"`
	Username   string `mapstructure:"username"`
}

// ServerConfig configures the HTTP surface of the serve command.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Load decodes the merged viper state into a typed Config.
func Load(v *viper.Viper) (*Config, error) {
	if v == nil {
		v = viper.GetViper()
	}

	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("create config decoder: %w", err)
	}

	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Poll.Interval < 0 {
		return fmt.Errorf("poll interval must not be negative")
	}
	if c.Rate.WarnThreshold < 0 || c.Rate.WarnThreshold > 1 {
		return fmt.Errorf("rate warn threshold must be within (0, 1]")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	return nil
}
