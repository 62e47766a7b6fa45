// Package config provides YAML-based configuration loading for Crewcall.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Crewcall configuration, loaded from crewcall.yaml.
type Config struct {
	Platform  string          `yaml:"platform"`  // "slack" or "discord"
	Channel   string          `yaml:"channel"`   // announcement / default channel ID
	Operators []string        `yaml:"operators"` // user IDs allowed to run announce
	Slack     SlackConfig     `yaml:"slack"`
	Discord   DiscordConfig   `yaml:"discord"`
	Database  DatabaseConfig  `yaml:"database"`
	Flow      FlowConfig      `yaml:"flow"`
	Announce  AnnounceConfig  `yaml:"announce"`
	Dashboard DashboardConfig `yaml:"dashboard"`
}

// SlackConfig holds Slack Socket Mode credentials.
type SlackConfig struct {
	AppToken string `yaml:"app_token"` // xapp-...
	BotToken string `yaml:"bot_token"` // xoxb-...
}

// DiscordConfig holds Discord Gateway credentials.
type DiscordConfig struct {
	BotToken string `yaml:"bot_token"`
}

// DatabaseConfig selects and configures the backing store.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "mysql"
	Path   string `yaml:"path"`   // sqlite file path
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	Name   string `yaml:"name"`
	User   string `yaml:"user"`
}

// FlowConfig tunes the profile flow and session lifecycle.
type FlowConfig struct {
	// MaxRetries caps consecutive invalid inputs for one field before the
	// flow is cancelled. 0 means unlimited retries.
	MaxRetries int `yaml:"max_retries"`
	// SessionMaxAgeSec is how long an untouched session survives before
	// the sweep evicts it.
	SessionMaxAgeSec int `yaml:"session_max_age_sec"`
	// SweepIntervalSec is how often the staleness sweep runs.
	SweepIntervalSec int `yaml:"sweep_interval_sec"`
	// Areas is the accepted set for the profile "area" field.
	Areas []string `yaml:"areas"`
}

// AnnounceConfig schedules automatic shift announcements.
type AnnounceConfig struct {
	// Cron is a 5-field cron expression; empty disables scheduled announcements.
	Cron string `yaml:"cron"`
}

// DashboardConfig configures the read-only status API.
type DashboardConfig struct {
	Port int `yaml:"port"`
}

// Default values applied when the config omits them.
const (
	DefaultSessionMaxAgeSec = 1800
	DefaultSweepIntervalSec = 300
	DefaultDashboardPort    = 8080
)

// DefaultAreas is the accepted "area" set when the config provides none.
var DefaultAreas = []string{"downtown", "station", "north", "south"}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config. Secrets may come
// from the environment instead of the file.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv overlays token secrets from environment variables so they can
// stay out of the config file.
func (c *Config) applyEnv() {
	if v := os.Getenv("CREWCALL_SLACK_APP_TOKEN"); v != "" {
		c.Slack.AppToken = v
	}
	if v := os.Getenv("CREWCALL_SLACK_BOT_TOKEN"); v != "" {
		c.Slack.BotToken = v
	}
	if v := os.Getenv("CREWCALL_DISCORD_BOT_TOKEN"); v != "" {
		c.Discord.BotToken = v
	}
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Driver == "sqlite" && c.Database.Path == "" {
		c.Database.Path = "crewcall.db"
	}
	if c.Database.Driver == "mysql" {
		if c.Database.Host == "" {
			c.Database.Host = "127.0.0.1"
		}
		if c.Database.Port == 0 {
			c.Database.Port = 3306
		}
		if c.Database.User == "" {
			c.Database.User = "root"
		}
		if c.Database.Name == "" {
			c.Database.Name = "crewcall"
		}
	}
	if c.Flow.SessionMaxAgeSec == 0 {
		c.Flow.SessionMaxAgeSec = DefaultSessionMaxAgeSec
	}
	if c.Flow.SweepIntervalSec == 0 {
		c.Flow.SweepIntervalSec = DefaultSweepIntervalSec
	}
	if len(c.Flow.Areas) == 0 {
		c.Flow.Areas = append([]string(nil), DefaultAreas...)
	}
	if c.Dashboard.Port == 0 {
		c.Dashboard.Port = DefaultDashboardPort
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	switch c.Platform {
	case "slack":
		if c.Slack.BotToken == "" {
			errs = append(errs, "slack.bot_token is required (or CREWCALL_SLACK_BOT_TOKEN)")
		}
		if c.Slack.AppToken == "" {
			errs = append(errs, "slack.app_token is required (or CREWCALL_SLACK_APP_TOKEN)")
		}
	case "discord":
		if c.Discord.BotToken == "" {
			errs = append(errs, "discord.bot_token is required (or CREWCALL_DISCORD_BOT_TOKEN)")
		}
	case "":
		errs = append(errs, "platform is required")
	default:
		errs = append(errs, fmt.Sprintf("unsupported platform %q", c.Platform))
	}
	if c.Channel == "" {
		errs = append(errs, "channel is required")
	}
	if len(c.Operators) == 0 {
		errs = append(errs, "at least one operator is required")
	}
	if c.Database.Driver != "sqlite" && c.Database.Driver != "mysql" {
		errs = append(errs, fmt.Sprintf("unsupported database.driver %q", c.Database.Driver))
	}
	if c.Flow.MaxRetries < 0 {
		errs = append(errs, "flow.max_retries must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// IsOperator reports whether userID is authorized for operator commands.
func (c *Config) IsOperator(userID string) bool {
	for _, op := range c.Operators {
		if op == userID {
			return true
		}
	}
	return false
}
