// Package config provides YAML and TOML configuration loading for Planboard.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = "planboard.yaml"

// Config is the top-level Planboard configuration.
type Config struct {
	Root        string          `yaml:"root" toml:"root"`
	BacklogFile string          `yaml:"backlog_file" toml:"backlog_file"`
	SprintsDir  string          `yaml:"sprints_dir" toml:"sprints_dir"`
	SpecsDir    string          `yaml:"specs_dir" toml:"specs_dir"`
	PromptsDir  string          `yaml:"prompts_dir" toml:"prompts_dir"`
	Parser      ParserConfig    `yaml:"parser" toml:"parser"`
	Watch       WatchConfig     `yaml:"watch" toml:"watch"`
	Query       QueryConfig     `yaml:"query" toml:"query"`
	Dashboard   DashboardConfig `yaml:"dashboard" toml:"dashboard"`
	Logging     LoggingConfig   `yaml:"logging" toml:"logging"`
	Notifier    NotifierConfig  `yaml:"notifier" toml:"notifier"`
}

// ParserConfig tunes document parsing.
type ParserConfig struct {
	BugPrefix                string `yaml:"bug_prefix" toml:"bug_prefix"`
	RequirementFallbackLimit int    `yaml:"requirement_fallback_limit" toml:"requirement_fallback_limit"`
}

// WatchConfig holds file watching settings. Durations use Go syntax ("500ms").
type WatchConfig struct {
	Debounce   string `yaml:"debounce" toml:"debounce"`
	ResyncCron string `yaml:"resync_cron" toml:"resync_cron"`
}

// QueryConfig holds query surface settings.
type QueryConfig struct {
	ScreensRole string `yaml:"screens_role" toml:"screens_role"`
}

// DashboardConfig holds HTTP server settings.
type DashboardConfig struct {
	Host      string `yaml:"host" toml:"host"`
	Port      int    `yaml:"port" toml:"port"`
	Heartbeat string `yaml:"heartbeat" toml:"heartbeat"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
	File   string `yaml:"file" toml:"file"`
}

// NotifierConfig configures the chat notifier. An empty Platform disables it.
type NotifierConfig struct {
	Platform string        `yaml:"platform" toml:"platform"` // slack or discord
	Channel  string        `yaml:"channel" toml:"channel"`
	Slack    SlackConfig   `yaml:"slack" toml:"slack"`
	Discord  DiscordConfig `yaml:"discord" toml:"discord"`
	Events   EventsConfig  `yaml:"events" toml:"events"`
	Digest   DigestConfig  `yaml:"digest" toml:"digest"`
}

// SlackConfig holds Slack credentials. BotToken falls back to $SLACK_BOT_TOKEN.
type SlackConfig struct {
	BotToken string `yaml:"bot_token" toml:"bot_token"`
}

// DiscordConfig holds Discord credentials. BotToken falls back to $DISCORD_BOT_TOKEN.
type DiscordConfig struct {
	BotToken string `yaml:"bot_token" toml:"bot_token"`
}

// EventsConfig toggles which detected events are posted.
type EventsConfig struct {
	TicketTransitions *bool `yaml:"ticket_transitions" toml:"ticket_transitions"`
	SprintTransitions *bool `yaml:"sprint_transitions" toml:"sprint_transitions"`
	LoadErrors        *bool `yaml:"load_errors" toml:"load_errors"`
}

// DigestConfig schedules the progress digest.
type DigestConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Cron    string `yaml:"cron" toml:"cron"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads a YAML (.yaml, .yml) or TOML (.toml) config file from path and
// returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return ParseTOML(data)
	}
	return Parse(data)
}

// LoadOrDefault loads path, returning defaults when path is the default
// config file and it does not exist.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	cfg, err := Load(path)
	if err != nil && path == DefaultPath && errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	return finish(&cfg)
}

// ParseTOML unmarshals TOML bytes into a validated Config.
func ParseTOML(data []byte) (*Config, error) {
	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, fmt.Errorf("config: parse toml: %w", err)
	}
	return finish(&cfg)
}

func finish(cfg *Config) (*Config, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Root == "" {
		c.Root = "."
	}
	if c.BacklogFile == "" {
		c.BacklogFile = "BACKLOG.md"
	}
	if c.SprintsDir == "" {
		c.SprintsDir = "sprints"
	}
	if c.SpecsDir == "" {
		c.SpecsDir = "specs"
	}
	if c.PromptsDir == "" {
		c.PromptsDir = "prompts"
	}
	if c.Parser.BugPrefix == "" {
		c.Parser.BugPrefix = "BUG-"
	}
	if c.Parser.RequirementFallbackLimit == 0 {
		c.Parser.RequirementFallbackLimit = 10
	}
	if c.Watch.Debounce == "" {
		c.Watch.Debounce = "500ms"
	}
	if c.Query.ScreensRole == "" {
		c.Query.ScreensRole = "frontend"
	}
	if c.Dashboard.Port == 0 {
		c.Dashboard.Port = 8080
	}
	if c.Dashboard.Heartbeat == "" {
		c.Dashboard.Heartbeat = "15s"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	c.Notifier.Platform = strings.ToLower(strings.TrimSpace(c.Notifier.Platform))
	if c.Notifier.Slack.BotToken == "" {
		c.Notifier.Slack.BotToken = os.Getenv("SLACK_BOT_TOKEN")
	}
	if c.Notifier.Discord.BotToken == "" {
		c.Notifier.Discord.BotToken = os.Getenv("DISCORD_BOT_TOKEN")
	}
	ev := &c.Notifier.Events
	if ev.TicketTransitions == nil {
		ev.TicketTransitions = boolPtr(true)
	}
	if ev.SprintTransitions == nil {
		ev.SprintTransitions = boolPtr(true)
	}
	if ev.LoadErrors == nil {
		ev.LoadErrors = boolPtr(true)
	}
	if c.Notifier.Digest.Enabled && c.Notifier.Digest.Cron == "" {
		c.Notifier.Digest.Cron = "0 9 * * 1-5"
	}
}

func boolPtr(b bool) *bool { return &b }

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Parser.RequirementFallbackLimit < 0 {
		errs = append(errs, "parser.requirement_fallback_limit must not be negative")
	}
	if d, err := time.ParseDuration(c.Watch.Debounce); err != nil || d < 0 {
		errs = append(errs, fmt.Sprintf("watch.debounce %q is not a valid duration", c.Watch.Debounce))
	}
	if d, err := time.ParseDuration(c.Dashboard.Heartbeat); err != nil || d <= 0 {
		errs = append(errs, fmt.Sprintf("dashboard.heartbeat %q is not a valid duration", c.Dashboard.Heartbeat))
	}
	if c.Dashboard.Port < 1 || c.Dashboard.Port > 65535 {
		errs = append(errs, fmt.Sprintf("dashboard.port %d out of range", c.Dashboard.Port))
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Sprintf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("logging.format %q is not text or json", c.Logging.Format))
	}
	switch c.Notifier.Platform {
	case "":
	case "slack":
		if c.Notifier.Slack.BotToken == "" {
			errs = append(errs, "notifier.slack.bot_token is required")
		}
	case "discord":
		if c.Notifier.Discord.BotToken == "" {
			errs = append(errs, "notifier.discord.bot_token is required")
		}
	default:
		errs = append(errs, fmt.Sprintf("notifier.platform %q is not slack or discord", c.Notifier.Platform))
	}
	if c.Notifier.Platform != "" && c.Notifier.Channel == "" {
		errs = append(errs, "notifier.channel is required")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// DebounceDuration returns the parsed watch.debounce.
func (c *Config) DebounceDuration() time.Duration {
	d, _ := time.ParseDuration(c.Watch.Debounce)
	return d
}

// HeartbeatDuration returns the parsed dashboard.heartbeat.
func (c *Config) HeartbeatDuration() time.Duration {
	d, _ := time.ParseDuration(c.Dashboard.Heartbeat)
	return d
}

// Enabled reports whether a toggle is on. Nil counts as on.
func Enabled(b *bool) bool {
	return b == nil || *b
}
