// Package config provides YAML-based configuration loading for railsection.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"github.com/zulandar/railsection/internal/engine"
	"github.com/zulandar/railsection/internal/models"
	"gopkg.in/yaml.v3"
)

// Config is the top-level railsection configuration, loaded from railsection.yaml.
type Config struct {
	Corridor   CorridorConfig         `yaml:"corridor"`
	Simulation SimulationConfig       `yaml:"simulation"`
	Classes    map[string]ClassConfig `yaml:"classes" validate:"dive"`
	Routes     map[string][]string    `yaml:"routes" validate:"dive,min=1,dive,required"`
	Snapshot   SnapshotConfig         `yaml:"snapshot"`
	Oracle     OracleConfig           `yaml:"oracle"`
	Dashboard  DashboardConfig        `yaml:"dashboard"`
	Journal    JournalConfig          `yaml:"journal"`
	Telegraph  TelegraphConfig        `yaml:"telegraph"`
}

// CorridorConfig names the section being simulated.
type CorridorConfig struct {
	Name string `yaml:"name"`
}

// SimulationConfig tunes the engine rules. Zero values take engine defaults.
type SimulationConfig struct {
	TickInterval      time.Duration `yaml:"tick_interval" validate:"gte=0"`
	SweepSchedule     string        `yaml:"sweep_schedule"`
	ApproachThreshold float64       `yaml:"approach_threshold" validate:"gte=0,lte=100"`
	ArrivalThreshold  float64       `yaml:"arrival_threshold" validate:"gte=0,lte=100"`
	ConflictWindow    float64       `yaml:"conflict_window" validate:"gte=0,lte=100"`
	DwellTime         time.Duration `yaml:"dwell_time" validate:"gte=0"`
	AdvisoryLifetime  time.Duration `yaml:"advisory_lifetime" validate:"gte=0"`
	ReleaseSpeed      float64       `yaml:"release_speed" validate:"gte=0"`
	SpeedStep         float64       `yaml:"speed_step" validate:"gte=0"`
	MinSpeed          float64       `yaml:"min_speed" validate:"gte=0"`
}

// ClassConfig overrides the speeds of one train class.
type ClassConfig struct {
	Cruise float64 `yaml:"cruise" validate:"gte=0"`
	Max    float64 `yaml:"max" validate:"gte=0"`
}

// SnapshotConfig points at a world snapshot file used instead of the oracle.
type SnapshotConfig struct {
	Path string `yaml:"path"`
}

// OracleConfig describes the LLM command used for bootstrap and what-if.
type OracleConfig struct {
	Command string        `yaml:"command"`
	Args    []string      `yaml:"args"`
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`
}

// DashboardConfig holds the HTTP server settings.
type DashboardConfig struct {
	Port int `yaml:"port" validate:"gte=0,lte=65535"`
}

// JournalConfig selects where engine events are recorded.
type JournalConfig struct {
	Driver   string `yaml:"driver" validate:"omitempty,oneof=sqlite mysql"`
	Path     string `yaml:"path"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port" validate:"gte=0,lte=65535"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	DSN      string `yaml:"dsn" env:"RAILSECTION_JOURNAL_DSN"`
}

// TelegraphConfig holds chat bridge settings.
type TelegraphConfig struct {
	Platform string        `yaml:"platform" validate:"omitempty,oneof=slack discord"`
	Channel  string        `yaml:"channel"`
	Prefix   string        `yaml:"prefix"`
	Digest   string        `yaml:"digest"`
	Slack    SlackConfig   `yaml:"slack"`
	Discord  DiscordConfig `yaml:"discord"`
}

// SlackConfig holds Slack credentials. Both tokens are read from the
// environment when set there.
type SlackConfig struct {
	BotToken string `yaml:"bot_token" env:"RAILSECTION_SLACK_BOT_TOKEN"`
	AppToken string `yaml:"app_token" env:"RAILSECTION_SLACK_APP_TOKEN"`
}

// DiscordConfig holds Discord credentials.
type DiscordConfig struct {
	BotToken string `yaml:"bot_token" env:"RAILSECTION_DISCORD_BOT_TOKEN"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes, overlays secrets from the environment, and
// returns a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("config: env: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in default values.
func (c *Config) applyDefaults() {
	if c.Corridor.Name == "" {
		c.Corridor.Name = "railsection"
	}
	if c.Simulation.SweepSchedule == "" {
		c.Simulation.SweepSchedule = engine.DefaultSweepSchedule
	}
	if c.Oracle.Command == "" {
		c.Oracle.Command = "claude"
	}
	if c.Oracle.Args == nil {
		c.Oracle.Args = []string{"-p"}
	}
	if c.Oracle.Timeout == 0 {
		c.Oracle.Timeout = 2 * time.Minute
	}
	if c.Dashboard.Port == 0 {
		c.Dashboard.Port = 8080
	}
	if c.Journal.Driver == "" {
		c.Journal.Driver = "sqlite"
	}
	if c.Journal.Driver == "sqlite" && c.Journal.Path == "" {
		c.Journal.Path = "railsection.db"
	}
	if c.Journal.Driver == "mysql" {
		if c.Journal.Host == "" {
			c.Journal.Host = "127.0.0.1"
		}
		if c.Journal.Port == 0 {
			c.Journal.Port = 3306
		}
		if c.Journal.User == "" {
			c.Journal.User = "root"
		}
	}
	if c.Telegraph.Prefix == "" {
		c.Telegraph.Prefix = "!rs"
	}
}

// validate checks struct constraints and cross-field consistency.
func (c *Config) validate() error {
	var errs []string

	if err := newValidator().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("config: validate: %w", err)
		}
		for _, fe := range verrs {
			errs = append(errs, describeFieldError(fe))
		}
	}

	if _, err := cron.ParseStandard(c.Simulation.SweepSchedule); err != nil {
		errs = append(errs, fmt.Sprintf("simulation.sweep_schedule %q is not a valid schedule", c.Simulation.SweepSchedule))
	}
	if s := c.Simulation; s.ArrivalThreshold > 0 && s.ApproachThreshold > 0 && s.ArrivalThreshold > s.ApproachThreshold {
		errs = append(errs, "simulation.arrival_threshold must not exceed approach_threshold")
	}
	for name, cls := range c.Classes {
		if cls.Cruise > 0 && cls.Max > 0 && cls.Cruise > cls.Max {
			errs = append(errs, fmt.Sprintf("classes.%s.cruise exceeds max", name))
		}
	}

	if c.Journal.Driver == "mysql" && c.Journal.DSN == "" && c.Journal.Database == "" {
		errs = append(errs, "journal.database or journal.dsn is required for mysql")
	}

	switch c.Telegraph.Platform {
	case "slack":
		if c.Telegraph.Slack.BotToken == "" || c.Telegraph.Slack.AppToken == "" {
			errs = append(errs, "telegraph.slack requires bot_token and app_token")
		}
	case "discord":
		if c.Telegraph.Discord.BotToken == "" {
			errs = append(errs, "telegraph.discord requires bot_token")
		}
	}
	if c.Telegraph.Platform != "" && c.Telegraph.Channel == "" {
		errs = append(errs, "telegraph.channel is required")
	}
	if c.Telegraph.Digest != "" {
		if _, err := cron.ParseStandard(c.Telegraph.Digest); err != nil {
			errs = append(errs, fmt.Sprintf("telegraph.digest %q is not a valid schedule", c.Telegraph.Digest))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// newValidator reports fields by their YAML names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func describeFieldError(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "required", "min":
		return fmt.Sprintf("%s is required", field)
	case "gte", "lte":
		return fmt.Sprintf("%s must be %s %s", field, fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s", field, fe.Tag())
}

// EngineParams converts the simulation settings into an engine rule set.
// Unset values fall back to the engine defaults.
func (c *Config) EngineParams() engine.Params {
	s := c.Simulation
	p := engine.Params{
		TickInterval:      s.TickInterval,
		SweepSchedule:     s.SweepSchedule,
		ApproachThreshold: s.ApproachThreshold,
		ArrivalThreshold:  s.ArrivalThreshold,
		ConflictWindow:    s.ConflictWindow,
		DwellTime:         s.DwellTime,
		AdvisoryLifetime:  s.AdvisoryLifetime,
		ReleaseSpeed:      s.ReleaseSpeed,
		SpeedStep:         s.SpeedStep,
		MinSpeed:          s.MinSpeed,
		Classes:           engine.DefaultClasses(),
	}
	for name, cls := range c.Classes {
		t := models.TrainType(name)
		speeds := p.Classes[t]
		if cls.Cruise > 0 {
			speeds.Cruise = cls.Cruise
		}
		if cls.Max > 0 {
			speeds.Max = cls.Max
		}
		p.Classes[t] = speeds
	}
	return p
}
