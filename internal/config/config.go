package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/cadence/internal/cadence"
	"github.com/abhisek/cadence/internal/nudge"
)

// Config holds all cadence configuration.
type Config struct {
	// DBPath overrides the default database location.
	DBPath string `yaml:"db_path" env:"CADENCE_DB"`

	// Timezone is an IANA zone name used for local dates. Empty means the
	// system zone.
	Timezone string `yaml:"timezone" env:"CADENCE_TZ"`

	// LogLevel is a zap level name (debug, info, warn, error).
	LogLevel string `yaml:"log_level" env:"CADENCE_LOG_LEVEL"`

	Policy PolicyConfig `yaml:"policy" envPrefix:"CADENCE_"`
	Nudge  NudgeConfig  `yaml:"nudge" envPrefix:"CADENCE_NUDGE_"`
}

// PolicyConfig configures the time-line gates.
type PolicyConfig struct {
	AllowedStartHour     int     `yaml:"allowed_start_hour" env:"ALLOWED_START_HOUR"`
	AllowedEndHour       int     `yaml:"allowed_end_hour" env:"ALLOWED_END_HOUR"`
	MinHoursBetween      float64 `yaml:"min_hours_between" env:"MIN_HOURS_BETWEEN"`
	BigMomentSilenceDays int     `yaml:"big_moment_silence_days" env:"BIG_MOMENT_SILENCE_DAYS"`
}

// NudgeConfig configures reflective nudges.
type NudgeConfig struct {
	CooldownDays int `yaml:"cooldown_days" env:"COOLDOWN_DAYS"`
}

// DefaultConfig returns a Config with the standard policy.
func DefaultConfig() Config {
	p := cadence.DefaultPolicy()
	return Config{
		LogLevel: "warn",
		Policy: PolicyConfig{
			AllowedStartHour:     p.AllowedStartHour,
			AllowedEndHour:       p.AllowedEndHour,
			MinHoursBetween:      p.MinHoursBetween,
			BigMomentSilenceDays: p.BigMomentSilenceDays,
		},
		Nudge: NudgeConfig{
			CooldownDays: nudge.DefaultCooldownDays,
		},
	}
}

// DefaultPath resolves the config file path:
// 1. CADENCE_CONFIG environment variable
// 2. $XDG_CONFIG_HOME/cadence/config.yaml
// 3. ~/.config/cadence/config.yaml
func DefaultPath() (string, error) {
	if p := os.Getenv("CADENCE_CONFIG"); p != "" {
		return p, nil
	}
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "cadence", "config.yaml"), nil
}

// Load builds a Config from defaults, then the YAML file at path (a missing
// file is not an error), then environment variables. The result is validated.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges and that the time zone resolves.
func (c Config) Validate() error {
	p := c.Policy
	if p.AllowedStartHour < 0 || p.AllowedStartHour > 23 {
		return fmt.Errorf("allowed_start_hour must be in [0,23], got %d", p.AllowedStartHour)
	}
	if p.AllowedEndHour < 1 || p.AllowedEndHour > 24 {
		return fmt.Errorf("allowed_end_hour must be in [1,24], got %d", p.AllowedEndHour)
	}
	if p.AllowedStartHour >= p.AllowedEndHour {
		return fmt.Errorf("allowed_start_hour (%d) must be before allowed_end_hour (%d)", p.AllowedStartHour, p.AllowedEndHour)
	}
	if p.MinHoursBetween < 0 {
		return fmt.Errorf("min_hours_between must not be negative")
	}
	if p.BigMomentSilenceDays < 0 {
		return fmt.Errorf("big_moment_silence_days must not be negative")
	}
	if c.Nudge.CooldownDays < 0 {
		return fmt.Errorf("nudge cooldown_days must not be negative")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location returns the configured time zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// CadencePolicy converts the policy section for the engine.
func (c Config) CadencePolicy() cadence.Policy {
	return cadence.Policy{
		AllowedStartHour:     c.Policy.AllowedStartHour,
		AllowedEndHour:       c.Policy.AllowedEndHour,
		MinHoursBetween:      c.Policy.MinHoursBetween,
		BigMomentSilenceDays: c.Policy.BigMomentSilenceDays,
	}
}
