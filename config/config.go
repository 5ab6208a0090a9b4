// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package config loads lod settings from a YAML file and LOD_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gogpu/lod"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides, e.g. LOD_TARGET_FPS.
const EnvPrefix = "LOD"

// Config holds controller, scheduler and storage settings.
type Config struct {
	TargetFPS      float64       `mapstructure:"target_fps"`
	MinFPS         float64       `mapstructure:"min_fps"`
	UpgradeMargin  float64       `mapstructure:"upgrade_margin"`
	Cooldown       time.Duration `mapstructure:"cooldown"`
	MinSamples     int           `mapstructure:"min_samples"`
	HistorySize    int           `mapstructure:"history_size"`
	SampleInterval time.Duration `mapstructure:"sample_interval"`
	AutoAdjust     bool          `mapstructure:"auto_adjust"`
	MemoryBudgetMB int           `mapstructure:"memory_budget_mb"`
	// InitialQuality overrides the device recommendation when non-empty.
	InitialQuality string        `mapstructure:"initial_quality"`
	StageTimeout   time.Duration `mapstructure:"stage_timeout"`
	Target         string        `mapstructure:"target"`
	PrefsPath      string        `mapstructure:"prefs_path"`
	LogLevel       string        `mapstructure:"log_level"`
	// ListenAddr is the HTTP address of lodsim serve.
	ListenAddr     string        `mapstructure:"listen_addr"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("target_fps", lod.DefaultTargetFPS)
	v.SetDefault("min_fps", lod.DefaultMinFPS)
	v.SetDefault("upgrade_margin", lod.DefaultUpgradeMargin)
	v.SetDefault("cooldown", lod.DefaultCooldown)
	v.SetDefault("min_samples", lod.DefaultMinSamples)
	v.SetDefault("history_size", lod.DefaultHistorySize)
	v.SetDefault("sample_interval", lod.DefaultSampleInterval)
	v.SetDefault("auto_adjust", true)
	v.SetDefault("memory_budget_mb", int(lod.DefaultMemoryBudget>>20))
	v.SetDefault("initial_quality", "")
	v.SetDefault("stage_timeout", time.Duration(0))
	v.SetDefault("target", lod.StageFull.String())
	v.SetDefault("prefs_path", "./lod-data/prefs.db")
	v.SetDefault("log_level", "info")
	v.SetDefault("listen_addr", "127.0.0.1:8090")
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg, err := decode(viper.New())
	if err != nil {
		panic(fmt.Sprintf("config: invalid defaults: %v", err))
	}
	return cfg
}

// Load reads configPath, or searches ./lod.yaml, ./config/lod.yaml,
// $HOME/.lod/lod.yaml and /etc/lod/lod.yaml when configPath is empty.
// A missing file in the search path is not an error. Environment
// variables override file values.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("lod")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.lod")
		v.AddConfigPath("/etc/lod")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read config file: %w", err)
		}
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks ranges and names.
func (c *Config) Validate() error {
	if c.TargetFPS <= 0 || c.TargetFPS > 240 {
		return fmt.Errorf("target_fps must be in (0, 240], got %v", c.TargetFPS)
	}
	if c.MinFPS <= 0 || c.MinFPS >= c.TargetFPS {
		return fmt.Errorf("min_fps must be in (0, target_fps), got %v", c.MinFPS)
	}
	if c.UpgradeMargin < 1 {
		return fmt.Errorf("upgrade_margin must be at least 1, got %v", c.UpgradeMargin)
	}
	if c.Cooldown < 0 {
		return fmt.Errorf("cooldown must not be negative, got %v", c.Cooldown)
	}
	if c.MinSamples < 1 {
		return fmt.Errorf("min_samples must be at least 1, got %d", c.MinSamples)
	}
	if c.HistorySize < c.MinSamples {
		return fmt.Errorf("history_size (%d) must be at least min_samples (%d)", c.HistorySize, c.MinSamples)
	}
	if c.SampleInterval <= 0 {
		return fmt.Errorf("sample_interval must be positive, got %v", c.SampleInterval)
	}
	if c.MemoryBudgetMB < 0 {
		return fmt.Errorf("memory_budget_mb must not be negative, got %d", c.MemoryBudgetMB)
	}
	if c.InitialQuality != "" {
		if _, err := lod.ParseQualityLevel(c.InitialQuality); err != nil {
			return fmt.Errorf("initial_quality: %w", err)
		}
	}
	if c.StageTimeout < 0 {
		return fmt.Errorf("stage_timeout must not be negative, got %v", c.StageTimeout)
	}
	if _, err := lod.ParseStage(c.Target); err != nil {
		return fmt.Errorf("target: %w", err)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if c.ListenAddr == "" {
		return errors.New("listen_addr must not be empty")
	}
	return nil
}

// SlogLevel returns the configured log level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level must be one of debug, info, warn, error, got %q", c.LogLevel)
	}
	return l, nil
}

// TargetStage returns the configured load target.
func (c *Config) TargetStage() lod.Stage {
	s, err := lod.ParseStage(c.Target)
	if err != nil {
		return lod.StageFull
	}
	return s
}

// MemoryBudget returns the memory budget in bytes.
func (c *Config) MemoryBudget() uint64 {
	return uint64(c.MemoryBudgetMB) << 20
}

// ControllerOptions converts the configuration into controller options.
func (c *Config) ControllerOptions() []lod.ControllerOption {
	opts := []lod.ControllerOption{
		lod.WithTargetFPS(c.TargetFPS),
		lod.WithMinFPS(c.MinFPS),
		lod.WithUpgradeMargin(c.UpgradeMargin),
		lod.WithCooldown(c.Cooldown),
		lod.WithMinSamples(c.MinSamples),
		lod.WithHistorySize(c.HistorySize),
		lod.WithSampleInterval(c.SampleInterval),
		lod.WithAutoAdjust(c.AutoAdjust),
		lod.WithMemoryBudget(c.MemoryBudget()),
	}
	if q, err := lod.ParseQualityLevel(c.InitialQuality); err == nil {
		opts = append(opts, lod.WithInitialQuality(q))
	}
	return opts
}

// SchedulerOptions converts the configuration into scheduler options.
func (c *Config) SchedulerOptions() []lod.SchedulerOption {
	return []lod.SchedulerOption{lod.WithStageTimeout(c.StageTimeout)}
}

func (c *Config) String() string {
	return fmt.Sprintf("Config{TargetFPS: %.0f, MinFPS: %.0f, UpgradeMargin: %.2f, Cooldown: %v, MinSamples: %d, AutoAdjust: %t, MemoryBudgetMB: %d, InitialQuality: %q, Target: %s}",
		c.TargetFPS, c.MinFPS, c.UpgradeMargin, c.Cooldown, c.MinSamples, c.AutoAdjust, c.MemoryBudgetMB, c.InitialQuality, c.Target)
}
