package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/9renpoto/time-wise/internal/env"
	"github.com/9renpoto/time-wise/internal/logger"
	"github.com/9renpoto/time-wise/internal/usage"
	"github.com/spf13/viper"
)

// Default intervals for the usage poller, mirrored from the usage package.
const (
	DefaultPollInterval = usage.DefaultPollInterval
	DefaultGracePeriod  = usage.DefaultGracePeriod
)

// Defaults for the query API listener.
const (
	DefaultListen   = "127.0.0.1:8090"
	DefaultBasePath = "/api"
)

// FileConfig represents the top-level TOML structure.
//
//	[usage]
//	poll_interval = "15s"
//	grace_period = "5m"
//
//	[startup]
//	dsn = "sqlite://${HOME}/.timewise/startup_times.sqlite"
//	max_records = 100
//
//	[history]
//	dsns = ["clickhouse://localhost:9000/timewise"]
//
//	[server]
//	listen = "127.0.0.1:8090"
//	base_path = "/api"
//
//	[metrics]
//	enabled = true
//	listen = "127.0.0.1:9091"
//
//	[log]
//	level = "info"
//	file = "/var/log/timewise/timewise.log"
type FileConfig struct {
	Usage   UsageConfig   `toml:"usage" mapstructure:"usage"`
	Startup StartupConfig `toml:"startup" mapstructure:"startup"`
	History HistoryConfig `toml:"history" mapstructure:"history"`
	Server  ServerConfig  `toml:"server" mapstructure:"server"`
	Metrics MetricsConfig `toml:"metrics" mapstructure:"metrics"`
	Log     LogConfig     `toml:"log" mapstructure:"log"`
}

type UsageConfig struct {
	PollInterval time.Duration `toml:"poll_interval" mapstructure:"poll_interval"`
	GracePeriod  time.Duration `toml:"grace_period" mapstructure:"grace_period"`
}

type StartupConfig struct {
	DSN        string `toml:"dsn" mapstructure:"dsn"`
	MaxRecords int    `toml:"max_records" mapstructure:"max_records"`
}

type HistoryConfig struct {
	DSNs []string `toml:"dsns" mapstructure:"dsns"`
}

type ServerConfig struct {
	Listen   string `toml:"listen" mapstructure:"listen"`
	BasePath string `toml:"base_path" mapstructure:"base_path"`
	PIDFile  string `toml:"pidfile" mapstructure:"pidfile"`
	LogFile  string `toml:"logfile" mapstructure:"logfile"`
}

type MetricsConfig struct {
	Enabled bool   `toml:"enabled" mapstructure:"enabled"`
	Listen  string `toml:"listen" mapstructure:"listen"`
}

type LogConfig struct {
	Level      string `toml:"level" mapstructure:"level"`
	Format     string `toml:"format" mapstructure:"format"`
	Color      bool   `toml:"color" mapstructure:"color"`
	File       string `toml:"file" mapstructure:"file"`
	MaxSizeMB  int    `toml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `toml:"compress" mapstructure:"compress"`
}

// Logger maps the log section onto the logger package config.
func (lc LogConfig) Logger() logger.Config {
	return logger.Config{
		Level:  lc.Level,
		Format: lc.Format,
		Color:  lc.Color,
		File: logger.FileConfig{
			Path:       lc.File,
			MaxSizeMB:  lc.MaxSizeMB,
			MaxBackups: lc.MaxBackups,
			MaxAgeDays: lc.MaxAgeDays,
			Compress:   lc.Compress,
		},
	}
}

// Load parses a TOML config file, expands ${VAR} placeholders in DSNs and
// paths from the OS environment, applies defaults and validates.
func Load(path string) (*FileConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	var fc FileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return nil, err
	}
	fc.expand(env.New())
	fc.ApplyDefaults()
	if err := fc.Validate(); err != nil {
		return nil, err
	}
	return &fc, nil
}

// Default returns the configuration used when no file is given.
func Default() *FileConfig {
	fc := &FileConfig{}
	fc.ApplyDefaults()
	return fc
}

func (fc *FileConfig) expand(e *env.Env) {
	fc.Startup.DSN = e.Expand(fc.Startup.DSN)
	for i, dsn := range fc.History.DSNs {
		fc.History.DSNs[i] = e.Expand(dsn)
	}
	fc.Server.PIDFile = e.Expand(fc.Server.PIDFile)
	fc.Server.LogFile = e.Expand(fc.Server.LogFile)
	fc.Log.File = e.Expand(fc.Log.File)
}

// ApplyDefaults fills unset fields with the documented defaults.
func (fc *FileConfig) ApplyDefaults() {
	if fc.Usage.PollInterval == 0 {
		fc.Usage.PollInterval = DefaultPollInterval
	}
	if fc.Usage.GracePeriod == 0 {
		fc.Usage.GracePeriod = DefaultGracePeriod
	}
	if fc.Startup.DSN == "" {
		fc.Startup.DSN = DefaultStartupDSN()
	}
	if fc.Server.Listen == "" {
		fc.Server.Listen = DefaultListen
	}
	if fc.Server.BasePath == "" {
		fc.Server.BasePath = DefaultBasePath
	}
}

// Validate rejects values the engine cannot run with.
func (fc *FileConfig) Validate() error {
	if fc.Usage.PollInterval < 0 {
		return fmt.Errorf("usage.poll_interval must be positive, got %s", fc.Usage.PollInterval)
	}
	if fc.Usage.GracePeriod < 0 {
		return fmt.Errorf("usage.grace_period must be positive, got %s", fc.Usage.GracePeriod)
	}
	if fc.Startup.MaxRecords < 0 {
		return fmt.Errorf("startup.max_records must not be negative, got %d", fc.Startup.MaxRecords)
	}
	if !strings.HasPrefix(fc.Server.BasePath, "/") {
		return fmt.Errorf("server.base_path must start with '/', got %q", fc.Server.BasePath)
	}
	if fc.Metrics.Enabled && fc.Metrics.Listen == "" {
		return fmt.Errorf("metrics.listen is required when metrics.enabled is true")
	}
	return nil
}

// DefaultStartupDSN places the startup database under the user config
// directory, falling back to the system temp directory when that cannot be
// resolved.
func DefaultStartupDSN() string {
	base, err := os.UserConfigDir()
	if err != nil || base == "" {
		base = os.TempDir()
	}
	return "sqlite://" + filepath.Join(base, "timewise", "startup_times.sqlite")
}
