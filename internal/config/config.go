// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Service ServiceConfig `mapstructure:"service" yaml:"service"`
	Poll    PollConfig    `mapstructure:"poll" yaml:"poll"`
	Report  ReportConfig  `mapstructure:"report" yaml:"report"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color names for different log levels.
type ColorConfig struct {
	Debug string `mapstructure:"debug" yaml:"debug"`
	Info  string `mapstructure:"info" yaml:"info"`
	Warn  string `mapstructure:"warn" yaml:"warn"`
	Error string `mapstructure:"error" yaml:"error"`
	Fatal string `mapstructure:"fatal" yaml:"fatal"`
}

// ServiceConfig holds the connection details for the remote analysis service.
type ServiceConfig struct {
	BaseURL      string            `mapstructure:"base_url" yaml:"base_url"`
	Timeout      time.Duration     `mapstructure:"timeout" yaml:"timeout"`
	RateLimitRPS float64           `mapstructure:"rate_limit_rps" yaml:"rate_limit_rps"`
	Headers      map[string]string `mapstructure:"headers" yaml:"headers"`
}

// PollConfig tunes the job status re-check loop.
type PollConfig struct {
	// Interval is the fixed delay between status re-checks. There is no
	// backoff: the service resolves jobs quickly and a steady cadence keeps
	// the latency predictable.
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
}

// ReportConfig selects how results are rendered.
type ReportConfig struct {
	Format string `mapstructure:"format" yaml:"format"` // "table" or "json"
	Output string `mapstructure:"output" yaml:"output"` // file path; empty means stdout
}

// SetDefaults registers the default value for every key so that a missing
// config file still yields a fully usable configuration.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "bidlens-cli")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.fatal", "magenta")

	v.SetDefault("service.base_url", "http://localhost:8000")
	v.SetDefault("service.timeout", 60*time.Second)
	v.SetDefault("service.rate_limit_rps", 10.0)

	v.SetDefault("poll.interval", 1500*time.Millisecond)

	v.SetDefault("report.format", "table")
	v.SetDefault("report.output", "")
}

// Validate rejects configurations the client cannot run with.
func (c *Config) Validate() error {
	if c.Service.BaseURL == "" {
		return fmt.Errorf("service.base_url must be set")
	}
	if c.Poll.Interval < 0 {
		return fmt.Errorf("poll.interval must not be negative")
	}
	switch c.Report.Format {
	case "", "table", "json":
	default:
		return fmt.Errorf("report.format must be \"table\" or \"json\", got %q", c.Report.Format)
	}
	return nil
}
