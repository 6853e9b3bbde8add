// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Engine     EngineConfig     `yaml:"engine"`
	Prometheus PrometheusConfig `yaml:"prometheus"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type ServerConfig struct {
	Port         string        `yaml:"port"`
	AllowOrigin  string        `yaml:"allow_origin"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// EngineConfig points at the monitoring engine's externally maintained
// files. The status file is required; command and log files are optional
// and auto-enable their features when present.
type EngineConfig struct {
	StatusFile      string        `yaml:"status_file"`
	CommandFile     string        `yaml:"command_file"`
	LogFile         string        `yaml:"log_file"`
	PollInterval    time.Duration `yaml:"poll_interval"`
	LogPollInterval time.Duration `yaml:"log_poll_interval"`
	LogBufferSize   int           `yaml:"log_buffer_size"`
}

type PrometheusConfig struct {
	Enabled     bool   `yaml:"enabled"`
	MetricsPath string `yaml:"metrics_path"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads the optional YAML config file, fills defaults and validates.
// An empty filename yields a default config (flags are expected to supply
// the rest).
func Load(filename string) (*Config, error) {
	config := &Config{}

	if filename != "" {
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	setDefaults(config)
	return config, nil
}

// Validate checks the parts of the config that must hold before startup.
// Called after flag overrides are applied.
func (c *Config) Validate() error {
	if c.Engine.StatusFile == "" {
		return fmt.Errorf("engine.status_file is required")
	}
	if _, err := os.Stat(c.Engine.StatusFile); err != nil {
		return fmt.Errorf("engine.status_file %q is not accessible: %w", c.Engine.StatusFile, err)
	}
	if c.Engine.PollInterval <= 0 {
		return fmt.Errorf("engine.poll_interval must be positive")
	}
	if c.Engine.LogBufferSize < 1 {
		return fmt.Errorf("engine.log_buffer_size must be at least 1")
	}
	return nil
}

// LogEnabled reports whether log tailing should run: a configured log file
// that exists at startup.
func (c *Config) LogEnabled() bool {
	if c.Engine.LogFile == "" {
		return false
	}
	_, err := os.Stat(c.Engine.LogFile)
	return err == nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}

	if cfg.Engine.PollInterval == 0 {
		cfg.Engine.PollInterval = time.Second
	}
	if cfg.Engine.LogPollInterval == 0 {
		cfg.Engine.LogPollInterval = time.Second
	}
	if cfg.Engine.LogBufferSize == 0 {
		cfg.Engine.LogBufferSize = 1000
	}

	if cfg.Prometheus.MetricsPath == "" {
		cfg.Prometheus.MetricsPath = "/metrics"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}
