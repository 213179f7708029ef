// Package config loads the boolnet YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/rfielding/boolnet-ctl/stg"
)

// Config holds all boolnet configuration.
type Config struct {
	// Update mode: synchronous, asynchronous or mixed
	Update string `yaml:"update"`

	// Model checker backend: symbolic or explicit
	Checker string `yaml:"checker"`

	Walk WalkConfig `yaml:"walk"`

	// Seed for sampling and random walks, 0 picks a time-based seed
	Seed int64 `yaml:"seed"`

	Analysis  AnalysisConfig  `yaml:"analysis"`
	Cache     CacheConfig     `yaml:"cache"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// WalkConfig configures attractor witness search.
type WalkConfig struct {
	Length   int `yaml:"length"` // 0 means 10 steps per variable
	Attempts int `yaml:"attempts"`
}

// AnalysisConfig selects the decisions in attractor reports.
type AnalysisConfig struct {
	Completeness bool `yaml:"completeness"`
	Univocality  bool `yaml:"univocality"`
	Faithfulness bool `yaml:"faithfulness"`
	Parallelism  int  `yaml:"parallelism"`
}

// CacheConfig configures the model checking verdict store.
type CacheConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"in_memory"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// TelemetryConfig selects OpenTelemetry exporters.
type TelemetryConfig struct {
	Traces         string `yaml:"traces"`  // none, stdout, otlp
	Metrics        string `yaml:"metrics"` // none, stdout, prometheus
	PrometheusAddr string `yaml:"prometheus_addr"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
}

var (
	ValidCheckers       = []string{"symbolic", "explicit"}
	ValidLogLevels      = []string{"debug", "info", "warn", "error"}
	ValidLogFormats     = []string{"json", "console"}
	ValidTraceExporters = []string{"none", "stdout", "otlp"}
	ValidMetricExporter = []string{"none", "stdout", "prometheus"}
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Update:  "asynchronous",
		Checker: "symbolic",
		Walk: WalkConfig{
			Length:   0,
			Attempts: 10,
		},
		Analysis: AnalysisConfig{
			Completeness: true,
			Univocality:  true,
			Faithfulness: true,
			Parallelism:  1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Telemetry: TelemetryConfig{
			Traces:         "none",
			Metrics:        "none",
			PrometheusAddr: ":9464",
			OTLPEndpoint:   "localhost:4317",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies BOOLNET_* environment variables.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("BOOLNET_UPDATE"); v != "" {
		c.Update = v
	}
	if v := os.Getenv("BOOLNET_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid BOOLNET_SEED %q: %w", v, err)
		}
		c.Seed = seed
	}
	if v := os.Getenv("BOOLNET_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("BOOLNET_CACHE_PATH"); v != "" {
		c.Cache.Enabled = true
		c.Cache.Path = v
	}
	return nil
}

// UpdateMode parses the configured update mode.
func (c *Config) UpdateMode() (stg.Update, error) {
	return stg.ParseUpdate(c.Update)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if _, err := c.UpdateMode(); err != nil {
		return err
	}
	if !oneOf(c.Checker, ValidCheckers) {
		return fmt.Errorf("invalid checker: %s (valid: %v)", c.Checker, ValidCheckers)
	}
	if c.Walk.Length < 0 {
		return fmt.Errorf("walk length must not be negative: %d", c.Walk.Length)
	}
	if c.Walk.Attempts < 1 {
		return fmt.Errorf("walk attempts must be positive: %d", c.Walk.Attempts)
	}
	if c.Analysis.Parallelism < 1 {
		return fmt.Errorf("parallelism must be positive: %d", c.Analysis.Parallelism)
	}
	if c.Cache.Enabled && !c.Cache.InMemory && c.Cache.Path == "" {
		return fmt.Errorf("cache enabled without path")
	}
	if !oneOf(c.Logging.Level, ValidLogLevels) {
		return fmt.Errorf("invalid log level: %s (valid: %v)", c.Logging.Level, ValidLogLevels)
	}
	if !oneOf(c.Logging.Format, ValidLogFormats) {
		return fmt.Errorf("invalid log format: %s (valid: %v)", c.Logging.Format, ValidLogFormats)
	}
	if !oneOf(c.Telemetry.Traces, ValidTraceExporters) {
		return fmt.Errorf("invalid trace exporter: %s (valid: %v)", c.Telemetry.Traces, ValidTraceExporters)
	}
	if !oneOf(c.Telemetry.Metrics, ValidMetricExporter) {
		return fmt.Errorf("invalid metric exporter: %s (valid: %v)", c.Telemetry.Metrics, ValidMetricExporter)
	}
	return nil
}

func oneOf(s string, valid []string) bool {
	for _, v := range valid {
		if s == v {
			return true
		}
	}
	return false
}
