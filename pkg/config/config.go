package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Valid values for enumerated settings.
var (
	LogLevels     = []string{"debug", "info", "warn", "error"}
	OutputFormats = []string{"table", "json"}
	ColorModes    = []string{"auto", "always", "never"}
)

// Config holds application configuration
type Config struct {
	// LogLevel is empty for silent operation, otherwise one of LogLevels.
	LogLevel       string        `yaml:"log_level"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" default:"30s"`
	ListDuration   time.Duration `yaml:"list_duration" default:"5s"`
	OutputFormat   string        `yaml:"output_format" default:"table"`
	Color          string        `yaml:"color" default:"auto"`
}

// DefaultConfig returns default configuration values
func DefaultConfig() *Config {
	cfg := &Config{}
	defaults.SetDefaults(cfg)
	return cfg
}

// Load returns the defaults overlaid with the YAML file at path.
// An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks enumerated settings and durations.
func (c *Config) Validate() error {
	if c.LogLevel != "" && !slices.Contains(LogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}
	if !slices.Contains(OutputFormats, c.OutputFormat) {
		return fmt.Errorf("invalid format '%s': must be one of %v", c.OutputFormat, OutputFormats)
	}
	if !slices.Contains(ColorModes, c.Color) {
		return fmt.Errorf("invalid color mode '%s': must be one of %v", c.Color, ColorModes)
	}
	if c.ConnectTimeout < 0 {
		return fmt.Errorf("connect timeout must not be negative: %s", c.ConnectTimeout)
	}
	if c.ListDuration < 0 {
		return fmt.Errorf("list duration must not be negative: %s", c.ListDuration)
	}
	return nil
}

// Level maps LogLevel to a logrus level; empty means PanicLevel (silent).
func (c *Config) Level() (logrus.Level, error) {
	switch c.LogLevel {
	case "":
		return logrus.PanicLevel, nil
	case "debug":
		return logrus.DebugLevel, nil
	case "info":
		return logrus.InfoLevel, nil
	case "warn":
		return logrus.WarnLevel, nil
	case "error":
		return logrus.ErrorLevel, nil
	default:
		return logrus.PanicLevel, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}
}

// NewLogger creates a configured logger instance writing to w.
func (c *Config) NewLogger(w io.Writer) (*logrus.Logger, error) {
	level, err := c.Level()
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	return logger, nil
}
