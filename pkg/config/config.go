package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const DefaultFileName = "keylog.yaml"

// Config captures the user-adjustable knobs for capture sessions.
type Config struct {
	Paths       PathsConfig       `yaml:"paths"`
	Capture     CaptureConfig     `yaml:"capture"`
	Logging     LoggingConfig     `yaml:"logging"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`

	// Source indicates where the configuration originated (defaults or a file path).
	Source string `yaml:"-"`
}

// PathsConfig controls where session logs land.
type PathsConfig struct {
	LogDir     string `yaml:"log_dir"`
	FilePrefix string `yaml:"file_prefix"`
}

// CaptureConfig selects and tunes the key event backend.
type CaptureConfig struct {
	Backend             string `yaml:"backend"`
	ReadyTimeoutSeconds int    `yaml:"ready_timeout_seconds"`
}

// LoggingConfig defines diagnostic log verbosity, format and optional file output.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// DiagnosticsConfig bounds operator-facing error output.
type DiagnosticsConfig struct {
	FlushErrorBurst int `yaml:"flush_error_burst"`
}

// Default returns the baseline configuration used when no overrides are supplied.
func Default() Config {
	return Config{
		Paths: PathsConfig{
			LogDir:     "~/.logs",
			FilePrefix: "keylog",
		},
		Capture: CaptureConfig{
			Backend:             "hook",
			ReadyTimeoutSeconds: 2,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Diagnostics: DiagnosticsConfig{
			FlushErrorBurst: 3,
		},
		Source: "<defaults>",
	}
}

// Load reads configuration from disk if present, otherwise returning defaults.
// When path is empty, the loader attempts to read ./keylog.yaml but tolerates a missing file.
func Load(path string) (Config, error) {
	cfg := Default()

	candidate := strings.TrimSpace(path)
	explicit := candidate != ""
	if !explicit {
		candidate = DefaultFileName
	}

	data, err := os.ReadFile(candidate)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if explicit {
				return cfg, fmt.Errorf("config file %q not found", candidate)
			}
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config file %q: %w", candidate, err)
	}

	if err := decode(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file %q: %w", candidate, err)
	}
	cfg.Source = candidate
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// decode rejects keys the Config struct does not declare.
func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

// Validate ensures essential configuration values are present and sensible.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must not be empty")
	}
	if strings.TrimSpace(c.Paths.FilePrefix) == "" {
		return errors.New("paths.file_prefix must not be empty")
	}
	if strings.ContainsAny(c.Paths.FilePrefix, `/\`) {
		return errors.New("paths.file_prefix must not contain path separators")
	}
	if _, err := NormalizeBackend(c.Capture.Backend); err != nil {
		return err
	}
	if c.Capture.ReadyTimeoutSeconds <= 0 {
		return errors.New("capture.ready_timeout_seconds must be positive")
	}

	if _, err := NormalizeLogLevel(c.Logging.Level); err != nil {
		return err
	}
	if _, err := NormalizeFormat(c.Logging.Format); err != nil {
		return err
	}
	if c.Logging.MaxSizeMB <= 0 {
		return errors.New("logging.max_size_mb must be positive")
	}
	if c.Logging.MaxBackups < 0 {
		return errors.New("logging.max_backups must not be negative")
	}
	if c.Logging.MaxAgeDays < 0 {
		return errors.New("logging.max_age_days must not be negative")
	}
	if c.Diagnostics.FlushErrorBurst <= 0 {
		return errors.New("diagnostics.flush_error_burst must be positive")
	}

	return nil
}

func (c *Config) normalize() {
	defaults := Default()

	c.Paths.LogDir = strings.TrimSpace(c.Paths.LogDir)
	if c.Paths.LogDir == "" {
		c.Paths.LogDir = defaults.Paths.LogDir
	} else if !strings.HasPrefix(c.Paths.LogDir, "~") {
		c.Paths.LogDir = filepath.Clean(c.Paths.LogDir)
	}
	c.Paths.FilePrefix = strings.TrimSpace(c.Paths.FilePrefix)
	if c.Paths.FilePrefix == "" {
		c.Paths.FilePrefix = defaults.Paths.FilePrefix
	}

	if backend, err := NormalizeBackend(c.Capture.Backend); err == nil {
		c.Capture.Backend = backend
	}
	if c.Capture.ReadyTimeoutSeconds <= 0 {
		c.Capture.ReadyTimeoutSeconds = defaults.Capture.ReadyTimeoutSeconds
	}

	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = defaults.Logging.Level
	}
	if level, err := NormalizeLogLevel(c.Logging.Level); err == nil {
		c.Logging.Level = level
	}
	if strings.TrimSpace(c.Logging.Format) == "" {
		c.Logging.Format = defaults.Logging.Format
	}
	if format, err := NormalizeFormat(c.Logging.Format); err == nil {
		c.Logging.Format = format
	}
	c.Logging.File = strings.TrimSpace(c.Logging.File)
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = defaults.Logging.MaxSizeMB
	}

	if c.Diagnostics.FlushErrorBurst <= 0 {
		c.Diagnostics.FlushErrorBurst = defaults.Diagnostics.FlushErrorBurst
	}
}

// ExpandHome resolves a leading "~" against the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path, nil
	}
	home, err := userHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}

// userHomeDir is declared for swapping in tests.
var userHomeDir = os.UserHomeDir

// NormalizeBackend validates capture backend identifiers.
func NormalizeBackend(backend string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", "hook", "global":
		return "hook", nil
	case "terminal", "tty":
		return "terminal", nil
	default:
		return "", fmt.Errorf("unsupported capture backend %q", backend)
	}
}

// NormalizeLogLevel validates and lowercases known logging levels.
func NormalizeLogLevel(level string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return "info", nil
	case "debug":
		return "debug", nil
	case "warn", "warning":
		return "warn", nil
	case "error":
		return "error", nil
	default:
		return "", fmt.Errorf("unsupported log level %q", level)
	}
}

// NormalizeFormat validates and canonicalizes logging format identifiers.
func NormalizeFormat(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		return "json", nil
	case "console", "text":
		return "console", nil
	default:
		return "", fmt.Errorf("unsupported log format %q", format)
	}
}
