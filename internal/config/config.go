// Package config handles the ~/.reqly configuration directory and the
// optional config.yaml inside it.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// FilePermissions is the default mode for regular files.
	FilePermissions = 0644
	// DirPermissions is the default mode for directories.
	DirPermissions = 0755
)

var (
	// ConfigDir is the global configuration directory (~/.reqly).
	ConfigDir string

	// ConfigFile is the YAML configuration file.
	ConfigFile string

	// DatabasePath is the SQLite database file for request history.
	DatabasePath string
)

// Duration wraps time.Duration so YAML can use "30s" notation.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Config holds the user-tunable settings.
type Config struct {
	// RequestTimeout bounds a one-shot HTTP request.
	RequestTimeout Duration `yaml:"requestTimeout,omitempty"`

	// HandshakeTimeout bounds connection establishment (ws/tcp/udp dial).
	HandshakeTimeout Duration `yaml:"handshakeTimeout,omitempty"`

	// HistoryEnabled toggles the SQLite request history. Defaults to true.
	HistoryEnabled *bool `yaml:"historyEnabled,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"logLevel,omitempty"`

	// LogFormat is "text" or "json".
	LogFormat string `yaml:"logFormat,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	enabled := true
	return &Config{
		RequestTimeout:   Duration(30 * time.Second),
		HandshakeTimeout: Duration(45 * time.Second),
		HistoryEnabled:   &enabled,
		LogLevel:         "info",
		LogFormat:        "text",
	}
}

// Initialize sets up the configuration paths and creates ~/.reqly/ if it
// does not exist.
func Initialize() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	ConfigDir = filepath.Join(homeDir, ".reqly")
	ConfigFile = filepath.Join(ConfigDir, "config.yaml")
	DatabasePath = filepath.Join(ConfigDir, "reqly.db")

	if err := os.MkdirAll(ConfigDir, DirPermissions); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", ConfigDir, err)
	}
	return nil
}

// Load reads the config file, falling back to defaults for anything unset.
// A missing file is not an error.
func Load() (*Config, error) {
	return LoadFile(ConfigFile)
}

// LoadFile reads a specific config file.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = Default().RequestTimeout
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = Default().HandshakeTimeout
	}
	if cfg.HistoryEnabled == nil {
		cfg.HistoryEnabled = Default().HistoryEnabled
	}
	return cfg, nil
}
