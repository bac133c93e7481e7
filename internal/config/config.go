// Package config handles configuration loading, validation, and hot
// reloading for proctord.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Version is the current configuration schema version.
const Version = 1

// Config holds the complete daemon configuration.
type Config struct {
	// Version is the configuration schema version.
	Version int `toml:"version" json:"version"`

	// Session identifies the candidate environment.
	Session SessionConfig `toml:"session" json:"session"`

	// Fixture points at the initial filesystem document.
	Fixture FixtureConfig `toml:"fixture" json:"fixture"`

	// Recorder tunes event capture.
	Recorder RecorderConfig `toml:"recorder" json:"recorder"`

	// Storage configures session persistence.
	Storage StorageConfig `toml:"storage" json:"storage"`

	// Signing configures evidence signatures.
	Signing SigningConfig `toml:"signing" json:"signing"`

	// Logging configures the operational log.
	Logging LoggingConfig `toml:"logging" json:"logging"`
}

// SessionConfig identifies the candidate environment.
type SessionConfig struct {
	User     string `toml:"user" json:"user"`
	Hostname string `toml:"hostname" json:"hostname"`
}

// FixtureConfig points at the YAML filesystem fixture. An empty path
// selects the built-in workspace.
type FixtureConfig struct {
	Path string `toml:"path" json:"path"`
}

// RecorderConfig tunes event capture.
type RecorderConfig struct {
	// FlushIntervalSec is how often buffered events drain to the
	// sink, in seconds.
	FlushIntervalSec int `toml:"flush_interval_sec" json:"flush_interval_sec"`
}

// FlushInterval returns the configured interval as a duration.
func (r RecorderConfig) FlushInterval() time.Duration {
	return time.Duration(r.FlushIntervalSec) * time.Second
}

// StorageConfig configures the sqlite session store.
type StorageConfig struct {
	// Path of the sqlite database; empty disables persistence.
	Path string `toml:"path" json:"path"`
}

// SigningConfig configures evidence signing.
type SigningConfig struct {
	Enabled bool   `toml:"enabled" json:"enabled"`
	KeyPath string `toml:"key_path" json:"key_path"`
}

// LoggingConfig configures the operational log.
type LoggingConfig struct {
	Level  string `toml:"level" json:"level"`
	Format string `toml:"format" json:"format"`
}

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		Version: Version,
		Session: SessionConfig{
			User:     "candidate",
			Hostname: "fleetcore-dev",
		},
		Recorder: RecorderConfig{
			FlushIntervalSec: 5,
		},
		Storage: StorageConfig{
			Path: "proctord.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validation errors.
var (
	ErrBadVersion  = errors.New("config: unsupported version")
	ErrBadInterval = errors.New("config: flush_interval_sec must be positive")
	ErrMissingKey  = errors.New("config: signing enabled without key_path")
)

// Validate checks cross-field invariants.
func (c *Config) Validate() error {
	if c.Version != Version {
		return fmt.Errorf("%w: %d", ErrBadVersion, c.Version)
	}
	if c.Recorder.FlushIntervalSec <= 0 {
		return ErrBadInterval
	}
	if c.Signing.Enabled && c.Signing.KeyPath == "" {
		return ErrMissingKey
	}
	if c.Session.User == "" {
		c.Session.User = "candidate"
	}
	if c.Session.Hostname == "" {
		c.Session.Hostname = "fleetcore-dev"
	}
	return nil
}

// Load reads and validates a TOML configuration file. A missing file
// yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
