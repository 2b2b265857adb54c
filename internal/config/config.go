// Package config loads the capture pipeline's on-disk configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration file shape (~/.capturedemo/config.yaml).
type Config struct {
	Capture CaptureConfig `yaml:"capture"`
}

// CaptureConfig mirrors the capture engine's tunables (capture.Config), kept
// as plain YAML-friendly fields so the engine itself never depends on the
// config package.
type CaptureConfig struct {
	VolatileRowCount        int    `yaml:"volatile_row_count"`
	StabilityWindow         string `yaml:"stability_window"`
	SuppressAlternateScreen *bool  `yaml:"suppress_alternate_screen"`
	MaxHistory              int    `yaml:"max_history"`
}

// ParseStabilityWindow parses StabilityWindow as a Go duration. An empty
// string parses to 0, leaving the caller to fall back to its own default.
func (c CaptureConfig) ParseStabilityWindow() (time.Duration, error) {
	if c.StabilityWindow == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.StabilityWindow)
	if err != nil {
		return 0, fmt.Errorf("capture.stability_window: %w", err)
	}
	return d, nil
}

// ConfigDir returns the capturedemo configuration directory (~/.capturedemo/).
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".capturedemo")
	}
	return filepath.Join(home, ".capturedemo")
}

// Load reads the config from ~/.capturedemo/config.yaml. If the file does
// not exist, it returns a zero-value Config with no error, leaving every
// field to the capture engine's own defaults.
func Load() (*Config, error) {
	return LoadFrom(filepath.Join(ConfigDir(), "config.yaml"))
}

// LoadFrom reads the config from the given path. If the file does not
// exist, it returns a zero-value Config with no error.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Capture.VolatileRowCount < 0 {
		return nil, fmt.Errorf("capture.volatile_row_count must not be negative, got %d", cfg.Capture.VolatileRowCount)
	}
	if cfg.Capture.MaxHistory < 0 {
		return nil, fmt.Errorf("capture.max_history must not be negative, got %d", cfg.Capture.MaxHistory)
	}
	if _, err := cfg.Capture.ParseStabilityWindow(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
