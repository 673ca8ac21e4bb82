package anubad

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds configuration for an Engine
type Config struct {
	Debug            bool          `yaml:"debug"`
	LogCategories    []string      `yaml:"log_categories"`
	Timeout          time.Duration `yaml:"timeout"`
	MaxSteps         int64         `yaml:"max_steps"`
	MaxOutputBytes   int           `yaml:"max_output_bytes"`
	MaxStringLength  int           `yaml:"max_string_length"`
	ShowErrorContext bool          `yaml:"show_error_context"`
	ContextLines     int           `yaml:"context_lines"`
	HistoryDB        string        `yaml:"history_db"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Debug:            false,
		Timeout:          5 * time.Second,
		MaxSteps:         10_000_000,
		MaxOutputBytes:   1 << 20,
		MaxStringLength:  1 << 20,
		ShowErrorContext: true,
		ContextLines:     2,
	}
}

// DefaultConfigDir is where the CLI and GUI keep their files
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".anubad")
}

// DefaultConfigPath returns ~/.anubad/config.yaml, or "" if there is no home directory
func DefaultConfigPath() string {
	dir := DefaultConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// LoadConfig reads a YAML config file over the defaults. Keys missing from
// the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if len(bytes.TrimSpace(content)) == 0 {
		return config, nil
	}
	if err := yaml.Unmarshal(content, config); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return config, nil
}

// LoadOrCreateConfig loads the config at path, writing the commented default
// file first if none exists.
func LoadOrCreateConfig(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := WriteDefaultConfig(path); err != nil {
			return DefaultConfig(), err
		}
	}
	return LoadConfig(path)
}

// Validate rejects negative limits
func (c *Config) Validate() error {
	switch {
	case c.Timeout < 0:
		return fmt.Errorf("timeout must not be negative")
	case c.MaxSteps < 0:
		return fmt.Errorf("max_steps must not be negative")
	case c.MaxOutputBytes < 0:
		return fmt.Errorf("max_output_bytes must not be negative")
	case c.MaxStringLength < 0:
		return fmt.Errorf("max_string_length must not be negative")
	case c.ContextLines < 0:
		return fmt.Errorf("context_lines must not be negative")
	}
	return nil
}

const defaultConfigFile = `# anubad configuration
# This file is automatically created on first run

# Log translated programs and stage timings to stderr
debug: false

# Restrict debug output to these categories
# (translate, parse, eval, capability, run, server, history, app)
log_categories: []

# Wall-clock limit for one run, 0s disables
timeout: 5s

# Statements and loop iterations allowed in one run, 0 disables
max_steps: 10000000

# Captured output and single string size limits in bytes, 0 disables
max_output_bytes: 1048576
max_string_length: 1048576

# Show surrounding lines for syntax errors in the CLI
show_error_context: true
context_lines: 2

# SQLite file for run history, empty disables recording
history_db: ""
`

// WriteDefaultConfig writes the commented default config file to path
func WriteDefaultConfig(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigFile), 0644); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}
