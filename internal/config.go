package internal

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileConfig holds defaults read from a YAML file. Flags set on the command
// line take precedence.
type FileConfig struct {
	IgnoreCase      bool     `yaml:"ignore_case"`
	Ext             []string `yaml:"ext"`
	ExcludeExt      []string `yaml:"exclude_ext"`
	Depth           int      `yaml:"depth"`
	Archives        bool     `yaml:"archives"`
	Encoding        string   `yaml:"encoding"`
	LogLevel        string   `yaml:"log_level"`
	Color           string   `yaml:"color"`
	SaveMatchesFile string   `yaml:"save_matches_file"`
}

// DefaultConfig returns a FileConfig with default values
func DefaultConfig() *FileConfig {
	return &FileConfig{
		Encoding: "utf-8",
		LogLevel: "info",
		Color:    "auto",
	}
}

// LoadConfig reads path over the defaults. An empty path or a missing file
// yields the defaults; a malformed file is an error.
func LoadConfig(path string) (*FileConfig, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates the configuration values
func (c *FileConfig) Validate() error {
	if c.Depth < 0 {
		return fmt.Errorf("depth must be >= 0, got %d", c.Depth)
	}
	validLevels := map[string]bool{
		"trace": true, "debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}
	switch c.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("invalid color %q, must be one of: auto, always, never", c.Color)
	}
	if _, err := lookupEncoding(c.Encoding); err != nil {
		return err
	}
	return nil
}
