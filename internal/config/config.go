package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds tool defaults and chart appearance settings, read from an
// optional yaml file. Command-line flags override whatever is set here.
type Config struct {
	Region  string `yaml:"region"`
	Profile string `yaml:"profile"`
	Output  string `yaml:"output"`
	// Colors maps an outcome category to a hex color for the html renderer.
	Colors map[string]string `yaml:"colors"`
}

// DefaultConfig returns sensible defaults in case no configuration file is
// provided.
func DefaultConfig() Config {
	return Config{
		Output: "table",
		Colors: map[string]string{
			"succeeded":   "#2e7d32",
			"failed":      "#c62828",
			"skipped":     "#9e9e9e",
			"rolled-back": "#ef6c00",
			"unresolved":  "#1565c0",
		},
	}
}

// Load reads configuration from a yaml file. A missing file falls back to
// defaults; a present but unreadable or invalid file is an error.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	// User color overrides merge over defaults so a partial map still
	// renders every category.
	defaults := DefaultConfig().Colors
	if cfg.Colors == nil {
		cfg.Colors = defaults
	} else {
		for category, color := range defaults {
			if _, ok := cfg.Colors[category]; !ok {
				cfg.Colors[category] = color
			}
		}
	}
	return cfg, nil
}

// ColorFor returns the configured hex color for an outcome category.
func (c Config) ColorFor(category string) string {
	if color, ok := c.Colors[category]; ok {
		return color
	}
	return "#1565c0"
}
