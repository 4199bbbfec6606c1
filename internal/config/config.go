// Package config loads templator settings from YAML with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file read when no path is given.
const DefaultPath = "templator.yaml"

// ValidModes are the accepted extraction modes.
var ValidModes = []string{"auto", "vector", "raster"}

// ValidLogLevels are the accepted log levels.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// validCoordSpaces mirrors template.CoordSpaces without importing it.
var validCoordSpaces = []string{"percent_width", "points", "inches", "mm"}

// Config holds all templator settings.
type Config struct {
	LogLevel string        `yaml:"log_level"`
	Extract  ExtractConfig `yaml:"extract"`
	Output   OutputConfig  `yaml:"output"`
	Batch    BatchConfig   `yaml:"batch"`
}

// ExtractConfig configures template extraction.
type ExtractConfig struct {
	// Mode is auto, vector or raster.
	Mode string  `yaml:"mode"`
	DPI  float64 `yaml:"dpi"`
	Page int     `yaml:"page"`

	// DedupeTolerancePt merges vector drawings whose edges agree within
	// this distance. Zero disables deduplication.
	DedupeTolerancePt float64 `yaml:"dedupe_tolerance_pt"`
}

// OutputConfig configures exported files.
type OutputConfig struct {
	CoordSpace string `yaml:"coord_space"`
	Indent     int    `yaml:"indent"`
}

// BatchConfig configures multi-source extraction.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Extract: ExtractConfig{
			Mode:              "auto",
			DPI:               200,
			Page:              0,
			DedupeTolerancePt: 0.5,
		},
		Output: OutputConfig{
			CoordSpace: "percent_width",
			Indent:     2,
		},
		Batch: BatchConfig{
			Concurrency: 4,
		},
	}
}

// Load reads configuration from a YAML file on top of the defaults and
// applies environment overrides. A missing file yields the defaults.
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

// applyEnvOverrides applies TEMPLATOR_* environment variables.
func (c *Config) applyEnvOverrides() error {
	if level := os.Getenv("TEMPLATOR_LOG_LEVEL"); level != "" {
		c.LogLevel = strings.ToLower(level)
	}
	if mode := os.Getenv("TEMPLATOR_MODE"); mode != "" {
		c.Extract.Mode = strings.ToLower(mode)
	}
	if dpi := os.Getenv("TEMPLATOR_DPI"); dpi != "" {
		v, err := strconv.ParseFloat(dpi, 64)
		if err != nil {
			return fmt.Errorf("invalid TEMPLATOR_DPI %q: %w", dpi, err)
		}
		c.Extract.DPI = v
	}
	return nil
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if !contains(ValidLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log_level: %s (valid: %v)", c.LogLevel, ValidLogLevels)
	}
	if !contains(ValidModes, c.Extract.Mode) {
		return fmt.Errorf("invalid extract.mode: %s (valid: %v)", c.Extract.Mode, ValidModes)
	}
	if c.Extract.DPI <= 0 {
		return fmt.Errorf("extract.dpi must be positive, got %g", c.Extract.DPI)
	}
	if c.Extract.Page < 0 {
		return fmt.Errorf("extract.page must be >= 0, got %d", c.Extract.Page)
	}
	if c.Extract.DedupeTolerancePt < 0 {
		return fmt.Errorf("extract.dedupe_tolerance_pt must be >= 0, got %g", c.Extract.DedupeTolerancePt)
	}
	if !contains(validCoordSpaces, c.Output.CoordSpace) {
		return fmt.Errorf("invalid output.coord_space: %s (valid: %v)", c.Output.CoordSpace, validCoordSpaces)
	}
	if c.Output.Indent < 0 {
		return fmt.Errorf("output.indent must be >= 0, got %d", c.Output.Indent)
	}
	if c.Batch.Concurrency < 1 {
		return fmt.Errorf("batch.concurrency must be >= 1, got %d", c.Batch.Concurrency)
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
