package config

import (
	"github.com/sdejongh/folderextractor/pkg/models"
)

// Config represents the application configuration.
// The destination folder is fixed and has no setting here.
type Config struct {
	Performance PerformanceConfig `yaml:"performance"`
	Output      OutputConfig      `yaml:"output"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// PerformanceConfig holds performance-related settings
type PerformanceConfig struct {
	BufferSize int `yaml:"buffer_size"`
}

// OutputConfig holds output-related settings
type OutputConfig struct {
	Format   string `yaml:"format"`   // "human" or "json"
	Progress bool   `yaml:"progress"` // Show a progress bar on terminals
	Quiet    bool   `yaml:"quiet"`    // Suppress non-error output
	Verbose  bool   `yaml:"verbose"`  // List skipped duplicates
}

// LoggingConfig holds logging-related settings
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Format  string `yaml:"format"` // "json" or "text"
	Level   string `yaml:"level"`  // "debug", "info", "warn", "error"
	File    string `yaml:"file"`   // Log file path (empty = default state dir)
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Performance: PerformanceConfig{
			BufferSize: 65536,
		},
		Output: OutputConfig{
			Format:   "human",
			Progress: true,
		},
		Logging: LoggingConfig{
			Enabled: false,
			Format:  "json",
			Level:   "info",
			File:    "",
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Performance.BufferSize < 1024 {
		return &models.ValidationError{
			Field:   "performance.buffer_size",
			Message: "must be at least 1024 bytes",
		}
	}

	validFormats := map[string]bool{"human": true, "json": true}
	if !validFormats[c.Output.Format] {
		return &models.ValidationError{
			Field:   "output.format",
			Message: "must be 'human' or 'json'",
		}
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return &models.ValidationError{
			Field:   "logging.format",
			Message: "must be 'json' or 'text'",
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return &models.ValidationError{
			Field:   "logging.level",
			Message: "must be 'debug', 'info', 'warn', or 'error'",
		}
	}

	return nil
}
