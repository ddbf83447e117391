package cli

import (
	"fmt"

	"github.com/sdejongh/folderextractor/pkg/config"
	"github.com/sdejongh/folderextractor/pkg/models"
)

// validateRunFlags validates the run command flags
func validateRunFlags() error {
	if runFlags.Output != "" {
		validFormats := map[string]bool{"human": true, "json": true}
		if !validFormats[runFlags.Output] {
			return fmt.Errorf("invalid output format: %s (valid: human, json)", runFlags.Output)
		}
	}

	validLogFormats := map[string]bool{"text": true, "json": true}
	if !validLogFormats[runFlags.LogFormat] {
		return fmt.Errorf("invalid log format: %s (valid: text, json)", runFlags.LogFormat)
	}

	if globalFlags.Quiet && globalFlags.Verbose {
		return &models.ValidationError{Field: "quiet", Message: "cannot be combined with --verbose"}
	}

	return nil
}

// loadConfig loads configuration from file or returns default
func loadConfig() (*config.Config, error) {
	if globalFlags.ConfigFile != "" {
		return config.LoadFromFile(globalFlags.ConfigFile)
	}
	return config.LoadDefault()
}

// applyFlagsToConfig overrides config values with command-line flags
func applyFlagsToConfig(cfg *config.Config) {
	// Output format
	if runFlags.Output != "" {
		cfg.Output.Format = runFlags.Output
	}

	if runFlags.NoProgress {
		cfg.Output.Progress = false
	}

	if runFlags.BufferSize > 0 {
		cfg.Performance.BufferSize = runFlags.BufferSize
	}

	// Logging flags enable logging
	if runFlags.LogFile != "" {
		cfg.Logging.Enabled = true
		cfg.Logging.File = runFlags.LogFile
	}
	if runFlags.LogLevelSet {
		cfg.Logging.Level = runFlags.LogLevel
	}
	if runFlags.LogFormatSet {
		cfg.Logging.Format = runFlags.LogFormat
	}

	// Disable progress in quiet mode
	if globalFlags.Quiet {
		cfg.Output.Progress = false
		cfg.Output.Quiet = true
	}

	if globalFlags.Verbose {
		cfg.Output.Verbose = true
	}
}
