package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdejongh/folderextractor/pkg/models"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 65536, cfg.Performance.BufferSize)
	assert.Equal(t, "human", cfg.Output.Format)
	assert.True(t, cfg.Output.Progress)
	assert.False(t, cfg.Logging.Enabled)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"SmallBuffer", func(c *Config) { c.Performance.BufferSize = 512 }, "performance.buffer_size"},
		{"UnknownFormat", func(c *Config) { c.Output.Format = "xml" }, "output.format"},
		{"UnknownLogFormat", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"UnknownLogLevel", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			var ve *models.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Output.Format = "json"
	cfg.Logging.Enabled = true
	cfg.Logging.Level = "debug"
	require.NoError(t, SaveToFile(cfg, path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadFromFile_PartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output:\n  format: json\n"), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.Equal(t, 65536, cfg.Performance.BufferSize)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFromFile(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("output: [unclosed"), 0644))
	_, err = LoadFromFile(broken)
	assert.ErrorContains(t, err, "failed to parse config file")

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("performance:\n  buffer_size: 10\n"), 0644))
	_, err = LoadFromFile(invalid)
	assert.ErrorContains(t, err, "invalid configuration")
}

func TestDefaultConfigPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path, err := DefaultConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("folderextractor", "config.yaml"),
		filepath.Join(filepath.Base(filepath.Dir(path)), filepath.Base(path)))
}

func TestLoadDefault_NoFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
