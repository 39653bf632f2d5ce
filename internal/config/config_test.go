package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 640, cfg.Display.Width)
	assert.Equal(t, 360, cfg.Display.Height)
	assert.Equal(t, 10.0, cfg.Heatmap.Threshold)
	assert.Equal(t, 0.5, cfg.Heatmap.Alpha)
	assert.Equal(t, 300, cfg.Batch.MaxFrames)
	assert.Equal(t, []int{32}, cfg.Keys["toggle"])
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMergesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vqdash.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level = "debug"

[display]
width = 800

[heatmap]
threshold = 25
schemes = ["hot"]

[playback]
workers = 2

[keys]
quit = [120]
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 800, cfg.Display.Width)
	assert.Equal(t, 360, cfg.Display.Height)
	assert.Equal(t, 25.0, cfg.Heatmap.Threshold)
	assert.Equal(t, []string{"hot"}, cfg.Heatmap.Schemes)
	assert.Equal(t, 2, cfg.Playback.Workers)
	assert.Equal(t, []int{120}, cfg.Keys["quit"])
	assert.Equal(t, []int{32}, cfg.Keys["toggle"])
}

func TestLoadFileTurnsDefaultsOff(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vqdash.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_json = false

[heatmap]
threshold = 0

[playback]
precompute = false

[batch]
sample = true
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.Playback.Precompute)
	assert.Equal(t, 0.0, cfg.Heatmap.Threshold)
	assert.False(t, cfg.LogJSON)
	assert.True(t, cfg.Batch.Sample)
	assert.Equal(t, 0.5, cfg.Heatmap.Alpha)
	assert.Equal(t, 8, cfg.Playback.FrameCacheSize)
}

func TestLoadRejectsUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typo.toml")
	require.NoError(t, os.WriteFile(path, []byte("[playback]\nprecomptue = false\n"), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "precomptue")
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[heatmap]\nalpha = 1.5\n"), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "alpha")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"threshold", func(c *Config) { c.Heatmap.Threshold = 300 }},
		{"size", func(c *Config) { c.Display.Width = 0 }},
		{"ui", func(c *Config) { c.Display.UI = "tk" }},
		{"schemes", func(c *Config) { c.Heatmap.Schemes = nil }},
		{"workers", func(c *Config) { c.Playback.Workers = 0 }},
		{"batch", func(c *Config) { c.Batch.MaxFrames = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
