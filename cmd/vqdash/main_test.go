package main

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"video-quality-dashboard/internal/config"
	"video-quality-dashboard/internal/video"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(args ...string) error {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	return cmd.Execute()
}

func TestMetricsRequiresTwoPaths(t *testing.T) {
	assert.Error(t, execute("metrics", "only-one.mp4"))
}

func TestMetricsRejectsUnknownFormat(t *testing.T) {
	err := execute("metrics", "a.mp4", "b.mp4", "--format", "xml")
	assert.ErrorContains(t, err, "unknown format")
}

func TestMetricsMissingSourceFails(t *testing.T) {
	dir := t.TempDir()
	err := execute("metrics", filepath.Join(dir, "a.mp4"), filepath.Join(dir, "b.mp4"), "--log-level", "error")
	assert.True(t, errors.Is(err, video.ErrSourceOpen))
}

func TestDashboardMissingSourceFails(t *testing.T) {
	dir := t.TempDir()
	err := execute("dashboard", filepath.Join(dir, "a.mp4"), filepath.Join(dir, "b.mp4"), "--log-level", "error")
	assert.True(t, errors.Is(err, video.ErrSourceOpen))
}

func TestDashboardFlagsOverrideConfig(t *testing.T) {
	env := &dashboardEnv{root: &rootEnv{}}
	cmd := &cobra.Command{}
	env.bindFlags(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--ui", "fyne", "--threshold", "0", "--no-precompute", "--workers", "3"}))

	cfg := config.Default()
	require.NoError(t, env.applyFlags(cmd, cfg))
	assert.Equal(t, "fyne", cfg.Display.UI)
	assert.Equal(t, 0.0, cfg.Heatmap.Threshold)
	assert.False(t, cfg.Playback.Precompute)
	assert.Equal(t, 3, cfg.Playback.Workers)

	require.NoError(t, cmd.ParseFlags([]string{"--ui", "tk"}))
	assert.Error(t, env.applyFlags(cmd, cfg))
}

func TestSamplingOptions(t *testing.T) {
	cfg := config.Default()
	cfg.Batch.Sample = true
	opts := samplingOptions(cfg)
	assert.Equal(t, 300, opts.MaxFrames)
	assert.True(t, opts.Force)
	assert.Equal(t, 1920*1080, opts.AutoSamplePixels)
}
