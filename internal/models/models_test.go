package models

import (
	"math"
	"sync"
	"testing"

	"video-quality-dashboard/internal/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCacheStartsUnset(t *testing.T) {
	c := NewMetricsCache(5)
	assert.Equal(t, 5, c.Len())
	assert.Equal(t, 0, c.Filled())
	for i := -1; i <= 5; i++ {
		_, ok := c.Get(i)
		assert.False(t, ok, "index %d", i)
	}
}

func TestMetricsCacheWritesOnce(t *testing.T) {
	c := NewMetricsCache(3)

	stored, err := c.Set(1, metrics.Sample{PSNR: 30, SSIM: 0.9})
	require.NoError(t, err)
	assert.True(t, stored)

	stored, err = c.Set(1, metrics.Sample{PSNR: 10, SSIM: 0.1})
	require.NoError(t, err)
	assert.False(t, stored)

	got, ok := c.Get(1)
	require.True(t, ok)
	assert.Equal(t, metrics.Sample{PSNR: 30, SSIM: 0.9}, got)
	assert.Equal(t, 1, c.Filled())
}

func TestMetricsCacheRejectsOutOfRange(t *testing.T) {
	c := NewMetricsCache(2)
	_, err := c.Set(2, metrics.Sample{})
	assert.Error(t, err)
	_, err = c.Set(-1, metrics.Sample{})
	assert.Error(t, err)
}

func TestMetricsCacheDisjointWriters(t *testing.T) {
	c := NewMetricsCache(100)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(start int) {
			defer wg.Done()
			for i := start; i < start+25; i++ {
				_, _ = c.Set(i, metrics.Sample{PSNR: float64(i), SSIM: 1})
			}
		}(w * 25)
	}
	wg.Wait()

	assert.True(t, c.Complete())
	samples := c.Samples()
	require.Len(t, samples, 100)
	assert.Equal(t, 42.0, samples[42].PSNR)
}

func TestMetricsCacheKeepsInfiniteSentinel(t *testing.T) {
	c := NewMetricsCache(1)
	_, err := c.Set(0, metrics.Sample{PSNR: math.Inf(1), SSIM: 1})
	require.NoError(t, err)

	got, _ := c.Get(0)
	assert.True(t, got.Identical())
}

func TestPlaybackStateClamp(t *testing.T) {
	s := PlaybackState{TotalFrames: 10}
	assert.Equal(t, 0, s.Clamp(-5))
	assert.Equal(t, 9, s.Clamp(1000))
	assert.Equal(t, 4, s.Clamp(4))
}

func TestPlaybackStateProgress(t *testing.T) {
	assert.Equal(t, 0.0, PlaybackState{TotalFrames: 1}.Progress())
	assert.InDelta(t, 0.5, PlaybackState{Frame: 2, TotalFrames: 5}.Progress(), 1e-9)
	assert.True(t, PlaybackState{Mode: Playing}.Playing())
	assert.Equal(t, "TERMINATED", Terminated.String())
}
