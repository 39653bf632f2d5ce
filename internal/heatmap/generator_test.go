package heatmap

import (
	"errors"
	"math"
	"testing"

	"video-quality-dashboard/internal/metrics"
	"video-quality-dashboard/internal/opencv/safe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMap(t *testing.T, rows, cols, channels int, data []byte) *safe.Mat {
	t.Helper()
	m, err := safe.NewMatFromBytes(rows, cols, channels, data)
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m
}

func closeLater(t *testing.T) func(m *safe.Mat, err error) *safe.Mat {
	return func(m *safe.Mat, err error) *safe.Mat {
		t.Helper()
		require.NoError(t, err)
		t.Cleanup(m.Close)
		return m
	}
}

func countNonZero(data []byte) int {
	n := 0
	for _, v := range data {
		if v != 0 {
			n++
		}
	}
	return n
}

func ramp(n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(i * 255 / (n - 1))
	}
	return out
}

func TestIdenticalZeroFrames(t *testing.T) {
	g := NewGenerator()
	a := newMap(t, 2, 2, 1, []byte{0, 0, 0, 0})
	b := newMap(t, 2, 2, 1, []byte{0, 0, 0, 0})

	diff := closeLater(t)(g.Difference(a, b))
	assert.Equal(t, []byte{0, 0, 0, 0}, diff.Bytes())

	stats, err := g.ComputeStats(a, b)
	require.NoError(t, err)
	assert.Equal(t, DifferenceStats{}, stats)
}

func TestDifferenceReducesAfterDifferencing(t *testing.T) {
	g := NewGenerator()
	// Both pixels have the same luma, so reduce-then-difference would give 0.
	a := newMap(t, 1, 1, 3, []byte{0, 0, 100})
	b := newMap(t, 1, 1, 3, []byte{0, 51, 0})

	diff := closeLater(t)(g.Difference(a, b))
	require.Equal(t, 1, diff.Channels())
	assert.InDelta(t, 60, float64(diff.Bytes()[0]), 1)
}

func TestDifferenceRejectsMismatch(t *testing.T) {
	g := NewGenerator()
	a := newMap(t, 2, 2, 1, make([]byte, 4))
	b := newMap(t, 2, 3, 1, make([]byte, 6))

	_, err := g.Difference(a, b)
	assert.True(t, errors.Is(err, metrics.ErrDimensionMismatch))
}

func TestThresholdZeroesBelowFloor(t *testing.T) {
	g := NewGenerator()
	m := newMap(t, 1, 4, 1, []byte{9, 10, 11, 200})

	cases := []struct {
		threshold float64
		want      []byte
	}{
		{10, []byte{0, 10, 11, 200}},
		{10.3, []byte{0, 0, 11, 200}},
		{9.5, []byte{0, 10, 11, 200}},
		{0, []byte{9, 10, 11, 200}},
		{255, []byte{0, 0, 0, 0}},
	}
	for _, tc := range cases {
		out := closeLater(t)(g.Threshold(m, tc.threshold))
		assert.Equal(t, tc.want, out.Bytes(), "threshold %.1f", tc.threshold)
	}
}

func TestThresholdIsMonotonic(t *testing.T) {
	g := NewGenerator()
	m := newMap(t, 16, 16, 1, ramp(256))

	prev := math.MaxInt
	for th := 0.0; th <= 255; th += 5 {
		out := closeLater(t)(g.Threshold(m, th))
		n := countNonZero(out.Bytes())
		assert.LessOrEqual(t, n, prev, "threshold %.0f", th)
		prev = n
	}
}

func TestNormalize(t *testing.T) {
	g := NewGenerator()
	m := newMap(t, 2, 3, 1, []byte{0, 10, 20, 40, 5, 0})

	out := closeLater(t)(g.Normalize(m))
	data := out.Bytes()
	assert.Equal(t, byte(255), data[3])
	for _, v := range data {
		assert.LessOrEqual(t, v, byte(255))
	}
	assert.Equal(t, byte(0), data[0])
	assert.InDelta(t, 128, float64(data[2]), 1)
}

func TestNormalizeAllZero(t *testing.T) {
	g := NewGenerator()
	m := newMap(t, 3, 3, 1, make([]byte, 9))

	out := closeLater(t)(g.Normalize(m))
	assert.Equal(t, make([]byte, 9), out.Bytes())
}

func TestNormalizeBelowThresholdMapIsZero(t *testing.T) {
	g := NewGenerator()
	m := newMap(t, 1, 3, 1, []byte{3, 9, 1})

	thresholded := closeLater(t)(g.Threshold(m, DefaultThreshold))
	out := closeLater(t)(g.Normalize(thresholded))
	assert.Equal(t, []byte{0, 0, 0}, out.Bytes())
}

func TestColorize(t *testing.T) {
	g := NewGenerator()
	m := newMap(t, 1, 2, 1, []byte{0, 255})

	for _, scheme := range []Scheme{SchemeJet, SchemeHot, SchemeRainbow, SchemeLab} {
		out := closeLater(t)(g.Colorize(m, scheme))
		assert.Equal(t, 3, out.Channels(), scheme.String())
		assert.Equal(t, 2, out.Cols(), scheme.String())
	}

	lab := closeLater(t)(g.Colorize(m, SchemeLab))
	data := lab.Bytes()
	assert.Equal(t, labLUT[0][:], data[0:3])
	assert.Equal(t, labLUT[255][:], data[3:6])
}

func TestOverlayEndpoints(t *testing.T) {
	g := NewGenerator()
	original := newMap(t, 2, 2, 1, []byte{10, 20, 30, 40})
	heat := newMap(t, 2, 2, 3, []byte{
		255, 0, 0, 0, 255, 0,
		0, 0, 255, 9, 9, 9,
	})

	none := closeLater(t)(g.Overlay(original, heat, 0))
	assert.Equal(t, []byte{10, 10, 10, 20, 20, 20, 30, 30, 30, 40, 40, 40}, none.Bytes())

	full := closeLater(t)(g.Overlay(original, heat, 1))
	assert.Equal(t, heat.Bytes(), full.Bytes())

	_, err := g.Overlay(original, heat, 1.5)
	assert.Error(t, err)
}

func TestOverlayResamplesHeatmap(t *testing.T) {
	g := NewGenerator()
	original := newMap(t, 4, 4, 3, make([]byte, 48))
	heat := newMap(t, 2, 2, 3, []byte{
		50, 50, 50, 50, 50, 50,
		50, 50, 50, 50, 50, 50,
	})

	out := closeLater(t)(g.Overlay(original, heat, 1))
	assert.Equal(t, 4, out.Rows())
	assert.Equal(t, 4, out.Cols())
	for _, v := range out.Bytes() {
		assert.Equal(t, byte(50), v)
	}
}

func TestStats(t *testing.T) {
	g := NewGenerator()
	m := newMap(t, 2, 2, 1, []byte{0, 0, 20, 40})

	stats, err := g.Stats(m)
	require.NoError(t, err)
	assert.Equal(t, 0.0, stats.MinError)
	assert.Equal(t, 40.0, stats.MaxError)
	assert.InDelta(t, 15, stats.MeanError, 1e-9)
	assert.InDelta(t, math.Sqrt(275), stats.StdError, 1e-9)
}

func TestComputeStatsUsesThresholdedMap(t *testing.T) {
	g := NewGenerator()
	a := newMap(t, 1, 4, 1, []byte{0, 0, 0, 0})
	b := newMap(t, 1, 4, 1, []byte{0, 5, 20, 40})

	stats, err := g.ComputeStats(a, b)
	require.NoError(t, err)
	assert.Equal(t, 40.0, stats.MaxError)
	assert.InDelta(t, 15, stats.MeanError, 1e-9)

	g.SetThreshold(0)
	stats, err = g.ComputeStats(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 16.25, stats.MeanError, 1e-9)
}

func TestSetThresholdClamps(t *testing.T) {
	g := NewGenerator()
	g.SetThreshold(400)
	assert.Equal(t, 255.0, g.ThresholdValue())
	g.SetThreshold(-3)
	assert.Equal(t, 0.0, g.ThresholdValue())
}

func TestGenerateHeatmapResamplesCompressed(t *testing.T) {
	g := NewGenerator()
	a := newMap(t, 4, 4, 3, make([]byte, 48))
	b := newMap(t, 2, 2, 3, make([]byte, 12))

	heat := closeLater(t)(g.GenerateHeatmap(a, b, SchemeJet))
	assert.Equal(t, 4, heat.Rows())
	assert.Equal(t, 4, heat.Cols())
	assert.Equal(t, 3, heat.Channels())
}

func TestAnalyzeMatchesComposite(t *testing.T) {
	g := NewGenerator()
	a := newMap(t, 1, 4, 1, []byte{0, 0, 0, 0})
	b := newMap(t, 1, 4, 1, []byte{0, 5, 20, 40})

	overlay, stats, err := g.Analyze(a, b, 0.5, SchemeHot)
	require.NoError(t, err)
	defer overlay.Close()

	want := closeLater(t)(g.GenerateOverlay(a, b, 0.5, SchemeHot))
	assert.Equal(t, want.Bytes(), overlay.Bytes())

	wantStats, err := g.ComputeStats(a, b)
	require.NoError(t, err)
	assert.Equal(t, wantStats, stats)
}
