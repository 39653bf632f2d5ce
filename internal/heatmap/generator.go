// Package heatmap turns a frame pair into a false-color map of where the
// compressed frame deviates from the original.
package heatmap

import (
	"fmt"
	"math"
	"sync"

	"video-quality-dashboard/internal/metrics"
	"video-quality-dashboard/internal/opencv/conversion"
	"video-quality-dashboard/internal/opencv/safe"

	"gocv.io/x/gocv"
)

const DefaultThreshold = 10.0

// DifferenceStats summarises a thresholded difference map.
type DifferenceStats struct {
	MinError  float64
	MaxError  float64
	MeanError float64
	StdError  float64
}

func (s DifferenceStats) String() string {
	return fmt.Sprintf("err min %.0f max %.0f mean %.2f std %.2f",
		s.MinError, s.MaxError, s.MeanError, s.StdError)
}

type Generator struct {
	mu        sync.RWMutex
	threshold float64
}

func NewGenerator() *Generator {
	return &Generator{threshold: DefaultThreshold}
}

// SetThreshold sets the sensitivity floor on the 0-255 scale.
func (g *Generator) SetThreshold(t float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.threshold = math.Max(0, math.Min(255, t))
}

func (g *Generator) ThresholdValue() float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.threshold
}

// Difference is the per-pixel absolute difference, reduced to one channel by
// luma conversion after differencing.
func (g *Generator) Difference(a, b *safe.Mat) (*safe.Mat, error) {
	if err := safe.ValidateImageBuffer(a, "difference"); err != nil {
		return nil, err
	}
	if err := safe.ValidateImageBuffer(b, "difference"); err != nil {
		return nil, err
	}
	if !a.SameShape(b) {
		return nil, fmt.Errorf("difference: %dx%dx%d vs %dx%dx%d: %w",
			a.Cols(), a.Rows(), a.Channels(), b.Cols(), b.Rows(), b.Channels(), metrics.ErrDimensionMismatch)
	}

	diff := gocv.NewMat()
	gocv.AbsDiff(a.GetMat(), b.GetMat(), &diff)
	abs, err := safe.Adopt(diff, nil, "difference")
	if err != nil {
		return nil, err
	}
	if abs.Channels() == 1 {
		return abs, nil
	}
	defer abs.Close()

	return conversion.ConvertToGrayscale(abs)
}

// Threshold zeroes every value below t and keeps the rest unchanged.
func (g *Generator) Threshold(m *safe.Mat, t float64) (*safe.Mat, error) {
	if err := validateScalarMap(m, "threshold"); err != nil {
		return nil, err
	}

	dst := gocv.NewMat()
	// 8-bit thresholding keeps values strictly above floor(thresh), so
	// ceil(t)-1 keeps exactly the samples >= t.
	gocv.Threshold(m.GetMat(), &dst, float32(math.Ceil(t)-1), 255, gocv.ThresholdToZero)

	return safe.Adopt(dst, nil, "thresholded")
}

// Normalize rescales linearly so the map's maximum becomes 255. An all-zero
// map stays all zero.
func (g *Generator) Normalize(m *safe.Mat) (*safe.Mat, error) {
	if err := validateScalarMap(m, "normalize"); err != nil {
		return nil, err
	}

	_, maxVal, _, _ := gocv.MinMaxLoc(m.GetMat())
	if maxVal <= 0 {
		zeros := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), m.Rows(), m.Cols(), gocv.MatTypeCV8UC1)
		return safe.Adopt(zeros, nil, "normalized")
	}

	src := m.GetMat()
	dst := gocv.NewMat()
	gocv.AddWeighted(src, 255/float64(maxVal), src, 0, 0, &dst)

	return safe.Adopt(dst, nil, "normalized")
}

// Colorize applies the scheme's transfer function, producing a BGR image.
func (g *Generator) Colorize(m *safe.Mat, scheme Scheme) (*safe.Mat, error) {
	if err := validateScalarMap(m, "colorize"); err != nil {
		return nil, err
	}

	if cmap, ok := scheme.opencv(); ok {
		dst := gocv.NewMat()
		gocv.ApplyColorMap(m.GetMat(), &dst, cmap)
		return safe.Adopt(dst, nil, "heatmap")
	}

	if scheme != SchemeLab {
		return nil, fmt.Errorf("colorize: unsupported scheme %v", scheme)
	}
	return applyLUT(m, labLUT)
}

func applyLUT(m *safe.Mat, table *lut) (*safe.Mat, error) {
	src := m.Bytes()
	out := make([]byte, 0, len(src)*3)
	for _, v := range src {
		out = append(out, table[v][0], table[v][1], table[v][2])
	}
	return safe.NewMatFromBytes(m.Rows(), m.Cols(), 3, out)
}

// Overlay blends heat over original: alpha*heat + (1-alpha)*original. A
// grayscale original is expanded to BGR and heat is resampled to the
// original's size when they differ.
func (g *Generator) Overlay(original, heat *safe.Mat, alpha float64) (*safe.Mat, error) {
	if alpha < 0 || alpha > 1 {
		return nil, fmt.Errorf("overlay alpha %.3f outside [0,1]", alpha)
	}
	if err := safe.ValidateImageBuffer(heat, "overlay"); err != nil {
		return nil, err
	}

	base, err := conversion.ConvertToBGR(original)
	if err != nil {
		return nil, fmt.Errorf("overlay base: %w", err)
	}
	defer base.Close()

	layer, err := conversion.ConvertToBGR(heat)
	if err != nil {
		return nil, fmt.Errorf("overlay layer: %w", err)
	}
	defer layer.Close()

	if layer.Rows() != base.Rows() || layer.Cols() != base.Cols() {
		resized, err := conversion.MatchSize(layer, base)
		if err != nil {
			return nil, fmt.Errorf("overlay resample: %w", err)
		}
		defer resized.Close()
		layer = resized
	}

	dst := gocv.NewMat()
	gocv.AddWeighted(base.GetMat(), 1-alpha, layer.GetMat(), alpha, 0, &dst)

	return safe.Adopt(dst, nil, "overlay")
}

// Stats computes min, max, mean and population standard deviation.
func (g *Generator) Stats(m *safe.Mat) (DifferenceStats, error) {
	if err := validateScalarMap(m, "stats"); err != nil {
		return DifferenceStats{}, err
	}

	data := m.Bytes()
	minV, maxV := 255.0, 0.0
	var sum, sumSq float64
	for _, b := range data {
		v := float64(b)
		minV = math.Min(minV, v)
		maxV = math.Max(maxV, v)
		sum += v
		sumSq += v * v
	}

	n := float64(len(data))
	mean := sum / n
	variance := math.Max(0, sumSq/n-mean*mean)

	return DifferenceStats{
		MinError:  minV,
		MaxError:  maxV,
		MeanError: mean,
		StdError:  math.Sqrt(variance),
	}, nil
}

// thresholdedDifference aligns compressed to original and returns the
// thresholded scalar map that both display and stats are derived from.
func (g *Generator) thresholdedDifference(original, compressed *safe.Mat) (*safe.Mat, error) {
	aligned, err := align(original, compressed)
	if err != nil {
		return nil, err
	}
	defer aligned.Close()

	diff, err := g.Difference(original, aligned)
	if err != nil {
		return nil, err
	}
	defer diff.Close()

	return g.Threshold(diff, g.ThresholdValue())
}

func (g *Generator) heatmapFromMap(thresholded *safe.Mat, scheme Scheme) (*safe.Mat, error) {
	normalized, err := g.Normalize(thresholded)
	if err != nil {
		return nil, err
	}
	defer normalized.Close()

	return g.Colorize(normalized, scheme)
}

// GenerateHeatmap is colorize(normalize(threshold(difference(a, b)))).
func (g *Generator) GenerateHeatmap(original, compressed *safe.Mat, scheme Scheme) (*safe.Mat, error) {
	thresholded, err := g.thresholdedDifference(original, compressed)
	if err != nil {
		return nil, err
	}
	defer thresholded.Close()

	return g.heatmapFromMap(thresholded, scheme)
}

// GenerateOverlay blends GenerateHeatmap over the original.
func (g *Generator) GenerateOverlay(original, compressed *safe.Mat, alpha float64, scheme Scheme) (*safe.Mat, error) {
	heat, err := g.GenerateHeatmap(original, compressed, scheme)
	if err != nil {
		return nil, err
	}
	defer heat.Close()

	return g.Overlay(original, heat, alpha)
}

// ComputeStats reports statistics of the thresholded difference map.
func (g *Generator) ComputeStats(original, compressed *safe.Mat) (DifferenceStats, error) {
	thresholded, err := g.thresholdedDifference(original, compressed)
	if err != nil {
		return DifferenceStats{}, err
	}
	defer thresholded.Close()

	return g.Stats(thresholded)
}

// Analyze produces the overlay and the statistics from one difference pass.
func (g *Generator) Analyze(original, compressed *safe.Mat, alpha float64, scheme Scheme) (*safe.Mat, DifferenceStats, error) {
	thresholded, err := g.thresholdedDifference(original, compressed)
	if err != nil {
		return nil, DifferenceStats{}, err
	}
	defer thresholded.Close()

	stats, err := g.Stats(thresholded)
	if err != nil {
		return nil, DifferenceStats{}, err
	}

	heat, err := g.heatmapFromMap(thresholded, scheme)
	if err != nil {
		return nil, DifferenceStats{}, err
	}
	defer heat.Close()

	overlay, err := g.Overlay(original, heat, alpha)
	if err != nil {
		return nil, DifferenceStats{}, err
	}
	return overlay, stats, nil
}

// align returns a copy of compressed with the original's size and channel
// count.
func align(original, compressed *safe.Mat) (*safe.Mat, error) {
	if err := safe.ValidateImageBuffer(original, "align"); err != nil {
		return nil, err
	}
	if err := safe.ValidateImageBuffer(compressed, "align"); err != nil {
		return nil, err
	}

	resized, err := conversion.MatchSize(compressed, original)
	if err != nil {
		return nil, err
	}
	if resized.Channels() == original.Channels() {
		return resized, nil
	}
	defer resized.Close()

	if original.Channels() == 1 {
		return conversion.ConvertToGrayscale(resized)
	}
	return conversion.ConvertToBGR(resized)
}

func validateScalarMap(m *safe.Mat, operation string) error {
	if err := safe.ValidateImageBuffer(m, operation); err != nil {
		return err
	}
	if m.Channels() != 1 {
		return fmt.Errorf("%s requires a single-channel map, got %d channels", operation, m.Channels())
	}
	return nil
}
