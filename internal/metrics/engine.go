// Package metrics computes full-reference distortion scores between an
// original frame and its compressed counterpart.
package metrics

import (
	"errors"
	"fmt"
	"math"

	"video-quality-dashboard/internal/opencv/safe"
)

// ErrDimensionMismatch is returned when a frame pair differs in width,
// height or channel count. Callers resample and retry.
var ErrDimensionMismatch = errors.New("frame dimension mismatch")

// Sample is the cached per-frame result. PSNR is +Inf for pixel-identical
// frames; SSIM is the mean over channels.
type Sample struct {
	PSNR float64
	SSIM float64
}

// Identical reports whether the pair had zero error.
func (s Sample) Identical() bool {
	return math.IsInf(s.PSNR, 1)
}

// FormatPSNR renders the value in dB, or "inf" for identical frames.
func FormatPSNR(psnr float64) string {
	if math.IsInf(psnr, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.2f", psnr)
}

// SSIM holds one score per channel.
type SSIM []float64

// First is the first channel's score.
func (s SSIM) First() float64 {
	if len(s) == 0 {
		return 0
	}
	return s[0]
}

// Mean averages the channel scores.
func (s SSIM) Mean() float64 {
	if len(s) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range s {
		sum += v
	}
	return sum / float64(len(s))
}

// Engine is the metric kernel surface. Implementations must be safe to share
// between precompute workers.
type Engine interface {
	PSNR(a, b *safe.Mat) (float64, error)
	SSIM(a, b *safe.Mat) (SSIM, error)
}

// Evaluate runs both kernels on an index-aligned pair.
func Evaluate(engine Engine, a, b *safe.Mat) (Sample, error) {
	psnr, err := engine.PSNR(a, b)
	if err != nil {
		return Sample{}, err
	}
	ssim, err := engine.SSIM(a, b)
	if err != nil {
		return Sample{}, err
	}
	return Sample{PSNR: psnr, SSIM: ssim.Mean()}, nil
}

// checkPair is the shared precondition of every kernel.
func checkPair(a, b *safe.Mat, operation string) error {
	if err := safe.ValidatePair(a, b, operation); err != nil {
		return err
	}
	if !a.SameShape(b) {
		return fmt.Errorf("%s: %dx%dx%d vs %dx%dx%d: %w", operation,
			a.Cols(), a.Rows(), a.Channels(), b.Cols(), b.Rows(), b.Channels(), ErrDimensionMismatch)
	}
	return nil
}
