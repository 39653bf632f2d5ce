package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"video-quality-dashboard/internal/logger"
	"video-quality-dashboard/internal/metrics"
	"video-quality-dashboard/internal/video"

	"github.com/schollz/progressbar/v3"
)

// Report is the aggregate of one batch comparison.
type Report struct {
	Original        string
	Compressed      string
	CompressedSize  int64
	Width           int
	Height          int
	FPS             float64
	TotalFrames     int
	FramesProcessed int
	IdenticalFrames int
	Stride          int
	// AveragePSNR skips identical frames; it is +Inf when every frame was
	// identical.
	AveragePSNR float64
	AverageSSIM float64
	Elapsed     time.Duration
}

// Duration is the original's running time in seconds.
func (r Report) Duration() float64 {
	if r.FPS <= 0 {
		return 0
	}
	return float64(r.TotalFrames) / r.FPS
}

// Rating is the 1..5 star quality rating of the averages.
func (r Report) Rating() int {
	return metrics.Rating(r.AveragePSNR, r.AverageSSIM)
}

// scoredPSNRCap stands in for the infinite PSNR of lossless output when
// scoring.
const scoredPSNRCap = 100.0

// QualityScore weighs PSNR (scaled by 50 dB) at 0.4 and SSIM at 0.6.
func (r Report) QualityScore() float64 {
	psnr := math.Min(r.AveragePSNR, scoredPSNRCap)
	return psnr/50*0.4 + r.AverageSSIM*0.6
}

// SizeMB is the compressed file size in megabytes (10^6 bytes).
func (r Report) SizeMB() float64 {
	return float64(r.CompressedSize) / 1e6
}

// Efficiency is QualityScore per megabyte of compressed output. It is zero
// when the file size is unknown.
func (r Report) Efficiency() float64 {
	if r.CompressedSize <= 0 {
		return 0
	}
	return r.QualityScore() / r.SizeMB()
}

// Recommend returns the report with the highest Efficiency. It reports false
// when no report has a known size.
func Recommend(reports []Report) (Report, bool) {
	best, found := Report{}, false
	for _, r := range reports {
		if r.CompressedSize <= 0 {
			continue
		}
		if !found || r.Efficiency() > best.Efficiency() {
			best, found = r, true
		}
	}
	return best, found
}

// SamplingOptions bound the number of frames a batch run evaluates.
type SamplingOptions struct {
	MaxFrames int
	// AutoSamplePixels enables sampling for frames of at least this area.
	AutoSamplePixels int
	Force            bool
}

// SampleStride picks a stride so at most MaxFrames frames are evaluated when
// sampling applies. Sampling applies when forced, for large frames, or for
// sequences over ten times MaxFrames.
func SampleStride(totalFrames, width, height int, opts SamplingOptions) int {
	if opts.MaxFrames <= 0 || totalFrames <= opts.MaxFrames {
		return 1
	}
	large := opts.AutoSamplePixels > 0 && width*height >= opts.AutoSamplePixels
	long := totalFrames > 10*opts.MaxFrames
	if !opts.Force && !large && !long {
		return 1
	}
	return (totalFrames + opts.MaxFrames - 1) / opts.MaxFrames
}

// Evaluator runs the non-interactive comparison.
type Evaluator struct {
	engine   metrics.Engine
	log      logger.Logger
	sampling SamplingOptions
	progress io.Writer
}

func NewEvaluator(engine metrics.Engine, log logger.Logger, sampling SamplingOptions) *Evaluator {
	return &Evaluator{engine: engine, log: log, sampling: sampling}
}

// SetProgressWriter enables a progress bar on w.
func (e *Evaluator) SetProgressWriter(w io.Writer) {
	e.progress = w
}

// Evaluate walks pair with the sampling stride and averages the metrics.
// End of stream stops the walk early; the report covers what was read.
func (e *Evaluator) Evaluate(ctx context.Context, pair *video.Pair) (Report, error) {
	start := time.Now()
	total := pair.FrameCount()
	report := Report{TotalFrames: total, FPS: pair.FPS(), AveragePSNR: math.Inf(1)}

	first, err := pair.Original.ReadAt(0)
	if err != nil {
		return report, fmt.Errorf("read first frame: %w", err)
	}
	report.Width, report.Height = first.Cols(), first.Rows()
	first.Close()

	report.Stride = SampleStride(total, report.Width, report.Height, e.sampling)
	planned := (total + report.Stride - 1) / report.Stride

	e.log.Info("Evaluator", "batch evaluation started", map[string]interface{}{
		"frames": total,
		"stride": report.Stride,
		"width":  report.Width,
		"height": report.Height,
		"fps":    report.FPS,
	})

	var bar *progressbar.ProgressBar
	if e.progress != nil {
		bar = progressbar.NewOptions(planned,
			progressbar.OptionSetWriter(e.progress),
			progressbar.OptionSetDescription("Computing metrics"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionClearOnFinish(),
		)
		defer func() { _ = bar.Finish() }()
	}

	var sumPSNR, sumSSIM float64
	for i := 0; i < total; i += report.Stride {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		sample, err := EvaluateFrame(e.engine, pair, i)
		if err != nil {
			if errors.Is(err, video.ErrEndOfStream) {
				e.log.Warning("Evaluator", "source ended early", map[string]interface{}{
					"frame": i,
				})
				break
			}
			return report, err
		}

		report.FramesProcessed++
		sumSSIM += sample.SSIM
		if sample.Identical() {
			report.IdenticalFrames++
		} else {
			sumPSNR += sample.PSNR
		}

		if bar != nil {
			_ = bar.Add(1)
		}
		if report.FramesProcessed%progressLogInterval == 0 {
			e.log.Info("Evaluator", "progress", map[string]interface{}{
				"frames":  report.FramesProcessed,
				"planned": planned,
			})
		}
	}

	if report.FramesProcessed == 0 {
		return report, fmt.Errorf("no frames could be evaluated: %w", video.ErrEndOfStream)
	}
	if finite := report.FramesProcessed - report.IdenticalFrames; finite > 0 {
		report.AveragePSNR = sumPSNR / float64(finite)
	}
	report.AverageSSIM = sumSSIM / float64(report.FramesProcessed)
	report.Elapsed = time.Since(start)

	e.log.Info("Evaluator", "batch evaluation completed", map[string]interface{}{
		"frames_processed": report.FramesProcessed,
		"identical_frames": report.IdenticalFrames,
		"avg_psnr":         metrics.FormatPSNR(report.AveragePSNR),
		"avg_ssim":         report.AverageSSIM,
		"elapsed_ms":       report.Elapsed.Milliseconds(),
	})
	return report, nil
}
