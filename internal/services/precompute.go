package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"video-quality-dashboard/internal/logger"
	"video-quality-dashboard/internal/metrics"
	"video-quality-dashboard/internal/models"
	"video-quality-dashboard/internal/video"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
)

const progressLogInterval = 100

// PrecomputeResult summarises a precompute pass.
type PrecomputeResult struct {
	Computed int
	Failed   int
	// StoppedAt is the lowest index at which a source ran dry, or -1.
	StoppedAt int
	Elapsed   time.Duration
}

// PrecomputeService fills a MetricsCache ahead of interactive use.
type PrecomputeService struct {
	engine   metrics.Engine
	log      logger.Logger
	progress io.Writer
}

// NewPrecomputeService creates a service that logs through log.
func NewPrecomputeService(engine metrics.Engine, log logger.Logger) *PrecomputeService {
	return &PrecomputeService{engine: engine, log: log}
}

// SetProgressWriter enables a progress bar on w. nil disables it.
func (ps *PrecomputeService) SetProgressWriter(w io.Writer) {
	ps.progress = w
}

// Precompute computes every unset slot of cache. With workers <= 1 or a nil
// opener it walks pair sequentially; otherwise each worker opens a private
// pair through open and owns one contiguous index range. A cancelled ctx
// stops the pass between frames.
func (ps *PrecomputeService) Precompute(ctx context.Context, pair *video.Pair, open video.PairOpener, workers int, cache *models.MetricsCache) (PrecomputeResult, error) {
	start := time.Now()
	total := cache.Len()

	ps.log.Info("Precompute", "precompute started", map[string]interface{}{
		"frames":  total,
		"workers": workers,
	})

	bar := ps.newBar(total)
	counter := &progressCounter{log: ps.log, total: total, bar: bar}

	var result PrecomputeResult
	var err error
	if workers <= 1 || open == nil {
		result, err = ps.computeRange(ctx, pair, cache, 0, total, counter)
	} else {
		result, err = ps.parallel(ctx, open, cache, workers, counter)
	}
	result.Elapsed = time.Since(start)

	if bar != nil {
		_ = bar.Finish()
	}

	if err != nil {
		ps.log.Warning("Precompute", "precompute aborted", map[string]interface{}{
			"computed": result.Computed,
			"error":    err.Error(),
		})
		return result, err
	}

	ps.log.Info("Precompute", "precompute completed", map[string]interface{}{
		"computed":   result.Computed,
		"failed":     result.Failed,
		"filled":     cache.Filled(),
		"complete":   cache.Complete(),
		"stopped_at": result.StoppedAt,
		"elapsed_ms": result.Elapsed.Milliseconds(),
	})
	return result, nil
}

func (ps *PrecomputeService) parallel(ctx context.Context, open video.PairOpener, cache *models.MetricsCache, workers int, counter *progressCounter) (PrecomputeResult, error) {
	total := cache.Len()
	if workers > total {
		workers = total
	}
	if workers < 1 {
		return PrecomputeResult{StoppedAt: -1}, nil
	}

	chunk := (total + workers - 1) / workers
	results := make([]PrecomputeResult, workers)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > total {
			hi = total
		}
		if lo >= hi {
			results[w].StoppedAt = -1
			continue
		}

		g.Go(func() error {
			pair, err := open()
			if err != nil {
				return fmt.Errorf("worker %d: %w", w, err)
			}
			defer pair.Close()

			r, err := ps.computeRange(gctx, pair, cache, lo, hi, counter)
			results[w] = r
			return err
		})
	}
	err := g.Wait()

	merged := PrecomputeResult{StoppedAt: -1}
	for _, r := range results {
		merged.Computed += r.Computed
		merged.Failed += r.Failed
		if r.StoppedAt >= 0 && (merged.StoppedAt < 0 || r.StoppedAt < merged.StoppedAt) {
			merged.StoppedAt = r.StoppedAt
		}
	}
	return merged, err
}

// computeRange fills [lo, hi) from pair. End of stream ends the range early
// without an error.
func (ps *PrecomputeService) computeRange(ctx context.Context, pair *video.Pair, cache *models.MetricsCache, lo, hi int, counter *progressCounter) (PrecomputeResult, error) {
	result := PrecomputeResult{StoppedAt: -1}

	for i := lo; i < hi; i++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if _, ok := cache.Get(i); ok {
			counter.step()
			continue
		}

		sample, err := EvaluateFrame(ps.engine, pair, i)
		if err != nil {
			if errors.Is(err, video.ErrEndOfStream) {
				ps.log.Warning("Precompute", "source ended early", map[string]interface{}{
					"frame": i,
					"error": err.Error(),
				})
				result.StoppedAt = i
				return result, nil
			}
			ps.log.Error("Precompute", err, map[string]interface{}{"frame": i})
			result.Failed++
			counter.step()
			continue
		}

		if _, err := cache.Set(i, sample); err != nil {
			return result, err
		}
		result.Computed++
		counter.step()
	}
	return result, nil
}

// EvaluateFrame reads the pair at index and runs both kernels on it.
func EvaluateFrame(engine metrics.Engine, pair *video.Pair, index int) (metrics.Sample, error) {
	original, compressed, err := pair.ReadAt(index)
	if err != nil {
		return metrics.Sample{}, err
	}
	defer original.Close()
	defer compressed.Close()

	sample, err := metrics.Evaluate(engine, original, compressed)
	if err != nil {
		return metrics.Sample{}, fmt.Errorf("frame %d: %w", index, err)
	}
	return sample, nil
}

func (ps *PrecomputeService) newBar(total int) *progressbar.ProgressBar {
	if ps.progress == nil || total == 0 {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(ps.progress),
		progressbar.OptionSetDescription("Precomputing metrics"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

// progressCounter is shared by all workers of one pass.
type progressCounter struct {
	mu    sync.Mutex
	log   logger.Logger
	total int
	done  int
	bar   *progressbar.ProgressBar
}

func (pc *progressCounter) step() {
	pc.mu.Lock()
	pc.done++
	done := pc.done
	pc.mu.Unlock()

	if pc.bar != nil {
		_ = pc.bar.Add(1)
	}
	if done%progressLogInterval == 0 {
		pc.log.Info("Precompute", "progress", map[string]interface{}{
			"frames":  done,
			"total":   pc.total,
			"percent": fmt.Sprintf("%.1f", float64(done)/float64(pc.total)*100),
		})
	}
}
