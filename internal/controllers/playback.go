package controllers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"video-quality-dashboard/internal/heatmap"
	"video-quality-dashboard/internal/logger"
	"video-quality-dashboard/internal/metrics"
	"video-quality-dashboard/internal/models"
	"video-quality-dashboard/internal/opencv/safe"
	"video-quality-dashboard/internal/services"
	"video-quality-dashboard/internal/video"
)

// ErrTerminated is returned by commands issued after Quit.
var ErrTerminated = errors.New("playback session terminated")

var (
	labelColor      = green
	differenceColor = white
)

// Options configure a PlaybackController.
type Options struct {
	DisplayWidth  int
	DisplayHeight int
	Alpha         float64
	AltAlpha      float64
	Schemes       []heatmap.Scheme
	PollInterval  time.Duration
	Keys          KeyMap
}

// Analyzer renders the difference overlay and its stats for one frame pair.
// *heatmap.Generator is the production implementation.
type Analyzer interface {
	Analyze(original, compressed *safe.Mat, alpha float64, scheme heatmap.Scheme) (*safe.Mat, heatmap.DifferenceStats, error)
}

// PlaybackController owns the frame pair and the metrics cache of one
// interactive session. It is driven from a single goroutine.
type PlaybackController struct {
	pair   *video.Pair
	engine metrics.Engine
	heat   Analyzer
	cache  *models.MetricsCache
	opts   Options
	log    logger.Logger

	state       models.PlaybackState
	schemeIndex int
	display     *Display
	dirty       bool
}

// NewPlaybackController starts Paused at frame 0 with an unset cache.
func NewPlaybackController(pair *video.Pair, engine metrics.Engine, heat Analyzer, opts Options, log logger.Logger) (*PlaybackController, error) {
	total := pair.FrameCount()
	if total <= 0 {
		return nil, fmt.Errorf("frame pair has no frames")
	}
	if len(opts.Schemes) == 0 {
		opts.Schemes = []heatmap.Scheme{heatmap.SchemeJet}
	}
	if opts.Alpha <= 0 || opts.Alpha > 1 {
		return nil, fmt.Errorf("heatmap alpha %.2f outside (0,1]", opts.Alpha)
	}
	if opts.AltAlpha <= 0 || opts.AltAlpha > 1 {
		opts.AltAlpha = opts.Alpha
	}
	if opts.Keys == nil {
		opts.Keys = KeyMap{}
	}

	return &PlaybackController{
		pair:   pair,
		engine: engine,
		heat:   heat,
		cache:  models.NewMetricsCache(total),
		opts:   opts,
		log:    log,
		state: models.PlaybackState{
			TotalFrames:  total,
			Mode:         models.Paused,
			HeatmapAlpha: opts.Alpha,
			Scheme:       opts.Schemes[0],
		},
	}, nil
}

func (pc *PlaybackController) State() models.PlaybackState { return pc.state }

func (pc *PlaybackController) Cache() *models.MetricsCache { return pc.cache }

// Display is the most recently composed frame, or nil before the first
// successful seek.
func (pc *PlaybackController) Display() *Display { return pc.display }

func (pc *PlaybackController) Terminated() bool {
	return pc.state.Mode == models.Terminated
}

// FrameInterval is the autoplay pacing, round(1000/fps) milliseconds.
func (pc *PlaybackController) FrameInterval() time.Duration {
	fps := pc.pair.FPS()
	if fps <= 0 {
		fps = video.DefaultFPS
	}
	return time.Duration(math.Round(1000/fps)) * time.Millisecond
}

// Wait is how long the event loop should poll for input before the next
// iteration.
func (pc *PlaybackController) Wait() time.Duration {
	if pc.state.Playing() {
		return pc.FrameInterval()
	}
	return pc.opts.PollInterval
}

// Precompute fills the cache before interactive use.
func (pc *PlaybackController) Precompute(ctx context.Context, svc *services.PrecomputeService, open video.PairOpener, workers int) (services.PrecomputeResult, error) {
	if pc.Terminated() {
		return services.PrecomputeResult{StoppedAt: -1}, ErrTerminated
	}
	return svc.Precompute(ctx, pc.pair, open, workers, pc.cache)
}

// Seek moves both sources to index, clamped to the frame range, and
// recomposes the display. A read failure leaves the frame index, the display
// and the cache untouched; end of stream also stops autoplay.
func (pc *PlaybackController) Seek(index int) error {
	if pc.Terminated() {
		return ErrTerminated
	}

	index = pc.state.Clamp(index)
	mode := pc.state.Mode
	pc.state.Mode = models.Seeking

	if err := pc.show(index, mode); err != nil {
		if errors.Is(err, video.ErrEndOfStream) && mode == models.Playing {
			mode = models.Paused
		}
		pc.state.Mode = mode
		pc.log.Warning("PlaybackController", "frame unavailable", map[string]interface{}{
			"frame": index,
			"error": err.Error(),
		})
		return err
	}

	pc.state.Frame = index
	pc.state.Mode = mode
	return nil
}

// show reads the pair at index and replaces the display. mode is the state
// the panel should report.
func (pc *PlaybackController) show(index int, mode models.Mode) error {
	original, compressed, err := pc.pair.ReadAt(index)
	if err != nil {
		return err
	}
	defer original.Close()
	defer compressed.Close()

	sample, cached := pc.cache.Get(index)
	if !cached {
		sample, err = metrics.Evaluate(pc.engine, original, compressed)
		if err != nil {
			return fmt.Errorf("frame %d: %w", index, err)
		}
	}

	overlay, stats, err := pc.heat.Analyze(original, compressed, pc.state.HeatmapAlpha, pc.state.Scheme)
	if err != nil {
		return fmt.Errorf("frame %d heatmap: %w", index, err)
	}
	defer overlay.Close()

	state := pc.state
	state.Frame = index
	state.Mode = mode

	w, h := pc.opts.DisplayWidth, pc.opts.DisplayHeight
	d := &Display{State: state, Sample: sample, Stats: stats}
	if d.Original, err = LabelView(original, "Original", w, h, labelColor); err != nil {
		d.Close()
		return err
	}
	if d.Compressed, err = LabelView(compressed, "Compressed", w, h, labelColor); err != nil {
		d.Close()
		return err
	}
	if d.Difference, err = LabelView(overlay, "Difference", w, h, differenceColor); err != nil {
		d.Close()
		return err
	}
	if d.Panel, err = Compose(state, sample, stats, pc.opts.Keys.Help(), w); err != nil {
		d.Close()
		return err
	}

	// The slot is written only once the frame is fully shown.
	if !cached {
		if _, err := pc.cache.Set(index, sample); err != nil {
			d.Close()
			return err
		}
	}
	pc.replaceDisplay(d)
	return nil
}

func (pc *PlaybackController) replaceDisplay(d *Display) {
	if pc.display != nil {
		pc.display.Close()
	}
	pc.display = d
	pc.dirty = true
}

// recomposePanel redraws only the control panel after a state change that
// does not affect the frames.
func (pc *PlaybackController) recomposePanel() {
	if pc.display == nil {
		return
	}
	panel, err := Compose(pc.state, pc.display.Sample, pc.display.Stats, pc.opts.Keys.Help(), pc.opts.DisplayWidth)
	if err != nil {
		pc.log.Error("PlaybackController", err, nil)
		return
	}
	if pc.display.Panel != nil {
		pc.display.Panel.Close()
	}
	pc.display.Panel = panel
	pc.display.State = pc.state
	pc.dirty = true
}

// refresh recomposes the current frame after a presentation change.
func (pc *PlaybackController) refresh() error {
	return pc.Seek(pc.state.Frame)
}

// Toggle flips between Playing and Paused.
func (pc *PlaybackController) Toggle() error {
	switch pc.state.Mode {
	case models.Terminated:
		return ErrTerminated
	case models.Playing:
		pc.state.Mode = models.Paused
	default:
		pc.state.Mode = models.Playing
	}
	pc.recomposePanel()
	return nil
}

// Tick advances one frame while Playing. Reaching the last frame pauses;
// playback does not loop.
func (pc *PlaybackController) Tick() error {
	if pc.state.Mode != models.Playing {
		return nil
	}

	last := pc.state.TotalFrames - 1
	if pc.state.Frame >= last {
		pc.state.Mode = models.Paused
		pc.recomposePanel()
		return nil
	}

	if err := pc.Seek(pc.state.Frame + 1); err != nil {
		pc.state.Mode = models.Paused
		pc.recomposePanel()
		return err
	}

	if pc.state.Frame >= last {
		pc.state.Mode = models.Paused
		pc.recomposePanel()
	}
	return nil
}

func (pc *PlaybackController) Next() error {
	if pc.Terminated() {
		return ErrTerminated
	}
	if pc.state.Frame >= pc.state.TotalFrames-1 {
		return nil
	}
	return pc.Seek(pc.state.Frame + 1)
}

func (pc *PlaybackController) Prev() error {
	if pc.Terminated() {
		return ErrTerminated
	}
	if pc.state.Frame <= 0 {
		return nil
	}
	return pc.Seek(pc.state.Frame - 1)
}

// ToggleAlpha switches the overlay strength between the two configured
// values.
func (pc *PlaybackController) ToggleAlpha() error {
	if pc.Terminated() {
		return ErrTerminated
	}
	if pc.state.HeatmapAlpha == pc.opts.Alpha {
		pc.state.HeatmapAlpha = pc.opts.AltAlpha
	} else {
		pc.state.HeatmapAlpha = pc.opts.Alpha
	}
	return pc.refresh()
}

// CycleScheme moves to the next configured colormap.
func (pc *PlaybackController) CycleScheme() error {
	if pc.Terminated() {
		return ErrTerminated
	}
	pc.schemeIndex = (pc.schemeIndex + 1) % len(pc.opts.Schemes)
	pc.state.Scheme = pc.opts.Schemes[pc.schemeIndex]
	return pc.refresh()
}

// Quit ends the session and releases the frame sources. Further commands
// return ErrTerminated.
func (pc *PlaybackController) Quit() error {
	if pc.Terminated() {
		return nil
	}
	pc.state.Mode = models.Terminated
	if pc.display != nil {
		pc.display.Close()
		pc.display = nil
	}
	pc.dirty = false

	pc.log.Info("PlaybackController", "session terminated", map[string]interface{}{
		"frame":  pc.state.Frame,
		"cached": pc.cache.Filled(),
	})
	return pc.pair.Close()
}

// Shutdown lets the shutdown manager end the session.
func (pc *PlaybackController) Shutdown() {
	if err := pc.Quit(); err != nil {
		pc.log.Error("PlaybackController", err, nil)
	}
}

// HandleEvent dispatches one input event.
func (pc *PlaybackController) HandleEvent(ev Event) error {
	switch ev.Kind {
	case EventNone:
		return nil
	case EventClose:
		return pc.Quit()
	case EventSeek:
		return pc.Seek(ev.Frame)
	case EventKey:
	default:
		return fmt.Errorf("unknown event kind %d", ev.Kind)
	}

	if pc.Terminated() {
		return ErrTerminated
	}

	switch pc.opts.Keys.Lookup(ev.Key) {
	case CommandToggle:
		return pc.Toggle()
	case CommandNext:
		return pc.Next()
	case CommandPrev:
		return pc.Prev()
	case CommandQuit:
		return pc.Quit()
	case CommandAlpha:
		return pc.ToggleAlpha()
	case CommandColormap:
		return pc.CycleScheme()
	default:
		return nil
	}
}

// Run drives the session until quit, a close event, or ctx cancellation: it
// renders when the display changed, polls input for Wait, dispatches the
// event and advances one frame while Playing.
func (pc *PlaybackController) Run(ctx context.Context, input Input, sink Sink) error {
	if err := pc.Seek(pc.state.Frame); err != nil && errors.Is(err, ErrTerminated) {
		return err
	}

	pc.log.Info("PlaybackController", "dashboard started", map[string]interface{}{
		"frames":         pc.state.TotalFrames,
		"frame_interval": pc.FrameInterval().String(),
	})

	for {
		select {
		case <-ctx.Done():
			return pc.Quit()
		default:
		}

		if pc.dirty && pc.display != nil {
			if err := sink.Render(pc.display); err != nil {
				pc.log.Error("PlaybackController", err, map[string]interface{}{"frame": pc.state.Frame})
			}
			pc.dirty = false
		}

		ev := input.Poll(pc.Wait())
		if err := pc.HandleEvent(ev); err != nil && !errors.Is(err, ErrTerminated) {
			pc.log.Debug("PlaybackController", "event not applied", map[string]interface{}{
				"error": err.Error(),
			})
		}
		if pc.Terminated() {
			return nil
		}

		if err := pc.Tick(); err != nil {
			pc.log.Debug("PlaybackController", "autoplay stopped", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
}
