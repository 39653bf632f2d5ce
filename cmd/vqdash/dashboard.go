package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"video-quality-dashboard/internal/config"
	"video-quality-dashboard/internal/controllers"
	"video-quality-dashboard/internal/heatmap"
	"video-quality-dashboard/internal/logger"
	"video-quality-dashboard/internal/metrics"
	"video-quality-dashboard/internal/opencv/memory"
	"video-quality-dashboard/internal/services"
	"video-quality-dashboard/internal/shutdown"
	"video-quality-dashboard/internal/video"
	"video-quality-dashboard/internal/views"

	"github.com/spf13/cobra"
)

type dashboardEnv struct {
	root *rootEnv

	ui           string
	threshold    float64
	noPrecompute bool
	workers      int
	width        int
	height       int
}

func newDashboardCmd(root *rootEnv) *cobra.Command {
	env := &dashboardEnv{root: root}
	cmd := &cobra.Command{
		Use:   "dashboard <original> <compressed>",
		Short: "Interactive side-by-side comparison with a difference heatmap",
		Long: `
Plays the original and compressed videos in lockstep next to a heatmap of
where they differ, with PSNR and SSIM for the current frame.

Keys: SPACE play/pause, RIGHT/d next, LEFT/a previous, h overlay strength,
c colormap, q/ESC quit. Bindings can be changed in the [keys] config table.
`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.run(cmd, args[0], args[1])
		},
	}

	env.bindFlags(cmd)
	return cmd
}

func (env *dashboardEnv) bindFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&env.ui, "ui", "", "front end: highgui or fyne")
	cmd.Flags().Float64Var(&env.threshold, "threshold", heatmap.DefaultThreshold, "heatmap noise floor on the 0-255 scale")
	cmd.Flags().BoolVar(&env.noPrecompute, "no-precompute", false, "compute metrics lazily as frames are visited")
	cmd.Flags().IntVar(&env.workers, "workers", 0, "parallel precompute workers (0 uses the config)")
	cmd.Flags().IntVar(&env.width, "width", 0, "view width (0 uses the config)")
	cmd.Flags().IntVar(&env.height, "height", 0, "view height (0 uses the config)")
}

func (env *dashboardEnv) applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	if env.ui != "" {
		cfg.Display.UI = env.ui
	}
	if cmd.Flags().Changed("threshold") {
		cfg.Heatmap.Threshold = env.threshold
	}
	if env.noPrecompute {
		cfg.Playback.Precompute = false
	}
	if env.workers > 0 {
		cfg.Playback.Workers = env.workers
	}
	if env.width > 0 {
		cfg.Display.Width = env.width
	}
	if env.height > 0 {
		cfg.Display.Height = env.height
	}
	return cfg.Validate()
}

func (env *dashboardEnv) run(cmd *cobra.Command, originalPath, compressedPath string) error {
	cfg, err := env.root.loadConfig()
	if err != nil {
		return err
	}
	if err := env.applyFlags(cmd, cfg); err != nil {
		return err
	}
	log := newLogger(cfg)

	schemes, err := heatmap.ParseSchemes(cfg.Heatmap.Schemes)
	if err != nil {
		return err
	}
	keys, err := controllers.NewKeyMap(cfg.Keys)
	if err != nil {
		return err
	}

	tracker := memory.NewTracker(log)
	openPair := video.BindPair(
		video.CachedOpener(video.CaptureOpener(originalPath, tracker, log), cfg.Playback.FrameCacheSize),
		video.CachedOpener(video.CaptureOpener(compressedPath, tracker, log), cfg.Playback.FrameCacheSize),
	)
	pair, err := openPair()
	if err != nil {
		return fmt.Errorf("cannot open videos: %w", err)
	}

	log.Info("Dashboard", "loaded videos", map[string]interface{}{
		"frames": pair.FrameCount(),
		"fps":    pair.FPS(),
	})

	gen := heatmap.NewGenerator()
	gen.SetThreshold(cfg.Heatmap.Threshold)
	engine := metrics.NewCalculator()

	pc, err := controllers.NewPlaybackController(pair, engine, gen, controllers.Options{
		DisplayWidth:  cfg.Display.Width,
		DisplayHeight: cfg.Display.Height,
		Alpha:         cfg.Heatmap.Alpha,
		AltAlpha:      cfg.Heatmap.AltAlpha,
		Schemes:       schemes,
		PollInterval:  cfg.PollInterval(),
		Keys:          keys,
	}, log)
	if err != nil {
		pair.Close()
		return err
	}

	mgr := shutdown.NewManager(cmd.Context(), log)
	stopListening := mgr.Listen()
	defer stopListening()
	mgr.Register("memory", tracker)
	mgr.Register("playback", pc)
	defer mgr.Shutdown()

	ctx := mgr.Context()
	if cfg.Playback.Precompute {
		svc := services.NewPrecomputeService(engine, log)
		if stderrIsTerminal() && !cfg.LogJSON {
			svc.SetProgressWriter(os.Stderr)
		}
		if _, err := pc.Precompute(ctx, svc, openPair, cfg.Playback.Workers); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}

	switch cfg.Display.UI {
	case "fyne":
		return runFyne(ctx, pc, cfg, log)
	default:
		gui := views.NewHighGUI(pair.FrameCount())
		defer gui.Close()
		return pc.Run(ctx, gui, gui)
	}
}

// runFyne keeps the fyne event loop on the calling goroutine and drives the
// controller from a second one.
func runFyne(ctx context.Context, pc *controllers.PlaybackController, cfg *config.Config, log logger.Logger) error {
	view := views.NewFyneView(pc.State().TotalFrames, cfg.Display.Width, cfg.Display.Height, log)

	done := make(chan error, 1)
	go func() {
		done <- pc.Run(ctx, view, view)
		view.Close()
	}()

	view.ShowAndRun()
	return <-done
}
