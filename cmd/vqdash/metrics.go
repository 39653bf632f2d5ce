package main

import (
	"fmt"
	"os"

	"video-quality-dashboard/internal/config"
	"video-quality-dashboard/internal/logger"
	"video-quality-dashboard/internal/metrics"
	"video-quality-dashboard/internal/services"
	"video-quality-dashboard/internal/shutdown"
	"video-quality-dashboard/internal/video"

	"github.com/spf13/cobra"
)

type metricsEnv struct {
	root *rootEnv

	format    string
	sample    bool
	maxFrames int
}

func newMetricsCmd(root *rootEnv) *cobra.Command {
	env := &metricsEnv{root: root}
	cmd := &cobra.Command{
		Use:   "metrics <original> <compressed>...",
		Short: "Average PSNR and SSIM of one or more compressed videos",
		Long: `
Compares each compressed video with the original frame by frame and reports
averagePSNR, averageSSIM, framesProcessed and totalFrames. Identical frames
are left out of the PSNR average. Long or high resolution inputs are
sub-sampled to about max-frames evaluated frames.
`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.run(cmd, args[0], args[1:])
		},
	}

	cmd.Flags().StringVar(&env.format, "format", services.FormatText, "output format: text, csv or table")
	cmd.Flags().BoolVar(&env.sample, "sample", false, "always sub-sample to max-frames")
	cmd.Flags().IntVar(&env.maxFrames, "max-frames", 0, "frames to evaluate when sampling (0 uses the config)")
	return cmd
}

func (env *metricsEnv) run(cmd *cobra.Command, originalPath string, compressedPaths []string) error {
	if !services.ValidFormat(env.format) {
		return fmt.Errorf("unknown format %q", env.format)
	}

	cfg, err := env.root.loadConfig()
	if err != nil {
		return err
	}
	if env.sample {
		cfg.Batch.Sample = true
	}
	if env.maxFrames > 0 {
		cfg.Batch.MaxFrames = env.maxFrames
	}
	log := newLogger(cfg)

	mgr := shutdown.NewManager(cmd.Context(), log)
	stopListening := mgr.Listen()
	defer stopListening()
	defer mgr.Shutdown()

	evaluator := services.NewEvaluator(metrics.NewCalculator(), log, samplingOptions(cfg))
	if stderrIsTerminal() && !cfg.LogJSON {
		evaluator.SetProgressWriter(os.Stderr)
	}

	reports := make([]services.Report, 0, len(compressedPaths))
	for _, compressedPath := range compressedPaths {
		report, err := evaluateFile(mgr, evaluator, log, originalPath, compressedPath)
		if err != nil {
			return err
		}
		reports = append(reports, report)
	}

	return services.WriteReport(cmd.OutOrStdout(), env.format, reports)
}

func samplingOptions(cfg *config.Config) services.SamplingOptions {
	return services.SamplingOptions{
		MaxFrames:        cfg.Batch.MaxFrames,
		AutoSamplePixels: cfg.Batch.AutoSamplePixels,
		Force:            cfg.Batch.Sample,
	}
}

func evaluateFile(mgr *shutdown.Manager, evaluator *services.Evaluator, log logger.Logger, originalPath, compressedPath string) (services.Report, error) {
	pair, err := video.OpenPair(
		video.CaptureOpener(originalPath, nil, log),
		video.CaptureOpener(compressedPath, nil, log),
	)
	if err != nil {
		return services.Report{}, fmt.Errorf("cannot open videos: %w", err)
	}
	defer pair.Close()

	report, err := evaluator.Evaluate(mgr.Context(), pair)
	if err != nil {
		return report, fmt.Errorf("%s: %w", compressedPath, err)
	}
	report.Original = originalPath
	report.Compressed = compressedPath
	if info, err := os.Stat(compressedPath); err == nil {
		report.CompressedSize = info.Size()
	}
	return report, nil
}
