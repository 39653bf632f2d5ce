package controllers

import (
	"fmt"
	"image"
	"image/color"

	"video-quality-dashboard/internal/heatmap"
	"video-quality-dashboard/internal/metrics"
	"video-quality-dashboard/internal/models"
	"video-quality-dashboard/internal/opencv/conversion"
	"video-quality-dashboard/internal/opencv/safe"

	"gocv.io/x/gocv"
)

const (
	PanelHeight    = 340
	timelineY      = 290
	timelineHeight = 20
	panelMargin    = 10
)

var (
	white     = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	lightGray = color.RGBA{R: 200, G: 200, B: 200, A: 255}
	gray      = color.RGBA{R: 100, G: 100, B: 100, A: 255}
	green     = color.RGBA{G: 255, A: 255}
)

// Compose draws the control panel for state: title, key help, the metric
// sample, difference statistics, play state and a timeline with a position
// marker and frame counter. It is a pure function of its arguments.
func Compose(state models.PlaybackState, sample metrics.Sample, stats heatmap.DifferenceStats, help []string, width int) (*safe.Mat, error) {
	if err := safe.ValidateDimensions(width, PanelHeight, "compose"); err != nil {
		return nil, err
	}
	if width <= 2*panelMargin {
		return nil, fmt.Errorf("panel width %d too small", width)
	}

	panel := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), PanelHeight, width, gocv.MatTypeCV8UC3)

	putText(&panel, "Video Quality Dashboard", image.Pt(panelMargin, 30), 0.8, white, 2)

	y := 70
	for _, line := range help {
		putText(&panel, line, image.Pt(panelMargin, y), 0.4, lightGray, 1)
		y += 20
	}

	putText(&panel, fmt.Sprintf("PSNR: %s dB", metrics.FormatPSNR(sample.PSNR)), image.Pt(panelMargin, 200), 0.6, white, 2)
	putText(&panel, fmt.Sprintf("SSIM: %.4f", sample.SSIM), image.Pt(panelMargin, 225), 0.6, white, 2)
	putText(&panel, stats.String(), image.Pt(panelMargin, 250), 0.45, lightGray, 1)
	putText(&panel, fmt.Sprintf("%s  alpha %.1f  %s", state.Mode, state.HeatmapAlpha, state.Scheme),
		image.Pt(panelMargin, 272), 0.45, lightGray, 1)

	drawTimeline(&panel, state, width)

	return safe.Adopt(panel, nil, "panel")
}

func drawTimeline(panel *gocv.Mat, state models.PlaybackState, width int) {
	timelineWidth := width - 2*panelMargin
	bar := image.Rect(panelMargin, timelineY, panelMargin+timelineWidth, timelineY+timelineHeight)
	gocv.Rectangle(panel, bar, gray, -1)

	posX := panelMargin + int(float64(timelineWidth)*state.Progress())
	marker := image.Rect(posX-2, timelineY, posX+2, timelineY+timelineHeight)
	gocv.Rectangle(panel, marker, green, -1)

	putText(panel, fmt.Sprintf("Frame: %d / %d", state.Frame+1, state.TotalFrames),
		image.Pt(panelMargin, timelineY+timelineHeight+25), 0.5, white, 1)
}

func putText(m *gocv.Mat, text string, org image.Point, scale float64, c color.RGBA, thickness int) {
	gocv.PutText(m, text, org, gocv.FontHersheySimplex, scale, c, thickness)
}

// LabelView resizes frame to width x height, expands it to BGR and writes
// label in the top-left corner.
func LabelView(frame *safe.Mat, label string, width, height int, c color.RGBA) (*safe.Mat, error) {
	resized, err := conversion.ResizeMat(frame, width, height, gocv.InterpolationLinear)
	if err != nil {
		return nil, fmt.Errorf("label view %s: %w", label, err)
	}
	defer resized.Close()

	view, err := conversion.ConvertToBGR(resized)
	if err != nil {
		return nil, fmt.Errorf("label view %s: %w", label, err)
	}
	putText(view.MatPtr(), label, image.Pt(10, 30), 1.0, c, 2)
	return view, nil
}
