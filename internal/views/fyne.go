package views

import (
	"fmt"
	"image"
	"time"

	"video-quality-dashboard/internal/controllers"
	"video-quality-dashboard/internal/logger"
	"video-quality-dashboard/internal/metrics"
	"video-quality-dashboard/internal/opencv/conversion"
	"video-quality-dashboard/internal/opencv/safe"
	"video-quality-dashboard/internal/views/components"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
)

const (
	AppID   = "io.github.vqdash"
	AppName = "Video Quality Dashboard"
)

// FyneView presents the dashboard in a single fyne window. Render and Poll
// may be called from any goroutine; ShowAndRun must run on the main one.
type FyneView struct {
	app        fyne.App
	window     fyne.Window
	original   *components.FramePanel
	compressed *components.FramePanel
	difference *components.FramePanel
	panel      *components.FramePanel
	status     *components.StatusBar
	timeline   *components.Timeline
	queue      *eventQueue
	log        logger.Logger
}

// NewFyneView builds the window for a session of totalFrames frames with
// views of width x height.
func NewFyneView(totalFrames, width, height int, log logger.Logger) *FyneView {
	fyneApp := app.NewWithID(AppID)
	window := fyneApp.NewWindow(AppName)

	v := &FyneView{
		app:        fyneApp,
		window:     window,
		original:   components.NewFramePanel("Original", width, height),
		compressed: components.NewFramePanel("Compressed", width, height),
		difference: components.NewFramePanel("Difference", width, height),
		panel:      components.NewFramePanel("Controls & Metrics", width, controllers.PanelHeight),
		status:     components.NewStatusBar(),
		timeline:   components.NewTimeline(totalFrames),
		queue:      newEventQueue(32),
		log:        log,
	}

	v.buildLayout()
	v.bindInput()
	return v
}

func (v *FyneView) buildLayout() {
	grid := container.NewGridWithColumns(2,
		v.original.GetContainer(),
		v.compressed.GetContainer(),
		v.difference.GetContainer(),
		v.panel.GetContainer(),
	)

	v.window.SetContent(container.NewBorder(
		nil,
		container.NewVBox(v.timeline.GetContainer(), v.status.GetContainer()),
		nil, nil,
		grid,
	))
}

func (v *FyneView) bindInput() {
	v.window.Canvas().SetOnTypedRune(func(r rune) {
		v.push(controllers.KeyEvent(int(r)))
	})
	v.window.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if code, ok := fyneKeyCode(ev.Name); ok {
			v.push(controllers.KeyEvent(code))
		}
	})
	v.timeline.SetSeekHandler(func(frame int) {
		v.push(controllers.SeekEvent(frame))
	})
	v.window.SetCloseIntercept(func() {
		v.push(controllers.Event{Kind: controllers.EventClose})
	})
}

func (v *FyneView) push(ev controllers.Event) {
	if !v.queue.push(ev) {
		v.log.Debug("FyneView", "input dropped", map[string]interface{}{"kind": int(ev.Kind)})
	}
}

func (v *FyneView) Poll(wait time.Duration) controllers.Event {
	return v.queue.Poll(wait)
}

// Render copies the display into Go images before handing them to the fyne
// thread, so the controller may release the mats once Render returns.
func (v *FyneView) Render(d *controllers.Display) error {
	images := make([]image.Image, 4)
	for i, m := range []*safe.Mat{d.Original, d.Compressed, d.Difference, d.Panel} {
		img, err := conversion.MatToImage(m)
		if err != nil {
			return fmt.Errorf("render view %d: %w", i, err)
		}
		images[i] = img
	}

	state := d.State
	metricsText := fmt.Sprintf("PSNR: %s dB  SSIM: %.4f", metrics.FormatPSNR(d.Sample.PSNR), d.Sample.SSIM)
	statsText := d.Stats.String()
	stateText := fmt.Sprintf("%s  alpha %.1f  %s", state.Mode, state.HeatmapAlpha, state.Scheme)

	fyne.Do(func() {
		v.original.SetImage(images[0])
		v.compressed.SetImage(images[1])
		v.difference.SetImage(images[2])
		v.panel.SetImage(images[3])
		v.timeline.SetFrame(state.Frame)
		v.status.Update(stateText, metricsText, statsText)
	})
	return nil
}

// ShowAndRun blocks until Close.
func (v *FyneView) ShowAndRun() {
	v.window.ShowAndRun()
}

func (v *FyneView) Close() error {
	fyne.Do(func() {
		v.app.Quit()
	})
	return nil
}
