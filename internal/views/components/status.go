package components

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// StatusBar shows the current metrics, difference statistics and play state.
type StatusBar struct {
	container *fyne.Container
	metrics   *widget.Label
	stats     *widget.Label
	state     *widget.Label
}

func NewStatusBar() *StatusBar {
	sb := &StatusBar{
		metrics: widget.NewLabel("PSNR: --  SSIM: --"),
		stats:   widget.NewLabel(""),
		state:   widget.NewLabel("PAUSED"),
	}
	sb.container = container.NewHBox(
		sb.state,
		widget.NewSeparator(),
		sb.metrics,
		widget.NewSeparator(),
		sb.stats,
	)
	return sb
}

// Update must run on the fyne thread.
func (sb *StatusBar) Update(state, metrics, stats string) {
	sb.state.SetText(state)
	sb.metrics.SetText(metrics)
	sb.stats.SetText(stats)
}

func (sb *StatusBar) GetContainer() *fyne.Container {
	return sb.container
}
