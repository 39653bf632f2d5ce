package components

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// Timeline is a frame slider with a "Frame: i / N" counter. Moves made by
// the user are reported through the seek handler; SetFrame does not report.
type Timeline struct {
	container *fyne.Container
	slider    *widget.Slider
	counter   *widget.Label
	total     int
	frame     int
	onSeek    func(int)
}

func NewTimeline(totalFrames int) *Timeline {
	tl := &Timeline{total: totalFrames}

	upper := float64(totalFrames - 1)
	if upper < 1 {
		upper = 1
	}
	tl.slider = widget.NewSlider(0, upper)
	tl.slider.Step = 1
	tl.slider.OnChanged = func(v float64) {
		frame := int(v)
		if frame == tl.frame || tl.onSeek == nil {
			return
		}
		tl.frame = frame
		tl.onSeek(frame)
	}

	tl.counter = widget.NewLabel(tl.counterText())
	tl.container = container.NewBorder(nil, nil, nil, tl.counter, tl.slider)
	return tl
}

func (tl *Timeline) SetSeekHandler(handler func(frame int)) {
	tl.onSeek = handler
}

// SetFrame must run on the fyne thread.
func (tl *Timeline) SetFrame(frame int) {
	tl.frame = frame
	tl.slider.SetValue(float64(frame))
	tl.counter.SetText(tl.counterText())
}

func (tl *Timeline) counterText() string {
	return fmt.Sprintf("Frame: %d / %d", tl.frame+1, tl.total)
}

func (tl *Timeline) GetContainer() *fyne.Container {
	return tl.container
}
