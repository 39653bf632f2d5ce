package views

import (
	"time"

	"video-quality-dashboard/internal/controllers"

	"gocv.io/x/gocv"
)

const (
	WindowOriginal   = "Original Video"
	WindowCompressed = "Compressed Video"
	WindowHeatmap    = "Difference Heatmap"
	WindowControls   = "Controls & Metrics"
)

// HighGUI presents the dashboard in four OpenCV windows and reads keys and
// the frame trackbar from the controls window. It must be used from the
// goroutine that created it.
type HighGUI struct {
	original   *gocv.Window
	compressed *gocv.Window
	heatmap    *gocv.Window
	controls   *gocv.Window
	trackbar   *gocv.Trackbar
	position   int
}

// NewHighGUI opens the windows with a trackbar spanning totalFrames.
func NewHighGUI(totalFrames int) *HighGUI {
	h := &HighGUI{
		original:   gocv.NewWindow(WindowOriginal),
		compressed: gocv.NewWindow(WindowCompressed),
		heatmap:    gocv.NewWindow(WindowHeatmap),
		controls:   gocv.NewWindow(WindowControls),
	}

	last := totalFrames - 1
	if last < 1 {
		last = 1
	}
	h.trackbar = h.controls.CreateTrackbar("Frame", last)
	return h
}

func (h *HighGUI) Render(d *controllers.Display) error {
	h.original.IMShow(d.Original.GetMat())
	h.compressed.IMShow(d.Compressed.GetMat())
	h.heatmap.IMShow(d.Difference.GetMat())
	h.controls.IMShow(d.Panel.GetMat())

	if d.State.Frame != h.position {
		h.position = d.State.Frame
		h.trackbar.SetPos(h.position)
	}
	return nil
}

// Poll waits up to wait for a key. Without a key, a trackbar moved by the
// user becomes a seek and a closed controls window becomes a close event.
func (h *HighGUI) Poll(wait time.Duration) controllers.Event {
	ms := int(wait / time.Millisecond)
	if ms < 1 {
		ms = 1
	}

	if code, ok := highguiKeyCode(h.controls.WaitKey(ms)); ok {
		return controllers.KeyEvent(code)
	}
	if !h.controls.IsOpen() {
		return controllers.Event{Kind: controllers.EventClose}
	}
	if pos := h.trackbar.GetPos(); pos != h.position {
		h.position = pos
		return controllers.SeekEvent(pos)
	}
	return controllers.Event{}
}

func (h *HighGUI) Close() error {
	for _, w := range []*gocv.Window{h.original, h.compressed, h.heatmap, h.controls} {
		w.Close()
	}
	return nil
}
