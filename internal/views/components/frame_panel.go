package components

import (
	"image"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// FramePanel shows one dashboard view under a bold title.
type FramePanel struct {
	container *fyne.Container
	image     *canvas.Image
}

// NewFramePanel creates a panel with a blank width x height placeholder.
func NewFramePanel(title string, width, height int) *FramePanel {
	placeholder := image.NewRGBA(image.Rect(0, 0, width, height))

	img := canvas.NewImageFromImage(placeholder)
	img.FillMode = canvas.ImageFillContain
	img.ScaleMode = canvas.ImageScaleSmooth
	img.SetMinSize(fyne.NewSize(float32(width), float32(height)))

	bg := canvas.NewRectangle(color.RGBA{R: 20, G: 20, B: 20, A: 255})

	fp := &FramePanel{image: img}
	fp.container = container.NewBorder(
		widget.NewRichTextFromMarkdown("**"+title+"**"),
		nil, nil, nil,
		container.NewStack(bg, img),
	)
	return fp
}

// SetImage must run on the fyne thread.
func (fp *FramePanel) SetImage(img image.Image) {
	if img == nil {
		return
	}
	fp.image.Image = img
	fp.image.Refresh()
}

func (fp *FramePanel) GetContainer() *fyne.Container {
	return fp.container
}
