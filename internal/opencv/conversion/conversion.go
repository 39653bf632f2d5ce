package conversion

import (
	"fmt"
	"image"
	"image/color"

	"video-quality-dashboard/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// ConvertToGrayscale converts multi-channel images to single-channel grayscale
func ConvertToGrayscale(src *safe.Mat) (*safe.Mat, error) {
	if err := safe.ValidateMatForOperation(src, "grayscale conversion"); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if src.Channels() == 1 {
		return src.Clone()
	}

	if err := safe.ValidateColorConversion(src, gocv.ColorBGRToGray); err != nil {
		return nil, err
	}

	dst := gocv.NewMat()
	gocv.CvtColor(src.GetMat(), &dst, gocv.ColorBGRToGray)

	return safe.Adopt(dst, nil, "gray")
}

// ConvertToBGR expands a single-channel image to three identical channels.
// Three-channel input is cloned.
func ConvertToBGR(src *safe.Mat) (*safe.Mat, error) {
	if err := safe.ValidateMatForOperation(src, "BGR conversion"); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if src.Channels() == 3 {
		return src.Clone()
	}

	if err := safe.ValidateColorConversion(src, gocv.ColorGrayToBGR); err != nil {
		return nil, err
	}

	dst := gocv.NewMat()
	gocv.CvtColor(src.GetMat(), &dst, gocv.ColorGrayToBGR)

	return safe.Adopt(dst, nil, "bgr")
}

// MatToImage converts GoCV Mat to standard Go image
func MatToImage(src *safe.Mat) (image.Image, error) {
	if err := safe.ValidateMatForOperation(src, "Mat to image conversion"); err != nil {
		return nil, err
	}

	rows := src.Rows()
	cols := src.Cols()
	data := src.Bytes()

	switch src.Channels() {
	case 1:
		img := image.NewGray(image.Rect(0, 0, cols, rows))
		copy(img.Pix, data)
		return img, nil
	case 3:
		return bgrToRGBA(data, rows, cols), nil
	default:
		return nil, fmt.Errorf("unsupported channel count: %d", src.Channels())
	}
}

// bgrToRGBA reorders interleaved BGR samples into an opaque RGBA image
func bgrToRGBA(data []byte, rows, cols int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, cols, rows))

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			i := (y*cols + x) * 3
			img.SetRGBA(x, y, color.RGBA{R: data[i+2], G: data[i+1], B: data[i], A: 255})
		}
	}

	return img
}
