package conversion

import (
	"fmt"
	"image"

	"video-quality-dashboard/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// ToFloat32 converts an 8-bit Mat to 32-bit float with the same channel count.
// The caller closes the result.
func ToFloat32(src *safe.Mat) gocv.Mat {
	mat := src.GetMat()
	dst := gocv.NewMat()
	mat.ConvertTo(&dst, gocv.MatTypeCV32F)
	return dst
}

// ResizeMat resizes Mat to new dimensions using specified interpolation
func ResizeMat(src *safe.Mat, newWidth, newHeight int, interpolation gocv.InterpolationFlags) (*safe.Mat, error) {
	if err := safe.ValidateMatForOperation(src, "Mat resizing"); err != nil {
		return nil, err
	}

	if err := safe.ValidateDimensions(newWidth, newHeight, "Mat resizing"); err != nil {
		return nil, err
	}

	if src.Cols() == newWidth && src.Rows() == newHeight {
		return src.Clone()
	}

	dst := gocv.NewMat()
	gocv.Resize(src.GetMat(), &dst, image.Point{X: newWidth, Y: newHeight}, 0, 0, interpolation)

	return safe.Adopt(dst, nil, "resized")
}

// MatchSize resamples src bilinearly to the width and height of like.
func MatchSize(src, like *safe.Mat) (*safe.Mat, error) {
	if err := safe.ValidateMatForOperation(like, "size matching"); err != nil {
		return nil, fmt.Errorf("reference: %w", err)
	}
	return ResizeMat(src, like.Cols(), like.Rows(), gocv.InterpolationLinear)
}
