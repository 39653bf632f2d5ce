package safe

import (
	"fmt"

	"gocv.io/x/gocv"
)

func ValidateMatForOperation(mat *Mat, operation string) error {
	if mat == nil {
		return fmt.Errorf("Mat is nil for operation: %s", operation)
	}

	if !mat.IsValid() {
		return fmt.Errorf("Mat is invalid for operation: %s", operation)
	}

	if mat.Empty() {
		return fmt.Errorf("Mat is empty for operation: %s", operation)
	}

	if mat.Rows() <= 0 || mat.Cols() <= 0 {
		return fmt.Errorf("Mat has invalid dimensions %dx%d for operation: %s",
			mat.Cols(), mat.Rows(), operation)
	}

	return nil
}

// ValidateImageBuffer additionally requires 8-bit samples with 1 or 3 channels.
func ValidateImageBuffer(mat *Mat, operation string) error {
	if err := ValidateMatForOperation(mat, operation); err != nil {
		return err
	}

	switch mat.Type() {
	case gocv.MatTypeCV8UC1, gocv.MatTypeCV8UC3:
		return nil
	default:
		return fmt.Errorf("unsupported MatType %d for operation: %s (want 8-bit, 1 or 3 channels)",
			int(mat.Type()), operation)
	}
}

func ValidateColorConversion(src *Mat, code gocv.ColorConversionCode) error {
	if err := ValidateMatForOperation(src, "CvtColor"); err != nil {
		return err
	}

	channels := src.Channels()

	switch code {
	case gocv.ColorBGRToGray, gocv.ColorRGBToGray:
		if channels != 3 {
			return fmt.Errorf("BGR/RGB to Gray conversion requires 3 channels, got %d", channels)
		}
	case gocv.ColorGrayToBGR:
		if channels != 1 {
			return fmt.Errorf("Gray to BGR conversion requires 1 channel, got %d", channels)
		}
	}

	return nil
}

func ValidateDimensions(width, height int, operation string) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid dimensions %dx%d for operation: %s", width, height, operation)
	}

	if width > 32768 || height > 32768 {
		return fmt.Errorf("dimensions %dx%d exceed maximum size for operation: %s", width, height, operation)
	}

	return nil
}

// ValidatePair checks both sides of a frame pair. Shape agreement is left to
// the caller, which owns the mismatch error.
func ValidatePair(a, b *Mat, operation string) error {
	if err := ValidateImageBuffer(a, operation); err != nil {
		return fmt.Errorf("first frame: %w", err)
	}
	if err := ValidateImageBuffer(b, operation); err != nil {
		return fmt.Errorf("second frame: %w", err)
	}
	return nil
}
