package metrics

import "strings"

// Rating grades a PSNR/SSIM pair from 1 to 5 stars. Both thresholds of a
// grade must be met.
func Rating(psnr, ssim float64) int {
	switch {
	case psnr >= 40 && ssim >= 0.95:
		return 5
	case psnr >= 35 && ssim >= 0.90:
		return 4
	case psnr >= 30 && ssim >= 0.85:
		return 3
	case psnr >= 25 && ssim >= 0.80:
		return 2
	default:
		return 1
	}
}

func Stars(rating int) string {
	return strings.Repeat("*", rating)
}
