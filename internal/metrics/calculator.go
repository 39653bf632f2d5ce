package metrics

import (
	"image"
	"math"

	"video-quality-dashboard/internal/opencv/conversion"
	"video-quality-dashboard/internal/opencv/safe"

	"gocv.io/x/gocv"
)

const (
	maxPixelValue = 255.0

	DefaultWindowSize = 11
	DefaultSigma      = 1.5
)

var (
	ssimC1 = math.Pow(0.01*maxPixelValue, 2)
	ssimC2 = math.Pow(0.03*maxPixelValue, 2)
)

// Calculator is the OpenCV-backed Engine.
//
// SSIM border policy: the Gaussian blur runs with reflect-101 padding, then
// only pixels whose whole window lies inside the frame are averaged. Frames
// smaller than the window fall back to one uniform window over the image.
type Calculator struct {
	windowSize int
	sigma      float64
}

func NewCalculator() *Calculator {
	return &Calculator{windowSize: DefaultWindowSize, sigma: DefaultSigma}
}

// PSNR returns 10*log10(255^2/MSE) over all samples and channels, or +Inf
// when the frames are pixel-identical.
func (c *Calculator) PSNR(a, b *safe.Mat) (float64, error) {
	if err := checkPair(a, b, "PSNR"); err != nil {
		return 0, err
	}

	scratch := newScratch()
	defer scratch.close()

	diff := scratch.mat()
	gocv.AbsDiff(a.GetMat(), b.GetMat(), diff)

	diffF := scratch.mat()
	diff.ConvertTo(diffF, gocv.MatTypeCV32F)

	squared := scratch.mat()
	gocv.Multiply(*diffF, *diffF, squared)

	channels := a.Channels()
	perChannel := scalarValues(squared.Mean(), channels)
	mse := 0.0
	for _, v := range perChannel {
		mse += v
	}
	mse /= float64(channels)

	if mse == 0 {
		return math.Inf(1), nil
	}
	return 10 * math.Log10(maxPixelValue*maxPixelValue/mse), nil
}

// SSIM returns the mean structural similarity of each channel.
func (c *Calculator) SSIM(a, b *safe.Mat) (SSIM, error) {
	if err := checkPair(a, b, "SSIM"); err != nil {
		return nil, err
	}

	scratch := newScratch()
	defer scratch.close()

	fa := scratch.adopt(conversion.ToFloat32(a))
	fb := scratch.adopt(conversion.ToFloat32(b))
	channels := a.Channels()

	if a.Rows() < c.windowSize || a.Cols() < c.windowSize {
		return globalSSIM(scratch, fa, fb, channels), nil
	}

	ksize := image.Point{X: c.windowSize, Y: c.windowSize}
	blur := func(src *gocv.Mat) *gocv.Mat {
		dst := scratch.mat()
		gocv.GaussianBlur(*src, dst, ksize, c.sigma, c.sigma, gocv.BorderReflect101)
		return dst
	}
	mul := func(x, y *gocv.Mat) *gocv.Mat {
		dst := scratch.mat()
		gocv.Multiply(*x, *y, dst)
		return dst
	}
	// affine computes alpha*x + beta*y + gamma.
	affine := func(x *gocv.Mat, alpha float64, y *gocv.Mat, beta, gamma float64) *gocv.Mat {
		dst := scratch.mat()
		gocv.AddWeighted(*x, alpha, *y, beta, gamma, dst)
		return dst
	}

	muA := blur(fa)
	muB := blur(fb)
	muA2 := mul(muA, muA)
	muB2 := mul(muB, muB)
	muAB := mul(muA, muB)

	sigmaA2 := affine(blur(mul(fa, fa)), 1, muA2, -1, 0)
	sigmaB2 := affine(blur(mul(fb, fb)), 1, muB2, -1, 0)
	sigmaAB := affine(blur(mul(fa, fb)), 1, muAB, -1, 0)

	numerator := mul(
		affine(muAB, 2, muAB, 0, ssimC1),
		affine(sigmaAB, 2, sigmaAB, 0, ssimC2),
	)
	denominator := mul(
		affine(muA2, 1, muB2, 1, ssimC1),
		affine(sigmaA2, 1, sigmaB2, 1, ssimC2),
	)

	ssimMap := scratch.mat()
	gocv.Divide(*numerator, *denominator, ssimMap)

	r := c.windowSize / 2
	valid := ssimMap.Region(image.Rect(r, r, a.Cols()-r, a.Rows()-r))
	scratch.adopt(valid)

	return SSIM(scalarValues(valid.Mean(), channels)), nil
}

// globalSSIM treats the whole frame as a single uniform window.
func globalSSIM(scratch *scratch, fa, fb *gocv.Mat, channels int) SSIM {
	mean := func(m *gocv.Mat) []float64 { return scalarValues(m.Mean(), channels) }
	product := func(x, y *gocv.Mat) []float64 {
		dst := scratch.mat()
		gocv.Multiply(*x, *y, dst)
		return mean(dst)
	}

	muA, muB := mean(fa), mean(fb)
	aa, bb, ab := product(fa, fa), product(fb, fb), product(fa, fb)

	out := make(SSIM, channels)
	for ch := 0; ch < channels; ch++ {
		varA := aa[ch] - muA[ch]*muA[ch]
		varB := bb[ch] - muB[ch]*muB[ch]
		cov := ab[ch] - muA[ch]*muB[ch]
		out[ch] = ((2*muA[ch]*muB[ch] + ssimC1) * (2*cov + ssimC2)) /
			((muA[ch]*muA[ch] + muB[ch]*muB[ch] + ssimC1) * (varA + varB + ssimC2))
	}
	return out
}

func scalarValues(s gocv.Scalar, channels int) []float64 {
	all := []float64{s.Val1, s.Val2, s.Val3, s.Val4}
	if channels > len(all) {
		channels = len(all)
	}
	return append([]float64(nil), all[:channels]...)
}

// scratch owns the temporaries of one kernel call.
type scratch struct {
	mats []*gocv.Mat
}

func newScratch() *scratch {
	return &scratch{}
}

func (s *scratch) mat() *gocv.Mat {
	m := gocv.NewMat()
	return s.adopt(m)
}

func (s *scratch) adopt(m gocv.Mat) *gocv.Mat {
	s.mats = append(s.mats, &m)
	return &m
}

func (s *scratch) close() {
	for _, m := range s.mats {
		m.Close()
	}
	s.mats = nil
}
