package imaging

import (
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/convolution"
)

// GaussianSigma returns the standard deviation conventionally derived from a
// kernel size when none is given: 0.3*((size-1)*0.5-1)+0.8.
func GaussianSigma(size int) float64 {
	return 0.3*((float64(size)-1)*0.5-1) + 0.8
}

// GaussianKernel builds a normalized one-dimensional Gaussian kernel of the
// given odd size. A sigma <= 0 is replaced by GaussianSigma(size).
func GaussianKernel(size int, sigma float64) (*convolution.Kernel, error) {
	if size < 1 || size%2 == 0 {
		return nil, fmt.Errorf("kernel size must be a positive odd number, got %d", size)
	}
	if sigma <= 0 {
		sigma = GaussianSigma(size)
	}

	k := convolution.NewKernel(size, 1)
	radius := size / 2
	var sum float64
	for i := 0; i < size; i++ {
		x := float64(i - radius)
		k.Matrix[i] = math.Exp(-(x * x) / (2 * sigma * sigma))
		sum += k.Matrix[i]
	}
	for i := range k.Matrix {
		k.Matrix[i] /= sum
	}
	return k, nil
}

// GaussianBlur smooths every colour channel of img with a size×size Gaussian.
//
// The 2-D kernel is separable, so the image is convolved with the 1-D kernel
// horizontally and then vertically. Samples beyond the border repeat the edge
// pixel. Each pass rounds to the nearest 8-bit value, so a constant field is
// returned unchanged. Alpha is carried over from the source.
func GaussianBlur(img image.Image, size int, sigma float64) (*image.RGBA, error) {
	k, err := GaussianKernel(size, sigma)
	if err != nil {
		return nil, err
	}

	opts := &convolution.Options{Bias: 0.5, Wrap: false, KeepAlpha: true}
	horizontal := convolution.Convolve(img, k, opts)
	return convolution.Convolve(horizontal, k.Transposed(), opts), nil
}
