package imaging

import (
	"image"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// linearSRGB maps an 8-bit sRGB component to linear light. Decoded buffers
// are always 8-bit, so the gamma curve is evaluated once per level.
var linearSRGB = func() [256]float64 {
	var table [256]float64
	for i := range table {
		r, _, _ := colorful.Color{R: float64(i) / 255.0}.LinearRgb()
		table[i] = r
	}
	return table
}()

// LabPlanes holds an image split into CIE L*a*b* (D65) planes.
//
// L is the 8-bit lightness plane (L* scaled from 0..100 to 0..255) that
// equalization operates on. A and B are the chroma planes in go-colorful
// units (L* / 100 scale), row-major with Width*Height entries.
type LabPlanes struct {
	Width  int
	Height int

	L *image.Gray
	A []float64
	B []float64

	// lightness is the unquantized L in 0..1, kept so that an unmodified
	// L plane merges back to the source pixels.
	lightness []float64
}

// SplitLab converts an opaque image into L*a*b* planes.
//
// The source must have bounds starting at (0,0), as produced by Decode.
func SplitLab(img *image.NRGBA) *LabPlanes {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	n := w * h

	p := &LabPlanes{
		Width:     w,
		Height:    h,
		L:         image.NewGray(image.Rect(0, 0, w, h)),
		A:         make([]float64, n),
		B:         make([]float64, n),
		lightness: make([]float64, n),
	}

	parallelLines(h, func(start, end int) {
		for y := start; y < end; y++ {
			row := img.Pix[y*img.Stride : y*img.Stride+w*4]
			for x := 0; x < w; x++ {
				px := row[x*4 : x*4+3]
				l, a, b := colorful.XyzToLab(colorful.LinearRgbToXyz(
					linearSRGB[px[0]], linearSRGB[px[1]], linearSRGB[px[2]]))

				i := y*w + x
				p.lightness[i] = l
				p.A[i] = a
				p.B[i] = b
				p.L.Pix[y*p.L.Stride+x] = quantizeLightness(l)
			}
		}
	})

	return p
}

// Merge recombines the (possibly modified) L plane with the untouched chroma
// planes and converts back to sRGB. Colours that fall outside the sRGB gamut
// are clamped per channel.
//
// For every pixel the change applied to the 8-bit L plane is added to the
// exact source lightness, so pixels whose L value was left alone come back
// unchanged.
func (p *LabPlanes) Merge() *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, p.Width, p.Height))

	parallelLines(p.Height, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < p.Width; x++ {
				i := y*p.Width + x
				orig := p.lightness[i]
				delta := float64(p.L.Pix[y*p.L.Stride+x]) - float64(quantizeLightness(orig))
				l := orig + delta/255.0

				r, g, b := colorful.Lab(l, p.A[i], p.B[i]).Clamped().RGB255()
				o := y*dst.Stride + x*4
				dst.Pix[o+0] = r
				dst.Pix[o+1] = g
				dst.Pix[o+2] = b
				dst.Pix[o+3] = 0xff
			}
		}
	})

	return dst
}

// quantizeLightness maps L in 0..1 onto the 8-bit lightness plane.
func quantizeLightness(l float64) uint8 {
	v := math.Round(l * 255.0)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
