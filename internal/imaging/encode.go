package imaging

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// PNGMimeType is the content type of EncodePNG output.
const PNGMimeType = "image/png"

// EncodePNG serializes img as PNG with the default compression level.
// Output is deterministic for a given image.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// ToNRGBA returns img as an NRGBA buffer with bounds starting at (0,0),
// copying only when it is not already in that form.
func ToNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Bounds().Min == (image.Point{}) {
		return n
	}
	return imaging.Clone(img)
}
