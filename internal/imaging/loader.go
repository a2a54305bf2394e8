package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// DefaultMaxPixels is the decode limit used when none is configured:
// 4096x4096. The arterial transform holds about 40 bytes per pixel while it
// runs, so this keeps a single request well under 1 GB.
const DefaultMaxPixels = 16 * 1024 * 1024

var (
	// ErrEmptyImage is returned when there are no bytes to decode.
	ErrEmptyImage = errors.New("empty image data")

	// ErrImageTooLarge is returned when the declared dimensions exceed the
	// pixel limit.
	ErrImageTooLarge = errors.New("image dimensions too large")
)

// ImageInfo contains metadata about a decoded upload.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the name the decoder registered under: "png", "jpeg", "gif",
	// "bmp", "tiff" or "webp".
	Format string `json:"format"`

	// ColorDepth indicates the source bit depth per channel: "8-bit" or "16-bit".
	// The decoded buffer is always 8-bit.
	ColorDepth string `json:"color_depth"`

	// HasAlpha indicates whether the source carried an alpha channel. Alpha is
	// dropped during decoding.
	HasAlpha bool `json:"has_alpha"`

	// SizeBytes is the size of the encoded upload.
	SizeBytes int `json:"size_bytes"`
}

// Decode parses raw image bytes into an opaque 8-bit NRGBA buffer.
//
// The returned buffer has bounds (0,0)-(w,h). Colour values are taken as they
// are stored (non-premultiplied) and alpha is forced to 255, which matches a
// plain RGB conversion of the source.
//
// maxPixels caps width*height; values <= 0 select DefaultMaxPixels.
//
// # Errors
//
//   - ErrEmptyImage if raw is empty
//   - ErrImageTooLarge if the header declares more than maxPixels pixels
//   - a wrapped decoder error if the bytes are not a supported raster image
func Decode(raw []byte, maxPixels int) (*image.NRGBA, *ImageInfo, error) {
	if len(raw) == 0 {
		return nil, nil, ErrEmptyImage
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, nil, fmt.Errorf("invalid image dimensions %dx%d", cfg.Width, cfg.Height)
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return nil, nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode image: %w", err)
	}

	hasAlpha := false
	colorDepth := "8-bit"
	switch img.(type) {
	case *image.RGBA, *image.NRGBA:
		hasAlpha = true
	case *image.RGBA64, *image.NRGBA64:
		hasAlpha = true
		colorDepth = "16-bit"
	case *image.Gray16:
		colorDepth = "16-bit"
	}

	buf := imaging.Clone(img)
	for i := 3; i < len(buf.Pix); i += 4 {
		buf.Pix[i] = 0xff
	}

	bounds := buf.Bounds()
	return buf, &ImageInfo{
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
		Format:     format,
		ColorDepth: colorDepth,
		HasAlpha:   hasAlpha,
		SizeBytes:  len(raw),
	}, nil
}
