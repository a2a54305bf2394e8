package phase

import (
	"errors"
	"fmt"
	"image"
	"time"

	"go.uber.org/zap"

	"github.com/ironsheep/phase-imaging/internal/imaging"
)

// Transform parameters. They are fixed; the phase is the only input that
// selects behaviour.
const (
	// ClipLimit is the CLAHE contrast amplification limit.
	ClipLimit = 3.0

	// TileGrid is the number of CLAHE tiles along each axis.
	TileGrid = 8

	// BlurKernelSize is the Gaussian kernel width and height.
	BlurKernelSize = 15

	// BlurSigma is the Gaussian standard deviation, derived from
	// BlurKernelSize by the usual sizing rule (see imaging.GaussianSigma).
	BlurSigma = 2.6
)

// Result is the outcome of a successful Process call.
type Result struct {
	// PNG is the encoded transformed image.
	PNG []byte

	// Phase is the transform that was applied.
	Phase Phase

	// Info describes the decoded upload.
	Info *imaging.ImageInfo

	// Elapsed covers decoding, transforming and encoding.
	Elapsed time.Duration
}

// Processor runs uploads through a phase transform. It holds no per-request
// state and is safe for concurrent use.
type Processor struct {
	log       *zap.Logger
	maxPixels int
}

// Option configures a Processor.
type Option func(*Processor)

// WithMaxPixels rejects uploads whose declared width*height exceeds n.
// Values <= 0 keep imaging.DefaultMaxPixels.
func WithMaxPixels(n int) Option {
	return func(p *Processor) {
		p.maxPixels = n
	}
}

// NewProcessor creates a Processor that logs through log. A nil logger
// disables logging.
func NewProcessor(log *zap.Logger, opts ...Option) *Processor {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Processor{log: log}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process validates selector, decodes raw and returns the transformed image
// as PNG.
//
// # Errors
//
//   - ErrInvalidPhase if selector is not exactly "arterial" or "venous";
//     checked before the image is decoded
//   - ErrInvalidFileType if raw does not decode as a raster image or
//     declares more pixels than the configured limit
//   - ErrProcessingFailure if the transform or PNG encoding fails
func (p *Processor) Process(raw []byte, selector string) (*Result, error) {
	start := time.Now()

	ph, err := Parse(selector)
	if err != nil {
		return nil, err
	}

	img, info, err := p.Decode(raw)
	if err != nil {
		return nil, err
	}
	p.log.Debug("Image decoded",
		zap.String("format", info.Format),
		zap.Int("width", info.Width),
		zap.Int("height", info.Height),
		zap.Int("size_bytes", info.SizeBytes))

	out, err := p.Transform(img, ph)
	if err != nil {
		return nil, err
	}

	encoded, err := imaging.EncodePNG(out)
	if err != nil {
		p.log.Error("Failed to encode result", zap.String("phase", ph.String()), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrProcessingFailure, err)
	}

	elapsed := time.Since(start)
	p.log.Info("Phase processing completed",
		zap.String("phase", ph.String()),
		zap.Int("width", info.Width),
		zap.Int("height", info.Height),
		zap.Int("output_bytes", len(encoded)),
		zap.Duration("elapsed", elapsed))

	return &Result{
		PNG:     encoded,
		Phase:   ph,
		Info:    info,
		Elapsed: elapsed,
	}, nil
}

// Decode wraps imaging.Decode with the processor's pixel limit, classifying
// every failure as ErrInvalidFileType.
func (p *Processor) Decode(raw []byte) (*image.NRGBA, *imaging.ImageInfo, error) {
	img, info, err := imaging.Decode(raw, p.maxPixels)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidFileType, err)
	}
	return img, info, nil
}

// Transform applies the phase's transform to a decoded image. The result
// has the same dimensions as img; img is not modified.
//
// A buffer whose Pix is too short for its bounds is rejected up front. A
// panic inside a transform, including one raised on a row worker of the
// L*a*b* conversion or CLAHE, is recovered. Both are reported as
// ErrProcessingFailure.
func (p *Processor) Transform(img *image.NRGBA, ph Phase) (out image.Image, err error) {
	if berr := checkBuffer(img); berr != nil {
		return nil, fmt.Errorf("%w: %v", ErrProcessingFailure, berr)
	}
	img = imaging.ToNRGBA(img)

	defer func() {
		if r := recover(); r != nil {
			p.log.Error("Transform panicked", zap.String("phase", ph.String()), zap.Any("panic", r))
			out, err = nil, fmt.Errorf("%w: %s transform panicked: %v", ErrProcessingFailure, ph, r)
		}
	}()

	switch ph {
	case Arterial:
		out, err = increaseContrast(img)
	case Venous:
		out, err = imaging.GaussianBlur(img, BlurKernelSize, BlurSigma)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidPhase, string(ph))
	}
	if err != nil {
		p.log.Error("Transform failed", zap.String("phase", ph.String()), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrProcessingFailure, err)
	}

	p.log.Debug("Transform applied", zap.String("phase", ph.String()))
	return out, nil
}

// checkBuffer verifies that img's pixel slice covers its bounds.
func checkBuffer(img *image.NRGBA) error {
	if img == nil {
		return errors.New("nil image")
	}
	b := img.Bounds()
	if b.Empty() {
		return nil
	}
	if img.Stride < b.Dx()*4 {
		return fmt.Errorf("stride %d too small for width %d", img.Stride, b.Dx())
	}
	if need := img.PixOffset(b.Max.X-1, b.Max.Y-1) + 4; need > len(img.Pix) {
		return fmt.Errorf("pixel buffer holds %d bytes, bounds %v need %d", len(img.Pix), b, need)
	}
	return nil
}

// increaseContrast equalizes the L*a*b* lightness of img and leaves its
// chroma alone.
func increaseContrast(img *image.NRGBA) (*image.NRGBA, error) {
	planes := imaging.SplitLab(img)

	equalized, err := imaging.CLAHE(planes.L, ClipLimit, TileGrid, TileGrid)
	if err != nil {
		return nil, err
	}
	planes.L = equalized

	return planes.Merge(), nil
}
