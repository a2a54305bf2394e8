// Package phase implements the image phase processor: it validates a phase
// selector, decodes an upload, applies the phase's fixed transform and
// encodes the result as PNG.
//
// Two phases exist:
//   - Arterial: CLAHE (clip limit 3.0, 8x8 tiles) on the L*a*b* lightness
//     channel, chroma untouched
//   - Venous: 15x15 Gaussian blur (sigma 2.6) on every colour channel
//
// Failures are classified into three kinds, tested with errors.Is:
// ErrInvalidPhase, ErrInvalidFileType and ErrProcessingFailure. Validation
// errors are always reported before any transform runs, and no partial
// output is ever returned.
package phase
