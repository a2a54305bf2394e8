// Package imaging provides the pixel-level operations behind the phase
// transforms.
//
// Every function works on in-memory buffers only. Uploads are decoded into an
// opaque *image.NRGBA whose bounds start at (0,0); the transforms never mutate
// their input and always return a freshly allocated image of the same size.
//
// # Operations
//
//   - Decode: raw bytes to an opaque 8-bit buffer plus ImageInfo
//   - SplitLab / LabPlanes.Merge: separate CIE L*a*b* lightness from chroma
//   - CLAHE: contrast limited adaptive histogram equalization of a lightness plane
//   - GaussianBlur: separable Gaussian smoothing of every colour channel
//   - EncodePNG: serialize a result
//   - LuminanceStats / NeighborVariation: measurements used to report and
//     verify what a transform did
//
// # Color Representation
//
// Lightness is carried as an 8-bit plane (L* scaled from 0..100 to 0..255),
// the same quantization the equalizer operates on. Chroma (a*, b*) is kept in
// float64 so recombining an unmodified plane reproduces the source pixels.
//
// # Thread Safety
//
// All functions are stateless. Row loops may fan out across goroutines but
// always join before the function returns, so results are deterministic.
package imaging
