package phase

import "errors"

var (
	// ErrInvalidPhase means the phase selector was missing or not recognized.
	ErrInvalidPhase = errors.New("invalid phase")

	// ErrInvalidFileType means the upload is not a decodable raster image.
	ErrInvalidFileType = errors.New("invalid file type")

	// ErrProcessingFailure means the transform or the encoder failed on an
	// otherwise valid request.
	ErrProcessingFailure = errors.New("processing failure")
)
