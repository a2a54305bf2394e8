// Package server implements the HTTP API for the phase processor.
//
// # Endpoints
//
//   - POST /process: multipart/form-data with an "image" file part (JPEG,
//     PNG and other raster formats) and a "phase" field ("arterial" or
//     "venous"). Responds 200 with the transformed image as image/png.
//   - GET /: service status and endpoint listing
//   - GET /health: health check
//   - GET /ui/: the upload page (embedded static HTML)
//
// Successful /process responses carry two extra headers:
//
//	Content-Disposition: inline; filename=processed_<name>.png
//	X-Processing-Phase: <phase>
//
// # Error Handling
//
// Failed requests get a JSON body with a human-readable message and a
// machine-readable code:
//
//	{"error": "invalid phase: \"sideways\", must be 'arterial' or 'venous'", "code": "invalid_phase"}
//
// Codes and statuses:
//   - invalid_phase (400): phase missing or not recognized
//   - invalid_file_type (400): no image part, non-image content type, upload
//     too large, more pixels than server.max_pixels, or bytes that do not
//     decode as an image
//   - processing_failure (500): the transform or encoder failed
//
// # Request Tracing
//
// Every response carries X-Request-ID, echoed from the request when the
// client sent one. The id is attached to the request's log lines.
//
// # Usage
//
//	proc := phase.NewProcessor(log, phase.WithMaxPixels(cfg.Server.MaxPixels))
//	srv := server.New(cfg.Server, proc, log, version)
//	if err := srv.Run(); err != nil && err != http.ErrServerClosed {
//	    log.Fatal("server failed", zap.Error(err))
//	}
package server
