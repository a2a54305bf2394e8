package server

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ironsheep/phase-imaging/internal/imaging"
	"github.com/ironsheep/phase-imaging/internal/phase"
)

// Machine-readable error codes returned in ErrorResponse.Code.
const (
	CodeInvalidPhase      = "invalid_phase"
	CodeInvalidFileType   = "invalid_file_type"
	CodeProcessingFailure = "processing_failure"
)

// PhaseHeader names the applied phase on successful responses.
const PhaseHeader = "X-Processing-Phase"

// multipartOverhead is allowed on top of the upload limit for boundaries,
// part headers and the phase field.
const multipartOverhead = 64 << 10

// ErrorResponse is the body of every non-200 response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// handleProcess accepts a multipart upload with an "image" file part and a
// "phase" field and responds with the transformed image as PNG.
//
// Validation order: multipart body, phase, image part, content type. Every
// check completes before the processor decodes anything.
func (s *Server) handleProcess(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes+multipartOverhead)

	if _, err := c.MultipartForm(); err != nil {
		s.fail(c, fmt.Errorf("%w: %s", phase.ErrInvalidFileType, describeFormError(err, s.cfg.MaxUploadBytes)))
		return
	}

	selector := c.PostForm("phase")
	if _, err := phase.Parse(selector); err != nil {
		s.fail(c, err)
		return
	}

	fh, err := c.FormFile("image")
	if err != nil {
		s.fail(c, fmt.Errorf("%w: image file is required", phase.ErrInvalidFileType))
		return
	}
	if fh.Size > s.cfg.MaxUploadBytes {
		s.fail(c, fmt.Errorf("%w: file exceeds %d bytes", phase.ErrInvalidFileType, s.cfg.MaxUploadBytes))
		return
	}

	raw, err := readUpload(fh)
	if err != nil {
		s.fail(c, fmt.Errorf("%w: failed to read upload: %v", phase.ErrProcessingFailure, err))
		return
	}

	if ct := uploadContentType(fh, raw); !strings.HasPrefix(ct, "image/") {
		s.fail(c, fmt.Errorf("%w: file must be an image (JPG/PNG), got %s", phase.ErrInvalidFileType, ct))
		return
	}

	s.log.Info("Processing request received",
		zap.String("request_id", c.GetString(requestIDKey)),
		zap.String("phase", selector),
		zap.String("filename", fh.Filename),
		zap.Int("size_bytes", len(raw)))

	res, err := s.processor.Process(raw, selector)
	if err != nil {
		s.fail(c, err)
		return
	}

	if cd := mime.FormatMediaType("inline", map[string]string{"filename": outputFilename(fh.Filename)}); cd != "" {
		c.Header("Content-Disposition", cd)
	}
	c.Header(PhaseHeader, res.Phase.String())
	c.Data(http.StatusOK, imaging.PNGMimeType, res.PNG)
}

// handleRoot reports that the service is up and lists its endpoints.
func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": ServiceName,
		"version": s.version,
		"endpoints": gin.H{
			"/process": "POST - Process images with arterial or venous phase filters",
			"/health":  "GET - Health check",
			"/ui/":     "GET - Upload page",
		},
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	phases := make([]string, 0, len(phase.Phases))
	for _, p := range phase.Phases {
		phases = append(phases, p.String())
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "healthy",
		"version":    s.version,
		"go_version": runtime.Version(),
		"phases":     phases,
	})
}

// fail classifies err and writes the matching error response.
func (s *Server) fail(c *gin.Context, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("Error processing image",
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.Error(err))
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: err.Error(), Code: code})
}

// classify maps the processor's error kinds onto HTTP statuses.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, phase.ErrInvalidPhase):
		return http.StatusBadRequest, CodeInvalidPhase
	case errors.Is(err, phase.ErrInvalidFileType):
		return http.StatusBadRequest, CodeInvalidFileType
	default:
		return http.StatusInternalServerError, CodeProcessingFailure
	}
}

func describeFormError(err error, limit int64) string {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Sprintf("request exceeds %d bytes", limit)
	}
	return "expected a multipart/form-data body"
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// uploadContentType returns the declared media type of the part, falling
// back to sniffing the content when none (or a generic one) was declared.
func uploadContentType(fh *multipart.FileHeader, raw []byte) string {
	if mt, _, err := mime.ParseMediaType(fh.Header.Get("Content-Type")); err == nil && mt != "application/octet-stream" {
		return mt
	}
	return http.DetectContentType(raw)
}

// outputFilename names the result after the upload: photo.jpg becomes
// processed_photo.png.
func outputFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == "/" {
		base = "image"
	}
	return "processed_" + base + ".png"
}
