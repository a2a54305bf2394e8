package server

import (
	"context"
	"embed"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ironsheep/phase-imaging/internal/config"
	"github.com/ironsheep/phase-imaging/internal/phase"
)

// ServiceName is reported by the status endpoints.
const ServiceName = "Phase Imaging API"

//go:embed static
var staticFiles embed.FS

// Server serves the phase processing API over HTTP.
type Server struct {
	cfg        config.ServerConfig
	log        *zap.Logger
	processor  *phase.Processor
	version    string
	router     *gin.Engine
	httpServer *http.Server
}

// New creates a server with its routes registered. Call Run to start
// listening.
func New(cfg config.ServerConfig, processor *phase.Processor, log *zap.Logger, version string) *Server {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:       cfg,
		log:       log,
		processor: processor,
		version:   version,
	}

	router := gin.New()
	router.MaxMultipartMemory = cfg.MaxUploadBytes
	router.Use(requestID(), requestLogger(log), recovery(log))

	router.GET("/", s.handleRoot)
	router.GET("/health", s.handleHealth)
	router.POST("/process", s.handleProcess)

	ui, err := fs.Sub(staticFiles, "static")
	if err != nil {
		// The directory is embedded at build time.
		panic(err)
	}
	router.StaticFS("/ui", http.FS(ui))

	s.router = router
	s.httpServer = &http.Server{
		Addr:           cfg.Addr(),
		Handler:        router,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on the configured address until Shutdown is called, at which
// point it returns http.ErrServerClosed.
func (s *Server) Run() error {
	s.log.Info("Server is running",
		zap.String("address", s.httpServer.Addr),
		zap.String("version", s.version),
		zap.Int64("max_upload_bytes", s.cfg.MaxUploadBytes),
		zap.Int("max_pixels", s.cfg.MaxPixels))

	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down server")
	return s.httpServer.Shutdown(ctx)
}
