package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader carries the request id on requests and responses.
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "request_id"

// requestID tags every request with an id, reusing the caller's when given.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// requestLogger writes one log line per request once it has been served.
func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Int("bytes", c.Writer.Size()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			log.Error("Request failed", fields...)
		case status >= http.StatusBadRequest:
			log.Warn("Request rejected", fields...)
		default:
			log.Info("Request served", fields...)
		}
	}
}

// recovery turns a handler panic into a processing_failure response.
func recovery(log *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		log.Error("Handler panicked",
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.Any("panic", recovered))
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
			Error: "internal server error",
			Code:  CodeProcessingFailure,
		})
	})
}
