// Package middleware holds the gin middleware shared by all API routes.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/RxMatch-Intelligence/internal/infrastructure/monitoring/logging"
)

// HTTPMetrics receives one observation per completed request.
type HTTPMetrics interface {
	ObserveHTTPRequest(method, path, status string, elapsed time.Duration)
}

// RequestLogging logs every request with latency and status, and feeds the
// request metrics.  metrics may be nil.
func RequestLogging(logger logging.Logger, metrics HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		status := c.Writer.Status()

		fields := []logging.Field{
			logging.String("method", c.Request.Method),
			logging.String("path", path),
			logging.Int("status", status),
			logging.Duration("elapsed", elapsed),
			logging.String("client_ip", c.ClientIP()),
		}
		if id := ContextRequestID(c); id != "" {
			fields = append(fields, logging.String("request_id", id))
		}
		if status >= 500 {
			logger.Error("request failed", fields...)
		} else {
			logger.Info("request completed", fields...)
		}

		if metrics != nil {
			metrics.ObserveHTTPRequest(c.Request.Method, path, strconv.Itoa(status), elapsed)
		}
	}
}
