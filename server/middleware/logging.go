package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/minutes/logger"
)

// quietPaths are polled by probes and not logged.
var quietPaths = map[string]bool{
	"/health":  true,
	"/version": true,
}

// RequestLogger logs every request with method, path, status and latency.
// 5xx responses log at error level, 4xx at warn, the rest at debug.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if quietPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		fields := logger.Fields(
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", latency.Milliseconds(),
			"client", c.ClientIP(),
		)
		if len(c.Errors) > 0 {
			fields[logger.FieldError] = c.Errors.String()
		}

		l := log.WithContext(c.Request.Context())
		switch {
		case status >= 500:
			l.Error("Request completed", fields)
		case status >= 400:
			l.Warn("Request completed", fields)
		default:
			l.Debug("Request completed", fields)
		}
	}
}
