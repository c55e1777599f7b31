package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/tally-backend/internal/platform/ctxutil"
	"github.com/yungbote/tally-backend/internal/platform/logger"
)

// RequestLogger writes one line per request. Health probes are logged at debug.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if log == nil {
			return
		}

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()
		fields := []interface{}{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		fields = append(fields, ctxutil.LogFields(c.Request.Context())...)
		if len(c.Errors) > 0 {
			fields = append(fields, "error", c.Errors.String())
		}

		switch {
		case status >= 500:
			log.Error("http_request", fields...)
		case status >= 400:
			log.Warn("http_request", fields...)
		case route == "/healthcheck" || route == "/readyz":
			log.Debug("http_request", fields...)
		default:
			log.Info("http_request", fields...)
		}
	}
}
