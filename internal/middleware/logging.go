package middleware

import (
	"log/slog"
	"strconv"
	"time"

	"bintobloom/internal/metrics"

	"github.com/gin-gonic/gin"
)

// RequestLogger logs each request and records its latency under the matched route.
func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		elapsed := time.Since(start)

		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(elapsed.Seconds())

		level := slog.LevelInfo
		if c.Writer.Status() >= 500 {
			level = slog.LevelError
		}
		log.Log(c.Request.Context(), level, "http request",
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"duration", elapsed,
			"client_ip", c.ClientIP(),
		)
	}
}
