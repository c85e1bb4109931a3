package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aleisley/ta-backend/pkg/metrics"
)

// Metrics records request counts and latency labelled by route template.
// A nil m disables recording.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := c.Writer.Status()
		code := strconv.Itoa(status)

		m.RequestTotal.WithLabelValues(c.Request.Method, path, code).Inc()
		m.RequestDuration.WithLabelValues(c.Request.Method, path, code).Observe(time.Since(start).Seconds())
		if status >= 400 {
			m.ErrorTotal.WithLabelValues(c.Request.Method, path, code[:1]+"xx").Inc()
		}
	}
}
