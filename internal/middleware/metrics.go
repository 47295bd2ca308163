package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/medly/medly-api/pkg/metrics"
)

// Metrics times every request by route template, not raw path, so /bookings/42
// and /bookings/43 share a series.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		elapsed := time.Since(start).Seconds()

		m.RequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(elapsed)
		m.RequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}
