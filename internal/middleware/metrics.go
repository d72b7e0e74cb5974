package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openclinic/ehr-api/pkg/metrics"
)

// Metrics records request counts and latencies per route. The route template
// is used instead of the raw path so patient ids do not explode cardinality.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		m.RequestTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.RequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		if c.Writer.Status() >= 500 {
			m.ErrorTotal.WithLabelValues(c.Request.Method, path, "server").Inc()
		} else if c.Writer.Status() >= 400 {
			m.ErrorTotal.WithLabelValues(c.Request.Method, path, "client").Inc()
		}
	}
}
