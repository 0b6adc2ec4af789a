package middleware

import (
	"strconv"
	"time"

	"github.com/Jacob-Cardoso/agent-pay-fe/internal/metrics"
	"github.com/gin-gonic/gin"
)

var probePaths = map[string]bool{
	"/healthz": true,
	"/readyz":  true,
}

// Metrics records latency and count per route template. Unmatched paths
// share one label and probe routes are not recorded.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if probePaths[path] {
			c.Next()
			return
		}
		if path == "" {
			path = "unmatched"
		}

		start := time.Now()
		c.Next()

		labels := []string{c.Request.Method, path, strconv.Itoa(c.Writer.Status())}
		metrics.HTTPRequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
		metrics.HTTPRequestsTotal.WithLabelValues(labels...).Inc()
	}
}
