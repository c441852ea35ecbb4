package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"foyer-backend/metrics"
)

// Metrics records request count and latency per registered route.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		metrics.InFlightInc()
		defer metrics.InFlightDec()

		start := time.Now()
		c.Next()

		metrics.RecordHTTPRequest(c.Request.Method, c.FullPath(), strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
