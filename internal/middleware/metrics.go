package middleware

import (
	"strconv"
	"time"

	"studiobooking/internal/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// Metrics records request latency by route template, so /bookings/1 and
// /bookings/2 share one series.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
