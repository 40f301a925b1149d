package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/queueflow-backend/internal/observability"
)

// Metrics records request counts and latency per route template. The scrape
// endpoint itself is not counted.
func Metrics(enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled || c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		observability.HTTPInflight.Inc()
		defer observability.HTTPInflight.Dec()
		start := time.Now()
		c.Next()
		observability.RecordHTTPRequest(c.Request.Method, routeOf(c), c.Writer.Status(), time.Since(start))
	}
}
