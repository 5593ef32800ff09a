package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/samirwankhede/restaurant-insights/internal/metrics"
)

// MetricsMiddleware counts requests by route template so path parameters do
// not explode label cardinality. Unmatched routes are counted under "unmatched".
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
