package middleware

import (
	"strconv"
	"time"

	"recipe-finder/internal/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// Metrics 記錄每個路由的請求數與延遲
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		// 使用路由樣板避免 label 爆量
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
