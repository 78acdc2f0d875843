package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"edu-gen/cmd/internal/metrics"
)

// RequestMetrics 는 라우트 템플릿 단위로 요청 수를 센다. 매칭되지 않은 경로는 "unmatched".
func RequestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
