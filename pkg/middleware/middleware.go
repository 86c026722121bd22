// Package middleware 提供 gin 中间件：请求日志、跨域、指标、追踪、限流、熔断、请求体限制与服务注入.
package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/employeeman/pkg/metrics"
)

// endpoint 使用路由模板作为标签，避免路径参数撑爆指标基数.
func endpoint(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}

	return "unmatched"
}

// PrometheusMiddleware 记录请求数与耗时.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		method, path := c.Request.Method, endpoint(c)
		status := strconv.Itoa(c.Writer.Status())

		metrics.RequestCounter.WithLabelValues(method, path, status).Inc()
		metrics.RequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

// BodyLimit 限制请求体字节数，limit <= 0 时不限制. 超限时读取返回 *http.MaxBytesError.
func BodyLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit > 0 && c.Request.Body != nil {
			if c.Request.ContentLength > limit {
				c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
					gin.H{"error": "request body exceeds " + strconv.FormatInt(limit, 10) + " bytes"})

				return
			}

			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}

		c.Next()
	}
}
