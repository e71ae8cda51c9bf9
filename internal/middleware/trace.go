package middleware

import (
	"time"

	"fulfillment-service/internal/logger"

	"github.com/gin-gonic/gin"
)

// TraceIDHeader 追踪ID的HTTP头
const TraceIDHeader = "X-Trace-ID"

// Trace 为每个请求设置追踪ID，已有的追踪ID会被沿用
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceIDHeader)
		if traceID == "" {
			traceID = logger.GenerateTraceID()
		}

		c.Header(TraceIDHeader, traceID)
		c.Request = c.Request.WithContext(logger.WithTraceID(c.Request.Context(), traceID))
		c.Next()
	}
}

// RequestLogger 记录每个请求的方法、路径、状态码与耗时
func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		entry := log.WithFields(map[string]interface{}{
			"method":    c.Request.Method,
			"path":      path,
			"status":    c.Writer.Status(),
			"latency":   time.Since(start).String(),
			"client_ip": c.ClientIP(),
		})
		if role := c.GetString(ContextRole); role != "" {
			entry = entry.WithField("role", role)
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			entry.ErrorContext(c.Request.Context(), "%s %s %d", c.Request.Method, path, status)
		case status >= 400:
			entry.WarnContext(c.Request.Context(), "%s %s %d", c.Request.Method, path, status)
		default:
			entry.InfoContext(c.Request.Context(), "%s %s %d", c.Request.Method, path, status)
		}
	}
}
