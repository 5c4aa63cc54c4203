package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	correlationIDKey  = "correlationID"
	correlationHeader = "X-Correlation-ID"
)

// CorrelationIDMiddleware 保证每个请求带 Correlation ID：客户端传了就沿用,
// 没传就生成。导出任务与 WebSocket 通知靠它把一次点击串起来。
func CorrelationIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(correlationHeader)
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(correlationIDKey, id)
		c.Header(correlationHeader, id)

		c.Next()
	}
}

// GetCorrelationID 取出当前请求的 Correlation ID，没有则返回空串。
func GetCorrelationID(c *gin.Context) string {
	if value, ok := c.Get(correlationIDKey); ok {
		if id, ok := value.(string); ok {
			return id
		}
	}
	return ""
}
