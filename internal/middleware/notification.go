package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/stitchworks/capline/internal/planning/event"
	"go.uber.org/zap"
)

// NotificationBoundary 请求即提交边界：每个请求建独立的缓冲分发器挂到
// 上下文，处理成功后刷出本次收集的出站通知，失败则丢弃。
// 通知绝不先于成功响应发出，并发请求互不串扰。
func NotificationBoundary(logger *zap.Logger, handlers ...event.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		d := event.NewBufferedDispatcher(logger, handlers...)
		c.Request = c.Request.WithContext(event.NewContext(c.Request.Context(), d))

		c.Next()

		if c.Writer.Status() < 400 && len(c.Errors) == 0 {
			d.FlushOnCommit()
		} else {
			d.DiscardOnRollback()
		}
	}
}
