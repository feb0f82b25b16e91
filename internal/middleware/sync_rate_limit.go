package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ==================== 同步限流中间件 ====================

// SyncRateLimit 同步触发接口的冷却中间件
// 按同步类型维度限流，冷却中返回 429
//
// 使用示例:
//
//	router.POST("/sync-aging-wip",
//	    middleware.SyncRateLimit("aging-wip", time.Minute),
//	    syncCtl.SyncAgingWip,
//	)
func SyncRateLimit(syncType string, interval time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "sync:" + syncType

		result := GetLimiter().Check(key, interval)
		if !result.Allowed {
			retryAfter := int(result.RetryAfter.Seconds())
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       formatRetryMessage(result.RetryAfter),
				"retry_after": retryAfter,
				"sync_type":   syncType,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// formatRetryMessage 格式化重试提示信息
func formatRetryMessage(d time.Duration) string {
	seconds := int(d.Seconds())

	if seconds < 60 {
		return fmt.Sprintf("同步冷却中，请 %d 秒后重试", seconds)
	}

	minutes := seconds / 60
	remainingSeconds := seconds % 60

	if remainingSeconds == 0 {
		return fmt.Sprintf("同步冷却中，请 %d 分钟后重试", minutes)
	}

	return fmt.Sprintf("同步冷却中，请 %d 分 %d 秒后重试", minutes, remainingSeconds)
}
