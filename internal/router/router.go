package router

import (
	"net/http"
	"time"

	"tekdash_v1_202608/internal/controller"
	"tekdash_v1_202608/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Controllers 路由依赖的控制器集合
type Controllers struct {
	Sync      *controller.SyncController
	Dashboard *controller.DashboardController
}

// SetupRouter 注册所有路由
func SetupRouter(ctls *Controllers) *gin.Engine {
	r := gin.Default()
	r.Use(middleware.CORS())

	// 探活与指标
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 同步触发接口：路径沿用看板前端已有的调用约定
	r.POST("/sync-aging-wip",
		middleware.SyncRateLimit("aging-wip", time.Minute),
		ctls.Sync.SyncAgingWip)
	r.POST("/sync-historical-data",
		middleware.SyncRateLimit("historical-data", 5*time.Minute),
		ctls.Sync.SyncHistoricalData)
	r.POST("/hourly-sync",
		middleware.SyncRateLimit("hourly-sync", time.Minute),
		ctls.Sync.HourlySync)

	// 看板只读查询
	api := r.Group("/api")
	{
		api.GET("/aging-wip", ctls.Dashboard.GetAgingWip)
		api.GET("/historical-performance", ctls.Dashboard.GetHistoricalPerformance)
		api.GET("/sync-logs", ctls.Dashboard.GetSyncLogs)
		api.GET("/token/audit", ctls.Dashboard.GetTokenAudit)
	}

	return r
}
