package controller

import (
	"net/http"
	"time"

	"tekdash_v1_202608/internal/service"

	"github.com/gin-gonic/gin"
)

// ==================== SyncController 同步控制器 ====================

// SyncController 同步触发控制器
// 响应体字段与看板前端已有的调用约定保持一致
type SyncController struct {
	aging        *service.AgingService
	historical   *service.HistoricalService
	orchestrator *service.OrchestratorService
}

// NewSyncController 创建同步控制器
func NewSyncController(aging *service.AgingService, historical *service.HistoricalService,
	orchestrator *service.OrchestratorService) *SyncController {
	return &SyncController{
		aging:        aging,
		historical:   historical,
		orchestrator: orchestrator,
	}
}

// ==================== Handler 实现 ====================

// SyncAgingWip 触发账龄同步
// POST /sync-aging-wip
func (c *SyncController) SyncAgingWip(ctx *gin.Context) {
	result, err := c.aging.Sync(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success":      true,
		"syncedOrders": result.SyncedOrders,
		"shops":        result.Shops,
		"data":         result.Data,
	})
}

// SyncHistoricalData 触发历史经营数据同步
// POST /sync-historical-data
func (c *SyncController) SyncHistoricalData(ctx *gin.Context) {
	result, err := c.historical.Sync(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success":       true,
		"message":       "历史经营数据已同步",
		"syncedPeriods": result.SyncedPeriods,
		"shops":         result.Shops,
		"recordsStored": result.RecordsStored,
		"syncTime":      result.SyncTime.Format(time.RFC3339),
	})
}

// HourlySync 触发一轮编排同步
// POST /hourly-sync
func (c *SyncController) HourlySync(ctx *gin.Context) {
	result, err := c.orchestrator.Run(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success":      true,
		"syncId":       result.SyncID,
		"successCount": result.SuccessCount,
		"errorCount":   result.ErrorCount,
		"errors":       result.Errors,
		"timestamp":    result.Timestamp.Format(time.RFC3339),
	})
}
