package controller

import (
	"net/http"
	"strconv"

	"tekdash_v1_202608/internal/model"
	"tekdash_v1_202608/internal/repository"

	"github.com/gin-gonic/gin"
)

// ==================== DashboardController 看板查询控制器 ====================

// DashboardController 看板只读查询接口
// 看板本体（图表/页面）不在本服务内，这里只暴露数据面
type DashboardController struct {
	agingRepo      repository.AgingWipRepository
	historicalRepo repository.HistoricalRepository
	syncLogRepo    repository.SyncLogRepository
	tokenRepo      repository.TokenRepository
	cacheRepo      repository.CacheRepository
}

// NewDashboardController 创建看板查询控制器
func NewDashboardController(agingRepo repository.AgingWipRepository,
	historicalRepo repository.HistoricalRepository, syncLogRepo repository.SyncLogRepository,
	tokenRepo repository.TokenRepository, cacheRepo repository.CacheRepository) *DashboardController {
	return &DashboardController{
		agingRepo:      agingRepo,
		historicalRepo: historicalRepo,
		syncLogRepo:    syncLogRepo,
		tokenRepo:      tokenRepo,
		cacheRepo:      cacheRepo,
	}
}

// ==================== Handler 实现 ====================

// GetAgingWip 查询在修账龄列表
// GET /api/aging-wip?shop_id=&bucket=&cached=
func (c *DashboardController) GetAgingWip(ctx *gin.Context) {
	// cached=true 时优先走缓存快照，缓存过期则回落主表
	if ctx.Query("cached") == "true" {
		var cached []model.AgingWip
		if hit, err := c.cacheRepo.Get(ctx.Request.Context(), "aging-wip", &cached); err == nil && hit {
			ctx.JSON(http.StatusOK, gin.H{
				"code":    200,
				"message": "ok",
				"data":    gin.H{"rows": cached, "total": len(cached), "cached": true},
			})
			return
		}
	}

	filter := repository.AgingWipFilter{
		ShopID: parseInt64Query(ctx, "shop_id"),
		Bucket: ctx.Query("bucket"),
	}

	rows, err := c.agingRepo.List(ctx.Request.Context(), filter)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "ok",
		"data":    gin.H{"rows": rows, "total": len(rows), "cached": false},
	})
}

// GetHistoricalPerformance 查询月度经营数据
// GET /api/historical-performance?shop_id=&year=
func (c *DashboardController) GetHistoricalPerformance(ctx *gin.Context) {
	filter := repository.HistoricalFilter{
		ShopID: parseInt64Query(ctx, "shop_id"),
		Year:   int(parseInt64Query(ctx, "year")),
	}

	rows, err := c.historicalRepo.List(ctx.Request.Context(), filter)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "ok",
		"data":    gin.H{"rows": rows, "total": len(rows)},
	})
}

// GetSyncLogs 查询最近的同步运行记录
// GET /api/sync-logs?limit=
func (c *DashboardController) GetSyncLogs(ctx *gin.Context) {
	limit := int(parseInt64Query(ctx, "limit"))

	logs, err := c.syncLogRepo.Latest(ctx.Request.Context(), limit)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "ok",
		"data":    gin.H{"rows": logs, "total": len(logs)},
	})
}

// GetTokenAudit 查询 Token 审计日志
// GET /api/token/audit?limit=
func (c *DashboardController) GetTokenAudit(ctx *gin.Context) {
	limit := int(parseInt64Query(ctx, "limit"))

	entries, err := c.tokenRepo.ListAudit(ctx.Request.Context(), limit)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "ok",
		"data":    gin.H{"rows": entries, "total": len(entries)},
	})
}

// ==================== 工具函数 ====================

func parseInt64Query(ctx *gin.Context, key string) int64 {
	s := ctx.Query(key)
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
