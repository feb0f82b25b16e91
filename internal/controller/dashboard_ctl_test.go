package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tekdash_v1_202608/internal/model"
	"tekdash_v1_202608/internal/repository"
)

func setupDashboardRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}
	err = db.AutoMigrate(&model.TekmetricToken{}, &model.TokenAuditLog{},
		&model.AgingWip{}, &model.HistoricalPerformance{}, &model.SyncLog{}, &model.ApiCache{})
	if err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}

	ctl := NewDashboardController(
		repository.NewAgingWipRepository(db),
		repository.NewHistoricalRepository(db),
		repository.NewSyncLogRepository(db),
		repository.NewTokenRepository(db),
		repository.NewCacheRepository(db),
	)

	r := gin.New()
	api := r.Group("/api")
	{
		api.GET("/aging-wip", ctl.GetAgingWip)
		api.GET("/historical-performance", ctl.GetHistoricalPerformance)
		api.GET("/sync-logs", ctl.GetSyncLogs)
		api.GET("/token/audit", ctl.GetTokenAudit)
	}

	return r, db
}

type dashboardResp struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Rows   json.RawMessage `json:"rows"`
		Total  int             `json:"total"`
		Cached bool            `json:"cached"`
	} `json:"data"`
}

func doGet(t *testing.T, r *gin.Engine, path string) *dashboardResp {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET %s 状态码 = %d, want 200", path, w.Code)
	}

	var resp dashboardResp
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("响应解析失败: %v", err)
	}
	if resp.Code != 200 {
		t.Fatalf("code = %d, want 200", resp.Code)
	}
	return &resp
}

func TestDashboard_GetAgingWipWithFilter(t *testing.T) {
	r, db := setupDashboardRouter(t)

	agingRepo := repository.NewAgingWipRepository(db)
	now := time.Now()
	agingRepo.ReplaceAll(context.Background(), []model.AgingWip{
		{ShopID: 1, ShopName: "Downtown", RepairOrderID: 101, CustomerName: "A", VehicleInfo: "V",
			CreatedDate: now, DaysSinceCreated: 5, AgingBucket: model.Bucket0To30, SyncedAt: now},
		{ShopID: 2, ShopName: "Uptown", RepairOrderID: 201, CustomerName: "B", VehicleInfo: "V",
			CreatedDate: now, DaysSinceCreated: 95, AgingBucket: model.Bucket90Plus, SyncedAt: now},
	})

	resp := doGet(t, r, "/api/aging-wip")
	if resp.Data.Total != 2 {
		t.Errorf("total = %d, want 2", resp.Data.Total)
	}

	resp = doGet(t, r, "/api/aging-wip?shop_id=2")
	if resp.Data.Total != 1 {
		t.Errorf("门店过滤后 total = %d, want 1", resp.Data.Total)
	}

	resp = doGet(t, r, "/api/aging-wip?bucket=90%2B+days")
	if resp.Data.Total != 1 {
		t.Errorf("账龄桶过滤后 total = %d, want 1", resp.Data.Total)
	}
}

func TestDashboard_GetAgingWipPrefersCache(t *testing.T) {
	r, db := setupDashboardRouter(t)

	cacheRepo := repository.NewCacheRepository(db)
	now := time.Now()
	snapshot := []model.AgingWip{
		{ShopID: 1, ShopName: "Downtown", RepairOrderID: 101, CustomerName: "A", VehicleInfo: "V",
			CreatedDate: now, DaysSinceCreated: 5, AgingBucket: model.Bucket0To30, SyncedAt: now},
	}
	if err := cacheRepo.Put(context.Background(), "aging-wip", snapshot, 30*time.Minute); err != nil {
		t.Fatalf("缓存写入失败: %v", err)
	}

	// 主表为空，但缓存命中
	resp := doGet(t, r, "/api/aging-wip?cached=true")
	if !resp.Data.Cached {
		t.Error("cached=true 且缓存有效时应走缓存")
	}
	if resp.Data.Total != 1 {
		t.Errorf("total = %d, want 1", resp.Data.Total)
	}

	// 不带 cached 参数时查主表
	resp = doGet(t, r, "/api/aging-wip")
	if resp.Data.Cached || resp.Data.Total != 0 {
		t.Errorf("主表查询应为空, cached=%v total=%d", resp.Data.Cached, resp.Data.Total)
	}
}

func TestDashboard_GetSyncLogsAndTokenAudit(t *testing.T) {
	r, db := setupDashboardRouter(t)

	syncLogRepo := repository.NewSyncLogRepository(db)
	syncLogRepo.Create(context.Background(), &model.SyncLog{ID: "test-sync-id"})

	tokenRepo := repository.NewTokenRepository(db)
	tokenRepo.AppendAudit(context.Background(), &model.TokenAuditLog{
		TokenID: 1, AccessedBy: "sync-aging-wip", Action: model.TokenActionAccessed, Success: true,
	})

	resp := doGet(t, r, "/api/sync-logs")
	if resp.Data.Total != 1 {
		t.Errorf("sync-logs total = %d, want 1", resp.Data.Total)
	}

	resp = doGet(t, r, "/api/token/audit")
	if resp.Data.Total != 1 {
		t.Errorf("token audit total = %d, want 1", resp.Data.Total)
	}
}
