package service

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tekdash_v1_202608/internal/model"
	"tekdash_v1_202608/internal/repository"
	"tekdash_v1_202608/pkg/tekmetric"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.001
}

func TestHistoricalService_AggregateMonth(t *testing.T) {
	svc := NewHistoricalService(nil, nil, nil, nil, nil, nil)
	shop := tekmetric.Shop{ID: 1, Name: "Downtown"}

	orders := []tekmetric.RepairOrder{{
		ID:          101,
		PartsSales:  500000,
		LaborSales:  200000,
		SubletSales: 100000,
		Jobs: []tekmetric.Job{{
			LaborHours: 10,
			Parts:      []tekmetric.Part{{ID: 1}, {ID: 2}},
		}},
	}}

	row := svc.aggregateMonth(shop, 2026, 6, orders)

	if row.Period != "2026-06" {
		t.Errorf("Period = %q, want 2026-06", row.Period)
	}

	// 配件: 毛额 5000 元，按 33% 假设毛利率
	if row.PartsGross != 5000 {
		t.Errorf("PartsGross = %d, want 5000", row.PartsGross)
	}
	if row.PartsProfit != 1650 {
		t.Errorf("PartsProfit = %d, want 1650", row.PartsProfit)
	}
	if !almostEqual(row.PartsMargin, 33.0) {
		t.Errorf("PartsMargin = %f, want 33.0", row.PartsMargin)
	}
	if row.PartsPiecesSold != 2 || row.PartsAvgTicket != 2500 {
		t.Errorf("配件件数/均价 = %d/%d, want 2/2500", row.PartsPiecesSold, row.PartsAvgTicket)
	}

	// 工时: 毛额 2000 元，按 68%
	if row.LaborGross != 2000 || row.LaborProfit != 1360 {
		t.Errorf("工时毛额/毛利 = %d/%d, want 2000/1360", row.LaborGross, row.LaborProfit)
	}
	if !almostEqual(row.LaborMargin, 68.0) {
		t.Errorf("LaborMargin = %f, want 68.0", row.LaborMargin)
	}
	if !almostEqual(row.LaborHours, 10) || row.LaborAvgHour != 200 {
		t.Errorf("工时数/时均 = %f/%d, want 10/200", row.LaborHours, row.LaborAvgHour)
	}

	// 外协: 毛额 1000 元，按 10%
	if row.SubletGross != 1000 || row.SubletProfit != 100 {
		t.Errorf("外协毛额/毛利 = %d/%d, want 1000/100", row.SubletGross, row.SubletProfit)
	}

	// 汇总
	if row.TotalGross != 8000 || row.TotalProfit != 3110 {
		t.Errorf("汇总毛额/毛利 = %d/%d, want 8000/3110", row.TotalGross, row.TotalProfit)
	}
	if !almostEqual(row.TotalMargin, 38.875) {
		t.Errorf("TotalMargin = %f, want 38.875", row.TotalMargin)
	}
	if row.CarCount != 1 || row.AvgRo != 8000 {
		t.Errorf("台次/单均 = %d/%d, want 1/8000", row.CarCount, row.AvgRo)
	}
}

func TestHistoricalService_AggregateEmptyMonthAllZero(t *testing.T) {
	svc := NewHistoricalService(nil, nil, nil, nil, nil, nil)
	shop := tekmetric.Shop{ID: 1, Name: "Downtown"}

	row := svc.aggregateMonth(shop, 2025, 2, nil)

	if row.CarCount != 0 || row.TotalGross != 0 || row.TotalProfit != 0 {
		t.Errorf("空月份应全零, got %+v", row)
	}
	// 零分母保护：比率与均值必须是 0 而不是 NaN
	for name, v := range map[string]float64{
		"PartsMargin": row.PartsMargin,
		"LaborMargin": row.LaborMargin,
		"TotalMargin": row.TotalMargin,
	} {
		if v != 0 || math.IsNaN(v) {
			t.Errorf("%s = %f, want 0", name, v)
		}
	}
	if row.AvgRo != 0 || row.PartsAvgTicket != 0 || row.LaborAvgHour != 0 {
		t.Errorf("均值应为 0, got %d/%d/%d", row.AvgRo, row.PartsAvgTicket, row.LaborAvgHour)
	}
}

func TestHistoricalService_SyncCoversTwoYears(t *testing.T) {
	statusParams := [][]string{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/oauth/token":
			json.NewEncoder(w).Encode(tekmetric.TokenResp{AccessToken: "tok", ExpiresIn: 3600})
		case "/shops":
			json.NewEncoder(w).Encode([]tekmetric.Shop{{ID: 1, Name: "Downtown"}})
		case "/repair-orders":
			statusParams = append(statusParams, r.URL.Query()["repairOrderStatusId"])
			json.NewEncoder(w).Encode(tekmetric.PagedRepairOrders{})
		default:
			t.Errorf("意外的请求路径: %s", r.URL.Path)
		}
	}))
	defer server.Close()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}
	err = db.AutoMigrate(&model.TekmetricToken{}, &model.TokenAuditLog{},
		&model.HistoricalPerformance{}, &model.ApiCache{})
	if err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}

	client := tekmetric.NewClient(server.URL, "id", "secret")
	client.SetPageDelay(0)

	cfg := DefaultHistoricalConfig()
	cfg.MonthDelay = 0

	tokenSvc := NewTokenService(repository.NewTokenRepository(db), client, nil)
	historicalRepo := repository.NewHistoricalRepository(db)
	cacheRepo := repository.NewCacheRepository(db)

	svc := NewHistoricalService(client, tokenSvc, historicalRepo, cacheRepo, nil, cfg)
	svc.SetClock(func() time.Time {
		return time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	})

	result, err := svc.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	// 当前年 + 上一年，空月份也落零值行
	if result.SyncedPeriods != 24 {
		t.Errorf("SyncedPeriods = %d, want 24", result.SyncedPeriods)
	}

	rows, _ := historicalRepo.List(context.Background(), repository.HistoricalFilter{})
	if len(rows) != 24 {
		t.Fatalf("落库行数 = %d, want 24", len(rows))
	}
	periods := map[string]bool{}
	for _, row := range rows {
		periods[row.Period] = true
	}
	for _, want := range []string{"2026-01", "2026-12", "2025-01", "2025-12"} {
		if !periods[want] {
			t.Errorf("缺少周期 %s", want)
		}
	}

	// 只拉取已过账/已关闭的工单
	if len(statusParams) != 24 {
		t.Errorf("工单请求次数 = %d, want 24", len(statusParams))
	}
	if len(statusParams) > 0 {
		got := statusParams[0]
		if len(got) != 2 || got[0] != "3" || got[1] != "5" {
			t.Errorf("repairOrderStatusId = %v, want [3 5]", got)
		}
	}

	var cached []model.HistoricalPerformance
	hit, _ := cacheRepo.Get(context.Background(), "historical-performance", &cached)
	if !hit || len(cached) != 24 {
		t.Errorf("缓存应命中 24 行, hit=%v len=%d", hit, len(cached))
	}
}
