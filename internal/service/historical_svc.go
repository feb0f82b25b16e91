package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"net/url"
	"strconv"
	"time"

	"tekdash_v1_202608/internal/metrics"
	"tekdash_v1_202608/internal/model"
	"tekdash_v1_202608/internal/repository"
	"tekdash_v1_202608/pkg/tekmetric"
)

const (
	historicalJobName  = "sync-historical-data"
	historicalCacheKey = "historical-performance"
	historicalCacheTTL = time.Hour
)

// HistoricalConfig 历史同步配置
// 毛利率是业务假设值而非实际成本数据，保持可配置
type HistoricalConfig struct {
	PartsMargin  float64
	LaborMargin  float64
	SubletMargin float64

	// 翻页大小，历史窗口用小页防止触发限流
	PageSize int

	// 相邻月份之间的间隔
	MonthDelay time.Duration
}

// DefaultHistoricalConfig 默认配置
func DefaultHistoricalConfig() *HistoricalConfig {
	return &HistoricalConfig{
		PartsMargin:  0.33,
		LaborMargin:  0.68,
		SubletMargin: 0.10,
		PageSize:     25,
		MonthDelay:   250 * time.Millisecond,
	}
}

// HistoricalSyncResult 历史同步结果
type HistoricalSyncResult struct {
	SyncedPeriods int       `json:"syncedPeriods"`
	Shops         int       `json:"shops"`
	RecordsStored int       `json:"recordsStored"`
	SyncTime      time.Time `json:"syncTime"`
}

// ==================== HistoricalService 历史经营数据同步 ====================

// HistoricalService 门店月度经营数据同步任务
// 覆盖当前年 + 上一年共 24 个月的已完成/已过账工单，
// 空月份同样落一行零值记录
type HistoricalService struct {
	Client         *tekmetric.Client
	Tokens         *TokenService
	HistoricalRepo repository.HistoricalRepository
	CacheRepo      repository.CacheRepository
	Metrics        *metrics.Metrics
	Config         *HistoricalConfig

	now func() time.Time
}

// NewHistoricalService 创建历史同步服务
func NewHistoricalService(client *tekmetric.Client, tokens *TokenService,
	historicalRepo repository.HistoricalRepository, cacheRepo repository.CacheRepository,
	m *metrics.Metrics, cfg *HistoricalConfig) *HistoricalService {
	if cfg == nil {
		cfg = DefaultHistoricalConfig()
	}
	return &HistoricalService{
		Client:         client,
		Tokens:         tokens,
		HistoricalRepo: historicalRepo,
		CacheRepo:      cacheRepo,
		Metrics:        m,
		Config:         cfg,
		now:            time.Now,
	}
}

// SetClock 注入时钟（测试用）
func (s *HistoricalService) SetClock(now func() time.Time) {
	s.now = now
}

// Sync 执行一次历史数据全量同步
func (s *HistoricalService) Sync(ctx context.Context) (*HistoricalSyncResult, error) {
	started := time.Now()
	log.Println("[HistSync] 开始历史经营数据同步...")

	token, err := s.Tokens.GetValidToken(ctx, historicalJobName)
	if err != nil {
		s.observe(model.SyncStatusCompletedWithErrors, started)
		return nil, err
	}

	shops, err := s.Client.FetchShops(ctx, token)
	if err != nil {
		s.observe(model.SyncStatusCompletedWithErrors, started)
		return nil, fmt.Errorf("门店列表获取失败: %w", err)
	}
	log.Printf("[HistSync] 共 %d 家门店", len(shops))

	currentYear := s.now().Year()
	years := []int{currentYear, currentYear - 1}

	var rows []model.HistoricalPerformance

	for _, shop := range shops {
		for _, year := range years {
			for month := 1; month <= 12; month++ {
				orders := s.fetchMonth(ctx, token, shop, year, month)
				rows = append(rows, s.aggregateMonth(shop, year, month, orders))

				// 月份间隔，进一步压低请求频率
				if s.Config.MonthDelay > 0 {
					time.Sleep(s.Config.MonthDelay)
				}
			}
		}
	}

	if err := s.HistoricalRepo.ReplaceAll(ctx, rows); err != nil {
		s.observe(model.SyncStatusCompletedWithErrors, started)
		return nil, fmt.Errorf("历史经营表全量刷新失败: %w", err)
	}

	if err := s.CacheRepo.Put(ctx, historicalCacheKey, rows, historicalCacheTTL); err != nil {
		log.Printf("[HistSync] 缓存写入失败: %v", err)
	}

	if s.Metrics != nil {
		s.Metrics.RowsSynced.WithLabelValues("historical_performance").Add(float64(len(rows)))
	}
	s.observe(model.SyncStatusCompleted, started)

	syncTime := time.Now()
	log.Printf("[HistSync] 同步完成: %d 个周期 / %d 家门店", len(rows), len(shops))
	return &HistoricalSyncResult{
		SyncedPeriods: len(rows),
		Shops:         len(shops),
		RecordsStored: len(rows),
		SyncTime:      syncTime,
	}, nil
}

// fetchMonth 拉取某门店某月的已完成/已过账工单
// 翻页失败只中断当月，保留已累积的部分数据
func (s *HistoricalService) fetchMonth(ctx context.Context, token string, shop tekmetric.Shop, year, month int) []tekmetric.RepairOrder {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).Add(-time.Second)

	params := url.Values{
		"shop":  []string{strconv.FormatInt(shop.ID, 10)},
		"start": []string{start.Format(time.RFC3339)},
		"end":   []string{end.Format(time.RFC3339)},
		"repairOrderStatusId": []string{
			strconv.Itoa(tekmetric.StatusPosted),
			strconv.Itoa(tekmetric.StatusClosed),
		},
	}

	orders, err := s.Client.FetchAllRepairOrders(ctx, token, params, s.Config.PageSize)
	if err != nil {
		log.Printf("[HistSync] 门店 [%s] %04d-%02d 工单拉取中断: %v (已获取 %d 单)",
			shop.Name, year, month, err, len(orders))
	}
	return orders
}

// aggregateMonth 汇总一个月的经营指标
// 毛利按配置的假设毛利率估算；所有比率/均值都带零分母保护
func (s *HistoricalService) aggregateMonth(shop tekmetric.Shop, year, month int, orders []tekmetric.RepairOrder) model.HistoricalPerformance {
	var partsGross, laborGross, subletGross int64
	var laborHours float64
	carCount := 0
	partsPieces := 0

	for _, ro := range orders {
		carCount++
		partsGross += ro.PartsSales
		laborGross += ro.LaborSales
		subletGross += ro.SubletSales

		for _, job := range ro.Jobs {
			laborHours += job.LaborHours
			partsPieces += len(job.Parts)
		}
	}

	partsProfit := float64(partsGross) * s.Config.PartsMargin
	laborProfit := float64(laborGross) * s.Config.LaborMargin
	subletProfit := float64(subletGross) * s.Config.SubletMargin

	totalGross := partsGross + laborGross + subletGross
	totalProfit := partsProfit + laborProfit + subletProfit

	row := model.HistoricalPerformance{
		ShopID:   shop.ID,
		ShopName: shop.Name,
		Year:     year,
		Month:    month,
		Period:   fmt.Sprintf("%04d-%02d", year, month),

		PartsGross:      tekmetric.CentsToUnits(partsGross),
		PartsProfit:     roundCentsFloat(partsProfit),
		PartsPiecesSold: partsPieces,

		LaborGross:  tekmetric.CentsToUnits(laborGross),
		LaborProfit: roundCentsFloat(laborProfit),
		LaborHours:  laborHours,

		SubletGross:  tekmetric.CentsToUnits(subletGross),
		SubletProfit: roundCentsFloat(subletProfit),

		TotalGross:  tekmetric.CentsToUnits(totalGross),
		TotalProfit: roundCentsFloat(totalProfit),
		CarCount:    carCount,
	}

	// 比率与均值：分母为零时一律归零，杜绝 NaN
	if partsGross > 0 {
		row.PartsMargin = partsProfit / float64(partsGross) * 100
	}
	if laborGross > 0 {
		row.LaborMargin = laborProfit / float64(laborGross) * 100
	}
	if subletGross > 0 {
		row.SubletMargin = subletProfit / float64(subletGross) * 100
	}
	if totalGross > 0 {
		row.TotalMargin = totalProfit / float64(totalGross) * 100
	}
	if partsPieces > 0 {
		row.PartsAvgTicket = roundCentsFloat(float64(partsGross) / float64(partsPieces))
	}
	if laborHours > 0 {
		row.LaborAvgHour = roundCentsFloat(float64(laborGross) / laborHours)
	}
	if carCount > 0 {
		row.AvgRo = roundCentsFloat(float64(totalGross) / float64(carCount))
	}

	return row
}

// roundCentsFloat 浮点美分值归一化为整元
func roundCentsFloat(cents float64) int64 {
	return int64(math.Round(cents / 100))
}

func (s *HistoricalService) observe(status string, started time.Time) {
	if s.Metrics == nil {
		return
	}
	s.Metrics.SyncRuns.WithLabelValues(historicalJobName, status).Inc()
	s.Metrics.SyncDuration.WithLabelValues(historicalJobName).Observe(time.Since(started).Seconds())
}
