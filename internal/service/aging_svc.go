package service

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"tekdash_v1_202608/internal/metrics"
	"tekdash_v1_202608/internal/model"
	"tekdash_v1_202608/internal/repository"
	"tekdash_v1_202608/pkg/tekmetric"
)

const (
	agingJobName  = "sync-aging-wip"
	agingCacheKey = "aging-wip"
	agingCacheTTL = 30 * time.Minute
	agingPageSize = 100

	// 子资源补全的默认并发上限
	defaultEnrichConcurrency = 4

	// 子资源获取失败时的兜底展示值
	unknownCustomer = "Unknown Customer"
	unknownVehicle  = "Unknown Vehicle"
)

// AgingSyncResult 账龄同步结果
type AgingSyncResult struct {
	SyncedOrders int              `json:"syncedOrders"`
	Shops        int              `json:"shops"`
	Data         []model.AgingWip `json:"data"`
}

// ==================== AgingService 在修账龄同步 ====================

// AgingService 在修工单账龄同步任务
// 只拉取 WorkInProgress 状态的工单，过账/关闭的工单在全量刷新后自动消失
type AgingService struct {
	Client    *tekmetric.Client
	Tokens    *TokenService
	AgingRepo repository.AgingWipRepository
	CacheRepo repository.CacheRepository
	Metrics   *metrics.Metrics

	enrichConcurrency int
	now               func() time.Time
}

// NewAgingService 创建账龄同步服务
func NewAgingService(client *tekmetric.Client, tokens *TokenService,
	agingRepo repository.AgingWipRepository, cacheRepo repository.CacheRepository,
	m *metrics.Metrics) *AgingService {
	return &AgingService{
		Client:            client,
		Tokens:            tokens,
		AgingRepo:         agingRepo,
		CacheRepo:         cacheRepo,
		Metrics:           m,
		enrichConcurrency: defaultEnrichConcurrency,
		now:               time.Now,
	}
}

// SetEnrichConcurrency 设置补全并发上限
func (s *AgingService) SetEnrichConcurrency(n int) {
	if n > 0 {
		s.enrichConcurrency = n
	}
}

// SetClock 注入时钟（测试用）
func (s *AgingService) SetClock(now func() time.Time) {
	s.now = now
}

// Sync 执行一次账龄全量同步
func (s *AgingService) Sync(ctx context.Context) (*AgingSyncResult, error) {
	started := time.Now()
	log.Println("[AgingSync] 开始账龄同步...")

	token, err := s.Tokens.GetValidToken(ctx, agingJobName)
	if err != nil {
		s.observe(model.SyncStatusCompletedWithErrors, started)
		return nil, err
	}

	shops, err := s.Client.FetchShops(ctx, token)
	if err != nil {
		s.observe(model.SyncStatusCompletedWithErrors, started)
		return nil, fmt.Errorf("门店列表获取失败: %w", err)
	}
	log.Printf("[AgingSync] 共 %d 家门店", len(shops))

	now := s.now()
	var records []model.AgingWip

	for _, shop := range shops {
		params := url.Values{
			"shop":                []string{strconv.FormatInt(shop.ID, 10)},
			"repairOrderStatusId": []string{strconv.Itoa(tekmetric.StatusWorkInProgress)},
		}

		orders, ferr := s.Client.FetchAllRepairOrders(ctx, token, params, agingPageSize)
		if ferr != nil {
			// 翻页中断只影响当前门店，保留已拉到的部分数据
			log.Printf("[AgingSync] 门店 [%s] 工单拉取中断: %v (已获取 %d 单)", shop.Name, ferr, len(orders))
		}
		log.Printf("[AgingSync] 门店 [%s] 在修工单 %d 单", shop.Name, len(orders))

		records = append(records, s.enrichOrders(ctx, token, shop, orders, now)...)
	}

	if err := s.AgingRepo.ReplaceAll(ctx, records); err != nil {
		s.observe(model.SyncStatusCompletedWithErrors, started)
		return nil, fmt.Errorf("账龄表全量刷新失败: %w", err)
	}

	// 缓存失败不影响主表已落库的结果
	if err := s.CacheRepo.Put(ctx, agingCacheKey, records, agingCacheTTL); err != nil {
		log.Printf("[AgingSync] 缓存写入失败: %v", err)
	}

	if s.Metrics != nil {
		s.Metrics.RowsSynced.WithLabelValues("aging_wip").Add(float64(len(records)))
	}
	s.observe(model.SyncStatusCompleted, started)

	log.Printf("[AgingSync] 同步完成: %d 单 / %d 家门店", len(records), len(shops))
	return &AgingSyncResult{
		SyncedOrders: len(records),
		Shops:        len(shops),
		Data:         records,
	}, nil
}

// enrichOrders 按索引并发补全客户/车辆/订金信息
// 信号量限制并发，保持结果顺序与工单顺序一致
func (s *AgingService) enrichOrders(ctx context.Context, token string, shop tekmetric.Shop,
	orders []tekmetric.RepairOrder, now time.Time) []model.AgingWip {
	results := make([]model.AgingWip, len(orders))

	sem := make(chan struct{}, s.enrichConcurrency)
	var wg sync.WaitGroup

	for i, ro := range orders {
		sem <- struct{}{}
		wg.Add(1)

		go func(idx int, order tekmetric.RepairOrder) {
			defer wg.Done()
			defer func() { <-sem }()

			results[idx] = s.buildRecord(ctx, token, shop, order, now)
		}(i, ro)
	}

	wg.Wait()
	return results
}

// buildRecord 将一张上游工单转换为账龄行
// 子资源获取失败只降级该字段，从不中断整单
func (s *AgingService) buildRecord(ctx context.Context, token string, shop tekmetric.Shop,
	ro tekmetric.RepairOrder, now time.Time) model.AgingWip {
	createdAt, ok := tekmetric.ParseDate(ro.CreatedDate)
	if !ok {
		log.Printf("[AgingSync] 工单 %d 开单时间无法解析: %q", ro.ID, ro.CreatedDate)
		createdAt = now
	}

	record := model.AgingWip{
		ShopID:            shop.ID,
		ShopName:          shop.Name,
		RepairOrderID:     ro.ID,
		RepairOrderNumber: ro.RepairOrderNumber,
		CustomerName:      unknownCustomer,
		VehicleInfo:       unknownVehicle,
		CreatedDate:       createdAt,
		DaysSinceCreated:  model.DaysSince(createdAt, now),
		AgingBucket:       model.CalculateAgingBucket(createdAt, now),
		TotalSales:        tekmetric.CentsToUnits(ro.TotalSales),
		LaborSales:        tekmetric.CentsToUnits(ro.LaborSales),
		PartsSales:        tekmetric.CentsToUnits(ro.PartsSales),
		SubletSales:       tekmetric.CentsToUnits(ro.SubletSales),
		Status:            "Work In Progress",
		TechnicianID:      ro.TechnicianID,
		ServiceWriterID:   ro.ServiceWriterID,
		SyncedAt:          now,
	}

	if ro.RepairOrderStatus != nil && ro.RepairOrderStatus.Name != "" {
		record.Status = ro.RepairOrderStatus.Name
	}
	if ro.RepairOrderLabel != nil {
		record.Label = ro.RepairOrderLabel.Name
	}
	if ro.CustomLabel != nil {
		record.CustomLabel = ro.CustomLabel.Name
	}

	// 客户姓名
	if ro.CustomerID > 0 {
		if customer, err := s.Client.FetchCustomer(ctx, token, ro.CustomerID); err != nil {
			log.Printf("[AgingSync] 客户 %d 获取失败: %v", ro.CustomerID, err)
		} else if name := strings.TrimSpace(customer.FirstName + " " + customer.LastName); name != "" {
			record.CustomerName = name
		}
	}

	// 车辆描述
	if ro.VehicleID > 0 {
		if vehicle, err := s.Client.FetchVehicle(ctx, token, ro.VehicleID); err != nil {
			log.Printf("[AgingSync] 车辆 %d 获取失败: %v", ro.VehicleID, err)
		} else {
			parts := []string{}
			if vehicle.Year > 0 {
				parts = append(parts, strconv.Itoa(vehicle.Year))
			}
			if vehicle.Make != "" {
				parts = append(parts, vehicle.Make)
			}
			if vehicle.Model != "" {
				parts = append(parts, vehicle.Model)
			}
			if info := strings.TrimSpace(strings.Join(parts, " ")); info != "" {
				record.VehicleInfo = info
			}
		}
	}

	// 订金 = 未过账工单的收款合计
	if ro.RepairOrderStatusID != tekmetric.StatusPosted {
		if payments, err := s.Client.FetchPayments(ctx, token, ro.ID); err != nil {
			log.Printf("[AgingSync] 工单 %d 收款记录获取失败: %v", ro.ID, err)
		} else {
			var totalCents int64
			for _, p := range payments {
				totalCents += p.AmountPaid
			}
			record.DepositAmount = tekmetric.CentsToUnits(totalCents)
		}
	}

	return record
}

func (s *AgingService) observe(status string, started time.Time) {
	if s.Metrics == nil {
		return
	}
	s.Metrics.SyncRuns.WithLabelValues(agingJobName, status).Inc()
	s.Metrics.SyncDuration.WithLabelValues(agingJobName).Observe(time.Since(started).Seconds())
}
