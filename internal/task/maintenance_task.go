package task

import (
	"context"
	"log"
	"sync"
	"time"

	"tekdash_v1_202608/internal/repository"
)

// MaintenanceTask 后台维护任务
// 周期性清理过期的缓存快照，并按保留期修剪 Token 审计日志，
// 防止两张只增表无限膨胀
type MaintenanceTask struct {
	cacheRepo repository.CacheRepository
	tokenRepo repository.TokenRepository

	interval       time.Duration
	auditRetention time.Duration

	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// MaintenanceOption 任务选项
type MaintenanceOption func(*MaintenanceTask)

// WithMaintenanceInterval 设置执行间隔
func WithMaintenanceInterval(d time.Duration) MaintenanceOption {
	return func(t *MaintenanceTask) {
		if d > 0 {
			t.interval = d
		}
	}
}

// WithAuditRetention 设置审计日志保留期
func WithAuditRetention(d time.Duration) MaintenanceOption {
	return func(t *MaintenanceTask) {
		if d > 0 {
			t.auditRetention = d
		}
	}
}

// NewMaintenanceTask 创建维护任务
func NewMaintenanceTask(cacheRepo repository.CacheRepository,
	tokenRepo repository.TokenRepository, opts ...MaintenanceOption) *MaintenanceTask {
	t := &MaintenanceTask{
		cacheRepo:      cacheRepo,
		tokenRepo:      tokenRepo,
		interval:       24 * time.Hour,
		auditRetention: 90 * 24 * time.Hour,
		stopCh:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start 启动维护任务
func (t *MaintenanceTask) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return
	}
	t.running = true

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()

		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				t.runOnce(context.Background())
			case <-t.stopCh:
				return
			}
		}
	}()

	log.Printf("[Maintenance] 维护任务已启动 (间隔 %v)", t.interval)
}

// Stop 停止维护任务并等待退出
func (t *MaintenanceTask) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return
	}
	t.running = false

	close(t.stopCh)
	t.wg.Wait()
	log.Println("[Maintenance] 维护任务已停止")
}

// runOnce 执行一轮清理
func (t *MaintenanceTask) runOnce(ctx context.Context) {
	if purged, err := t.cacheRepo.PurgeExpired(ctx); err != nil {
		log.Printf("[Maintenance] 过期缓存清理失败: %v", err)
	} else if purged > 0 {
		log.Printf("[Maintenance] 已清理 %d 条过期缓存", purged)
	}

	before := time.Now().Add(-t.auditRetention)
	if pruned, err := t.tokenRepo.PruneAudit(ctx, before); err != nil {
		log.Printf("[Maintenance] 审计日志修剪失败: %v", err)
	} else if pruned > 0 {
		log.Printf("[Maintenance] 已修剪 %d 条过期审计日志", pruned)
	}
}
