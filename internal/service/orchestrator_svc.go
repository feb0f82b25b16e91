package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"tekdash_v1_202608/internal/metrics"
	"tekdash_v1_202608/internal/model"
	"tekdash_v1_202608/internal/repository"

	"github.com/google/uuid"
)

const orchestratorJobName = "hourly-sync"

// OrchestrationResult 一次编排同步的汇总
type OrchestrationResult struct {
	SyncID       string               `json:"syncId"`
	SuccessCount int                  `json:"successCount"`
	ErrorCount   int                  `json:"errorCount"`
	Errors       []model.SyncJobError `json:"errors"`
	Timestamp    time.Time            `json:"timestamp"`
}

// ==================== OrchestratorService 同步编排 ====================

// OrchestratorService 串行编排两个同步任务并记录运行审计
// 单个任务失败不阻断另一个任务，失败明细进入 SyncLog.Errors
type OrchestratorService struct {
	SyncLogRepo repository.SyncLogRepository
	Historical  *HistoricalService
	Aging       *AgingService
	Metrics     *metrics.Metrics
}

// NewOrchestratorService 创建编排服务
func NewOrchestratorService(syncLogRepo repository.SyncLogRepository,
	historical *HistoricalService, aging *AgingService, m *metrics.Metrics) *OrchestratorService {
	return &OrchestratorService{
		SyncLogRepo: syncLogRepo,
		Historical:  historical,
		Aging:       aging,
		Metrics:     m,
	}
}

// Run 执行一轮编排同步
// 状态机: in_progress -> completed | completed_with_errors
func (s *OrchestratorService) Run(ctx context.Context) (*OrchestrationResult, error) {
	started := time.Now()
	log.Println("[Orchestrator] 开始编排同步...")

	syncLog := &model.SyncLog{
		ID:            uuid.NewString(),
		Status:        model.SyncStatusInProgress,
		SyncStartedAt: started,
	}

	syncID := syncLog.ID
	if err := s.SyncLogRepo.Create(ctx, syncLog); err != nil {
		// 审计起始记录写不进去时任务照常执行，只是丢失这一轮的运行日志
		log.Printf("[Orchestrator] 同步日志创建失败: %v", err)
		syncID = ""
	}

	var errs []model.SyncJobError
	successCount := 0

	// 先历史后账龄，两个任务互不阻断
	if _, err := s.Historical.Sync(ctx); err != nil {
		log.Printf("[Orchestrator] 历史同步失败: %v", err)
		errs = append(errs, model.SyncJobError{Job: historicalJobName, Error: err.Error()})
	} else {
		successCount++
	}

	if _, err := s.Aging.Sync(ctx); err != nil {
		log.Printf("[Orchestrator] 账龄同步失败: %v", err)
		errs = append(errs, model.SyncJobError{Job: agingJobName, Error: err.Error()})
	} else {
		successCount++
	}

	status := model.SyncStatusCompleted
	if len(errs) > 0 {
		status = model.SyncStatusCompletedWithErrors
	}

	if syncID != "" {
		if err := s.SyncLogRepo.Complete(ctx, syncID, status, successCount, len(errs), errs); err != nil {
			log.Printf("[Orchestrator] 同步日志收尾失败: %v", err)
			s.failLog(ctx, syncID, successCount)
			return nil, fmt.Errorf("同步日志收尾失败: %w", err)
		}
	}

	if s.Metrics != nil {
		s.Metrics.SyncRuns.WithLabelValues(orchestratorJobName, status).Inc()
		s.Metrics.SyncDuration.WithLabelValues(orchestratorJobName).Observe(time.Since(started).Seconds())
	}

	log.Printf("[Orchestrator] 编排完成: 成功 %d / 失败 %d", successCount, len(errs))
	return &OrchestrationResult{
		SyncID:       syncID,
		SuccessCount: successCount,
		ErrorCount:   len(errs),
		Errors:       errs,
		Timestamp:    time.Now(),
	}, nil
}

// failLog 编排层自身出错时，尽力把日志行置为带错误的终态
func (s *OrchestratorService) failLog(ctx context.Context, syncID string, successCount int) {
	err := s.SyncLogRepo.Complete(ctx, syncID, model.SyncStatusCompletedWithErrors,
		successCount, 1, []model.SyncJobError{{Job: orchestratorJobName, Error: "orchestration failure"}})
	if err != nil {
		log.Printf("[Orchestrator] 错误状态写入失败: %v", err)
	}
}
