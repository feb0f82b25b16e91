package task

import (
	"context"
	"log"
	"time"

	"tekdash_v1_202608/internal/service"

	"github.com/robfig/cron/v3"
)

// SyncTask 每小时触发一轮编排同步
// 门店多时一轮可能跑很久，超时上限给到 25 分钟，
// 避免与下一轮整点触发叠加
type SyncTask struct {
	Orchestrator *service.OrchestratorService
	Cron         *cron.Cron

	timeout time.Duration
}

// NewSyncTask 创建定时同步任务
func NewSyncTask(orchestrator *service.OrchestratorService) *SyncTask {
	return &SyncTask{
		Orchestrator: orchestrator,
		Cron:         cron.New(cron.WithSeconds()), // 支持秒级表达式
		timeout:      25 * time.Minute,
	}
}

// Start 启动定时任务
func (t *SyncTask) Start() {
	// 每小时整点执行
	_, err := t.Cron.AddFunc("0 0 * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
		defer cancel()

		if _, err := t.Orchestrator.Run(ctx); err != nil {
			log.Printf("[SyncTask] 定时同步执行失败: %v", err)
		}
	})

	if err != nil {
		log.Fatalf("无法启动定时同步任务: %v", err)
	}

	t.Cron.Start()
	log.Println("[SyncTask] 定时同步任务已启动 (每小时整点)")
}

// Stop 停止定时任务
func (t *SyncTask) Stop() {
	t.Cron.Stop()
	log.Println("[SyncTask] 定时同步任务已停止")
}
