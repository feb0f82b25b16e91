package repository

import (
	"context"
	"encoding/json"
	"time"

	"tekdash_v1_202608/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ==================== SyncLogRepository 同步日志仓库 ====================

// SyncLogRepository 同步运行审计日志仓库接口
type SyncLogRepository interface {
	// Create 写入一条 in_progress 的新记录
	Create(ctx context.Context, syncLog *model.SyncLog) error

	// Complete 收尾更新：终态、完成时间、成功/失败计数与错误明细
	Complete(ctx context.Context, id, status string, successCount, errorCount int, errs []model.SyncJobError) error

	GetByID(ctx context.Context, id string) (*model.SyncLog, error)
	Latest(ctx context.Context, limit int) ([]model.SyncLog, error)
}

// ==================== 实现 ====================

type syncLogRepository struct {
	db *gorm.DB
}

// NewSyncLogRepository 创建同步日志仓库
func NewSyncLogRepository(db *gorm.DB) SyncLogRepository {
	return &syncLogRepository{db: db}
}

func (r *syncLogRepository) Create(ctx context.Context, syncLog *model.SyncLog) error {
	if syncLog.Status == "" {
		syncLog.Status = model.SyncStatusInProgress
	}
	if syncLog.SyncStartedAt.IsZero() {
		syncLog.SyncStartedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(syncLog).Error
}

func (r *syncLogRepository) Complete(ctx context.Context, id, status string, successCount, errorCount int, errs []model.SyncJobError) error {
	now := time.Now()
	updates := map[string]interface{}{
		"status":            status,
		"sync_completed_at": now,
		"success_count":     successCount,
		"error_count":       errorCount,
	}

	if len(errs) > 0 {
		raw, err := json.Marshal(errs)
		if err != nil {
			return err
		}
		updates["errors"] = datatypes.JSON(raw)
	}

	return r.db.WithContext(ctx).
		Model(&model.SyncLog{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *syncLogRepository) GetByID(ctx context.Context, id string) (*model.SyncLog, error) {
	var syncLog model.SyncLog
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&syncLog).Error
	if err != nil {
		return nil, err
	}
	return &syncLog, nil
}

func (r *syncLogRepository) Latest(ctx context.Context, limit int) ([]model.SyncLog, error) {
	if limit <= 0 {
		limit = 20
	}
	var logs []model.SyncLog
	err := r.db.WithContext(ctx).
		Order("sync_started_at DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}
