package model

import (
	"time"

	"gorm.io/datatypes"
)

// ==================== 同步运行状态 ====================

// 同步运行状态机: in_progress -> completed | completed_with_errors
const (
	SyncStatusInProgress          = "in_progress"
	SyncStatusCompleted           = "completed"
	SyncStatusCompletedWithErrors = "completed_with_errors"
)

// SyncJobError 单个子任务的失败记录，序列化进 SyncLog.Errors
type SyncJobError struct {
	Job   string `json:"job"`
	Error string `json:"error"`
}

// SyncLog 一次编排同步的审计记录，开始时创建，结束时更新一次，从不删除
type SyncLog struct {
	ID              string         `gorm:"primaryKey;size:36" json:"id"`
	Status          string         `gorm:"size:32;not null;default:in_progress" json:"status"`
	SyncStartedAt   time.Time      `gorm:"not null" json:"sync_started_at"`
	SyncCompletedAt *time.Time     `json:"sync_completed_at"`
	SuccessCount    int            `gorm:"default:0" json:"success_count"`
	ErrorCount      int            `gorm:"default:0" json:"error_count"`
	Errors          datatypes.JSON `json:"errors,omitempty"`
}

func (*SyncLog) TableName() string {
	return "tekmetric_sync_logs"
}
