package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tekdash_v1_202608/internal/model"
)

func setupSyncLogTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}

	err = db.AutoMigrate(&model.SyncLog{})
	if err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}

	return db
}

func TestSyncLogRepo_CreateDefaults(t *testing.T) {
	db := setupSyncLogTestDB(t)
	repo := NewSyncLogRepository(db)
	ctx := context.Background()

	syncLog := &model.SyncLog{ID: uuid.NewString()}
	if err := repo.Create(ctx, syncLog); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	found, err := repo.GetByID(ctx, syncLog.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.Status != model.SyncStatusInProgress {
		t.Errorf("Status = %q, want in_progress", found.Status)
	}
	if found.SyncStartedAt.IsZero() {
		t.Error("SyncStartedAt 应被自动填充")
	}
	if found.SyncCompletedAt != nil {
		t.Error("新记录的 SyncCompletedAt 应为空")
	}
}

func TestSyncLogRepo_CompleteWithErrors(t *testing.T) {
	db := setupSyncLogTestDB(t)
	repo := NewSyncLogRepository(db)
	ctx := context.Background()

	syncLog := &model.SyncLog{ID: uuid.NewString()}
	repo.Create(ctx, syncLog)

	errs := []model.SyncJobError{
		{Job: "sync-historical-data", Error: "鉴权失败"},
	}
	err := repo.Complete(ctx, syncLog.ID, model.SyncStatusCompletedWithErrors, 1, 1, errs)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	found, _ := repo.GetByID(ctx, syncLog.ID)
	if found.Status != model.SyncStatusCompletedWithErrors {
		t.Errorf("Status = %q, want completed_with_errors", found.Status)
	}
	if found.SyncCompletedAt == nil {
		t.Error("SyncCompletedAt 应被填充")
	}
	if found.SuccessCount != 1 || found.ErrorCount != 1 {
		t.Errorf("计数 = %d/%d, want 1/1", found.SuccessCount, found.ErrorCount)
	}

	// 错误明细可以反序列化回来
	var parsed []model.SyncJobError
	if err := json.Unmarshal(found.Errors, &parsed); err != nil {
		t.Fatalf("Errors 反序列化失败: %v", err)
	}
	if len(parsed) != 1 || parsed[0].Job != "sync-historical-data" {
		t.Errorf("错误明细 = %+v", parsed)
	}
}

func TestSyncLogRepo_LatestOrderAndLimit(t *testing.T) {
	db := setupSyncLogTestDB(t)
	repo := NewSyncLogRepository(db)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		repo.Create(ctx, &model.SyncLog{
			ID:            uuid.NewString(),
			Status:        model.SyncStatusCompleted,
			SyncStartedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	logs, err := repo.Latest(ctx, 2)
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("len = %d, want 2", len(logs))
	}
	if !logs[0].SyncStartedAt.After(logs[1].SyncStartedAt) {
		t.Error("应按开始时间倒序返回")
	}
}
