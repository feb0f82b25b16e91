package repository

import (
	"context"

	"tekdash_v1_202608/internal/model"

	"gorm.io/gorm"
)

// agingWipBatchSize 全量刷新时的批量插入大小
const agingWipBatchSize = 100

// ==================== 过滤条件 ====================

// AgingWipFilter 账龄查询过滤条件
type AgingWipFilter struct {
	ShopID int64
	Bucket string
}

// ==================== AgingWipRepository 账龄仓库 ====================

// AgingWipRepository 在修工单账龄仓库接口
type AgingWipRepository interface {
	// ReplaceAll 整表全量刷新：清空 + 分批插入，在同一事务内完成，
	// 读方不会观察到中间的空表状态
	ReplaceAll(ctx context.Context, rows []model.AgingWip) error

	List(ctx context.Context, filter AgingWipFilter) ([]model.AgingWip, error)
	Count(ctx context.Context) (int64, error)
}

// ==================== 实现 ====================

type agingWipRepository struct {
	db *gorm.DB
}

// NewAgingWipRepository 创建账龄仓库
func NewAgingWipRepository(db *gorm.DB) AgingWipRepository {
	return &agingWipRepository{db: db}
}

func (r *agingWipRepository) ReplaceAll(ctx context.Context, rows []model.AgingWip) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Delete(&model.AgingWip{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, agingWipBatchSize).Error
	})
}

func (r *agingWipRepository) List(ctx context.Context, filter AgingWipFilter) ([]model.AgingWip, error) {
	db := r.db.WithContext(ctx).Model(&model.AgingWip{})

	if filter.ShopID > 0 {
		db = db.Where("shop_id = ?", filter.ShopID)
	}
	if filter.Bucket != "" {
		db = db.Where("aging_bucket = ?", filter.Bucket)
	}

	var rows []model.AgingWip
	err := db.Order("days_since_created DESC").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *agingWipRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.AgingWip{}).Count(&total).Error
	return total, err
}
