package repository

import (
	"context"

	"tekdash_v1_202608/internal/model"

	"gorm.io/gorm"
)

// historicalBatchSize 全量刷新时的批量插入大小
const historicalBatchSize = 50

// ==================== 过滤条件 ====================

// HistoricalFilter 月度经营数据过滤条件
type HistoricalFilter struct {
	ShopID int64
	Year   int
}

// ==================== HistoricalRepository 月度经营仓库 ====================

// HistoricalRepository 门店月度经营数据仓库接口
type HistoricalRepository interface {
	// ReplaceAll 整表全量刷新（事务内清空 + 分批插入）
	ReplaceAll(ctx context.Context, rows []model.HistoricalPerformance) error

	List(ctx context.Context, filter HistoricalFilter) ([]model.HistoricalPerformance, error)
	Count(ctx context.Context) (int64, error)
}

// ==================== 实现 ====================

type historicalRepository struct {
	db *gorm.DB
}

// NewHistoricalRepository 创建月度经营仓库
func NewHistoricalRepository(db *gorm.DB) HistoricalRepository {
	return &historicalRepository{db: db}
}

func (r *historicalRepository) ReplaceAll(ctx context.Context, rows []model.HistoricalPerformance) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Delete(&model.HistoricalPerformance{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, historicalBatchSize).Error
	})
}

func (r *historicalRepository) List(ctx context.Context, filter HistoricalFilter) ([]model.HistoricalPerformance, error) {
	db := r.db.WithContext(ctx).Model(&model.HistoricalPerformance{})

	if filter.ShopID > 0 {
		db = db.Where("shop_id = ?", filter.ShopID)
	}
	if filter.Year > 0 {
		db = db.Where("year = ?", filter.Year)
	}

	var rows []model.HistoricalPerformance
	err := db.Order("shop_id, year DESC, month DESC").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *historicalRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.HistoricalPerformance{}).Count(&total).Error
	return total, err
}
