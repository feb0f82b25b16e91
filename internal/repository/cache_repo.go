package repository

import (
	"context"
	"encoding/json"
	"time"

	"tekdash_v1_202608/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ==================== CacheRepository 通用缓存仓库 ====================

// CacheRepository 按 endpoint 键的过期缓存仓库接口
type CacheRepository interface {
	// Put 序列化 data 并按 endpoint 键 UPSERT
	Put(ctx context.Context, endpoint string, data interface{}, ttl time.Duration) error

	// Get 反序列化到 out；缓存不存在或已过期时返回 false
	Get(ctx context.Context, endpoint string, out interface{}) (bool, error)

	// PurgeExpired 清理过期条目，返回删除数量
	PurgeExpired(ctx context.Context) (int64, error)
}

// ==================== 实现 ====================

type cacheRepository struct {
	db *gorm.DB
}

// NewCacheRepository 创建缓存仓库
func NewCacheRepository(db *gorm.DB) CacheRepository {
	return &cacheRepository{db: db}
}

func (r *cacheRepository) Put(ctx context.Context, endpoint string, data interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}

	now := time.Now()
	entry := model.ApiCache{
		Endpoint:  endpoint,
		Data:      datatypes.JSON(raw),
		CachedAt:  now,
		ExpiresAt: now.Add(ttl),
	}

	// endpoint 冲突时覆盖旧快照
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "cached_at", "expires_at"}),
	}).Create(&entry).Error
}

func (r *cacheRepository) Get(ctx context.Context, endpoint string, out interface{}) (bool, error) {
	var entry model.ApiCache
	err := r.db.WithContext(ctx).Where("endpoint = ?", endpoint).First(&entry).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return false, nil
		}
		return false, err
	}

	if entry.Expired(time.Now()) {
		return false, nil
	}

	if out != nil {
		if err := json.Unmarshal(entry.Data, out); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (r *cacheRepository) PurgeExpired(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at <= ?", time.Now()).
		Delete(&model.ApiCache{})
	return result.RowsAffected, result.Error
}
