package repository

import (
	"context"
	"errors"
	"time"

	"tekdash_v1_202608/internal/model"

	"gorm.io/gorm"
)

// ErrTokenConflict 乐观锁冲突：另一个调用方已抢先写入新 Token
var ErrTokenConflict = errors.New("token 已被并发更新")

// ==================== TokenRepository Token 仓库 ====================

// TokenRepository Token 单例 + 审计日志仓库接口
type TokenRepository interface {
	// Get 读取单例 Token，不存在时返回 gorm.ErrRecordNotFound
	Get(ctx context.Context) (*model.TekmetricToken, error)

	// Replace 条件写入新 Token
	// expectedVersion 为读取时的版本号（首次写入传 0）；
	// 版本不匹配说明并发刷新输了，返回 ErrTokenConflict
	Replace(ctx context.Context, token *model.TekmetricToken, expectedVersion int64) error

	// TouchAccess 原子递增访问计数并记录访问者
	TouchAccess(ctx context.Context, accessedBy string) error

	// AppendAudit 追加一条审计日志
	AppendAudit(ctx context.Context, entry *model.TokenAuditLog) error

	// ListAudit 按时间倒序列出最近的审计日志
	ListAudit(ctx context.Context, limit int) ([]model.TokenAuditLog, error)

	// PruneAudit 删除指定时间之前的审计日志，返回删除数量
	PruneAudit(ctx context.Context, before time.Time) (int64, error)
}

// ==================== 实现 ====================

type tokenRepository struct {
	db *gorm.DB
}

// NewTokenRepository 创建 Token 仓库
func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) Get(ctx context.Context) (*model.TekmetricToken, error) {
	var token model.TekmetricToken
	err := r.db.WithContext(ctx).First(&token, model.TokenSingletonID).Error
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *tokenRepository) Replace(ctx context.Context, token *model.TekmetricToken, expectedVersion int64) error {
	token.ID = model.TokenSingletonID
	token.Version = expectedVersion + 1

	if expectedVersion == 0 {
		// 首次写入：并发创建时第二个会撞唯一主键
		err := r.db.WithContext(ctx).Create(token).Error
		if err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrTokenConflict
			}
			// 不同驱动对主键冲突的报错不统一，按存在性兜底判断
			var existing model.TekmetricToken
			if r.db.WithContext(ctx).First(&existing, model.TokenSingletonID).Error == nil {
				return ErrTokenConflict
			}
			return err
		}
		return nil
	}

	result := r.db.WithContext(ctx).
		Model(&model.TekmetricToken{}).
		Where("id = ? AND version = ?", model.TokenSingletonID, expectedVersion).
		Updates(map[string]interface{}{
			"access_token":      token.AccessToken,
			"expires_at":        token.ExpiresAt,
			"last_accessed_at":  token.LastAccessedAt,
			"last_accessed_by":  token.LastAccessedBy,
			"access_count":      token.AccessCount,
			"max_access_count":  token.MaxAccessCount,
			"rotation_required": token.RotationRequired,
			"version":           token.Version,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTokenConflict
	}
	return nil
}

func (r *tokenRepository) TouchAccess(ctx context.Context, accessedBy string) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&model.TekmetricToken{}).
		Where("id = ?", model.TokenSingletonID).
		Updates(map[string]interface{}{
			"access_count":     gorm.Expr("access_count + 1"),
			"last_accessed_at": now,
			"last_accessed_by": accessedBy,
		}).Error
}

func (r *tokenRepository) AppendAudit(ctx context.Context, entry *model.TokenAuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *tokenRepository) PruneAudit(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("accessed_at < ?", before).
		Delete(&model.TokenAuditLog{})
	return result.RowsAffected, result.Error
}

func (r *tokenRepository) ListAudit(ctx context.Context, limit int) ([]model.TokenAuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []model.TokenAuditLog
	err := r.db.WithContext(ctx).
		Order("accessed_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
