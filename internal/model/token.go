package model

import "time"

// ==================== Token 单例 ====================

// TokenSingletonID 全局只保留一条 Token 记录，id 固定为 1
const TokenSingletonID int64 = 1

// DefaultMaxAccessCount 单个 Token 的最大访问次数，超过后强制轮换
const DefaultMaxAccessCount = 1000

// TekmetricToken 上游 API 访问令牌（进程间共享的单例凭证）
// 读-改-写通过 Version 乐观锁保护，并发刷新时只有一方能写入，
// 输掉的一方重读并复用赢家写入的 Token
type TekmetricToken struct {
	ID             int64     `gorm:"primaryKey" json:"id"`
	AccessToken    string    `gorm:"size:2048;not null" json:"-"`
	ExpiresAt      time.Time `gorm:"not null" json:"expires_at"`
	LastAccessedAt *time.Time `json:"last_accessed_at"`
	LastAccessedBy string    `gorm:"size:64" json:"last_accessed_by"`

	// 访问计数，刷新时归零
	AccessCount    int  `gorm:"default:0" json:"access_count"`
	MaxAccessCount int  `gorm:"default:1000" json:"max_access_count"`

	// 运维侧可手动置位，下次访问强制换新
	RotationRequired bool `gorm:"default:false" json:"rotation_required"`

	// 乐观锁版本号
	Version   int64     `gorm:"default:0" json:"-"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (*TekmetricToken) TableName() string {
	return "tekmetric_tokens"
}

// Usable 判断 Token 当前是否可直接复用
func (t *TekmetricToken) Usable(now time.Time) bool {
	if t.RotationRequired {
		return false
	}
	if t.MaxAccessCount > 0 && t.AccessCount >= t.MaxAccessCount {
		return false
	}
	return t.ExpiresAt.After(now)
}

// ==================== Token 审计日志 ====================

// Token 审计动作
const (
	TokenActionAccessed  = "accessed"  // 复用缓存 Token
	TokenActionRefreshed = "refreshed" // 换取新 Token
	TokenActionError     = "error"     // 获取失败
)

// TokenAuditLog Token 访问审计，只追加、不修改、不删除
type TokenAuditLog struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	TokenID      int64     `gorm:"index;not null" json:"token_id"`
	AccessedBy   string    `gorm:"size:64;not null" json:"accessed_by"`
	Action       string    `gorm:"size:32;not null" json:"action"`
	Success      bool      `gorm:"default:true" json:"success"`
	ErrorMessage string    `gorm:"size:1024" json:"error_message,omitempty"`
	AccessedAt   time.Time `gorm:"autoCreateTime" json:"accessed_at"`
}

func (*TokenAuditLog) TableName() string {
	return "token_audit_log"
}
