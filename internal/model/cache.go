package model

import (
	"time"

	"gorm.io/datatypes"
)

// ApiCache 通用过期缓存，按 endpoint 键存一份同步结果的 JSON 快照，
// 供看板低延迟读取，不影响主表
type ApiCache struct {
	ID       int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Endpoint string         `gorm:"uniqueIndex;size:128;not null" json:"endpoint"`
	Data     datatypes.JSON `json:"data"`
	CachedAt time.Time      `gorm:"not null" json:"cached_at"`
	ExpiresAt time.Time     `gorm:"index;not null" json:"expires_at"`
}

func (*ApiCache) TableName() string {
	return "tekmetric_cache"
}

// Expired 判断缓存是否已过期
func (c *ApiCache) Expired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}
