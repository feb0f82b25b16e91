package model

import "time"

// ==================== 账龄分桶 ====================

// 账龄桶标签（存库值，前端直接展示）
const (
	Bucket0To30  = "0-30 days"
	Bucket31To60 = "31-60 days"
	Bucket61To90 = "61-90 days"
	Bucket90Plus = "90+ days"
)

// DaysSince 计算从 createdAt 到 now 经过的整天数（向下取整）
func DaysSince(createdAt, now time.Time) int {
	return int(now.Sub(createdAt).Hours() / 24)
}

// CalculateAgingBucket 按开单时间计算账龄桶
// 纯函数，边界: 30 天仍算 0-30，31 天起进入 31-60，以此类推
func CalculateAgingBucket(createdAt, now time.Time) string {
	days := DaysSince(createdAt, now)
	switch {
	case days <= 30:
		return Bucket0To30
	case days <= 60:
		return Bucket31To60
	case days <= 90:
		return Bucket61To90
	default:
		return Bucket90Plus
	}
}

// ==================== AgingWip 在修工单账龄表 ====================

// AgingWip 在修（WIP）工单账龄快照，一行对应一张当前在修的工单
// 整表在每次同步时全量刷新：工单过账/关闭后不再出现在上游筛选结果中，
// 下一次刷新即自动从本表消失
type AgingWip struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	ShopID   int64  `gorm:"index;not null" json:"shop_id"`
	ShopName string `gorm:"size:255;not null" json:"shop_name"`

	RepairOrderID     int64 `gorm:"index;not null" json:"repair_order_id"`
	RepairOrderNumber int64 `gorm:"not null" json:"repair_order_number"`

	CustomerName string `gorm:"size:255;not null" json:"customer_name"`
	VehicleInfo  string `gorm:"size:255;not null" json:"vehicle_info"`

	CreatedDate      time.Time `gorm:"not null" json:"created_date"`
	DaysSinceCreated int       `gorm:"not null" json:"days_since_created"`
	AgingBucket      string    `gorm:"size:16;index;not null" json:"aging_bucket"`

	// 金额（已从美分归一化为整元）
	TotalSales    int64 `gorm:"default:0" json:"total_sales"`
	LaborSales    int64 `gorm:"default:0" json:"labor_sales"`
	PartsSales    int64 `gorm:"default:0" json:"parts_sales"`
	SubletSales   int64 `gorm:"default:0" json:"sublet_sales"`
	DepositAmount int64 `gorm:"default:0" json:"deposit_amount"`

	Status      string `gorm:"size:64" json:"status"`
	Label       string `gorm:"size:64" json:"label"`
	CustomLabel string `gorm:"size:64" json:"custom_label"`

	TechnicianID    int64 `json:"technician_id"`
	ServiceWriterID int64 `json:"service_writer_id"`

	SyncedAt time.Time `gorm:"index" json:"synced_at"`
}

func (*AgingWip) TableName() string {
	return "aging_wip"
}
