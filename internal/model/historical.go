package model

import "time"

// HistoricalPerformance 门店月度经营快照，一行对应 (门店, 年, 月)
// 覆盖当前年 + 上一年共 24 个月（未来月份也落库，数值为零），
// 每次同步整表全量刷新
type HistoricalPerformance struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	ShopID   int64  `gorm:"index;not null" json:"shop_id"`
	ShopName string `gorm:"size:255;not null" json:"shop_name"`

	Year   int    `gorm:"not null" json:"year"`
	Month  int    `gorm:"not null" json:"month"`
	Period string `gorm:"size:7;index;not null" json:"period"` // YYYY-MM

	// 配件（金额为整元，margin 为百分比）
	PartsGross      int64   `gorm:"default:0" json:"parts_gross"`
	PartsProfit     int64   `gorm:"default:0" json:"parts_profit"`
	PartsMargin     float64 `gorm:"default:0" json:"parts_margin"`
	PartsPiecesSold int     `gorm:"default:0" json:"parts_pieces_sold"`
	PartsAvgTicket  int64   `gorm:"default:0" json:"parts_avg_ticket"`

	// 工时
	LaborGross   int64   `gorm:"default:0" json:"labor_gross"`
	LaborProfit  int64   `gorm:"default:0" json:"labor_profit"`
	LaborMargin  float64 `gorm:"default:0" json:"labor_margin"`
	LaborHours   float64 `gorm:"default:0" json:"labor_hours"`
	LaborAvgHour int64   `gorm:"default:0" json:"labor_avg_hour"`

	// 外协
	SubletGross  int64   `gorm:"default:0" json:"sublet_gross"`
	SubletProfit int64   `gorm:"default:0" json:"sublet_profit"`
	SubletMargin float64 `gorm:"default:0" json:"sublet_margin"`

	// 汇总
	TotalGross  int64   `gorm:"default:0" json:"total_gross"`
	TotalProfit int64   `gorm:"default:0" json:"total_profit"`
	TotalMargin float64 `gorm:"default:0" json:"total_margin"`
	CarCount    int     `gorm:"default:0" json:"car_count"`
	AvgRo       int64   `gorm:"default:0" json:"avg_ro"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (*HistoricalPerformance) TableName() string {
	return "historical_performance"
}
