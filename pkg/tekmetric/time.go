package tekmetric

import "time"

// 上游日期字段出现过的几种格式
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDate 解析上游返回的日期字符串
func ParseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// CentsToUnits 最小货币单位（美分）归一化为整元，四舍五入
func CentsToUnits(cents int64) int64 {
	if cents >= 0 {
		return (cents + 50) / 100
	}
	return -((-cents + 50) / 100)
}
