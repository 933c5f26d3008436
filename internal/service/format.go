package service

import (
	"fmt"
	"time"
)

// FormatRemainingTime 会话剩余时间的越南语展示
//
//	2d3h  -> "2 ngày 3 giờ"
//	90m   -> "1 giờ 30 phút"
//	59m   -> "59 phút"
func FormatRemainingTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	days := int(d / (24 * time.Hour))
	hours := int(d % (24 * time.Hour) / time.Hour)
	minutes := int(d % time.Hour / time.Minute)

	switch {
	case days > 0:
		return fmt.Sprintf("%d ngày %d giờ", days, hours)
	case hours > 0:
		return fmt.Sprintf("%d giờ %d phút", hours, minutes)
	default:
		return fmt.Sprintf("%d phút", minutes)
	}
}
