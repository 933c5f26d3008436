package util

const (
	TimeFormat = "2006-01-02 15:04:05"
)

// 路由跳转目标
const (
	LoginPath = "/login"
	HomePath  = "/"
)

// ConfirmHeader 删除操作的确认头，也可用 ?confirm=true
const (
	ConfirmHeader = "X-Confirm"
	ConfirmQuery  = "confirm"
)
