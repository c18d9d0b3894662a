package order

import "fmt"

const RoleAdmin = "admin"

// Actor 发起操作的主体，写入状态历史。UserID 为空表示游客。
type Actor struct {
	UserID string
	Role   string
}

// System 后台任务使用的主体。
var System = Actor{Role: "system"}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// Owns 游客订单不属于任何人。
func (a Actor) Owns(userID string) bool {
	return a.UserID != "" && a.UserID == userID
}

func (a Actor) String() string {
	switch {
	case a.Role == "system":
		return "system"
	case a.UserID == "":
		return "guest"
	case a.IsAdmin():
		return fmt.Sprintf("admin:%s", a.UserID)
	default:
		return fmt.Sprintf("customer:%s", a.UserID)
	}
}
