package constants

// 用户角色常量
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// 邮箱验证用途常量
const (
	VerifyPurposeSignup = "SIGNUP"
)

// Token 类型常量
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
	TokenPrefix      = "Bearer "
)

// 邮件投递方式
const (
	EmailDeliverySync  = "sync"
	EmailDeliveryQueue = "queue"
)

// 队列相关常量
const (
	QueueDefault  = "default"
	QueueCritical = "critical"

	TaskSendEmail = "email:send"
)

// 上下文键
const (
	ContextKeyUserID   = "user_id"
	ContextKeyUserRole = "user_role"
)
