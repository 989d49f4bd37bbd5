package admin

import "github.com/storecase-identity/internal/provider"

// Handler 后台管理接口处理器入口
// 说明：仅 ADMIN 角色可访问，授权由路由层的 Casbin 中间件完成。
type Handler struct {
	*provider.Container
}

// New 创建后台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
