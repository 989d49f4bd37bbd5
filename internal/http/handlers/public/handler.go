package public

import "github.com/storecase-identity/internal/provider"

// Handler 公开接口处理器入口
// 说明：覆盖注册、登录、刷新与邮箱验证，/me 需鉴权。
type Handler struct {
	*provider.Container
}

// New 创建公开接口处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
