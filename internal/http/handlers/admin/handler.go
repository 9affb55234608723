package admin

import "github.com/checkout-core/internal/provider"

// Handler 运营端接口处理器入口
// 说明：该处理器仅用于运营端 API，请求已通过运营令牌与 RBAC 校验。
type Handler struct {
	*provider.Container
}

// New 创建运营端处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
