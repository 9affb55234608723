package public

import "github.com/checkout-core/internal/provider"

// Handler 用户侧接口处理器入口
// 说明：所有接口都要求用户令牌，user_id 由鉴权中间件写入上下文。
type Handler struct {
	*provider.Container
}

// New 创建用户侧处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
