package shared

import (
	"github.com/checkout-core/internal/http/response"

	"github.com/gin-gonic/gin"
)

// gin 上下文键，由鉴权中间件写入
const (
	ContextKeyUserID        = "user_id"
	ContextKeyOperatorID    = "operator_id"
	ContextKeyOperatorRoles = "operator_roles"
)

// GetContextUint 从上下文读取 uint 值并统一处理错误响应。
func GetContextUint(c *gin.Context, key string) (uint, bool) {
	value, exists := c.Get(key)
	if !exists {
		RespondError(c, response.CodeUnauthorized, "unauthorized", nil)
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		if v == 0 {
			RespondError(c, response.CodeUnauthorized, "unauthorized", nil)
			return 0, false
		}
		return v, true
	case int:
		if v <= 0 {
			RespondError(c, response.CodeBadRequest, key+" invalid", nil)
			return 0, false
		}
		return uint(v), true
	default:
		RespondError(c, response.CodeInternal, key+" type invalid", nil)
		return 0, false
	}
}

// UserID 读取当前用户 ID
func UserID(c *gin.Context) (uint, bool) {
	return GetContextUint(c, ContextKeyUserID)
}

// OperatorID 读取当前运营人员 ID
func OperatorID(c *gin.Context) (uint, bool) {
	return GetContextUint(c, ContextKeyOperatorID)
}
