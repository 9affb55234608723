package admin

import (
	"time"

	handlershared "github.com/checkout-core/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func getOperatorID(c *gin.Context) (uint, bool) {
	return handlershared.OperatorID(c)
}

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

func respondServiceError(c *gin.Context, err error) {
	handlershared.RespondServiceError(c, err)
}

// parseTimeNullable 解析 RFC3339 时间，空字符串返回 nil
func parseTimeNullable(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
