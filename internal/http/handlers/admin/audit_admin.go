package admin

import (
	"strconv"
	"strings"

	"github.com/checkout-core/internal/http/handlers/shared"
	"github.com/checkout-core/internal/http/response"
	"github.com/checkout-core/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListAuditLogs 审计日志分页
func (h *Handler) ListAuditLogs(c *gin.Context) {
	page, pageSize := shared.PaginationFromQuery(c)
	filter := repository.AuditLogListFilter{
		Page:     page,
		PageSize: pageSize,
		Action:   strings.TrimSpace(c.Query("action")),
	}
	if raw := strings.TrimSpace(c.Query("user_id")); raw != "" {
		userID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, response.CodeBadRequest, "invalid user id", nil)
			return
		}
		filter.UserID = uint(userID)
	}
	logs, total, err := h.AuditService.List(filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, logs, response.NewPagination(page, pageSize, total))
}
