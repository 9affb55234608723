package public

import (
	"strings"

	"github.com/checkout-core/internal/http/handlers/shared"
	"github.com/checkout-core/internal/http/response"
	"github.com/checkout-core/internal/repository"

	"github.com/gin-gonic/gin"
)

// GetWallet 钱包余额与最近流水
func (h *Handler) GetWallet(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	snapshot, err := h.WalletService.Snapshot(uid)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, snapshot)
}

// ListWalletTransactions 钱包流水分页
func (h *Handler) ListWalletTransactions(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := shared.PaginationFromQuery(c)
	items, total, err := h.WalletService.ListTransactions(repository.WalletTransactionListFilter{
		Page:      page,
		PageSize:  pageSize,
		UserID:    uid,
		Source:    strings.TrimSpace(c.Query("source")),
		Direction: strings.TrimSpace(c.Query("direction")),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, items, response.NewPagination(page, pageSize, total))
}

// GetPoints 积分余额、可用奖励与最近积分流水
func (h *Handler) GetPoints(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	snapshot, err := h.LoyaltyService.Snapshot(c.Request.Context(), uid)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, snapshot)
}

// ListPointsTransactions 积分流水分页
func (h *Handler) ListPointsTransactions(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := shared.PaginationFromQuery(c)
	items, total, err := h.LoyaltyService.ListTransactions(repository.PointsTransactionListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   uid,
		Type:     strings.TrimSpace(c.Query("type")),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, items, response.NewPagination(page, pageSize, total))
}

// GetProfile 当前用户资料（会员等级、积分、余额）
func (h *Handler) GetProfile(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	profile, err := h.ProfileService.GetProfile(c.Request.Context(), uid)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, profile)
}
