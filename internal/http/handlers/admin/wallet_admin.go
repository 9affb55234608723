package admin

import (
	"fmt"
	"strings"

	"github.com/checkout-core/internal/http/handlers/shared"
	"github.com/checkout-core/internal/http/response"
	"github.com/checkout-core/internal/models"

	"github.com/gin-gonic/gin"
)

// TopUpRequest 钱包充值请求，reference 用于幂等
type TopUpRequest struct {
	Amount    models.Money `json:"amount" binding:"required"`
	Reference string       `json:"reference"`
	Remark    string       `json:"remark"`
}

// TopUpWallet 为用户钱包充值并重新评估会员等级
func (h *Handler) TopUpWallet(c *gin.Context) {
	operatorID, ok := getOperatorID(c)
	if !ok {
		return
	}
	userID, ok := shared.ParseUintParam(c, "user_id")
	if !ok {
		respondError(c, response.CodeBadRequest, "invalid user id", nil)
		return
	}
	var req TopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	if !req.Amount.IsPositive() {
		respondError(c, response.CodeBadRequest, "amount must be positive", nil)
		return
	}
	remark := strings.TrimSpace(req.Remark)
	if remark == "" {
		remark = fmt.Sprintf("top up by operator %d", operatorID)
	}

	result, err := h.WalletService.TopUp(c.Request.Context(), userID, req.Amount.Decimal, strings.TrimSpace(req.Reference), remark)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, result)
}
