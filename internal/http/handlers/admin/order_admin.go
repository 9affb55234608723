package admin

import (
	"github.com/checkout-core/internal/http/handlers/shared"
	"github.com/checkout-core/internal/http/response"
	"github.com/checkout-core/internal/service"

	"github.com/gin-gonic/gin"
)

// UpdateOrderStatusRequest 订单状态流转请求
type UpdateOrderStatusRequest struct {
	Status        string `json:"status" binding:"required"`
	PaymentStatus string `json:"payment_status"`
}

// UpdateOrderStatus 推进订单状态（送达发放积分、取消退款）
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	operatorID, ok := getOperatorID(c)
	if !ok {
		return
	}
	orderID, ok := shared.ParseUintParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return
	}
	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	order, err := h.OrderService.AdvanceOrderStatus(c.Request.Context(), service.AdvanceOrderStatusInput{
		OrderID:       orderID,
		Status:        req.Status,
		PaymentStatus: req.PaymentStatus,
		OperatorID:    operatorID,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// GetOrder 运营端订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	orderID, ok := shared.ParseUintParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return
	}
	order, err := h.OrderService.GetOrder(orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, order)
}
