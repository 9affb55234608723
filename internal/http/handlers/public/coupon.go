package public

import (
	"github.com/checkout-core/internal/http/response"
	"github.com/checkout-core/internal/models"
	"github.com/checkout-core/internal/service"

	"github.com/gin-gonic/gin"
)

// CouponValidateRequest 优惠码校验请求
type CouponValidateRequest struct {
	Code        string       `json:"code" binding:"required"`
	Subtotal    models.Money `json:"subtotal"`
	DeliveryFee models.Money `json:"delivery_fee"`
	ProductIDs  []uint       `json:"product_ids"`
}

// ValidateCoupon 校验优惠码并返回优惠报价（只读）
func (h *Handler) ValidateCoupon(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CouponValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	if req.Subtotal.IsNegative() || req.DeliveryFee.IsNegative() {
		respondError(c, response.CodeBadRequest, "amounts must not be negative", nil)
		return
	}
	quote, err := h.CouponService.Validate(service.CouponCheckInput{
		Code:        req.Code,
		UserID:      uid,
		Subtotal:    req.Subtotal.Decimal,
		DeliveryFee: req.DeliveryFee.Decimal,
		ProductIDs:  req.ProductIDs,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, quote)
}
