package admin

import (
	"strings"

	"github.com/checkout-core/internal/http/handlers/shared"
	"github.com/checkout-core/internal/http/response"
	"github.com/checkout-core/internal/models"
	"github.com/checkout-core/internal/repository"
	"github.com/checkout-core/internal/service"

	"github.com/gin-gonic/gin"
)

// CouponRequest 创建/更新优惠券请求
type CouponRequest struct {
	Code               string       `json:"code" binding:"required"`
	Type               string       `json:"type" binding:"required"`
	Value              models.Money `json:"value"`
	FreeDelivery       bool         `json:"free_delivery"`
	UsageType          string       `json:"usage_type"`
	MaxUses            int          `json:"max_uses"`
	LimitScope         string       `json:"limit_scope"`
	AssignedUserIDs    []uint       `json:"assigned_user_ids"`
	AssignedProductIDs []uint       `json:"assigned_product_ids"`
	AssignedLevels     []string     `json:"assigned_levels"`
	ExpiresAt          string       `json:"expires_at"`
	IsActive           *bool        `json:"is_active"`
}

func (r CouponRequest) toInput() (service.CreateCouponInput, error) {
	expiresAt, err := parseTimeNullable(strings.TrimSpace(r.ExpiresAt))
	if err != nil {
		return service.CreateCouponInput{}, err
	}
	return service.CreateCouponInput{
		Code:               r.Code,
		Type:               r.Type,
		Value:              r.Value.Decimal,
		FreeDelivery:       r.FreeDelivery,
		UsageType:          r.UsageType,
		MaxUses:            r.MaxUses,
		LimitScope:         r.LimitScope,
		AssignedUserIDs:    r.AssignedUserIDs,
		AssignedProductIDs: r.AssignedProductIDs,
		AssignedLevels:     r.AssignedLevels,
		ExpiresAt:          expiresAt,
		IsActive:           r.IsActive,
	}, nil
}

// CreateCoupon 创建优惠券
func (h *Handler) CreateCoupon(c *gin.Context) {
	var req CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid expires_at", err)
		return
	}
	coupon, err := h.CouponAdminService.Create(input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	h.recordOperatorAction(c, "coupon_created", gin.H{"coupon_id": coupon.ID, "code": coupon.Code})
	response.Success(c, coupon)
}

// UpdateCoupon 更新优惠券
func (h *Handler) UpdateCoupon(c *gin.Context) {
	couponID, ok := shared.ParseUintParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "invalid coupon id", nil)
		return
	}
	var req CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid expires_at", err)
		return
	}
	coupon, err := h.CouponAdminService.Update(couponID, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	h.recordOperatorAction(c, "coupon_updated", gin.H{"coupon_id": coupon.ID, "code": coupon.Code})
	response.Success(c, coupon)
}

// ListCoupons 优惠券列表
func (h *Handler) ListCoupons(c *gin.Context) {
	page, pageSize := shared.PaginationFromQuery(c)
	filter := repository.CouponListFilter{
		Code:     service.NormalizeCouponCode(c.Query("code")),
		Page:     page,
		PageSize: pageSize,
	}
	if raw := strings.TrimSpace(c.Query("is_active")); raw != "" {
		active := raw == "true" || raw == "1"
		filter.IsActive = &active
	}
	coupons, total, err := h.CouponAdminService.List(filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, coupons, response.NewPagination(page, pageSize, total))
}

func (h *Handler) recordOperatorAction(c *gin.Context, action string, metadata gin.H) {
	operatorID, _ := c.Get(shared.ContextKeyOperatorID)
	metadata["operator_id"] = operatorID
	h.AuditService.Record(c.Request.Context(), 0, action, metadata)
}
