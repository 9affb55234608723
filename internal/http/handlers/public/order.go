package public

import (
	"strings"

	"github.com/checkout-core/internal/http/handlers/shared"
	"github.com/checkout-core/internal/http/response"
	"github.com/checkout-core/internal/repository"
	"github.com/checkout-core/internal/service"

	"github.com/gin-gonic/gin"
)

// OrderLineRequest 下单商品行
type OrderLineRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required"`
}

// CheckoutRequest 结算/下单请求，items 为空时使用购物车
// 配送坐标必填，0 是合法取值。
type CheckoutRequest struct {
	Items         []OrderLineRequest `json:"items"`
	Address       string             `json:"address"`
	Latitude      *float64           `json:"latitude" binding:"required"`
	Longitude     *float64           `json:"longitude" binding:"required"`
	PaymentMethod string             `json:"payment_method" binding:"required"`
	CouponCode    string             `json:"coupon_code"`
	UseReward     bool               `json:"use_reward"`
}

func (r CheckoutRequest) toInput(userID uint) service.PlaceOrderInput {
	items := make([]service.OrderLineInput, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, service.OrderLineInput{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	input := service.PlaceOrderInput{
		UserID:        userID,
		Items:         items,
		Address:       strings.TrimSpace(r.Address),
		PaymentMethod: r.PaymentMethod,
		CouponCode:    r.CouponCode,
		UseReward:     r.UseReward,
	}
	if r.Latitude != nil {
		input.Latitude = *r.Latitude
	}
	if r.Longitude != nil {
		input.Longitude = *r.Longitude
	}
	return input
}

// PreviewCheckout 结算预览（不产生任何写入）
func (h *Handler) PreviewCheckout(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	quote, err := h.OrderService.PreviewOrder(c.Request.Context(), req.toInput(uid))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, quote)
}

// CreateOrder 下单
func (h *Handler) CreateOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	order, err := h.OrderService.PlaceOrder(c.Request.Context(), req.toInput(uid))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// ListOrders 当前用户订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := shared.PaginationFromQuery(c)
	orders, total, err := h.OrderService.ListUserOrders(repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   uid,
		Status:   strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, orders, response.NewPagination(page, pageSize, total))
}

// GetOrder 当前用户订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := shared.ParseUintParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return
	}
	order, err := h.OrderService.GetUserOrder(uid, orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, order)
}
