package public

import (
	"github.com/checkout-core/internal/http/handlers/shared"
	"github.com/checkout-core/internal/http/response"
	"github.com/checkout-core/internal/models"
	"github.com/checkout-core/internal/service"

	"github.com/gin-gonic/gin"
)

// CartItemRequest 购物车项请求
type CartItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity"`
}

// CartItemResponse 购物车项响应
type CartItemResponse struct {
	ProductID   uint         `json:"product_id"`
	ProductName string       `json:"product_name"`
	Quantity    int          `json:"quantity"`
	UnitPrice   models.Money `json:"unit_price"`
	LineTotal   models.Money `json:"line_total"`
}

// GetCart 获取购物车
func (h *Handler) GetCart(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	items, err := h.CartService.ListByUser(uid)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respItems := make([]CartItemResponse, 0, len(items))
	for _, item := range items {
		name := ""
		if item.Product != nil {
			name = item.Product.Name
		}
		respItems = append(respItems, CartItemResponse{
			ProductID:   item.ProductID,
			ProductName: name,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal,
		})
	}

	response.Success(c, gin.H{"items": respItems})
}

// UpsertCartItem 添加/更新购物车项，数量为 0 时移除
func (h *Handler) UpsertCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	if req.Quantity <= 0 {
		if err := h.CartService.RemoveItem(uid, req.ProductID); err != nil {
			respondServiceError(c, err)
			return
		}
		response.Success(c, gin.H{"updated": true})
		return
	}
	if err := h.CartService.UpsertItem(service.UpsertCartItemInput{
		UserID:    uid,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	}); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"updated": true})
}

// DeleteCartItem 删除购物车项
func (h *Handler) DeleteCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	productID, ok := shared.ParseUintParam(c, "product_id")
	if !ok {
		respondError(c, response.CodeBadRequest, "invalid product id", nil)
		return
	}
	if err := h.CartService.RemoveItem(uid, productID); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// ClearCart 清空购物车
func (h *Handler) ClearCart(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	if err := h.CartService.Clear(uid); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"cleared": true})
}
