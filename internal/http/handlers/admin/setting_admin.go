package admin

import (
	"github.com/checkout-core/internal/http/response"
	"github.com/checkout-core/internal/service"

	"github.com/gin-gonic/gin"
)

// GetSettlementSettings 读取当前结算配置
func (h *Handler) GetSettlementSettings(c *gin.Context) {
	settings, err := h.SettingService.Current(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, settings)
}

// UpdateSettlementSettings 覆盖结算配置（整体替换并刷新缓存）
func (h *Handler) UpdateSettlementSettings(c *gin.Context) {
	var req service.SettlementSettings
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	settings, err := h.SettingService.Update(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	h.recordOperatorAction(c, "settlement_settings_updated", gin.H{
		"delivery_rate_per_km":    settings.DeliveryRatePerKm.String(),
		"points_per_amount":       settings.PointsPerAmount.String(),
		"reward_threshold_points": settings.RewardThresholdPoints,
	})
	response.Success(c, settings)
}
