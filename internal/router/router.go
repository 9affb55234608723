package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/checkout-core/internal/authz"
	"github.com/checkout-core/internal/cache"
	"github.com/checkout-core/internal/config"
	adminhandlers "github.com/checkout-core/internal/http/handlers/admin"
	publichandlers "github.com/checkout-core/internal/http/handlers/public"
	"github.com/checkout-core/internal/http/response"
	"github.com/checkout-core/internal/logger"
	"github.com/checkout-core/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	r := gin.New()

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "ck"
	}
	orderRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:order", redisPrefix),
		WindowSeconds: cfg.Security.OrderRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.OrderRateLimit.MaxRequests,
		BlockSeconds:  cfg.Security.OrderRateLimit.BlockSeconds,
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(logger.Z()))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		// 用户接口（外部身份服务签发的令牌）
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(cfg.UserJWT, c.UserRepo))
		{
			user.POST("/checkout/preview", publicHandler.PreviewCheckout)
			user.POST("/orders", RateLimitMiddleware(cache.Client(), orderRule, KeyByUserID), publicHandler.CreateOrder)
			user.GET("/orders", publicHandler.ListOrders)
			user.GET("/orders/:id", publicHandler.GetOrder)
			user.POST("/coupons/validate", publicHandler.ValidateCoupon)

			user.GET("/wallet", publicHandler.GetWallet)
			user.GET("/wallet/transactions", publicHandler.ListWalletTransactions)
			user.GET("/points", publicHandler.GetPoints)
			user.GET("/points/transactions", publicHandler.ListPointsTransactions)
			user.GET("/me", publicHandler.GetProfile)

			user.GET("/cart", publicHandler.GetCart)
			user.POST("/cart/items", publicHandler.UpsertCartItem)
			user.DELETE("/cart/items/:product_id", publicHandler.DeleteCartItem)
			user.DELETE("/cart", publicHandler.ClearCart)
		}

		// 运营接口
		admin := apiV1.Group("/admin")
		admin.Use(OperatorJWTAuthMiddleware(cfg.OperatorJWT), OperatorRBACMiddleware(c.AuthzService))
		{
			admin.GET("/orders/:id", adminHandler.GetOrder)
			admin.PATCH("/orders/:id/status", adminHandler.UpdateOrderStatus)

			admin.POST("/coupons", adminHandler.CreateCoupon)
			admin.PUT("/coupons/:id", adminHandler.UpdateCoupon)
			admin.GET("/coupons", adminHandler.ListCoupons)

			admin.POST("/wallets/:user_id/top-up", adminHandler.TopUpWallet)

			admin.GET("/settings", adminHandler.GetSettlementSettings)
			admin.PUT("/settings", adminHandler.UpdateSettlementSettings)

			admin.GET("/audit-logs", adminHandler.ListAuditLogs)
			admin.GET("/permissions", func(ctx *gin.Context) {
				response.Success(ctx, buildAdminPermissionCatalog(r))
			})
		}
	}

	// 健康检查
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

// buildAdminPermissionCatalog 从已注册路由生成运营端权限清单，供角色配置参考
func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     deriveAdminPermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func deriveAdminPermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if len(segments) <= 1 || segments[0] != "admin" {
		return segments[0]
	}
	switch segments[1] {
	case "wallets", "settings":
		return "finance"
	case "audit-logs", "permissions":
		return "system"
	}
	return segments[1]
}
