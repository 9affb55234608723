package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/checkout-core/internal/config"
	"github.com/checkout-core/internal/constants"
	"github.com/checkout-core/internal/logger"
	"github.com/checkout-core/internal/models"
	"github.com/checkout-core/internal/provider"
	"github.com/checkout-core/internal/service"

	"github.com/shopspring/decimal"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	log := logger.S()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		log.Fatalw("seed_database_init_failed", "error", err)
	}
	if err := models.AutoMigrate(); err != nil {
		log.Fatalw("seed_database_migrate_failed", "error", err)
	}

	c := provider.NewContainer(cfg)
	ctx := context.Background()

	// 结算配置
	if created, err := c.SettingService.Bootstrap(); err != nil {
		log.Fatalw("seed_settings_bootstrap_failed", "error", err)
	} else {
		log.Infow("seed_settings_ready", "created", created)
	}

	// 商品
	products := []models.Product{
		{Slug: "jasmine-rice-5kg", Name: "Jasmine rice 5kg", PriceAmount: models.NewMoneyFromInt(120000), IsActive: true},
		{Slug: "green-tea-box", Name: "Green tea box", PriceAmount: models.NewMoneyFromInt(45000), IsActive: true},
		{Slug: "fish-sauce-500ml", Name: "Fish sauce 500ml", PriceAmount: models.NewMoneyFromInt(38000), IsActive: true},
		{Slug: "coffee-beans-1kg", Name: "Coffee beans 1kg", PriceAmount: models.NewMoneyFromInt(260000), IsActive: true},
	}
	for i := range products {
		if err := models.DB.Where(models.Product{Slug: products[i].Slug}).FirstOrCreate(&products[i]).Error; err != nil {
			log.Fatalw("seed_product_failed", "slug", products[i].Slug, "error", err)
		}
	}

	// 用户
	users := []models.User{
		{Email: "alice@example.com", DisplayName: "Alice", Status: constants.UserStatusActive, MembershipLevel: constants.MembershipNone},
		{Email: "bob@example.com", DisplayName: "Bob", Status: constants.UserStatusActive, MembershipLevel: constants.MembershipNone},
		{Email: "carol@example.com", DisplayName: "Carol", Status: constants.UserStatusActive, MembershipLevel: constants.MembershipNone},
	}
	for i := range users {
		if err := models.DB.Where(models.User{Email: users[i].Email}).FirstOrCreate(&users[i]).Error; err != nil {
			log.Fatalw("seed_user_failed", "email", users[i].Email, "error", err)
		}
	}

	// 充值，按引用号幂等，重复执行不会重复入账
	topUps := map[int]int64{0: 2500000, 1: 500000}
	for index, amount := range topUps {
		user := users[index]
		reference := fmt.Sprintf("seed:%s", user.Email)
		if _, err := c.WalletService.TopUp(ctx, user.ID, decimal.NewFromInt(amount), reference, "seed top-up"); err != nil {
			log.Warnw("seed_top_up_skipped", "user_id", user.ID, "error", err)
		}
	}

	// 优惠券
	expires := time.Now().AddDate(0, 3, 0)
	coupons := []service.CreateCouponInput{
		{Code: "WELCOME10", Type: constants.CouponTypePercent, Value: decimal.NewFromInt(10), UsageType: constants.CouponUsageSingle, LimitScope: constants.CouponLimitScopeUser, ExpiresAt: &expires},
		{Code: "SAVE20K", Type: constants.CouponTypeFixed, Value: decimal.NewFromInt(20000), UsageType: constants.CouponUsageMultiple, MaxUses: 100, LimitScope: constants.CouponLimitScopeGlobal, ExpiresAt: &expires},
		{Code: "FREESHIP", Type: constants.CouponTypeFixed, Value: decimal.Zero, FreeDelivery: true, UsageType: constants.CouponUsageMultiple, MaxUses: 3, LimitScope: constants.CouponLimitScopeUser},
		{Code: "GOLDONLY", Type: constants.CouponTypePercent, Value: decimal.NewFromInt(15), UsageType: constants.CouponUsageMultiple, LimitScope: constants.CouponLimitScopeUser, AssignedLevels: []string{constants.MembershipGold, constants.MembershipPlatinum, constants.MembershipDiamond}},
		{Code: "COFFEE5", Type: constants.CouponTypePercent, Value: decimal.NewFromInt(5), UsageType: constants.CouponUsageMultiple, LimitScope: constants.CouponLimitScopeUser, AssignedProductIDs: []uint{products[3].ID}},
	}
	for _, input := range coupons {
		if _, err := c.CouponAdminService.Create(input); err != nil {
			if errors.Is(err, service.ErrCouponCodeExists) {
				continue
			}
			log.Fatalw("seed_coupon_failed", "code", input.Code, "error", err)
		}
	}

	// 运营人员角色：1 号为超级管理员，2 号为财务
	operatorRoles := map[uint][]string{
		1: {"super_admin"},
		2: {"finance"},
	}
	for operatorID, roles := range operatorRoles {
		if err := c.AuthzService.SetOperatorRoles(operatorID, roles); err != nil {
			log.Fatalw("seed_operator_roles_failed", "operator_id", operatorID, "error", err)
		}
	}

	var productCount, userCount int64
	models.DB.Model(&models.Product{}).Count(&productCount)
	models.DB.Model(&models.User{}).Count(&userCount)
	log.Infow("seed_completed", "products", productCount, "users", userCount, "coupons", len(coupons))
}
