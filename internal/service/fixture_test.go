package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/checkout-core/internal/constants"
	"github.com/checkout-core/internal/models"
	"github.com/checkout-core/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type settlementFixture struct {
	db          *gorm.DB
	settings    *SettlementSettingService
	membership  *MembershipService
	wallet      *WalletService
	coupons     *CouponService
	couponAdmin *CouponAdminService
	loyalty     *LoyaltyService
	carts       *CartService
	audit       *AuditService
	orders      *OrderService
	profiles    *ProfileService
}

func openSettlementTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	return db
}

func setupSettlementTest(t *testing.T, name string) *settlementFixture {
	t.Helper()
	return setupSettlementTestWithSettings(t, name, DefaultSettlementSettings())
}

func setupSettlementTestWithSettings(t *testing.T, name string, defaults SettlementSettings) *settlementFixture {
	t.Helper()
	db := openSettlementTestDB(t, name)

	userRepo := repository.NewUserRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	pointsRepo := repository.NewPointsRepository(db)
	couponRepo := repository.NewCouponRepository(db)
	redemptionRepo := repository.NewCouponRedemptionRepository(db)
	productRepo := repository.NewProductRepository(db)
	cartRepo := repository.NewCartRepository(db)
	orderRepo := repository.NewOrderRepository(db)

	settingSvc := NewSettlementSettingService(repository.NewSettingRepository(db), defaults, 0)
	if _, err := settingSvc.Bootstrap(); err != nil {
		t.Fatalf("bootstrap settings failed: %v", err)
	}
	membershipSvc := NewMembershipService(userRepo)
	walletSvc := NewWalletService(walletRepo, membershipSvc, settingSvc, 5)
	couponSvc := NewCouponService(couponRepo, redemptionRepo, userRepo)
	loyaltySvc := NewLoyaltyService(userRepo, pointsRepo, settingSvc, 5)
	auditSvc := NewAuditService(repository.NewAuditLogRepository(db), nil)

	return &settlementFixture{
		db:          db,
		settings:    settingSvc,
		membership:  membershipSvc,
		wallet:      walletSvc,
		coupons:     couponSvc,
		couponAdmin: NewCouponAdminService(couponRepo),
		loyalty:     loyaltySvc,
		carts:       NewCartService(cartRepo, productRepo),
		audit:       auditSvc,
		orders: NewOrderService(OrderServiceOptions{
			OrderRepo:   orderRepo,
			ProductRepo: productRepo,
			CartRepo:    cartRepo,
			UserRepo:    userRepo,
			WalletSvc:   walletSvc,
			CouponSvc:   couponSvc,
			LoyaltySvc:  loyaltySvc,
			SettingSvc:  settingSvc,
			AuditSvc:    auditSvc,
		}),
		profiles: NewProfileService(userRepo, walletRepo, pointsRepo, membershipSvc, settingSvc),
	}
}

func createSettlementUser(t *testing.T, db *gorm.DB, id uint) *models.User {
	t.Helper()
	now := time.Now()
	user := &models.User{
		ID:              id,
		Email:           fmt.Sprintf("settlement_user_%d@example.com", id),
		Status:          constants.UserStatusActive,
		MembershipLevel: constants.MembershipNone,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

func createSettlementProduct(t *testing.T, db *gorm.DB, slug string, price int64) *models.Product {
	t.Helper()
	product := &models.Product{
		Slug:        slug,
		Name:        "Product " + slug,
		PriceAmount: models.NewMoneyFromInt(price),
		IsActive:    true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return product
}

func createSettlementCoupon(t *testing.T, db *gorm.DB, coupon models.Coupon) *models.Coupon {
	t.Helper()
	if coupon.UsageType == "" {
		coupon.UsageType = constants.CouponUsageMultiple
	}
	if coupon.LimitScope == "" {
		coupon.LimitScope = constants.CouponLimitScopeUser
	}
	if coupon.Type == "" {
		coupon.Type = constants.CouponTypeFixed
	}
	coupon.IsActive = true
	if err := db.Create(&coupon).Error; err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}
	return &coupon
}

func topUpForTest(t *testing.T, f *settlementFixture, userID uint, amount int64) {
	t.Helper()
	if _, err := f.wallet.TopUp(context.Background(), userID, decimal.NewFromInt(amount), "", "test"); err != nil {
		t.Fatalf("top up failed: %v", err)
	}
}

func mustBalance(t *testing.T, f *settlementFixture, userID uint) decimal.Decimal {
	t.Helper()
	balance, err := f.wallet.GetBalance(userID)
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	return balance
}

func countRows(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var count int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&count).Error; err != nil {
		t.Fatalf("count rows failed: %v", err)
	}
	return count
}
