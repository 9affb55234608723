package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/checkout-core/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupCouponRedemptionRepositoryTest(t *testing.T) (*gorm.DB, *GormCouponRedemptionRepository) {
	t.Helper()
	dsn := fmt.Sprintf("file:coupon_redemption_repository_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.CouponRedemption{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db, NewCouponRedemptionRepository(db)
}

func TestMarkReleasedKeepsRowAndFreesSingleUseKey(t *testing.T) {
	db, repo := setupCouponRedemptionRepositoryTest(t)
	key := "3:7"
	created, err := repo.Create(&models.CouponRedemption{CouponID: 3, UserID: 7, OrderID: 11, SingleUseKey: &key, CreatedAt: time.Now()})
	if err != nil || !created {
		t.Fatalf("create redemption failed: %v %v", created, err)
	}

	released, err := repo.MarkReleasedByOrderID(11, time.Now())
	if err != nil || released != 1 {
		t.Fatalf("mark released failed: %d %v", released, err)
	}
	again, err := repo.MarkReleasedByOrderID(11, time.Now())
	if err != nil || again != 0 {
		t.Fatalf("second release should be a no-op: %d %v", again, err)
	}

	stored, err := repo.GetByOrderID(11)
	if err != nil || stored == nil {
		t.Fatalf("released redemption must be kept: %+v %v", stored, err)
	}
	if stored.ReleasedAt == nil || stored.SingleUseKey != nil {
		t.Fatalf("unexpected released row: %+v", stored)
	}

	if count, err := repo.CountByUser(3, 7); err != nil || count != 0 {
		t.Fatalf("released row must not count for user: %d %v", count, err)
	}
	if count, err := repo.CountByCoupon(3); err != nil || count != 0 {
		t.Fatalf("released row must not count for coupon: %d %v", count, err)
	}

	created, err = repo.Create(&models.CouponRedemption{CouponID: 3, UserID: 7, OrderID: 12, SingleUseKey: &key, CreatedAt: time.Now()})
	if err != nil || !created {
		t.Fatalf("expected single-use coupon redeemable after release: %v %v", created, err)
	}
	if count, err := repo.CountByUser(3, 7); err != nil || count != 1 {
		t.Fatalf("expected one active redemption, got %d %v", count, err)
	}
	var total int64
	if err := db.Model(&models.CouponRedemption{}).Count(&total).Error; err != nil || total != 2 {
		t.Fatalf("expected history of 2 rows, got %d %v", total, err)
	}
}
