package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/checkout-core/internal/constants"
	"github.com/checkout-core/internal/models"

	"gorm.io/gorm"
)

func accrueForTest(t *testing.T, f *settlementFixture, order *models.Order, settings SettlementSettings) (*AccrualResult, error) {
	t.Helper()
	var result *AccrualResult
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = f.loyalty.AccrueForOrderTx(tx, order, settings, time.Now())
		return err
	})
	return result, err
}

func TestLoyaltyRewardCrossingMintsOneToken(t *testing.T) {
	f := setupSettlementTest(t, "loyalty_crossing")
	createSettlementUser(t, f.db, 1)
	if err := f.db.Model(&models.User{}).Where("id = ?", 1).Update("points", 95).Error; err != nil {
		t.Fatalf("seed points failed: %v", err)
	}
	settings := DefaultSettlementSettings()
	order := &models.Order{ID: 10, UserID: 1, Subtotal: models.NewMoneyFromInt(100000)}

	result, err := accrueForTest(t, f, order, settings)
	if err != nil {
		t.Fatalf("accrue failed: %v", err)
	}
	if result.Earned != 10 || result.NewTotal != 105 || result.TokensMinted != 1 {
		t.Fatalf("unexpected accrual: %+v", result)
	}
	var user models.User
	if err := f.db.First(&user, 1).Error; err != nil {
		t.Fatalf("load user failed: %v", err)
	}
	if user.Points != 105 {
		t.Fatalf("expected 105 points, got %d", user.Points)
	}
	if count := countRows(t, f.db, &models.RewardToken{}, "user_id = ? AND consumed = ?", 1, false); count != 1 {
		t.Fatalf("expected 1 reward token, got %d", count)
	}
}

func TestLoyaltyLargeOrderMintsMultipleTokens(t *testing.T) {
	f := setupSettlementTest(t, "loyalty_multi_crossing")
	createSettlementUser(t, f.db, 1)
	order := &models.Order{ID: 11, UserID: 1, Subtotal: models.NewMoneyFromInt(2500000)}

	result, err := accrueForTest(t, f, order, DefaultSettlementSettings())
	if err != nil {
		t.Fatalf("accrue failed: %v", err)
	}
	if result.Earned != 250 || result.TokensMinted != 2 {
		t.Fatalf("unexpected accrual: %+v", result)
	}
}

func TestLoyaltyAccrualIsIdempotentPerOrder(t *testing.T) {
	f := setupSettlementTest(t, "loyalty_idempotent")
	createSettlementUser(t, f.db, 1)
	order := &models.Order{ID: 12, UserID: 1, Subtotal: models.NewMoneyFromInt(50000)}

	if _, err := accrueForTest(t, f, order, DefaultSettlementSettings()); err != nil {
		t.Fatalf("first accrue failed: %v", err)
	}
	second, err := accrueForTest(t, f, order, DefaultSettlementSettings())
	if err != nil {
		t.Fatalf("second accrue failed: %v", err)
	}
	if !second.Replayed {
		t.Fatalf("expected replayed accrual")
	}
	var user models.User
	if err := f.db.First(&user, 1).Error; err != nil {
		t.Fatalf("load user failed: %v", err)
	}
	if user.Points != 5 {
		t.Fatalf("expected 5 points, got %d", user.Points)
	}
}

func TestLoyaltyZeroEarnWritesNothing(t *testing.T) {
	f := setupSettlementTest(t, "loyalty_zero")
	createSettlementUser(t, f.db, 1)
	order := &models.Order{ID: 13, UserID: 1, Subtotal: models.NewMoneyFromInt(9000)}

	result, err := accrueForTest(t, f, order, DefaultSettlementSettings())
	if err != nil {
		t.Fatalf("accrue failed: %v", err)
	}
	if result.Earned != 0 {
		t.Fatalf("expected 0 earned, got %d", result.Earned)
	}
	if count := countRows(t, f.db, &models.PointsTransaction{}, ""); count != 0 {
		t.Fatalf("expected no points transaction, got %d", count)
	}
}

func TestLoyaltyConfigurationErrors(t *testing.T) {
	f := setupSettlementTest(t, "loyalty_config")
	createSettlementUser(t, f.db, 1)
	order := &models.Order{ID: 14, UserID: 1, Subtotal: models.NewMoneyFromInt(50000)}

	settings := DefaultSettlementSettings()
	settings.PointsPerAmount = models.NewMoneyFromInt(0)
	if _, err := accrueForTest(t, f, order, settings); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected configuration error for zero points_per_amount, got %v", err)
	}

	settings = DefaultSettlementSettings()
	settings.RewardThresholdPoints = 0
	if _, err := accrueForTest(t, f, order, settings); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected configuration error for zero reward threshold, got %v", err)
	}
}

func TestLoyaltySnapshot(t *testing.T) {
	f := setupSettlementTest(t, "loyalty_snapshot")
	createSettlementUser(t, f.db, 1)
	order := &models.Order{ID: 15, UserID: 1, Subtotal: models.NewMoneyFromInt(1200000)}
	if _, err := accrueForTest(t, f, order, DefaultSettlementSettings()); err != nil {
		t.Fatalf("accrue failed: %v", err)
	}
	usedAt := time.Now()
	if err := f.db.Create(&models.RewardToken{UserID: 1, Consumed: true, ConsumedAt: &usedAt, CreatedAt: usedAt}).Error; err != nil {
		t.Fatalf("create consumed token failed: %v", err)
	}

	snapshot, err := f.loyalty.Snapshot(context.Background(), 1)
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if snapshot.Points != 120 || !snapshot.RewardAvailable || snapshot.AvailableRewards != 1 || snapshot.TotalRewardsIssued != 2 {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}
	if snapshot.PointsToNextReward != 80 {
		t.Fatalf("expected 80 points to next reward, got %d", snapshot.PointsToNextReward)
	}
	if len(snapshot.RecentTransactions) != 1 || snapshot.RecentTransactions[0].Type != constants.PointsTxnTypeEarn {
		t.Fatalf("unexpected recent transactions: %+v", snapshot.RecentTransactions)
	}
}
