package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/checkout-core/internal/constants"
	"github.com/checkout-core/internal/models"
	"github.com/checkout-core/internal/repository"

	"github.com/shopspring/decimal"
)

func TestProfileRefreshesExpiredDowngrade(t *testing.T) {
	f := setupSettlementTest(t, "profile_refresh")
	createSettlementUser(t, f.db, 1)
	topUpForTest(t, f, 1, 1500000)

	expired := time.Now().Add(-time.Hour)
	if err := f.db.Model(&models.User{}).Where("id = ?", 1).Updates(map[string]interface{}{
		"membership_level":         constants.MembershipGold,
		"membership_pending_level": constants.MembershipSilver,
		"membership_grace_until":   expired,
	}).Error; err != nil {
		t.Fatalf("seed membership failed: %v", err)
	}

	profile, err := f.profiles.GetProfile(context.Background(), 1)
	if err != nil {
		t.Fatalf("get profile failed: %v", err)
	}
	if profile.MembershipLevel != constants.MembershipSilver || profile.PendingDowngrade != nil {
		t.Fatalf("expected expired downgrade applied, got %s %+v", profile.MembershipLevel, profile.PendingDowngrade)
	}
	if !profile.WalletBalance.Decimal.Equal(decimal.NewFromInt(1500000)) {
		t.Fatalf("unexpected wallet balance: %s", profile.WalletBalance)
	}
}

func TestProfileReadSurvivesMissingWallet(t *testing.T) {
	f := setupSettlementTest(t, "profile_no_wallet")
	createSettlementUser(t, f.db, 1)

	profile, err := f.profiles.GetProfile(context.Background(), 1)
	if err != nil {
		t.Fatalf("get profile failed: %v", err)
	}
	if profile.MembershipLevel != constants.MembershipNone || !profile.WalletBalance.Decimal.IsZero() {
		t.Fatalf("unexpected profile: %+v", profile)
	}

	if _, err := f.profiles.GetProfile(context.Background(), 404); err == nil {
		t.Fatalf("expected error for missing user")
	}
}

// concurrentTopUpUserRepo 在首次读取用户后插入一笔充值，模拟资料读取期间的并发请求
type concurrentTopUpUserRepo struct {
	repository.UserRepository
	once  sync.Once
	topUp func()
}

func (r *concurrentTopUpUserRepo) GetByID(id uint) (*models.User, error) {
	user, err := r.UserRepository.GetByID(id)
	r.once.Do(r.topUp)
	return user, err
}

func TestProfileRefreshEvaluatesCommittedBalance(t *testing.T) {
	defaults := DefaultSettlementSettings()
	defaults.MembershipGraceDays = 0
	f := setupSettlementTestWithSettings(t, "profile_concurrent_top_up", defaults)
	createSettlementUser(t, f.db, 1)

	userRepo := &concurrentTopUpUserRepo{
		UserRepository: repository.NewUserRepository(f.db),
		topUp:          func() { topUpForTest(t, f, 1, 2500000) },
	}
	profiles := NewProfileService(
		userRepo,
		repository.NewWalletRepository(f.db),
		repository.NewPointsRepository(f.db),
		f.membership,
		f.settings,
	)

	profile, err := profiles.GetProfile(context.Background(), 1)
	if err != nil {
		t.Fatalf("get profile failed: %v", err)
	}
	if !profile.WalletBalance.Decimal.Equal(decimal.NewFromInt(2500000)) {
		t.Fatalf("expected balance 2500000, got %s", profile.WalletBalance)
	}
	if profile.MembershipLevel != constants.MembershipGold {
		t.Fatalf("expected gold in profile, got %s", profile.MembershipLevel)
	}

	var stored models.User
	if err := f.db.First(&stored, 1).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if stored.MembershipLevel != constants.MembershipGold {
		t.Fatalf("expected stored level gold, got %s", stored.MembershipLevel)
	}
}
