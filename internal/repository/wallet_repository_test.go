package repository

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/checkout-core/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupWalletRepositoryTest(t *testing.T) *GormWalletRepository {
	t.Helper()
	dsn := fmt.Sprintf("file:wallet_repository_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.WalletAccount{}, &models.WalletTransaction{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewWalletRepository(db)
}

func TestApplyDeltaCreatesAccountAndBumpsVersion(t *testing.T) {
	repo := setupWalletRepositoryTest(t)
	now := time.Now()

	first, err := repo.ApplyDelta(7, decimal.NewFromInt(1500), now)
	if err != nil {
		t.Fatalf("apply credit failed: %v", err)
	}
	if !first.BalanceBefore.IsZero() || !first.BalanceAfter.Equal(decimal.NewFromInt(1500)) {
		t.Fatalf("unexpected delta: %+v", first)
	}
	second, err := repo.ApplyDelta(7, decimal.NewFromInt(-500), now)
	if err != nil {
		t.Fatalf("apply debit failed: %v", err)
	}
	if !second.BalanceAfter.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("expected 1000, got %s", second.BalanceAfter)
	}

	account, err := repo.GetAccountByUserID(7)
	if err != nil || account == nil {
		t.Fatalf("load account failed: %v", err)
	}
	if account.Version != 2 || !account.Balance.Decimal.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("unexpected account: version=%d balance=%s", account.Version, account.Balance)
	}
}

func TestApplyDeltaRejectsNegativeBalance(t *testing.T) {
	repo := setupWalletRepositoryTest(t)
	now := time.Now()
	if _, err := repo.ApplyDelta(8, decimal.NewFromInt(100), now); err != nil {
		t.Fatalf("apply credit failed: %v", err)
	}

	_, err := repo.ApplyDelta(8, decimal.NewFromInt(-101), now)
	if !errors.Is(err, ErrWalletBalanceNegative) {
		t.Fatalf("expected ErrWalletBalanceNegative, got %v", err)
	}
	account, err := repo.GetAccountByUserID(8)
	if err != nil || account == nil {
		t.Fatalf("load account failed: %v", err)
	}
	if !account.Balance.Decimal.Equal(decimal.NewFromInt(100)) || account.Version != 1 {
		t.Fatalf("account changed after rejected debit: %+v", account)
	}
}

func TestGetTransactionByReference(t *testing.T) {
	repo := setupWalletRepositoryTest(t)
	txn := &models.WalletTransaction{
		UserID:        1,
		Source:        "top_up",
		Direction:     "credit",
		Amount:        models.NewMoneyFromInt(10),
		BalanceBefore: models.NewMoneyFromInt(0),
		BalanceAfter:  models.NewMoneyFromInt(10),
		Reference:     "top_up:abc",
		CreatedAt:     time.Now(),
	}
	if err := repo.CreateTransaction(txn); err != nil {
		t.Fatalf("create txn failed: %v", err)
	}
	found, err := repo.GetTransactionByReference("top_up:abc")
	if err != nil || found == nil || found.ID != txn.ID {
		t.Fatalf("lookup failed: %+v %v", found, err)
	}
	missing, err := repo.GetTransactionByReference("nope")
	if err != nil || missing != nil {
		t.Fatalf("expected nil for missing reference, got %+v %v", missing, err)
	}
}

func TestGetAccountByUserIDForUpdateDoesNotCreate(t *testing.T) {
	repo := setupWalletRepositoryTest(t)

	account, err := repo.GetAccountByUserIDForUpdate(9)
	if err != nil {
		t.Fatalf("locked read failed: %v", err)
	}
	if account != nil {
		t.Fatalf("expected nil account, got %+v", account)
	}
	if existing, err := repo.GetAccountByUserID(9); err != nil || existing != nil {
		t.Fatalf("locked read must not create account: %+v %v", existing, err)
	}

	if _, err := repo.ApplyDelta(9, decimal.NewFromInt(300), time.Now()); err != nil {
		t.Fatalf("apply credit failed: %v", err)
	}
	account, err = repo.GetAccountByUserIDForUpdate(9)
	if err != nil || account == nil {
		t.Fatalf("expected account after credit: %+v %v", account, err)
	}
	if !account.Balance.Decimal.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("unexpected balance: %s", account.Balance)
	}
}
