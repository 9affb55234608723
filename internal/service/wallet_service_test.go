package service

import (
	"context"
	"errors"
	"testing"

	"github.com/checkout-core/internal/constants"
	"github.com/checkout-core/internal/models"

	"github.com/shopspring/decimal"
)

func TestWalletLedgerReplayMatchesBalance(t *testing.T) {
	f := setupSettlementTest(t, "wallet_replay")
	createSettlementUser(t, f.db, 1)

	topUpForTest(t, f, 1, 30000)
	if _, err := f.wallet.Debit(LedgerEntry{UserID: 1, Amount: decimal.NewFromInt(12500), Source: constants.WalletSourceOrderPay}); err != nil {
		t.Fatalf("debit failed: %v", err)
	}
	if _, err := f.wallet.Credit(LedgerEntry{UserID: 1, Amount: decimal.NewFromInt(2500), Source: constants.WalletSourceAdminAdjust}); err != nil {
		t.Fatalf("credit failed: %v", err)
	}
	if _, err := f.wallet.Debit(LedgerEntry{UserID: 1, Amount: decimal.NewFromInt(20000), Source: constants.WalletSourceOrderPay}); err != nil {
		t.Fatalf("debit failed: %v", err)
	}

	balance := mustBalance(t, f, 1)
	if !balance.Equal(decimal.Zero) {
		t.Fatalf("expected balance 0, got %s", balance)
	}
	replayed, err := f.wallet.ReplayBalance(1)
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if !replayed.Equal(balance) {
		t.Fatalf("replay %s does not match balance %s", replayed, balance)
	}

	var txns []models.WalletTransaction
	if err := f.db.Where("user_id = ?", 1).Order("id asc").Find(&txns).Error; err != nil {
		t.Fatalf("load txns failed: %v", err)
	}
	if len(txns) != 4 {
		t.Fatalf("expected 4 transactions, got %d", len(txns))
	}
	running := decimal.Zero
	for _, txn := range txns {
		if !txn.BalanceBefore.Decimal.Equal(running) {
			t.Fatalf("txn %d balance_before %s, want %s", txn.ID, txn.BalanceBefore, running)
		}
		running = running.Add(txn.Amount.Decimal)
		if !txn.BalanceAfter.Decimal.Equal(running) {
			t.Fatalf("txn %d balance_after %s, want %s", txn.ID, txn.BalanceAfter, running)
		}
	}
}

func TestWalletDebitInsufficientFunds(t *testing.T) {
	f := setupSettlementTest(t, "wallet_insufficient")
	createSettlementUser(t, f.db, 1)
	topUpForTest(t, f, 1, 1000)

	_, err := f.wallet.Debit(LedgerEntry{UserID: 1, Amount: decimal.NewFromInt(1001), Source: constants.WalletSourceOrderPay})
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if balance := mustBalance(t, f, 1); !balance.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("balance changed after failed debit: %s", balance)
	}
	if count := countRows(t, f.db, &models.WalletTransaction{}, "user_id = ?", 1); count != 1 {
		t.Fatalf("expected only the top-up transaction, got %d", count)
	}
}

func TestWalletDebitWithoutAccount(t *testing.T) {
	f := setupSettlementTest(t, "wallet_no_account")
	createSettlementUser(t, f.db, 1)

	_, err := f.wallet.Debit(LedgerEntry{UserID: 1, Amount: decimal.NewFromInt(1), Source: constants.WalletSourceOrderPay})
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestWalletRejectsNegativeAmount(t *testing.T) {
	f := setupSettlementTest(t, "wallet_negative")
	createSettlementUser(t, f.db, 1)

	_, err := f.wallet.Credit(LedgerEntry{UserID: 1, Amount: decimal.NewFromInt(-5), Source: constants.WalletSourceAdminAdjust})
	if !errors.Is(err, ErrWalletInvalidAmount) {
		t.Fatalf("expected ErrWalletInvalidAmount, got %v", err)
	}
}

func TestWalletReferenceIdempotent(t *testing.T) {
	f := setupSettlementTest(t, "wallet_reference")
	createSettlementUser(t, f.db, 1)
	ctx := context.Background()

	first, err := f.wallet.TopUp(ctx, 1, decimal.NewFromInt(5000), "bank-001", "")
	if err != nil {
		t.Fatalf("first top up failed: %v", err)
	}
	if first.Replayed {
		t.Fatalf("first top up must not be a replay")
	}
	second, err := f.wallet.TopUp(ctx, 1, decimal.NewFromInt(5000), "bank-001", "")
	if err != nil {
		t.Fatalf("second top up failed: %v", err)
	}
	if !second.Replayed || second.Transaction.ID != first.Transaction.ID {
		t.Fatalf("expected replay of txn %d, got %+v", first.Transaction.ID, second.Transaction)
	}
	if balance := mustBalance(t, f, 1); !balance.Equal(decimal.NewFromInt(5000)) {
		t.Fatalf("expected balance 5000, got %s", balance)
	}

	_, err = f.wallet.TopUp(ctx, 1, decimal.NewFromInt(7000), "bank-001", "")
	if !errors.Is(err, ErrWalletReferenceReused) {
		t.Fatalf("expected ErrWalletReferenceReused, got %v", err)
	}
}

func TestWalletTopUpUpgradesMembership(t *testing.T) {
	f := setupSettlementTest(t, "wallet_membership")
	createSettlementUser(t, f.db, 1)

	result, err := f.wallet.TopUp(context.Background(), 1, decimal.NewFromInt(2000000), "", "")
	if err != nil {
		t.Fatalf("top up failed: %v", err)
	}
	if result.Membership == nil || result.Membership.Current.Level != constants.MembershipGold {
		t.Fatalf("expected gold membership, got %+v", result.Membership)
	}
	var user models.User
	if err := f.db.First(&user, 1).Error; err != nil {
		t.Fatalf("load user failed: %v", err)
	}
	if user.MembershipLevel != constants.MembershipGold {
		t.Fatalf("expected persisted gold level, got %s", user.MembershipLevel)
	}
}

func TestWalletSnapshotRecentTransactions(t *testing.T) {
	f := setupSettlementTest(t, "wallet_snapshot")
	createSettlementUser(t, f.db, 1)
	for i := 0; i < 7; i++ {
		topUpForTest(t, f, 1, 100)
	}

	snapshot, err := f.wallet.Snapshot(1)
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if !snapshot.Balance.Decimal.Equal(decimal.NewFromInt(700)) {
		t.Fatalf("expected balance 700, got %s", snapshot.Balance)
	}
	if len(snapshot.RecentTransactions) != 5 {
		t.Fatalf("expected 5 recent transactions, got %d", len(snapshot.RecentTransactions))
	}
}
