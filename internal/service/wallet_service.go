package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/checkout-core/internal/constants"
	"github.com/checkout-core/internal/logger"
	"github.com/checkout-core/internal/models"
	"github.com/checkout-core/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const defaultRecentTransactionsLimit = 10

// WalletService 钱包账本服务
// 余额只经由本服务变更，每次变更追加一条流水，流水的 balance_after 即变更后余额。
type WalletService struct {
	walletRepo    repository.WalletRepository
	membershipSvc *MembershipService
	settingSvc    *SettlementSettingService
	recentLimit   int
}

// LedgerEntry 一次账本变更请求
type LedgerEntry struct {
	UserID    uint
	Amount    decimal.Decimal
	Source    string
	Reference string
	OrderID   *uint
	Remark    string
	// Membership 非空时，在同一事务内按变更后余额评估会员等级
	Membership *MembershipPolicy
}

// LedgerResult 账本变更结果
type LedgerResult struct {
	Account     *models.WalletAccount     `json:"account"`
	Transaction *models.WalletTransaction `json:"transaction"`
	Membership  *MembershipChange         `json:"membership,omitempty"`
	Replayed    bool                      `json:"replayed"`
}

// WalletSnapshot 钱包快照
type WalletSnapshot struct {
	UserID             uint                       `json:"user_id"`
	Balance            models.Money               `json:"balance"`
	RecentTransactions []models.WalletTransaction `json:"recent_transactions"`
}

// NewWalletService 创建钱包服务
func NewWalletService(
	walletRepo repository.WalletRepository,
	membershipSvc *MembershipService,
	settingSvc *SettlementSettingService,
	recentLimit int,
) *WalletService {
	if recentLimit <= 0 {
		recentLimit = defaultRecentTransactionsLimit
	}
	return &WalletService{
		walletRepo:    walletRepo,
		membershipSvc: membershipSvc,
		settingSvc:    settingSvc,
		recentLimit:   recentLimit,
	}
}

// Debit 扣减余额，余额不足返回 ErrInsufficientFunds
func (s *WalletService) Debit(entry LedgerEntry) (*LedgerResult, error) {
	var result *LedgerResult
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = s.DebitTx(tx, entry, time.Now())
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Credit 增加余额
func (s *WalletService) Credit(entry LedgerEntry) (*LedgerResult, error) {
	var result *LedgerResult
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = s.CreditTx(tx, entry, time.Now())
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DebitTx 事务内扣减余额
func (s *WalletService) DebitTx(tx *gorm.DB, entry LedgerEntry, now time.Time) (*LedgerResult, error) {
	return s.applyEntryTx(tx, entry, constants.WalletDirectionDebit, now)
}

// CreditTx 事务内增加余额
func (s *WalletService) CreditTx(tx *gorm.DB, entry LedgerEntry, now time.Time) (*LedgerResult, error) {
	return s.applyEntryTx(tx, entry, constants.WalletDirectionCredit, now)
}

func (s *WalletService) applyEntryTx(tx *gorm.DB, entry LedgerEntry, direction string, now time.Time) (*LedgerResult, error) {
	if entry.UserID == 0 {
		return nil, ErrUserNotFound
	}
	amount := entry.Amount.Round(2)
	if amount.IsNegative() {
		return nil, ErrWalletInvalidAmount
	}
	source := strings.TrimSpace(entry.Source)
	if source == "" {
		return nil, ErrWalletInvalidAmount
	}
	signed := amount
	if direction == constants.WalletDirectionDebit {
		signed = amount.Neg()
	}
	reference := strings.TrimSpace(entry.Reference)
	if reference == "" {
		reference = fmt.Sprintf("%s:%s", source, uuid.NewString())
	}

	repo := s.walletRepo.WithTx(tx)
	existing, err := repo.GetTransactionByReference(reference)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.UserID != entry.UserID || existing.Source != source || !existing.Amount.Decimal.Equal(signed) {
			return nil, ErrWalletReferenceReused
		}
		account, err := repo.GetAccountByUserID(entry.UserID)
		if err != nil {
			return nil, err
		}
		return &LedgerResult{Account: account, Transaction: existing, Replayed: true}, nil
	}

	delta, err := repo.ApplyDelta(entry.UserID, signed, now)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrWalletBalanceNegative):
			return nil, ErrInsufficientFunds
		case errors.Is(err, repository.ErrWalletVersionConflict):
			return nil, ErrWalletConcurrentUpdate
		default:
			return nil, err
		}
	}

	txn := &models.WalletTransaction{
		UserID:        entry.UserID,
		OrderID:       entry.OrderID,
		Source:        source,
		Direction:     direction,
		Amount:        models.NewMoneyFromDecimal(signed),
		BalanceBefore: models.NewMoneyFromDecimal(delta.BalanceBefore),
		BalanceAfter:  models.NewMoneyFromDecimal(delta.BalanceAfter),
		Reference:     reference,
		Remark:        entry.Remark,
		CreatedAt:     now,
	}
	if err := repo.CreateTransaction(txn); err != nil {
		return nil, err
	}

	result := &LedgerResult{Account: delta.Account, Transaction: txn}
	if entry.Membership != nil && s.membershipSvc != nil {
		change, err := s.membershipSvc.EvaluateTx(tx, entry.UserID, delta.BalanceAfter, *entry.Membership, now)
		if err != nil {
			return nil, err
		}
		result.Membership = change
	}
	return result, nil
}

// TopUp 充值入账，按引用号幂等，并重新评估会员等级
func (s *WalletService) TopUp(ctx context.Context, userID uint, amount decimal.Decimal, reference, remark string) (*LedgerResult, error) {
	if userID == 0 {
		return nil, ErrUserNotFound
	}
	if !amount.IsPositive() {
		return nil, ErrWalletInvalidAmount
	}
	settings, err := s.settingSvc.Current(ctx)
	if err != nil {
		return nil, err
	}
	policy := settings.MembershipPolicy()
	reference = strings.TrimSpace(reference)
	if reference != "" {
		reference = fmt.Sprintf("%s:%s", constants.WalletSourceTopUp, reference)
	}
	result, err := s.Credit(LedgerEntry{
		UserID:     userID,
		Amount:     amount,
		Source:     constants.WalletSourceTopUp,
		Reference:  reference,
		Remark:     remark,
		Membership: &policy,
	})
	if err != nil {
		logger.Warnw("wallet_top_up_failed", "user_id", userID, "amount", amount.StringFixed(2), "error", err)
		return nil, err
	}
	return result, nil
}

// GetBalance 获取余额，账户不存在视为 0
func (s *WalletService) GetBalance(userID uint) (decimal.Decimal, error) {
	account, err := s.walletRepo.GetAccountByUserID(userID)
	if err != nil {
		return decimal.Zero, err
	}
	if account == nil {
		return decimal.Zero, nil
	}
	return account.Balance.Decimal, nil
}

// Snapshot 钱包余额与最近流水
func (s *WalletService) Snapshot(userID uint) (*WalletSnapshot, error) {
	if userID == 0 {
		return nil, ErrUserNotFound
	}
	balance, err := s.GetBalance(userID)
	if err != nil {
		return nil, err
	}
	txns, _, err := s.walletRepo.ListTransactions(repository.WalletTransactionListFilter{
		UserID:   userID,
		Page:     1,
		PageSize: s.recentLimit,
	})
	if err != nil {
		return nil, err
	}
	return &WalletSnapshot{
		UserID:             userID,
		Balance:            models.NewMoneyFromDecimal(balance),
		RecentTransactions: txns,
	}, nil
}

// ListTransactions 查询钱包流水
func (s *WalletService) ListTransactions(filter repository.WalletTransactionListFilter) ([]models.WalletTransaction, int64, error) {
	return s.walletRepo.ListTransactions(filter)
}

// ReplayBalance 回放全部流水得到的余额，用于核对账本
func (s *WalletService) ReplayBalance(userID uint) (decimal.Decimal, error) {
	txns, err := s.walletRepo.ListAllTransactions(userID)
	if err != nil {
		return decimal.Zero, err
	}
	sum := decimal.Zero
	for _, txn := range txns {
		sum = sum.Add(txn.Amount.Decimal)
	}
	return sum.Round(2), nil
}

func buildOrderWalletReference(orderID uint, action string) string {
	return fmt.Sprintf("order:%d:%s", orderID, action)
}
