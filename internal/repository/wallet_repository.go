package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/checkout-core/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrWalletBalanceNegative 变更后余额为负
	ErrWalletBalanceNegative = errors.New("wallet balance would become negative")
	// ErrWalletVersionConflict 余额版本冲突（并发写入）
	ErrWalletVersionConflict = errors.New("wallet version conflict")
)

// WalletDelta 一次余额变更的结果
type WalletDelta struct {
	Account       *models.WalletAccount
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
}

// WalletRepository 钱包数据访问接口
type WalletRepository interface {
	GetAccountByUserID(userID uint) (*models.WalletAccount, error)
	GetAccountByUserIDForUpdate(userID uint) (*models.WalletAccount, error)
	EnsureAccountForUpdate(userID uint) (*models.WalletAccount, error)
	ApplyDelta(userID uint, delta decimal.Decimal, now time.Time) (*WalletDelta, error)
	CreateTransaction(txn *models.WalletTransaction) error
	GetTransactionByReference(reference string) (*models.WalletTransaction, error)
	ListTransactions(filter WalletTransactionListFilter) ([]models.WalletTransaction, int64, error)
	ListAllTransactions(userID uint) ([]models.WalletTransaction, error)
	WithTx(tx *gorm.DB) *GormWalletRepository
}

// GormWalletRepository GORM 钱包仓储实现
type GormWalletRepository struct {
	db *gorm.DB
}

// NewWalletRepository 创建钱包仓储
func NewWalletRepository(db *gorm.DB) *GormWalletRepository {
	return &GormWalletRepository{db: db}
}

// WithTx 绑定事务
func (r *GormWalletRepository) WithTx(tx *gorm.DB) *GormWalletRepository {
	if tx == nil {
		return r
	}
	return &GormWalletRepository{db: tx}
}

// GetAccountByUserID 按用户ID获取钱包账户
func (r *GormWalletRepository) GetAccountByUserID(userID uint) (*models.WalletAccount, error) {
	if userID == 0 {
		return nil, nil
	}
	var account models.WalletAccount
	if err := r.db.Where("user_id = ?", userID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// GetAccountByUserIDForUpdate 加锁读取钱包账户，不存在时返回 nil，不会创建
func (r *GormWalletRepository) GetAccountByUserIDForUpdate(userID uint) (*models.WalletAccount, error) {
	if userID == 0 {
		return nil, nil
	}
	return r.getAccountForUpdate(userID)
}

// EnsureAccountForUpdate 加锁获取钱包账户，不存在时创建零余额账户
func (r *GormWalletRepository) EnsureAccountForUpdate(userID uint) (*models.WalletAccount, error) {
	if userID == 0 {
		return nil, nil
	}
	account, err := r.getAccountForUpdate(userID)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return account, nil
	}
	created := &models.WalletAccount{
		UserID:  userID,
		Balance: models.NewMoneyFromDecimal(decimal.Zero),
	}
	if err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(created).Error; err != nil {
		return nil, err
	}
	return r.getAccountForUpdate(userID)
}

func (r *GormWalletRepository) getAccountForUpdate(userID uint) (*models.WalletAccount, error) {
	var account models.WalletAccount
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// ApplyDelta 原子变更余额
// 先行锁定账户，再以版本号做条件更新；余额不足时不写入任何数据。
func (r *GormWalletRepository) ApplyDelta(userID uint, delta decimal.Decimal, now time.Time) (*WalletDelta, error) {
	account, err := r.EnsureAccountForUpdate(userID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, gorm.ErrRecordNotFound
	}
	before := account.Balance.Decimal.Round(2)
	after := before.Add(delta).Round(2)
	if after.LessThan(decimal.Zero) {
		return nil, ErrWalletBalanceNegative
	}

	result := r.db.Model(&models.WalletAccount{}).
		Where("id = ? AND version = ?", account.ID, account.Version).
		Updates(map[string]interface{}{
			"balance":    models.NewMoneyFromDecimal(after),
			"version":    gorm.Expr("version + 1"),
			"updated_at": now,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrWalletVersionConflict
	}

	account.Balance = models.NewMoneyFromDecimal(after)
	account.Version++
	account.UpdatedAt = now
	return &WalletDelta{
		Account:       account,
		BalanceBefore: before,
		BalanceAfter:  after,
	}, nil
}

// CreateTransaction 创建钱包流水
func (r *GormWalletRepository) CreateTransaction(txn *models.WalletTransaction) error {
	return r.db.Create(txn).Error
}

// GetTransactionByReference 按参考号获取流水
func (r *GormWalletRepository) GetTransactionByReference(reference string) (*models.WalletTransaction, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, nil
	}
	var txn models.WalletTransaction
	if err := r.db.Where("reference = ?", reference).First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

// ListTransactions 分页查询钱包流水
func (r *GormWalletRepository) ListTransactions(filter WalletTransactionListFilter) ([]models.WalletTransaction, int64, error) {
	query := r.db.Model(&models.WalletTransaction{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.OrderID != 0 {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if filter.Source != "" {
		query = query.Where("source = ?", filter.Source)
	}
	if filter.Direction != "" {
		query = query.Where("direction = ?", filter.Direction)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var txns []models.WalletTransaction
	if err := query.Order("id desc").Find(&txns).Error; err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

// ListAllTransactions 按写入顺序返回用户全部流水，用于账本回放
func (r *GormWalletRepository) ListAllTransactions(userID uint) ([]models.WalletTransaction, error) {
	var txns []models.WalletTransaction
	if err := r.db.Where("user_id = ?", userID).Order("id asc").Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}
