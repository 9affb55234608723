package repository

import (
	"errors"
	"time"

	"github.com/checkout-core/internal/models"

	"gorm.io/gorm"
)

// PointsRepository 积分与奖励券数据访问接口
type PointsRepository interface {
	CreateTransaction(txn *models.PointsTransaction) error
	GetTransactionByReference(reference string) (*models.PointsTransaction, error)
	ListTransactions(filter PointsTransactionListFilter) ([]models.PointsTransaction, int64, error)
	CreateRewardTokens(tokens []models.RewardToken) error
	GetOldestAvailableRewardToken(userID uint) (*models.RewardToken, error)
	ConsumeRewardToken(tokenID, orderID uint, at time.Time) (bool, error)
	RestoreRewardTokenByOrder(orderID uint) (int64, error)
	CountAvailableRewardTokens(userID uint) (int64, error)
	CountRewardTokens(userID uint) (int64, error)
	WithTx(tx *gorm.DB) *GormPointsRepository
}

// GormPointsRepository GORM 实现
type GormPointsRepository struct {
	db *gorm.DB
}

// NewPointsRepository 创建积分仓库
func NewPointsRepository(db *gorm.DB) *GormPointsRepository {
	return &GormPointsRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPointsRepository) WithTx(tx *gorm.DB) *GormPointsRepository {
	if tx == nil {
		return r
	}
	return &GormPointsRepository{db: tx}
}

// CreateTransaction 创建积分流水
func (r *GormPointsRepository) CreateTransaction(txn *models.PointsTransaction) error {
	return r.db.Create(txn).Error
}

// GetTransactionByReference 按引用号获取积分流水
func (r *GormPointsRepository) GetTransactionByReference(reference string) (*models.PointsTransaction, error) {
	if reference == "" {
		return nil, nil
	}
	var txn models.PointsTransaction
	if err := r.db.Where("reference = ?", reference).First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

// ListTransactions 分页查询积分流水
func (r *GormPointsRepository) ListTransactions(filter PointsTransactionListFilter) ([]models.PointsTransaction, int64, error) {
	query := r.db.Model(&models.PointsTransaction{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}

	var txns []models.PointsTransaction
	total, err := countAndPage(query, "id desc", filter.Page, filter.PageSize, &txns)
	if err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

// CreateRewardTokens 批量发放奖励券
func (r *GormPointsRepository) CreateRewardTokens(tokens []models.RewardToken) error {
	if len(tokens) == 0 {
		return nil
	}
	return r.db.Create(&tokens).Error
}

// GetOldestAvailableRewardToken 获取最早发放且未使用的奖励券
func (r *GormPointsRepository) GetOldestAvailableRewardToken(userID uint) (*models.RewardToken, error) {
	var token models.RewardToken
	if err := r.db.Where("user_id = ? AND consumed = ?", userID, false).
		Order("id asc").
		First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &token, nil
}

// ConsumeRewardToken 条件核销奖励券，已被核销时返回 false
func (r *GormPointsRepository) ConsumeRewardToken(tokenID, orderID uint, at time.Time) (bool, error) {
	result := r.db.Model(&models.RewardToken{}).
		Where("id = ? AND consumed = ?", tokenID, false).
		Updates(map[string]interface{}{
			"consumed":    true,
			"consumed_at": at,
			"order_id":    orderID,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// RestoreRewardTokenByOrder 退回订单占用的奖励券
func (r *GormPointsRepository) RestoreRewardTokenByOrder(orderID uint) (int64, error) {
	result := r.db.Model(&models.RewardToken{}).
		Where("order_id = ? AND consumed = ?", orderID, true).
		Updates(map[string]interface{}{
			"consumed":    false,
			"consumed_at": nil,
			"order_id":    nil,
		})
	return result.RowsAffected, result.Error
}

// CountAvailableRewardTokens 统计可用奖励券
func (r *GormPointsRepository) CountAvailableRewardTokens(userID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&models.RewardToken{}).
		Where("user_id = ? AND consumed = ?", userID, false).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountRewardTokens 统计累计发放的奖励券
func (r *GormPointsRepository) CountRewardTokens(userID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&models.RewardToken{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
