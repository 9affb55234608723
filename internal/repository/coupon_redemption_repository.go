package repository

import (
	"errors"
	"time"

	"github.com/checkout-core/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CouponRedemptionRepository 优惠券核销记录数据访问接口
type CouponRedemptionRepository interface {
	Create(redemption *models.CouponRedemption) (bool, error)
	CountByUser(couponID, userID uint) (int64, error)
	CountByCoupon(couponID uint) (int64, error)
	GetByOrderID(orderID uint) (*models.CouponRedemption, error)
	MarkReleasedByOrderID(orderID uint, releasedAt time.Time) (int64, error)
	WithTx(tx *gorm.DB) *GormCouponRedemptionRepository
}

// GormCouponRedemptionRepository GORM 实现
type GormCouponRedemptionRepository struct {
	db *gorm.DB
}

// NewCouponRedemptionRepository 创建核销记录仓库
func NewCouponRedemptionRepository(db *gorm.DB) *GormCouponRedemptionRepository {
	return &GormCouponRedemptionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCouponRedemptionRepository) WithTx(tx *gorm.DB) *GormCouponRedemptionRepository {
	if tx == nil {
		return r
	}
	return &GormCouponRedemptionRepository{db: tx}
}

// Create 写入核销记录
// 单次券依赖 single_use_key 唯一索引，冲突时不写入并返回 false。
func (r *GormCouponRedemptionRepository) Create(redemption *models.CouponRedemption) (bool, error) {
	result := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(redemption)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// CountByUser 获取用户对某券的有效核销次数（不含已释放）
func (r *GormCouponRedemptionRepository) CountByUser(couponID, userID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&models.CouponRedemption{}).
		Where("coupon_id = ? AND user_id = ? AND released_at IS NULL", couponID, userID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByCoupon 获取某券的全局有效核销次数（不含已释放）
func (r *GormCouponRedemptionRepository) CountByCoupon(couponID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&models.CouponRedemption{}).
		Where("coupon_id = ? AND released_at IS NULL", couponID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// GetByOrderID 获取订单的核销记录
func (r *GormCouponRedemptionRepository) GetByOrderID(orderID uint) (*models.CouponRedemption, error) {
	var redemption models.CouponRedemption
	if err := r.db.Where("order_id = ?", orderID).First(&redemption).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &redemption, nil
}

// MarkReleasedByOrderID 标记订单的核销记录已释放
// 记录本身保留；同时清空 single_use_key，使单次券可被再次核销。
func (r *GormCouponRedemptionRepository) MarkReleasedByOrderID(orderID uint, releasedAt time.Time) (int64, error) {
	result := r.db.Model(&models.CouponRedemption{}).
		Where("order_id = ? AND released_at IS NULL", orderID).
		Updates(map[string]interface{}{
			"released_at":    releasedAt,
			"single_use_key": nil,
		})
	return result.RowsAffected, result.Error
}
