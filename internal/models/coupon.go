package models

import (
	"time"

	"gorm.io/gorm"
)

// Coupon 优惠券
type Coupon struct {
	ID                 uint           `gorm:"primarykey" json:"id"`                                                   // 主键
	Code               string         `gorm:"uniqueIndex;not null" json:"code"`                                       // 优惠码（大写）
	Type               string         `gorm:"not null" json:"type"`                                                   // 类型（fixed/percent）
	Value              Money          `gorm:"type:decimal(20,2);not null;default:0" json:"value"`                     // 数值（固定金额或百分比）
	FreeDelivery       bool           `gorm:"not null;default:false" json:"free_delivery"`                            // 免配送费
	UsageType          string         `gorm:"type:varchar(20);not null;default:'multiple'" json:"usage_type"`         // 使用类型（single/multiple）
	MaxUses            int            `gorm:"not null;default:0" json:"max_uses"`                                     // 使用上限
	LimitScope         string         `gorm:"type:varchar(20);not null;default:'user'" json:"limit_scope"`            // 上限统计范围（user/global）
	AssignedUserIDs    UintArray      `gorm:"type:json" json:"assigned_user_ids"`                                     // 限定用户
	AssignedProductIDs UintArray      `gorm:"type:json" json:"assigned_product_ids"`                                  // 限定商品
	AssignedLevels     StringArray    `gorm:"type:json" json:"assigned_levels"`                                       // 限定会员等级
	UsedCount          int            `gorm:"not null;default:0" json:"used_count"`                                   // 已使用次数（展示用计数）
	ExpiresAt          *time.Time     `gorm:"index" json:"expires_at"`                                                // 失效时间
	IsActive           bool           `gorm:"not null;default:true" json:"is_active"`                                 // 是否启用
	CreatedAt          time.Time      `gorm:"index" json:"created_at"`                                                // 创建时间
	UpdatedAt          time.Time      `gorm:"index" json:"updated_at"`                                                // 更新时间
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`                                                         // 软删除时间
}

// TableName 指定表名
func (Coupon) TableName() string {
	return "coupons"
}

// CouponRedemption 优惠券核销记录，按用户统计使用次数的唯一依据
type CouponRedemption struct {
	ID             uint       `gorm:"primarykey" json:"id"`                                         // 主键
	CouponID       uint       `gorm:"index;not null" json:"coupon_id"`                              // 优惠券ID
	UserID         uint       `gorm:"index;not null" json:"user_id"`                                // 用户ID
	OrderID        uint       `gorm:"index;not null" json:"order_id"`                               // 订单ID
	SingleUseKey   *string    `gorm:"type:varchar(64);uniqueIndex" json:"-"`                        // 单次券唯一键（coupon:user），释放后清空
	DiscountAmount Money      `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"` // 优惠金额
	ReleasedAt     *time.Time `gorm:"index" json:"released_at,omitempty"`                           // 释放时间（订单取消后不再计入使用次数）
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`                                      // 创建时间
}

// TableName 指定表名
func (CouponRedemption) TableName() string {
	return "coupon_redemptions"
}
