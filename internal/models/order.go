package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表，金额字段在创建时冻结，之后不再重新计算
type Order struct {
	ID                 uint           `gorm:"primarykey" json:"id"`                                                 // 主键
	OrderNo            string         `gorm:"uniqueIndex;not null" json:"order_no"`                                 // 订单编号
	UserID             uint           `gorm:"index;not null" json:"user_id"`                                        // 用户ID
	Status             string         `gorm:"index;not null" json:"status"`                                         // 订单状态
	PaymentMethod      string         `gorm:"type:varchar(20);not null" json:"payment_method"`                      // 支付方式
	PaymentStatus      string         `gorm:"type:varchar(20);index;not null" json:"payment_status"`                // 支付状态
	Address            string         `gorm:"type:varchar(500);not null;default:''" json:"address"`                 // 配送地址
	Latitude           float64        `gorm:"not null;default:0" json:"latitude"`                                   // 配送纬度
	Longitude          float64        `gorm:"not null;default:0" json:"longitude"`                                  // 配送经度
	Subtotal           Money          `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`                // 商品小计
	DeliveryFee        Money          `gorm:"type:decimal(20,2);not null;default:0" json:"delivery_fee"`            // 配送费（免配送券生效后为 0）
	DeliveryDistanceKm float64        `gorm:"not null;default:0" json:"delivery_distance_km"`                       // 配送距离
	FreeDelivery       bool           `gorm:"not null;default:false" json:"free_delivery"`                          // 是否免配送费
	Discount           Money          `gorm:"type:decimal(20,2);not null;default:0" json:"discount"`                // 优惠券优惠金额
	RewardDiscount     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"reward_discount"`         // 积分奖励抵扣金额
	Total              Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total"`                   // 实付金额
	CouponID           *uint          `gorm:"index" json:"coupon_id,omitempty"`                                     // 优惠券ID
	CouponCode         string         `gorm:"type:varchar(64);not null;default:''" json:"coupon_code"`              // 优惠码
	RewardApplied      bool           `gorm:"not null;default:false" json:"reward_applied"`                         // 是否使用积分奖励
	PointsAccrued      bool           `gorm:"not null;default:false" json:"points_accrued"`                         // 积分是否已发放
	PaidAt             *time.Time     `gorm:"index" json:"paid_at"`                                                 // 支付时间
	DeliveredAt        *time.Time     `gorm:"index" json:"delivered_at"`                                            // 送达时间
	CancelledAt        *time.Time     `gorm:"index" json:"cancelled_at"`                                            // 取消时间
	CreatedAt          time.Time      `gorm:"index" json:"created_at"`                                              // 创建时间
	UpdatedAt          time.Time      `gorm:"index" json:"updated_at"`                                              // 更新时间
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`                                                       // 软删除时间

	Items         []OrderItem          `gorm:"foreignKey:OrderID" json:"items,omitempty"`          // 订单项
	StatusHistory []OrderStatusHistory `gorm:"foreignKey:OrderID" json:"status_history,omitempty"` // 状态历史
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

// OrderStatusHistory 订单状态历史（只追加）
type OrderStatusHistory struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	OrderID    uint      `gorm:"index;not null" json:"order_id"`
	FromStatus string    `gorm:"type:varchar(20);not null;default:''" json:"from_status"`
	Status     string    `gorm:"type:varchar(20);not null" json:"status"`
	OperatorID uint      `gorm:"not null;default:0" json:"operator_id"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (OrderStatusHistory) TableName() string {
	return "order_status_histories"
}
