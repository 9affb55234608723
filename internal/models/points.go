package models

import "time"

// PointsTransaction 积分流水
type PointsTransaction struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	OrderID   *uint     `gorm:"index" json:"order_id,omitempty"`
	Type      string    `gorm:"type:varchar(16);not null" json:"type"`
	Points    int64     `gorm:"not null" json:"points"`
	Reference string    `gorm:"type:varchar(128);uniqueIndex;not null" json:"reference"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (PointsTransaction) TableName() string {
	return "points_transactions"
}

// RewardToken 积分奖励券，每跨越一次积分门槛发放一张
type RewardToken struct {
	ID            uint       `gorm:"primarykey" json:"id"`
	UserID        uint       `gorm:"index;not null" json:"user_id"`
	SourceOrderID *uint      `gorm:"index" json:"source_order_id,omitempty"`
	Consumed      bool       `gorm:"index;not null;default:false" json:"consumed"`
	ConsumedAt    *time.Time `json:"consumed_at,omitempty"`
	OrderID       *uint      `gorm:"index" json:"order_id,omitempty"`
	CreatedAt     time.Time  `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (RewardToken) TableName() string {
	return "reward_tokens"
}
