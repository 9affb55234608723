package models

import "time"

// WalletAccount 用户钱包账户（与用户一对一）
type WalletAccount struct {
	ID        uint      `gorm:"primarykey" json:"id"`                                   // 主键
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`                    // 用户ID
	Balance   Money     `gorm:"type:decimal(20,2);not null;default:0" json:"balance"`   // 当前余额
	Version   int64     `gorm:"not null;default:0" json:"-"`                            // 变更版本号
	CreatedAt time.Time `gorm:"index" json:"created_at"`                                // 创建时间
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`                                // 更新时间
}

// TableName 指定表名
func (WalletAccount) TableName() string {
	return "wallet_accounts"
}

// WalletTransaction 钱包流水（只追加，不修改）
type WalletTransaction struct {
	ID            uint      `gorm:"primarykey" json:"id"`                                        // 主键
	UserID        uint      `gorm:"index;not null" json:"user_id"`                               // 用户ID
	OrderID       *uint     `gorm:"index" json:"order_id,omitempty"`                             // 关联订单ID
	Source        string    `gorm:"type:varchar(32);index;not null" json:"source"`               // 来源标签
	Direction     string    `gorm:"type:varchar(16);not null" json:"direction"`                  // 方向 credit/debit
	Amount        Money     `gorm:"type:decimal(20,2);not null" json:"amount"`                   // 带符号金额
	BalanceBefore Money     `gorm:"type:decimal(20,2);not null" json:"balance_before"`           // 变更前余额
	BalanceAfter  Money     `gorm:"type:decimal(20,2);not null" json:"balance_after"`            // 变更后余额
	Reference     string    `gorm:"type:varchar(128);uniqueIndex;not null" json:"reference"`     // 幂等引用
	Remark        string    `gorm:"type:varchar(255);not null;default:''" json:"remark"`         // 备注
	CreatedAt     time.Time `gorm:"index" json:"created_at"`                                     // 创建时间
}

// TableName 指定表名
func (WalletTransaction) TableName() string {
	return "wallet_transactions"
}
