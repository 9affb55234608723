package models

import (
	"time"

	"gorm.io/gorm"
)

// User 用户表（结算相关字段）
type User struct {
	ID                     uint           `gorm:"primarykey" json:"id"`                                                       // 主键
	Email                  string         `gorm:"uniqueIndex;not null" json:"email"`                                          // 邮箱
	DisplayName            string         `gorm:"default:''" json:"display_name"`                                             // 昵称
	Status                 string         `gorm:"default:'active'" json:"status"`                                             // 账号状态
	MembershipLevel        string         `gorm:"type:varchar(20);not null;default:'none'" json:"membership_level"`           // 会员等级
	MembershipPendingLevel string         `gorm:"type:varchar(20);not null;default:''" json:"membership_pending_level"`       // 待降级目标等级（空表示无）
	MembershipGraceUntil   *time.Time     `gorm:"index" json:"membership_grace_until,omitempty"`                              // 降级宽限截止时间
	Points                 int64          `gorm:"not null;default:0" json:"points"`                                           // 累计积分
	CreatedAt              time.Time      `gorm:"index" json:"created_at"`                                                    // 创建时间
	UpdatedAt              time.Time      `gorm:"index" json:"updated_at"`                                                    // 更新时间
	DeletedAt              gorm.DeletedAt `gorm:"index" json:"-"`                                                             // 软删除时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
