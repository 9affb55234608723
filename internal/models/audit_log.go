package models

import "time"

// AuditLog 业务审计日志
// 说明：下单、状态流转、充值等操作的留痕记录，写入失败不影响主流程。
type AuditLog struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	UserID       *uint     `gorm:"index" json:"user_id,omitempty"`
	Action       string    `gorm:"type:varchar(100);index;not null" json:"action"`
	RequestID    string    `gorm:"type:varchar(64);index;not null;default:''" json:"request_id"`
	MetadataJSON JSON      `gorm:"type:json" json:"metadata"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (AuditLog) TableName() string {
	return "audit_logs"
}
