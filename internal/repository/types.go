package repository

import "time"

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Status      string
	OrderNo     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// WalletTransactionListFilter 钱包流水查询条件
type WalletTransactionListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	OrderID     uint
	Source      string
	Direction   string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// PointsTransactionListFilter 积分流水查询条件
type PointsTransactionListFilter struct {
	Page     int
	PageSize int
	UserID   uint
	Type     string
}

// AuditLogListFilter 审计日志查询条件
type AuditLogListFilter struct {
	Page     int
	PageSize int
	UserID   uint
	Action   string
}
