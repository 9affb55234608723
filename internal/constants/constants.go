package constants

// 订单状态常量
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipping   = "shipping"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// 订单支付方式常量
const (
	PaymentMethodWallet = "wallet"
	PaymentMethodCash   = "cash"
	PaymentMethodCard   = "card"
)

// 订单支付状态常量
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusRefunded = "refunded"
)

// 钱包交易来源常量
const (
	WalletSourceTopUp       = "top_up"
	WalletSourceOrderPay    = "order_pay"
	WalletSourceOrderRefund = "order_refund"
	WalletSourceAdminAdjust = "admin_adjust"
)

// 钱包交易方向常量
const (
	WalletDirectionCredit = "credit"
	WalletDirectionDebit  = "debit"
)

// 会员等级常量（按门槛升序）
const (
	MembershipNone     = "none"
	MembershipSilver   = "silver"
	MembershipGold     = "gold"
	MembershipPlatinum = "platinum"
	MembershipDiamond  = "diamond"
)

// 积分流水类型常量
const (
	PointsTxnTypeEarn   = "earn"
	PointsTxnTypeRedeem = "redeem"
)

// 优惠券类型常量
const (
	CouponTypeFixed   = "fixed"
	CouponTypePercent = "percent"
)

// 优惠券使用类型常量
const (
	CouponUsageSingle   = "single"
	CouponUsageMultiple = "multiple"
)

// 优惠券次数统计范围
const (
	CouponLimitScopeUser   = "user"
	CouponLimitScopeGlobal = "global"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 审计动作常量
const (
	AuditActionOrderPlaced        = "order_placed"
	AuditActionOrderStatusChanged = "order_status_changed"
	AuditActionWalletTopUp        = "wallet_top_up"
	AuditActionCouponCreated      = "coupon_created"
	AuditActionCouponUpdated      = "coupon_updated"
	AuditActionSettingsUpdated    = "settings_updated"
)

// 设置键常量
const (
	SettingKeySettlementConfig = "settlement_config"
)

// 队列常量
const (
	QueueDefault         = "default"
	TaskAuditRecord      = "audit:record"
	TaskAuditRecordRetry = 3
)
