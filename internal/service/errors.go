package service

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidOrderInput      = errors.New("invalid order input")
	ErrInvalidOrderItem       = errors.New("invalid order item")
	ErrInvalidCoordinates     = errors.New("invalid delivery coordinates")
	ErrPaymentMethodInvalid   = errors.New("invalid payment method")
	ErrPaymentStatusInvalid   = errors.New("invalid payment status")
	ErrOrderStatusInvalid     = errors.New("invalid order status")
	ErrEmptyBasket            = errors.New("basket is empty")
	ErrProductNotFound        = errors.New("product not found")
	ErrInsufficientFunds      = errors.New("insufficient wallet funds")
	ErrOrderNotFound          = errors.New("order not found")
	ErrOrderTransitionInvalid = errors.New("order status transition not allowed")
	ErrOrderCreateFailed      = errors.New("order create failed")
	ErrOrderUpdateFailed      = errors.New("order update failed")
	ErrUserNotFound           = errors.New("user not found")
	ErrUserDisabled           = errors.New("user disabled")
	ErrWalletInvalidAmount    = errors.New("invalid wallet amount")
	ErrWalletReferenceReused  = errors.New("wallet reference already used by another entry")
	ErrWalletConcurrentUpdate = errors.New("wallet changed concurrently")
	ErrCartItemInvalid        = errors.New("invalid cart item")
	ErrRewardUnavailable      = errors.New("reward token unavailable")
	ErrSettingsInvalid        = errors.New("invalid settlement settings")
	ErrConfiguration          = errors.New("settlement configuration error")
)

// 优惠券拒绝原因
var (
	ErrCouponRejected     = errors.New("coupon rejected")
	ErrCouponNotFound     = errors.New("coupon not found")
	ErrCouponExpired      = errors.New("coupon expired")
	ErrCouponForbidden    = errors.New("coupon not assigned to user")
	ErrCouponAlreadyUsed  = errors.New("coupon already used")
	ErrCouponLimitReached = errors.New("coupon usage limit reached")
)

// 优惠券配置校验
var (
	ErrCouponInvalid            = errors.New("coupon invalid")
	ErrCouponCodeRequired       = errors.New("coupon code required")
	ErrCouponCodeExists         = errors.New("coupon code exists")
	ErrCouponTypeInvalid        = errors.New("coupon type invalid")
	ErrCouponUsageTypeInvalid   = errors.New("coupon usage type invalid")
	ErrCouponPercentTooLarge    = errors.New("percent coupon value exceeds 100")
	ErrCouponValueInvalid       = errors.New("coupon value must be positive")
	ErrCouponDiscountConflict   = errors.New("free delivery coupon cannot carry a discount value")
	ErrCouponMaxUsesRequired    = errors.New("multiple use coupon requires max uses")
	ErrCouponAssignmentConflict = errors.New("coupon assignment sets are mutually exclusive")
)

// 原因码，对外稳定
const (
	ReasonInsufficientFunds  = "INSUFFICIENT_FUNDS"
	ReasonProductNotFound    = "PRODUCT_NOT_FOUND"
	ReasonEmptyBasket        = "EMPTY_BASKET"
	ReasonCouponRejected     = "COUPON_REJECTED"
	ReasonInvalidTransition  = "INVALID_TRANSITION"
	ReasonNotFound           = "NOT_FOUND"
	ReasonCouponExpired      = "EXPIRED"
	ReasonCouponForbidden    = "FORBIDDEN"
	ReasonCouponAlreadyUsed  = "ALREADY_USED"
	ReasonCouponLimitReached = "LIMIT_REACHED"
	ReasonValidation         = "VALIDATION_FAILED"
	ReasonConfiguration      = "CONFIGURATION_ERROR"
	ReasonInternal           = "INTERNAL_ERROR"
)

// 错误分类
const (
	ErrorKindValidation   = "validation"
	ErrorKindNotFound     = "not_found"
	ErrorKindBusinessRule = "business_rule"
	ErrorKindConfig       = "configuration"
	ErrorKindInternal     = "internal"
)

// CouponRejection 优惠券校验拒绝，同时匹配 ErrCouponRejected 与具体原因
type CouponRejection struct {
	Code   string
	Reason string
	cause  error
}

func newCouponRejection(code, reason string, cause error) *CouponRejection {
	return &CouponRejection{Code: code, Reason: reason, cause: cause}
}

func (e *CouponRejection) Error() string {
	return fmt.Sprintf("coupon %s rejected: %s", e.Code, e.Reason)
}

// Unwrap 返回拒绝链
func (e *CouponRejection) Unwrap() []error {
	return []error{ErrCouponRejected, e.cause}
}

// ConfigurationError 配置错误（例如除数为 0），不得被吞掉
type ConfigurationError struct {
	Field  string
	Detail string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s %s", e.Field, e.Detail)
}

// Unwrap 匹配 ErrConfiguration
func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

// CouponRejectionReason 提取优惠券拒绝原因码
func CouponRejectionReason(err error) (string, bool) {
	var rejection *CouponRejection
	if errors.As(err, &rejection) {
		return rejection.Reason, true
	}
	return "", false
}

// ErrorKind 返回错误分类
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return ErrorKindConfig
	case errors.Is(err, ErrInvalidOrderInput),
		errors.Is(err, ErrInvalidOrderItem),
		errors.Is(err, ErrInvalidCoordinates),
		errors.Is(err, ErrPaymentMethodInvalid),
		errors.Is(err, ErrPaymentStatusInvalid),
		errors.Is(err, ErrOrderStatusInvalid),
		errors.Is(err, ErrWalletInvalidAmount),
		errors.Is(err, ErrCartItemInvalid),
		errors.Is(err, ErrSettingsInvalid),
		errors.Is(err, ErrCouponCodeRequired),
		errors.Is(err, ErrCouponTypeInvalid),
		errors.Is(err, ErrCouponUsageTypeInvalid):
		return ErrorKindValidation
	case errors.Is(err, ErrOrderNotFound),
		errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrProductNotFound):
		return ErrorKindNotFound
	case errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrEmptyBasket),
		errors.Is(err, ErrCouponRejected),
		errors.Is(err, ErrOrderTransitionInvalid),
		errors.Is(err, ErrCouponInvalid),
		errors.Is(err, ErrCouponCodeExists),
		errors.Is(err, ErrWalletReferenceReused),
		errors.Is(err, ErrRewardUnavailable),
		errors.Is(err, ErrUserDisabled):
		return ErrorKindBusinessRule
	default:
		return ErrorKindInternal
	}
}

// ReasonCode 返回对外原因码
func ReasonCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInsufficientFunds):
		return ReasonInsufficientFunds
	case errors.Is(err, ErrProductNotFound):
		return ReasonProductNotFound
	case errors.Is(err, ErrEmptyBasket):
		return ReasonEmptyBasket
	case errors.Is(err, ErrCouponRejected):
		return ReasonCouponRejected
	case errors.Is(err, ErrOrderTransitionInvalid):
		return ReasonInvalidTransition
	}
	switch ErrorKind(err) {
	case ErrorKindNotFound:
		return ReasonNotFound
	case ErrorKindValidation:
		return ReasonValidation
	case ErrorKindConfig:
		return ReasonConfiguration
	case ErrorKindBusinessRule:
		return ReasonValidation
	default:
		return ReasonInternal
	}
}
