package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/checkout-core/internal/constants"
	"github.com/checkout-core/internal/models"
	"github.com/checkout-core/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CouponService 优惠券校验与核销服务
type CouponService struct {
	couponRepo     repository.CouponRepository
	redemptionRepo repository.CouponRedemptionRepository
	userRepo       repository.UserRepository
}

// CouponCheckInput 优惠券校验输入
type CouponCheckInput struct {
	Code        string
	UserID      uint
	Subtotal    decimal.Decimal
	DeliveryFee decimal.Decimal
	ProductIDs  []uint
}

// DiscountQuote 优惠报价
type DiscountQuote struct {
	CouponID      uint         `json:"coupon_id"`
	Code          string       `json:"code"`
	Discount      models.Money `json:"discount"`
	DiscountType  string       `json:"discount_type"`
	DiscountValue models.Money `json:"discount_value"`
	FreeDelivery  bool         `json:"free_delivery"`
}

// NewCouponService 创建优惠券服务
func NewCouponService(
	couponRepo repository.CouponRepository,
	redemptionRepo repository.CouponRedemptionRepository,
	userRepo repository.UserRepository,
) *CouponService {
	return &CouponService{
		couponRepo:     couponRepo,
		redemptionRepo: redemptionRepo,
		userRepo:       userRepo,
	}
}

// NormalizeCouponCode 优惠码统一大写
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate 校验优惠码并给出优惠报价（只读）
func (s *CouponService) Validate(input CouponCheckInput) (*DiscountQuote, error) {
	user, err := s.userRepo.GetByID(input.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	_, quote, err := s.check(s.couponRepo, s.redemptionRepo, user, input, false, time.Now())
	return quote, err
}

// checkTx 事务内加锁校验，供下单使用
func (s *CouponService) checkTx(tx *gorm.DB, user *models.User, input CouponCheckInput, now time.Time) (*models.Coupon, *DiscountQuote, error) {
	return s.check(s.couponRepo.WithTx(tx), s.redemptionRepo.WithTx(tx), user, input, true, now)
}

func (s *CouponService) check(
	couponRepo repository.CouponRepository,
	redemptionRepo repository.CouponRedemptionRepository,
	user *models.User,
	input CouponCheckInput,
	lock bool,
	now time.Time,
) (*models.Coupon, *DiscountQuote, error) {
	code := NormalizeCouponCode(input.Code)
	if code == "" {
		return nil, nil, newCouponRejection(code, ReasonNotFound, ErrCouponNotFound)
	}

	var coupon *models.Coupon
	var err error
	if lock {
		coupon, err = couponRepo.GetByCodeForUpdate(code)
	} else {
		coupon, err = couponRepo.GetByCode(code)
	}
	if err != nil {
		return nil, nil, err
	}
	if coupon == nil || !coupon.IsActive {
		return nil, nil, newCouponRejection(code, ReasonNotFound, ErrCouponNotFound)
	}
	if coupon.ExpiresAt != nil && now.After(*coupon.ExpiresAt) {
		return nil, nil, newCouponRejection(code, ReasonCouponExpired, ErrCouponExpired)
	}
	if !couponAssignedTo(coupon, user, input.ProductIDs) {
		return nil, nil, newCouponRejection(code, ReasonCouponForbidden, ErrCouponForbidden)
	}

	switch strings.ToLower(coupon.UsageType) {
	case constants.CouponUsageSingle:
		used, err := redemptionRepo.CountByUser(coupon.ID, user.ID)
		if err != nil {
			return nil, nil, err
		}
		if used > 0 {
			return nil, nil, newCouponRejection(code, ReasonCouponAlreadyUsed, ErrCouponAlreadyUsed)
		}
	default:
		if coupon.MaxUses > 0 {
			var used int64
			if strings.ToLower(coupon.LimitScope) == constants.CouponLimitScopeGlobal {
				used, err = redemptionRepo.CountByCoupon(coupon.ID)
			} else {
				used, err = redemptionRepo.CountByUser(coupon.ID, user.ID)
			}
			if err != nil {
				return nil, nil, err
			}
			if used >= int64(coupon.MaxUses) {
				return nil, nil, newCouponRejection(code, ReasonCouponLimitReached, ErrCouponLimitReached)
			}
		}
	}

	discount := calculateCouponDiscount(coupon, input.Subtotal, input.DeliveryFee)
	return coupon, &DiscountQuote{
		CouponID:      coupon.ID,
		Code:          coupon.Code,
		Discount:      models.NewMoneyFromDecimal(discount),
		DiscountType:  coupon.Type,
		DiscountValue: coupon.Value,
		FreeDelivery:  coupon.FreeDelivery,
	}, nil
}

// redeemTx 写入核销记录并累加展示计数
func (s *CouponService) redeemTx(tx *gorm.DB, coupon *models.Coupon, userID, orderID uint, discount decimal.Decimal, now time.Time) error {
	redemption := &models.CouponRedemption{
		CouponID:       coupon.ID,
		UserID:         userID,
		OrderID:        orderID,
		DiscountAmount: models.NewMoneyFromDecimal(discount),
		CreatedAt:      now,
	}
	if strings.ToLower(coupon.UsageType) == constants.CouponUsageSingle {
		key := fmt.Sprintf("%d:%d", coupon.ID, userID)
		redemption.SingleUseKey = &key
	}
	created, err := s.redemptionRepo.WithTx(tx).Create(redemption)
	if err != nil {
		return err
	}
	if !created {
		return newCouponRejection(coupon.Code, ReasonCouponAlreadyUsed, ErrCouponAlreadyUsed)
	}
	return s.couponRepo.WithTx(tx).IncrementUsedCount(coupon.ID, 1)
}

// releaseTx 订单取消时释放核销记录，记录保留但不再计入使用次数
func (s *CouponService) releaseTx(tx *gorm.DB, orderID uint, now time.Time) error {
	redemptionRepo := s.redemptionRepo.WithTx(tx)
	redemption, err := redemptionRepo.GetByOrderID(orderID)
	if err != nil || redemption == nil || redemption.ReleasedAt != nil {
		return err
	}
	released, err := redemptionRepo.MarkReleasedByOrderID(orderID, now)
	if err != nil || released == 0 {
		return err
	}
	return s.couponRepo.WithTx(tx).DecrementUsedCount(redemption.CouponID, 1)
}

func couponAssignedTo(coupon *models.Coupon, user *models.User, productIDs []uint) bool {
	switch {
	case len(coupon.AssignedUserIDs) > 0:
		return coupon.AssignedUserIDs.Contains(user.ID)
	case len(coupon.AssignedProductIDs) > 0:
		for _, id := range productIDs {
			if coupon.AssignedProductIDs.Contains(id) {
				return true
			}
		}
		return false
	case len(coupon.AssignedLevels) > 0:
		level := normalizeMembershipLevel(user.MembershipLevel)
		for _, item := range coupon.AssignedLevels {
			if normalizeMembershipLevel(item) == level {
				return true
			}
		}
		return false
	default:
		return true
	}
}

// calculateCouponDiscount 计算优惠金额，结果限制在 [0, 小计+配送费]
func calculateCouponDiscount(coupon *models.Coupon, subtotal, deliveryFee decimal.Decimal) decimal.Decimal {
	if coupon == nil || coupon.FreeDelivery {
		return decimal.Zero
	}
	var raw decimal.Decimal
	switch strings.ToLower(coupon.Type) {
	case constants.CouponTypePercent:
		raw = subtotal.Mul(coupon.Value.Decimal).Div(decimal.NewFromInt(100))
	default:
		raw = coupon.Value.Decimal
	}
	return clampDiscount(raw.Round(2), subtotal.Add(deliveryFee))
}
