package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/checkout-core/internal/constants"
	"github.com/checkout-core/internal/models"
	"github.com/checkout-core/internal/repository"

	"github.com/shopspring/decimal"
)

// CouponAdminService 优惠券管理服务
type CouponAdminService struct {
	couponRepo repository.CouponRepository
}

// NewCouponAdminService 创建优惠券管理服务
func NewCouponAdminService(couponRepo repository.CouponRepository) *CouponAdminService {
	return &CouponAdminService{couponRepo: couponRepo}
}

// CreateCouponInput 创建/更新优惠券输入
type CreateCouponInput struct {
	Code               string
	Type               string
	Value              decimal.Decimal
	FreeDelivery       bool
	UsageType          string
	MaxUses            int
	LimitScope         string
	AssignedUserIDs    []uint
	AssignedProductIDs []uint
	AssignedLevels     []string
	ExpiresAt          *time.Time
	IsActive           *bool
}

// Create 创建优惠券
func (s *CouponAdminService) Create(input CreateCouponInput) (*models.Coupon, error) {
	normalized, err := normalizeCouponInput(input)
	if err != nil {
		return nil, err
	}
	existing, err := s.couponRepo.GetByCode(normalized.Code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrCouponCodeExists
	}

	coupon := &models.Coupon{IsActive: true}
	applyCouponInput(coupon, normalized)
	if err := s.couponRepo.Create(coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

// Update 更新优惠券
func (s *CouponAdminService) Update(id uint, input CreateCouponInput) (*models.Coupon, error) {
	coupon, err := s.couponRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, newCouponRejection(NormalizeCouponCode(input.Code), ReasonNotFound, ErrCouponNotFound)
	}
	normalized, err := normalizeCouponInput(input)
	if err != nil {
		return nil, err
	}
	if normalized.Code != coupon.Code {
		existing, err := s.couponRepo.GetByCode(normalized.Code)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != coupon.ID {
			return nil, ErrCouponCodeExists
		}
	}
	applyCouponInput(coupon, normalized)
	if err := s.couponRepo.Update(coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

// List 优惠券列表
func (s *CouponAdminService) List(filter repository.CouponListFilter) ([]models.Coupon, int64, error) {
	filter.Code = NormalizeCouponCode(filter.Code)
	return s.couponRepo.List(filter)
}

func applyCouponInput(coupon *models.Coupon, input CreateCouponInput) {
	coupon.Code = input.Code
	coupon.Type = input.Type
	coupon.Value = models.NewMoneyFromDecimal(input.Value)
	coupon.FreeDelivery = input.FreeDelivery
	coupon.UsageType = input.UsageType
	coupon.MaxUses = input.MaxUses
	coupon.LimitScope = input.LimitScope
	coupon.AssignedUserIDs = models.UintArray(input.AssignedUserIDs)
	coupon.AssignedProductIDs = models.UintArray(input.AssignedProductIDs)
	coupon.AssignedLevels = models.StringArray(input.AssignedLevels)
	coupon.ExpiresAt = input.ExpiresAt
	if input.IsActive != nil {
		coupon.IsActive = *input.IsActive
	}
}

// normalizeCouponInput 规范化并校验优惠券配置
func normalizeCouponInput(input CreateCouponInput) (CreateCouponInput, error) {
	input.Code = NormalizeCouponCode(input.Code)
	if input.Code == "" {
		return input, ErrCouponCodeRequired
	}
	input.Type = strings.ToLower(strings.TrimSpace(input.Type))
	if input.Type == "" {
		input.Type = constants.CouponTypeFixed
	}
	if input.Type != constants.CouponTypeFixed && input.Type != constants.CouponTypePercent {
		return input, ErrCouponTypeInvalid
	}
	input.UsageType = strings.ToLower(strings.TrimSpace(input.UsageType))
	if input.UsageType == "" {
		input.UsageType = constants.CouponUsageMultiple
	}
	if input.UsageType != constants.CouponUsageSingle && input.UsageType != constants.CouponUsageMultiple {
		return input, ErrCouponUsageTypeInvalid
	}
	input.LimitScope = strings.ToLower(strings.TrimSpace(input.LimitScope))
	if input.LimitScope != constants.CouponLimitScopeGlobal {
		input.LimitScope = constants.CouponLimitScopeUser
	}
	input.Value = input.Value.Round(2)

	if input.Type == constants.CouponTypePercent && input.Value.GreaterThan(decimal.NewFromInt(100)) {
		return input, fmt.Errorf("%w: %w", ErrCouponInvalid, ErrCouponPercentTooLarge)
	}
	if input.FreeDelivery {
		if !input.Value.IsZero() {
			return input, fmt.Errorf("%w: %w", ErrCouponInvalid, ErrCouponDiscountConflict)
		}
	} else if !input.Value.IsPositive() {
		return input, fmt.Errorf("%w: %w", ErrCouponInvalid, ErrCouponValueInvalid)
	}
	if input.UsageType == constants.CouponUsageMultiple && input.MaxUses <= 0 {
		return input, fmt.Errorf("%w: %w", ErrCouponInvalid, ErrCouponMaxUsesRequired)
	}
	if input.UsageType == constants.CouponUsageSingle {
		input.MaxUses = 1
	}

	input.AssignedUserIDs = dedupeUintIDs(input.AssignedUserIDs)
	input.AssignedProductIDs = dedupeUintIDs(input.AssignedProductIDs)
	levels := make([]string, 0, len(input.AssignedLevels))
	seen := make(map[string]struct{}, len(input.AssignedLevels))
	for _, level := range input.AssignedLevels {
		normalized := normalizeMembershipLevel(level)
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		levels = append(levels, normalized)
	}
	input.AssignedLevels = levels

	nonEmpty := 0
	for _, size := range []int{len(input.AssignedUserIDs), len(input.AssignedProductIDs), len(input.AssignedLevels)} {
		if size > 0 {
			nonEmpty++
		}
	}
	if nonEmpty > 1 {
		return input, fmt.Errorf("%w: %w", ErrCouponInvalid, ErrCouponAssignmentConflict)
	}
	return input, nil
}

func dedupeUintIDs(ids []uint) []uint {
	if len(ids) == 0 {
		return []uint{}
	}
	seen := make(map[uint]struct{}, len(ids))
	result := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
