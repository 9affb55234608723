package service

import (
	"errors"
	"testing"

	"github.com/checkout-core/internal/constants"
	"github.com/checkout-core/internal/repository"

	"github.com/shopspring/decimal"
)

func TestCouponAdminCreateValidation(t *testing.T) {
	f := setupSettlementTest(t, "coupon_admin_validation")

	cases := []struct {
		name  string
		input CreateCouponInput
		want  error
	}{
		{"missing code", CreateCouponInput{Value: decimal.NewFromInt(10), MaxUses: 1}, ErrCouponCodeRequired},
		{"bad type", CreateCouponInput{Code: "A", Type: "bogus", Value: decimal.NewFromInt(10), MaxUses: 1}, ErrCouponTypeInvalid},
		{"percent over 100", CreateCouponInput{Code: "B", Type: constants.CouponTypePercent, Value: decimal.NewFromInt(101), MaxUses: 1}, ErrCouponPercentTooLarge},
		{"free delivery with value", CreateCouponInput{Code: "C", FreeDelivery: true, Value: decimal.NewFromInt(5), MaxUses: 1}, ErrCouponDiscountConflict},
		{"zero value", CreateCouponInput{Code: "D", MaxUses: 1}, ErrCouponValueInvalid},
		{"multiple without cap", CreateCouponInput{Code: "E", Value: decimal.NewFromInt(10)}, ErrCouponMaxUsesRequired},
		{"assignment conflict", CreateCouponInput{
			Code:               "F",
			Value:              decimal.NewFromInt(10),
			MaxUses:            1,
			AssignedUserIDs:    []uint{1},
			AssignedProductIDs: []uint{2},
		}, ErrCouponAssignmentConflict},
	}
	for _, tc := range cases {
		_, err := f.couponAdmin.Create(tc.input)
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestCouponAdminCreateAndUpdate(t *testing.T) {
	f := setupSettlementTest(t, "coupon_admin_crud")

	coupon, err := f.couponAdmin.Create(CreateCouponInput{
		Code:      " summer ",
		Type:      constants.CouponTypePercent,
		Value:     decimal.NewFromInt(20),
		UsageType: constants.CouponUsageSingle,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if coupon.Code != "SUMMER" || coupon.MaxUses != 1 || !coupon.IsActive {
		t.Fatalf("unexpected coupon: %+v", coupon)
	}

	if _, err := f.couponAdmin.Create(CreateCouponInput{Code: "Summer", Value: decimal.NewFromInt(5), MaxUses: 1}); !errors.Is(err, ErrCouponCodeExists) {
		t.Fatalf("expected ErrCouponCodeExists, got %v", err)
	}

	inactive := false
	updated, err := f.couponAdmin.Update(coupon.ID, CreateCouponInput{
		Code:         "SUMMER",
		FreeDelivery: true,
		MaxUses:      3,
		IsActive:     &inactive,
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if !updated.FreeDelivery || updated.IsActive || !updated.Value.Decimal.IsZero() {
		t.Fatalf("unexpected updated coupon: %+v", updated)
	}

	items, total, err := f.couponAdmin.List(repository.CouponListFilter{Code: "summer", Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Fatalf("expected 1 coupon, got %d", total)
	}
}
