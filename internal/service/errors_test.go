package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReasonCodeAndKind(t *testing.T) {
	cases := []struct {
		err    error
		reason string
		kind   string
	}{
		{ErrInsufficientFunds, ReasonInsufficientFunds, ErrorKindBusinessRule},
		{fmt.Errorf("%w: 7", ErrProductNotFound), ReasonProductNotFound, ErrorKindNotFound},
		{ErrEmptyBasket, ReasonEmptyBasket, ErrorKindBusinessRule},
		{newCouponRejection("X", ReasonCouponExpired, ErrCouponExpired), ReasonCouponRejected, ErrorKindBusinessRule},
		{ErrOrderTransitionInvalid, ReasonInvalidTransition, ErrorKindBusinessRule},
		{ErrOrderNotFound, ReasonNotFound, ErrorKindNotFound},
		{ErrPaymentMethodInvalid, ReasonValidation, ErrorKindValidation},
		{&ConfigurationError{Field: "points_per_amount", Detail: "zero"}, ReasonConfiguration, ErrorKindConfig},
		{errors.New("boom"), ReasonInternal, ErrorKindInternal},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.reason, ReasonCode(tc.err), "err=%v", tc.err)
		assert.Equal(t, tc.kind, ErrorKind(tc.err), "err=%v", tc.err)
	}
	assert.Empty(t, ReasonCode(nil))
}

func TestCouponRejectionUnwrap(t *testing.T) {
	err := fmt.Errorf("checkout: %w", newCouponRejection("WELCOME", ReasonCouponAlreadyUsed, ErrCouponAlreadyUsed))
	assert.ErrorIs(t, err, ErrCouponRejected)
	assert.ErrorIs(t, err, ErrCouponAlreadyUsed)
	reason, ok := CouponRejectionReason(err)
	assert.True(t, ok)
	assert.Equal(t, ReasonCouponAlreadyUsed, reason)
}
