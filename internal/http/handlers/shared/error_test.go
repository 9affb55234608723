package shared

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/checkout-core/internal/http/response"
	"github.com/checkout-core/internal/service"

	"github.com/gin-gonic/gin"
)

func TestMapServiceError(t *testing.T) {
	cases := []struct {
		err    error
		code   int
		reason string
	}{
		{service.ErrInsufficientFunds, response.CodeUnprocessable, service.ReasonInsufficientFunds},
		{fmt.Errorf("%w: 3", service.ErrProductNotFound), response.CodeNotFound, service.ReasonProductNotFound},
		{service.ErrOrderTransitionInvalid, response.CodeUnprocessable, service.ReasonInvalidTransition},
		{&service.ConfigurationError{Field: "reward_threshold_points", Detail: "zero"}, response.CodeServiceUnavailable, service.ReasonConfiguration},
		{fmt.Errorf("db down"), response.CodeInternal, service.ReasonInternal},
	}
	for _, tc := range cases {
		got := MapServiceError(tc.err)
		if got.Code != tc.code || got.Reason != tc.reason {
			t.Fatalf("err=%v want code=%d reason=%s got code=%d reason=%s", tc.err, tc.code, tc.reason, got.Code, got.Reason)
		}
	}
}

func TestRespondServiceErrorEmptyBasket(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("POST", "/orders", nil)

	RespondServiceError(c, service.ErrEmptyBasket)

	var resp struct {
		StatusCode int                    `json:"status_code"`
		Data       map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if resp.StatusCode != response.CodeUnprocessable || resp.Data["reason"] != service.ReasonEmptyBasket {
		t.Fatalf("unexpected response: %s", w.Body.String())
	}
}

func TestMapServiceErrorCarriesCouponDetail(t *testing.T) {
	err := fmt.Errorf("checkout: %w", &service.CouponRejection{Code: "WELCOME10", Reason: service.ReasonCouponExpired})
	got := MapServiceError(err)
	if got.Code != response.CodeUnprocessable || got.Reason != service.ReasonCouponRejected {
		t.Fatalf("unexpected mapping: %+v", got)
	}
	if got.Extra["coupon_code"] != "WELCOME10" || got.Extra["coupon_reason"] != service.ReasonCouponExpired {
		t.Fatalf("unexpected extra: %+v", got.Extra)
	}
}
