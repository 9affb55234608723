package public

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	handlershared "github.com/checkout-core/internal/http/handlers/shared"
	"github.com/checkout-core/internal/http/response"
	"github.com/checkout-core/internal/provider"

	"github.com/gin-gonic/gin"
)

func TestCreateOrderRejectsMissingCoordinates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := New(&provider.Container{})

	bodies := []string{
		`{"payment_method":"cash","items":[{"product_id":1,"quantity":1}]}`,
		`{"payment_method":"cash","latitude":10.5,"items":[{"product_id":1,"quantity":1}]}`,
		`{"payment_method":"cash","longitude":106.7,"items":[{"product_id":1,"quantity":1}]}`,
	}
	for _, body := range bodies {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("POST", "/api/v1/orders", strings.NewReader(body))
		c.Request.Header.Set("Content-Type", "application/json")
		c.Set(handlershared.ContextKeyUserID, uint(1))

		h.CreateOrder(c)

		var resp struct {
			StatusCode int `json:"status_code"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if resp.StatusCode != response.CodeBadRequest {
			t.Fatalf("body=%s expected %d, got %s", body, response.CodeBadRequest, w.Body.String())
		}
	}
}

func TestCheckoutRequestKeepsZeroCoordinates(t *testing.T) {
	var req CheckoutRequest
	if err := json.Unmarshal([]byte(`{"payment_method":"wallet","latitude":0,"longitude":106.7}`), &req); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if req.Latitude == nil || req.Longitude == nil {
		t.Fatalf("expected explicit coordinates to be present: %+v", req)
	}
	input := req.toInput(3)
	if input.UserID != 3 || input.Latitude != 0 || input.Longitude != 106.7 {
		t.Fatalf("unexpected input: %+v", input)
	}
}
