package response

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestErrorWithReasonAttachesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(RequestIDKey, "req-9")

	ErrorWithReason(c, CodeUnprocessable, "INSUFFICIENT_FUNDS", "insufficient funds", gin.H{"order_id": 3})

	var resp struct {
		StatusCode int                    `json:"status_code"`
		Msg        string                 `json:"msg"`
		Data       map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if resp.StatusCode != CodeUnprocessable || resp.Data["reason"] != "INSUFFICIENT_FUNDS" || resp.Data[RequestIDKey] != "req-9" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 20, 41)
	if p.TotalPage != 3 || p.Page != 2 {
		t.Fatalf("unexpected pagination: %+v", p)
	}
	if NewPagination(1, 0, 5).TotalPage != 0 {
		t.Fatalf("zero page size must not divide")
	}
}
