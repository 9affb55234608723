package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/checkout-core/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func TestKeyByUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil)
	c.Request.RemoteAddr = "1.2.3.4:5678"

	if key := KeyByUserID(c); key != "1.2.3.4" {
		t.Fatalf("anonymous key want client ip got %s", key)
	}
	c.Set(shared.ContextKeyUserID, uint(42))
	if key := KeyByUserID(c); key != "user:42" {
		t.Fatalf("key want user:42 got %s", key)
	}
}

func TestRateLimitMiddlewareWithoutClient(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RateLimitMiddleware(nil, RateLimitRule{WindowSeconds: 60, MaxRequests: 1}, KeyByIP))
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok":true`) {
			t.Fatalf("request %d should pass through, got %d %s", i, w.Code, w.Body.String())
		}
	}
}

func TestToInt64(t *testing.T) {
	cases := []struct {
		input interface{}
		want  int64
		ok    bool
	}{
		{int64(5), 5, true},
		{int(7), 7, true},
		{uint32(9), 9, true},
		{float64(3.9), 3, true},
		{"10", 0, false},
		{nil, 0, false},
	}
	for _, tc := range cases {
		got, ok := toInt64(tc.input)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("toInt64(%v) = %d,%v want %d,%v", tc.input, got, ok, tc.want, tc.ok)
		}
	}
}
