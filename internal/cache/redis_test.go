package cache

import (
	"context"
	"testing"

	"github.com/checkout-core/internal/config"
	"github.com/checkout-core/internal/models"
)

func TestDisabledCacheIsNoop(t *testing.T) {
	if err := InitRedis(&config.RedisConfig{Enabled: false}); err != nil {
		t.Fatalf("disabled init should not fail: %v", err)
	}
	if Enabled() || Client() != nil {
		t.Fatalf("cache should be disabled")
	}
	ctx := context.Background()
	if err := SetJSON(ctx, "k", map[string]int{"a": 1}, 0); err != nil {
		t.Fatalf("set on disabled cache should be noop: %v", err)
	}
	var dest map[string]int
	hit, err := GetJSON(ctx, "k", &dest)
	if err != nil || hit {
		t.Fatalf("get on disabled cache want miss got hit=%v err=%v", hit, err)
	}
	state, hit, err := GetUserStatus(ctx, 1)
	if err != nil || hit || state != nil {
		t.Fatalf("user status on disabled cache want miss got %+v %v %v", state, hit, err)
	}
	if err := Del(ctx, "k", "j"); err != nil {
		t.Fatalf("del on disabled cache should be noop: %v", err)
	}
}

func TestBuildKeyAndUserStatusState(t *testing.T) {
	if got := buildKey(" auth:user:1 "); got != redisPrefix+":auth:user:1" {
		t.Fatalf("unexpected key: %s", got)
	}
	if got := buildKey(""); got != redisPrefix {
		t.Fatalf("empty key should map to prefix, got %s", got)
	}
	if BuildUserStatusState(nil) != nil {
		t.Fatalf("nil user should produce nil state")
	}
	state := BuildUserStatusState(&models.User{ID: 3, Status: "disabled"})
	if state.UserID != 3 || state.Status != "disabled" || state.UpdatedAt == 0 {
		t.Fatalf("unexpected state: %+v", state)
	}
}
