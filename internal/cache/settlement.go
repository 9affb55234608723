package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/checkout-core/internal/models"
)

const (
	settlementSettingsKey = "settings:settlement"
	userStatusCacheTTL    = 10 * time.Minute
)

// UserStatusState 用户状态快照，供鉴权中间件减少数据库查询
type UserStatusState struct {
	UserID    uint   `json:"user_id"`
	Status    string `json:"status"`
	UpdatedAt int64  `json:"updated_at"`
}

func userStatusKey(userID uint) string {
	return fmt.Sprintf("auth:user:%d", userID)
}

// GetSettlementSettings 读取结算配置快照
func GetSettlementSettings(ctx context.Context, dest interface{}) (bool, error) {
	return GetJSON(ctx, settlementSettingsKey, dest)
}

// SetSettlementSettings 写入结算配置快照
func SetSettlementSettings(ctx context.Context, value interface{}, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return SetJSON(ctx, settlementSettingsKey, value, ttl)
}

// InvalidateSettlementSettings 删除结算配置快照
func InvalidateSettlementSettings(ctx context.Context) error {
	return Del(ctx, settlementSettingsKey)
}

// BuildUserStatusState 从用户模型构建状态快照
func BuildUserStatusState(user *models.User) *UserStatusState {
	if user == nil {
		return nil
	}
	return &UserStatusState{
		UserID:    user.ID,
		Status:    user.Status,
		UpdatedAt: time.Now().Unix(),
	}
}

// GetUserStatus 读取用户状态快照
func GetUserStatus(ctx context.Context, userID uint) (*UserStatusState, bool, error) {
	if userID == 0 {
		return nil, false, nil
	}
	var state UserStatusState
	hit, err := GetJSON(ctx, userStatusKey(userID), &state)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &state, true, nil
}

// SetUserStatus 写入用户状态快照
func SetUserStatus(ctx context.Context, state *UserStatusState) error {
	if state == nil || state.UserID == 0 {
		return nil
	}
	return SetJSON(ctx, userStatusKey(state.UserID), state, userStatusCacheTTL)
}
