package service

import (
	"strings"
	"time"

	"github.com/checkout-core/internal/constants"
	"github.com/checkout-core/internal/logger"
	"github.com/checkout-core/internal/models"
	"github.com/checkout-core/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var membershipLevels = []string{
	constants.MembershipNone,
	constants.MembershipSilver,
	constants.MembershipGold,
	constants.MembershipPlatinum,
	constants.MembershipDiamond,
}

// MembershipThresholds 各会员等级的钱包余额门槛
type MembershipThresholds struct {
	Silver   models.Money `json:"silver"`
	Gold     models.Money `json:"gold"`
	Platinum models.Money `json:"platinum"`
	Diamond  models.Money `json:"diamond"`
}

// LevelFor 返回余额可达到的最高等级
func (t MembershipThresholds) LevelFor(balance decimal.Decimal) string {
	switch {
	case balance.GreaterThanOrEqual(t.Diamond.Decimal):
		return constants.MembershipDiamond
	case balance.GreaterThanOrEqual(t.Platinum.Decimal):
		return constants.MembershipPlatinum
	case balance.GreaterThanOrEqual(t.Gold.Decimal):
		return constants.MembershipGold
	case balance.GreaterThanOrEqual(t.Silver.Decimal):
		return constants.MembershipSilver
	default:
		return constants.MembershipNone
	}
}

func (t MembershipThresholds) ascending() bool {
	values := []decimal.Decimal{t.Silver.Decimal, t.Gold.Decimal, t.Platinum.Decimal, t.Diamond.Decimal}
	for i, v := range values {
		if !v.IsPositive() {
			return false
		}
		if i > 0 && v.LessThan(values[i-1]) {
			return false
		}
	}
	return true
}

// MembershipPolicy 会员状态机参数
type MembershipPolicy struct {
	Thresholds MembershipThresholds
	GraceDays  int
}

// PendingDowngrade 待生效的降级
type PendingDowngrade struct {
	Target   string    `json:"target"`
	Deadline time.Time `json:"deadline"`
}

// MembershipState 会员状态：当前等级 + 可选的待降级
type MembershipState struct {
	Level   string            `json:"level"`
	Pending *PendingDowngrade `json:"pending_downgrade,omitempty"`
}

func membershipRank(level string) int {
	normalized := strings.ToLower(strings.TrimSpace(level))
	for i, item := range membershipLevels {
		if item == normalized {
			return i
		}
	}
	return 0
}

func normalizeMembershipLevel(level string) string {
	return membershipLevels[membershipRank(level)]
}

// NextMembershipState 会员等级状态转移
// 升级立即生效；降级先进入宽限期，宽限截止时间只设置一次，到期后才降到当时的目标等级；
// 宽限期内余额回升到当前等级则撤销降级。
func NextMembershipState(current MembershipState, balance decimal.Decimal, policy MembershipPolicy, now time.Time) MembershipState {
	level := normalizeMembershipLevel(current.Level)
	target := policy.Thresholds.LevelFor(balance)

	currentRank := membershipRank(level)
	targetRank := membershipRank(target)
	if targetRank >= currentRank {
		return MembershipState{Level: target}
	}

	if policy.GraceDays <= 0 {
		return MembershipState{Level: target}
	}
	deadline := now.Add(time.Duration(policy.GraceDays) * 24 * time.Hour)
	if current.Pending != nil && !current.Pending.Deadline.IsZero() {
		deadline = current.Pending.Deadline
	}
	if !now.Before(deadline) {
		return MembershipState{Level: target}
	}
	return MembershipState{
		Level:   level,
		Pending: &PendingDowngrade{Target: target, Deadline: deadline},
	}
}

// MembershipStateOf 从用户记录还原会员状态
func MembershipStateOf(user *models.User) MembershipState {
	if user == nil {
		return MembershipState{Level: constants.MembershipNone}
	}
	state := MembershipState{Level: normalizeMembershipLevel(user.MembershipLevel)}
	if user.MembershipGraceUntil != nil && strings.TrimSpace(user.MembershipPendingLevel) != "" {
		state.Pending = &PendingDowngrade{
			Target:   normalizeMembershipLevel(user.MembershipPendingLevel),
			Deadline: *user.MembershipGraceUntil,
		}
	}
	return state
}

func sameMembershipState(a, b MembershipState) bool {
	if a.Level != b.Level {
		return false
	}
	if (a.Pending == nil) != (b.Pending == nil) {
		return false
	}
	if a.Pending == nil {
		return true
	}
	return a.Pending.Target == b.Pending.Target && a.Pending.Deadline.Equal(b.Pending.Deadline)
}

// MembershipChange 一次会员评估的结果
type MembershipChange struct {
	UserID   uint            `json:"user_id"`
	Previous MembershipState `json:"previous"`
	Current  MembershipState `json:"current"`
	Changed  bool            `json:"changed"`
}

// MembershipService 会员等级服务
type MembershipService struct {
	userRepo repository.UserRepository
}

// NewMembershipService 创建会员服务
func NewMembershipService(userRepo repository.UserRepository) *MembershipService {
	return &MembershipService{userRepo: userRepo}
}

// EvaluateTx 在事务内按最新余额评估会员等级并写回
func (s *MembershipService) EvaluateTx(tx *gorm.DB, userID uint, balance decimal.Decimal, policy MembershipPolicy, now time.Time) (*MembershipChange, error) {
	userRepo := s.userRepo.WithTx(tx)
	user, err := userRepo.GetByIDForUpdate(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	previous := MembershipStateOf(user)
	next := NextMembershipState(previous, balance, policy, now)
	change := &MembershipChange{UserID: userID, Previous: previous, Current: next}
	if sameMembershipState(previous, next) {
		return change, nil
	}

	pendingLevel := ""
	var graceUntil *time.Time
	if next.Pending != nil {
		pendingLevel = next.Pending.Target
		deadline := next.Pending.Deadline
		graceUntil = &deadline
	}
	if err := userRepo.UpdateMembership(userID, next.Level, pendingLevel, graceUntil); err != nil {
		return nil, err
	}
	change.Changed = true
	if previous.Level != next.Level {
		logger.Infow("membership_level_changed",
			"user_id", userID,
			"from", previous.Level,
			"to", next.Level,
			"balance", balance.StringFixed(2),
		)
	}
	return change, nil
}
