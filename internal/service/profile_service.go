package service

import (
	"context"
	"time"

	"github.com/checkout-core/internal/logger"
	"github.com/checkout-core/internal/models"
	"github.com/checkout-core/internal/repository"

	"gorm.io/gorm"
)

// ProfileService 用户资料服务
type ProfileService struct {
	userRepo      repository.UserRepository
	walletRepo    repository.WalletRepository
	pointsRepo    repository.PointsRepository
	membershipSvc *MembershipService
	settingSvc    *SettlementSettingService
}

// Profile 用户结算相关资料
type Profile struct {
	User             *models.User      `json:"user"`
	MembershipLevel  string            `json:"membership_level"`
	PendingDowngrade *PendingDowngrade `json:"pending_downgrade,omitempty"`
	Points           int64             `json:"points"`
	AvailableRewards int64             `json:"available_rewards"`
	WalletBalance    models.Money      `json:"wallet_balance"`
}

// NewProfileService 创建用户资料服务
func NewProfileService(
	userRepo repository.UserRepository,
	walletRepo repository.WalletRepository,
	pointsRepo repository.PointsRepository,
	membershipSvc *MembershipService,
	settingSvc *SettlementSettingService,
) *ProfileService {
	return &ProfileService{
		userRepo:      userRepo,
		walletRepo:    walletRepo,
		pointsRepo:    pointsRepo,
		membershipSvc: membershipSvc,
		settingSvc:    settingSvc,
	}
}

// GetProfile 读取资料，并顺带刷新会员等级（刷新失败不影响读取）
func (s *ProfileService) GetProfile(ctx context.Context, userID uint) (*Profile, error) {
	if userID == 0 {
		return nil, ErrUserNotFound
	}
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	balance, change, err := s.refreshMembership(ctx, userID)
	if err != nil {
		return nil, err
	}
	if change != nil {
		if refreshed, err := s.userRepo.GetByID(userID); err == nil && refreshed != nil {
			user = refreshed
		}
	}

	available, err := s.pointsRepo.CountAvailableRewardTokens(userID)
	if err != nil {
		return nil, err
	}
	state := MembershipStateOf(user)
	if change != nil {
		state = change.Current
	}
	return &Profile{
		User:             user,
		MembershipLevel:  state.Level,
		PendingDowngrade: state.Pending,
		Points:           user.Points,
		AvailableRewards: available,
		WalletBalance:    balance,
	}, nil
}

// refreshMembership 在同一事务内加锁读取余额并评估会员等级，返回本次评估所用的余额。
// 评估失败只记录日志，余额退回到普通读取。
func (s *ProfileService) refreshMembership(ctx context.Context, userID uint) (models.Money, *MembershipChange, error) {
	if s.membershipSvc == nil || s.settingSvc == nil {
		balance, err := readWalletBalance(s.walletRepo.GetAccountByUserID, userID)
		return balance, nil, err
	}
	settings, err := s.settingSvc.Current(ctx)
	if err != nil {
		logger.Warnw("profile_membership_refresh_failed", "user_id", userID, "error", err)
		balance, err := readWalletBalance(s.walletRepo.GetAccountByUserID, userID)
		return balance, nil, err
	}

	var (
		balance models.Money
		change  *MembershipChange
	)
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		balance, err = readWalletBalance(s.walletRepo.WithTx(tx).GetAccountByUserIDForUpdate, userID)
		if err != nil {
			return err
		}
		change, err = s.membershipSvc.EvaluateTx(tx, userID, balance.Decimal, settings.MembershipPolicy(), time.Now())
		return err
	})
	if err != nil {
		logger.Warnw("profile_membership_refresh_failed", "user_id", userID, "error", err)
		balance, err := readWalletBalance(s.walletRepo.GetAccountByUserID, userID)
		return balance, nil, err
	}
	return balance, change, nil
}

func readWalletBalance(get func(uint) (*models.WalletAccount, error), userID uint) (models.Money, error) {
	account, err := get(userID)
	if err != nil {
		return models.Money{}, err
	}
	if account == nil {
		return models.NewMoneyFromInt(0), nil
	}
	return account.Balance, nil
}
