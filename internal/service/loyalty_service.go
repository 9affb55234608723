package service

import (
	"context"
	"fmt"
	"time"

	"github.com/checkout-core/internal/constants"
	"github.com/checkout-core/internal/logger"
	"github.com/checkout-core/internal/models"
	"github.com/checkout-core/internal/repository"

	"gorm.io/gorm"
)

// LoyaltyService 积分累计与奖励券服务
type LoyaltyService struct {
	userRepo    repository.UserRepository
	pointsRepo  repository.PointsRepository
	settingSvc  *SettlementSettingService
	recentLimit int
}

// AccrualResult 一次积分累计结果
type AccrualResult struct {
	UserID        uint  `json:"user_id"`
	Earned        int64 `json:"earned"`
	PreviousTotal int64 `json:"previous_total"`
	NewTotal      int64 `json:"new_total"`
	TokensMinted  int64 `json:"tokens_minted"`
	Replayed      bool  `json:"replayed"`
}

// PointsSnapshot 积分快照
type PointsSnapshot struct {
	UserID             uint                       `json:"user_id"`
	Points             int64                      `json:"points"`
	RewardAvailable    bool                       `json:"reward_available"`
	AvailableRewards   int64                      `json:"available_rewards"`
	TotalRewardsIssued int64                      `json:"total_rewards_issued"`
	RewardValue        models.Money               `json:"reward_value"`
	RewardThreshold    int64                      `json:"reward_threshold"`
	PointsToNextReward int64                      `json:"points_to_next_reward"`
	RecentTransactions []models.PointsTransaction `json:"recent_transactions"`
}

// NewLoyaltyService 创建积分服务
func NewLoyaltyService(
	userRepo repository.UserRepository,
	pointsRepo repository.PointsRepository,
	settingSvc *SettlementSettingService,
	recentLimit int,
) *LoyaltyService {
	if recentLimit <= 0 {
		recentLimit = defaultRecentTransactionsLimit
	}
	return &LoyaltyService{
		userRepo:    userRepo,
		pointsRepo:  pointsRepo,
		settingSvc:  settingSvc,
		recentLimit: recentLimit,
	}
}

// AccrueForOrderTx 订单送达时累计积分，并按跨越门槛次数发放奖励券
func (s *LoyaltyService) AccrueForOrderTx(tx *gorm.DB, order *models.Order, settings SettlementSettings, now time.Time) (*AccrualResult, error) {
	if order == nil {
		return nil, ErrOrderNotFound
	}
	earned, err := PointsEarned(order.Subtotal.Decimal, settings.PointsPerAmount.Decimal)
	if err != nil {
		return nil, err
	}
	if settings.RewardThresholdPoints <= 0 {
		return nil, &ConfigurationError{Field: "reward_threshold_points", Detail: "must be greater than zero"}
	}

	pointsRepo := s.pointsRepo.WithTx(tx)
	userRepo := s.userRepo.WithTx(tx)
	reference := fmt.Sprintf("order:%d:earn", order.ID)
	existing, err := pointsRepo.GetTransactionByReference(reference)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &AccrualResult{UserID: order.UserID, Earned: existing.Points, Replayed: true}, nil
	}

	user, err := userRepo.GetByIDForUpdate(order.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	result := &AccrualResult{
		UserID:        user.ID,
		Earned:        earned,
		PreviousTotal: user.Points,
		NewTotal:      user.Points,
	}
	if earned == 0 {
		return result, nil
	}

	orderID := order.ID
	if err := pointsRepo.CreateTransaction(&models.PointsTransaction{
		UserID:    user.ID,
		OrderID:   &orderID,
		Type:      constants.PointsTxnTypeEarn,
		Points:    earned,
		Reference: reference,
		CreatedAt: now,
	}); err != nil {
		return nil, err
	}
	if err := userRepo.AddPoints(user.ID, earned); err != nil {
		return nil, err
	}
	result.NewTotal = user.Points + earned

	minted, err := rewardTokensToMint(result.PreviousTotal, result.NewTotal, settings.RewardThresholdPoints)
	if err != nil {
		return nil, err
	}
	if minted > 0 {
		tokens := make([]models.RewardToken, 0, minted)
		for i := int64(0); i < minted; i++ {
			tokens = append(tokens, models.RewardToken{
				UserID:        user.ID,
				SourceOrderID: &orderID,
				CreatedAt:     now,
			})
		}
		if err := pointsRepo.CreateRewardTokens(tokens); err != nil {
			return nil, err
		}
		logger.Infow("reward_tokens_minted",
			"user_id", user.ID,
			"order_id", order.ID,
			"count", minted,
			"points_total", result.NewTotal,
		)
	}
	result.TokensMinted = minted
	return result, nil
}

// ConsumeRewardTx 核销最早的一张可用奖励券，无可用时返回 nil
func (s *LoyaltyService) ConsumeRewardTx(tx *gorm.DB, userID, orderID uint, now time.Time) (*models.RewardToken, error) {
	pointsRepo := s.pointsRepo.WithTx(tx)
	token, err := pointsRepo.GetOldestAvailableRewardToken(userID)
	if err != nil || token == nil {
		return nil, err
	}
	ok, err := pointsRepo.ConsumeRewardToken(token.ID, orderID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	token.Consumed = true
	token.ConsumedAt = &now
	token.OrderID = &orderID
	return token, nil
}

// peekRewardTx 事务内查询最早的可用奖励券（不核销）
func (s *LoyaltyService) peekRewardTx(tx *gorm.DB, userID uint) (*models.RewardToken, error) {
	return s.pointsRepo.WithTx(tx).GetOldestAvailableRewardToken(userID)
}

// RestoreRewardTx 订单取消时退回奖励券
func (s *LoyaltyService) RestoreRewardTx(tx *gorm.DB, orderID uint) (int64, error) {
	return s.pointsRepo.WithTx(tx).RestoreRewardTokenByOrder(orderID)
}

// HasAvailableReward 是否有可用奖励券
func (s *LoyaltyService) HasAvailableReward(userID uint) (bool, error) {
	count, err := s.pointsRepo.CountAvailableRewardTokens(userID)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Snapshot 积分快照
func (s *LoyaltyService) Snapshot(ctx context.Context, userID uint) (*PointsSnapshot, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	settings, err := s.settingSvc.Current(ctx)
	if err != nil {
		return nil, err
	}
	available, err := s.pointsRepo.CountAvailableRewardTokens(userID)
	if err != nil {
		return nil, err
	}
	issued, err := s.pointsRepo.CountRewardTokens(userID)
	if err != nil {
		return nil, err
	}
	txns, _, err := s.pointsRepo.ListTransactions(repository.PointsTransactionListFilter{
		UserID:   userID,
		Page:     1,
		PageSize: s.recentLimit,
	})
	if err != nil {
		return nil, err
	}
	snapshot := &PointsSnapshot{
		UserID:             userID,
		Points:             user.Points,
		RewardAvailable:    available > 0,
		AvailableRewards:   available,
		TotalRewardsIssued: issued,
		RewardValue:        settings.RewardValue,
		RewardThreshold:    settings.RewardThresholdPoints,
		RecentTransactions: txns,
	}
	if settings.RewardThresholdPoints > 0 {
		snapshot.PointsToNextReward = settings.RewardThresholdPoints - user.Points%settings.RewardThresholdPoints
	}
	return snapshot, nil
}

// ListTransactions 查询积分流水
func (s *LoyaltyService) ListTransactions(filter repository.PointsTransactionListFilter) ([]models.PointsTransaction, int64, error) {
	return s.pointsRepo.ListTransactions(filter)
}
