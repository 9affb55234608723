package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/checkout-core/internal/cache"
	"github.com/checkout-core/internal/config"
	"github.com/checkout-core/internal/constants"
	"github.com/checkout-core/internal/logger"
	"github.com/checkout-core/internal/models"
	"github.com/checkout-core/internal/repository"
)

// SettlementSettings 结算配置快照
type SettlementSettings struct {
	StoreLat              float64              `json:"store_lat"`
	StoreLng              float64              `json:"store_lng"`
	DeliveryFreeKm        float64              `json:"delivery_free_km"`
	DeliveryRatePerKm     models.Money         `json:"delivery_rate_per_km"`
	MembershipGraceDays   int                  `json:"membership_grace_days"`
	MembershipThresholds  MembershipThresholds `json:"membership_thresholds"`
	PointsPerAmount       models.Money         `json:"points_per_amount"`
	RewardThresholdPoints int64                `json:"reward_threshold_points"`
	RewardValue           models.Money         `json:"reward_value"`
}

// DefaultSettlementSettings 默认结算配置
func DefaultSettlementSettings() SettlementSettings {
	return SettlementSettings{
		DeliveryFreeKm:      1,
		DeliveryRatePerKm:   models.NewMoneyFromInt(5000),
		MembershipGraceDays: 14,
		MembershipThresholds: MembershipThresholds{
			Silver:   models.NewMoneyFromInt(1000000),
			Gold:     models.NewMoneyFromInt(2000000),
			Platinum: models.NewMoneyFromInt(4000000),
			Diamond:  models.NewMoneyFromInt(6000000),
		},
		PointsPerAmount:       models.NewMoneyFromInt(10000),
		RewardThresholdPoints: 100,
		RewardValue:           models.NewMoneyFromInt(80000),
	}
}

// SettlementSettingsFromConfig 将配置文件中的默认参数转换为结算配置
func SettlementSettingsFromConfig(cfg config.SettlementDefaultConfig) SettlementSettings {
	return SettlementSettings{
		StoreLat:            cfg.StoreLat,
		StoreLng:            cfg.StoreLng,
		DeliveryFreeKm:      cfg.DeliveryFreeKm,
		DeliveryRatePerKm:   models.NewMoneyFromInt(cfg.DeliveryRatePerKm),
		MembershipGraceDays: cfg.MembershipGraceDays,
		MembershipThresholds: MembershipThresholds{
			Silver:   models.NewMoneyFromInt(cfg.MembershipThresholds.Silver),
			Gold:     models.NewMoneyFromInt(cfg.MembershipThresholds.Gold),
			Platinum: models.NewMoneyFromInt(cfg.MembershipThresholds.Platinum),
			Diamond:  models.NewMoneyFromInt(cfg.MembershipThresholds.Diamond),
		},
		PointsPerAmount:       models.NewMoneyFromInt(cfg.PointsPerAmount),
		RewardThresholdPoints: cfg.RewardThresholdPoints,
		RewardValue:           models.NewMoneyFromInt(cfg.RewardValue),
	}
}

// MembershipPolicy 提取会员状态机参数
func (s SettlementSettings) MembershipPolicy() MembershipPolicy {
	return MembershipPolicy{
		Thresholds: s.MembershipThresholds,
		GraceDays:  s.MembershipGraceDays,
	}
}

// Validate 校验配置取值
// 积分折算与奖励门槛为 0 时在使用处返回 ConfigurationError，这里只拒绝负数与乱序门槛。
func (s SettlementSettings) Validate() error {
	if s.StoreLat < -90 || s.StoreLat > 90 || s.StoreLng < -180 || s.StoreLng > 180 {
		return fmt.Errorf("%w: store coordinates out of range", ErrSettingsInvalid)
	}
	if s.DeliveryFreeKm < 0 {
		return fmt.Errorf("%w: delivery_free_km is negative", ErrSettingsInvalid)
	}
	if s.DeliveryRatePerKm.IsNegative() || s.PointsPerAmount.IsNegative() || s.RewardValue.IsNegative() {
		return fmt.Errorf("%w: negative amount", ErrSettingsInvalid)
	}
	if s.MembershipGraceDays < 0 || s.RewardThresholdPoints < 0 {
		return fmt.Errorf("%w: negative count", ErrSettingsInvalid)
	}
	if !s.MembershipThresholds.ascending() {
		return fmt.Errorf("%w: membership thresholds must be positive and ascending", ErrSettingsInvalid)
	}
	return nil
}

func (s SettlementSettings) toJSON() (models.JSON, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	result := models.JSON{}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func settlementSettingsFromJSON(value models.JSON, fallback SettlementSettings) (SettlementSettings, error) {
	result := fallback
	if len(value) == 0 {
		return result, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fallback, err
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return fallback, err
	}
	return result, nil
}

// SettlementSettingService 结算配置服务
type SettlementSettingService struct {
	repo     repository.SettingRepository
	defaults SettlementSettings
	cacheTTL time.Duration
}

// NewSettlementSettingService 创建结算配置服务
func NewSettlementSettingService(repo repository.SettingRepository, defaults SettlementSettings, cacheTTL time.Duration) *SettlementSettingService {
	return &SettlementSettingService{
		repo:     repo,
		defaults: defaults,
		cacheTTL: cacheTTL,
	}
}

// Bootstrap 启动时写入默认配置（已存在则不覆盖）
func (s *SettlementSettingService) Bootstrap() (bool, error) {
	if err := s.defaults.Validate(); err != nil {
		return false, err
	}
	value, err := s.defaults.toJSON()
	if err != nil {
		return false, err
	}
	created, err := s.repo.CreateIfAbsent(constants.SettingKeySettlementConfig, value)
	if err != nil {
		return false, err
	}
	if created {
		logger.Infow("settlement_settings_bootstrapped", "key", constants.SettingKeySettlementConfig)
	}
	return created, nil
}

// Current 读取当前结算配置，优先走缓存
func (s *SettlementSettingService) Current(ctx context.Context) (SettlementSettings, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var cached SettlementSettings
	hit, err := cache.GetSettlementSettings(ctx, &cached)
	if err != nil {
		logger.Warnw("settlement_settings_cache_read_failed", "error", err)
	} else if hit {
		return cached, nil
	}

	setting, err := s.repo.GetByKey(constants.SettingKeySettlementConfig)
	if err != nil {
		return SettlementSettings{}, err
	}
	if setting == nil {
		logger.Warnw("settlement_settings_missing_using_defaults", "key", constants.SettingKeySettlementConfig)
		return s.defaults, nil
	}
	current, err := settlementSettingsFromJSON(setting.ValueJSON, s.defaults)
	if err != nil {
		return SettlementSettings{}, fmt.Errorf("%w: %v", ErrSettingsInvalid, err)
	}
	if err := cache.SetSettlementSettings(ctx, current, s.cacheTTL); err != nil {
		logger.Warnw("settlement_settings_cache_write_failed", "error", err)
	}
	return current, nil
}

// Update 写入结算配置（供管理端配置协作方调用）
func (s *SettlementSettingService) Update(ctx context.Context, next SettlementSettings) (SettlementSettings, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	next.DeliveryRatePerKm = models.NewMoneyFromDecimal(next.DeliveryRatePerKm.Decimal)
	next.PointsPerAmount = models.NewMoneyFromDecimal(next.PointsPerAmount.Decimal)
	next.RewardValue = models.NewMoneyFromDecimal(next.RewardValue.Decimal)
	if err := next.Validate(); err != nil {
		return SettlementSettings{}, err
	}
	value, err := next.toJSON()
	if err != nil {
		return SettlementSettings{}, err
	}
	if _, err := s.repo.Upsert(constants.SettingKeySettlementConfig, value); err != nil {
		return SettlementSettings{}, err
	}
	if err := cache.InvalidateSettlementSettings(ctx); err != nil {
		logger.Warnw("settlement_settings_cache_invalidate_failed", "error", err)
	}
	return next, nil
}
