package service

import (
	"context"
	"errors"
	"testing"

	"github.com/checkout-core/internal/config"
	"github.com/checkout-core/internal/constants"
	"github.com/checkout-core/internal/models"
	"github.com/checkout-core/internal/repository"

	"github.com/shopspring/decimal"
)

func TestSettlementSettingsBootstrapIsIdempotent(t *testing.T) {
	f := setupSettlementTest(t, "settings_bootstrap")

	created, err := f.settings.Bootstrap()
	if err != nil {
		t.Fatalf("second bootstrap failed: %v", err)
	}
	if created {
		t.Fatalf("bootstrap must not overwrite an existing snapshot")
	}
	if count := countRows(t, f.db, &models.Setting{}, "key = ?", constants.SettingKeySettlementConfig); count != 1 {
		t.Fatalf("expected 1 settings row, got %d", count)
	}

	current, err := f.settings.Current(context.Background())
	if err != nil {
		t.Fatalf("current failed: %v", err)
	}
	defaults := DefaultSettlementSettings()
	if current.DeliveryFreeKm != 1 || !current.DeliveryRatePerKm.Decimal.Equal(decimal.NewFromInt(5000)) {
		t.Fatalf("unexpected delivery settings: %+v", current)
	}
	if current.MembershipGraceDays != 14 || current.RewardThresholdPoints != 100 {
		t.Fatalf("unexpected loyalty settings: %+v", current)
	}
	if !current.MembershipThresholds.Diamond.Decimal.Equal(defaults.MembershipThresholds.Diamond.Decimal) {
		t.Fatalf("unexpected thresholds: %+v", current.MembershipThresholds)
	}
}

func TestSettlementSettingsMissingFallsBackToDefaults(t *testing.T) {
	db := openSettlementTestDB(t, "settings_missing")
	svc := NewSettlementSettingService(repository.NewSettingRepository(db), DefaultSettlementSettings(), 0)

	current, err := svc.Current(context.Background())
	if err != nil {
		t.Fatalf("current failed: %v", err)
	}
	if !current.RewardValue.Decimal.Equal(decimal.NewFromInt(80000)) {
		t.Fatalf("expected default reward value, got %s", current.RewardValue)
	}
	if count := countRows(t, db, &models.Setting{}, ""); count != 0 {
		t.Fatalf("read path must not create settings, got %d rows", count)
	}
}

func TestSettlementSettingsUpdate(t *testing.T) {
	f := setupSettlementTest(t, "settings_update")
	ctx := context.Background()

	next := DefaultSettlementSettings()
	next.StoreLat = 10.5
	next.StoreLng = 106.7
	next.DeliveryRatePerKm = models.NewMoneyFromInt(7000)
	if _, err := f.settings.Update(ctx, next); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	current, err := f.settings.Current(ctx)
	if err != nil {
		t.Fatalf("current failed: %v", err)
	}
	if current.StoreLat != 10.5 || !current.DeliveryRatePerKm.Decimal.Equal(decimal.NewFromInt(7000)) {
		t.Fatalf("update not persisted: %+v", current)
	}

	bad := DefaultSettlementSettings()
	bad.MembershipThresholds.Gold = models.NewMoneyFromInt(1)
	if _, err := f.settings.Update(ctx, bad); !errors.Is(err, ErrSettingsInvalid) {
		t.Fatalf("expected ErrSettingsInvalid for unordered thresholds, got %v", err)
	}
	bad = DefaultSettlementSettings()
	bad.StoreLat = 120
	if _, err := f.settings.Update(ctx, bad); !errors.Is(err, ErrSettingsInvalid) {
		t.Fatalf("expected ErrSettingsInvalid for bad coordinates, got %v", err)
	}
}

func TestSettlementSettingsFromConfig(t *testing.T) {
	got := SettlementSettingsFromConfig(config.SettlementDefaultConfig{
		StoreLat:            10.77,
		StoreLng:            106.7,
		DeliveryFreeKm:      1,
		DeliveryRatePerKm:   5000,
		MembershipGraceDays: 14,
		MembershipThresholds: config.MembershipThresholdConfig{
			Silver: 1000000, Gold: 2000000, Platinum: 4000000, Diamond: 6000000,
		},
		PointsPerAmount:       10000,
		RewardThresholdPoints: 100,
		RewardValue:           80000,
	})
	if err := got.Validate(); err != nil {
		t.Fatalf("converted settings invalid: %v", err)
	}
	defaults := DefaultSettlementSettings()
	if !got.MembershipThresholds.Gold.Decimal.Equal(defaults.MembershipThresholds.Gold.Decimal) ||
		!got.RewardValue.Decimal.Equal(defaults.RewardValue.Decimal) || got.StoreLat != 10.77 {
		t.Fatalf("unexpected conversion: %+v", got)
	}
}
