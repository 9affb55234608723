package config

import (
	"testing"

	"github.com/spf13/viper"
)

func TestSetDefaultsSettlement(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	defaults := cfg.Settlement.DefaultSettings
	if defaults.DeliveryFreeKm != 1 || defaults.DeliveryRatePerKm != 5000 {
		t.Fatalf("unexpected delivery defaults: %+v", defaults)
	}
	if defaults.MembershipThresholds.Silver != 1000000 || defaults.MembershipThresholds.Diamond != 6000000 {
		t.Fatalf("unexpected thresholds: %+v", defaults.MembershipThresholds)
	}
	if defaults.RewardThresholdPoints != 100 || defaults.RewardValue != 80000 || defaults.PointsPerAmount != 10000 {
		t.Fatalf("unexpected loyalty defaults: %+v", defaults)
	}
	if cfg.Settlement.SettingsCacheTTLSeconds != 60 || cfg.Queue.Queues["default"] != 10 {
		t.Fatalf("unexpected settlement/queue defaults: %+v %+v", cfg.Settlement, cfg.Queue)
	}
}
