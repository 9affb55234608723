package service

import (
	"math"

	"github.com/shopspring/decimal"
)

const earthRadiusKm = 6371.0

// DistanceKm 计算两点球面距离（haversine），保留 2 位小数
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	// 固定参数顺序，保证交换两点后结果逐位一致
	if lat2 < lat1 || (lat2 == lat1 && lon2 < lon1) {
		lat1, lon1, lat2, lon2 = lat2, lon2, lat1, lon1
	}
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	if a > 1 {
		a = 1
	}
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return math.Round(earthRadiusKm*c*100) / 100
}

// DeliveryFee 计算配送费
// 免费范围内为 0；超出部分不足 1 公里按 1 公里计费。
func DeliveryFee(distanceKm, freeKm float64, ratePerKm decimal.Decimal) decimal.Decimal {
	extra := decimal.NewFromFloat(distanceKm).Sub(decimal.NewFromFloat(freeKm))
	if !extra.IsPositive() {
		return decimal.Zero
	}
	return extra.Ceil().Mul(ratePerKm).Round(2)
}

// PointsEarned 按消费金额折算积分，向下取整
func PointsEarned(subtotal, pointsPerAmount decimal.Decimal) (int64, error) {
	if !pointsPerAmount.IsPositive() {
		return 0, &ConfigurationError{Field: "points_per_amount", Detail: "must be greater than zero"}
	}
	if !subtotal.IsPositive() {
		return 0, nil
	}
	quotient, _ := subtotal.QuoRem(pointsPerAmount, 0)
	return quotient.IntPart(), nil
}

// rewardTokensToMint 计算跨越积分门槛需要新发放的奖励券数量
func rewardTokensToMint(oldTotal, newTotal, threshold int64) (int64, error) {
	if threshold <= 0 {
		return 0, &ConfigurationError{Field: "reward_threshold_points", Detail: "must be greater than zero"}
	}
	if oldTotal < 0 {
		oldTotal = 0
	}
	if newTotal <= oldTotal {
		return 0, nil
	}
	return newTotal/threshold - oldTotal/threshold, nil
}

// clampDiscount 将优惠限制在 [0, ceiling]
func clampDiscount(discount, ceiling decimal.Decimal) decimal.Decimal {
	if ceiling.IsNegative() {
		ceiling = decimal.Zero
	}
	if discount.IsNegative() {
		return decimal.Zero
	}
	if discount.GreaterThan(ceiling) {
		return ceiling
	}
	return discount
}
