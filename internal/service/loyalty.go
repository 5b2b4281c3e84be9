package service

import "repairhub-backend/internal/domain"

// Loyalty point awards. Accrual on completion is 1 point per currency unit of
// the invoice total, on top of the fixed bonuses below.
const (
	WelcomeBonusPoints    = 100
	FirstOrderBonusPoints = 50
	ReferralBonusPoints   = 200
	ReviewBonusPoints     = 25
)

var tierThresholds = []struct {
	min  int64
	tier domain.LoyaltyTier
}{
	{5000, domain.TierPlatinum},
	{2000, domain.TierGold},
	{500, domain.TierSilver},
	{0, domain.TierBronze},
}

// TierForPoints maps a cumulative point balance to a loyalty tier.
func TierForPoints(points int64) domain.LoyaltyTier {
	for _, t := range tierThresholds {
		if points >= t.min {
			return t.tier
		}
	}
	return domain.TierBronze
}

// TierDiscountPercent returns the percentage discount granted by a tier.
func TierDiscountPercent(tier domain.LoyaltyTier) int {
	switch tier {
	case domain.TierPlatinum:
		return 15
	case domain.TierGold:
		return 10
	case domain.TierSilver:
		return 5
	}
	return 0
}

// PointsForSpend converts an invoice total to accrued points (1 point per
// whole currency unit).
func PointsForSpend(total float64) int64 {
	if total <= 0 {
		return 0
	}
	return int64(total)
}

// CanRedeem reports whether a redemption of the requested points is allowed
// for the given balance. Partial redemption and negative balances are never
// permitted.
func CanRedeem(balance, requested int64) bool {
	return requested > 0 && requested <= balance
}
