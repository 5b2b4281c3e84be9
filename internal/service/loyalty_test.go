package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"repairhub-backend/internal/domain"
)

func TestTierForPointsBoundaries(t *testing.T) {
	assert.Equal(t, domain.TierBronze, TierForPoints(0))
	assert.Equal(t, domain.TierBronze, TierForPoints(499))
	assert.Equal(t, domain.TierSilver, TierForPoints(500))
	assert.Equal(t, domain.TierSilver, TierForPoints(1999))
	assert.Equal(t, domain.TierGold, TierForPoints(2000))
	assert.Equal(t, domain.TierGold, TierForPoints(4999))
	assert.Equal(t, domain.TierPlatinum, TierForPoints(5000))
	assert.Equal(t, domain.TierPlatinum, TierForPoints(100000))
}

func TestTierForPointsMonotonic(t *testing.T) {
	rank := map[domain.LoyaltyTier]int{
		domain.TierBronze:   0,
		domain.TierSilver:   1,
		domain.TierGold:     2,
		domain.TierPlatinum: 3,
	}
	prev := rank[TierForPoints(0)]
	for p := int64(1); p <= 6000; p += 7 {
		cur := rank[TierForPoints(p)]
		assert.GreaterOrEqual(t, cur, prev, "tier must not decrease at %d points", p)
		prev = cur
	}
}

func TestTierDiscountPercent(t *testing.T) {
	assert.Equal(t, 0, TierDiscountPercent(domain.TierBronze))
	assert.Equal(t, 5, TierDiscountPercent(domain.TierSilver))
	assert.Equal(t, 10, TierDiscountPercent(domain.TierGold))
	assert.Equal(t, 15, TierDiscountPercent(domain.TierPlatinum))
}

func TestPointsForSpend(t *testing.T) {
	assert.Equal(t, int64(0), PointsForSpend(0))
	assert.Equal(t, int64(0), PointsForSpend(-10))
	assert.Equal(t, int64(189), PointsForSpend(189.0))
	assert.Equal(t, int64(99), PointsForSpend(99.75))
}

func TestCanRedeem(t *testing.T) {
	assert.True(t, CanRedeem(500, 500))
	assert.True(t, CanRedeem(500, 1))
	assert.False(t, CanRedeem(500, 501))
	assert.False(t, CanRedeem(0, 1))
	assert.False(t, CanRedeem(500, 0))
	assert.False(t, CanRedeem(500, -5))
}
