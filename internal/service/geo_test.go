package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineIdenticalPoints(t *testing.T) {
	assert.Equal(t, 0.0, HaversineKM(24.7136, 46.6753, 24.7136, 46.6753))
	assert.Equal(t, 0.0, HaversineKM(0, 0, 0, 0))
	assert.Equal(t, 0.0, HaversineKM(-33.8688, 151.2093, -33.8688, 151.2093))
}

func TestHaversineKnownDistance(t *testing.T) {
	// Riyadh to Jeddah, roughly 850 km.
	d := HaversineKM(24.7136, 46.6753, 21.4858, 39.1925)
	assert.InDelta(t, 850, d, 20)
}

func TestWithinRangeBoundaryInclusive(t *testing.T) {
	lat, lng := 24.7136, 46.6753
	d := HaversineKM(lat, lng, lat+0.003, lng)
	assert.True(t, WithinRange(lat, lng, lat+0.003, lng, d))
	assert.False(t, WithinRange(lat, lng, lat+0.003, lng, d-0.0001))
}

func TestWithinDistance(t *testing.T) {
	assert.True(t, WithinDistance(0, 0.5))
	assert.True(t, WithinDistance(0.5, 0.5))
	assert.False(t, WithinDistance(0.5001, 0.5))
}

func TestWithinRangeDefaultRadius(t *testing.T) {
	lat, lng := 24.7136, 46.6753
	// ~0.11 km north, well inside 0.5 km.
	assert.True(t, WithinRange(lat, lng, lat+0.001, lng, 0.5))
	// ~1.1 km north, outside 0.5 km.
	assert.False(t, WithinRange(lat, lng, lat+0.01, lng, 0.5))
}
