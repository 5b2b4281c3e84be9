package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMinutesFor(t *testing.T) {
	assert.Equal(t, 90, DefaultMinutesFor("Hardware: Overheating Fix"))
	assert.Equal(t, 60, DefaultMinutesFor("Software: OS Reinstall"))
	assert.Equal(t, 75, DefaultMinutesFor("Physical: Cracked Screen"))
	assert.Equal(t, 60, DefaultMinutesFor("Unknown Issue"))
	assert.Equal(t, 60, DefaultMinutesFor(""))
}

func TestEstimateOverrideRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := EstimateService{Store: NewMemoryOverrideStore()}

	got, err := svc.Estimate(ctx, "laptop", "Hardware: Overheating Fix")
	require.NoError(t, err)
	assert.Equal(t, 90, got)

	require.NoError(t, svc.SetOverride(ctx, "laptop", "Hardware: Overheating Fix", 45))
	got, err = svc.Estimate(ctx, "laptop", "Hardware: Overheating Fix")
	require.NoError(t, err)
	assert.Equal(t, 45, got)

	// The override is keyed by device too; other devices keep the default.
	got, err = svc.Estimate(ctx, "desktop", "Hardware: Overheating Fix")
	require.NoError(t, err)
	assert.Equal(t, 90, got)

	require.NoError(t, svc.RemoveOverride(ctx, "laptop", "Hardware: Overheating Fix"))
	got, err = svc.Estimate(ctx, "laptop", "Hardware: Overheating Fix")
	require.NoError(t, err)
	assert.Equal(t, 90, got)
}

func TestMemoryOverrideStoreList(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryOverrideStore()
	require.NoError(t, store.Set(ctx, "phone", "Physical: Cracked Screen", 120))

	items, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "phone", items[0].DeviceCategory)
	assert.Equal(t, "Physical: Cracked Screen", items[0].Issue)
	assert.Equal(t, 120, items[0].Minutes)
}
