package service

import (
	"context"
	"strings"
	"sync"

	"repairhub-backend/internal/domain"
)

// Default repair durations in minutes, chosen by issue-label prefix.
const (
	hardwareMinutes = 90
	softwareMinutes = 60
	physicalMinutes = 75
	defaultMinutes  = 60
)

// OverrideStore persists explicit per-(device, issue) duration overrides.
// The Postgres implementation lives in repository; MemoryOverrideStore backs
// local development and tests.
type OverrideStore interface {
	Get(ctx context.Context, deviceCategory, issue string) (int, bool, error)
	Set(ctx context.Context, deviceCategory, issue string, minutes int) error
	Remove(ctx context.Context, deviceCategory, issue string) error
	List(ctx context.Context) ([]domain.RepairTimeOverride, error)
}

// EstimateService resolves repair durations: explicit override first, then a
// prefix-based default bucket.
type EstimateService struct {
	Store OverrideStore
}

func (s EstimateService) Estimate(ctx context.Context, deviceCategory, issue string) (int, error) {
	if minutes, ok, err := s.Store.Get(ctx, deviceCategory, issue); err != nil {
		return 0, err
	} else if ok {
		return minutes, nil
	}
	return DefaultMinutesFor(issue), nil
}

func (s EstimateService) SetOverride(ctx context.Context, deviceCategory, issue string, minutes int) error {
	return s.Store.Set(ctx, deviceCategory, issue, minutes)
}

func (s EstimateService) RemoveOverride(ctx context.Context, deviceCategory, issue string) error {
	return s.Store.Remove(ctx, deviceCategory, issue)
}

func (s EstimateService) ListOverrides(ctx context.Context) ([]domain.RepairTimeOverride, error) {
	return s.Store.List(ctx)
}

// DefaultMinutesFor buckets an issue label by prefix.
func DefaultMinutesFor(issue string) int {
	switch {
	case strings.HasPrefix(issue, "Hardware:"):
		return hardwareMinutes
	case strings.HasPrefix(issue, "Software:"):
		return softwareMinutes
	case strings.HasPrefix(issue, "Physical:"):
		return physicalMinutes
	}
	return defaultMinutes
}

// MemoryOverrideStore is the in-memory OverrideStore used without a database.
type MemoryOverrideStore struct {
	mu        sync.RWMutex
	overrides map[string]int
}

func NewMemoryOverrideStore() *MemoryOverrideStore {
	return &MemoryOverrideStore{overrides: make(map[string]int)}
}

func (m *MemoryOverrideStore) Get(_ context.Context, deviceCategory, issue string) (int, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	minutes, ok := m.overrides[overrideKey(deviceCategory, issue)]
	return minutes, ok, nil
}

func (m *MemoryOverrideStore) Set(_ context.Context, deviceCategory, issue string, minutes int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overrides[overrideKey(deviceCategory, issue)] = minutes
	return nil
}

func (m *MemoryOverrideStore) Remove(_ context.Context, deviceCategory, issue string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.overrides, overrideKey(deviceCategory, issue))
	return nil
}

func (m *MemoryOverrideStore) List(_ context.Context) ([]domain.RepairTimeOverride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.RepairTimeOverride, 0, len(m.overrides))
	for key, minutes := range m.overrides {
		device, issue, _ := strings.Cut(key, "\x00")
		out = append(out, domain.RepairTimeOverride{DeviceCategory: device, Issue: issue, Minutes: minutes})
	}
	return out, nil
}

func overrideKey(deviceCategory, issue string) string {
	return deviceCategory + "\x00" + issue
}
