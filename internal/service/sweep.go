package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"repairhub-backend/internal/bus"
	"repairhub-backend/internal/domain"
	"repairhub-backend/internal/repository"
)

// StockSweeper periodically scans inventory and notifies admins about parts
// at or below their minimum stock.
type StockSweeper struct {
	Parts         repository.PartRepository
	Notifications repository.NotificationRepository
	Bus           *bus.Bus
	Logger        *slog.Logger

	cron *cron.Cron
}

// Start schedules the sweep with the given cron spec and runs one sweep
// immediately.
func (s *StockSweeper) Start(spec string) error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.Sweep(ctx); err != nil {
			s.Logger.Error("low stock sweep failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule stock sweep: %w", err)
	}
	s.cron.Start()
	return nil
}

func (s *StockSweeper) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *StockSweeper) Sweep(ctx context.Context) error {
	parts, err := s.Parts.ListLowStock(ctx)
	if err != nil {
		return err
	}
	for _, p := range parts {
		typ := domain.NotificationWarning
		if p.Quantity == 0 {
			typ = domain.NotificationError
		}
		if _, err := s.Notifications.Create(ctx, repository.CreateNotificationInput{
			Role:    domain.RoleAdmin,
			Type:    typ,
			Title:   "Low stock",
			Message: fmt.Sprintf("%s (%s) is down to %d, minimum is %d", p.Name, p.SKU, p.Quantity, p.MinStock),
			Link:    fmt.Sprintf("/inventory/%d", p.ID),
		}); err != nil {
			return err
		}
	}
	if len(parts) > 0 {
		s.Bus.Publish(TopicNotifications, "created", 0)
		s.Logger.Info("low stock sweep", "flagged", len(parts))
	}
	return nil
}
