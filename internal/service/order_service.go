package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"repairhub-backend/internal/bus"
	"repairhub-backend/internal/domain"
	"repairhub-backend/internal/repository"
)

// ErrAlreadyRated is returned when a rating exists for the order.
var ErrAlreadyRated = errors.New("order already rated")

// Topic names for the change feed.
const (
	TopicOrders        = "orders"
	TopicRequests      = "requests"
	TopicParts         = "parts"
	TopicNotifications = "notifications"
)

// OrderService orchestrates order writes: every mutation also maintains the
// loyalty ledger, notifications, the audit trail and the change feed.
type OrderService struct {
	Orders        repository.OrderRepository
	Loyalty       repository.LoyaltyRepository
	Notifications repository.NotificationRepository
	Audit         repository.AuditLogRepository
	Bus           *bus.Bus
	Logger        *slog.Logger
}

func (s OrderService) Create(ctx context.Context, in repository.CreateOrderInput, actor string) (*domain.Order, error) {
	order, err := s.Orders.Create(ctx, in)
	if err != nil {
		return nil, err
	}

	if _, err := s.Loyalty.Ensure(ctx, order.CustomerPhone, WelcomeBonusPoints); err != nil {
		s.Logger.Warn("loyalty ensure failed", "order_id", order.ID, "error", err)
	}

	s.notifyAdmins(ctx, domain.NotificationInfo, "New repair order",
		fmt.Sprintf("%s booked a %s %s repair (%s)", order.CustomerName, order.Brand, order.Model, order.Code),
		fmt.Sprintf("/orders/%d", order.ID))
	s.audit(ctx, "order.created", actor, fmt.Sprintf("order %s for %s", order.Code, order.CustomerPhone))
	s.Bus.Publish(TopicOrders, "created", order.ID)
	return order, nil
}

// ChangeStatus flips an order status. Completing an order accrues loyalty
// points in the same transaction as the status write.
func (s OrderService) ChangeStatus(ctx context.Context, id int64, to domain.OrderStatus, changedBy, note string) (*domain.Order, error) {
	var after func(context.Context, pgx.Tx, *domain.Order) error
	if to == domain.OrderCompleted {
		after = s.accrueOnCompletion
	}

	order, err := s.Orders.UpdateStatus(ctx, id, to, changedBy, note, after)
	if err != nil {
		return nil, err
	}

	s.notifyAdmins(ctx, domain.NotificationInfo, "Order status changed",
		fmt.Sprintf("%s is now %s", order.Code, order.Status),
		fmt.Sprintf("/orders/%d", order.ID))
	s.audit(ctx, "order.status_changed", changedBy, fmt.Sprintf("order %s -> %s", order.Code, to))
	s.Bus.Publish(TopicOrders, "updated", order.ID)
	return order, nil
}

func (s OrderService) AssignTechnician(ctx context.Context, id, technicianID int64, actor string) error {
	if err := s.Orders.AssignTechnician(ctx, id, technicianID); err != nil {
		return err
	}
	s.audit(ctx, "order.assigned", actor, fmt.Sprintf("order %d -> technician %d", id, technicianID))
	s.Bus.Publish(TopicOrders, "updated", id)
	return nil
}

func (s OrderService) SetInvoiceTerms(ctx context.Context, id int64, discount float64, vatEnabled bool, vatRate float64, actor string) error {
	if err := s.Orders.SetInvoiceTerms(ctx, id, discount, vatEnabled, vatRate); err != nil {
		return err
	}
	s.audit(ctx, "order.invoice_terms", actor, fmt.Sprintf("order %d discount=%.2f vat=%t", id, discount, vatEnabled))
	s.Bus.Publish(TopicOrders, "updated", id)
	return nil
}

// Rate stores a customer rating on a completed order and awards the review
// bonus.
func (s OrderService) Rate(ctx context.Context, id int64, rating int, comment string) error {
	order, err := s.Orders.Get(ctx, id)
	if err != nil {
		return err
	}
	if order.Rating != nil {
		return ErrAlreadyRated
	}
	if err := s.Orders.SetRating(ctx, id, rating, comment); err != nil {
		return err
	}
	if _, err := s.Loyalty.Accrue(ctx, repository.AccrueInput{
		Phone:   order.CustomerPhone,
		Points:  ReviewBonusPoints,
		Reason:  "review_bonus",
		OrderID: &order.ID,
	}); err != nil {
		s.Logger.Warn("review bonus accrual failed", "order_id", id, "error", err)
	}
	s.Bus.Publish(TopicOrders, "updated", id)
	return nil
}

func (s OrderService) AddItem(ctx context.Context, orderID int64, in repository.AddItemInput, actor string) (*domain.OrderItem, error) {
	item, err := s.Orders.AddItem(ctx, orderID, in)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, "order.item_added", actor, fmt.Sprintf("order %d: %s x%d", orderID, in.Description, in.Qty))
	s.Bus.Publish(TopicOrders, "updated", orderID)
	return item, nil
}

// accrueOnCompletion runs inside the status-change transaction: points from
// the invoice total, plus the first-order bonus, land atomically with the
// completed status.
func (s OrderService) accrueOnCompletion(ctx context.Context, tx pgx.Tx, o *domain.Order) error {
	var subtotal float64
	if err := tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(qty * unit_price), 0) FROM order_items WHERE order_id=$1
	`, o.ID).Scan(&subtotal); err != nil {
		return err
	}
	total := subtotal - o.Discount
	if o.VATEnabled {
		total += (subtotal - o.Discount) * o.VATRate
	}

	acct, err := s.Loyalty.EnsureWithTx(ctx, tx, o.CustomerPhone, WelcomeBonusPoints)
	if err != nil {
		return err
	}
	points := PointsForSpend(total)
	if acct.OrdersCompleted == 0 {
		points += FirstOrderBonusPoints
	}

	_, err = s.Loyalty.AccrueWithTx(ctx, tx, repository.AccrueInput{
		Phone:        o.CustomerPhone,
		Points:       points,
		Spent:        total,
		Reason:       "order_completed",
		OrderID:      &o.ID,
		CountAsOrder: true,
	})
	return err
}

func (s OrderService) notifyAdmins(ctx context.Context, typ domain.NotificationType, title, message, link string) {
	if _, err := s.Notifications.Create(ctx, repository.CreateNotificationInput{
		Role:    domain.RoleAdmin,
		Type:    typ,
		Title:   title,
		Message: message,
		Link:    link,
	}); err != nil {
		s.Logger.Warn("notification create failed", "title", title, "error", err)
	} else {
		s.Bus.Publish(TopicNotifications, "created", 0)
	}
}

func (s OrderService) audit(ctx context.Context, action, actor, details string) {
	if _, err := s.Audit.Create(ctx, repository.CreateAuditLogInput{
		Action:   action,
		Category: "orders",
		Actor:    actor,
		Details:  details,
	}); err != nil {
		s.Logger.Warn("audit log failed", "action", action, "error", err)
	}
}
