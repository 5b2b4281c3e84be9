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

// ErrPermissionDenied is returned when a technician lacks the portal
// permission for an action.
var ErrPermissionDenied = errors.New("permission denied")

// RequestService handles technician part and service requests. Approval and
// the resulting invoice line commit in one transaction.
type RequestService struct {
	Requests      repository.RequestRepository
	Orders        repository.OrderRepository
	Parts         repository.PartRepository
	Technicians   repository.TechnicianRepository
	Notifications repository.NotificationRepository
	Audit         repository.AuditLogRepository
	Bus           *bus.Bus
	Logger        *slog.Logger
}

func (s RequestService) Create(ctx context.Context, in repository.CreateRequestInput) (*domain.TechnicianRequest, error) {
	tech, err := s.Technicians.Get(ctx, in.TechnicianID)
	if err != nil {
		return nil, err
	}
	if in.Category == domain.RequestSparePart && !tech.Permissions.RequestParts {
		return nil, ErrPermissionDenied
	}

	req, err := s.Requests.Create(ctx, in)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, domain.RoleAdmin, nil, domain.NotificationInfo, "New technician request",
		fmt.Sprintf("%s requested %s (%.2f) on order %d", tech.Name, req.Description, req.EstimatedPrice, req.OrderID),
		fmt.Sprintf("/requests/%d", req.ID))
	s.audit(ctx, "request.created", tech.Name, fmt.Sprintf("request %d on order %d", req.ID, req.OrderID))
	s.Bus.Publish(TopicRequests, "created", req.ID)
	return req, nil
}

func (s RequestService) RevisePrice(ctx context.Context, id int64, newPrice float64, changedBy, reason string) (*domain.TechnicianRequest, error) {
	req, err := s.Requests.RevisePrice(ctx, id, newPrice, changedBy, reason)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, "request.price_revised", changedBy, fmt.Sprintf("request %d -> %.2f", id, newPrice))
	s.Bus.Publish(TopicRequests, "updated", id)
	return req, nil
}

type DecideRequestInput struct {
	Approve    bool
	FinalPrice *float64
	DecidedBy  int64
	ActorName  string
	// Set for approved spare-part requests that draw from inventory.
	PartID *int64
	Qty    int
}

// Decide approves or rejects a pending request. On approval the invoice line
// and any stock consumption share the decision transaction, so a failure in
// either rolls back the approval too.
func (s RequestService) Decide(ctx context.Context, id int64, in DecideRequestInput) (*domain.TechnicianRequest, error) {
	to := domain.RequestRejected
	var after func(context.Context, pgx.Tx, *domain.TechnicianRequest) error
	if in.Approve {
		to = domain.RequestApproved
		after = func(ctx context.Context, tx pgx.Tx, req *domain.TechnicianRequest) error {
			price := req.EstimatedPrice
			if req.FinalPrice != nil {
				price = *req.FinalPrice
			}
			if _, err := s.Orders.AddItemWithTx(ctx, tx, req.OrderID, repository.AddItemInput{
				Description: req.Description,
				Qty:         1,
				UnitPrice:   price,
				RequestID:   &req.ID,
			}); err != nil {
				return err
			}
			if in.PartID != nil {
				qty := in.Qty
				if qty <= 0 {
					qty = 1
				}
				if err := s.Parts.ConsumeWithTx(ctx, tx, *in.PartID, qty,
					fmt.Sprintf("request %d", req.ID)); err != nil {
					return err
				}
			}
			return nil
		}
	}

	req, err := s.Requests.Decide(ctx, id, to, in.FinalPrice, in.DecidedBy, after)
	if err != nil {
		return nil, err
	}

	verdict := "rejected"
	if in.Approve {
		verdict = "approved"
	}
	if tech, terr := s.Technicians.Get(ctx, req.TechnicianID); terr == nil && tech.UserID != nil {
		s.notify(ctx, domain.RoleTechnician, tech.UserID, domain.NotificationInfo,
			"Request "+verdict,
			fmt.Sprintf("Your request %q was %s", req.Description, verdict),
			fmt.Sprintf("/requests/%d", req.ID))
	}
	s.audit(ctx, "request."+verdict, in.ActorName, fmt.Sprintf("request %d on order %d", req.ID, req.OrderID))
	s.Bus.Publish(TopicRequests, "updated", req.ID)
	if in.Approve {
		s.Bus.Publish(TopicOrders, "updated", req.OrderID)
		if in.PartID != nil {
			s.Bus.Publish(TopicParts, "updated", *in.PartID)
		}
	}
	return req, nil
}

func (s RequestService) notify(ctx context.Context, role domain.UserRole, userID *int64, typ domain.NotificationType, title, message, link string) {
	if _, err := s.Notifications.Create(ctx, repository.CreateNotificationInput{
		Role:    role,
		UserID:  userID,
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

func (s RequestService) audit(ctx context.Context, action, actor, details string) {
	if _, err := s.Audit.Create(ctx, repository.CreateAuditLogInput{
		Action:   action,
		Category: "requests",
		Actor:    actor,
		Details:  details,
	}); err != nil {
		s.Logger.Warn("audit log failed", "action", action, "error", err)
	}
}
