package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"repairhub-backend/internal/db"
	"repairhub-backend/internal/domain"
)

type RequestRepository struct {
	DB *db.Postgres
}

type CreateRequestInput struct {
	OrderID        int64
	TechnicianID   int64
	Category       domain.RequestCategory
	Description    string
	EstimatedPrice float64
}

func (r RequestRepository) Create(ctx context.Context, in CreateRequestInput) (*domain.TechnicianRequest, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO technician_requests
		(order_id, technician_id, category, description, estimated_price, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6, now(), now())
		RETURNING id, order_id, technician_id, category, description, estimated_price, final_price,
		          status, decided_by, decided_at, created_at, updated_at
	`, in.OrderID, in.TechnicianID, in.Category, in.Description, in.EstimatedPrice, domain.RequestPending)
	return scanRequest(row)
}

func (r RequestRepository) Get(ctx context.Context, id int64) (*domain.TechnicianRequest, error) {
	req, err := scanRequest(r.DB.Pool.QueryRow(ctx, `
		SELECT id, order_id, technician_id, category, description, estimated_price, final_price,
		       status, decided_by, decided_at, created_at, updated_at
		FROM technician_requests
		WHERE id=$1
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return req, nil
}

type ListRequestsFilter struct {
	OrderID      *int64
	TechnicianID *int64
	Status       domain.RequestStatus
	Limit        int
}

func (r RequestRepository) List(ctx context.Context, f ListRequestsFilter) ([]domain.TechnicianRequest, error) {
	if f.Limit <= 0 {
		f.Limit = 200
	}
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT tr.id, tr.order_id, tr.technician_id, tr.category, tr.description,
		       tr.estimated_price, tr.final_price, tr.status, tr.decided_by, tr.decided_at,
		       tr.created_at, tr.updated_at, COALESCE(t.name, '')
		FROM technician_requests tr
		LEFT JOIN technicians t ON t.id = tr.technician_id
		WHERE ($1::bigint IS NULL OR tr.order_id = $1)
		  AND ($2::bigint IS NULL OR tr.technician_id = $2)
		  AND ($3 = '' OR tr.status = $3)
		ORDER BY tr.created_at DESC, tr.id DESC
		LIMIT $4
	`, f.OrderID, f.TechnicianID, string(f.Status), f.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.TechnicianRequest
	for rows.Next() {
		var req domain.TechnicianRequest
		var category, status string
		if err := rows.Scan(
			&req.ID, &req.OrderID, &req.TechnicianID, &category, &req.Description,
			&req.EstimatedPrice, &req.FinalPrice, &status, &req.DecidedBy, &req.DecidedAt,
			&req.CreatedAt, &req.UpdatedAt, &req.TechnicianName,
		); err != nil {
			return nil, err
		}
		req.Category = domain.RequestCategory(category)
		req.Status = domain.RequestStatus(status)
		items = append(items, req)
	}
	return items, rows.Err()
}

// RevisePrice updates the pending price and appends the revision to the
// side table in one transaction.
func (r RequestRepository) RevisePrice(ctx context.Context, id int64, newPrice float64, changedBy, reason string) (*domain.TechnicianRequest, error) {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var oldPrice float64
	var status string
	if err := tx.QueryRow(ctx, `
		SELECT estimated_price, status FROM technician_requests WHERE id=$1 FOR UPDATE
	`, id).Scan(&oldPrice, &status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if domain.RequestStatus(status) != domain.RequestPending {
		return nil, ErrRequestDecided
	}

	req, err := scanRequest(tx.QueryRow(ctx, `
		UPDATE technician_requests SET estimated_price=$1, updated_at=now()
		WHERE id=$2
		RETURNING id, order_id, technician_id, category, description, estimated_price, final_price,
		          status, decided_by, decided_at, created_at, updated_at
	`, newPrice, id))
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO request_price_changes (request_id, old_price, new_price, changed_by, reason, changed_at)
		VALUES ($1,$2,$3,$4,$5, now())
	`, id, oldPrice, newPrice, changedBy, reason); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return req, nil
}

// Decide approves or rejects a pending request. The after hook runs inside
// the same transaction so an approval and its invoice line commit atomically.
func (r RequestRepository) Decide(ctx context.Context, id int64, to domain.RequestStatus, finalPrice *float64, decidedBy int64, after func(context.Context, pgx.Tx, *domain.TechnicianRequest) error) (*domain.TechnicianRequest, error) {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var status string
	if err := tx.QueryRow(ctx, `
		SELECT status FROM technician_requests WHERE id=$1 FOR UPDATE
	`, id).Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if domain.RequestStatus(status) != domain.RequestPending {
		return nil, ErrRequestDecided
	}

	req, err := scanRequest(tx.QueryRow(ctx, `
		UPDATE technician_requests
		SET status=$1, final_price=COALESCE($2, estimated_price), decided_by=$3, decided_at=$4, updated_at=now()
		WHERE id=$5
		RETURNING id, order_id, technician_id, category, description, estimated_price, final_price,
		          status, decided_by, decided_at, created_at, updated_at
	`, to, finalPrice, decidedBy, time.Now(), id))
	if err != nil {
		return nil, err
	}

	if after != nil {
		if err := after(ctx, tx, req); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return req, nil
}

func (r RequestRepository) PriceChanges(ctx context.Context, requestID int64) ([]domain.PriceChange, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, request_id, old_price, new_price, changed_by, reason, changed_at
		FROM request_price_changes
		WHERE request_id=$1
		ORDER BY changed_at ASC, id ASC
	`, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PriceChange
	for rows.Next() {
		var pc domain.PriceChange
		if err := rows.Scan(&pc.ID, &pc.RequestID, &pc.OldPrice, &pc.NewPrice, &pc.ChangedBy, &pc.Reason, &pc.ChangedAt); err != nil {
			return nil, err
		}
		out = append(out, pc)
	}
	return out, rows.Err()
}

func scanRequest(row pgx.Row) (*domain.TechnicianRequest, error) {
	var req domain.TechnicianRequest
	var category, status string
	if err := row.Scan(
		&req.ID, &req.OrderID, &req.TechnicianID, &category, &req.Description,
		&req.EstimatedPrice, &req.FinalPrice, &status, &req.DecidedBy, &req.DecidedAt,
		&req.CreatedAt, &req.UpdatedAt,
	); err != nil {
		return nil, err
	}
	req.Category = domain.RequestCategory(category)
	req.Status = domain.RequestStatus(status)
	return &req, nil
}

// ErrRequestDecided is returned when acting on a request that is no longer
// pending.
var ErrRequestDecided = errors.New("request already decided")
