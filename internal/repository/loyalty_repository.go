package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"repairhub-backend/internal/db"
	"repairhub-backend/internal/domain"
)

type LoyaltyRepository struct {
	DB *db.Postgres
}

// Ensure returns the account for a customer, creating it with the welcome
// bonus on first sight. The insert and its ledger entry share a transaction.
func (r LoyaltyRepository) Ensure(ctx context.Context, phone string, welcomePoints int64) (*domain.LoyaltyAccount, error) {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	a, err := r.ensureWith(ctx, tx, phone, welcomePoints)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

// EnsureWithTx is Ensure inside a caller-owned transaction.
func (r LoyaltyRepository) EnsureWithTx(ctx context.Context, tx pgx.Tx, phone string, welcomePoints int64) (*domain.LoyaltyAccount, error) {
	return r.ensureWith(ctx, tx, phone, welcomePoints)
}

func (r LoyaltyRepository) ensureWith(ctx context.Context, q querier, phone string, welcomePoints int64) (*domain.LoyaltyAccount, error) {
	var a domain.LoyaltyAccount
	err := q.QueryRow(ctx, `
		INSERT INTO loyalty_accounts (customer_phone, points, total_spent, orders_completed, created_at, updated_at)
		VALUES ($1,$2,0,0, now(), now())
		ON CONFLICT (customer_phone) DO NOTHING
		RETURNING customer_phone, points, total_spent, orders_completed, created_at, updated_at
	`, phone, welcomePoints).Scan(&a.CustomerPhone, &a.Points, &a.TotalSpent, &a.OrdersCompleted, &a.CreatedAt, &a.UpdatedAt)
	if err == nil {
		if _, err := q.Exec(ctx, `
			INSERT INTO loyalty_events (customer_phone, points, reason, created_at)
			VALUES ($1,$2,'welcome_bonus', now())
		`, phone, welcomePoints); err != nil {
			return nil, err
		}
		return &a, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	// Account already existed.
	err = q.QueryRow(ctx, `
		SELECT customer_phone, points, total_spent, orders_completed, created_at, updated_at
		FROM loyalty_accounts
		WHERE customer_phone=$1
	`, phone).Scan(&a.CustomerPhone, &a.Points, &a.TotalSpent, &a.OrdersCompleted, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r LoyaltyRepository) Get(ctx context.Context, phone string) (*domain.LoyaltyAccount, error) {
	var a domain.LoyaltyAccount
	err := r.DB.Pool.QueryRow(ctx, `
		SELECT customer_phone, points, total_spent, orders_completed, created_at, updated_at
		FROM loyalty_accounts
		WHERE customer_phone=$1
	`, phone).Scan(&a.CustomerPhone, &a.Points, &a.TotalSpent, &a.OrdersCompleted, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

type AccrueInput struct {
	Phone        string
	Points       int64
	Spent        float64
	Reason       string
	OrderID      *int64
	CountAsOrder bool
}

// Accrue adds points and appends the ledger entry atomically.
func (r LoyaltyRepository) Accrue(ctx context.Context, in AccrueInput) (*domain.LoyaltyAccount, error) {
	return r.accrueWith(ctx, r.DB.Pool, in)
}

// AccrueWithTx accrues inside a caller-owned transaction (order completion).
func (r LoyaltyRepository) AccrueWithTx(ctx context.Context, tx pgx.Tx, in AccrueInput) (*domain.LoyaltyAccount, error) {
	return r.accrueWith(ctx, tx, in)
}

func (r LoyaltyRepository) accrueWith(ctx context.Context, q querier, in AccrueInput) (*domain.LoyaltyAccount, error) {
	completedDelta := 0
	if in.CountAsOrder {
		completedDelta = 1
	}
	var a domain.LoyaltyAccount
	err := q.QueryRow(ctx, `
		UPDATE loyalty_accounts
		SET points = points + $1,
		    total_spent = total_spent + $2,
		    orders_completed = orders_completed + $3,
		    updated_at = now()
		WHERE customer_phone=$4
		RETURNING customer_phone, points, total_spent, orders_completed, created_at, updated_at
	`, in.Points, in.Spent, completedDelta, in.Phone).Scan(
		&a.CustomerPhone, &a.Points, &a.TotalSpent, &a.OrdersCompleted, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if _, err := q.Exec(ctx, `
		INSERT INTO loyalty_events (customer_phone, points, reason, order_id, created_at)
		VALUES ($1,$2,$3,$4, now())
	`, in.Phone, in.Points, in.Reason, in.OrderID); err != nil {
		return nil, err
	}
	return &a, nil
}

// Redeem decrements points only when the balance covers the request; the
// guard lives in the UPDATE predicate so a concurrent redemption cannot
// overdraw. Returns ErrInsufficientPoints and leaves the balance unchanged
// otherwise.
func (r LoyaltyRepository) Redeem(ctx context.Context, phone string, points int64) (*domain.LoyaltyAccount, error) {
	if points <= 0 {
		return nil, ErrInsufficientPoints
	}

	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var a domain.LoyaltyAccount
	err = tx.QueryRow(ctx, `
		UPDATE loyalty_accounts
		SET points = points - $1, updated_at = now()
		WHERE customer_phone=$2 AND points >= $1
		RETURNING customer_phone, points, total_spent, orders_completed, created_at, updated_at
	`, points, phone).Scan(&a.CustomerPhone, &a.Points, &a.TotalSpent, &a.OrdersCompleted, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either no such account or not enough points; distinguish for the caller.
			if _, getErr := r.Get(ctx, phone); getErr != nil {
				return nil, getErr
			}
			return nil, ErrInsufficientPoints
		}
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO loyalty_events (customer_phone, points, reason, created_at)
		VALUES ($1,$2,'redemption', now())
	`, phone, -points); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r LoyaltyRepository) Events(ctx context.Context, phone string, limit int) ([]domain.LoyaltyEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, customer_phone, points, reason, order_id, created_at
		FROM loyalty_events
		WHERE customer_phone=$1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, phone, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.LoyaltyEvent
	for rows.Next() {
		var ev domain.LoyaltyEvent
		if err := rows.Scan(&ev.ID, &ev.CustomerPhone, &ev.Points, &ev.Reason, &ev.OrderID, &ev.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// ErrInsufficientPoints is returned when a redemption exceeds the balance.
var ErrInsufficientPoints = errors.New("insufficient points")
