package repository

import (
	"context"
	"time"

	"repairhub-backend/internal/db"
	"repairhub-backend/internal/domain"
)

type DashboardRepository struct {
	DB *db.Postgres
}

// invoiceTotalExpr mirrors ComputeInvoiceTotals in SQL so aggregate
// reports agree with per-order invoices.
const invoiceTotalExpr = `
	(COALESCE(li.subtotal, 0) - o.discount) *
	(1 + CASE WHEN o.vat_enabled THEN o.vat_rate ELSE 0 END)
`

const lineItemsJoin = `
	LEFT JOIN (
		SELECT order_id, SUM(qty * unit_price) AS subtotal
		FROM order_items
		GROUP BY order_id
	) li ON li.order_id = o.id
`

type DashboardCounts struct {
	TotalOrders     int     `json:"total_orders"`
	PendingOrders   int     `json:"pending_orders"`
	InProgress      int     `json:"in_progress_orders"`
	CompletedOrders int     `json:"completed_orders"`
	CancelledOrders int     `json:"cancelled_orders"`
	Technicians     int     `json:"technicians"`
	PendingRequests int     `json:"pending_requests"`
	LowStockParts   int     `json:"low_stock_parts"`
	RevenueToday    float64 `json:"revenue_today"`
	RevenueMonth    float64 `json:"revenue_month"`
}

func (r DashboardRepository) Counts(ctx context.Context) (*DashboardCounts, error) {
	var c DashboardCounts
	err := r.DB.Pool.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM orders WHERE deleted_at IS NULL),
			(SELECT count(*) FROM orders WHERE deleted_at IS NULL AND status=$1),
			(SELECT count(*) FROM orders WHERE deleted_at IS NULL AND status=$2),
			(SELECT count(*) FROM orders WHERE deleted_at IS NULL AND status=$3),
			(SELECT count(*) FROM orders WHERE deleted_at IS NULL AND status=$4),
			(SELECT count(*) FROM technicians WHERE deleted_at IS NULL AND active),
			(SELECT count(*) FROM technician_requests WHERE status=$1),
			(SELECT count(*) FROM parts WHERE deleted_at IS NULL AND quantity <= min_stock)
	`, domain.OrderPending, domain.OrderInProgress, domain.OrderCompleted, domain.OrderCancelled).Scan(
		&c.TotalOrders, &c.PendingOrders, &c.InProgress, &c.CompletedOrders, &c.CancelledOrders,
		&c.Technicians, &c.PendingRequests, &c.LowStockParts,
	)
	if err != nil {
		return nil, err
	}

	err = r.DB.Pool.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN o.updated_at::date = now()::date THEN `+invoiceTotalExpr+` END), 0),
			COALESCE(SUM(CASE WHEN date_trunc('month', o.updated_at) = date_trunc('month', now()) THEN `+invoiceTotalExpr+` END), 0)
		FROM orders o
		`+lineItemsJoin+`
		WHERE o.deleted_at IS NULL AND o.status = $1
	`, domain.OrderCompleted).Scan(&c.RevenueToday, &c.RevenueMonth)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Revenue buckets completed-order invoice totals per day in [from, to].
func (r DashboardRepository) Revenue(ctx context.Context, from, to time.Time) ([]domain.RevenueRow, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT to_char(o.updated_at::date, 'YYYY-MM-DD') AS day,
		       count(*) AS orders,
		       COALESCE(SUM(`+invoiceTotalExpr+`), 0) AS revenue
		FROM orders o
		`+lineItemsJoin+`
		WHERE o.deleted_at IS NULL AND o.status = $1
		  AND o.updated_at >= $2 AND o.updated_at < $3
		GROUP BY day
		ORDER BY day
	`, domain.OrderCompleted, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RevenueRow
	for rows.Next() {
		var row domain.RevenueRow
		if err := rows.Scan(&row.Date, &row.Orders, &row.Revenue); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r DashboardRepository) TechnicianPerformance(ctx context.Context, from, to time.Time) ([]domain.TechnicianPerformanceRow, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT t.name,
		       count(*) AS completed,
		       COALESCE(AVG(o.rating), 0) AS avg_rating,
		       COALESCE(SUM(`+invoiceTotalExpr+`), 0) AS revenue
		FROM orders o
		JOIN technicians t ON t.id = o.technician_id
		`+lineItemsJoin+`
		WHERE o.deleted_at IS NULL AND o.status = $1
		  AND o.updated_at >= $2 AND o.updated_at < $3
		GROUP BY t.name
		ORDER BY completed DESC, t.name
	`, domain.OrderCompleted, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.TechnicianPerformanceRow
	for rows.Next() {
		var row domain.TechnicianPerformanceRow
		if err := rows.Scan(&row.Name, &row.Completed, &row.AvgRating, &row.Revenue); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
