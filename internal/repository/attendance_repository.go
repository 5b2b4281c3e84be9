package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"repairhub-backend/internal/db"
	"repairhub-backend/internal/domain"
)

type AttendanceRepository struct {
	DB *db.Postgres
}

type CheckInInput struct {
	TechnicianID int64
	OrderID      int64
	Latitude     float64
	Longitude    float64
	Accuracy     *float64
	DistanceKM   float64
	WithinRange  bool
}

func (r AttendanceRepository) CheckIn(ctx context.Context, in CheckInInput) (*domain.Attendance, error) {
	var a domain.Attendance
	err := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO attendance (technician_id, order_id, check_in, latitude, longitude, accuracy, distance_km, within_range, created_at)
		VALUES ($1,$2, now(), $3,$4,$5,$6,$7, now())
		RETURNING id, technician_id, order_id, check_in, check_out, latitude, longitude, accuracy, distance_km, within_range, created_at
	`, in.TechnicianID, in.OrderID, in.Latitude, in.Longitude, in.Accuracy, in.DistanceKM, in.WithinRange).Scan(
		&a.ID, &a.TechnicianID, &a.OrderID, &a.CheckIn, &a.CheckOut,
		&a.Latitude, &a.Longitude, &a.Accuracy, &a.DistanceKM, &a.WithinRange, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CheckOut closes the most recent open record for the technician on the order.
func (r AttendanceRepository) CheckOut(ctx context.Context, technicianID, orderID int64) (*domain.Attendance, error) {
	var a domain.Attendance
	err := r.DB.Pool.QueryRow(ctx, `
		UPDATE attendance SET check_out = now()
		WHERE id = (
			SELECT id FROM attendance
			WHERE technician_id=$1 AND order_id=$2 AND check_out IS NULL
			ORDER BY check_in DESC LIMIT 1
		)
		RETURNING id, technician_id, order_id, check_in, check_out, latitude, longitude, accuracy, distance_km, within_range, created_at
	`, technicianID, orderID).Scan(
		&a.ID, &a.TechnicianID, &a.OrderID, &a.CheckIn, &a.CheckOut,
		&a.Latitude, &a.Longitude, &a.Accuracy, &a.DistanceKM, &a.WithinRange, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r AttendanceRepository) ListByTechnician(ctx context.Context, technicianID int64, limit int) ([]domain.Attendance, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, technician_id, order_id, check_in, check_out, latitude, longitude, accuracy, distance_km, within_range, created_at
		FROM attendance
		WHERE technician_id=$1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, technicianID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Attendance
	for rows.Next() {
		var a domain.Attendance
		if err := rows.Scan(&a.ID, &a.TechnicianID, &a.OrderID, &a.CheckIn, &a.CheckOut,
			&a.Latitude, &a.Longitude, &a.Accuracy, &a.DistanceKM, &a.WithinRange, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
