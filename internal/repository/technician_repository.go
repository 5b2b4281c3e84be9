package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"repairhub-backend/internal/db"
	"repairhub-backend/internal/domain"
)

type TechnicianRepository struct {
	DB *db.Postgres
}

type SaveTechnicianInput struct {
	UserID          *int64
	Name            string
	Phone           string
	Specializations []string
	Active          bool
	Permissions     domain.TechnicianPermissions
}

func (r TechnicianRepository) Create(ctx context.Context, in SaveTechnicianInput) (*domain.Technician, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO technicians
		(user_id, name, phone, specializations, active, can_edit_invoice, can_complete_orders, can_request_parts, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8, now(), now())
		RETURNING id, user_id, name, phone, specializations, active,
		          can_edit_invoice, can_complete_orders, can_request_parts, created_at, updated_at
	`, in.UserID, in.Name, in.Phone, in.Specializations, in.Active,
		in.Permissions.EditInvoice, in.Permissions.CompleteOrders, in.Permissions.RequestParts)
	return scanTechnician(row)
}

func (r TechnicianRepository) Update(ctx context.Context, id int64, in SaveTechnicianInput) (*domain.Technician, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		UPDATE technicians
		SET name=$1, phone=$2, specializations=$3, active=$4,
		    can_edit_invoice=$5, can_complete_orders=$6, can_request_parts=$7, updated_at=now()
		WHERE id=$8 AND deleted_at IS NULL
		RETURNING id, user_id, name, phone, specializations, active,
		          can_edit_invoice, can_complete_orders, can_request_parts, created_at, updated_at
	`, in.Name, in.Phone, in.Specializations, in.Active,
		in.Permissions.EditInvoice, in.Permissions.CompleteOrders, in.Permissions.RequestParts, id)
	tech, err := scanTechnician(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return tech, nil
}

func (r TechnicianRepository) Get(ctx context.Context, id int64) (*domain.Technician, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT id, user_id, name, phone, specializations, active,
		       can_edit_invoice, can_complete_orders, can_request_parts, created_at, updated_at
		FROM technicians
		WHERE id=$1 AND deleted_at IS NULL
	`, id)
	tech, err := scanTechnician(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return tech, nil
}

func (r TechnicianRepository) GetByUserID(ctx context.Context, userID int64) (*domain.Technician, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT id, user_id, name, phone, specializations, active,
		       can_edit_invoice, can_complete_orders, can_request_parts, created_at, updated_at
		FROM technicians
		WHERE user_id=$1 AND deleted_at IS NULL
	`, userID)
	tech, err := scanTechnician(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return tech, nil
}

func (r TechnicianRepository) List(ctx context.Context, activeOnly bool, limit int) ([]domain.Technician, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, user_id, name, phone, specializations, active,
		       can_edit_invoice, can_complete_orders, can_request_parts, created_at, updated_at
		FROM technicians
		WHERE deleted_at IS NULL AND ($1 = false OR active = true)
		ORDER BY name ASC
		LIMIT $2
	`, activeOnly, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Technician
	for rows.Next() {
		tech, err := scanTechnician(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *tech)
	}
	return items, rows.Err()
}

func (r TechnicianRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.DB.Pool.Exec(ctx, `
		UPDATE technicians SET deleted_at=now(), updated_at=now() WHERE id=$1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTechnician(row pgx.Row) (*domain.Technician, error) {
	var t domain.Technician
	if err := row.Scan(
		&t.ID, &t.UserID, &t.Name, &t.Phone, &t.Specializations, &t.Active,
		&t.Permissions.EditInvoice, &t.Permissions.CompleteOrders, &t.Permissions.RequestParts,
		&t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &t, nil
}
