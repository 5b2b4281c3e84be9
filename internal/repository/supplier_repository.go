package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"repairhub-backend/internal/db"
	"repairhub-backend/internal/domain"
)

type SupplierRepository struct {
	DB *db.Postgres
}

type SaveSupplierInput struct {
	Name  string
	Phone string
	Email string
}

func (r SupplierRepository) Create(ctx context.Context, in SaveSupplierInput) (*domain.Supplier, error) {
	var s domain.Supplier
	err := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO suppliers (name, phone, email, created_at, updated_at)
		VALUES ($1,$2,$3, now(), now())
		RETURNING id, name, phone, email, created_at, updated_at
	`, in.Name, in.Phone, in.Email).Scan(&s.ID, &s.Name, &s.Phone, &s.Email, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r SupplierRepository) Update(ctx context.Context, id int64, in SaveSupplierInput) (*domain.Supplier, error) {
	var s domain.Supplier
	err := r.DB.Pool.QueryRow(ctx, `
		UPDATE suppliers SET name=$1, phone=$2, email=$3, updated_at=now()
		WHERE id=$4 AND deleted_at IS NULL
		RETURNING id, name, phone, email, created_at, updated_at
	`, in.Name, in.Phone, in.Email, id).Scan(&s.ID, &s.Name, &s.Phone, &s.Email, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r SupplierRepository) Get(ctx context.Context, id int64) (*domain.Supplier, error) {
	var s domain.Supplier
	err := r.DB.Pool.QueryRow(ctx, `
		SELECT id, name, phone, email, created_at, updated_at
		FROM suppliers
		WHERE id=$1 AND deleted_at IS NULL
	`, id).Scan(&s.ID, &s.Name, &s.Phone, &s.Email, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r SupplierRepository) List(ctx context.Context, limit int) ([]domain.Supplier, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, name, phone, email, created_at, updated_at
		FROM suppliers
		WHERE deleted_at IS NULL
		ORDER BY name ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Supplier
	for rows.Next() {
		var s domain.Supplier
		if err := rows.Scan(&s.ID, &s.Name, &s.Phone, &s.Email, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

// Delete soft-deletes the supplier and unlinks its parts in one transaction,
// so a failure part-way cannot leave dangling references.
func (r SupplierRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE suppliers SET deleted_at=now(), updated_at=now() WHERE id=$1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if _, err := tx.Exec(ctx, `
		UPDATE parts SET supplier_id=NULL, updated_at=now() WHERE supplier_id=$1 AND deleted_at IS NULL
	`, id); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
