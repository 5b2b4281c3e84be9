package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"repairhub-backend/internal/db"
	"repairhub-backend/internal/domain"
)

type PartRepository struct {
	DB *db.Postgres
}

type SavePartInput struct {
	Name       string
	SKU        string
	Quantity   int
	MinStock   int
	UnitPrice  float64
	SupplierID *int64
}

func (r PartRepository) Create(ctx context.Context, in SavePartInput) (*domain.Part, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO parts (name, sku, quantity, min_stock, unit_price, supplier_id, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6, now(), now())
		RETURNING id, name, sku, quantity, min_stock, unit_price, supplier_id, created_at, updated_at
	`, in.Name, in.SKU, in.Quantity, in.MinStock, in.UnitPrice, in.SupplierID)
	return scanPart(row)
}

func (r PartRepository) Update(ctx context.Context, id int64, in SavePartInput) (*domain.Part, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		UPDATE parts
		SET name=$1, sku=$2, min_stock=$3, unit_price=$4, supplier_id=$5, updated_at=now()
		WHERE id=$6 AND deleted_at IS NULL
		RETURNING id, name, sku, quantity, min_stock, unit_price, supplier_id, created_at, updated_at
	`, in.Name, in.SKU, in.MinStock, in.UnitPrice, in.SupplierID, id)
	part, err := scanPart(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return part, nil
}

func (r PartRepository) Get(ctx context.Context, id int64) (*domain.Part, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT p.id, p.name, p.sku, p.quantity, p.min_stock, p.unit_price, p.supplier_id, p.created_at, p.updated_at
		FROM parts p
		WHERE p.id=$1 AND p.deleted_at IS NULL
	`, id)
	part, err := scanPart(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return part, nil
}

func (r PartRepository) List(ctx context.Context, limit int) ([]domain.Part, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT p.id, p.name, p.sku, p.quantity, p.min_stock, p.unit_price, p.supplier_id,
		       COALESCE(s.name, ''), p.created_at, p.updated_at
		FROM parts p
		LEFT JOIN suppliers s ON s.id = p.supplier_id AND s.deleted_at IS NULL
		WHERE p.deleted_at IS NULL
		ORDER BY p.name ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Part
	for rows.Next() {
		var p domain.Part
		if err := rows.Scan(&p.ID, &p.Name, &p.SKU, &p.Quantity, &p.MinStock, &p.UnitPrice,
			&p.SupplierID, &p.Supplier, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (r PartRepository) ListLowStock(ctx context.Context) ([]domain.Part, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT p.id, p.name, p.sku, p.quantity, p.min_stock, p.unit_price, p.supplier_id,
		       COALESCE(s.name, ''), p.created_at, p.updated_at
		FROM parts p
		LEFT JOIN suppliers s ON s.id = p.supplier_id AND s.deleted_at IS NULL
		WHERE p.deleted_at IS NULL AND p.quantity <= p.min_stock
		ORDER BY p.quantity ASC, p.name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Part
	for rows.Next() {
		var p domain.Part
		if err := rows.Scan(&p.ID, &p.Name, &p.SKU, &p.Quantity, &p.MinStock, &p.UnitPrice,
			&p.SupplierID, &p.Supplier, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

type AdjustStockInput struct {
	PartID int64
	Change int
	Type   string
	Note   string
}

// Adjust changes a part's quantity under a row lock and appends the movement
// to part_stock_history. "reduce" negates a positive change, "recount"
// interprets Change as the absolute quantity.
func (r PartRepository) Adjust(ctx context.Context, in AdjustStockInput) (*domain.Part, error) {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		SELECT id, name, sku, quantity, min_stock, unit_price, supplier_id, created_at, updated_at
		FROM parts
		WHERE id=$1 AND deleted_at IS NULL
		FOR UPDATE
	`, in.PartID)
	current, err := scanPart(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	change := in.Change
	switch strings.ToLower(strings.TrimSpace(in.Type)) {
	case "reduce":
		if change > 0 {
			change = -change
		}
	case "recount":
		if change < 0 {
			change = 0
		}
		change = change - current.Quantity
	}

	newQty := current.Quantity + change
	if newQty < 0 {
		newQty = 0
	}

	if _, err := tx.Exec(ctx, `
		UPDATE parts SET quantity=$1, updated_at=now() WHERE id=$2
	`, newQty, in.PartID); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO part_stock_history (part_id, change, remaining, note, type, created_at)
		VALUES ($1,$2,$3,$4,$5, now())
	`, in.PartID, change, newQty, in.Note, in.Type); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	current.Quantity = newQty
	return current, nil
}

// ConsumeWithTx decrements stock for an approved spare-part request inside
// the caller's transaction.
func (r PartRepository) ConsumeWithTx(ctx context.Context, tx pgx.Tx, partID int64, qty int, note string) error {
	var current int
	if err := tx.QueryRow(ctx, `
		SELECT quantity FROM parts WHERE id=$1 AND deleted_at IS NULL FOR UPDATE
	`, partID).Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	newQty := current - qty
	if newQty < 0 {
		newQty = 0
	}
	if _, err := tx.Exec(ctx, `
		UPDATE parts SET quantity=$1, updated_at=now() WHERE id=$2
	`, newQty, partID); err != nil {
		return err
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO part_stock_history (part_id, change, remaining, note, type, created_at)
		VALUES ($1,$2,$3,$4,'consume', now())
	`, partID, newQty-current, newQty, note)
	return err
}

func (r PartRepository) History(ctx context.Context, partID int64, limit int) ([]map[string]any, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, change, remaining, note, type, created_at
		FROM part_stock_history
		WHERE part_id=$1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, partID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []map[string]any
	for rows.Next() {
		var id int64
		var change, remaining int
		var note, typ string
		var createdAt any
		if err := rows.Scan(&id, &change, &remaining, &note, &typ, &createdAt); err != nil {
			return nil, err
		}
		items = append(items, map[string]any{
			"id":        id,
			"change":    change,
			"remaining": remaining,
			"note":      note,
			"type":      typ,
			"createdAt": createdAt,
		})
	}
	return items, rows.Err()
}

func (r PartRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.DB.Pool.Exec(ctx, `
		UPDATE parts SET deleted_at=now(), updated_at=now() WHERE id=$1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanPart(row pgx.Row) (*domain.Part, error) {
	var p domain.Part
	if err := row.Scan(&p.ID, &p.Name, &p.SKU, &p.Quantity, &p.MinStock, &p.UnitPrice,
		&p.SupplierID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
