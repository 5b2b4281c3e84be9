package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"repairhub-backend/internal/db"
	"repairhub-backend/internal/domain"
)

type OrderRepository struct {
	DB *db.Postgres
}

// querier is satisfied by both pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type CreateOrderInput struct {
	CustomerName  string
	CustomerPhone string
	CustomerEmail string
	Device        string
	Brand         string
	Model         string
	Issue         string
	Address       string
	Latitude      *float64
	Longitude     *float64
	VATEnabled    bool
	VATRate       float64
}

func (r OrderRepository) Create(ctx context.Context, in CreateOrderInput) (*domain.Order, error) {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	code := fmt.Sprintf("ORD-%d", time.Now().UnixNano()/1e6)
	var o domain.Order
	err = tx.QueryRow(ctx, `
		INSERT INTO orders
		(code, customer_name, customer_phone, customer_email, device, brand, model, issue,
		 address, latitude, longitude, status, vat_enabled, vat_rate, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14, now(), now())
		RETURNING id, created_at, updated_at
	`, code, in.CustomerName, in.CustomerPhone, in.CustomerEmail, in.Device, in.Brand, in.Model, in.Issue,
		in.Address, in.Latitude, in.Longitude, domain.OrderPending, in.VATEnabled, in.VATRate,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO order_status_history (order_id, from_status, to_status, changed_by, note, changed_at)
		VALUES ($1, '', $2, $3, '', now())
	`, o.ID, domain.OrderPending, in.CustomerName)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	o.Code = code
	o.CustomerName = in.CustomerName
	o.CustomerPhone = in.CustomerPhone
	o.CustomerEmail = in.CustomerEmail
	o.Device = in.Device
	o.Brand = in.Brand
	o.Model = in.Model
	o.Issue = in.Issue
	o.Address = in.Address
	o.Latitude = in.Latitude
	o.Longitude = in.Longitude
	o.Status = domain.OrderPending
	o.VATEnabled = in.VATEnabled
	o.VATRate = in.VATRate
	return &o, nil
}

func (r OrderRepository) Get(ctx context.Context, id int64) (*domain.Order, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT o.id, o.code, o.customer_name, o.customer_phone, o.customer_email,
		       o.device, o.brand, o.model, o.issue, o.address, o.latitude, o.longitude,
		       o.status, o.technician_id, COALESCE(t.name, ''), o.discount, o.vat_enabled, o.vat_rate,
		       o.rating, o.rating_comment, o.created_at, o.updated_at
		FROM orders o
		LEFT JOIN technicians t ON t.id = o.technician_id
		WHERE o.id=$1 AND o.deleted_at IS NULL
	`, id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	items, err := r.listItems(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Items = items

	photos, err := r.listPhotos(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Photos = photos
	return o, nil
}

type ListOrdersFilter struct {
	Status       domain.OrderStatus
	TechnicianID *int64
	Phone        string
	Limit        int
}

func (r OrderRepository) List(ctx context.Context, f ListOrdersFilter) ([]domain.Order, error) {
	if f.Limit <= 0 {
		f.Limit = 200
	}
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT o.id, o.code, o.customer_name, o.customer_phone, o.customer_email,
		       o.device, o.brand, o.model, o.issue, o.address, o.latitude, o.longitude,
		       o.status, o.technician_id, COALESCE(t.name, ''), o.discount, o.vat_enabled, o.vat_rate,
		       o.rating, o.rating_comment, o.created_at, o.updated_at
		FROM orders o
		LEFT JOIN technicians t ON t.id = o.technician_id
		WHERE o.deleted_at IS NULL
		  AND ($1 = '' OR o.status = $1)
		  AND ($2::bigint IS NULL OR o.technician_id = $2)
		  AND ($3 = '' OR o.customer_phone = $3)
		ORDER BY o.created_at DESC, o.id DESC
		LIMIT $4
	`, string(f.Status), f.TechnicianID, f.Phone, f.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	var ids []int64
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		ids = append(ids, o.ID)
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return orders, nil
	}

	itemRows, err := r.DB.Pool.Query(ctx, `
		SELECT order_id, id, description, qty, unit_price, request_id, created_at
		FROM order_items
		WHERE order_id = ANY($1)
	`, ids)
	if err != nil {
		return nil, err
	}
	defer itemRows.Close()

	itemsByOrder := make(map[int64][]domain.OrderItem)
	for itemRows.Next() {
		var it domain.OrderItem
		if err := itemRows.Scan(&it.OrderID, &it.ID, &it.Description, &it.Qty, &it.UnitPrice, &it.RequestID, &it.CreatedAt); err != nil {
			return nil, err
		}
		itemsByOrder[it.OrderID] = append(itemsByOrder[it.OrderID], it)
	}
	if err := itemRows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		orders[i].Items = itemsByOrder[orders[i].ID]
	}
	return orders, nil
}

// UpdateStatus flips the status and appends to the history table in one
// transaction. The optional after hook runs inside the same transaction.
func (r OrderRepository) UpdateStatus(ctx context.Context, id int64, to domain.OrderStatus, changedBy, note string, after func(context.Context, pgx.Tx, *domain.Order) error) (*domain.Order, error) {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		SELECT o.id, o.code, o.customer_name, o.customer_phone, o.customer_email,
		       o.device, o.brand, o.model, o.issue, o.address, o.latitude, o.longitude,
		       o.status, o.technician_id, COALESCE(t.name, ''), o.discount, o.vat_enabled, o.vat_rate,
		       o.rating, o.rating_comment, o.created_at, o.updated_at
		FROM orders o
		LEFT JOIN technicians t ON t.id = o.technician_id
		WHERE o.id=$1 AND o.deleted_at IS NULL
		FOR UPDATE OF o
	`, id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if !domain.CanTransition(o.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, to)
	}

	if _, err := tx.Exec(ctx, `UPDATE orders SET status=$1, updated_at=now() WHERE id=$2`, to, id); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO order_status_history (order_id, from_status, to_status, changed_by, note, changed_at)
		VALUES ($1,$2,$3,$4,$5, now())
	`, id, o.Status, to, changedBy, note); err != nil {
		return nil, err
	}

	from := o.Status
	o.Status = to
	if after != nil {
		if err := after(ctx, tx, o); err != nil {
			o.Status = from
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	items, err := r.listItems(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

func (r OrderRepository) AssignTechnician(ctx context.Context, id int64, technicianID int64) error {
	tag, err := r.DB.Pool.Exec(ctx, `
		UPDATE orders SET technician_id=$1, updated_at=now() WHERE id=$2 AND deleted_at IS NULL
	`, technicianID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r OrderRepository) SetInvoiceTerms(ctx context.Context, id int64, discount float64, vatEnabled bool, vatRate float64) error {
	tag, err := r.DB.Pool.Exec(ctx, `
		UPDATE orders SET discount=$1, vat_enabled=$2, vat_rate=$3, updated_at=now()
		WHERE id=$4 AND deleted_at IS NULL
	`, discount, vatEnabled, vatRate, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r OrderRepository) SetRating(ctx context.Context, id int64, rating int, comment string) error {
	tag, err := r.DB.Pool.Exec(ctx, `
		UPDATE orders SET rating=$1, rating_comment=$2, updated_at=now()
		WHERE id=$3 AND status=$4 AND deleted_at IS NULL
	`, rating, comment, id, domain.OrderCompleted)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type AddItemInput struct {
	Description string
	Qty         int
	UnitPrice   float64
	RequestID   *int64
}

func (r OrderRepository) AddItem(ctx context.Context, orderID int64, in AddItemInput) (*domain.OrderItem, error) {
	return addItemWith(ctx, r.DB.Pool, orderID, in)
}

// AddItemWithTx appends an invoice line inside a caller-owned transaction.
func (r OrderRepository) AddItemWithTx(ctx context.Context, tx pgx.Tx, orderID int64, in AddItemInput) (*domain.OrderItem, error) {
	return addItemWith(ctx, tx, orderID, in)
}

func addItemWith(ctx context.Context, q querier, orderID int64, in AddItemInput) (*domain.OrderItem, error) {
	var it domain.OrderItem
	err := q.QueryRow(ctx, `
		INSERT INTO order_items (order_id, description, qty, unit_price, request_id, created_at)
		VALUES ($1,$2,$3,$4,$5, now())
		RETURNING id, order_id, description, qty, unit_price, request_id, created_at
	`, orderID, in.Description, in.Qty, in.UnitPrice, in.RequestID).Scan(
		&it.ID, &it.OrderID, &it.Description, &it.Qty, &it.UnitPrice, &it.RequestID, &it.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r OrderRepository) AddPhoto(ctx context.Context, orderID int64, kind, objectKey, url string) (*domain.OrderPhoto, error) {
	var p domain.OrderPhoto
	err := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO order_photos (order_id, kind, object_key, url, created_at)
		VALUES ($1,$2,$3,$4, now())
		RETURNING id, order_id, kind, object_key, url, created_at
	`, orderID, kind, objectKey, url).Scan(&p.ID, &p.OrderID, &p.Kind, &p.Key, &p.URL, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r OrderRepository) StatusHistory(ctx context.Context, orderID int64, limit int) ([]domain.StatusChange, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, order_id, from_status, to_status, changed_by, note, changed_at
		FROM order_status_history
		WHERE order_id=$1
		ORDER BY changed_at DESC, id DESC
		LIMIT $2
	`, orderID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.StatusChange
	for rows.Next() {
		var sc domain.StatusChange
		var from, to string
		if err := rows.Scan(&sc.ID, &sc.OrderID, &from, &to, &sc.ChangedBy, &sc.Note, &sc.ChangedAt); err != nil {
			return nil, err
		}
		sc.From = domain.OrderStatus(from)
		sc.To = domain.OrderStatus(to)
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (r OrderRepository) listItems(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, order_id, description, qty, unit_price, request_id, created_at
		FROM order_items
		WHERE order_id=$1
		ORDER BY id ASC
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.Description, &it.Qty, &it.UnitPrice, &it.RequestID, &it.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r OrderRepository) listPhotos(ctx context.Context, orderID int64) ([]domain.OrderPhoto, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, order_id, kind, object_key, url, created_at
		FROM order_photos
		WHERE order_id=$1
		ORDER BY id ASC
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var photos []domain.OrderPhoto
	for rows.Next() {
		var p domain.OrderPhoto
		if err := rows.Scan(&p.ID, &p.OrderID, &p.Kind, &p.Key, &p.URL, &p.CreatedAt); err != nil {
			return nil, err
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	var status string
	var techID pgtype.Int8
	var rating pgtype.Int4
	if err := row.Scan(
		&o.ID, &o.Code, &o.CustomerName, &o.CustomerPhone, &o.CustomerEmail,
		&o.Device, &o.Brand, &o.Model, &o.Issue, &o.Address, &o.Latitude, &o.Longitude,
		&status, &techID, &o.Technician, &o.Discount, &o.VATEnabled, &o.VATRate,
		&rating, &o.RatingComment, &o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	o.Status = domain.OrderStatus(status)
	if techID.Valid {
		o.TechnicianID = &techID.Int64
	}
	if rating.Valid {
		v := int(rating.Int32)
		o.Rating = &v
	}
	return &o, nil
}

// ErrInvalidTransition is returned for a status move the workflow forbids.
var ErrInvalidTransition = errors.New("invalid status transition")
