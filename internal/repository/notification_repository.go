package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"repairhub-backend/internal/db"
	"repairhub-backend/internal/domain"
)

type NotificationRepository struct {
	DB *db.Postgres
}

type CreateNotificationInput struct {
	Role    domain.UserRole
	UserID  *int64
	Type    domain.NotificationType
	Title   string
	Message string
	Link    string
}

func (r NotificationRepository) Create(ctx context.Context, in CreateNotificationInput) (*domain.Notification, error) {
	var n domain.Notification
	var userID pgtype.Int8
	err := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO notifications (role, user_id, type, title, message, link, created_at)
		VALUES ($1,$2,$3,$4,$5,$6, now())
		RETURNING id, role, user_id, type, title, message, link, created_at, read_at
	`, string(in.Role), in.UserID, string(in.Type), in.Title, in.Message, in.Link).Scan(
		&n.ID, (*string)(&n.Role), &userID, (*string)(&n.Type), &n.Title, &n.Message, &n.Link, &n.CreatedAt, &n.ReadAt,
	)
	if err != nil {
		return nil, err
	}
	if userID.Valid {
		n.UserID = &userID.Int64
	}
	return &n, nil
}

// List returns notifications addressed to the user directly or to their role,
// newest first. The portal badge caps the list at 20.
func (r NotificationRepository) List(ctx context.Context, role domain.UserRole, userID int64, limit int) ([]domain.Notification, error) {
	if limit <= 0 || limit > 20 {
		limit = 20
	}
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, role, user_id, type, title, message, link, created_at, read_at
		FROM notifications
		WHERE user_id = $1 OR (user_id IS NULL AND role = $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`, userID, string(role), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Notification
	for rows.Next() {
		var n domain.Notification
		var uid pgtype.Int8
		if err := rows.Scan(&n.ID, (*string)(&n.Role), &uid, (*string)(&n.Type), &n.Title, &n.Message, &n.Link, &n.CreatedAt, &n.ReadAt); err != nil {
			return nil, err
		}
		if uid.Valid {
			n.UserID = &uid.Int64
		}
		items = append(items, n)
	}
	return items, rows.Err()
}

func (r NotificationRepository) MarkRead(ctx context.Context, id int64) error {
	tag, err := r.DB.Pool.Exec(ctx, `
		UPDATE notifications SET read_at=now() WHERE id=$1 AND read_at IS NULL
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r NotificationRepository) UnreadCount(ctx context.Context, role domain.UserRole, userID int64) (int, error) {
	var count int
	err := r.DB.Pool.QueryRow(ctx, `
		SELECT count(*)
		FROM notifications
		WHERE read_at IS NULL
		  AND (user_id = $1 OR (user_id IS NULL AND role = $2))
	`, userID, string(role)).Scan(&count)
	return count, err
}
