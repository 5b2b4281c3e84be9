package repository

import (
	"context"

	"repairhub-backend/internal/db"
	"repairhub-backend/internal/domain"
)

type AuditLogRepository struct {
	DB *db.Postgres
}

type CreateAuditLogInput struct {
	Action   string
	Category string
	Actor    string
	UserID   *int64
	Details  string
	Type     domain.AuditLogType
}

func (r AuditLogRepository) Create(ctx context.Context, in CreateAuditLogInput) (int64, error) {
	typ := in.Type
	if typ == "" {
		typ = domain.AuditInfo
	}
	var id int64
	err := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO audit_logs (action, category, actor, user_id, details, type, logged_at)
		VALUES ($1,$2,$3,$4,$5,$6, now())
		RETURNING id
	`, in.Action, in.Category, in.Actor, in.UserID, in.Details, string(typ)).Scan(&id)
	return id, err
}

func (r AuditLogRepository) List(ctx context.Context, category string, limit int) ([]domain.AuditLog, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, action, category, actor, user_id, details, type, logged_at
		FROM audit_logs
		WHERE ($1 = '' OR category = $1)
		ORDER BY logged_at DESC, id DESC
		LIMIT $2
	`, category, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AuditLog
	for rows.Next() {
		var l domain.AuditLog
		var typ string
		if err := rows.Scan(&l.ID, &l.Action, &l.Category, &l.Actor, &l.UserID, &l.Details, &typ, &l.LoggedAt); err != nil {
			return nil, err
		}
		l.Type = domain.AuditLogType(typ)
		out = append(out, l)
	}
	return out, rows.Err()
}
