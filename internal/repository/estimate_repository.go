package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"repairhub-backend/internal/db"
	"repairhub-backend/internal/domain"
)

// EstimateRepository persists repair-time overrides keyed by device category
// and issue. It satisfies service.OverrideStore.
type EstimateRepository struct {
	DB *db.Postgres
}

func (r EstimateRepository) Get(ctx context.Context, deviceCategory, issue string) (int, bool, error) {
	var minutes int
	err := r.DB.Pool.QueryRow(ctx, `
		SELECT minutes FROM repair_time_overrides
		WHERE device_category=$1 AND issue=$2
	`, deviceCategory, issue).Scan(&minutes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return minutes, true, nil
}

func (r EstimateRepository) Set(ctx context.Context, deviceCategory, issue string, minutes int) error {
	_, err := r.DB.Pool.Exec(ctx, `
		INSERT INTO repair_time_overrides (device_category, issue, minutes, updated_at)
		VALUES ($1,$2,$3, now())
		ON CONFLICT (device_category, issue)
		DO UPDATE SET minutes = EXCLUDED.minutes, updated_at = now()
	`, deviceCategory, issue, minutes)
	return err
}

func (r EstimateRepository) Remove(ctx context.Context, deviceCategory, issue string) error {
	tag, err := r.DB.Pool.Exec(ctx, `
		DELETE FROM repair_time_overrides WHERE device_category=$1 AND issue=$2
	`, deviceCategory, issue)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r EstimateRepository) List(ctx context.Context) ([]domain.RepairTimeOverride, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT device_category, issue, minutes, updated_at
		FROM repair_time_overrides
		ORDER BY device_category, issue
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RepairTimeOverride
	for rows.Next() {
		var o domain.RepairTimeOverride
		if err := rows.Scan(&o.DeviceCategory, &o.Issue, &o.Minutes, &o.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
