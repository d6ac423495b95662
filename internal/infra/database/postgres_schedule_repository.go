package database

import (
	"context"
	"database/sql"
	"fmt"

	"team_challenge_bot/internal/domain/schedule"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// Custom errors
var ErrScheduleNotFound = fmt.Errorf("schedule definition not found")

type PostgresScheduleRepository struct {
	db *sql.DB
}

func NewPostgresScheduleRepository(db *sql.DB) *PostgresScheduleRepository {
	return &PostgresScheduleRepository{db: db}
}

func (r *PostgresScheduleRepository) Create(ctx context.Context, def *schedule.Definition) error {
	query := `INSERT INTO schedules (org_id, title, body, notify_time, is_daily, day_of_week, status, display_order)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
               RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		def.OrgID, def.Title, def.Body, def.NotifyTime, def.IsDaily, def.DayOfWeek, def.Status, def.DisplayOrder,
	).Scan(&def.ID, &def.CreatedAt, &def.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating schedule definition: %w", err)
	}
	return nil
}

func (r *PostgresScheduleRepository) GetByID(ctx context.Context, id int64) (*schedule.Definition, error) {
	query := `SELECT id, org_id, title, body, notify_time, is_daily, day_of_week, status, display_order, created_at, updated_at
               FROM schedules WHERE id = $1`
	def := &schedule.Definition{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&def.ID, &def.OrgID, &def.Title, &def.Body, &def.NotifyTime,
		&def.IsDaily, &def.DayOfWeek, &def.Status, &def.DisplayOrder, &def.CreatedAt, &def.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrScheduleNotFound
		}
		return nil, fmt.Errorf("error getting schedule by ID: %w", err)
	}
	return def, nil
}

func (r *PostgresScheduleRepository) Update(ctx context.Context, def *schedule.Definition) error {
	query := `UPDATE schedules
               SET title = $1, body = $2, notify_time = $3, is_daily = $4, day_of_week = $5, status = $6, display_order = $7, updated_at = NOW()
               WHERE id = $8
               RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query,
		def.Title, def.Body, def.NotifyTime, def.IsDaily, def.DayOfWeek, def.Status, def.DisplayOrder, def.ID,
	).Scan(&def.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrScheduleNotFound
		}
		return fmt.Errorf("error updating schedule definition: %w", err)
	}
	return nil
}

func (r *PostgresScheduleRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting schedule definition: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading delete result: %w", err)
	}
	if affected == 0 {
		return ErrScheduleNotFound
	}
	return nil
}

// Helper to scan multiple rows
func scanDefinitions(rows *sql.Rows) ([]*schedule.Definition, error) {
	defs := make([]*schedule.Definition, 0)
	for rows.Next() {
		def := &schedule.Definition{}
		if err := rows.Scan(
			&def.ID, &def.OrgID, &def.Title, &def.Body, &def.NotifyTime,
			&def.IsDaily, &def.DayOfWeek, &def.Status, &def.DisplayOrder, &def.CreatedAt, &def.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning schedule row: %w", err)
		}
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating schedule rows: %w", err)
	}
	return defs, nil
}

func (r *PostgresScheduleRepository) ListActive(ctx context.Context) ([]*schedule.Definition, error) {
	query := `SELECT id, org_id, title, body, notify_time, is_daily, day_of_week, status, display_order, created_at, updated_at
               FROM schedules WHERE status = $1 ORDER BY org_id, display_order, notify_time`
	rows, err := r.db.QueryContext(ctx, query, schedule.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("error listing active schedules: %w", err)
	}
	defer rows.Close()
	return scanDefinitions(rows)
}

func (r *PostgresScheduleRepository) ListPage(ctx context.Context, orgID int64, offset, limit int) ([]*schedule.Definition, error) {
	query := `SELECT id, org_id, title, body, notify_time, is_daily, day_of_week, status, display_order, created_at, updated_at
               FROM schedules WHERE org_id = $1
               ORDER BY display_order, notify_time
               OFFSET $2 LIMIT $3`
	rows, err := r.db.QueryContext(ctx, query, orgID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing schedule page: %w", err)
	}
	defer rows.Close()
	return scanDefinitions(rows)
}

func (r *PostgresScheduleRepository) CountByOrg(ctx context.Context, orgID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schedules WHERE org_id = $1`, orgID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting schedules: %w", err)
	}
	return count, nil
}
