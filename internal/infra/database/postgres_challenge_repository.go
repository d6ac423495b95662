// internal/infra/database/postgres_challenge_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"team_challenge_bot/internal/domain/challenge"
)

// Custom errors specific to challenge items
var ErrChallengeNotFound = fmt.Errorf("challenge item not found")

type PostgresChallengeRepository struct {
	db *sql.DB
}

func NewPostgresChallengeRepository(db *sql.DB) *PostgresChallengeRepository {
	return &PostgresChallengeRepository{db: db}
}

const challengeColumns = `id, recipient_id, creator_id, text, points, status, scheduled_for, sent_at, time_slot, difficulty, duration, focus_area, created_at, updated_at`

func scanChallengeItem(row *sql.Row) (*challenge.Item, error) {
	item := &challenge.Item{}
	err := row.Scan(
		&item.ID, &item.RecipientID, &item.CreatorID, &item.Text, &item.Points, &item.Status,
		&item.ScheduledFor, &item.SentAt, &item.TimeSlot,
		&item.Difficulty, &item.Duration, &item.FocusArea, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *PostgresChallengeRepository) Create(ctx context.Context, item *challenge.Item) error {
	query := `INSERT INTO challenge_items (recipient_id, creator_id, text, points, status, scheduled_for, sent_at, time_slot, difficulty, duration, focus_area)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
               RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		item.RecipientID, item.CreatorID, item.Text, item.Points, item.Status,
		item.ScheduledFor, item.SentAt, item.TimeSlot, item.Difficulty, item.Duration, item.FocusArea,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating challenge item: %w", err)
	}
	return nil
}

func (r *PostgresChallengeRepository) BulkCreate(ctx context.Context, items []*challenge.Item) error {
	if len(items) == 0 {
		return nil
	}

	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for bulk create: %w", err)
	}
	defer txn.Rollback() // Rollback if not committed

	stmt, err := txn.PrepareContext(ctx, `INSERT INTO challenge_items (recipient_id, creator_id, text, points, status, scheduled_for, sent_at, time_slot, difficulty, duration, focus_area)
                                         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for bulk create: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		_, err := stmt.ExecContext(ctx,
			item.RecipientID, item.CreatorID, item.Text, item.Points, item.Status,
			item.ScheduledFor, item.SentAt, item.TimeSlot, item.Difficulty, item.Duration, item.FocusArea,
		)
		if err != nil {
			return fmt.Errorf("error executing statement for bulk create (item for R:%d): %w", item.RecipientID, err)
		}
	}

	return txn.Commit()
}

func (r *PostgresChallengeRepository) GetByID(ctx context.Context, id int64) (*challenge.Item, error) {
	query := `SELECT ` + challengeColumns + ` FROM challenge_items WHERE id = $1`
	item, err := scanChallengeItem(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrChallengeNotFound
		}
		return nil, fmt.Errorf("error getting challenge item by ID: %w", err)
	}
	return item, nil
}

func (r *PostgresChallengeRepository) Update(ctx context.Context, item *challenge.Item) error {
	query := `UPDATE challenge_items
               SET text = $1, points = $2, status = $3, scheduled_for = $4, sent_at = $5, updated_at = NOW()
               WHERE id = $6
               RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query,
		item.Text, item.Points, item.Status, item.ScheduledFor, item.SentAt, item.ID,
	).Scan(&item.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrChallengeNotFound
		}
		return fmt.Errorf("error updating challenge item: %w", err)
	}
	return nil
}

func (r *PostgresChallengeRepository) ListDue(ctx context.Context, before time.Time) ([]*challenge.Item, error) {
	query := `SELECT ` + challengeColumns + `
               FROM challenge_items
               WHERE status = $1 AND sent_at IS NULL AND scheduled_for <= $2
               ORDER BY scheduled_for ASC`
	rows, err := r.db.QueryContext(ctx, query, challenge.StatusScheduled, before)
	if err != nil {
		return nil, fmt.Errorf("error querying due challenge items: %w", err)
	}
	defer rows.Close()

	items := make([]*challenge.Item, 0)
	for rows.Next() {
		item := &challenge.Item{}
		if err := rows.Scan(
			&item.ID, &item.RecipientID, &item.CreatorID, &item.Text, &item.Points, &item.Status,
			&item.ScheduledFor, &item.SentAt, &item.TimeSlot,
			&item.Difficulty, &item.Duration, &item.FocusArea, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning due challenge item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating due challenge items: %w", err)
	}
	return items, nil
}
