// internal/infra/database/postgres_delivery_log_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"team_challenge_bot/internal/domain/delivery"
)

type PostgresDeliveryLogRepository struct {
	db *sql.DB
}

func NewPostgresDeliveryLogRepository(db *sql.DB) *PostgresDeliveryLogRepository {
	return &PostgresDeliveryLogRepository{db: db}
}

// Record appends one ledger entry. The ledger is append-only; there is no
// update or delete path.
func (r *PostgresDeliveryLogRepository) Record(ctx context.Context, entry *delivery.LogEntry) error {
	query := `INSERT INTO delivery_log (schedule_id, recipient_id, outcome, error_text)
               VALUES ($1, $2, $3, $4)
               RETURNING id, sent_at`
	err := r.db.QueryRowContext(ctx, query, entry.ScheduleID, entry.RecipientID, entry.Outcome, entry.ErrorText).
		Scan(&entry.ID, &entry.SentAt)
	if err != nil {
		return fmt.Errorf("error recording delivery log entry: %w", err)
	}
	return nil
}

func (r *PostgresDeliveryLogRepository) HasSentOnDay(ctx context.Context, scheduleID int64, from, to time.Time) (bool, error) {
	query := `SELECT EXISTS (
                 SELECT 1 FROM delivery_log
                 WHERE schedule_id = $1 AND outcome = $2 AND sent_at >= $3 AND sent_at < $4
               )`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, scheduleID, delivery.OutcomeSent, from, to).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking delivery log for day: %w", err)
	}
	return exists, nil
}

func (r *PostgresDeliveryLogRepository) CountOutcomes(ctx context.Context, scheduleID int64, from, to time.Time) (sent, failed int, err error) {
	query := `SELECT
                 COUNT(*) FILTER (WHERE outcome = $2),
                 COUNT(*) FILTER (WHERE outcome = $3)
               FROM delivery_log
               WHERE schedule_id = $1 AND sent_at >= $4 AND sent_at < $5`
	err = r.db.QueryRowContext(ctx, query, scheduleID, delivery.OutcomeSent, delivery.OutcomeFailed, from, to).
		Scan(&sent, &failed)
	if err != nil {
		return 0, 0, fmt.Errorf("error counting delivery outcomes: %w", err)
	}
	return sent, failed, nil
}
