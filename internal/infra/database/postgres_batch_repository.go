// internal/infra/database/postgres_batch_repository.go
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"team_challenge_bot/internal/domain/challenge"

	"github.com/google/uuid"
)

// Custom errors specific to staged batches
var ErrBatchNotFound = fmt.Errorf("staged challenge batch not found")

type PostgresBatchRepository struct {
	db *sql.DB
}

func NewPostgresBatchRepository(db *sql.DB) *PostgresBatchRepository {
	return &PostgresBatchRepository{db: db}
}

func (r *PostgresBatchRepository) Insert(ctx context.Context, batch *challenge.StagedBatch) error {
	payload, err := json.Marshal(batch.Candidates)
	if err != nil {
		return fmt.Errorf("error marshalling batch payload: %w", err)
	}
	query := `INSERT INTO staged_batches (id, owner_id, org_id, target_chat_id, payload, status, expires_at)
               VALUES ($1, $2, $3, $4, $5, $6, $7)
               RETURNING created_at`
	err = r.db.QueryRowContext(ctx, query,
		batch.ID, batch.OwnerID, batch.OrgID, batch.TargetChatID, payload, batch.Status, batch.ExpiresAt,
	).Scan(&batch.CreatedAt)
	if err != nil {
		return fmt.Errorf("error inserting staged batch: %w", err)
	}
	return nil
}

func (r *PostgresBatchRepository) DeletePendingByOwner(ctx context.Context, ownerID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM staged_batches WHERE owner_id = $1 AND status = $2`,
		ownerID, challenge.BatchStatusPending)
	if err != nil {
		return fmt.Errorf("error deleting pending batches for owner: %w", err)
	}
	return nil
}

func (r *PostgresBatchRepository) GetNewestPendingByOwner(ctx context.Context, ownerID int64) (*challenge.StagedBatch, error) {
	query := `SELECT id, owner_id, org_id, target_chat_id, payload, status, created_at, expires_at
               FROM staged_batches
               WHERE owner_id = $1 AND status = $2
               ORDER BY created_at DESC LIMIT 1`
	batch := &challenge.StagedBatch{}
	var payload []byte
	err := r.db.QueryRowContext(ctx, query, ownerID, challenge.BatchStatusPending).Scan(
		&batch.ID, &batch.OwnerID, &batch.OrgID, &batch.TargetChatID,
		&payload, &batch.Status, &batch.CreatedAt, &batch.ExpiresAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrBatchNotFound
		}
		return nil, fmt.Errorf("error getting pending batch by owner: %w", err)
	}
	if err := json.Unmarshal(payload, &batch.Candidates); err != nil {
		return nil, fmt.Errorf("error unmarshalling batch payload: %w", err)
	}
	return batch, nil
}

func (r *PostgresBatchRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status challenge.BatchStatus) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE staged_batches SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return false, fmt.Errorf("error updating batch status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error reading batch status update result: %w", err)
	}
	return affected > 0, nil
}

func (r *PostgresBatchRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM staged_batches WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting staged batch: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading batch delete result: %w", err)
	}
	if affected == 0 {
		return ErrBatchNotFound
	}
	return nil
}

func (r *PostgresBatchRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM staged_batches WHERE expires_at <= $1`, before)
	if err != nil {
		return 0, fmt.Errorf("error deleting expired batches: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error reading expired delete result: %w", err)
	}
	return affected, nil
}
