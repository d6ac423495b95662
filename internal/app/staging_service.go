// internal/app/staging_service.go
package app

import (
	"context"
	"fmt"
	"time"

	"team_challenge_bot/internal/domain/challenge"
	idb "team_challenge_bot/internal/infra/database"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// StagingService is the TTL-bounded holding area for AI-generated candidate
// batches awaiting an administrator's promotion decision. At most one pending
// batch exists per owner; saving a new one supersedes and deletes the old.
type StagingService struct {
	batches    challenge.BatchRepository
	defaultTTL time.Duration
	logger     *logrus.Entry
	now        func() time.Time
}

func NewStagingService(batches challenge.BatchRepository, defaultTTL time.Duration, logger *logrus.Entry) *StagingService {
	return &StagingService{
		batches:    batches,
		defaultTTL: defaultTTL,
		logger:     logger,
		now:        time.Now,
	}
}

// Save stages a candidate batch for the owner, replacing any prior pending
// one. A zero ttl uses the configured default.
func (s *StagingService) Save(ctx context.Context, ownerID, targetChatID, orgID int64, candidates []challenge.Candidate, ttl time.Duration) (uuid.UUID, error) {
	if len(candidates) == 0 {
		return uuid.Nil, fmt.Errorf("cannot stage an empty candidate batch")
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	if err := s.batches.DeletePendingByOwner(ctx, ownerID); err != nil {
		return uuid.Nil, fmt.Errorf("failed to supersede prior pending batch: %w", err)
	}

	batch := &challenge.StagedBatch{
		ID:           uuid.New(),
		OwnerID:      ownerID,
		OrgID:        orgID,
		TargetChatID: targetChatID,
		Candidates:   candidates,
		Status:       challenge.BatchStatusPending,
		ExpiresAt:    s.now().Add(ttl).UTC(),
	}
	if err := s.batches.Insert(ctx, batch); err != nil {
		return uuid.Nil, fmt.Errorf("failed to stage candidate batch: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"batch_id":   batch.ID,
		"owner_id":   ownerID,
		"candidates": len(candidates),
		"expires_at": batch.ExpiresAt.Format(time.RFC3339),
	}).Info("Candidate batch staged")
	return batch.ID, nil
}

// Get returns the owner's newest pending batch. A batch past its expiry is
// flipped to expired and reported as not found rather than returned.
func (s *StagingService) Get(ctx context.Context, ownerID int64) (*challenge.StagedBatch, error) {
	batch, err := s.batches.GetNewestPendingByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if batch.Expired(s.now()) {
		if _, err := s.batches.UpdateStatus(ctx, batch.ID, challenge.BatchStatusExpired); err != nil {
			s.logger.WithError(err).WithField("batch_id", batch.ID).
				Error("Failed to mark expired batch")
		}
		s.logger.WithField("batch_id", batch.ID).Info("Pending batch had expired, treating as not found")
		return nil, idb.ErrBatchNotFound
	}
	return batch, nil
}

// UpdateStatus flips a batch's status; returns false if the batch is gone.
func (s *StagingService) UpdateStatus(ctx context.Context, batchID uuid.UUID, status challenge.BatchStatus) (bool, error) {
	return s.batches.UpdateStatus(ctx, batchID, status)
}

// Cancel discards the owner's pending batch.
func (s *StagingService) Cancel(ctx context.Context, ownerID int64) error {
	batch, err := s.Get(ctx, ownerID)
	if err != nil {
		return err
	}
	if err := s.batches.Delete(ctx, batch.ID); err != nil {
		return fmt.Errorf("failed to cancel staged batch: %w", err)
	}
	s.logger.WithFields(logrus.Fields{"batch_id": batch.ID, "owner_id": ownerID}).Info("Staged batch cancelled")
	return nil
}

// Sweep deletes every batch whose TTL has passed and returns the count.
func (s *StagingService) Sweep(ctx context.Context) (int64, error) {
	count, err := s.batches.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to sweep expired batches: %w", err)
	}
	if count > 0 {
		s.logger.WithField("deleted", count).Info("Swept expired staged batches")
	}
	return count, nil
}
