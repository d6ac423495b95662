// internal/domain/challenge/repository.go
package challenge

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ItemRepository defines persistence operations for challenge items.
type ItemRepository interface {
	Create(ctx context.Context, item *Item) error
	BulkCreate(ctx context.Context, items []*Item) error
	GetByID(ctx context.Context, id int64) (*Item, error)
	Update(ctx context.Context, item *Item) error
	// ListDue returns SCHEDULED items with no sent_at whose scheduled_for is
	// at or before the given instant.
	ListDue(ctx context.Context, before time.Time) ([]*Item, error)
}

// BatchRepository defines persistence operations for staged challenge batches.
type BatchRepository interface {
	Insert(ctx context.Context, batch *StagedBatch) error
	DeletePendingByOwner(ctx context.Context, ownerID int64) error
	// GetNewestPendingByOwner returns the most recently created pending batch
	// for the owner, regardless of expiry. Expiry handling is the caller's job.
	GetNewestPendingByOwner(ctx context.Context, ownerID int64) (*StagedBatch, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status BatchStatus) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// DeleteExpired removes all batches whose expires_at is at or before the
	// given instant and returns how many were removed.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// Generator produces candidate challenge descriptors. The engine treats the
// generated content as opaque; only time_slot, points and display fields are
// inspected.
type Generator interface {
	GenerateCandidates(ctx context.Context, orgID int64, count int) ([]Candidate, error)
}

// PointAwarder credits points to a recipient when a challenge is completed.
type PointAwarder interface {
	Award(ctx context.Context, recipientID int64, points int) error
}
