package schedule

import (
	"context"
)

// Repository defines the operations for persisting and retrieving schedule definitions.
type Repository interface {
	Create(ctx context.Context, def *Definition) error
	GetByID(ctx context.Context, id int64) (*Definition, error)
	Update(ctx context.Context, def *Definition) error
	Delete(ctx context.Context, id int64) error
	ListActive(ctx context.Context) ([]*Definition, error)
	// ListPage returns one page of an organization's definitions ordered by
	// display_order, then notify_time.
	ListPage(ctx context.Context, orgID int64, offset, limit int) ([]*Definition, error)
	CountByOrg(ctx context.Context, orgID int64) (int, error)
}
