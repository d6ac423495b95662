// internal/domain/delivery/repository.go
package delivery

import (
	"context"
	"time"
)

// Repository defines operations over the delivery ledger.
type Repository interface {
	// Record appends one ledger entry, stamping SentAt and ID.
	Record(ctx context.Context, entry *LogEntry) error
	// HasSentOnDay reports whether a 'sent' entry exists for the schedule with
	// sent_at in [from, to). Callers pass the organization-local day bounds
	// expressed in UTC.
	HasSentOnDay(ctx context.Context, scheduleID int64, from, to time.Time) (bool, error)
	// CountOutcomes returns the sent/failed counts for a schedule within a
	// window. This is the audit surface for delivery statistics.
	CountOutcomes(ctx context.Context, scheduleID int64, from, to time.Time) (sent, failed int, err error)
}
