package org

import (
	"context"
	"database/sql"
	"time"
)

// Organization is the owning scope for schedules and recipients. The engine
// only consumes its timezone; everything else is managed elsewhere.
type Organization struct {
	ID        int64
	Name      string
	Timezone  sql.NullString // IANA identifier, e.g. "Europe/Moscow"
	CreatedAt time.Time
}

// Recipient is one deliverable member of an organization.
type Recipient struct {
	ID        int64
	OrgID     int64
	FirstName string
	ChatID    sql.NullInt64 // Telegram chat id; recipients without one are not deliverable
	IsActive  bool
	CreatedAt time.Time
}

// Deliverable reports whether the recipient can actually receive messages.
func (r *Recipient) Deliverable() bool {
	return r.IsActive && r.ChatID.Valid
}

// Directory provides read access to organizations and their recipients.
// The engine consumes this data but does not own it.
type Directory interface {
	GetTimezone(ctx context.Context, orgID int64) (string, error)
	GetRecipient(ctx context.Context, id int64) (*Recipient, error)
	// ListDeliverableRecipients returns the active recipients of an
	// organization that have a chat id.
	ListDeliverableRecipients(ctx context.Context, orgID int64) ([]*Recipient, error)
}
