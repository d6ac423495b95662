// internal/domain/challenge/item.go
package challenge

import (
	"database/sql"
	"time"
)

// Item is one concrete, per-recipient challenge instance.
// Corresponds to the 'challenge_items' table.
type Item struct {
	ID           int64
	RecipientID  int64
	CreatorID    int64
	Text         string
	Points       int
	Status       Status
	ScheduledFor sql.NullTime   // UTC; set for SCHEDULED items
	SentAt       sql.NullTime   // UTC; stamped on successful delivery
	TimeSlot     sql.NullString // morning | afternoon | evening
	Difficulty   string
	Duration     string
	FocusArea    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
