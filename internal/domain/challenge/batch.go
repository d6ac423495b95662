// internal/domain/challenge/batch.go
package challenge

import (
	"time"

	"github.com/google/uuid"
)

// Slot is a coarse time-of-day bucket mapped to a fixed local clock time.
type Slot string

const (
	SlotMorning   Slot = "morning"
	SlotAfternoon Slot = "afternoon"
	SlotEvening   Slot = "evening"
)

// ParseSlot validates a slot string.
func ParseSlot(raw string) (Slot, bool) {
	switch Slot(raw) {
	case SlotMorning, SlotAfternoon, SlotEvening:
		return Slot(raw), true
	}
	return "", false
}

// BatchStatus is the lifecycle state of a staged batch.
type BatchStatus string

const (
	BatchStatusPending   BatchStatus = "pending"
	BatchStatusScheduled BatchStatus = "scheduled"
	BatchStatusCancelled BatchStatus = "cancelled"
	BatchStatusError     BatchStatus = "error"
	BatchStatusExpired   BatchStatus = "expired"
)

// Candidate is one AI-generated challenge descriptor inside a staged batch.
// The engine only inspects its structure; the content semantics are opaque.
type Candidate struct {
	Text       string `json:"text"`
	TimeSlot   Slot   `json:"time_slot"`
	Points     int    `json:"points"`
	Difficulty string `json:"difficulty,omitempty"`
	Duration   string `json:"duration,omitempty"`
	FocusArea  string `json:"focus_area,omitempty"`
}

// StagedBatch is a TTL-bounded holding area for candidate challenges awaiting
// an administrator's promotion decision. At most one pending batch exists per
// owner. Corresponds to the 'staged_batches' table; the candidate list is
// stored as a JSONB payload.
type StagedBatch struct {
	ID           uuid.UUID
	OwnerID      int64
	OrgID        int64
	TargetChatID int64
	Candidates   []Candidate
	Status       BatchStatus
	CreatedAt    time.Time
	ExpiresAt    time.Time // UTC
}

// Expired reports whether the batch's TTL has passed as of now.
func (b *StagedBatch) Expired(now time.Time) bool {
	return !b.ExpiresAt.After(now)
}
