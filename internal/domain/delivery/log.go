// internal/domain/delivery/log.go
package delivery

import (
	"database/sql"
	"time"
)

// Outcome is the result of one delivery attempt.
type Outcome string

const (
	OutcomeSent   Outcome = "sent"
	OutcomeFailed Outcome = "failed"
)

// LogEntry is one append-only delivery ledger record. Written only by the
// dispatcher; immutable once written. Corresponds to the 'delivery_log' table.
type LogEntry struct {
	ID          int64
	ScheduleID  int64
	RecipientID int64
	SentAt      time.Time // UTC, stamped on insert
	Outcome     Outcome
	ErrorText   sql.NullString
}
