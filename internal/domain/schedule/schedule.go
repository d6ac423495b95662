package schedule

import (
	"database/sql"
	"fmt"
	"time"
)

// Status is the lifecycle state of a schedule definition.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusDraft    Status = "draft"
)

// Definition represents a recurring, organization-scoped broadcast rule.
// Corresponds to the 'schedules' table.
type Definition struct {
	ID           int64
	OrgID        int64
	Title        string
	Body         string
	NotifyTime   string // local wall-clock time, "HH:MM"
	IsDaily      bool
	DayOfWeek    sql.NullInt16 // 0=Sunday..6, used when IsDaily is false
	Status       Status
	DisplayOrder int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ClockTime parses the NotifyTime field into hour and minute components.
func (d *Definition) ClockTime() (hour, minute int, err error) {
	return ParseClock(d.NotifyTime)
}

// ParseClock parses a "HH:MM" wall-clock string.
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}

// MatchesWeekday reports whether the definition recurs on the given local weekday.
func (d *Definition) MatchesWeekday(wd time.Weekday) bool {
	if d.IsDaily {
		return true
	}
	return d.DayOfWeek.Valid && int(d.DayOfWeek.Int16) == int(wd)
}
