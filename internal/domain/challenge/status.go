// internal/domain/challenge/status.go
package challenge

// Status represents the lifecycle state of a challenge item.
type Status string

const (
	StatusPending   Status = "PENDING"   // default, unscheduled, actionable
	StatusOffered   Status = "OFFERED"   // proposed to one recipient, awaiting accept/decline
	StatusActive    Status = "ACTIVE"    // accepted, in progress
	StatusScheduled Status = "SCHEDULED" // future delivery instant set, not yet sent
	StatusCompleted Status = "COMPLETED" // terminal success
	StatusFailed    Status = "FAILED"    // terminal failure
)

// IsTerminal reports whether the status accepts no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// transitions lists the allowed next states for each non-terminal state.
var transitions = map[Status][]Status{
	StatusPending:   {StatusCompleted, StatusFailed},
	StatusOffered:   {StatusActive, StatusPending, StatusFailed},
	StatusActive:    {StatusCompleted, StatusFailed},
	StatusScheduled: {StatusPending, StatusFailed},
}

// CanTransitionTo reports whether moving from s to next is a legal transition.
func (s Status) CanTransitionTo(next Status) bool {
	if s.IsTerminal() {
		return false
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ParseStatus validates a stored status string.
func ParseStatus(raw string) (Status, bool) {
	switch Status(raw) {
	case StatusPending, StatusOffered, StatusActive, StatusScheduled, StatusCompleted, StatusFailed:
		return Status(raw), true
	}
	return "", false
}
