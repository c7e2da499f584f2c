package appointments

import "strings"

// MaxNoteLength bounds free-text notes and cancellation reasons.
const MaxNoteLength = 500

// AllowedTransitions returns the lifecycle states an appointment in the given
// state may move to. Completed and cancelled are terminal. no_show is also
// terminal and is never a permitted target here: it is assigned out of band
// by the scheduling backend, not through the status operation.
func AllowedTransitions(from Status) []Status {
	switch from {
	case StatusScheduled:
		return []Status{StatusConfirmed, StatusCompleted, StatusCancelled}
	case StatusConfirmed:
		return []Status{StatusCompleted, StatusCancelled}
	default:
		return nil
	}
}

// CanTransition reports whether an appointment may move from one state to
// another.
func CanTransition(from, to Status) bool {
	for _, s := range AllowedTransitions(from) {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are permitted.
func IsTerminal(s Status) bool {
	return len(AllowedTransitions(s)) == 0
}

// StatusUpdate is a requested lifecycle transition.
type StatusUpdate struct {
	Status             Status `json:"status"`
	Notes              string `json:"notes,omitempty"`
	CancellationReason string `json:"cancellation_reason,omitempty"`
}

// Validate checks the transition against the current state. A move to
// cancelled requires a non-empty trimmed cancellation reason. The check runs
// before any network or database work so invalid requests never leave the
// caller.
func (u *StatusUpdate) Validate(current Status) error {
	fields := map[string][]string{}

	if !ValidStatus(u.Status) {
		fields["status"] = append(fields["status"], "unknown status")
	} else if !CanTransition(current, u.Status) {
		if IsTerminal(current) {
			fields["status"] = append(fields["status"], "appointment is "+string(current)+" and can no longer change")
		} else {
			fields["status"] = append(fields["status"], "cannot move from "+string(current)+" to "+string(u.Status))
		}
	}

	if u.Status == StatusCancelled && strings.TrimSpace(u.CancellationReason) == "" {
		fields["cancellation_reason"] = append(fields["cancellation_reason"], "a cancellation reason is required")
	}
	if len(u.CancellationReason) > MaxNoteLength {
		fields["cancellation_reason"] = append(fields["cancellation_reason"], "must be 500 characters or fewer")
	}
	if len(u.Notes) > MaxNoteLength {
		fields["notes"] = append(fields["notes"], "must be 500 characters or fewer")
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
