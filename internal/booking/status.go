package booking

import (
	"fmt"
	"strings"
)

type Status string

const (
	StatusSubmitted Status = "Submitted"
	StatusApproved  Status = "Approved"
	StatusRejected  Status = "Rejected"
	StatusCompleted Status = "Completed"
)

// ParseStatus translates external status strings, including the legacy
// values of both historical schemas, into the closed Status set.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "submitted", "pending", "diajukan":
		return StatusSubmitted, nil
	case "approved", "disetujui":
		return StatusApproved, nil
	case "rejected", "ditolak":
		return StatusRejected, nil
	case "completed", "selesai":
		return StatusCompleted, nil
	default:
		return "", fmt.Errorf("unknown status: %s", s)
	}
}

// Active statuses hold their window against other reservations.
func (s Status) Active() bool {
	return s == StatusSubmitted || s == StatusApproved
}

func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusCompleted
}

// ActiveStatuses is the filter callers apply before conflict checking.
var ActiveStatuses = []Status{StatusSubmitted, StatusApproved}

type Event string

const (
	EventApprove  Event = "approve"
	EventReject   Event = "reject"
	EventComplete Event = "complete"
)

func ParseEvent(s string) (Event, error) {
	switch Event(strings.ToLower(strings.TrimSpace(s))) {
	case EventApprove:
		return EventApprove, nil
	case EventReject:
		return EventReject, nil
	case EventComplete:
		return EventComplete, nil
	default:
		return "", fmt.Errorf("unknown event: %s", s)
	}
}

var allowedTransitions = map[Status]map[Event]Status{
	StatusSubmitted: {EventApprove: StatusApproved, EventReject: StatusRejected},
	StatusApproved:  {EventComplete: StatusCompleted},
	StatusRejected:  {},
	StatusCompleted: {},
}

// Next returns the status reached by applying ev to from.
func Next(from Status, ev Event) (Status, bool) {
	m, ok := allowedTransitions[from]
	if !ok {
		return "", false
	}
	to, ok := m[ev]
	return to, ok
}

func CanTransition(from Status, ev Event) bool {
	_, ok := Next(from, ev)
	return ok
}
