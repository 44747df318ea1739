package usagelog

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"campusreservation/internal/booking"
)

// Action is a check-in/check-out step recorded by staff, usually from a QR scan.
type Action string

const (
	ActionStart  Action = "start"
	ActionFinish Action = "finish"
)

var ErrNotAllowed = errors.New("usage action not allowed")

func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "start", "mulai":
		return ActionStart, nil
	case "finish", "selesai":
		return ActionFinish, nil
	default:
		return "", fmt.Errorf("unknown usage action: %s", s)
	}
}

type Entry struct {
	ID            string    `json:"id"`
	ReservationID string    `json:"reservationId"`
	ActorID       string    `json:"actorId"`
	Action        Action    `json:"action"`
	OccurredAt    time.Time `json:"occurredAt"`
	Note          string    `json:"note,omitempty"`
}

// Check decides whether action may be recorded for a reservation in status
// with the given prior entries. Only approved reservations are in use, and a
// reservation is started at most once.
func Check(status booking.Status, prior []Entry, action Action) error {
	if status != booking.StatusApproved {
		return fmt.Errorf("%w: reservation is %s", ErrNotAllowed, status)
	}
	if action == ActionStart {
		for _, e := range prior {
			if e.Action == ActionStart {
				return fmt.Errorf("%w: usage already started", ErrNotAllowed)
			}
		}
	}
	return nil
}
