package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

var ErrIllegalTransition = errors.New("illegal status transition")

type IllegalTransitionError struct {
	From  Status
	Event Event
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("cannot %s a reservation in status %s", e.Event, e.From)
}

func (e *IllegalTransitionError) Is(target error) bool {
	return target == ErrIllegalTransition
}

// StatusChange is what the notifier is told after a successful transition.
type StatusChange struct {
	ReservationID string    `json:"reservationId"`
	From          Status    `json:"oldStatus"`
	To            Status    `json:"newStatus"`
	Note          string    `json:"note,omitempty"`
	At            time.Time `json:"at"`
}

type Notifier interface {
	Notify(ctx context.Context, change StatusChange) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, change StatusChange) error

func (f NotifierFunc) Notify(ctx context.Context, change StatusChange) error {
	return f(ctx, change)
}

// Transition applies ev to r and returns the updated copy. r itself is never
// modified, so a failed call leaves the caller's value untouched.
func Transition(r Reservation, ev Event, note string, now time.Time) (Reservation, error) {
	to, ok := Next(r.Status, ev)
	if !ok {
		return r, &IllegalTransitionError{From: r.Status, Event: ev}
	}
	out := r
	out.Status = to
	if note != "" {
		out.AdminNote = note
	}
	out.UpdatedAt = now
	return out, nil
}

// Lifecycle couples Transition with best-effort notification.
type Lifecycle struct {
	Notifier Notifier
	Log      logrus.FieldLogger
	Now      func() time.Time
}

func (l Lifecycle) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now().UTC()
}

// Transition validates and applies ev without notifying. Callers that persist
// the result announce the change once it is durable.
func (l Lifecycle) Transition(r Reservation, ev Event, note string) (Reservation, StatusChange, error) {
	next, err := Transition(r, ev, note, l.now())
	if err != nil {
		return r, StatusChange{}, err
	}
	return next, StatusChange{
		ReservationID: r.ID,
		From:          r.Status,
		To:            next.Status,
		Note:          note,
		At:            next.UpdatedAt,
	}, nil
}

// Announce delivers change to the notifier. Delivery errors are logged and
// dropped; the status change stands regardless.
func (l Lifecycle) Announce(ctx context.Context, change StatusChange) {
	if l.Notifier == nil {
		return
	}
	if err := l.Notifier.Notify(ctx, change); err != nil && l.Log != nil {
		l.Log.WithFields(logrus.Fields{
			"reservation_id": change.ReservationID,
			"from":           change.From,
			"to":             change.To,
		}).WithError(err).Warn("status change notification failed")
	}
}

// Apply is Transition followed by Announce.
func (l Lifecycle) Apply(ctx context.Context, r Reservation, ev Event, note string) (Reservation, error) {
	next, change, err := l.Transition(r, ev, note)
	if err != nil {
		return r, err
	}
	l.Announce(ctx, change)
	return next, nil
}
