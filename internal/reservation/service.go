package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"campusreservation/internal/booking"
	"campusreservation/internal/events"
	"campusreservation/internal/metrics"
	"campusreservation/internal/usagelog"
)

type Service struct {
	Store     Store
	Lifecycle booking.Lifecycle
	Log       logrus.FieldLogger

	NewID func() string
	Now   func() time.Time
}

func NewService(store Store, notifier booking.Notifier, log logrus.FieldLogger) *Service {
	return &Service{
		Store:     store,
		Lifecycle: booking.Lifecycle{Notifier: notifier, Log: log},
		Log:       log,
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *Service) lifecycle() booking.Lifecycle {
	lc := s.Lifecycle
	if lc.Now == nil {
		lc.Now = s.now
	}
	return lc
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

// Submit validates req and creates a Submitted reservation unless its window
// collides with an active reservation on the same resource. The conflict
// check and the insert run under the store's per-resource lock.
func (s *Service) Submit(ctx context.Context, req booking.Request) (booking.Reservation, error) {
	now := s.now()
	candidate, err := booking.NewReservation(s.newID(), req, now)
	if err != nil {
		metrics.RecordSubmission("invalid")
		return booking.Reservation{}, err
	}

	out, err := s.Store.Create(ctx, req.Resource, func(active []booking.Reservation) (Mutation, error) {
		if err := booking.CheckAvailable(candidate.Resource, candidate.Window, active, ""); err != nil {
			return Mutation{}, err
		}
		return Mutation{
			Reservation: candidate,
			Events: []events.Event{{
				ReservationID: candidate.ID,
				EventType:     events.TypeSubmitted,
				Summary:       "Reservation submitted",
				Actor:         candidate.RequesterID,
				OccurredAt:    now,
				Data: map[string]any{
					"resource": candidate.Resource.Key(),
					"start":    candidate.Window.Start,
					"end":      candidate.Window.End,
				},
			}},
		}, nil
	})
	if err != nil {
		if errors.Is(err, booking.ErrConflict) {
			metrics.RecordSubmission("conflict")
		} else {
			metrics.RecordSubmission("error")
		}
		return booking.Reservation{}, err
	}

	metrics.RecordSubmission("created")
	s.Log.WithFields(logrus.Fields{
		"reservation_id": out.ID,
		"resource":       out.Resource.Key(),
		"requester_id":   out.RequesterID,
	}).Info("reservation submitted")
	return out, nil
}

// Check runs the conflict checker without writing anything. exclude skips an
// existing reservation, e.g. when re-validating it.
func (s *Service) Check(ctx context.Context, resource booking.Resource, window booking.Window, exclude string) error {
	if err := resource.Validate(); err != nil {
		return err
	}
	if err := window.Validate(); err != nil {
		return err
	}
	active, err := s.Store.List(ctx, Filter{Resource: &resource, Statuses: booking.ActiveStatuses})
	if err != nil {
		return err
	}
	return booking.CheckAvailable(resource, window, active, exclude)
}

// Act applies a staff event to reservation id and notifies once the change
// is persisted.
func (s *Service) Act(ctx context.Context, actor, id string, ev booking.Event, note string) (booking.Reservation, error) {
	var change booking.StatusChange
	out, err := s.Store.Update(ctx, id, func(cur booking.Reservation, _ []usagelog.Entry) (Mutation, error) {
		next, c, err := s.lifecycle().Transition(cur, ev, note)
		if err != nil {
			return Mutation{}, err
		}
		change = c
		return Mutation{Reservation: next, Events: []events.Event{statusEvent(c, actor)}}, nil
	})
	if err != nil {
		s.recordTransition(ev, err)
		return booking.Reservation{}, err
	}
	s.recordTransition(ev, nil)
	s.lifecycle().Announce(ctx, change)
	return out, nil
}

// RecordUsage logs a check-in or check-out on an approved reservation.
// Finishing also completes the reservation in the same write.
func (s *Service) RecordUsage(ctx context.Context, actor, id string, action usagelog.Action, note string) (usagelog.Entry, booking.Reservation, error) {
	var (
		entry  usagelog.Entry
		change *booking.StatusChange
	)
	now := s.now()
	out, err := s.Store.Update(ctx, id, func(cur booking.Reservation, prior []usagelog.Entry) (Mutation, error) {
		if err := usagelog.Check(cur.Status, prior, action); err != nil {
			return Mutation{}, err
		}
		entry = usagelog.Entry{
			ID:            s.newID(),
			ReservationID: cur.ID,
			ActorID:       actor,
			Action:        action,
			OccurredAt:    now,
			Note:          note,
		}
		m := Mutation{
			Reservation: cur,
			Usage:       &entry,
			Events: []events.Event{{
				ReservationID: cur.ID,
				EventType:     events.TypeUsageRecorded,
				Summary:       fmt.Sprintf("Usage %s recorded", action),
				Actor:         actor,
				OccurredAt:    now,
				Data:          map[string]any{"action": action, "note": note},
			}},
		}
		if action == usagelog.ActionFinish {
			next, c, err := s.lifecycle().Transition(cur, booking.EventComplete, "")
			if err != nil {
				return Mutation{}, err
			}
			m.Reservation = next
			m.Events = append(m.Events, statusEvent(c, actor))
			change = &c
		}
		return m, nil
	})
	if err != nil {
		return usagelog.Entry{}, booking.Reservation{}, err
	}
	if change != nil {
		s.recordTransition(booking.EventComplete, nil)
		s.lifecycle().Announce(ctx, *change)
	}
	return entry, out, nil
}

func (s *Service) Get(ctx context.Context, id string) (booking.Reservation, error) {
	return s.Store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter) ([]booking.Reservation, error) {
	return s.Store.List(ctx, f)
}

func (s *Service) Events(ctx context.Context, id string) ([]events.Event, error) {
	return s.Store.Events(ctx, id)
}

func (s *Service) Usage(ctx context.Context, id string) ([]usagelog.Entry, error) {
	return s.Store.Usage(ctx, id)
}

func (s *Service) recordTransition(ev booking.Event, err error) {
	switch {
	case err == nil:
		metrics.RecordTransition(string(ev), "ok")
	case errors.Is(err, booking.ErrIllegalTransition):
		metrics.RecordTransition(string(ev), "illegal")
	case errors.Is(err, ErrNotFound):
		metrics.RecordTransition(string(ev), "not_found")
	default:
		metrics.RecordTransition(string(ev), "error")
	}
}

func statusEvent(c booking.StatusChange, actor string) events.Event {
	data := map[string]any{"from": c.From, "to": c.To}
	if c.Note != "" {
		data["note"] = c.Note
	}
	return events.Event{
		ReservationID: c.ReservationID,
		EventType:     events.TypeStatusChanged,
		Summary:       "Status changed",
		Actor:         actor,
		OccurredAt:    c.At,
		Data:          data,
	}
}
