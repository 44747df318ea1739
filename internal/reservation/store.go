package reservation

import (
	"context"
	"errors"
	"time"

	"campusreservation/internal/booking"
	"campusreservation/internal/events"
	"campusreservation/internal/usagelog"
)

var ErrNotFound = errors.New("reservation not found")

// Mutation is everything a single write persists atomically.
type Mutation struct {
	Reservation booking.Reservation
	Events      []events.Event
	Usage       *usagelog.Entry
}

type Filter struct {
	RequesterID  string
	Statuses     []booking.Status
	ResourceType booking.ResourceType
	Resource     *booking.Resource
	// Overlapping keeps reservations whose window intersects [From, To).
	// Zero bounds are open.
	From time.Time
	To   time.Time
}

// Store persists reservations. Create and Update run their callback while
// holding exclusive access, so the check done inside the callback and the
// write that follows are one serialized unit.
type Store interface {
	// Create hands fn the active reservations of resource while the
	// resource is locked, then persists the returned mutation.
	Create(ctx context.Context, resource booking.Resource, fn func(active []booking.Reservation) (Mutation, error)) (booking.Reservation, error)
	// Update hands fn the locked current row with its usage entries.
	Update(ctx context.Context, id string, fn func(current booking.Reservation, usage []usagelog.Entry) (Mutation, error)) (booking.Reservation, error)
	Get(ctx context.Context, id string) (booking.Reservation, error)
	List(ctx context.Context, f Filter) ([]booking.Reservation, error)
	Events(ctx context.Context, id string) ([]events.Event, error)
	Usage(ctx context.Context, id string) ([]usagelog.Entry, error)
}

func (f Filter) match(r booking.Reservation) bool {
	if f.RequesterID != "" && r.RequesterID != f.RequesterID {
		return false
	}
	if len(f.Statuses) > 0 {
		ok := false
		for _, s := range f.Statuses {
			if r.Status == s {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if f.ResourceType != "" && r.Resource.Type != f.ResourceType {
		return false
	}
	if f.Resource != nil && r.Resource != *f.Resource {
		return false
	}
	if !f.From.IsZero() && !r.Window.End.After(f.From) {
		return false
	}
	if !f.To.IsZero() && !r.Window.Start.Before(f.To) {
		return false
	}
	return true
}
