package report

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"campusreservation/internal/booking"
	"campusreservation/internal/reservation"
)

// HoursScale is the number of decimal places reported for reserved hours.
const HoursScale int32 = 2

type Lister interface {
	List(ctx context.Context, f reservation.Filter) ([]booking.Reservation, error)
}

type ResourceUsage struct {
	Resource      booking.Resource `json:"resource"`
	Approved      int              `json:"approved"`
	Completed     int              `json:"completed"`
	ReservedHours decimal.Decimal  `json:"reservedHours"`
}

type Utilization struct {
	Window     booking.Window  `json:"window"`
	Resources  []ResourceUsage `json:"resources"`
	TotalHours decimal.Decimal `json:"totalHours"`
}

// Summarize counts approved and completed reservations per resource and the
// hours they occupy inside window. Reservations straddling the bounds only
// contribute the clipped part.
func Summarize(window booking.Window, items []booking.Reservation) Utilization {
	byKey := map[booking.Resource]*ResourceUsage{}
	total := decimal.Zero
	for _, r := range items {
		if r.Status != booking.StatusApproved && r.Status != booking.StatusCompleted {
			continue
		}
		clipped, ok := r.Window.Clip(window)
		if !ok {
			continue
		}
		u, ok := byKey[r.Resource]
		if !ok {
			u = &ResourceUsage{Resource: r.Resource, ReservedHours: decimal.Zero}
			byKey[r.Resource] = u
		}
		if r.Status == booking.StatusApproved {
			u.Approved++
		} else {
			u.Completed++
		}
		hours := hoursOf(clipped.Duration())
		u.ReservedHours = u.ReservedHours.Add(hours)
		total = total.Add(hours)
	}

	out := Utilization{Window: window, Resources: make([]ResourceUsage, 0, len(byKey)), TotalHours: total.Round(HoursScale)}
	for _, u := range byKey {
		u.ReservedHours = u.ReservedHours.Round(HoursScale)
		out.Resources = append(out.Resources, *u)
	}
	sort.Slice(out.Resources, func(i, j int) bool {
		return out.Resources[i].Resource.Key() < out.Resources[j].Resource.Key()
	})
	return out
}

func hoursOf(d time.Duration) decimal.Decimal {
	return decimal.NewFromInt(int64(d / time.Second)).Div(decimal.NewFromInt(3600))
}

type Service struct {
	Reservations Lister
}

func (s Service) Utilization(ctx context.Context, window booking.Window) (Utilization, error) {
	if err := window.Validate(); err != nil {
		return Utilization{}, err
	}
	items, err := s.Reservations.List(ctx, reservation.Filter{
		Statuses: []booking.Status{booking.StatusApproved, booking.StatusCompleted},
		From:     window.Start,
		To:       window.End,
	})
	if err != nil {
		return Utilization{}, err
	}
	return Summarize(window, items), nil
}
