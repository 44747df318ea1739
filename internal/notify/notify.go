package notify

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"campusreservation/internal/booking"
	"campusreservation/internal/metrics"
)

// Log writes every status change to the logger. It never fails.
type Log struct {
	Log logrus.FieldLogger
}

func (n Log) Notify(_ context.Context, c booking.StatusChange) error {
	n.Log.WithFields(logrus.Fields{
		"reservation_id": c.ReservationID,
		"from":           c.From,
		"to":             c.To,
	}).Info("reservation status changed")
	metrics.RecordNotification("log", nil)
	return nil
}

// Multi delivers to every notifier and joins their errors.
type Multi []booking.Notifier

func (m Multi) Notify(ctx context.Context, c booking.StatusChange) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Detached hands each change to Next on its own goroutine with a fresh
// timeout, so a slow sink never holds up the request that caused the change.
type Detached struct {
	Next    booking.Notifier
	Log     logrus.FieldLogger
	Timeout time.Duration
}

func (d Detached) Notify(ctx context.Context, c booking.StatusChange) error {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	go func() {
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		if err := d.Next.Notify(nctx, c); err != nil && d.Log != nil {
			d.Log.WithField("reservation_id", c.ReservationID).WithError(err).Warn("status change notification failed")
		}
	}()
	return nil
}
