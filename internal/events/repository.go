package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
)

const (
	TypeSubmitted     = "RESERVATION_SUBMITTED"
	TypeStatusChanged = "STATUS_CHANGED"
	TypeUsageRecorded = "USAGE_RECORDED"
)

// Event is one entry in a reservation's timeline.
type Event struct {
	ID            string         `json:"id,omitempty"`
	ReservationID string         `json:"reservationId"`
	EventType     string         `json:"eventType"`
	Summary       string         `json:"summary"`
	Actor         string         `json:"actor"`
	OccurredAt    time.Time      `json:"occurredAt"`
	Data          map[string]any `json:"data,omitempty"`
}

func Insert(ctx context.Context, tx pgx.Tx, e Event) error {
	var s *string
	if e.Data != nil {
		b, _ := json.Marshal(e.Data)
		str := string(b)
		s = &str
	}
	const q = `
INSERT INTO reservation_events (reservation_id, event_type, summary, actor, occurred_at, data)
VALUES ($1, $2, $3, $4, $5, CAST($6 AS jsonb))
`
	_, err := tx.Exec(ctx, q, e.ReservationID, e.EventType, e.Summary, e.Actor, e.OccurredAt, s)
	return err
}
