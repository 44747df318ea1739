package usagelog

import (
	"context"

	"github.com/jackc/pgx/v5"
)

type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func Insert(ctx context.Context, tx pgx.Tx, e Entry) error {
	var note *string
	if e.Note != "" {
		note = &e.Note
	}
	const q = `
INSERT INTO usage_logs (id, reservation_id, actor_id, action, occurred_at, note)
VALUES ($1, $2, $3, $4, $5, $6)
`
	_, err := tx.Exec(ctx, q, e.ID, e.ReservationID, e.ActorID, string(e.Action), e.OccurredAt, note)
	return err
}

func ListByReservation(ctx context.Context, db Querier, reservationID string) ([]Entry, error) {
	const q = `
SELECT id, reservation_id, actor_id, action, occurred_at, COALESCE(note, '')
FROM usage_logs
WHERE reservation_id = $1
ORDER BY occurred_at ASC, created_at ASC
`
	rows, err := db.Query(ctx, q, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.ReservationID, &e.ActorID, &e.Action, &e.OccurredAt, &e.Note); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
