package reservation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"campusreservation/internal/booking"
	"campusreservation/internal/events"
	"campusreservation/internal/usagelog"
	"campusreservation/pkg/db"
)

// exclusion_violation, raised by reservations_no_overlap.
const pgExclusionViolation = "23P01"

const reservationColumns = `id, requester_id, resource_type, resource_id, starts_at, ends_at, purpose, status,
       COALESCE(admin_note, ''), created_at, updated_at`

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Create(ctx context.Context, resource booking.Resource, fn func(active []booking.Reservation) (Mutation, error)) (booking.Reservation, error) {
	var out booking.Reservation
	err := db.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		if err := db.LockKey(ctx, tx, "reservation:"+resource.Key()); err != nil {
			return err
		}
		active, err := ListActiveForResource(ctx, tx, resource)
		if err != nil {
			return err
		}
		m, err := fn(active)
		if err != nil {
			return err
		}
		if err := Insert(ctx, tx, m.Reservation); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgExclusionViolation {
				return &booking.ConflictError{Resource: resource, Window: m.Reservation.Window}
			}
			return err
		}
		if err := writeSideRows(ctx, tx, m); err != nil {
			return err
		}
		out = m.Reservation
		return nil
	})
	return out, err
}

func (s *PGStore) Update(ctx context.Context, id string, fn func(current booking.Reservation, usage []usagelog.Entry) (Mutation, error)) (booking.Reservation, error) {
	var out booking.Reservation
	err := db.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		cur, err := GetForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		usage, err := usagelog.ListByReservation(ctx, tx, id)
		if err != nil {
			return err
		}
		m, err := fn(cur, usage)
		if err != nil {
			return err
		}
		if m.Reservation != cur {
			if err := UpdateStatus(ctx, tx, m.Reservation); err != nil {
				return err
			}
		}
		if err := writeSideRows(ctx, tx, m); err != nil {
			return err
		}
		out = m.Reservation
		return nil
	})
	return out, err
}

func writeSideRows(ctx context.Context, tx pgx.Tx, m Mutation) error {
	for _, e := range m.Events {
		if err := events.Insert(ctx, tx, e); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
	}
	if m.Usage != nil {
		if err := usagelog.Insert(ctx, tx, *m.Usage); err != nil {
			return fmt.Errorf("insert usage: %w", err)
		}
	}
	return nil
}

func (s *PGStore) Get(ctx context.Context, id string) (booking.Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`
	r, err := scanReservation(s.db.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return booking.Reservation{}, ErrNotFound
	}
	return r, err
}

func (s *PGStore) List(ctx context.Context, f Filter) ([]booking.Reservation, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.RequesterID != "" {
		where = append(where, "requester_id = "+arg(f.RequesterID))
	}
	if len(f.Statuses) > 0 {
		st := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			st[i] = string(s)
		}
		where = append(where, "status = ANY("+arg(st)+")")
	}
	if f.ResourceType != "" {
		where = append(where, "resource_type = "+arg(string(f.ResourceType)))
	}
	if f.Resource != nil {
		where = append(where, "resource_type = "+arg(string(f.Resource.Type)), "resource_id = "+arg(f.Resource.ID))
	}
	if !f.From.IsZero() {
		where = append(where, "ends_at > "+arg(f.From))
	}
	if !f.To.IsZero() {
		where = append(where, "starts_at < "+arg(f.To))
	}

	q := `SELECT ` + reservationColumns + ` FROM reservations`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY starts_at ASC, created_at ASC"

	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (s *PGStore) Events(ctx context.Context, id string) ([]events.Event, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return events.ListByReservation(ctx, s.db, id)
}

func (s *PGStore) Usage(ctx context.Context, id string) ([]usagelog.Entry, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return usagelog.ListByReservation(ctx, s.db, id)
}

func ListActiveForResource(ctx context.Context, tx pgx.Tx, resource booking.Resource) ([]booking.Reservation, error) {
	q := `SELECT ` + reservationColumns + `
FROM reservations
WHERE resource_type = $1 AND resource_id = $2 AND status IN ('Submitted', 'Approved')
ORDER BY starts_at ASC`
	rows, err := tx.Query(ctx, q, string(resource.Type), resource.ID)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (booking.Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1 FOR UPDATE`
	r, err := scanReservation(tx.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return booking.Reservation{}, ErrNotFound
	}
	return r, err
}

func Insert(ctx context.Context, tx pgx.Tx, r booking.Reservation) error {
	const q = `
INSERT INTO reservations (id, requester_id, resource_type, resource_id, starts_at, ends_at, purpose, status, admin_note, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), $10, $11)
`
	_, err := tx.Exec(ctx, q,
		r.ID, r.RequesterID, string(r.Resource.Type), r.Resource.ID, r.Window.Start, r.Window.End,
		r.Purpose, string(r.Status), r.AdminNote, r.CreatedAt, r.UpdatedAt,
	)
	return err
}

func UpdateStatus(ctx context.Context, tx pgx.Tx, r booking.Reservation) error {
	const q = `
UPDATE reservations
SET status = $1, admin_note = NULLIF($2, ''), updated_at = $3
WHERE id = $4
`
	_, err := tx.Exec(ctx, q, string(r.Status), r.AdminNote, r.UpdatedAt, r.ID)
	return err
}

func scanReservation(row pgx.Row) (booking.Reservation, error) {
	var r booking.Reservation
	err := row.Scan(
		&r.ID, &r.RequesterID, &r.Resource.Type, &r.Resource.ID, &r.Window.Start, &r.Window.End,
		&r.Purpose, &r.Status, &r.AdminNote, &r.CreatedAt, &r.UpdatedAt,
	)
	return r, err
}

func collect(rows pgx.Rows) ([]booking.Reservation, error) {
	defer rows.Close()
	var out []booking.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
