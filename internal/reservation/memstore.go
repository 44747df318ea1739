package reservation

import (
	"context"
	"sort"
	"sync"

	"campusreservation/internal/booking"
	"campusreservation/internal/events"
	"campusreservation/internal/usagelog"
)

// MemStore keeps everything in process memory. Writers on the same resource
// are serialized by a per-resource mutex.
type MemStore struct {
	mu     sync.RWMutex
	rows   map[string]booking.Reservation
	order  []string
	events map[string][]events.Event
	usage  map[string][]usagelog.Entry

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

func NewMemStore() *MemStore {
	return &MemStore{
		rows:   map[string]booking.Reservation{},
		events: map[string][]events.Event{},
		usage:  map[string][]usagelog.Entry{},
		locks:  map[string]*sync.Mutex{},
	}
}

func (s *MemStore) lock(key string) func() {
	s.locksMu.Lock()
	m, ok := s.locks[key]
	if !ok {
		m = &sync.Mutex{}
		s.locks[key] = m
	}
	s.locksMu.Unlock()
	m.Lock()
	return m.Unlock
}

func (s *MemStore) Create(ctx context.Context, resource booking.Resource, fn func(active []booking.Reservation) (Mutation, error)) (booking.Reservation, error) {
	unlock := s.lock(resource.Key())
	defer unlock()

	active, err := s.List(ctx, Filter{Resource: &resource, Statuses: booking.ActiveStatuses})
	if err != nil {
		return booking.Reservation{}, err
	}
	m, err := fn(active)
	if err != nil {
		return booking.Reservation{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[m.Reservation.ID] = m.Reservation
	s.order = append(s.order, m.Reservation.ID)
	s.apply(m)
	return m.Reservation, nil
}

func (s *MemStore) Update(ctx context.Context, id string, fn func(current booking.Reservation, usage []usagelog.Entry) (Mutation, error)) (booking.Reservation, error) {
	cur, err := s.Get(ctx, id)
	if err != nil {
		return booking.Reservation{}, err
	}
	unlock := s.lock(cur.Resource.Key())
	defer unlock()

	// Re-read under the lock; the row may have moved on since.
	s.mu.RLock()
	cur = s.rows[id]
	usage := append([]usagelog.Entry(nil), s.usage[id]...)
	s.mu.RUnlock()

	m, err := fn(cur, usage)
	if err != nil {
		return booking.Reservation{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[id] = m.Reservation
	s.apply(m)
	return m.Reservation, nil
}

// apply records the side rows of m. Caller holds s.mu.
func (s *MemStore) apply(m Mutation) {
	id := m.Reservation.ID
	s.events[id] = append(s.events[id], m.Events...)
	if m.Usage != nil {
		s.usage[id] = append(s.usage[id], *m.Usage)
	}
}

func (s *MemStore) Get(_ context.Context, id string) (booking.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rows[id]
	if !ok {
		return booking.Reservation{}, ErrNotFound
	}
	return r, nil
}

// List returns matches ordered by window start.
func (s *MemStore) List(_ context.Context, f Filter) ([]booking.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []booking.Reservation
	for _, id := range s.order {
		if r := s.rows[id]; f.match(r) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Window.Start.Before(out[j].Window.Start)
	})
	return out, nil
}

func (s *MemStore) Events(_ context.Context, id string) ([]events.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.rows[id]; !ok {
		return nil, ErrNotFound
	}
	return append([]events.Event(nil), s.events[id]...), nil
}

func (s *MemStore) Usage(_ context.Context, id string) ([]usagelog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.rows[id]; !ok {
		return nil, ErrNotFound
	}
	return append([]usagelog.Entry(nil), s.usage[id]...), nil
}
