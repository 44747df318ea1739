package booking

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02T15:04", s)
	require.NoError(t, err)
	return ts
}

func win(t *testing.T, start, end string) Window {
	t.Helper()
	return Window{Start: at(t, start), End: at(t, end)}
}

func existing(id string, res Resource, w Window, st Status) Reservation {
	return Reservation{ID: id, RequesterID: "u1", Resource: res, Window: w, Purpose: "x", Status: st}
}

var (
	room1    = Resource{Type: ResourceRoom, ID: "R1"}
	room2    = Resource{Type: ResourceRoom, ID: "R2"}
	vehicle1 = Resource{Type: ResourceVehicle, ID: "V1"}
)

func TestHasConflict_OverlappingApproved(t *testing.T) {
	pool := []Reservation{existing("a", room1, win(t, "2025-01-10T09:00", "2025-01-10T11:00"), StatusApproved)}

	got, err := HasConflict(room1, win(t, "2025-01-10T10:00", "2025-01-10T12:00"), pool, "")
	require.NoError(t, err)
	assert.True(t, got)
}

func TestHasConflict_TouchingWindowsDoNotConflict(t *testing.T) {
	pool := []Reservation{existing("a", room1, win(t, "2025-01-10T09:00", "2025-01-10T11:00"), StatusApproved)}

	got, err := HasConflict(room1, win(t, "2025-01-10T11:00", "2025-01-10T13:00"), pool, "")
	require.NoError(t, err)
	assert.False(t, got)

	got, err = HasConflict(room1, win(t, "2025-01-10T07:00", "2025-01-10T09:00"), pool, "")
	require.NoError(t, err)
	assert.False(t, got)
}

func TestHasConflict_TerminalStatusIgnored(t *testing.T) {
	w := win(t, "2025-02-01T08:00", "2025-02-01T10:00")
	for _, st := range []Status{StatusRejected, StatusCompleted} {
		pool := []Reservation{existing("a", vehicle1, w, st)}
		got, err := HasConflict(vehicle1, w, pool, "")
		require.NoError(t, err)
		assert.False(t, got, "status %s must not conflict", st)
	}
}

func TestHasConflict_IdenticalAndContainedWindows(t *testing.T) {
	outer := win(t, "2025-03-01T08:00", "2025-03-01T18:00")
	inner := win(t, "2025-03-01T10:00", "2025-03-01T11:00")

	got, err := HasConflict(room1, outer, []Reservation{existing("a", room1, outer, StatusSubmitted)}, "")
	require.NoError(t, err)
	assert.True(t, got, "identical windows")

	got, err = HasConflict(room1, outer, []Reservation{existing("a", room1, inner, StatusSubmitted)}, "")
	require.NoError(t, err)
	assert.True(t, got, "candidate contains existing")

	got, err = HasConflict(room1, inner, []Reservation{existing("a", room1, outer, StatusApproved)}, "")
	require.NoError(t, err)
	assert.True(t, got, "existing contains candidate")
}

func TestHasConflict_DifferentResourcesNeverConflict(t *testing.T) {
	w := win(t, "2025-03-01T08:00", "2025-03-01T18:00")
	pool := []Reservation{
		existing("a", room2, w, StatusApproved),
		existing("b", Resource{Type: ResourceVehicle, ID: "R1"}, w, StatusApproved),
	}
	got, err := HasConflict(room1, w, pool, "")
	require.NoError(t, err)
	assert.False(t, got)
}

func TestHasConflict_ExcludeSkipsSelf(t *testing.T) {
	w := win(t, "2025-03-01T08:00", "2025-03-01T09:00")
	pool := []Reservation{existing("self", room1, w, StatusApproved)}

	got, err := HasConflict(room1, w, pool, "self")
	require.NoError(t, err)
	assert.False(t, got)
}

func TestHasConflict_InvalidWindow(t *testing.T) {
	start := at(t, "2025-03-01T08:00")
	for _, w := range []Window{{Start: start, End: start}, {Start: start, End: start.Add(-time.Minute)}} {
		_, err := HasConflict(room1, w, nil, "")
		assert.ErrorIs(t, err, ErrInvalidWindow)
	}
}

func TestHasConflict_Symmetric(t *testing.T) {
	base := at(t, "2025-05-01T00:00")
	windows := make([]Window, 0, 16)
	for s := 0; s < 4; s++ {
		for e := s + 1; e <= 4; e++ {
			windows = append(windows, Window{Start: base.Add(time.Duration(s) * time.Hour), End: base.Add(time.Duration(e) * time.Hour)})
		}
	}
	for _, a := range windows {
		for _, b := range windows {
			ab, err := HasConflict(room1, a, []Reservation{existing("b", room1, b, StatusSubmitted)}, "")
			require.NoError(t, err)
			ba, err := HasConflict(room1, b, []Reservation{existing("a", room1, a, StatusSubmitted)}, "")
			require.NoError(t, err)
			assert.Equal(t, ab, ba, "%s vs %s", a, b)
		}
	}
}

func TestCheckAvailable_ReportsConflictingWindow(t *testing.T) {
	held := win(t, "2025-01-10T09:00", "2025-01-10T11:00")
	pool := []Reservation{existing("a", room1, held, StatusApproved)}

	err := CheckAvailable(room1, win(t, "2025-01-10T10:00", "2025-01-10T12:00"), pool, "")
	require.ErrorIs(t, err, ErrConflict)

	var ce *ConflictError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, held, ce.Window)
	assert.Equal(t, room1, ce.Resource)
}

func TestWindowClip(t *testing.T) {
	w := win(t, "2025-01-10T09:00", "2025-01-10T12:00")

	got, ok := w.Clip(win(t, "2025-01-10T10:00", "2025-01-10T18:00"))
	require.True(t, ok)
	assert.Equal(t, 2*time.Hour, got.Duration())

	_, ok = w.Clip(win(t, "2025-01-10T12:00", "2025-01-10T18:00"))
	assert.False(t, ok)
}
