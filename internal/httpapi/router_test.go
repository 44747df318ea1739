package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusreservation/internal/auth"
	"campusreservation/internal/booking"
	"campusreservation/internal/reservation"
	"campusreservation/pkg/config"
)

const testSecret = "router_test_secret"

type harness struct {
	t       *testing.T
	handler http.Handler
	cfg     config.Config
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	cfg := config.Config{
		AppEnv: "prod",
		Auth:   config.AuthConfig{JWTSecret: testSecret, Issuer: "test", TokenTTL: time.Hour},
	}
	svc := reservation.NewService(reservation.NewMemStore(), nil, log)
	return &harness{
		t:       t,
		cfg:     cfg,
		handler: NewRouter(Dependencies{Cfg: cfg, Log: log, Reservations: svc}),
	}
}

func (h *harness) token(userID string, role auth.Role) string {
	tok, err := auth.IssueToken(auth.Principal{UserID: userID, Role: role}, testSecret, "test", time.Hour, time.Now())
	require.NoError(h.t, err)
	return tok
}

func (h *harness) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

type reservationEnvelope struct {
	Reservation booking.Reservation `json:"reservation"`
}

type errorEnvelope struct {
	Error struct {
		Code string `json:"code"`
	} `json:"error"`
}

func createBody(start, end string) map[string]any {
	return map[string]any{
		"resourceType": "ruangan",
		"resourceId":   "R1",
		"start":        start,
		"end":          end,
		"purpose":      "thesis defense",
	}
}

func TestRouter_SubmitApproveFlow(t *testing.T) {
	h := newHarness(t)
	student := h.token("student-1", auth.RoleStudent)
	staff := h.token("staff-1", auth.RoleStaff)

	rec := h.do(http.MethodPost, "/v1/reservations", student, createBody("2025-01-10T09:00:00Z", "2025-01-10T11:00:00Z"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[reservationEnvelope](t, rec).Reservation
	assert.Equal(t, booking.StatusSubmitted, created.Status)
	assert.Equal(t, booking.ResourceRoom, created.Resource.Type)

	rec = h.do(http.MethodPost, "/v1/reservations", student, createBody("2025-01-10T10:00:00Z", "2025-01-10T12:00:00Z"))
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "RESERVATION_CONFLICT", decodeBody[errorEnvelope](t, rec).Error.Code)

	rec = h.do(http.MethodPatch, "/v1/reservations/"+created.ID+"/status", student, map[string]any{"event": "approve"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(http.MethodPatch, "/v1/reservations/"+created.ID+"/status", staff, map[string]any{"event": "complete"})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "INVALID_STATE_TRANSITION", decodeBody[errorEnvelope](t, rec).Error.Code)

	rec = h.do(http.MethodPatch, "/v1/reservations/"+created.ID+"/status", staff, map[string]any{"event": "approve", "note": "OK, proceed"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	approved := decodeBody[reservationEnvelope](t, rec).Reservation
	assert.Equal(t, booking.StatusApproved, approved.Status)
	assert.Equal(t, "OK, proceed", approved.AdminNote)

	rec = h.do(http.MethodGet, "/v1/reservations/"+created.ID+"/events", student, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	evs := decodeBody[struct {
		Items []map[string]any `json:"items"`
	}](t, rec)
	assert.Len(t, evs.Items, 2)
}

func TestRouter_InvalidWindow(t *testing.T) {
	h := newHarness(t)
	student := h.token("student-1", auth.RoleStudent)

	rec := h.do(http.MethodPost, "/v1/reservations", student, createBody("2025-01-10T11:00:00Z", "2025-01-10T11:00:00Z"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_WINDOW", decodeBody[errorEnvelope](t, rec).Error.Code)
}

func TestRouter_MissingPurpose(t *testing.T) {
	h := newHarness(t)
	student := h.token("student-1", auth.RoleStudent)

	body := createBody("2025-01-10T09:00:00Z", "2025-01-10T10:00:00Z")
	delete(body, "purpose")
	rec := h.do(http.MethodPost, "/v1/reservations", student, body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", decodeBody[errorEnvelope](t, rec).Error.Code)
}

func TestRouter_Unauthenticated(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodGet, "/v1/reservations", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(http.MethodGet, "/v1/reservations", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_OtherUsersReservationsHidden(t *testing.T) {
	h := newHarness(t)
	alice := h.token("alice", auth.RoleStudent)
	bob := h.token("bob", auth.RoleLecturer)

	rec := h.do(http.MethodPost, "/v1/reservations", alice, createBody("2025-01-10T09:00:00Z", "2025-01-10T11:00:00Z"))
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody[reservationEnvelope](t, rec).Reservation

	rec = h.do(http.MethodGet, "/v1/reservations/"+created.ID, bob, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(http.MethodGet, "/v1/reservations", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[struct {
		Items []booking.Reservation `json:"items"`
	}](t, rec)
	assert.Empty(t, list.Items)

	rec = h.do(http.MethodGet, "/v1/resources/room/R1/reservations", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "thesis defense")
	assert.Contains(t, rec.Body.String(), created.ID)
}

func TestRouter_CheckAvailability(t *testing.T) {
	h := newHarness(t)
	student := h.token("student-1", auth.RoleStudent)

	rec := h.do(http.MethodPost, "/v1/reservations", student, createBody("2025-01-10T09:00:00Z", "2025-01-10T11:00:00Z"))
	require.Equal(t, http.StatusCreated, rec.Code)

	body := createBody("2025-01-10T11:00:00Z", "2025-01-10T12:00:00Z")
	delete(body, "purpose")
	rec = h.do(http.MethodPost, "/v1/reservations/check", student, body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"conflict":false}`, rec.Body.String())

	body = createBody("2025-01-10T10:30:00Z", "2025-01-10T12:00:00Z")
	delete(body, "purpose")
	rec = h.do(http.MethodPost, "/v1/reservations/check", student, body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"conflict":true`)
}

func TestRouter_UsageAndReport(t *testing.T) {
	h := newHarness(t)
	student := h.token("student-1", auth.RoleStudent)
	admin := h.token("admin-1", auth.RoleAdmin)

	rec := h.do(http.MethodPost, "/v1/reservations", student, createBody("2025-01-10T09:00:00Z", "2025-01-10T11:00:00Z"))
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeBody[reservationEnvelope](t, rec).Reservation.ID

	rec = h.do(http.MethodPost, "/v1/reservations/"+id+"/usage", admin, map[string]any{"action": "mulai"})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "USAGE_NOT_ALLOWED", decodeBody[errorEnvelope](t, rec).Error.Code)

	rec = h.do(http.MethodPatch, "/v1/reservations/"+id+"/status", admin, map[string]any{"event": "approve"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(http.MethodPost, "/v1/reservations/"+id+"/usage", admin, map[string]any{"action": "finish"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, booking.StatusCompleted, decodeBody[reservationEnvelope](t, rec).Reservation.Status)

	rec = h.do(http.MethodGet, "/v1/reports/utilization?from=2025-01-10T00:00:00Z&to=2025-01-11T00:00:00Z", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"totalHours":"2"`)

	rec = h.do(http.MethodGet, "/v1/reports/utilization", student, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_DevHeadersOnlyOutsideProd(t *testing.T) {
	h := newHarness(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/reservations", nil)
	req.Header.Set("X-User-Id", "u1")
	req.Header.Set("X-User-Role", "mahasiswa")
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	log := logrus.New()
	log.SetOutput(io.Discard)
	dev := h.cfg
	dev.AppEnv = "dev"
	handler := NewRouter(Dependencies{Cfg: dev, Log: log, Reservations: reservation.NewService(reservation.NewMemStore(), nil, log)})
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
