package reservation

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"campusreservation/internal/api"
	"campusreservation/internal/auth"
	"campusreservation/internal/booking"
	"campusreservation/internal/usagelog"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type Handlers struct {
	Service *Service
	Log     logrus.FieldLogger
}

type CreateRequest struct {
	ResourceType string    `json:"resourceType" validate:"required"`
	ResourceID   string    `json:"resourceId" validate:"required"`
	Start        time.Time `json:"start" validate:"required"`
	End          time.Time `json:"end" validate:"required"`
	Purpose      string    `json:"purpose" validate:"required,max=2000"`
}

type CheckRequest struct {
	ResourceType string    `json:"resourceType" validate:"required"`
	ResourceID   string    `json:"resourceId" validate:"required"`
	Start        time.Time `json:"start" validate:"required"`
	End          time.Time `json:"end" validate:"required"`
	// ExcludeID re-validates an existing reservation against its peers.
	ExcludeID string `json:"excludeId,omitempty"`
}

type PatchStatusRequest struct {
	Event string `json:"event" validate:"required"`
	Note  string `json:"note,omitempty" validate:"max=2000"`
}

type UsageRequest struct {
	Action string `json:"action" validate:"required"`
	Note   string `json:"note,omitempty" validate:"max=2000"`
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
			return false
		}
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid request")
		return false
	}
	return true
}

func principal(w http.ResponseWriter, r *http.Request) *auth.Principal {
	p := api.PrincipalFromContext(r.Context())
	if p == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity")
	}
	return p
}

func (h Handlers) Create(w http.ResponseWriter, r *http.Request) {
	p := principal(w, r)
	if p == nil {
		return
	}

	var req CreateRequest
	if !decode(w, r, &req) {
		return
	}
	rt, err := booking.ParseResourceType(req.ResourceType)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid resourceType")
		return
	}

	res, err := h.Service.Submit(r.Context(), booking.Request{
		RequesterID: p.UserID,
		Resource:    booking.Resource{Type: rt, ID: strings.TrimSpace(req.ResourceID)},
		Window:      booking.Window{Start: req.Start, End: req.End},
		Purpose:     req.Purpose,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, map[string]any{"reservation": res})
}

func (h Handlers) Check(w http.ResponseWriter, r *http.Request) {
	if principal(w, r) == nil {
		return
	}

	var req CheckRequest
	if !decode(w, r, &req) {
		return
	}
	rt, err := booking.ParseResourceType(req.ResourceType)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid resourceType")
		return
	}

	resource := booking.Resource{Type: rt, ID: strings.TrimSpace(req.ResourceID)}
	err = h.Service.Check(r.Context(), resource, booking.Window{Start: req.Start, End: req.End}, req.ExcludeID)
	var ce *booking.ConflictError
	switch {
	case err == nil:
		api.WriteJSON(w, http.StatusOK, map[string]any{"conflict": false})
	case errors.As(err, &ce):
		api.WriteJSON(w, http.StatusOK, map[string]any{"conflict": true, "window": ce.Window})
	default:
		h.writeServiceError(w, err)
	}
}

// List returns every reservation to staff and the caller's own otherwise.
func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	p := principal(w, r)
	if p == nil {
		return
	}

	f, ok := parseFilter(w, r)
	if !ok {
		return
	}
	if !p.CanManage() {
		f.RequesterID = p.UserID
	} else if uid := r.URL.Query().Get("requesterId"); uid != "" {
		f.RequesterID = uid
	}

	items, err := h.Service.List(r.Context(), f)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if items == nil {
		items = []booking.Reservation{}
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

// Schedule lists the active reservations of one resource, for calendar views.
func (h Handlers) Schedule(w http.ResponseWriter, r *http.Request) {
	if principal(w, r) == nil {
		return
	}

	rt, err := booking.ParseResourceType(chi.URLParam(r, "type"))
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid resource type")
		return
	}
	resource := booking.Resource{Type: rt, ID: chi.URLParam(r, "id")}

	f, ok := parseFilter(w, r)
	if !ok {
		return
	}
	f.Resource = &resource
	f.Statuses = booking.ActiveStatuses

	items, err := h.Service.List(r.Context(), f)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	// Only the occupied windows are public; requester and purpose are not.
	type slot struct {
		ID     string         `json:"id"`
		Window booking.Window `json:"window"`
		Status booking.Status `json:"status"`
	}
	out := make([]slot, 0, len(items))
	for _, it := range items {
		out = append(out, slot{ID: it.ID, Window: it.Window, Status: it.Status})
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"resource": resource, "items": out})
}

func (h Handlers) Get(w http.ResponseWriter, r *http.Request) {
	res, ok := h.load(w, r)
	if !ok {
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"reservation": res})
}

func (h Handlers) PatchStatus(w http.ResponseWriter, r *http.Request) {
	p := principal(w, r)
	if p == nil {
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing id")
		return
	}

	var req PatchStatusRequest
	if !decode(w, r, &req) {
		return
	}
	ev, err := booking.ParseEvent(req.Event)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid event")
		return
	}

	res, err := h.Service.Act(r.Context(), p.UserID, id, ev, strings.TrimSpace(req.Note))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"reservation": res})
}

func (h Handlers) Events(w http.ResponseWriter, r *http.Request) {
	res, ok := h.load(w, r)
	if !ok {
		return
	}
	evs, err := h.Service.Events(r.Context(), res.ID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": evs})
}

func (h Handlers) RecordUsage(w http.ResponseWriter, r *http.Request) {
	p := principal(w, r)
	if p == nil {
		return
	}

	id := chi.URLParam(r, "id")
	var req UsageRequest
	if !decode(w, r, &req) {
		return
	}
	action, err := usagelog.ParseAction(req.Action)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid action")
		return
	}

	entry, res, err := h.Service.RecordUsage(r.Context(), p.UserID, id, action, strings.TrimSpace(req.Note))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, map[string]any{"usage": entry, "reservation": res})
}

func (h Handlers) Usage(w http.ResponseWriter, r *http.Request) {
	res, ok := h.load(w, r)
	if !ok {
		return
	}
	items, err := h.Service.Usage(r.Context(), res.ID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

// load fetches {id}, hiding other users' reservations from non-staff callers.
func (h Handlers) load(w http.ResponseWriter, r *http.Request) (booking.Reservation, bool) {
	p := principal(w, r)
	if p == nil {
		return booking.Reservation{}, false
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing id")
		return booking.Reservation{}, false
	}

	res, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return booking.Reservation{}, false
	}
	if !p.CanManage() && res.RequesterID != p.UserID {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "reservation not found")
		return booking.Reservation{}, false
	}
	return res, true
}

func parseFilter(w http.ResponseWriter, r *http.Request) (Filter, bool) {
	q := r.URL.Query()
	var f Filter
	if v := q.Get("status"); v != "" {
		for _, part := range strings.Split(v, ",") {
			st, err := booking.ParseStatus(part)
			if err != nil {
				api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid status")
				return Filter{}, false
			}
			f.Statuses = append(f.Statuses, st)
		}
	}
	if v := q.Get("resourceType"); v != "" {
		rt, err := booking.ParseResourceType(v)
		if err != nil {
			api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid resourceType")
			return Filter{}, false
		}
		f.ResourceType = rt
	}
	for key, dst := range map[string]*time.Time{"from": &f.From, "to": &f.To} {
		v := q.Get(key)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid "+key)
			return Filter{}, false
		}
		*dst = t
	}
	return f, true
}

func (h Handlers) writeServiceError(w http.ResponseWriter, err error) {
	var (
		ce  *booking.ConflictError
		ite *booking.IllegalTransitionError
		ve  booking.ValidationError
	)
	switch {
	case errors.Is(err, booking.ErrInvalidWindow):
		api.WriteError(w, http.StatusBadRequest, "INVALID_WINDOW", "start must be before end")
	case errors.As(err, &ce):
		api.WriteError(w, http.StatusConflict, "RESERVATION_CONFLICT",
			fmt.Sprintf("resource already reserved from %s to %s", ce.Window.Start.Format(time.RFC3339), ce.Window.End.Format(time.RFC3339)))
	case errors.As(err, &ite):
		api.WriteError(w, http.StatusConflict, "INVALID_STATE_TRANSITION", ite.Error())
	case errors.Is(err, usagelog.ErrNotAllowed):
		api.WriteError(w, http.StatusConflict, "USAGE_NOT_ALLOWED", err.Error())
	case errors.As(err, &ve):
		api.WriteError(w, http.StatusBadRequest, ve.Code, ve.Message)
	case errors.Is(err, ErrNotFound):
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "reservation not found")
	default:
		if h.Log != nil {
			h.Log.WithError(err).Error("reservation request failed")
		}
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}
