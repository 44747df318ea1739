package report

import (
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"campusreservation/internal/api"
	"campusreservation/internal/booking"
)

type Handlers struct {
	Service Service
	Log     logrus.FieldLogger
}

// Utilization defaults to the last 30 days when from/to are omitted.
func (h Handlers) Utilization(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	window := booking.Window{Start: now.AddDate(0, 0, -30), End: now}

	q := r.URL.Query()
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid from")
			return
		}
		window.Start = t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid to")
			return
		}
		window.End = t
	}

	out, err := h.Service.Utilization(r.Context(), window)
	if err != nil {
		if errors.Is(err, booking.ErrInvalidWindow) {
			api.WriteError(w, http.StatusBadRequest, "INVALID_WINDOW", "from must be before to")
			return
		}
		if h.Log != nil {
			h.Log.WithError(err).Error("utilization report failed")
		}
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	api.WriteJSON(w, http.StatusOK, out)
}
