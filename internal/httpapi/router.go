package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"campusreservation/internal/api"
	"campusreservation/internal/metrics"
	"campusreservation/internal/report"
	"campusreservation/internal/reservation"
	"campusreservation/pkg/config"
)

type Dependencies struct {
	Cfg          config.Config
	Log          logrus.FieldLogger
	Reservations *reservation.Service
}

func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(api.RequestLogger(deps.Log))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler())

	reservationHandlers := reservation.Handlers{Service: deps.Reservations, Log: deps.Log}
	reportHandlers := report.Handlers{
		Service: report.Service{Reservations: deps.Reservations},
		Log:     deps.Log,
	}

	// v1
	r.Route("/v1", func(r chi.Router) {
		// The browser frontend lives on its own origin.
		r.Use(api.CORSMiddleware(api.CORSOptions{
			AllowedOrigins: deps.Cfg.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "Authorization"},
			MaxAgeSeconds:  600,
		}))
		r.Use(api.Authenticate(deps.Cfg))

		r.Post("/reservations", reservationHandlers.Create)
		r.Post("/reservations/check", reservationHandlers.Check)
		r.Get("/reservations", reservationHandlers.List)
		r.Get("/reservations/{id}", reservationHandlers.Get)
		r.Get("/reservations/{id}/events", reservationHandlers.Events)
		r.Get("/reservations/{id}/usage", reservationHandlers.Usage)
		r.Get("/resources/{type}/{id}/reservations", reservationHandlers.Schedule)

		// Staff actions
		r.Group(func(r chi.Router) {
			r.Use(api.RequireManager)

			r.Patch("/reservations/{id}/status", reservationHandlers.PatchStatus)
			r.Post("/reservations/{id}/usage", reservationHandlers.RecordUsage)
			r.Get("/reports/utilization", reportHandlers.Utilization)
		})
	})

	return r
}
