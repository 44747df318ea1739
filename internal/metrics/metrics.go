package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	submissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reservations",
		Subsystem: "submit",
		Name:      "total",
		Help:      "Reservation submissions broken down by outcome (created, conflict, invalid, error).",
	}, []string{"result"})

	transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reservations",
		Subsystem: "lifecycle",
		Name:      "transitions_total",
		Help:      "Status transition attempts broken down by event and outcome.",
	}, []string{"event", "result"})

	notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reservations",
		Subsystem: "notify",
		Name:      "deliveries_total",
		Help:      "Status change notifications broken down by sink and outcome.",
	}, []string{"sink", "result"})
)

func RecordSubmission(result string) {
	if result == "" {
		result = "error"
	}
	submissions.WithLabelValues(result).Inc()
}

func RecordTransition(event, result string) {
	transitions.WithLabelValues(event, result).Inc()
}

func RecordNotification(sink string, err error) {
	result := "ok"
	if err != nil {
		result = "failed"
	}
	notifications.WithLabelValues(sink, result).Inc()
}

func Handler() http.Handler {
	return promhttp.Handler()
}
