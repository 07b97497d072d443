// Package metrics holds the Prometheus collectors of the backend.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Registrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "qevent",
		Name:      "registrations_total",
		Help:      "Attendees registered, by source.",
	}, []string{"source"})

	SyncRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "qevent",
		Name:      "sync_runs_total",
		Help:      "Data source sync runs, by final status.",
	}, []string{"status"})

	SyncedAttendees = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "qevent",
		Name:      "synced_attendees_total",
		Help:      "Attendees touched by data source syncs, by outcome (created, updated, failed).",
	}, []string{"outcome"})

	FormConfigSaves = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "qevent",
		Name:      "form_config_saves_total",
		Help:      "Form configurations saved.",
	})
)

func Handler() http.Handler {
	return promhttp.Handler()
}
