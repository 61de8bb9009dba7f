// Package metrics provides Prometheus metrics for the SkillCraft client.
package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Client-side metrics
var (
	// apiRequestsTotal records every remote call issued by the gateway.
	// Labels:
	//   - resource: first path segment (e.g., "Roadmaps", "Profile")
	//   - method: HTTP method
	//   - status: HTTP status code, or "error" for transport failures
	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skillcraft_api_requests_total",
			Help: "Total number of remote API requests",
		},
		[]string{"resource", "method", "status"},
	)

	// apiRequestDuration records remote call latency.
	// Buckets: 50ms .. 30s
	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "skillcraft_api_request_duration_seconds",
			Help:    "Duration of remote API requests in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"resource", "method"},
	)

	// sessionEventsTotal records session lifecycle events.
	// Labels:
	//   - event: login, logout, evicted, unauthorized, energy_unknown
	sessionEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skillcraft_session_events_total",
			Help: "Total number of session lifecycle events",
		},
		[]string{"event"},
	)

	// progressCommitsTotal records progress commit outcomes.
	// Labels:
	//   - outcome: noop, ok, partial, failed, discarded
	progressCommitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skillcraft_progress_commits_total",
			Help: "Total number of progress commits by outcome",
		},
		[]string{"outcome"},
	)

	// editorSavesTotal records editor save attempts.
	// Labels:
	//   - entity: roadmap, milestone, step
	//   - outcome: ok, failed, discarded
	editorSavesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skillcraft_editor_saves_total",
			Help: "Total number of editor save attempts by outcome",
		},
		[]string{"entity", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(apiRequestsTotal)
	prometheus.MustRegister(apiRequestDuration)
	prometheus.MustRegister(sessionEventsTotal)
	prometheus.MustRegister(progressCommitsTotal)
	prometheus.MustRegister(editorSavesTotal)
}

// RecordAPIRequest records a finished remote call.
func RecordAPIRequest(resource, method, status string, durationSeconds float64) {
	apiRequestsTotal.WithLabelValues(resource, method, status).Inc()
	apiRequestDuration.WithLabelValues(resource, method).Observe(durationSeconds)
}

// RecordSessionEvent records a session lifecycle event.
func RecordSessionEvent(event string) {
	sessionEventsTotal.WithLabelValues(event).Inc()
}

// RecordProgressCommit records the outcome of a progress commit.
func RecordProgressCommit(outcome string) {
	progressCommitsTotal.WithLabelValues(outcome).Inc()
}

// RecordEditorSave records the outcome of an editor save.
func RecordEditorSave(entity, outcome string) {
	editorSavesTotal.WithLabelValues(entity, outcome).Inc()
}

// WriteText dumps every registered metric family in the Prometheus text format.
func WriteText(w io.Writer) error {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
