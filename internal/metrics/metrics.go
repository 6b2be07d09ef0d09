// Package metrics exposes Prometheus collectors for the workshop API.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "workshop",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "workshop",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "workshop",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	groupingRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "workshop",
			Subsystem: "grouping",
			Name:      "runs_total",
			Help:      "Grouping runs by phase and outcome (ai, fallback, error).",
		},
		[]string{"phase", "outcome"},
	)

	groupingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "workshop",
			Subsystem: "grouping",
			Name:      "duration_seconds",
			Help:      "Duration of grouping runs, grouper call included.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
		[]string{"phase"},
	)

	votesCast = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "workshop",
			Subsystem: "voting",
			Name:      "votes_total",
			Help:      "Votes recorded, by resulting quadrant.",
		},
		[]string{"quadrant"},
	)

	phaseTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "workshop",
			Subsystem: "sessions",
			Name:      "phase_transitions_total",
			Help:      "Phase changes by kind (advance, retreat, jump) and target phase.",
		},
		[]string{"kind", "to"},
	)

	sessionsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "workshop",
			Subsystem: "sessions",
			Name:      "created_total",
			Help:      "Sessions created or imported.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		groupingRuns,
		groupingDuration,
		votesCast,
		phaseTransitions,
		sessionsCreated,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps next with HTTP metrics. Paths are labelled with
// the matched mux route template to keep cardinality bounded.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		path := routePath(r)
		method := strings.ToUpper(r.Method)
		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	})
}

// RecordGrouping records one grouping run.
func RecordGrouping(phase, outcome string, duration time.Duration) {
	if duration <= 0 {
		duration = time.Millisecond
	}
	groupingRuns.WithLabelValues(phase, outcome).Inc()
	groupingDuration.WithLabelValues(phase).Observe(duration.Seconds())
}

// RecordVote counts a vote by the quadrant it left the feature in.
func RecordVote(quadrant string) {
	if quadrant == "" {
		quadrant = "none"
	}
	votesCast.WithLabelValues(quadrant).Inc()
}

// RecordTransition counts a phase change.
func RecordTransition(kind, to string) {
	phaseTransitions.WithLabelValues(kind, to).Inc()
}

// RecordSessionCreated counts a new session.
func RecordSessionCreated() {
	sessionsCreated.Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func routePath(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}
