package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var httpDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

// Metrics holds the Prometheus instruments. A nil *Metrics records nothing.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	ActionsTotal            *prometheus.CounterVec
	HistoryDepth            prometheus.Gauge
	AutosavesTotal          *prometheus.CounterVec
	ResponsesTotal          prometheus.Counter
	ValidationFailuresTotal prometheus.Counter
}

// InitMetrics creates and registers all Prometheus metric instruments.
func InitMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "formcraft_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path_pattern", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "formcraft_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: httpDurationBuckets,
		}, []string{"method", "path_pattern"}),
		ActionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "formcraft_builder_actions_total",
			Help: "Total number of builder actions by outcome.",
		}, []string{"action", "outcome"}),
		HistoryDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "formcraft_history_depth",
			Help: "Number of snapshots in the undo history of the open form.",
		}),
		AutosavesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "formcraft_autosaves_total",
			Help: "Total number of auto-save ticks by resulting status.",
		}, []string{"status"}),
		ResponsesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "formcraft_responses_total",
			Help: "Total number of stored form responses.",
		}),
		ValidationFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "formcraft_validation_failures_total",
			Help: "Total number of rejected submissions.",
		}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ActionsTotal,
		m.HistoryDepth,
		m.AutosavesTotal,
		m.ResponsesTotal,
		m.ValidationFailuresTotal,
	)
	return m
}

func (m *Metrics) RecordAction(action, outcome string) {
	if m == nil {
		return
	}
	m.ActionsTotal.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) SetHistoryDepth(n int) {
	if m == nil {
		return
	}
	m.HistoryDepth.Set(float64(n))
}

func (m *Metrics) RecordAutosave(status string) {
	if m == nil {
		return
	}
	m.AutosavesTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordResponse() {
	if m == nil {
		return
	}
	m.ResponsesTotal.Inc()
}

func (m *Metrics) RecordValidationFailure() {
	if m == nil {
		return
	}
	m.ValidationFailuresTotal.Inc()
}

func (m *Metrics) RecordHTTPRequest(method, pathPattern string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, pathPattern, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, pathPattern).Observe(duration.Seconds())
}

// MetricsMiddleware records request metrics using chi's route pattern, not
// the raw URL path, to keep label cardinality bounded.
func (m *Metrics) MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		m.RecordHTTPRequest(r.Method, routePattern(r), sw.status, time.Since(start))
	})
}

// Handler returns the Prometheus HTTP handler serving g
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return r.URL.Path
	}
	pattern := strings.TrimSuffix(strings.Join(rctx.RoutePatterns, ""), "/*")
	if pattern == "" {
		return r.URL.Path
	}
	return pattern
}

type statusWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.written {
		w.status = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.written = true
	return w.ResponseWriter.Write(b)
}
