package httpapi

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/runnerr0/chronicle-mcp/internal/history"
)

// metrics tracks request counts and latency both for the JSON summary and
// for a private Prometheus registry.
type metrics struct {
	started  time.Time
	now      func() time.Time
	requests atomic.Int64
	latency  atomic.Int64 // nanoseconds, summed

	registry *prometheus.Registry
	total    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newMetrics(svc *history.Service, now func() time.Time) *metrics {
	m := &metrics{
		started:  now(),
		now:      now,
		registry: prometheus.NewRegistry(),
		total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chronicle_requests_total",
			Help: "HTTP requests served, by route and status code.",
		}, []string{"route", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chronicle_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
	m.registry.MustRegister(
		m.total,
		m.duration,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "chronicle_uptime_seconds",
			Help: "Seconds since the server started.",
		}, func() float64 { return m.uptime().Seconds() }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "chronicle_browsers_available",
			Help: "Browsers with a readable history database.",
		}, func() float64 { return float64(len(svc.ListBrowsers().Browsers)) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "chronicle_cache_entries",
			Help: "Cached query results.",
		}, func() float64 { return float64(svc.Cache().Stats().Size) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "chronicle_cache_hits_total",
			Help: "Query results served from the cache.",
		}, func() float64 { return float64(svc.Cache().Stats().Hits) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "chronicle_cache_misses_total",
			Help: "Queries that missed the cache.",
		}, func() float64 { return float64(svc.Cache().Stats().Misses) }),
	)
	return m
}

func (m *metrics) uptime() time.Duration { return m.now().Sub(m.started) }

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

func (m *metrics) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := m.now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		elapsed := m.now().Sub(start)

		// Pattern is filled in by the mux during routing.
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.requests.Add(1)
		m.latency.Add(int64(elapsed))
		m.total.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		m.duration.WithLabelValues(route).Observe(elapsed.Seconds())
	})
}

func (s *Server) metricsJSON(w http.ResponseWriter, _ *http.Request) {
	m := s.metrics
	uptime := m.uptime().Seconds()
	requests := m.requests.Load()

	var rps, avg float64
	if uptime > 0 {
		rps = float64(requests) / uptime
	}
	if requests > 0 {
		avg = time.Duration(m.latency.Load() / requests).Seconds()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"uptime_seconds":          uptime,
		"requests_total":          requests,
		"requests_per_second":     rps,
		"average_latency_seconds": avg,
		"browsers_available":      len(s.svc.ListBrowsers().Browsers),
		"cache":                   s.svc.Cache().Stats(),
	})
}
