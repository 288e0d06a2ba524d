package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	searchTotal      *prometheus.CounterVec
	searchResults    *prometheus.HistogramVec
	searchDuration   *prometheus.HistogramVec
	resolveTotal     *prometheus.CounterVec
	resolveAttempted *prometheus.HistogramVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tce",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tce",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tce",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	searchTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tce",
			Subsystem: "search",
			Name:      "requests_total",
			Help:      "Total searches by domain, mode and outcome.",
		},
		[]string{"service", "domain", "mode", "outcome"},
	)
	searchResults := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tce",
			Subsystem: "search",
			Name:      "results",
			Help:      "Distribution of matched years per search.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service", "domain", "mode"},
	)
	searchDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tce",
			Subsystem: "search",
			Name:      "duration_seconds",
			Help:      "Search duration in seconds, dataset load included.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "domain"},
	)
	resolveTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tce",
			Subsystem: "resolve",
			Name:      "requests_total",
			Help:      "Total image resolutions by domain and outcome.",
		},
		[]string{"service", "domain", "outcome"},
	)
	resolveAttempted := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tce",
			Subsystem: "resolve",
			Name:      "candidates_attempted",
			Help:      "Distribution of candidate locators tried per resolution.",
			Buckets:   []float64{1, 2, 3, 4, 6, 8},
		},
		[]string{"service", "domain"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		searchTotal,
		searchResults,
		searchDuration,
		resolveTotal,
		resolveAttempted,
	)

	return &HTTPServerMetrics{
		registry:         registry,
		requestTotal:     requestTotal,
		requestDuration:  requestDuration,
		requestInFlight:  requestInFlight,
		searchTotal:      searchTotal,
		searchResults:    searchResults,
		searchDuration:   searchDuration,
		resolveTotal:     resolveTotal,
		resolveAttempted: resolveAttempted,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath collapses the domain segment to keep label cardinality bounded.
func normalizePath(path string) string {
	rest, ok := strings.CutPrefix(path, "/v1/domains/")
	if !ok || rest == "" {
		return path
	}
	_, tail, found := strings.Cut(rest, "/")
	if !found {
		return "/v1/domains/{domain}"
	}
	return "/v1/domains/{domain}/" + tail
}

func (m *HTTPServerMetrics) RecordSearch(service, domainName, mode, outcome string, results int, duration time.Duration) {
	if mode == "" {
		mode = "unknown"
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.searchTotal.WithLabelValues(service, domainName, mode, outcome).Inc()
	m.searchDuration.WithLabelValues(service, domainName).Observe(duration.Seconds())
	if outcome == "ok" || outcome == "no_results" {
		m.searchResults.WithLabelValues(service, domainName, mode).Observe(float64(results))
	}
}

func (m *HTTPServerMetrics) RecordResolve(service, domainName, outcome string, candidates int) {
	if outcome == "" {
		outcome = "unknown"
	}
	m.resolveTotal.WithLabelValues(service, domainName, outcome).Inc()
	if candidates > 0 {
		m.resolveAttempted.WithLabelValues(service, domainName).Observe(float64(candidates))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}
