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

const namespace = "ltc"

type HTTPServerMetrics struct {
	registry *prometheus.Registry
	service  string

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	ragRequestsTotal     *prometheus.CounterVec
	ragKeywords          *prometheus.HistogramVec
	ragCandidates        *prometheus.HistogramVec
	ragRetrievedPassages *prometheus.HistogramVec
	ragNoContextTotal    *prometheus.CounterVec
	ragDuration          *prometheus.HistogramVec

	upstreamCallsTotal   *prometheus.CounterVec
	upstreamCallDuration *prometheus.HistogramVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	ragRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rag",
			Name:      "requests_total",
			Help:      "Total successful chat turns by persona mode.",
		},
		[]string{"service", "mode"},
	)
	ragKeywords := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rag",
			Name:      "keywords",
			Help:      "Distribution of expanded keywords per retrieval.",
			Buckets:   []float64{0, 1, 2, 4, 6, 8, 10},
		},
		[]string{"service", "mode"},
	)
	ragCandidates := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rag",
			Name:      "candidates",
			Help:      "Distribution of lexical filter candidates per retrieval.",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100, 250, 1000},
		},
		[]string{"service", "mode"},
	)
	ragRetrievedPassages := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rag",
			Name:      "retrieved_passages",
			Help:      "Distribution of retrieved passages per retrieval.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8},
		},
		[]string{"service", "mode"},
	)
	ragNoContextTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rag",
			Name:      "no_context_total",
			Help:      "Total retrievals that returned no passage.",
		},
		[]string{"service", "mode"},
	)
	ragDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rag",
			Name:      "duration_seconds",
			Help:      "Chat turn duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "mode"},
	)
	upstreamCallsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "calls_total",
			Help:      "Total upstream calls by operation and outcome.",
		},
		[]string{"service", "operation", "outcome"},
	)
	upstreamCallDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "call_duration_seconds",
			Help:      "Upstream call duration in seconds, retries included.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "operation"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		ragRequestsTotal,
		ragKeywords,
		ragCandidates,
		ragRetrievedPassages,
		ragNoContextTotal,
		ragDuration,
		upstreamCallsTotal,
		upstreamCallDuration,
	)

	return &HTTPServerMetrics{
		registry:             registry,
		service:              service,
		requestTotal:         requestTotal,
		requestDuration:      requestDuration,
		requestInFlight:      requestInFlight,
		ragRequestsTotal:     ragRequestsTotal,
		ragKeywords:          ragKeywords,
		ragCandidates:        ragCandidates,
		ragRetrievedPassages: ragRetrievedPassages,
		ragNoContextTotal:    ragNoContextTotal,
		ragDuration:          ragDuration,
		upstreamCallsTotal:   upstreamCallsTotal,
		upstreamCallDuration: upstreamCallDuration,
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

var knownRoutes = map[string]struct{}{
	"/healthz":               {},
	"/metrics":               {},
	"/api/refine-prose":      {},
	"/api/explore-lost-time": {},
	"/api/qa":                {},
	"/api/chat":              {},
}

// normalizePath bounds the path label to the served routes; anything else is
// counted as "other".
func normalizePath(path string) string {
	if _, ok := knownRoutes[path]; ok {
		return path
	}
	if rest, ok := strings.CutPrefix(path, "/api/sessions/"); ok {
		id, tail, found := strings.Cut(rest, "/")
		if found && id != "" && tail == "history" {
			return "/api/sessions/{id}/history"
		}
	}
	return "other"
}

func (m *HTTPServerMetrics) RecordChatTurn(service, mode string, duration time.Duration) {
	if mode == "" {
		mode = "unknown"
	}
	m.ragRequestsTotal.WithLabelValues(service, mode).Inc()
	m.ragDuration.WithLabelValues(service, mode).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) RecordRetrieval(service, mode string, keywords, candidates, passages int) {
	if mode == "" {
		mode = "unknown"
	}
	m.ragKeywords.WithLabelValues(service, mode).Observe(float64(keywords))
	m.ragCandidates.WithLabelValues(service, mode).Observe(float64(candidates))
	m.ragRetrievedPassages.WithLabelValues(service, mode).Observe(float64(passages))
	if passages == 0 {
		m.ragNoContextTotal.WithLabelValues(service, mode).Inc()
	}
}

// ObserveUpstreamCall records executor outcomes for ollama, qdrant and nats calls.
func (m *HTTPServerMetrics) ObserveUpstreamCall(operation, outcome string, duration time.Duration) {
	m.upstreamCallsTotal.WithLabelValues(m.service, operation, outcome).Inc()
	m.upstreamCallDuration.WithLabelValues(m.service, operation).Observe(duration.Seconds())
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
