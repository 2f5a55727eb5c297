package metrics

import (
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

	registryCallsTotal   *prometheus.CounterVec
	registryCallDuration *prometheus.HistogramVec
	profileBuildsTotal   *prometheus.CounterVec
	detectedFields       *prometheus.HistogramVec
	policySavesTotal     *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "policygen",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "policygen",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "policygen",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	registryCallsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "policygen",
			Subsystem: "registry",
			Name:      "calls_total",
			Help:      "Total outbound registry API calls by operation and outcome.",
		},
		[]string{"service", "operation", "outcome"},
	)
	registryCallDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "policygen",
			Subsystem: "registry",
			Name:      "call_duration_seconds",
			Help:      "Outbound registry call duration in seconds, retries included.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "operation"},
	)
	profileBuildsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "policygen",
			Subsystem: "profile",
			Name:      "builds_total",
			Help:      "Total profile assemblies by result.",
		},
		[]string{"service", "result"},
	)
	detectedFields := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "policygen",
			Subsystem: "profile",
			Name:      "detected_fields",
			Help:      "Distribution of detected technology fields per assembled profile.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 10, 15},
		},
		[]string{"service"},
	)
	policySavesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "policygen",
			Subsystem: "policy",
			Name:      "saves_total",
			Help:      "Total policy save attempts by result.",
		},
		[]string{"service", "result"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		registryCallsTotal,
		registryCallDuration,
		profileBuildsTotal,
		detectedFields,
		policySavesTotal,
	)

	return &HTTPServerMetrics{
		registry:             registry,
		requestTotal:         requestTotal,
		requestDuration:      requestDuration,
		requestInFlight:      requestInFlight,
		registryCallsTotal:   registryCallsTotal,
		registryCallDuration: registryCallDuration,
		profileBuildsTotal:   profileBuildsTotal,
		detectedFields:       detectedFields,
		policySavesTotal:     policySavesTotal,
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

// normalizePath keeps organization IDs out of the path label.
func normalizePath(path string) string {
	if !strings.HasPrefix(path, "/v1/organizations/") {
		return path
	}
	rest := strings.TrimPrefix(path, "/v1/organizations/")
	slash := strings.IndexByte(rest, '/')
	if slash < 0 {
		return "/v1/organizations/{organization_id}"
	}
	return "/v1/organizations/{organization_id}" + rest[slash:]
}

// RegistryObserver binds the service label so the registry client can report
// call outcomes without knowing about Prometheus.
func (m *HTTPServerMetrics) RegistryObserver(service string) RegistryObserver {
	return RegistryObserver{metrics: m, service: service}
}

type RegistryObserver struct {
	metrics *HTTPServerMetrics
	service string
}

func (o RegistryObserver) ObserveRegistryCall(operation, outcome string, elapsed time.Duration) {
	o.metrics.registryCallsTotal.WithLabelValues(o.service, operation, outcome).Inc()
	o.metrics.registryCallDuration.WithLabelValues(o.service, operation).Observe(elapsed.Seconds())
}

func (m *HTTPServerMetrics) RecordProfileBuild(service string, fieldCount int, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	m.profileBuildsTotal.WithLabelValues(service, result).Inc()
	if err == nil {
		m.detectedFields.WithLabelValues(service).Observe(float64(fieldCount))
	}
}

func (m *HTTPServerMetrics) RecordPolicySave(service string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	m.policySavesTotal.WithLabelValues(service, result).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
