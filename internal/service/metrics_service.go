package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/career-services-api/internal/models"
)

// MetricsService owns the Prometheus registry for HTTP and domain instrumentation.
// A nil *MetricsService is valid and records nothing.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	cacheLatency    prometheus.Histogram

	quotaConsumed   *prometheus.CounterVec
	quotaRejected   *prometheus.CounterVec
	slotReservation *prometheus.CounterVec
	transitions     *prometheus.CounterVec
	slaViolations   prometheus.Counter
	emailsDropped   prometheus.Counter
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()
	m := &MetricsService{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Cache lookups by result",
		}, []string{"result"}),
		cacheLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_latency_seconds",
			Help:    "Latency for cache operations",
			Buckets: prometheus.DefBuckets,
		}),
		quotaConsumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quota_consumed_total",
			Help: "Units of metered features consumed",
		}, []string{"feature"}),
		quotaRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quota_rejected_total",
			Help: "Requests rejected because the feature limit was reached",
		}, []string{"feature"}),
		slotReservation: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "slot_reservations_total",
			Help: "Interview slot reservation attempts by result",
		}, []string{"result"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "appointments_transitions_total",
			Help: "Appointment state transitions by target status",
		}, []string{"status"}),
		slaViolations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sla_violations_total",
			Help: "Overdue appointments found by the SLA scan",
		}),
		emailsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "emails_dropped_total",
			Help: "Emails that could not be queued",
		}),
	}

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(m.requestDuration, m.requestTotal, m.cacheLookups, m.cacheLatency, m.quotaConsumed,
		m.quotaRejected, m.slotReservation, m.transitions, m.slaViolations, m.emailsDropped, goroutines)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records a cache lookup.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
	m.cacheLatency.Observe(duration.Seconds())
}

// QuotaConsumed counts consumed feature units.
func (m *MetricsService) QuotaConsumed(feature models.Feature, amount float64) {
	if m == nil {
		return
	}
	m.quotaConsumed.WithLabelValues(string(feature)).Add(amount)
}

// QuotaRejected counts a request refused by the feature limit.
func (m *MetricsService) QuotaRejected(feature models.Feature) {
	if m == nil {
		return
	}
	m.quotaRejected.WithLabelValues(string(feature)).Inc()
}

// SlotReservation counts a reservation attempt.
func (m *MetricsService) SlotReservation(reserved bool) {
	if m == nil {
		return
	}
	result := "full"
	if reserved {
		result = "reserved"
	}
	m.slotReservation.WithLabelValues(result).Inc()
}

// AppointmentTransition counts an appointment reaching status.
func (m *MetricsService) AppointmentTransition(status models.AppointmentStatus) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(string(status)).Inc()
}

// SLAViolation counts an overdue appointment found by a scan.
func (m *MetricsService) SLAViolation() {
	if m == nil {
		return
	}
	m.slaViolations.Inc()
}

// EmailDropped counts an email that never reached the queue.
func (m *MetricsService) EmailDropped() {
	if m == nil {
		return
	}
	m.emailsDropped.Inc()
}
