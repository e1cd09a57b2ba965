package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the lead service.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	leadsCreated       *prometheus.CounterVec
	validationFailures prometheus.Counter
	storageErrors      *prometheus.CounterVec
	idempotentReplays  prometheus.Counter
	notifyErrors       *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		leadsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leads_created_total",
				Help: "Total leads persisted, by intent.",
			},
			[]string{"intent"},
		),
		validationFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "leads_validation_failures_total",
				Help: "Total lead submissions rejected by schema validation.",
			},
		),
		storageErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leads_storage_errors_total",
				Help: "Total storage failures, by operation.",
			},
			[]string{"op"},
		),
		idempotentReplays: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "leads_idempotent_replays_total",
				Help: "Total submissions answered from a previous Idempotency-Key.",
			},
		),
		notifyErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leads_notify_errors_total",
				Help: "Total failed lead notifications, by notifier.",
			},
			[]string{"notifier"},
		),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total HTTP requests.",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

// IncrLeadCreated counts a persisted lead.
func (m *Metrics) IncrLeadCreated(intent string) {
	m.leadsCreated.WithLabelValues(intent).Inc()
}

// IncrValidationFailure counts a rejected submission.
func (m *Metrics) IncrValidationFailure() {
	m.validationFailures.Inc()
}

// IncrStorageError counts a storage failure for op.
func (m *Metrics) IncrStorageError(op string) {
	m.storageErrors.WithLabelValues(op).Inc()
}

// IncrIdempotentReplay counts a replayed submission.
func (m *Metrics) IncrIdempotentReplay() {
	m.idempotentReplays.Inc()
}

// IncrNotifyError counts a failed notification.
func (m *Metrics) IncrNotifyError(notifier string) {
	m.notifyErrors.WithLabelValues(notifier).Inc()
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Snapshot is a point-in-time read of the lead counters.
type Snapshot struct {
	CreatedSupplier     float64
	CreatedPrivateLabel float64
	ValidationFailures  float64
	IdempotentReplays   float64
}

// Snapshot reads the current lead counter values.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		CreatedSupplier:     getCounterValue(m.leadsCreated.WithLabelValues("supplier")),
		CreatedPrivateLabel: getCounterValue(m.leadsCreated.WithLabelValues("private-label")),
		ValidationFailures:  getCounterValue(m.validationFailures),
		IdempotentReplays:   getCounterValue(m.idempotentReplays),
	}
}

// StorageErrors returns the storage error count for op.
func (m *Metrics) StorageErrors(op string) float64 {
	return getCounterValue(m.storageErrors.WithLabelValues(op))
}

// NotifyErrors returns the notification error count for notifier.
func (m *Metrics) NotifyErrors(notifier string) float64 {
	return getCounterValue(m.notifyErrors.WithLabelValues(notifier))
}

// getCounterValue extracts the current float64 value from a counter.
func getCounterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
