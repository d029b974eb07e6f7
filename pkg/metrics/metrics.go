package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Ledger operations, labelled by operation name
	LedgerOperations *prometheus.CounterVec
	LedgerLatency    *prometheus.HistogramVec

	// Outbox related metrics
	OutboxEventsProcessed   prometheus.Counter
	OutboxEventsFailed      prometheus.Counter
	OutboxProcessingLatency prometheus.Histogram
	OutboxQueueSize         prometheus.Gauge
	OutboxRetries           *prometheus.CounterVec

	// Snapshot persistence metrics
	SnapshotOperations *prometheus.CounterVec
	SnapshotLatency    prometheus.Histogram

	// Broker metrics
	BrokerOperations *prometheus.CounterVec
}

// NewRegistry returns a registry carrying the Go runtime and process
// collectors, served at /metrics.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// New creates all application metrics and registers them with reg.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		LedgerOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "operations_total",
			Help:      "Total number of ledger operations",
		}, []string{"operation", "status"}),
		LedgerLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "operation_duration_seconds",
			Help:      "Duration of ledger operations, simulated latency included",
			Buckets:   []float64{.001, .01, .1, .25, .5, 1, 1.5, 2.5, 5},
		}, []string{"operation"}),

		OutboxEventsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "events_processed_total",
			Help:      "Total number of successfully published outbox events",
		}),
		OutboxEventsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "events_failed_total",
			Help:      "Total number of outbox events that failed to publish",
		}),
		OutboxProcessingLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "processing_duration_seconds",
			Help:      "Time spent processing a batch of outbox events",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		OutboxQueueSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "queue_size",
			Help:      "Number of pending events seen by the last poll",
		}),
		OutboxRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "retry_attempts_total",
			Help:      "Total number of retry attempts for outbox events",
		}, []string{"event_type"}),

		SnapshotOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "operations_total",
			Help:      "Total number of snapshot saves and loads",
		}, []string{"operation", "status"}),
		SnapshotLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "save_duration_seconds",
			Help:      "Duration of snapshot saves",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),

		BrokerOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "broker",
			Name:      "operations_total",
			Help:      "Total number of broker publishes",
		}, []string{"operation", "status"}),
	}
}

// ObserveLedger records one ledger operation that started at start.
func (m *Metrics) ObserveLedger(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.LedgerOperations.WithLabelValues(operation, Status(err)).Inc()
	m.LedgerLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// Status is the status label for err.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
