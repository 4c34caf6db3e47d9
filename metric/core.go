package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains all platform-level metrics (not store-specific)
type Metrics struct {
	// Pipeline metrics
	ServiceStatus      *prometheus.GaugeVec
	EntitiesProcessed  *prometheus.CounterVec
	RelationshipsAdded *prometheus.CounterVec
	CyclesRejected     *prometheus.CounterVec
	EntitiesSaved      *prometheus.CounterVec
	SaveDuration       *prometheus.HistogramVec
	ErrorsTotal        *prometheus.CounterVec

	// NATS metrics
	NATSConnected      prometheus.Gauge
	NATSRTT            prometheus.Gauge
	NATSReconnects     prometheus.Counter
	NATSCircuitBreaker prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all platform metrics
func NewMetrics() *Metrics {
	return &Metrics{
		// Pipeline metrics
		ServiceStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "semledger",
				Subsystem: "service",
				Name:      "status",
				Help:      "Component status (0=stopped, 1=starting, 2=running, 3=stopping, 4=failed)",
			},
			[]string{"service"},
		),

		EntitiesProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "semledger",
				Subsystem: "entities",
				Name:      "processed_total",
				Help:      "Total number of entities processed by add result",
			},
			[]string{"store", "result"},
		),

		RelationshipsAdded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "semledger",
				Subsystem: "relationships",
				Name:      "added_total",
				Help:      "Total number of relationships added",
			},
			[]string{"store", "relationship"},
		),

		CyclesRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "semledger",
				Subsystem: "relationships",
				Name:      "cycles_rejected_total",
				Help:      "Total number of hierarchy edges rejected because they would form a cycle",
			},
			[]string{"store"},
		),

		EntitiesSaved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "semledger",
				Subsystem: "persistence",
				Name:      "saved_total",
				Help:      "Total number of entities written to a sink",
			},
			[]string{"sink", "entity_type", "status"},
		),

		SaveDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "semledger",
				Subsystem: "persistence",
				Name:      "duration_seconds",
				Help:      "Persistence operation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"component", "operation"},
		),

		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "semledger",
				Subsystem: "errors",
				Name:      "total",
				Help:      "Total number of errors",
			},
			[]string{"component", "type"},
		),

		// NATS metrics
		NATSConnected: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "semledger",
				Subsystem: "nats",
				Name:      "connected",
				Help:      "NATS connection status (0=disconnected, 1=connected)",
			},
		),

		NATSRTT: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "semledger",
				Subsystem: "nats",
				Name:      "rtt_milliseconds",
				Help:      "NATS round-trip time in milliseconds",
			},
		),

		NATSReconnects: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "semledger",
				Subsystem: "nats",
				Name:      "reconnects_total",
				Help:      "Total number of NATS reconnections",
			},
		),

		NATSCircuitBreaker: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "semledger",
				Subsystem: "nats",
				Name:      "circuit_breaker",
				Help:      "NATS circuit breaker status (0=closed, 1=open)",
			},
		),
	}
}

// RecordServiceStatus updates component status metric
func (c *Metrics) RecordServiceStatus(service string, status int) {
	c.ServiceStatus.WithLabelValues(service).Set(float64(status))
}

// RecordEntityProcessed increments the processed counter for an add result
// (inserted, merged, skipped, failed)
func (c *Metrics) RecordEntityProcessed(store, result string) {
	c.EntitiesProcessed.WithLabelValues(store, result).Inc()
}

// RecordRelationshipAdded increments the relationship counter
func (c *Metrics) RecordRelationshipAdded(store, relationship string) {
	c.RelationshipsAdded.WithLabelValues(store, relationship).Inc()
}

// RecordCycleRejected increments the cycle rejection counter
func (c *Metrics) RecordCycleRejected(store string) {
	c.CyclesRejected.WithLabelValues(store).Inc()
}

// RecordEntitySaved increments the sink write counter
func (c *Metrics) RecordEntitySaved(sink, entityType, status string) {
	c.EntitiesSaved.WithLabelValues(sink, entityType, status).Inc()
}

// RecordSaveDuration records how long a persistence operation took
func (c *Metrics) RecordSaveDuration(component, operation string, duration time.Duration) {
	c.SaveDuration.WithLabelValues(component, operation).Observe(duration.Seconds())
}

// RecordError increments error counter
func (c *Metrics) RecordError(component, errorType string) {
	c.ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

// RecordNATSStatus updates NATS connection status
func (c *Metrics) RecordNATSStatus(connected bool) {
	value := 0.0
	if connected {
		value = 1.0
	}
	c.NATSConnected.Set(value)
}

// RecordNATSRTT updates NATS round-trip time
func (c *Metrics) RecordNATSRTT(rtt time.Duration) {
	c.NATSRTT.Set(float64(rtt.Milliseconds()))
}

// RecordNATSReconnect increments reconnection counter
func (c *Metrics) RecordNATSReconnect() {
	c.NATSReconnects.Inc()
}

// RecordCircuitBreakerState updates circuit breaker status
func (c *Metrics) RecordCircuitBreakerState(state int) {
	c.NATSCircuitBreaker.Set(float64(state))
}
