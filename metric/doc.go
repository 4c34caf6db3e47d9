// Package metric provides Prometheus-based metrics collection and HTTP server
// for ledger pipeline monitoring and observability.
//
// The package offers a centralized metrics registry managing both core platform
// metrics (component status, entity throughput, persistence, NATS health) and
// custom store-specific metrics. It includes an HTTP server exposing metrics in
// Prometheus format for monitoring system integration.
//
// # Architecture
//
// The package follows a three-layer design:
//
//  1. Core Metrics: Platform-level metrics automatically registered (Metrics type)
//  2. Service Registry: Extensible registration for component-specific metrics (MetricsRegistrar interface)
//  3. HTTP Server: Metrics endpoint with health checks (Server type)
//
// This architecture separates infrastructure concerns (core metrics) from
// application concerns (store-specific metrics) while providing a unified
// metrics endpoint for monitoring systems.
//
// # Basic Usage
//
// Setting up metrics collection and HTTP server:
//
//	registry := metric.NewMetricsRegistry()
//	server := metric.NewServer(9090, "/metrics", registry)
//
//	go func() {
//	    if err := server.Start(); err != nil {
//	        log.Printf("Metrics server error: %v", err)
//	    }
//	}()
//
//	// Record core platform metrics
//	coreMetrics := registry.CoreMetrics()
//	coreMetrics.RecordServiceStatus("contract-loader", 2)
//	coreMetrics.RecordEntityProcessed("contract_store", "inserted")
//	coreMetrics.RecordEntitySaved("file", "contract", "success")
//
// The metrics server will expose Prometheus-formatted metrics at http://localhost:9090/metrics
// and a health check at http://localhost:9090/health.
//
// # Core Metrics
//
// The package automatically registers core platform metrics tracking:
//
//   - Component lifecycle: service_status (0=stopped, 1=starting, 2=running, 3=stopping)
//   - Entity throughput: entities_processed_total by store and add result
//   - Graph activity: relationships_added_total, cycles_rejected_total
//   - Persistence: persistence_saved_total, persistence_duration_seconds
//   - NATS connectivity: nats_connected, nats_rtt_milliseconds, nats_reconnects_total
//   - Error tracking: errors_total by component and error type
//
// Access core metrics through the registry:
//
//	coreMetrics := registry.CoreMetrics()
//
//	// Entity processing
//	coreMetrics.RecordEntityProcessed("agency_store", "merged")
//	coreMetrics.RecordRelationshipAdded("agency_store", "HAS_SUBAGENCY")
//	coreMetrics.RecordCycleRejected("agency_store")
//
//	// Persistence
//	coreMetrics.RecordEntitySaved("jetstream", "agency", "success")
//	coreMetrics.RecordSaveDuration("chunked_writer", "flush", elapsed)
//
//	// NATS connectivity
//	coreMetrics.RecordNATSStatus(true)
//	coreMetrics.RecordNATSRTT(rtt)
//
//	// Error tracking
//	coreMetrics.RecordError("persistence_manager", "partial_write")
//
// # Component-Specific Metrics
//
// Components register custom metrics through the registry:
//
//	// Register a counter
//	chunkCounter := prometheus.NewCounter(prometheus.CounterOpts{
//	    Name: "chunks_written_total",
//	    Help: "Total number of chunks written",
//	})
//	err := registry.RegisterCounter("chunked-writer", "chunks_written_total", chunkCounter)
//
//	// Register a gauge
//	bufferDepth := prometheus.NewGauge(prometheus.GaugeOpts{
//	    Name: "buffer_depth",
//	    Help: "Current number of buffered entities",
//	})
//	err = registry.RegisterGauge("chunked-writer", "buffer_depth", bufferDepth)
//
// The buffer, cache, and worker packages use this mechanism: passing the
// registry via their WithMetrics options wires their internal counters into
// the shared endpoint.
//
// # Vector Metrics with Labels
//
// Register metrics with labels for multi-dimensional data:
//
//	savesVec := prometheus.NewCounterVec(
//	    prometheus.CounterOpts{
//	        Name: "sink_saves_total",
//	        Help: "Total sink saves by entity type and status",
//	    },
//	    []string{"entity_type", "status"},
//	)
//	err := registry.RegisterCounterVec("file-sink", "sink_saves_total", savesVec)
//
//	savesVec.WithLabelValues("contract", "success").Inc()
//	savesVec.WithLabelValues("transaction", "error").Inc()
//
// # Duplicate Protection
//
// The registry tracks registrations by service and metric name, rejecting
// duplicates before they reach Prometheus. Prometheus-level conflicts (same
// fully-qualified name registered by a different component) are surfaced as
// Invalid classified errors so callers can distinguish programming errors
// from registration races.
//
// # Thread Safety
//
// All registry operations are protected by an internal RWMutex, and the
// Prometheus client types are themselves safe for concurrent use. Record
// methods on Metrics can be called from any goroutine.
package metric
