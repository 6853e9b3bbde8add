// internal/metrics/prometheus.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics
var (
	SnapshotReloads = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nagrelay_snapshot_reloads_total",
			Help: "Number of times the status file was re-parsed and published",
		},
	)

	SnapshotParseFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nagrelay_snapshot_parse_failures_total",
			Help: "Number of status file parses that failed",
		},
	)

	SnapshotParseDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nagrelay_snapshot_parse_duration_seconds",
			Help:    "Time spent parsing the status file",
			Buckets: prometheus.DefBuckets,
		},
	)

	SnapshotGeneration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nagrelay_snapshot_generation",
			Help: "Generation counter of the currently published snapshot",
		},
	)

	MonitoredHosts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nagrelay_monitored_hosts",
			Help: "Number of hosts in the current snapshot",
		},
	)

	MonitoredServices = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nagrelay_monitored_services",
			Help: "Number of services in the current snapshot",
		},
	)

	LogLinesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nagrelay_log_lines_total",
			Help: "Total log lines read from the engine log file",
		},
	)

	LogBufferSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nagrelay_log_buffer_size",
			Help: "Number of log lines currently held in the buffer",
		},
	)

	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nagrelay_commands_total",
			Help: "External commands submitted to the engine command file",
		},
		[]string{"status"},
	)

	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nagrelay_requests_total",
			Help: "API requests answered, by method, verb and outcome",
		},
		[]string{"method", "verb", "status"},
	)

	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nagrelay_websocket_connections_active",
			Help: "Number of active WebSocket connections",
		},
	)
)

type Collector struct{}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) RecordSnapshot(generation uint64, hosts, services int, parseTime time.Duration) {
	SnapshotReloads.Inc()
	SnapshotParseDuration.Observe(parseTime.Seconds())
	SnapshotGeneration.Set(float64(generation))
	MonitoredHosts.Set(float64(hosts))
	MonitoredServices.Set(float64(services))
}

func (c *Collector) RecordParseFailure() {
	SnapshotParseFailures.Inc()
}

func (c *Collector) RecordLogLine(buffered int) {
	LogLinesTotal.Inc()
	LogBufferSize.Set(float64(buffered))
}

func (c *Collector) RecordCommand(ok bool) {
	CommandsTotal.WithLabelValues(resultLabel(ok)).Inc()
}

func (c *Collector) RecordRequest(method, verb string, ok bool) {
	RequestsTotal.WithLabelValues(method, verb, resultLabel(ok)).Inc()
}

func (c *Collector) RecordWebSocketConnection(delta int) {
	WebSocketConnections.Add(float64(delta))
}

func resultLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
