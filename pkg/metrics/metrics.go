// Package metrics records Prometheus metrics for the statements keepice
// sends to its engines.
//
// # Basic Usage
//
//	m := metrics.Default()
//	timer := metrics.NewTimer()
//	err := run()
//	m.ObserveStatement("athena", "create_table", timer.Stop(), err)
//
// Tests pass their own registry to New so collectors never collide.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "keepice"

// Status label values
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Metrics holds the collectors for manager operations
type Metrics struct {
	statements *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	managers   *prometheus.GaugeVec
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// New registers the keepice collectors with reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		statements: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "statements_total",
				Help:      "Total number of manager operations sent to an engine",
			},
			[]string{"connector", "operation", "status"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "statement_duration_seconds",
				Help:      "Time spent waiting for an engine to run a manager operation",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
			},
			[]string{"connector", "operation"},
		),
		managers: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "open_managers",
				Help:      "Number of table managers bound to a connector and not yet closed",
			},
			[]string{"connector"},
		),
	}
}

// Default returns the metrics registered with the default Prometheus registry
func Default() *Metrics {
	defaultOnce.Do(func() {
		defaultMetrics = New(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

// ObserveStatement records one operation and how long it took
func (m *Metrics) ObserveStatement(connector, operation string, d time.Duration, err error) {
	m.statements.WithLabelValues(connector, operation, status(err)).Inc()
	m.duration.WithLabelValues(connector, operation).Observe(d.Seconds())
}

// ManagerOpened counts a table manager bound to connector
func (m *Metrics) ManagerOpened(connector string) {
	m.managers.WithLabelValues(connector).Inc()
}

// ManagerClosed counts a closed table manager
func (m *Metrics) ManagerClosed(connector string) {
	m.managers.WithLabelValues(connector).Dec()
}

func status(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusSuccess
}

// Timer measures elapsed time
type Timer struct {
	start time.Time
}

// NewTimer starts a timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Stop returns the time elapsed since the timer started
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}
