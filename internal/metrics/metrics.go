// Package metrics exposes Prometheus instrumentation for test executions,
// per-node-type durations, and incidents opened by the failure pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector records engine metrics into a Prometheus registerer.
type Collector struct {
	executionsTotal   *prometheus.CounterVec
	executionDuration *prometheus.HistogramVec
	nodesTotal        *prometheus.CounterVec
	nodeDuration      *prometheus.HistogramVec
	incidentsCreated  prometheus.Counter
}

// NewCollector creates a Collector registered against reg. Pass
// prometheus.DefaultRegisterer for the process-wide registry, or an isolated
// registry in tests.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		executionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "probegrid_test_executions_total",
				Help: "Total number of synthetic test executions by terminal status",
			},
			[]string{"status"},
		),
		executionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "probegrid_test_execution_duration_seconds",
				Help:    "End-to-end synthetic test execution duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
			},
			[]string{"status"},
		),
		nodesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "probegrid_nodes_executed_total",
				Help: "Total number of node executions by node type and status",
			},
			[]string{"node_type", "status"},
		),
		nodeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "probegrid_node_duration_seconds",
				Help:    "Node execution duration in seconds by node type",
				Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"node_type"},
		),
		incidentsCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "probegrid_incidents_created_total",
				Help: "Total number of incidents opened by the failure pipeline",
			},
		),
	}
}

// ObserveExecution records one finished test execution.
func (c *Collector) ObserveExecution(status string, d time.Duration) {
	c.executionsTotal.WithLabelValues(status).Inc()
	c.executionDuration.WithLabelValues(status).Observe(d.Seconds())
}

// ObserveNode records one finished node execution.
func (c *Collector) ObserveNode(nodeType, status string, d time.Duration) {
	c.nodesTotal.WithLabelValues(nodeType, status).Inc()
	c.nodeDuration.WithLabelValues(nodeType).Observe(d.Seconds())
}

// IncIncidents records one incident opened by the failure pipeline.
func (c *Collector) IncIncidents() {
	c.incidentsCreated.Inc()
}
