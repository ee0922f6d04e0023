// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector exposes prometheus metrics for the negotiation engine.
type Collector struct {
	negotiationsStarted   *prometheus.CounterVec
	negotiationsCompleted *prometheus.CounterVec
	activeNegotiations    prometheus.Gauge
	messagesTotal         *prometheus.CounterVec
	resolverDuration      *prometheus.HistogramVec
	roundsAtCompletion    prometheus.Histogram

	logger *zap.Logger
}

// NewCollector registers the engine's metrics under the given namespace
// on the default prometheus registerer.
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.negotiationsStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "negotiations_started_total",
			Help:      "Total number of negotiations initiated",
		},
		[]string{"strategy"},
	)

	c.negotiationsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "negotiations_completed_total",
			Help:      "Total number of negotiations reaching a terminal state",
		},
		[]string{"status", "resolution"},
	)

	c.activeNegotiations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "negotiations_active",
			Help:      "Number of negotiations not yet in a terminal state",
		},
	)

	c.messagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Total number of negotiation messages processed",
		},
		[]string{"type"},
	)

	c.resolverDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resolver_duration_seconds",
			Help:      "Conflict resolution strategy execution time in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"strategy"},
	)

	c.roundsAtCompletion = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rounds_at_completion",
			Help:      "Number of rounds a negotiation ran before completing",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21},
		},
	)

	logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// RecordStart records an initiated negotiation.
func (c *Collector) RecordStart(strategy string) {
	if c == nil {
		return
	}
	c.negotiationsStarted.WithLabelValues(strategy).Inc()
	c.activeNegotiations.Inc()
}

// RecordCompletion records a negotiation reaching a terminal state.
func (c *Collector) RecordCompletion(status, resolution string, rounds int) {
	if c == nil {
		return
	}
	c.negotiationsCompleted.WithLabelValues(status, resolution).Inc()
	c.activeNegotiations.Dec()
	c.roundsAtCompletion.Observe(float64(rounds))
}

// RecordMessage records one processed negotiation message.
func (c *Collector) RecordMessage(messageType string) {
	if c == nil {
		return
	}
	c.messagesTotal.WithLabelValues(messageType).Inc()
}

// RecordResolver records one conflict resolution strategy invocation.
func (c *Collector) RecordResolver(strategy string, duration time.Duration) {
	if c == nil {
		return
	}
	c.resolverDuration.WithLabelValues(strategy).Observe(duration.Seconds())
}
