package metrics

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// promauto registers on the default registerer, so every collector in this
// file gets its own namespace.
var namespaceSeq atomic.Int64

func nextTestNamespace() string {
	return fmt.Sprintf("accord_test_%d", namespaceSeq.Add(1))
}

func TestCollector_RecordStartAndCompletion(t *testing.T) {
	ns := nextTestNamespace()
	c := NewCollector(ns, zap.NewNop())

	c.RecordStart("compromise")
	c.RecordStart("compromise")
	c.RecordStart("voting")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.negotiationsStarted.WithLabelValues("compromise")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.negotiationsStarted.WithLabelValues("voting")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.activeNegotiations))

	c.RecordCompletion("SUCCESSFUL", "accepted", 2)
	c.RecordCompletion("FAILED", "rejected", 1)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.negotiationsCompleted.WithLabelValues("SUCCESSFUL", "accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.negotiationsCompleted.WithLabelValues("FAILED", "rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.activeNegotiations))
}

func TestCollector_RecordMessage(t *testing.T) {
	c := NewCollector(nextTestNamespace(), zap.NewNop())

	c.RecordMessage("PROPOSAL")
	c.RecordMessage("PROPOSAL")
	c.RecordMessage("ACCEPT")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.messagesTotal.WithLabelValues("PROPOSAL")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.messagesTotal.WithLabelValues("ACCEPT")))
}

func TestCollector_RecordResolver(t *testing.T) {
	c := NewCollector(nextTestNamespace(), zap.NewNop())

	c.RecordResolver("priority", 3*time.Millisecond)
	c.RecordResolver("priority", 7*time.Millisecond)

	count := testutil.CollectAndCount(c.resolverDuration)
	assert.Equal(t, 1, count) // one labeled series

	h, err := c.resolverDuration.GetMetricWithLabelValues("priority")
	assert.NoError(t, err)
	assert.NotNil(t, h)
}

func TestCollector_NilIsSafe(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.RecordStart("compromise")
		c.RecordCompletion("SUCCESSFUL", "accepted", 1)
		c.RecordMessage("PROPOSAL")
		c.RecordResolver("voting", time.Millisecond)
	})
}

func TestCollector_MetricsAreGathered(t *testing.T) {
	ns := nextTestNamespace()
	c := NewCollector(ns, zap.NewNop())
	c.RecordStart("nash_bargaining")

	families, err := prometheus.DefaultGatherer.Gather()
	assert.NoError(t, err)

	found := false
	for _, f := range families {
		if f.GetName() == ns+"_negotiations_started_total" {
			found = true
		}
	}
	assert.True(t, found)
}
