package queue

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes delivery-queue counters. A nil *Metrics is a no-op so tests
// and lightweight deployments can skip registration.
type Metrics struct {
	enqueued  prometheus.Counter
	delivered prometheus.Counter
	retries   prometheus.Counter
	failed    prometheus.Counter
	skipped   prometheus.Counter
	depth     prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		enqueued: factory.NewCounter(prometheus.CounterOpts{
			Name: "email_queue_enqueued_total",
			Help: "Email jobs accepted by the delivery queue.",
		}),
		delivered: factory.NewCounter(prometheus.CounterOpts{
			Name: "email_queue_delivered_total",
			Help: "Email jobs delivered by the transport.",
		}),
		retries: factory.NewCounter(prometheus.CounterOpts{
			Name: "email_queue_retries_total",
			Help: "Email delivery attempts that failed and were rescheduled.",
		}),
		failed: factory.NewCounter(prometheus.CounterOpts{
			Name: "email_queue_failed_total",
			Help: "Email jobs that exhausted their retry budget.",
		}),
		skipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "email_queue_skipped_total",
			Help: "Email jobs vetoed by the send gate.",
		}),
		depth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "email_queue_depth",
			Help: "Jobs currently waiting in the delivery queue.",
		}),
	}
}

func (m *Metrics) incEnqueued() {
	if m != nil {
		m.enqueued.Inc()
	}
}

func (m *Metrics) incDelivered() {
	if m != nil {
		m.delivered.Inc()
	}
}

func (m *Metrics) incRetries() {
	if m != nil {
		m.retries.Inc()
	}
}

func (m *Metrics) incFailed() {
	if m != nil {
		m.failed.Inc()
	}
}

func (m *Metrics) incSkipped() {
	if m != nil {
		m.skipped.Inc()
	}
}

func (m *Metrics) setDepth(n int) {
	if m != nil {
		m.depth.Set(float64(n))
	}
}
