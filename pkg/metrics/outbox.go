package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// OutboxMetrics records publish throughput for the outbox drain loop.
type OutboxMetrics struct {
	published       *prometheus.CounterVec
	publishFailures *prometheus.CounterVec
	dlqEntries      *prometheus.CounterVec
}

// NewOutboxMetrics registers the outbox metrics on the provided registerer.
func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_published_total",
		Help: "Outbox events delivered to their topic, by event type.",
	}, []string{"event_type"})
	publishFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_publish_failures_total",
		Help: "Publish attempts that failed, by failure kind.",
	}, []string{"kind"})
	dlqEntries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_dlq_entries_total",
		Help: "Events parked on the dead letter queue, by reason.",
	}, []string{"reason"})
	reg.MustRegister(published, publishFailures, dlqEntries)
	return &OutboxMetrics{
		published:       published,
		publishFailures: publishFailures,
		dlqEntries:      dlqEntries,
	}
}

// IncPublished increments the publish counter for the event type.
func (m *OutboxMetrics) IncPublished(eventType string) {
	if m == nil || m.published == nil {
		return
	}
	m.published.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncPublishFailure increments the failure counter for the failure kind.
func (m *OutboxMetrics) IncPublishFailure(kind string) {
	if m == nil || m.publishFailures == nil {
		return
	}
	m.publishFailures.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncDLQ increments the dead letter counter for the reason.
func (m *OutboxMetrics) IncDLQ(reason string) {
	if m == nil || m.dlqEntries == nil {
		return
	}
	m.dlqEntries.WithLabelValues(normalizeLabel(reason)).Inc()
}
