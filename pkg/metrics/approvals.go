package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ApprovalMetrics records decision throughput for the workflow engine.
type ApprovalMetrics struct {
	decisions        *prometheus.CounterVec
	decisionFailures *prometheus.CounterVec
	decisionDuration *prometheus.HistogramVec
	bulkBatchSize    prometheus.Histogram
}

// NewApprovalMetrics registers the approval metrics on the provided registerer.
func NewApprovalMetrics(reg prometheus.Registerer) *ApprovalMetrics {
	if reg == nil {
		return &ApprovalMetrics{}
	}
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "approval_decisions_total",
		Help: "Approval decisions applied, by action and document type.",
	}, []string{"action", "document_type"})
	decisionFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "approval_decision_failures_total",
		Help: "Approval decisions rejected by validation or authorization.",
	}, []string{"action", "reason"})
	decisionDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "approval_decision_duration_seconds",
		Help:    "Duration of single decision transactions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"action"})
	bulkBatchSize := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "approval_bulk_batch_size",
		Help:    "Number of documents targeted by bulk decision requests.",
		Buckets: []float64{1, 5, 10, 25, 50},
	})
	reg.MustRegister(decisions, decisionFailures, decisionDuration, bulkBatchSize)
	return &ApprovalMetrics{
		decisions:        decisions,
		decisionFailures: decisionFailures,
		decisionDuration: decisionDuration,
		bulkBatchSize:    bulkBatchSize,
	}
}

// IncDecision increments the decision counter for the action/document type pair.
func (m *ApprovalMetrics) IncDecision(action, documentType string) {
	if m == nil || m.decisions == nil {
		return
	}
	m.decisions.WithLabelValues(normalizeLabel(action), normalizeLabel(documentType)).Inc()
}

// IncDecisionFailure increments the failure counter for the action/reason pair.
func (m *ApprovalMetrics) IncDecisionFailure(action, reason string) {
	if m == nil || m.decisionFailures == nil {
		return
	}
	m.decisionFailures.WithLabelValues(normalizeLabel(action), normalizeLabel(reason)).Inc()
}

// ObserveDecisionDuration records the duration of one decision transaction.
func (m *ApprovalMetrics) ObserveDecisionDuration(action string, duration time.Duration) {
	if m == nil || m.decisionDuration == nil {
		return
	}
	m.decisionDuration.WithLabelValues(normalizeLabel(action)).Observe(duration.Seconds())
}

// ObserveBulkBatchSize records how many documents a bulk request targeted.
func (m *ApprovalMetrics) ObserveBulkBatchSize(size int) {
	if m == nil || m.bulkBatchSize == nil {
		return
	}
	m.bulkBatchSize.Observe(float64(size))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
