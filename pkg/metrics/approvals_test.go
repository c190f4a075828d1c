package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestApprovalMetricsExportsCountersAndHistograms(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewApprovalMetrics(reg)

	metrics.IncDecision("approve", "invoice")
	metrics.IncDecisionFailure("approve", "forbidden")
	metrics.ObserveDecisionDuration("approve", 250*time.Millisecond)
	metrics.ObserveBulkBatchSize(7)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "approval_decisions_total", "action", "approve"); err != nil {
		t.Fatalf("fetch decisions: %v", err)
	} else if got != 1 {
		t.Fatalf("expected decisions=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "approval_decision_failures_total", "reason", "forbidden"); err != nil {
		t.Fatalf("fetch failures: %v", err)
	} else if got != 1 {
		t.Fatalf("expected failures=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "approval_decision_duration_seconds", "action", "approve"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}

	mf := findMetricFamily(mfs, "approval_bulk_batch_size")
	if mf == nil {
		t.Fatal("bulk batch size histogram not exported")
	}
	if sum := mf.GetMetric()[0].GetHistogram().GetSampleSum(); sum != 7 {
		t.Fatalf("expected bulk batch sum 7, got %f", sum)
	}
}

func TestApprovalMetricsNilRegistererIsNoop(t *testing.T) {
	metrics := NewApprovalMetrics(nil)
	metrics.IncDecision("approve", "invoice")
	metrics.IncDecisionFailure("reject", "conflict")
	metrics.ObserveDecisionDuration("reject", time.Second)
	metrics.ObserveBulkBatchSize(3)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
