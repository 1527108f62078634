package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestVendorMetricsRecordsCallsByOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewVendorMetrics(reg)

	metrics.ObserveCall("vtpass", "success", 120*time.Millisecond)
	metrics.ObserveCall("vtpass", "ambiguous", 2*time.Second)
	metrics.ObserveCall("vtpass", "success", 80*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	mf := findMetricFamily(mfs, "smdata_vendor_calls_total")
	if mf == nil {
		t.Fatal("vendor call counter not registered")
	}
	for outcome, want := range map[string]float64{"success": 2, "ambiguous": 1} {
		found := false
		for _, metric := range mf.GetMetric() {
			if matchesLabel(metric.GetLabel(), "vendor", "vtpass") && matchesLabel(metric.GetLabel(), "outcome", outcome) {
				found = true
				if got := metric.GetCounter().GetValue(); got != want {
					t.Fatalf("outcome %s: expected %f calls, got %f", outcome, want, got)
				}
			}
		}
		if !found {
			t.Fatalf("no series for outcome %s", outcome)
		}
	}

	if got, err := fetchHistogramSum(mfs, "smdata_vendor_call_duration_seconds", "vendor", "vtpass"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 2 {
		t.Fatalf("expected duration sum above 2s, got %f", got)
	}
}

func TestVendorMetricsBlankLabelNormalized(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewVendorMetrics(reg)

	metrics.ObserveCall("", "success", time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	mf := findMetricFamily(mfs, "smdata_vendor_calls_total")
	if mf == nil {
		t.Fatal("vendor call counter not registered")
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), "vendor", "unknown") {
			return
		}
	}
	t.Fatal("blank vendor label should be recorded as unknown")
}
