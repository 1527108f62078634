package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// VendorMetrics tracks outbound VTU provider calls by vendor and outcome.
type VendorMetrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewVendorMetrics registers the vendor call metrics on the provided registerer.
func NewVendorMetrics(reg prometheus.Registerer) *VendorMetrics {
	if reg == nil {
		return &VendorMetrics{}
	}
	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "smdata",
		Name:      "vendor_calls_total",
		Help:      "Vendor fulfillment calls by vendor and outcome.",
	}, []string{"vendor", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "smdata",
		Name:      "vendor_call_duration_seconds",
		Help:      "Duration of vendor fulfillment calls in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"vendor"})
	reg.MustRegister(calls, duration)
	return &VendorMetrics{calls: calls, duration: duration}
}

// ObserveCall records a single vendor call with its outcome and duration.
func (v *VendorMetrics) ObserveCall(vendor, outcome string, took time.Duration) {
	if v == nil || v.calls == nil {
		return
	}
	v.calls.WithLabelValues(normalizeLabel(vendor), normalizeLabel(outcome)).Inc()
	v.duration.WithLabelValues(normalizeLabel(vendor)).Observe(took.Seconds())
}
