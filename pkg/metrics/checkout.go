package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records submission and reconciliation activity.
type CheckoutMetrics struct {
	submissionDuration *prometheus.HistogramVec
	submissionSuccess  *prometheus.CounterVec
	submissionFailure  *prometheus.CounterVec
	changeAbsorbed     prometheus.Counter
	rebalanceRuns      *prometheus.CounterVec
}

// NewCheckoutMetrics registers checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "order_submission_duration_seconds",
		Help:    "Duration of order submissions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"sale_context"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_submission_success",
		Help: "Successful order submissions.",
	}, []string{"sale_context"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_submission_failure",
		Help: "Failed order submissions.",
	}, []string{"sale_context"})
	absorbed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payment_change_absorbed_total",
		Help: "Number of submissions where overpayment was absorbed.",
	})
	rebalance := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_rebalance_runs",
		Help: "Pending-payment rebalance executions by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(duration, success, failure, absorbed, rebalance)
	return &CheckoutMetrics{
		submissionDuration: duration,
		submissionSuccess:  success,
		submissionFailure:  failure,
		changeAbsorbed:     absorbed,
		rebalanceRuns:      rebalance,
	}
}

// ObserveSubmission records the duration for one submission attempt.
func (c *CheckoutMetrics) ObserveSubmission(saleContext string, duration time.Duration) {
	if c == nil || c.submissionDuration == nil {
		return
	}
	c.submissionDuration.WithLabelValues(normalizeLabel(saleContext)).Observe(duration.Seconds())
}

// IncSubmissionSuccess increments the success counter.
func (c *CheckoutMetrics) IncSubmissionSuccess(saleContext string) {
	if c == nil || c.submissionSuccess == nil {
		return
	}
	c.submissionSuccess.WithLabelValues(normalizeLabel(saleContext)).Inc()
}

// IncSubmissionFailure increments the failure counter.
func (c *CheckoutMetrics) IncSubmissionFailure(saleContext string) {
	if c == nil || c.submissionFailure == nil {
		return
	}
	c.submissionFailure.WithLabelValues(normalizeLabel(saleContext)).Inc()
}

// IncChangeAbsorbed counts a submission whose overpayment was absorbed.
func (c *CheckoutMetrics) IncChangeAbsorbed() {
	if c == nil || c.changeAbsorbed == nil {
		return
	}
	c.changeAbsorbed.Inc()
}

// IncRebalance counts one rebalance run with its outcome label.
func (c *CheckoutMetrics) IncRebalance(outcome string) {
	if c == nil || c.rebalanceRuns == nil {
		return
	}
	c.rebalanceRuns.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
