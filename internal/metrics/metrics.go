package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DecisionsTotal counts finished decisions by variant and final status.
	DecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "docvalidator",
		Name:      "decisions_total",
		Help:      "Finished validation decisions by variant and status.",
	}, []string{"variant", "status"})

	// RejectionsTotal counts individual rejection reasons by type.
	RejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "docvalidator",
		Name:      "rejections_total",
		Help:      "Rejection reasons attached to decisions, by type.",
	}, []string{"type"})

	// VerificationAttempts observes how many registry attempts each
	// verification needed.
	VerificationAttempts = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "docvalidator",
		Name:      "verification_attempts",
		Help:      "Registry verification attempts per document.",
		Buckets:   []float64{1, 2, 3},
	})

	// StageDuration observes per-stage processing time.
	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "docvalidator",
		Name:      "stage_duration_seconds",
		Help:      "Duration of each pipeline stage.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"stage"})

	// IntakeRejectedTotal counts submissions refused before processing.
	IntakeRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "docvalidator",
		Name:      "intake_rejected_total",
		Help:      "Submissions refused at intake, by reason.",
	}, []string{"reason"})
)
