package businessflow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Domain counters. The HTTP layer has its own request metrics; these count
// business outcomes, which one request can produce zero or several of.
var (
	metricStepSaves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardapply_step_saves_total",
			Help: "Step save attempts by outcome",
		},
		[]string{"outcome"},
	)

	metricOTPVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardapply_otp_verifications_total",
			Help: "OTP verification attempts by result",
		},
		[]string{"result"},
	)

	metricSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardapply_submissions_total",
			Help: "Application submission attempts by outcome",
		},
		[]string{"outcome"},
	)

	metricReviewDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardapply_review_decisions_total",
			Help: "Staff review decisions by resulting status",
		},
		[]string{"decision"},
	)
)

const (
	saveOutcomeAccepted = "accepted"
	saveOutcomeConflict = "conflict"

	otpResultVerified = "verified"
	otpResultFailed   = "failed"

	submitOutcomeAccepted = "accepted"
	submitOutcomeRejected = "rejected"
)
