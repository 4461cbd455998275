package businessflow

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestDomainCounters(t *testing.T) {
	cases := []struct {
		name string
		inc  func()
		read func() float64
	}{
		{
			name: "step saves by outcome",
			inc:  func() { metricStepSaves.WithLabelValues(saveOutcomeConflict).Inc() },
			read: func() float64 { return testutil.ToFloat64(metricStepSaves.WithLabelValues(saveOutcomeConflict)) },
		},
		{
			name: "otp verifications by result",
			inc:  func() { metricOTPVerifications.WithLabelValues(otpResultVerified).Inc() },
			read: func() float64 { return testutil.ToFloat64(metricOTPVerifications.WithLabelValues(otpResultVerified)) },
		},
		{
			name: "submissions by outcome",
			inc:  func() { metricSubmissions.WithLabelValues(submitOutcomeAccepted).Inc() },
			read: func() float64 { return testutil.ToFloat64(metricSubmissions.WithLabelValues(submitOutcomeAccepted)) },
		},
		{
			name: "review decisions by status",
			inc:  func() { metricReviewDecisions.WithLabelValues("approved").Inc() },
			read: func() float64 { return testutil.ToFloat64(metricReviewDecisions.WithLabelValues("approved")) },
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			before := tc.read()
			tc.inc()
			assert.Equal(t, before+1, tc.read())
		})
	}
}
