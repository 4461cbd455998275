package models

import (
	"testing"
	"time"

	"github.com/appform-bd/cardapply/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplicationStatusRank(t *testing.T) {
	// draft and pending_otp share a rank; everything after is strictly ordered
	assert.Equal(t, ApplicationStatusDraft.Rank(), ApplicationStatusPendingOTP.Rank())

	ordered := []ApplicationStatus{
		ApplicationStatusDraft,
		ApplicationStatusSubmitted,
		ApplicationStatusUnderReview,
		ApplicationStatusDocumentsRequired,
		ApplicationStatusApproved,
		ApplicationStatusRejected,
		ApplicationStatusCardIssued,
	}
	for i := 1; i < len(ordered); i++ {
		assert.Greater(t, ordered[i].Rank(), ordered[i-1].Rank(),
			"%s must outrank %s", ordered[i], ordered[i-1])
	}

	assert.Equal(t, -1, ApplicationStatus("bogus").Rank())
}

func TestApplicationStatusPredicates(t *testing.T) {
	assert.True(t, ApplicationStatusDraft.IsEditable())
	assert.True(t, ApplicationStatusPendingOTP.IsEditable())
	assert.False(t, ApplicationStatusSubmitted.IsEditable())

	assert.True(t, ApplicationStatusRejected.IsTerminal())
	assert.True(t, ApplicationStatusCardIssued.IsTerminal())
	assert.False(t, ApplicationStatusApproved.IsTerminal())

	assert.True(t, ApplicationStatusDraft.Valid())
	assert.False(t, ApplicationStatus("bogus").Valid())
}

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    ApplicationStatus
		to      ApplicationStatus
		allowed bool
	}{
		{"draft to pending_otp", ApplicationStatusDraft, ApplicationStatusPendingOTP, true},
		{"draft to submitted", ApplicationStatusDraft, ApplicationStatusSubmitted, true},
		{"draft to under_review skips submit", ApplicationStatusDraft, ApplicationStatusUnderReview, false},
		{"pending_otp back to draft", ApplicationStatusPendingOTP, ApplicationStatusDraft, true},
		{"pending_otp straight to submitted", ApplicationStatusPendingOTP, ApplicationStatusSubmitted, false},
		{"submitted to under_review", ApplicationStatusSubmitted, ApplicationStatusUnderReview, true},
		{"submitted back to draft", ApplicationStatusSubmitted, ApplicationStatusDraft, false},
		{"under_review to documents_required", ApplicationStatusUnderReview, ApplicationStatusDocumentsRequired, true},
		{"under_review to approved", ApplicationStatusUnderReview, ApplicationStatusApproved, true},
		{"under_review to rejected", ApplicationStatusUnderReview, ApplicationStatusRejected, true},
		{"under_review to card_issued skips approval", ApplicationStatusUnderReview, ApplicationStatusCardIssued, false},
		{"documents_required to approved", ApplicationStatusDocumentsRequired, ApplicationStatusApproved, true},
		{"documents_required to rejected", ApplicationStatusDocumentsRequired, ApplicationStatusRejected, true},
		{"documents_required back to under_review", ApplicationStatusDocumentsRequired, ApplicationStatusUnderReview, false},
		{"approved to card_issued", ApplicationStatusApproved, ApplicationStatusCardIssued, true},
		{"approved to rejected", ApplicationStatusApproved, ApplicationStatusRejected, false},
		{"rejected is terminal", ApplicationStatusRejected, ApplicationStatusUnderReview, false},
		{"card_issued is terminal", ApplicationStatusCardIssued, ApplicationStatusApproved, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := &CardApplication{Status: tt.from}
			assert.Equal(t, tt.allowed, app.CanTransitionTo(tt.to))
		})
	}
}

func TestApplicationModeValid(t *testing.T) {
	assert.True(t, ApplicationModeSelf.Valid())
	assert.True(t, ApplicationModeAssisted.Valid())
	assert.False(t, ApplicationMode("OTHER").Valid())
}

func TestApplicantName(t *testing.T) {
	app := &CardApplication{}
	assert.Empty(t, app.ApplicantName())

	app.State.PersonalInfo = &PersonalInfoData{FirstName: utils.ToPtr("Rahim")}
	assert.Equal(t, "Rahim", app.ApplicantName())

	app.State.PersonalInfo.LastName = utils.ToPtr("Uddin")
	assert.Equal(t, "Rahim Uddin", app.ApplicantName())

	app.State.PersonalInfo.FirstName = nil
	assert.Equal(t, "Uddin", app.ApplicantName())
}

func TestStepCatalog(t *testing.T) {
	steps := Steps()
	require.Len(t, steps, TotalSteps)

	// Numbers are dense and ordered
	for i, def := range steps {
		assert.Equal(t, i, def.Number)
		assert.NotEmpty(t, def.Name)
		assert.NotEmpty(t, def.Title)
	}

	assert.Equal(t, StepPreApplication, steps[FirstStep].Name)
	assert.Equal(t, StepMIDDeclarations, steps[LastStep].Name)

	// Optional steps never block forward navigation
	optional := map[string]bool{}
	for _, def := range steps {
		optional[def.Name] = def.Optional
	}
	assert.True(t, optional[StepBankAccounts])
	assert.True(t, optional[StepCreditFacilities])
	assert.True(t, optional[StepSupplementaryCard])
	assert.False(t, optional[StepNominee])
	assert.False(t, optional[StepMIDDeclarations])
}

func TestStepAt(t *testing.T) {
	def, ok := StepAt(1)
	require.True(t, ok)
	assert.Equal(t, StepCardSelection, def.Name)

	_, ok = StepAt(-1)
	assert.False(t, ok)
	_, ok = StepAt(TotalSteps)
	assert.False(t, ok)
}

func TestStepByName(t *testing.T) {
	def, ok := StepByName(StepAutoDebit)
	require.True(t, ok)
	assert.Equal(t, 11, def.Number)

	_, ok = StepByName("notAStep")
	assert.False(t, ok)
}

func TestStepsReturnsCopy(t *testing.T) {
	steps := Steps()
	steps[0].Name = "mutated"

	again := Steps()
	assert.Equal(t, StepPreApplication, again[0].Name)
}

func TestDeclarationCodes(t *testing.T) {
	codes := DeclarationCodes()
	require.Len(t, codes, 5)
	assert.Contains(t, codes, DeclarationInfoAccuracy)
	assert.Contains(t, codes, DeclarationPEPStatus)

	codes[0] = "mutated"
	assert.Equal(t, DeclarationInfoAccuracy, DeclarationCodes()[0])
}

func TestOTPVerificationHelpers(t *testing.T) {
	otp := &OTPVerification{
		Status:        OTPStatusPending,
		AttemptsCount: 0,
		MaxAttempts:   3,
		ExpiresAt:     utils.UTCNow().Add(5 * time.Minute),
	}
	assert.True(t, otp.CanAttempt())
	assert.Equal(t, 3, otp.RemainingAttempts())

	otp.AttemptsCount = 3
	assert.False(t, otp.CanAttempt())
	assert.Equal(t, 0, otp.RemainingAttempts())

	otp.AttemptsCount = 5
	assert.Equal(t, 0, otp.RemainingAttempts())
}

func TestApplicantSessionValidity(t *testing.T) {
	session := &ApplicantSession{
		IsActive:  utils.ToPtr(true),
		ExpiresAt: utils.UTCNow().Add(30 * time.Minute),
	}
	assert.True(t, session.IsValid())

	session.ExpiresAt = utils.UTCNow().Add(-time.Second)
	assert.True(t, session.IsExpired())
	assert.False(t, session.IsValid())

	session.ExpiresAt = utils.UTCNow().Add(30 * time.Minute)
	session.IsActive = utils.ToPtr(false)
	assert.False(t, session.IsValid())
}

func TestStaffUserIsSupervisor(t *testing.T) {
	reviewer := &StaffUser{Role: StaffRoleReviewer}
	supervisor := &StaffUser{Role: StaffRoleSupervisor}
	assert.False(t, reviewer.IsSupervisor())
	assert.True(t, supervisor.IsSupervisor())
}
