package businessflow

import (
	"testing"

	"github.com/appform-bd/cardapply/models"
	"github.com/appform-bd/cardapply/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// navApplication builds an application whose draft is complete through the
// monthly-income step, standing at the bank-accounts step.
func navApplication(mode models.ApplicationMode) *models.CardApplication {
	app := &models.CardApplication{
		UUID:        uuid.New(),
		Mode:        mode,
		Status:      models.ApplicationStatusDraft,
		CurrentStep: 5,
		State: models.DraftState{
			PreApplication: &models.PreApplicationData{
				MobileNumber: utils.ToPtr("01712345678"),
				NationalID:   utils.ToPtr("1234567890"),
			},
			CardSelection: &models.CardSelectionData{
				ProductCode:    utils.ToPtr("VISA_CLASSIC"),
				Network:        utils.ToPtr("VISA"),
				Tier:           utils.ToPtr("CLASSIC"),
				CardholderName: utils.ToPtr("RAHIM UDDIN"),
			},
			PersonalInfo: validPersonalInfo(),
			ProfessionalInfo: &models.ProfessionalInfoData{
				Occupation:       utils.ToPtr("Service"),
				OrganizationName: utils.ToPtr("City Bank"),
				Designation:      utils.ToPtr("Officer"),
			},
			MonthlyIncome: &models.MonthlyIncomeData{
				IsSalaried: utils.ToPtr(true),
				SalariedIncome: &models.SalariedIncomeData{
					GrossMonthlyIncome: utils.ToPtr("80000.00"),
					NetMonthlyIncome:   utils.ToPtr("65000.00"),
				},
			},
		},
	}
	app.State.MarkOTPVerified()
	return app
}

func TestHighestReachableStepOTPGate(t *testing.T) {
	sv := NewStepValidator()

	// An empty self-service draft stands at the pre-application step
	app := &models.CardApplication{Mode: models.ApplicationModeSelf}
	assert.Equal(t, 0, highestReachableStep(sv, app))

	// Valid identity fields alone do not open the wizard; OTP must verify
	app.State.PreApplication = &models.PreApplicationData{
		MobileNumber: utils.ToPtr("01712345678"),
		NationalID:   utils.ToPtr("1234567890"),
	}
	assert.True(t, sv.Validate(&app.State, 0).OK)
	assert.Equal(t, 0, highestReachableStep(sv, app))

	app.State.MarkOTPVerified()
	assert.Equal(t, 1, highestReachableStep(sv, app))

	// Assisted applications skip the OTP gate; the staff member vouches
	assisted := &models.CardApplication{
		Mode: models.ApplicationModeAssisted,
		State: models.DraftState{
			PreApplication: &models.PreApplicationData{
				MobileNumber: utils.ToPtr("01712345678"),
				NationalID:   utils.ToPtr("1234567890"),
			},
		},
	}
	assert.Equal(t, 1, highestReachableStep(sv, assisted))
}

func TestHighestReachableStepSkipsOptionalSteps(t *testing.T) {
	sv := NewStepValidator()
	app := navApplication(models.ApplicationModeSelf)

	// Steps 0-4 complete, optional 5 and 6 untouched: the nominee blocks
	assert.Equal(t, 7, highestReachableStep(sv, app))

	// An invalid row on a touched optional step never caps navigation
	app.State.BankAccounts = &models.BankAccountsData{
		Accounts: []models.BankAccountEntry{
			{ID: "a1", BankName: "", AccountNumber: "12", AccountType: "FIXED"},
		},
	}
	assert.False(t, sv.Validate(&app.State, 5).OK)
	assert.Equal(t, 7, highestReachableStep(sv, app))

	app.State.CreditFacilities = &models.CreditFacilitiesData{
		Facilities: []models.CreditFacilityEntry{
			{ID: "f1", InstitutionName: "", FacilityType: "LOAN", LimitAmount: "x"},
		},
	}
	assert.False(t, sv.Validate(&app.State, 6).OK)
	assert.Equal(t, 7, highestReachableStep(sv, app))

	// The invalid rows still count against submission
	numbers := make([]int, 0)
	for _, def := range incompleteSteps(sv, app) {
		numbers = append(numbers, def.Number)
	}
	assert.Contains(t, numbers, 5)
	assert.Contains(t, numbers, 6)
}

func TestHighestReachableStepGatedSupplementary(t *testing.T) {
	sv := NewStepValidator()
	app := navApplication(models.ApplicationModeSelf)
	app.State.Nominee = &models.NomineeData{
		FullName:     utils.ToPtr("Karim Uddin"),
		Relationship: utils.ToPtr("BROTHER"),
		DateOfBirth:  utils.ToPtr("2001-01-15"),
		SharePercent: utils.ToPtr("100"),
	}
	require.True(t, sv.Validate(&app.State, 7).OK)

	// Gate off: the supplementary step is dormant, references block next
	assert.Equal(t, 9, highestReachableStep(sv, app))

	// Gate on with an empty record: the step becomes required and blocks
	app.State.HasSupplementaryCard = true
	assert.Equal(t, 8, highestReachableStep(sv, app))

	app.State.HasSupplementaryCard = false
	assert.Equal(t, 9, highestReachableStep(sv, app))
}

func TestStepCompleteModeAware(t *testing.T) {
	sv := NewStepValidator()
	preApp, ok := models.StepAt(0)
	require.True(t, ok)

	newState := func() models.DraftState {
		return models.DraftState{
			PreApplication: &models.PreApplicationData{
				MobileNumber: utils.ToPtr("01712345678"),
				NationalID:   utils.ToPtr("1234567890"),
			},
		}
	}

	self := &models.CardApplication{Mode: models.ApplicationModeSelf, State: newState()}
	assisted := &models.CardApplication{Mode: models.ApplicationModeAssisted, State: newState()}

	assert.False(t, stepComplete(sv, self, preApp))
	assert.True(t, stepComplete(sv, assisted, preApp))

	self.State.MarkOTPVerified()
	assert.True(t, stepComplete(sv, self, preApp))
}
