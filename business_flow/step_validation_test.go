package businessflow

import (
	"fmt"
	"testing"

	"github.com/appform-bd/cardapply/models"
	"github.com/appform-bd/cardapply/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsBDMobile(t *testing.T) {
	tests := []struct {
		input string
		valid bool
	}{
		{"01712345678", true},
		{"01912345678", true},
		{"0171234567", false},   // 10 digits
		{"017123456789", false}, // 12 digits
		{"02712345678", false},  // wrong prefix
		{"0171234567a", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsBDMobile(tt.input))
		})
	}
}

func TestIsBDNID(t *testing.T) {
	tests := []struct {
		input string
		valid bool
	}{
		{"1234567890", true},        // 10 digit smart card
		{"1234567890123", true},     // 13 digit legacy
		{"12345678901234567", true}, // 17 digit legacy
		{"123456789", false},
		{"123456789012", false},
		{"12345abc90", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsBDNID(tt.input))
		})
	}
}

func validPersonalInfo() *models.PersonalInfoData {
	addr := &models.AddressData{
		Line1:    utils.ToPtr("House 7, Road 2"),
		City:     utils.ToPtr("Dhaka"),
		District: utils.ToPtr("Dhaka"),
		PostCode: utils.ToPtr("1207"),
	}
	return &models.PersonalInfoData{
		FirstName:        utils.ToPtr("Rahim"),
		LastName:         utils.ToPtr("Uddin"),
		FatherName:       utils.ToPtr("Abdul"),
		MotherName:       utils.ToPtr("Amina"),
		Gender:           utils.ToPtr("MALE"),
		DateOfBirth:      utils.ToPtr("1990-04-12"),
		MaritalStatus:    utils.ToPtr("SINGLE"),
		Nationality:      utils.ToPtr("Bangladeshi"),
		PresentAddress:   addr,
		PermanentAddress: addr,
	}
}

func TestValidatePreApplication(t *testing.T) {
	sv := NewStepValidator()

	state := &models.DraftState{}
	res := sv.Validate(state, 0)
	assert.False(t, res.OK)
	assert.Contains(t, res.FieldErrors, "mobileNumber")
	assert.Contains(t, res.FieldErrors, "nationalId")

	state.PreApplication = &models.PreApplicationData{
		MobileNumber: utils.ToPtr("01712345678"),
		NationalID:   utils.ToPtr("1234567890"),
	}
	res = sv.Validate(state, 0)
	assert.True(t, res.OK)
	assert.Empty(t, res.FieldErrors)
}

func TestValidateCardSelection(t *testing.T) {
	sv := NewStepValidator()

	state := &models.DraftState{
		CardSelection: &models.CardSelectionData{
			ProductCode:    utils.ToPtr("VISA_GOLD"),
			Network:        utils.ToPtr("VISA"),
			Tier:           utils.ToPtr("GOLD"),
			CardholderName: utils.ToPtr("RAHIM UDDIN"),
		},
	}
	assert.True(t, sv.Validate(state, 1).OK)

	state.CardSelection.Network = utils.ToPtr("AMEX")
	res := sv.Validate(state, 1)
	assert.False(t, res.OK)
	assert.Contains(t, res.FieldErrors, "network")

	state.CardSelection.Network = utils.ToPtr("VISA")
	state.CardSelection.CardholderName = utils.ToPtr("RAHIM@UDDIN")
	res = sv.Validate(state, 1)
	assert.False(t, res.OK)
	assert.Contains(t, res.FieldErrors, "cardholderName")

	// Embossed name longer than the card line
	state.CardSelection.CardholderName = utils.ToPtr("A VERY LONG NAME THAT EXCEEDS LINE")
	res = sv.Validate(state, 1)
	assert.False(t, res.OK)
	assert.Contains(t, res.FieldErrors, "cardholderName")
}

func TestValidatePersonalInfo(t *testing.T) {
	sv := NewStepValidator()

	state := &models.DraftState{PersonalInfo: validPersonalInfo()}
	res := sv.Validate(state, 2)
	assert.True(t, res.OK, "errors: %v", res.FieldErrors)

	// Married requires spouse name
	state.PersonalInfo.MaritalStatus = utils.ToPtr("MARRIED")
	res = sv.Validate(state, 2)
	assert.False(t, res.OK)
	assert.Contains(t, res.FieldErrors, "spouseName")

	state.PersonalInfo.SpouseName = utils.ToPtr("Fatema")
	assert.True(t, sv.Validate(state, 2).OK)

	// Minor applicant is rejected
	state.PersonalInfo.DateOfBirth = utils.ToPtr(utils.UTCNow().AddDate(-17, 0, 0).Format("2006-01-02"))
	res = sv.Validate(state, 2)
	assert.False(t, res.OK)
	assert.Contains(t, res.FieldErrors, "dateOfBirth")

	// Nested address field errors carry the JSON path
	state.PersonalInfo.DateOfBirth = utils.ToPtr("1990-04-12")
	state.PersonalInfo.PresentAddress = &models.AddressData{Line1: utils.ToPtr("House 7")}
	res = sv.Validate(state, 2)
	assert.False(t, res.OK)
	assert.Contains(t, res.FieldErrors, "presentAddress.city")
	assert.Contains(t, res.FieldErrors, "presentAddress.postCode")
}

func TestValidateMonthlyIncomeBranches(t *testing.T) {
	sv := NewStepValidator()

	state := &models.DraftState{}
	res := sv.Validate(state, 4)
	assert.False(t, res.OK)
	assert.Contains(t, res.FieldErrors, "isSalaried")

	// Salaried branch: net must not exceed gross
	state.MonthlyIncome = &models.MonthlyIncomeData{
		IsSalaried: utils.ToPtr(true),
		SalariedIncome: &models.SalariedIncomeData{
			GrossMonthlyIncome: utils.ToPtr("50000.00"),
			NetMonthlyIncome:   utils.ToPtr("60000.00"),
		},
	}
	res = sv.Validate(state, 4)
	assert.False(t, res.OK)
	assert.Contains(t, res.FieldErrors, "salariedIncome.netMonthlyIncome")

	state.MonthlyIncome.SalariedIncome.NetMonthlyIncome = utils.ToPtr("45000.00")
	assert.True(t, sv.Validate(state, 4).OK)

	// Other income requires its source
	state.MonthlyIncome.SalariedIncome.OtherIncome = utils.ToPtr("5000.00")
	res = sv.Validate(state, 4)
	assert.False(t, res.OK)
	assert.Contains(t, res.FieldErrors, "salariedIncome.otherIncomeSource")

	// A state carrying both branches never validates, whichever is selected
	state.MonthlyIncome.SalariedIncome.OtherIncomeSource = utils.ToPtr("Rent")
	state.MonthlyIncome.BusinessIncome = &models.BusinessIncomeData{
		NatureOfBusiness: utils.ToPtr("Retail"),
		MonthlyIncome:    utils.ToPtr("70000.00"),
	}
	res = sv.Validate(state, 4)
	assert.False(t, res.OK)
	assert.Contains(t, res.FieldErrors, "businessIncome")

	state.MonthlyIncome.IsSalaried = utils.ToPtr(false)
	res = sv.Validate(state, 4)
	assert.False(t, res.OK)
	assert.Contains(t, res.FieldErrors, "salariedIncome")

	// Toggling through the merge discards the stale branch
	state.ApplyMonthlyIncome(models.MonthlyIncomeData{IsSalaried: utils.ToPtr(false)})
	assert.Nil(t, state.MonthlyIncome.SalariedIncome)
	assert.True(t, sv.Validate(state, 4).OK)
}

func TestValidateBankAccountsRows(t *testing.T) {
	sv := NewStepValidator()

	// Untouched optional step validates clean
	state := &models.DraftState{}
	assert.True(t, sv.Validate(state, 5).OK)

	state.BankAccounts = &models.BankAccountsData{
		Accounts: []models.BankAccountEntry{
			{ID: "a1", BankName: "City Bank", AccountNumber: "1234567890", AccountType: "SAVINGS"},
			{ID: "a2", BankName: "", AccountNumber: "123", AccountType: "FIXED"},
		},
	}
	res := sv.Validate(state, 5)
	assert.False(t, res.OK)
	assert.Contains(t, res.FieldErrors, "accounts[1].bankName")
	assert.Contains(t, res.FieldErrors, "accounts[1].accountNumber")
	assert.Contains(t, res.FieldErrors, "accounts[1].accountType")
	assert.NotContains(t, res.FieldErrors, "accounts[0].bankName")
}

func TestValidateCreditFacilityOutstandingVersusLimit(t *testing.T) {
	sv := NewStepValidator()

	state := &models.DraftState{
		CreditFacilities: &models.CreditFacilitiesData{
			Facilities: []models.CreditFacilityEntry{
				{ID: "f1", InstitutionName: "BRAC Bank", FacilityType: "LOAN", LimitAmount: "50000.00", OutstandingAmount: "60000.00"},
			},
		},
	}
	res := sv.Validate(state, 6)
	assert.False(t, res.OK)
	assert.Contains(t, res.FieldErrors, "facilities[0].outstandingAmount")

	state.CreditFacilities.Facilities[0].OutstandingAmount = "40000.00"
	assert.True(t, sv.Validate(state, 6).OK)
}

func TestValidateNominee(t *testing.T) {
	sv := NewStepValidator()

	state := &models.DraftState{
		Nominee: &models.NomineeData{
			FullName:     utils.ToPtr("Nominee Name"),
			Relationship: utils.ToPtr("SPOUSE"),
			DateOfBirth:  utils.ToPtr("2015-06-01"), // minors are allowed
			SharePercent: utils.ToPtr("100"),
		},
	}
	assert.True(t, sv.Validate(state, 7).OK)

	state.Nominee.SharePercent = utils.ToPtr("0")
	res := sv.Validate(state, 7)
	assert.False(t, res.OK)
	assert.Contains(t, res.FieldErrors, "sharePercent")

	state.Nominee.SharePercent = utils.ToPtr("120")
	res = sv.Validate(state, 7)
	assert.False(t, res.OK)
	assert.Contains(t, res.FieldErrors, "sharePercent")
}

func TestValidateSupplementaryCardGate(t *testing.T) {
	sv := NewStepValidator()

	// Gate off: record is never judged
	state := &models.DraftState{}
	assert.True(t, sv.Validate(state, 8).OK)

	state.HasSupplementaryCard = true
	res := sv.Validate(state, 8)
	assert.False(t, res.OK)
	assert.Contains(t, res.FieldErrors, "fullName")

	state.SupplementaryCard = &models.SupplementaryCardData{
		FullName:     utils.ToPtr("Fatema Begum"),
		Relationship: utils.ToPtr("SPOUSE"),
		DateOfBirth:  utils.ToPtr("1992-01-15"),
		NationalID:   utils.ToPtr("1234567890"),
	}
	assert.True(t, sv.Validate(state, 8).OK)
}

func TestValidateReferencesMinimum(t *testing.T) {
	sv := NewStepValidator()

	state := &models.DraftState{
		References: &models.ReferencesData{
			Referees: []models.ReferenceEntry{
				{ID: "r1", FullName: "Karim", Relationship: "FRIEND", MobileNumber: "01811111111"},
			},
		},
	}
	res := sv.Validate(state, 9)
	assert.False(t, res.OK)
	assert.Contains(t, res.FieldErrors, "referees")

	state.References.Referees = append(state.References.Referees, models.ReferenceEntry{
		ID: "r2", FullName: "Fatema", Relationship: "COLLEAGUE", MobileNumber: "01822222222",
	})
	assert.True(t, sv.Validate(state, 9).OK)
}

func TestValidateAutoDebit(t *testing.T) {
	sv := NewStepValidator()

	state := &models.DraftState{}
	res := sv.Validate(state, 11)
	assert.False(t, res.OK)
	assert.Contains(t, res.FieldErrors, "enabled")

	// Disabled needs nothing else
	state.AutoDebit = &models.AutoDebitData{Enabled: utils.ToPtr(false)}
	assert.True(t, sv.Validate(state, 11).OK)

	state.AutoDebit.Enabled = utils.ToPtr(true)
	res = sv.Validate(state, 11)
	assert.False(t, res.OK)
	assert.Contains(t, res.FieldErrors, "paymentOption")
	assert.Contains(t, res.FieldErrors, "accountNumber")

	state.AutoDebit.PaymentOption = utils.ToPtr("MINIMUM_DUE")
	state.AutoDebit.AccountHolderName = utils.ToPtr("Rahim Uddin")
	state.AutoDebit.AccountNumber = utils.ToPtr("1234567890")
	state.AutoDebit.BankName = utils.ToPtr("City Bank")
	assert.True(t, sv.Validate(state, 11).OK)
}

func TestValidateDeclarations(t *testing.T) {
	sv := NewStepValidator()

	state := &models.DraftState{}
	res := sv.Validate(state, 12)
	assert.False(t, res.OK)
	for _, code := range models.DeclarationCodes() {
		assert.Contains(t, res.FieldErrors, "declarations."+code)
	}

	// An explicit "no" answer counts as answered
	decls := make([]models.DeclarationAnswer, 0, len(models.DeclarationCodes()))
	for _, code := range models.DeclarationCodes() {
		decls = append(decls, models.DeclarationAnswer{Code: code, Answer: utils.ToPtr(code != models.DeclarationPEPStatus)})
	}
	state.Declarations = &models.DeclarationsData{Declarations: decls}
	assert.True(t, sv.Validate(state, 12).OK)

	// Required but missing document blocks
	state.Declarations.Checklist = []models.ChecklistItem{
		{Code: models.ChecklistNIDCopy, Required: true, Uploaded: false},
		{Code: models.ChecklistTradeLicense, Required: false, Uploaded: false},
	}
	res = sv.Validate(state, 12)
	assert.False(t, res.OK)
	assert.Contains(t, res.FieldErrors, "checklist."+models.ChecklistNIDCopy)
	assert.NotContains(t, res.FieldErrors, "checklist."+models.ChecklistTradeLicense)
}

func TestValidateUnknownStepNumber(t *testing.T) {
	sv := NewStepValidator()
	res := sv.Validate(&models.DraftState{}, 99)
	assert.False(t, res.OK)
	assert.Contains(t, res.FieldErrors, "stepNumber")
}

func TestIsStepComplete(t *testing.T) {
	sv := NewStepValidator()

	preApp, ok := models.StepAt(0)
	require.True(t, ok)
	bankAccounts, ok := models.StepAt(5)
	require.True(t, ok)
	suppCard, ok := models.StepAt(8)
	require.True(t, ok)
	declarations, ok := models.StepAt(12)
	require.True(t, ok)

	state := &models.DraftState{
		PreApplication: &models.PreApplicationData{
			MobileNumber: utils.ToPtr("01712345678"),
			NationalID:   utils.ToPtr("1234567890"),
		},
	}

	// Valid fields alone are not enough for step 0; OTP must be verified
	assert.False(t, sv.IsStepComplete(state, preApp))
	state.MarkOTPVerified()
	assert.True(t, sv.IsStepComplete(state, preApp))

	// Untouched optional step is complete
	assert.True(t, sv.IsStepComplete(state, bankAccounts))

	// Gated supplementary step flips with the flag
	assert.True(t, sv.IsStepComplete(state, suppCard))
	state.HasSupplementaryCard = true
	assert.False(t, sv.IsStepComplete(state, suppCard))

	// Final step requires acceptance flags on top of valid answers
	decls := make([]models.DeclarationAnswer, 0, len(models.DeclarationCodes()))
	for _, code := range models.DeclarationCodes() {
		decls = append(decls, models.DeclarationAnswer{Code: code, Answer: utils.ToPtr(true)})
	}
	state.Declarations = &models.DeclarationsData{Declarations: decls}
	assert.False(t, sv.IsStepComplete(state, declarations))
	state.TermsAccepted = true
	state.DeclarationAccepted = true
	assert.True(t, sv.IsStepComplete(state, declarations))
}

func TestIncompleteStepsOrdered(t *testing.T) {
	sv := NewStepValidator()

	incomplete := sv.IncompleteSteps(&models.DraftState{})
	require.NotEmpty(t, incomplete)

	// Results come back in step order
	for i := 1; i < len(incomplete); i++ {
		assert.Greater(t, incomplete[i].Number, incomplete[i-1].Number)
	}

	// Untouched optional steps are absent from the blocker list
	names := make(map[string]bool)
	for _, def := range incomplete {
		names[def.Name] = true
	}
	assert.False(t, names[models.StepBankAccounts])
	assert.False(t, names[models.StepCreditFacilities])
	assert.False(t, names[models.StepSupplementaryCard])
	assert.True(t, names[models.StepPreApplication])
	assert.True(t, names[models.StepMIDDeclarations])
}

func TestRequiredBeatsFormat(t *testing.T) {
	sv := NewStepValidator()

	state := &models.DraftState{}
	res := sv.Validate(state, 0)
	require.False(t, res.OK)
	assert.Equal(t, "this field is required", res.FieldErrors["mobileNumber"])
}

func TestDecimalRules(t *testing.T) {
	sv := NewStepValidator()

	for i, amount := range []string{"-1", "abc", "1.2.3", "1e5", "1E2", "+500", "", "."} {
		state := &models.DraftState{
			MonthlyIncome: &models.MonthlyIncomeData{
				IsSalaried: utils.ToPtr(true),
				SalariedIncome: &models.SalariedIncomeData{
					GrossMonthlyIncome: utils.ToPtr(amount),
					NetMonthlyIncome:   utils.ToPtr("1000.00"),
				},
			},
		}
		res := sv.Validate(state, 4)
		assert.False(t, res.OK, fmt.Sprintf("case %d: %q should fail", i, amount))
		assert.Contains(t, res.FieldErrors, "salariedIncome.grossMonthlyIncome")
	}
}
