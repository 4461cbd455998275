package models

import (
	"encoding/json"
	"testing"

	"github.com/appform-bd/cardapply/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyStepMergesProvidedFieldsOnly(t *testing.T) {
	state := DraftState{}

	err := state.ApplyStep(StepPersonalInfo, []byte(`{"firstName":"Rahim","lastName":"Uddin"}`))
	require.NoError(t, err)
	require.NotNil(t, state.PersonalInfo)
	assert.Equal(t, "Rahim", utils.Deref(state.PersonalInfo.FirstName))
	assert.Equal(t, "Uddin", utils.Deref(state.PersonalInfo.LastName))

	// A later partial save must not clear fields it does not mention
	err = state.ApplyStep(StepPersonalInfo, []byte(`{"email":"rahim@example.com"}`))
	require.NoError(t, err)
	assert.Equal(t, "Rahim", utils.Deref(state.PersonalInfo.FirstName))
	assert.Equal(t, "rahim@example.com", utils.Deref(state.PersonalInfo.Email))
}

func TestApplyStepRejectsUnknownStep(t *testing.T) {
	state := DraftState{}
	err := state.ApplyStep("notAStep", []byte(`{}`))
	assert.Error(t, err)
}

func TestApplyStepRejectsMalformedPayload(t *testing.T) {
	state := DraftState{}
	err := state.ApplyStep(StepPersonalInfo, []byte(`{"firstName":`))
	assert.Error(t, err)
	assert.Nil(t, state.PersonalInfo)
}

func TestNestedAddressReplacedWholesale(t *testing.T) {
	state := DraftState{}

	err := state.ApplyStep(StepPersonalInfo, []byte(`{"presentAddress":{"line1":"House 1","city":"Dhaka","postCode":"1207"}}`))
	require.NoError(t, err)

	// The new block omits city; the old city must not survive
	err = state.ApplyStep(StepPersonalInfo, []byte(`{"presentAddress":{"line1":"House 2"}}`))
	require.NoError(t, err)

	addr := state.PersonalInfo.PresentAddress
	require.NotNil(t, addr)
	assert.Equal(t, "House 2", utils.Deref(addr.Line1))
	assert.Nil(t, addr.City)
}

func TestOTPVerifiedNotMergeableFromPayload(t *testing.T) {
	state := DraftState{}

	err := state.ApplyStep(StepPreApplication, []byte(`{"mobileNumber":"01712345678","otpVerified":true}`))
	require.NoError(t, err)
	assert.False(t, state.OTPVerified())

	state.MarkOTPVerified()
	assert.True(t, state.OTPVerified())

	// Re-saving the step must not clear the verified flag
	err = state.ApplyStep(StepPreApplication, []byte(`{"nationalId":"1234567890"}`))
	require.NoError(t, err)
	assert.True(t, state.OTPVerified())
}

func TestBankAccountRowOperations(t *testing.T) {
	state := DraftState{}

	state.AddBankAccount(BankAccountEntry{ID: "a1", BankName: "City Bank", AccountNumber: "111"})
	state.AddBankAccount(BankAccountEntry{ID: "a2", BankName: "EBL", AccountNumber: "222"})
	require.Len(t, state.BankAccounts.Accounts, 2)

	ok := state.UpdateBankAccount(BankAccountEntry{ID: "a1", BankName: "City Bank", AccountNumber: "999"})
	assert.True(t, ok)
	assert.Equal(t, "999", state.BankAccounts.Accounts[0].AccountNumber)

	assert.False(t, state.UpdateBankAccount(BankAccountEntry{ID: "missing"}))

	assert.True(t, state.RemoveBankAccount("a1"))
	assert.Len(t, state.BankAccounts.Accounts, 1)
	assert.Equal(t, "a2", state.BankAccounts.Accounts[0].ID)

	assert.False(t, state.RemoveBankAccount("a1"))
}

func TestCreditFacilityRowOperations(t *testing.T) {
	state := DraftState{}

	assert.False(t, state.UpdateCreditFacility(CreditFacilityEntry{ID: "f1"}))
	assert.False(t, state.RemoveCreditFacility("f1"))

	state.AddCreditFacility(CreditFacilityEntry{ID: "f1", InstitutionName: "BRAC Bank", LimitAmount: "50000.00"})
	assert.True(t, state.UpdateCreditFacility(CreditFacilityEntry{ID: "f1", InstitutionName: "BRAC Bank", LimitAmount: "75000.00"}))
	assert.Equal(t, "75000.00", state.CreditFacilities.Facilities[0].LimitAmount)
	assert.True(t, state.RemoveCreditFacility("f1"))
	assert.Empty(t, state.CreditFacilities.Facilities)
}

func TestReferenceRowOperations(t *testing.T) {
	state := DraftState{}

	state.AddReference(ReferenceEntry{ID: "r1", FullName: "Karim", MobileNumber: "01811111111"})
	state.AddReference(ReferenceEntry{ID: "r2", FullName: "Fatema", MobileNumber: "01822222222"})

	assert.True(t, state.UpdateReference(ReferenceEntry{ID: "r2", FullName: "Fatema Begum", MobileNumber: "01822222222"}))
	assert.Equal(t, "Fatema Begum", state.References.Referees[1].FullName)

	assert.True(t, state.RemoveReference("r1"))
	require.Len(t, state.References.Referees, 1)
	assert.Equal(t, "r2", state.References.Referees[0].ID)
}

func TestSupplementaryCardGate(t *testing.T) {
	state := DraftState{}

	// Payloads are dropped while the gate is off
	name := "Someone"
	state.ApplySupplementaryCard(SupplementaryCardData{FullName: &name})
	assert.Nil(t, state.SupplementaryCard)

	state.SetSupplementaryCard(true)
	state.ApplySupplementaryCard(SupplementaryCardData{FullName: &name})
	require.NotNil(t, state.SupplementaryCard)
	assert.Equal(t, "Someone", utils.Deref(state.SupplementaryCard.FullName))

	// Turning the gate off discards the record
	state.SetSupplementaryCard(false)
	assert.False(t, state.HasSupplementaryCard)
	assert.Nil(t, state.SupplementaryCard)
}

func TestSetAcceptance(t *testing.T) {
	state := DraftState{}

	state.SetAcceptance(utils.ToPtr(true), nil)
	assert.True(t, state.TermsAccepted)
	assert.False(t, state.DeclarationAccepted)

	state.SetAcceptance(nil, utils.ToPtr(true))
	assert.True(t, state.TermsAccepted)
	assert.True(t, state.DeclarationAccepted)

	state.SetAcceptance(utils.ToPtr(false), nil)
	assert.False(t, state.TermsAccepted)
	assert.True(t, state.DeclarationAccepted)
}

func TestAdoptStepReplacesRecordWholesale(t *testing.T) {
	older := DraftState{}
	require.NoError(t, older.ApplyStep(StepCardSelection, []byte(`{"productCode":"VISA_CLASSIC","cardholderName":"RAHIM UDDIN"}`)))

	newer := DraftState{}
	require.NoError(t, newer.ApplyStep(StepCardSelection, []byte(`{"productCode":"VISA_GOLD"}`)))

	ok := older.AdoptStep(StepCardSelection, &newer)
	require.True(t, ok)
	assert.Equal(t, "VISA_GOLD", utils.Deref(older.CardSelection.ProductCode))
	// Wholesale adoption must not resurrect the cleared cardholder name
	assert.Nil(t, older.CardSelection.CardholderName)
}

func TestAdoptStepCarriesRootFlags(t *testing.T) {
	dst := DraftState{}
	src := DraftState{TermsAccepted: true, DeclarationAccepted: true}
	src.Declarations = &DeclarationsData{
		Declarations: []DeclarationAnswer{{Code: DeclarationInfoAccuracy, Answer: utils.ToPtr(true)}},
	}

	require.True(t, dst.AdoptStep(StepMIDDeclarations, &src))
	assert.True(t, dst.TermsAccepted)
	assert.True(t, dst.DeclarationAccepted)
	require.NotNil(t, dst.Declarations)

	srcSupp := DraftState{HasSupplementaryCard: true, SupplementaryCard: &SupplementaryCardData{}}
	require.True(t, dst.AdoptStep(StepSupplementaryCard, &srcSupp))
	assert.True(t, dst.HasSupplementaryCard)
	assert.NotNil(t, dst.SupplementaryCard)

	assert.False(t, dst.AdoptStep("notAStep", &src))
	assert.False(t, dst.AdoptStep(StepCardSelection, nil))
}

func TestTouchedDistinguishesAbsentFromEmpty(t *testing.T) {
	state := DraftState{}
	assert.False(t, state.Touched(StepBankAccounts))

	require.NoError(t, state.ApplyStep(StepBankAccounts, []byte(`{"accounts":[]}`)))
	assert.True(t, state.Touched(StepBankAccounts))
	assert.Empty(t, state.BankAccounts.Accounts)

	assert.False(t, state.Touched("notAStep"))
}

func TestStepDataRoundTrip(t *testing.T) {
	state := DraftState{}
	require.NoError(t, state.ApplyStep(StepNominee, []byte(`{"fullName":"Nominee Name","sharePercent":"100"}`)))

	data, ok := state.StepData(StepNominee)
	require.True(t, ok)
	nominee, isNominee := data.(*NomineeData)
	require.True(t, isNominee)
	assert.Equal(t, "Nominee Name", utils.Deref(nominee.FullName))

	_, ok = state.StepData("notAStep")
	assert.False(t, ok)
}

func TestDraftStateScanValue(t *testing.T) {
	state := DraftState{HasSupplementaryCard: true}
	require.NoError(t, state.ApplyStep(StepCardSelection, []byte(`{"productCode":"VISA_CLASSIC"}`)))

	value, err := state.Value()
	require.NoError(t, err)

	var roundTripped DraftState
	require.NoError(t, roundTripped.Scan(value))
	assert.True(t, roundTripped.HasSupplementaryCard)
	require.NotNil(t, roundTripped.CardSelection)
	assert.Equal(t, "VISA_CLASSIC", utils.Deref(roundTripped.CardSelection.ProductCode))

	// nil resets the state
	require.NoError(t, roundTripped.Scan(nil))
	assert.Nil(t, roundTripped.CardSelection)

	assert.Error(t, roundTripped.Scan(42))
}

func TestDeclarationAnswerNilVersusFalse(t *testing.T) {
	raw := []byte(`{"declarations":[{"code":"FATCA_STATUS","answer":false},{"code":"PEP_STATUS"}]}`)

	var in DeclarationsData
	require.NoError(t, json.Unmarshal(raw, &in))
	require.Len(t, in.Declarations, 2)

	require.NotNil(t, in.Declarations[0].Answer)
	assert.False(t, *in.Declarations[0].Answer)
	assert.Nil(t, in.Declarations[1].Answer)
}
