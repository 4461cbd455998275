package models

// Step names as they appear on the wire and inside the draft state JSON.
const (
	StepPreApplication    = "preApplication"
	StepCardSelection     = "cardSelection"
	StepPersonalInfo      = "personalInfo"
	StepProfessionalInfo  = "professionalInfo"
	StepMonthlyIncome     = "monthlyIncome"
	StepBankAccounts      = "bankAccounts"
	StepCreditFacilities  = "creditFacilities"
	StepNominee           = "nominee"
	StepSupplementaryCard = "supplementaryCard"
	StepReferences        = "references"
	StepImageSignature    = "imageSignature"
	StepAutoDebit         = "autoDebit"
	StepMIDDeclarations   = "midDeclarations"
)

const (
	// FirstStep is the pre-application verification step.
	FirstStep = 0

	// LastStep is the final content step (declarations and checklist).
	LastStep = 12

	// TotalSteps counts the pre-application step plus the twelve content steps.
	TotalSteps = 13
)

// StepDefinition describes one wizard step. Optional steps never block
// forward navigation; supplementaryCard is additionally gated by the draft's
// HasSupplementaryCard flag and becomes required while that flag is on.
type StepDefinition struct {
	Number   int    `json:"number"`
	Name     string `json:"name"`
	Title    string `json:"title"`
	Optional bool   `json:"optional"`
}

// stepCatalog is the single source of truth for step order and metadata.
// Never reordered after release: step numbers are persisted in version rows
// and draft snapshots.
var stepCatalog = []StepDefinition{
	{Number: 0, Name: StepPreApplication, Title: "Mobile & NID verification"},
	{Number: 1, Name: StepCardSelection, Title: "Card selection"},
	{Number: 2, Name: StepPersonalInfo, Title: "Personal information"},
	{Number: 3, Name: StepProfessionalInfo, Title: "Professional information"},
	{Number: 4, Name: StepMonthlyIncome, Title: "Monthly income"},
	{Number: 5, Name: StepBankAccounts, Title: "Bank accounts", Optional: true},
	{Number: 6, Name: StepCreditFacilities, Title: "Credit facilities", Optional: true},
	{Number: 7, Name: StepNominee, Title: "Nominee"},
	{Number: 8, Name: StepSupplementaryCard, Title: "Supplementary card", Optional: true},
	{Number: 9, Name: StepReferences, Title: "References"},
	{Number: 10, Name: StepImageSignature, Title: "Photo & signature"},
	{Number: 11, Name: StepAutoDebit, Title: "Auto-debit instruction"},
	{Number: 12, Name: StepMIDDeclarations, Title: "Declarations & checklist"},
}

var stepsByName = func() map[string]StepDefinition {
	m := make(map[string]StepDefinition, len(stepCatalog))
	for _, def := range stepCatalog {
		m[def.Name] = def
	}
	return m
}()

// Declaration codes collected on the final step. Every code must carry an
// explicit yes/no answer before the application can be submitted.
const (
	DeclarationInfoAccuracy   = "INFO_ACCURACY"
	DeclarationCreditConsent  = "CREDIT_BUREAU_CONSENT"
	DeclarationFATCAStatus    = "FATCA_STATUS"
	DeclarationPEPStatus      = "PEP_STATUS"
	DeclarationNoPendingLoans = "NO_DEFAULTED_LOANS"
)

var declarationCodes = []string{
	DeclarationInfoAccuracy,
	DeclarationCreditConsent,
	DeclarationFATCAStatus,
	DeclarationPEPStatus,
	DeclarationNoPendingLoans,
}

// DeclarationCodes returns the canonical declaration codes in display order.
func DeclarationCodes() []string {
	out := make([]string, len(declarationCodes))
	copy(out, declarationCodes)
	return out
}

// Document checklist codes for the final step. Which of them are required
// depends on the applicant's income type; the Required flag travels on each
// checklist row.
const (
	ChecklistNIDCopy           = "NID_COPY"
	ChecklistPhotograph        = "PHOTOGRAPH"
	ChecklistSalaryCertificate = "SALARY_CERTIFICATE"
	ChecklistBankStatement     = "BANK_STATEMENT"
	ChecklistTradeLicense      = "TRADE_LICENSE"
	ChecklistTINCertificate    = "TIN_CERTIFICATE"
)

// Steps returns the ordered step definitions. The returned slice is a copy;
// callers may not mutate the catalog.
func Steps() []StepDefinition {
	out := make([]StepDefinition, len(stepCatalog))
	copy(out, stepCatalog)
	return out
}

// StepAt returns the definition for the given step number. The second result
// is false for out-of-range numbers; StepAt never panics.
func StepAt(number int) (StepDefinition, bool) {
	if number < FirstStep || number > LastStep {
		return StepDefinition{}, false
	}
	return stepCatalog[number], true
}

// StepByName returns the definition for the given wire name.
func StepByName(name string) (StepDefinition, bool) {
	def, ok := stepsByName[name]
	return def, ok
}
