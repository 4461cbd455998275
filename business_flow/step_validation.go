package businessflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/appform-bd/cardapply/models"
	"github.com/appform-bd/cardapply/utils"
)

const (
	// MinReferences is the smallest number of personal references an
	// application must carry before the references step counts as complete.
	MinReferences = 2

	// MaxEmbossedNameLength is the embossing line width on the physical card.
	MaxEmbossedNameLength = 26

	// AdultAge is the minimum age for principal and supplementary cardholders.
	AdultAge = 18
)

const msgRequired = "this field is required"

// StepValidationResult is the outcome of validating a single step. Field
// errors are keyed by the JSON path of the offending field inside the step's
// record, e.g. "presentAddress.postCode" or "accounts[1].accountNumber".
type StepValidationResult struct {
	OK          bool              `json:"ok"`
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
}

// StepValidator checks step records for field validity and completeness.
// Saving never requires a valid record; validation results ride along as
// advice. Navigation past a step and final submission are where validity
// becomes binding.
type StepValidator interface {
	// Validate checks the record owned by the given step number.
	Validate(state *models.DraftState, stepNumber int) StepValidationResult

	// IsStepComplete reports whether the step no longer blocks forward
	// navigation or submission. Optional steps that were never touched are
	// complete; the pre-application step additionally requires OTP
	// verification and the final step requires both acceptance flags.
	IsStepComplete(state *models.DraftState, def models.StepDefinition) bool

	// IncompleteSteps returns every step that still blocks submission, in
	// step order.
	IncompleteSteps(state *models.DraftState) []models.StepDefinition
}

// StepValidatorImpl implements StepValidator on top of go-playground
// validator with the Bangladesh-specific rules registered.
type StepValidatorImpl struct {
	validate *validator.Validate
}

// NewStepValidator creates a step validator with all custom rules registered.
func NewStepValidator() StepValidator {
	v := validator.New()
	RegisterWizardValidations(v)
	return &StepValidatorImpl{validate: v}
}

// RegisterWizardValidations registers the wizard's custom validation rules on
// the given validator instance. Handlers reuse this for request DTOs so wire
// payloads and draft records are judged by the same rules.
func RegisterWizardValidations(v *validator.Validate) {
	_ = v.RegisterValidation("bd_mobile", func(fl validator.FieldLevel) bool {
		return IsBDMobile(fl.Field().String())
	})
	_ = v.RegisterValidation("bd_nid", func(fl validator.FieldLevel) bool {
		return IsBDNID(fl.Field().String())
	})
	_ = v.RegisterValidation("bd_postcode", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return len(s) == 4 && isDigits(s)
	})
	_ = v.RegisterValidation("bd_tin", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return len(s) == 12 && isDigits(s)
	})
	_ = v.RegisterValidation("digits", func(fl validator.FieldLevel) bool {
		return isDigits(fl.Field().String())
	})
	_ = v.RegisterValidation("decimal_amount", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if !isDecimalString(s) {
			return false
		}
		d, err := decimal.NewFromString(s)
		return err == nil && !d.IsNegative()
	})
	_ = v.RegisterValidation("decimal_percent", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if !isDecimalString(s) {
			return false
		}
		d, err := decimal.NewFromString(s)
		return err == nil && !d.IsNegative() && d.LessThanOrEqual(decimal.NewFromInt(100))
	})
	_ = v.RegisterValidation("date_ymd", func(fl validator.FieldLevel) bool {
		_, err := utils.ParseDate(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("adult_18", func(fl validator.FieldLevel) bool {
		dob, err := utils.ParseDate(fl.Field().String())
		if err != nil {
			return false
		}
		return utils.YearsBetween(dob, utils.UTCNow()) >= AdultAge
	})
	_ = v.RegisterValidation("emboss_name", func(fl validator.FieldLevel) bool {
		return isEmbossName(fl.Field().String())
	})
}

// IsBDMobile reports whether s is a Bangladesh mobile number in local format:
// 11 digits starting with 01.
func IsBDMobile(s string) bool {
	return len(s) == 11 && strings.HasPrefix(s, "01") && isDigits(s)
}

// IsBDNID reports whether s is a national ID number. The registry issued 13
// and 17 digit numbers historically and 10 digit smart-card numbers today.
func IsBDNID(s string) bool {
	if !isDigits(s) {
		return false
	}
	switch len(s) {
	case 10, 13, 17:
		return true
	}
	return false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// isDecimalString accepts digits with at most one decimal point. No sign, no
// exponent: "1e5" and "+500" parse as decimals but are not amounts.
func isDecimalString(s string) bool {
	if s == "" {
		return false
	}
	digits := 0
	points := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
			points++
		default:
			return false
		}
	}
	return digits > 0 && points <= 1
}

func isEmbossName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
		case r >= 'a' && r <= 'z':
		case r == ' ' || r == '.' || r == '-':
		default:
			return false
		}
	}
	return true
}

// Validate implements StepValidator.
func (sv *StepValidatorImpl) Validate(state *models.DraftState, stepNumber int) StepValidationResult {
	if state == nil {
		state = &models.DraftState{}
	}
	errs := make(map[string]string)

	switch stepNumber {
	case 0:
		sv.validatePreApplication(state, errs)
	case 1:
		sv.validateCardSelection(state, errs)
	case 2:
		sv.validatePersonalInfo(state, errs)
	case 3:
		sv.validateProfessionalInfo(state, errs)
	case 4:
		sv.validateMonthlyIncome(state, errs)
	case 5:
		sv.validateBankAccounts(state, errs)
	case 6:
		sv.validateCreditFacilities(state, errs)
	case 7:
		sv.validateNominee(state, errs)
	case 8:
		sv.validateSupplementaryCard(state, errs)
	case 9:
		sv.validateReferences(state, errs)
	case 10:
		sv.validateImageSignature(state, errs)
	case 11:
		sv.validateAutoDebit(state, errs)
	case 12:
		sv.validateDeclarations(state, errs)
	default:
		errs["stepNumber"] = "unknown step number"
	}

	if len(errs) == 0 {
		return StepValidationResult{OK: true}
	}
	return StepValidationResult{OK: false, FieldErrors: errs}
}

// IsStepComplete implements StepValidator.
func (sv *StepValidatorImpl) IsStepComplete(state *models.DraftState, def models.StepDefinition) bool {
	if state == nil {
		state = &models.DraftState{}
	}
	switch def.Name {
	case models.StepPreApplication:
		return sv.Validate(state, def.Number).OK && state.OTPVerified()
	case models.StepSupplementaryCard:
		// Gate off means the record is dormant storage, never a blocker.
		if !state.HasSupplementaryCard {
			return true
		}
		return sv.Validate(state, def.Number).OK
	case models.StepMIDDeclarations:
		return sv.Validate(state, def.Number).OK && state.TermsAccepted && state.DeclarationAccepted
	default:
		if def.Optional && !state.Touched(def.Name) {
			return true
		}
		return sv.Validate(state, def.Number).OK
	}
}

// IncompleteSteps implements StepValidator.
func (sv *StepValidatorImpl) IncompleteSteps(state *models.DraftState) []models.StepDefinition {
	var out []models.StepDefinition
	for _, def := range models.Steps() {
		if !sv.IsStepComplete(state, def) {
			out = append(out, def)
		}
	}
	return out
}

func (sv *StepValidatorImpl) validatePreApplication(state *models.DraftState, errs map[string]string) {
	rec := state.PreApplication
	if rec == nil {
		rec = &models.PreApplicationData{}
	}
	if mobile, ok := requireString(errs, "mobileNumber", rec.MobileNumber); ok {
		sv.checkVar(errs, "mobileNumber", mobile, "bd_mobile")
	}
	if nid, ok := requireString(errs, "nationalId", rec.NationalID); ok {
		sv.checkVar(errs, "nationalId", nid, "bd_nid")
	}
}

func (sv *StepValidatorImpl) validateCardSelection(state *models.DraftState, errs map[string]string) {
	rec := state.CardSelection
	if rec == nil {
		rec = &models.CardSelectionData{}
	}
	requireString(errs, "productCode", rec.ProductCode)
	if network, ok := requireString(errs, "network", rec.Network); ok {
		sv.checkVar(errs, "network", network, "oneof=VISA MASTERCARD")
	}
	if tier, ok := requireString(errs, "tier", rec.Tier); ok {
		sv.checkVar(errs, "tier", tier, "oneof=CLASSIC GOLD PLATINUM")
	}
	if name, ok := requireString(errs, "cardholderName", rec.CardholderName); ok {
		sv.checkVar(errs, "cardholderName", name, fmt.Sprintf("emboss_name,max=%d", MaxEmbossedNameLength))
	}
}

func (sv *StepValidatorImpl) validatePersonalInfo(state *models.DraftState, errs map[string]string) {
	rec := state.PersonalInfo
	if rec == nil {
		rec = &models.PersonalInfoData{}
	}
	requireString(errs, "firstName", rec.FirstName)
	requireString(errs, "lastName", rec.LastName)
	requireString(errs, "fatherName", rec.FatherName)
	requireString(errs, "motherName", rec.MotherName)
	if gender, ok := requireString(errs, "gender", rec.Gender); ok {
		sv.checkVar(errs, "gender", gender, "oneof=MALE FEMALE OTHER")
	}
	if dob, ok := requireString(errs, "dateOfBirth", rec.DateOfBirth); ok {
		sv.checkVar(errs, "dateOfBirth", dob, "date_ymd,adult_18")
	}
	marital, maritalPresent := requireString(errs, "maritalStatus", rec.MaritalStatus)
	if maritalPresent {
		sv.checkVar(errs, "maritalStatus", marital, "oneof=SINGLE MARRIED DIVORCED WIDOWED")
	}
	if marital == "MARRIED" {
		requireString(errs, "spouseName", rec.SpouseName)
	}
	requireString(errs, "nationality", rec.Nationality)
	if email, ok := optionalString(rec.Email); ok {
		sv.checkVar(errs, "email", email, "email")
	}
	sv.validateAddress(errs, "presentAddress", rec.PresentAddress)
	sv.validateAddress(errs, "permanentAddress", rec.PermanentAddress)
}

func (sv *StepValidatorImpl) validateAddress(errs map[string]string, prefix string, addr *models.AddressData) {
	if addr == nil {
		addr = &models.AddressData{}
	}
	requireString(errs, prefix+".line1", addr.Line1)
	requireString(errs, prefix+".city", addr.City)
	requireString(errs, prefix+".district", addr.District)
	if pc, ok := requireString(errs, prefix+".postCode", addr.PostCode); ok {
		sv.checkVar(errs, prefix+".postCode", pc, "bd_postcode")
	}
}

func (sv *StepValidatorImpl) validateProfessionalInfo(state *models.DraftState, errs map[string]string) {
	rec := state.ProfessionalInfo
	if rec == nil {
		rec = &models.ProfessionalInfoData{}
	}
	requireString(errs, "occupation", rec.Occupation)
	requireString(errs, "organizationName", rec.OrganizationName)
	requireString(errs, "designation", rec.Designation)
	if years, ok := optionalString(rec.YearsInService); ok {
		sv.checkVar(errs, "yearsInService", years, "digits")
	}
	if tin, ok := optionalString(rec.TIN); ok {
		sv.checkVar(errs, "tin", tin, "bd_tin")
	}
	if rec.OfficeAddress != nil {
		if pc, ok := optionalString(rec.OfficeAddress.PostCode); ok {
			sv.checkVar(errs, "officeAddress.postCode", pc, "bd_postcode")
		}
	}
}

func (sv *StepValidatorImpl) validateMonthlyIncome(state *models.DraftState, errs map[string]string) {
	rec := state.MonthlyIncome
	if rec == nil {
		rec = &models.MonthlyIncomeData{}
	}
	if rec.IsSalaried == nil {
		errs["isSalaried"] = msgRequired
		return
	}
	// Exactly one branch may be populated. ApplyMonthlyIncome discards the
	// non-selected branch on toggle, but adopted or legacy states can still
	// carry both.
	if *rec.IsSalaried {
		sv.validateSalariedIncome(errs, rec.SalariedIncome)
		if rec.BusinessIncome != nil {
			errs["businessIncome"] = "must be empty for salaried applicants"
		}
	} else {
		sv.validateBusinessIncome(errs, rec.BusinessIncome)
		if rec.SalariedIncome != nil {
			errs["salariedIncome"] = "must be empty for business applicants"
		}
	}
}

func (sv *StepValidatorImpl) validateSalariedIncome(errs map[string]string, inc *models.SalariedIncomeData) {
	if inc == nil {
		inc = &models.SalariedIncomeData{}
	}
	gross, grossOK := requireString(errs, "salariedIncome.grossMonthlyIncome", inc.GrossMonthlyIncome)
	if grossOK {
		sv.checkVar(errs, "salariedIncome.grossMonthlyIncome", gross, "decimal_amount")
	}
	net, netOK := requireString(errs, "salariedIncome.netMonthlyIncome", inc.NetMonthlyIncome)
	if netOK {
		sv.checkVar(errs, "salariedIncome.netMonthlyIncome", net, "decimal_amount")
	}
	if grossOK && netOK && !decimalLTE(net, gross) {
		errs["salariedIncome.netMonthlyIncome"] = "cannot exceed gross monthly income"
	}
	if other, ok := optionalString(inc.OtherIncome); ok {
		sv.checkVar(errs, "salariedIncome.otherIncome", other, "decimal_amount")
		requireString(errs, "salariedIncome.otherIncomeSource", inc.OtherIncomeSource)
	}
}

func (sv *StepValidatorImpl) validateBusinessIncome(errs map[string]string, inc *models.BusinessIncomeData) {
	if inc == nil {
		inc = &models.BusinessIncomeData{}
	}
	requireString(errs, "businessIncome.natureOfBusiness", inc.NatureOfBusiness)
	if income, ok := requireString(errs, "businessIncome.monthlyIncome", inc.MonthlyIncome); ok {
		sv.checkVar(errs, "businessIncome.monthlyIncome", income, "decimal_amount")
	}
	if years, ok := optionalString(inc.YearsInBusiness); ok {
		sv.checkVar(errs, "businessIncome.yearsInBusiness", years, "digits")
	}
}

func (sv *StepValidatorImpl) validateBankAccounts(state *models.DraftState, errs map[string]string) {
	rec := state.BankAccounts
	if rec == nil {
		return
	}
	for i, acct := range rec.Accounts {
		prefix := fmt.Sprintf("accounts[%d]", i)
		requireNonBlank(errs, prefix+".bankName", acct.BankName)
		if requireNonBlank(errs, prefix+".accountNumber", acct.AccountNumber) {
			sv.checkVar(errs, prefix+".accountNumber", acct.AccountNumber, "digits,min=10,max=20")
		}
		if requireNonBlank(errs, prefix+".accountType", acct.AccountType) {
			sv.checkVar(errs, prefix+".accountType", acct.AccountType, "oneof=SAVINGS CURRENT")
		}
	}
}

func (sv *StepValidatorImpl) validateCreditFacilities(state *models.DraftState, errs map[string]string) {
	rec := state.CreditFacilities
	if rec == nil {
		return
	}
	for i, fac := range rec.Facilities {
		prefix := fmt.Sprintf("facilities[%d]", i)
		requireNonBlank(errs, prefix+".institutionName", fac.InstitutionName)
		if requireNonBlank(errs, prefix+".facilityType", fac.FacilityType) {
			sv.checkVar(errs, prefix+".facilityType", fac.FacilityType, "oneof=CREDIT_CARD LOAN OVERDRAFT")
		}
		limitOK := requireNonBlank(errs, prefix+".limitAmount", fac.LimitAmount)
		if limitOK {
			sv.checkVar(errs, prefix+".limitAmount", fac.LimitAmount, "decimal_amount")
		}
		if fac.OutstandingAmount != "" {
			sv.checkVar(errs, prefix+".outstandingAmount", fac.OutstandingAmount, "decimal_amount")
			if limitOK && !decimalLTE(fac.OutstandingAmount, fac.LimitAmount) {
				errs[prefix+".outstandingAmount"] = "cannot exceed the facility limit"
			}
		}
		if fac.MonthlyInstallment != "" {
			sv.checkVar(errs, prefix+".monthlyInstallment", fac.MonthlyInstallment, "decimal_amount")
		}
	}
}

func (sv *StepValidatorImpl) validateNominee(state *models.DraftState, errs map[string]string) {
	rec := state.Nominee
	if rec == nil {
		rec = &models.NomineeData{}
	}
	requireString(errs, "fullName", rec.FullName)
	requireString(errs, "relationship", rec.Relationship)
	// A nominee may be a minor, so only the date format is checked.
	if dob, ok := requireString(errs, "dateOfBirth", rec.DateOfBirth); ok {
		sv.checkVar(errs, "dateOfBirth", dob, "date_ymd")
	}
	if share, ok := requireString(errs, "sharePercent", rec.SharePercent); ok {
		sv.checkVar(errs, "sharePercent", share, "decimal_percent")
		if d, err := decimal.NewFromString(share); err == nil && !d.IsPositive() {
			errs["sharePercent"] = "must be greater than zero"
		}
	}
	if mobile, ok := optionalString(rec.MobileNumber); ok {
		sv.checkVar(errs, "mobileNumber", mobile, "bd_mobile")
	}
	if nid, ok := optionalString(rec.NationalID); ok {
		sv.checkVar(errs, "nationalId", nid, "bd_nid")
	}
}

func (sv *StepValidatorImpl) validateSupplementaryCard(state *models.DraftState, errs map[string]string) {
	// With the gate off the record is inert; whatever it holds is kept for a
	// later re-enable but never validated.
	if !state.HasSupplementaryCard {
		return
	}
	rec := state.SupplementaryCard
	if rec == nil {
		rec = &models.SupplementaryCardData{}
	}
	requireString(errs, "fullName", rec.FullName)
	if rel, ok := requireString(errs, "relationship", rec.Relationship); ok {
		sv.checkVar(errs, "relationship", rel, "oneof=SPOUSE PARENT SIBLING CHILD")
	}
	if dob, ok := requireString(errs, "dateOfBirth", rec.DateOfBirth); ok {
		sv.checkVar(errs, "dateOfBirth", dob, "date_ymd,adult_18")
	}
	if nid, ok := requireString(errs, "nationalId", rec.NationalID); ok {
		sv.checkVar(errs, "nationalId", nid, "bd_nid")
	}
	if mobile, ok := optionalString(rec.MobileNumber); ok {
		sv.checkVar(errs, "mobileNumber", mobile, "bd_mobile")
	}
	if limit, ok := optionalString(rec.SpendingLimitPercent); ok {
		sv.checkVar(errs, "spendingLimitPercent", limit, "decimal_percent")
	}
}

func (sv *StepValidatorImpl) validateReferences(state *models.DraftState, errs map[string]string) {
	rec := state.References
	if rec == nil {
		rec = &models.ReferencesData{}
	}
	if len(rec.Referees) < MinReferences {
		errs["referees"] = fmt.Sprintf("at least %d references are required", MinReferences)
	}
	for i, ref := range rec.Referees {
		prefix := fmt.Sprintf("referees[%d]", i)
		requireNonBlank(errs, prefix+".fullName", ref.FullName)
		requireNonBlank(errs, prefix+".relationship", ref.Relationship)
		if requireNonBlank(errs, prefix+".mobileNumber", ref.MobileNumber) {
			sv.checkVar(errs, prefix+".mobileNumber", ref.MobileNumber, "bd_mobile")
		}
	}
}

func (sv *StepValidatorImpl) validateImageSignature(state *models.DraftState, errs map[string]string) {
	rec := state.ImageSignature
	if rec == nil {
		rec = &models.ImageSignatureData{}
	}
	requireString(errs, "photoUrl", rec.PhotoURL)
	requireString(errs, "signatureUrl", rec.SignatureURL)
	requireString(errs, "nidFrontUrl", rec.NIDFrontURL)
	requireString(errs, "nidBackUrl", rec.NIDBackURL)
}

func (sv *StepValidatorImpl) validateAutoDebit(state *models.DraftState, errs map[string]string) {
	rec := state.AutoDebit
	if rec == nil {
		rec = &models.AutoDebitData{}
	}
	if rec.Enabled == nil {
		errs["enabled"] = msgRequired
		return
	}
	if !*rec.Enabled {
		return
	}
	if opt, ok := requireString(errs, "paymentOption", rec.PaymentOption); ok {
		sv.checkVar(errs, "paymentOption", opt, "oneof=MINIMUM_DUE FULL_OUTSTANDING")
	}
	requireString(errs, "accountHolderName", rec.AccountHolderName)
	if acct, ok := requireString(errs, "accountNumber", rec.AccountNumber); ok {
		sv.checkVar(errs, "accountNumber", acct, "digits,min=10,max=20")
	}
	requireString(errs, "bankName", rec.BankName)
}

func (sv *StepValidatorImpl) validateDeclarations(state *models.DraftState, errs map[string]string) {
	rec := state.Declarations
	if rec == nil {
		rec = &models.DeclarationsData{}
	}
	answered := make(map[string]bool, len(rec.Declarations))
	for _, decl := range rec.Declarations {
		if decl.Answer != nil {
			answered[decl.Code] = true
		}
	}
	for _, code := range models.DeclarationCodes() {
		if !answered[code] {
			errs["declarations."+code] = "must be answered"
		}
	}
	for _, item := range rec.Checklist {
		if item.Required && !item.Uploaded {
			errs["checklist."+item.Code] = "required document is not uploaded"
		}
	}
}

// checkVar runs the rule chain over a single value and records the first
// failing rule's message under the given field key. Keys already holding an
// error are left alone so required beats format.
func (sv *StepValidatorImpl) checkVar(errs map[string]string, field string, value any, rules string) {
	if _, taken := errs[field]; taken {
		return
	}
	err := sv.validate.Var(value, rules)
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		errs[field] = ruleMessage(verrs[0])
		return
	}
	errs[field] = "is invalid"
}

// requireString records a required error for absent or blank pointer values
// and returns the trimmed value with a presence flag.
func requireString(errs map[string]string, field string, val *string) (string, bool) {
	if val == nil || strings.TrimSpace(*val) == "" {
		errs[field] = msgRequired
		return "", false
	}
	return strings.TrimSpace(*val), true
}

// requireNonBlank is the non-pointer variant used for repeatable row fields.
func requireNonBlank(errs map[string]string, field, val string) bool {
	if strings.TrimSpace(val) == "" {
		errs[field] = msgRequired
		return false
	}
	return true
}

func optionalString(val *string) (string, bool) {
	if val == nil || strings.TrimSpace(*val) == "" {
		return "", false
	}
	return strings.TrimSpace(*val), true
}

// decimalLTE reports a <= b. Unparseable operands yield true; format errors
// are reported through the decimal_amount rule, not here.
func decimalLTE(a, b string) bool {
	da, errA := decimal.NewFromString(a)
	db, errB := decimal.NewFromString(b)
	if errA != nil || errB != nil {
		return true
	}
	return da.LessThanOrEqual(db)
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return msgRequired
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters long", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters long", fe.Param())
	case "bd_mobile":
		return "must be an 11 digit mobile number starting with 01"
	case "bd_nid":
		return "must be a 10, 13 or 17 digit national ID number"
	case "bd_postcode":
		return "must be a 4 digit postcode"
	case "bd_tin":
		return "must be a 12 digit TIN"
	case "digits":
		return "must contain digits only"
	case "decimal_amount":
		return "must be a non-negative decimal amount"
	case "decimal_percent":
		return "must be a percentage between 0 and 100"
	case "date_ymd":
		return "must be a date in YYYY-MM-DD format"
	case "adult_18":
		return fmt.Sprintf("must be at least %d years before today", AdultAge)
	case "emboss_name":
		return "may only contain letters, spaces, dots and hyphens"
	default:
		return "is invalid"
	}
}
