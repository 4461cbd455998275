package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// AddressData is a nested address block. Nested blocks are merge units of
// their own: providing one replaces the stored block wholesale.
type AddressData struct {
	Line1    *string `json:"line1,omitempty"`
	Line2    *string `json:"line2,omitempty"`
	City     *string `json:"city,omitempty"`
	District *string `json:"district,omitempty"`
	PostCode *string `json:"postCode,omitempty"`
}

// PreApplicationData is the step-0 record. OTPVerified is owned by the OTP
// flow and never merged from client payloads.
type PreApplicationData struct {
	MobileNumber *string `json:"mobileNumber,omitempty"`
	NationalID   *string `json:"nationalId,omitempty"`
	OTPVerified  bool    `json:"otpVerified"`
}

type CardSelectionData struct {
	ProductCode    *string `json:"productCode,omitempty"`
	Network        *string `json:"network,omitempty"`
	Tier           *string `json:"tier,omitempty"`
	CardholderName *string `json:"cardholderName,omitempty"`
}

type PersonalInfoData struct {
	FirstName        *string      `json:"firstName,omitempty"`
	LastName         *string      `json:"lastName,omitempty"`
	FatherName       *string      `json:"fatherName,omitempty"`
	MotherName       *string      `json:"motherName,omitempty"`
	SpouseName       *string      `json:"spouseName,omitempty"`
	Gender           *string      `json:"gender,omitempty"`
	DateOfBirth      *string      `json:"dateOfBirth,omitempty"`
	PlaceOfBirth     *string      `json:"placeOfBirth,omitempty"`
	MaritalStatus    *string      `json:"maritalStatus,omitempty"`
	Nationality      *string      `json:"nationality,omitempty"`
	Education        *string      `json:"education,omitempty"`
	Email            *string      `json:"email,omitempty"`
	PresentAddress   *AddressData `json:"presentAddress,omitempty"`
	PermanentAddress *AddressData `json:"permanentAddress,omitempty"`
}

type ProfessionalInfoData struct {
	Occupation       *string      `json:"occupation,omitempty"`
	OrganizationName *string      `json:"organizationName,omitempty"`
	Designation      *string      `json:"designation,omitempty"`
	Department       *string      `json:"department,omitempty"`
	YearsInService   *string      `json:"yearsInService,omitempty"`
	OfficePhone      *string      `json:"officePhone,omitempty"`
	TIN              *string      `json:"tin,omitempty"`
	OfficeAddress    *AddressData `json:"officeAddress,omitempty"`
}

// SalariedIncomeData and BusinessIncomeData are mutually exclusive branches
// of the monthly income record; the IsSalaried flag selects which one must be
// present. All amounts are decimal strings.
type SalariedIncomeData struct {
	GrossMonthlyIncome *string `json:"grossMonthlyIncome,omitempty"`
	NetMonthlyIncome   *string `json:"netMonthlyIncome,omitempty"`
	OtherIncome        *string `json:"otherIncome,omitempty"`
	OtherIncomeSource  *string `json:"otherIncomeSource,omitempty"`
}

type BusinessIncomeData struct {
	NatureOfBusiness *string `json:"natureOfBusiness,omitempty"`
	MonthlyIncome    *string `json:"monthlyIncome,omitempty"`
	YearsInBusiness  *string `json:"yearsInBusiness,omitempty"`
}

type MonthlyIncomeData struct {
	IsSalaried     *bool               `json:"isSalaried,omitempty"`
	SalariedIncome *SalariedIncomeData `json:"salariedIncome,omitempty"`
	BusinessIncome *BusinessIncomeData `json:"businessIncome,omitempty"`
}

// BankAccountEntry is one row of the repeatable bank accounts section. The ID
// is a client-generated stable identifier (UUID string); row-level update and
// remove operate on it.
type BankAccountEntry struct {
	ID            string `json:"id"`
	BankName      string `json:"bankName"`
	BranchName    string `json:"branchName"`
	AccountNumber string `json:"accountNumber"`
	AccountType   string `json:"accountType"`
}

type BankAccountsData struct {
	Accounts []BankAccountEntry `json:"accounts"`
}

type CreditFacilityEntry struct {
	ID                 string `json:"id"`
	InstitutionName    string `json:"institutionName"`
	FacilityType       string `json:"facilityType"`
	LimitAmount        string `json:"limitAmount"`
	OutstandingAmount  string `json:"outstandingAmount"`
	MonthlyInstallment string `json:"monthlyInstallment"`
}

type CreditFacilitiesData struct {
	Facilities []CreditFacilityEntry `json:"facilities"`
}

type NomineeData struct {
	FullName     *string      `json:"fullName,omitempty"`
	Relationship *string      `json:"relationship,omitempty"`
	DateOfBirth  *string      `json:"dateOfBirth,omitempty"`
	MobileNumber *string      `json:"mobileNumber,omitempty"`
	NationalID   *string      `json:"nationalId,omitempty"`
	SharePercent *string      `json:"sharePercent,omitempty"`
	Address      *AddressData `json:"address,omitempty"`
}

type SupplementaryCardData struct {
	FullName             *string `json:"fullName,omitempty"`
	Relationship         *string `json:"relationship,omitempty"`
	DateOfBirth          *string `json:"dateOfBirth,omitempty"`
	NationalID           *string `json:"nationalId,omitempty"`
	MobileNumber         *string `json:"mobileNumber,omitempty"`
	SpendingLimitPercent *string `json:"spendingLimitPercent,omitempty"`
}

type ReferenceEntry struct {
	ID           string `json:"id"`
	FullName     string `json:"fullName"`
	Relationship string `json:"relationship"`
	MobileNumber string `json:"mobileNumber"`
	Address      string `json:"address"`
}

type ReferencesData struct {
	Referees []ReferenceEntry `json:"referees"`
}

// ImageSignatureData holds opaque URLs produced by the upload pipeline; this
// service never touches the blobs themselves.
type ImageSignatureData struct {
	PhotoURL     *string `json:"photoUrl,omitempty"`
	SignatureURL *string `json:"signatureUrl,omitempty"`
	NIDFrontURL  *string `json:"nidFrontUrl,omitempty"`
	NIDBackURL   *string `json:"nidBackUrl,omitempty"`
}

type AutoDebitData struct {
	Enabled           *bool   `json:"enabled,omitempty"`
	PaymentOption     *string `json:"paymentOption,omitempty"`
	AccountHolderName *string `json:"accountHolderName,omitempty"`
	AccountNumber     *string `json:"accountNumber,omitempty"`
	BankName          *string `json:"bankName,omitempty"`
	BranchName        *string `json:"branchName,omitempty"`
}

// DeclarationAnswer: Answer nil means unanswered; false is a valid answer.
type DeclarationAnswer struct {
	Code    string  `json:"code"`
	Answer  *bool   `json:"answer"`
	Remarks *string `json:"remarks,omitempty"`
}

type ChecklistItem struct {
	Code        string  `json:"code"`
	Required    bool    `json:"required"`
	Uploaded    bool    `json:"uploaded"`
	DocumentURL *string `json:"documentUrl,omitempty"`
}

type DeclarationsData struct {
	Declarations []DeclarationAnswer `json:"declarations"`
	Checklist    []ChecklistItem     `json:"checklist"`
}

// DraftState is the application draft aggregate stored as jsonb. Each step
// owns one typed sub-record; nil means the applicant has not touched the step
// yet, which is distinct from a present-but-empty record. All changes go
// through the named Apply/Set operations below; nothing outside this type
// writes its fields.
type DraftState struct {
	HasSupplementaryCard bool `json:"hasSupplementaryCard"`
	TermsAccepted        bool `json:"termsAccepted"`
	DeclarationAccepted  bool `json:"declarationAccepted"`

	PreApplication    *PreApplicationData    `json:"preApplication,omitempty"`
	CardSelection     *CardSelectionData     `json:"cardSelection,omitempty"`
	PersonalInfo      *PersonalInfoData      `json:"personalInfo,omitempty"`
	ProfessionalInfo  *ProfessionalInfoData  `json:"professionalInfo,omitempty"`
	MonthlyIncome     *MonthlyIncomeData     `json:"monthlyIncome,omitempty"`
	BankAccounts      *BankAccountsData      `json:"bankAccounts,omitempty"`
	CreditFacilities  *CreditFacilitiesData  `json:"creditFacilities,omitempty"`
	Nominee           *NomineeData           `json:"nominee,omitempty"`
	SupplementaryCard *SupplementaryCardData `json:"supplementaryCard,omitempty"`
	References        *ReferencesData        `json:"references,omitempty"`
	ImageSignature    *ImageSignatureData    `json:"imageSignature,omitempty"`
	AutoDebit         *AutoDebitData         `json:"autoDebit,omitempty"`
	Declarations      *DeclarationsData      `json:"declarations,omitempty"`
}

// Value implements the driver.Valuer interface for DraftState
func (s DraftState) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements the sql.Scanner interface for DraftState
func (s *DraftState) Scan(value any) error {
	if value == nil {
		*s = DraftState{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into DraftState", value)
	}

	return json.Unmarshal(bytes, s)
}

// ApplyStep decodes a raw step payload and merges it into the record owned by
// the named step. Unknown step names are rejected; decode failures never leave
// a half-applied record behind.
func (s *DraftState) ApplyStep(name string, raw []byte) error {
	switch name {
	case StepPreApplication:
		var in PreApplicationData
		if err := json.Unmarshal(raw, &in); err != nil {
			return fmt.Errorf("decode %s payload: %w", name, err)
		}
		s.ApplyPreApplication(in)
	case StepCardSelection:
		var in CardSelectionData
		if err := json.Unmarshal(raw, &in); err != nil {
			return fmt.Errorf("decode %s payload: %w", name, err)
		}
		s.ApplyCardSelection(in)
	case StepPersonalInfo:
		var in PersonalInfoData
		if err := json.Unmarshal(raw, &in); err != nil {
			return fmt.Errorf("decode %s payload: %w", name, err)
		}
		s.ApplyPersonalInfo(in)
	case StepProfessionalInfo:
		var in ProfessionalInfoData
		if err := json.Unmarshal(raw, &in); err != nil {
			return fmt.Errorf("decode %s payload: %w", name, err)
		}
		s.ApplyProfessionalInfo(in)
	case StepMonthlyIncome:
		var in MonthlyIncomeData
		if err := json.Unmarshal(raw, &in); err != nil {
			return fmt.Errorf("decode %s payload: %w", name, err)
		}
		s.ApplyMonthlyIncome(in)
	case StepBankAccounts:
		var in BankAccountsData
		if err := json.Unmarshal(raw, &in); err != nil {
			return fmt.Errorf("decode %s payload: %w", name, err)
		}
		s.ApplyBankAccounts(in)
	case StepCreditFacilities:
		var in CreditFacilitiesData
		if err := json.Unmarshal(raw, &in); err != nil {
			return fmt.Errorf("decode %s payload: %w", name, err)
		}
		s.ApplyCreditFacilities(in)
	case StepNominee:
		var in NomineeData
		if err := json.Unmarshal(raw, &in); err != nil {
			return fmt.Errorf("decode %s payload: %w", name, err)
		}
		s.ApplyNominee(in)
	case StepSupplementaryCard:
		var in SupplementaryCardData
		if err := json.Unmarshal(raw, &in); err != nil {
			return fmt.Errorf("decode %s payload: %w", name, err)
		}
		s.ApplySupplementaryCard(in)
	case StepReferences:
		var in ReferencesData
		if err := json.Unmarshal(raw, &in); err != nil {
			return fmt.Errorf("decode %s payload: %w", name, err)
		}
		s.ApplyReferences(in)
	case StepImageSignature:
		var in ImageSignatureData
		if err := json.Unmarshal(raw, &in); err != nil {
			return fmt.Errorf("decode %s payload: %w", name, err)
		}
		s.ApplyImageSignature(in)
	case StepAutoDebit:
		var in AutoDebitData
		if err := json.Unmarshal(raw, &in); err != nil {
			return fmt.Errorf("decode %s payload: %w", name, err)
		}
		s.ApplyAutoDebit(in)
	case StepMIDDeclarations:
		var in DeclarationsData
		if err := json.Unmarshal(raw, &in); err != nil {
			return fmt.Errorf("decode %s payload: %w", name, err)
		}
		s.ApplyDeclarations(in)
	default:
		return fmt.Errorf("unknown step %q", name)
	}
	return nil
}

// ApplyPreApplication merges mobile and NID. The OTPVerified flag is not a
// mergeable field; see MarkOTPVerified.
func (s *DraftState) ApplyPreApplication(in PreApplicationData) {
	if s.PreApplication == nil {
		s.PreApplication = &PreApplicationData{}
	}
	rec := s.PreApplication
	if in.MobileNumber != nil {
		rec.MobileNumber = in.MobileNumber
	}
	if in.NationalID != nil {
		rec.NationalID = in.NationalID
	}
}

// MarkOTPVerified records a successful OTP verification on the step-0 record.
func (s *DraftState) MarkOTPVerified() {
	if s.PreApplication == nil {
		s.PreApplication = &PreApplicationData{}
	}
	s.PreApplication.OTPVerified = true
}

func (s *DraftState) ApplyCardSelection(in CardSelectionData) {
	if s.CardSelection == nil {
		s.CardSelection = &CardSelectionData{}
	}
	rec := s.CardSelection
	if in.ProductCode != nil {
		rec.ProductCode = in.ProductCode
	}
	if in.Network != nil {
		rec.Network = in.Network
	}
	if in.Tier != nil {
		rec.Tier = in.Tier
	}
	if in.CardholderName != nil {
		rec.CardholderName = in.CardholderName
	}
}

func (s *DraftState) ApplyPersonalInfo(in PersonalInfoData) {
	if s.PersonalInfo == nil {
		s.PersonalInfo = &PersonalInfoData{}
	}
	rec := s.PersonalInfo
	if in.FirstName != nil {
		rec.FirstName = in.FirstName
	}
	if in.LastName != nil {
		rec.LastName = in.LastName
	}
	if in.FatherName != nil {
		rec.FatherName = in.FatherName
	}
	if in.MotherName != nil {
		rec.MotherName = in.MotherName
	}
	if in.SpouseName != nil {
		rec.SpouseName = in.SpouseName
	}
	if in.Gender != nil {
		rec.Gender = in.Gender
	}
	if in.DateOfBirth != nil {
		rec.DateOfBirth = in.DateOfBirth
	}
	if in.PlaceOfBirth != nil {
		rec.PlaceOfBirth = in.PlaceOfBirth
	}
	if in.MaritalStatus != nil {
		rec.MaritalStatus = in.MaritalStatus
	}
	if in.Nationality != nil {
		rec.Nationality = in.Nationality
	}
	if in.Education != nil {
		rec.Education = in.Education
	}
	if in.Email != nil {
		rec.Email = in.Email
	}
	if in.PresentAddress != nil {
		rec.PresentAddress = in.PresentAddress
	}
	if in.PermanentAddress != nil {
		rec.PermanentAddress = in.PermanentAddress
	}
}

func (s *DraftState) ApplyProfessionalInfo(in ProfessionalInfoData) {
	if s.ProfessionalInfo == nil {
		s.ProfessionalInfo = &ProfessionalInfoData{}
	}
	rec := s.ProfessionalInfo
	if in.Occupation != nil {
		rec.Occupation = in.Occupation
	}
	if in.OrganizationName != nil {
		rec.OrganizationName = in.OrganizationName
	}
	if in.Designation != nil {
		rec.Designation = in.Designation
	}
	if in.Department != nil {
		rec.Department = in.Department
	}
	if in.YearsInService != nil {
		rec.YearsInService = in.YearsInService
	}
	if in.OfficePhone != nil {
		rec.OfficePhone = in.OfficePhone
	}
	if in.TIN != nil {
		rec.TIN = in.TIN
	}
	if in.OfficeAddress != nil {
		rec.OfficeAddress = in.OfficeAddress
	}
}

func (s *DraftState) ApplyMonthlyIncome(in MonthlyIncomeData) {
	if s.MonthlyIncome == nil {
		s.MonthlyIncome = &MonthlyIncomeData{}
	}
	rec := s.MonthlyIncome
	if in.IsSalaried != nil {
		rec.IsSalaried = in.IsSalaried
	}
	if in.SalariedIncome != nil {
		rec.SalariedIncome = in.SalariedIncome
	}
	if in.BusinessIncome != nil {
		rec.BusinessIncome = in.BusinessIncome
	}
	// Exactly one branch lives at a time; toggling discards the other side.
	if rec.IsSalaried != nil {
		if *rec.IsSalaried {
			rec.BusinessIncome = nil
		} else {
			rec.SalariedIncome = nil
		}
	}
}

func (s *DraftState) ApplyBankAccounts(in BankAccountsData) {
	if s.BankAccounts == nil {
		s.BankAccounts = &BankAccountsData{}
	}
	if in.Accounts != nil {
		s.BankAccounts.Accounts = in.Accounts
	}
}

func (s *DraftState) ApplyCreditFacilities(in CreditFacilitiesData) {
	if s.CreditFacilities == nil {
		s.CreditFacilities = &CreditFacilitiesData{}
	}
	if in.Facilities != nil {
		s.CreditFacilities.Facilities = in.Facilities
	}
}

func (s *DraftState) ApplyNominee(in NomineeData) {
	if s.Nominee == nil {
		s.Nominee = &NomineeData{}
	}
	rec := s.Nominee
	if in.FullName != nil {
		rec.FullName = in.FullName
	}
	if in.Relationship != nil {
		rec.Relationship = in.Relationship
	}
	if in.DateOfBirth != nil {
		rec.DateOfBirth = in.DateOfBirth
	}
	if in.MobileNumber != nil {
		rec.MobileNumber = in.MobileNumber
	}
	if in.NationalID != nil {
		rec.NationalID = in.NationalID
	}
	if in.SharePercent != nil {
		rec.SharePercent = in.SharePercent
	}
	if in.Address != nil {
		rec.Address = in.Address
	}
}

// ApplySupplementaryCard merges into the supplementary record only while the
// HasSupplementaryCard gate is on; payloads arriving with the gate off are
// dropped so the record stays absent.
func (s *DraftState) ApplySupplementaryCard(in SupplementaryCardData) {
	if !s.HasSupplementaryCard {
		return
	}
	if s.SupplementaryCard == nil {
		s.SupplementaryCard = &SupplementaryCardData{}
	}
	rec := s.SupplementaryCard
	if in.FullName != nil {
		rec.FullName = in.FullName
	}
	if in.Relationship != nil {
		rec.Relationship = in.Relationship
	}
	if in.DateOfBirth != nil {
		rec.DateOfBirth = in.DateOfBirth
	}
	if in.NationalID != nil {
		rec.NationalID = in.NationalID
	}
	if in.MobileNumber != nil {
		rec.MobileNumber = in.MobileNumber
	}
	if in.SpendingLimitPercent != nil {
		rec.SpendingLimitPercent = in.SpendingLimitPercent
	}
}

func (s *DraftState) ApplyReferences(in ReferencesData) {
	if s.References == nil {
		s.References = &ReferencesData{}
	}
	if in.Referees != nil {
		s.References.Referees = in.Referees
	}
}

func (s *DraftState) ApplyImageSignature(in ImageSignatureData) {
	if s.ImageSignature == nil {
		s.ImageSignature = &ImageSignatureData{}
	}
	rec := s.ImageSignature
	if in.PhotoURL != nil {
		rec.PhotoURL = in.PhotoURL
	}
	if in.SignatureURL != nil {
		rec.SignatureURL = in.SignatureURL
	}
	if in.NIDFrontURL != nil {
		rec.NIDFrontURL = in.NIDFrontURL
	}
	if in.NIDBackURL != nil {
		rec.NIDBackURL = in.NIDBackURL
	}
}

func (s *DraftState) ApplyAutoDebit(in AutoDebitData) {
	if s.AutoDebit == nil {
		s.AutoDebit = &AutoDebitData{}
	}
	rec := s.AutoDebit
	if in.Enabled != nil {
		rec.Enabled = in.Enabled
	}
	if in.PaymentOption != nil {
		rec.PaymentOption = in.PaymentOption
	}
	if in.AccountHolderName != nil {
		rec.AccountHolderName = in.AccountHolderName
	}
	if in.AccountNumber != nil {
		rec.AccountNumber = in.AccountNumber
	}
	if in.BankName != nil {
		rec.BankName = in.BankName
	}
	if in.BranchName != nil {
		rec.BranchName = in.BranchName
	}
}

func (s *DraftState) ApplyDeclarations(in DeclarationsData) {
	if s.Declarations == nil {
		s.Declarations = &DeclarationsData{}
	}
	rec := s.Declarations
	if in.Declarations != nil {
		rec.Declarations = in.Declarations
	}
	if in.Checklist != nil {
		rec.Checklist = in.Checklist
	}
}

// AddBankAccount appends a row to the bank accounts section.
func (s *DraftState) AddBankAccount(entry BankAccountEntry) {
	if s.BankAccounts == nil {
		s.BankAccounts = &BankAccountsData{}
	}
	s.BankAccounts.Accounts = append(s.BankAccounts.Accounts, entry)
}

// UpdateBankAccount replaces the row whose ID matches entry.ID. Returns false
// when no such row exists.
func (s *DraftState) UpdateBankAccount(entry BankAccountEntry) bool {
	if s.BankAccounts == nil {
		return false
	}
	for i := range s.BankAccounts.Accounts {
		if s.BankAccounts.Accounts[i].ID == entry.ID {
			s.BankAccounts.Accounts[i] = entry
			return true
		}
	}
	return false
}

// RemoveBankAccount deletes the row with the given ID. Returns false when no
// such row exists.
func (s *DraftState) RemoveBankAccount(id string) bool {
	if s.BankAccounts == nil {
		return false
	}
	for i := range s.BankAccounts.Accounts {
		if s.BankAccounts.Accounts[i].ID == id {
			s.BankAccounts.Accounts = append(s.BankAccounts.Accounts[:i], s.BankAccounts.Accounts[i+1:]...)
			return true
		}
	}
	return false
}

// AddCreditFacility appends a row to the credit facilities section.
func (s *DraftState) AddCreditFacility(entry CreditFacilityEntry) {
	if s.CreditFacilities == nil {
		s.CreditFacilities = &CreditFacilitiesData{}
	}
	s.CreditFacilities.Facilities = append(s.CreditFacilities.Facilities, entry)
}

// UpdateCreditFacility replaces the row whose ID matches entry.ID.
func (s *DraftState) UpdateCreditFacility(entry CreditFacilityEntry) bool {
	if s.CreditFacilities == nil {
		return false
	}
	for i := range s.CreditFacilities.Facilities {
		if s.CreditFacilities.Facilities[i].ID == entry.ID {
			s.CreditFacilities.Facilities[i] = entry
			return true
		}
	}
	return false
}

// RemoveCreditFacility deletes the row with the given ID.
func (s *DraftState) RemoveCreditFacility(id string) bool {
	if s.CreditFacilities == nil {
		return false
	}
	for i := range s.CreditFacilities.Facilities {
		if s.CreditFacilities.Facilities[i].ID == id {
			s.CreditFacilities.Facilities = append(s.CreditFacilities.Facilities[:i], s.CreditFacilities.Facilities[i+1:]...)
			return true
		}
	}
	return false
}

// AddReference appends a row to the references section.
func (s *DraftState) AddReference(entry ReferenceEntry) {
	if s.References == nil {
		s.References = &ReferencesData{}
	}
	s.References.Referees = append(s.References.Referees, entry)
}

// UpdateReference replaces the row whose ID matches entry.ID.
func (s *DraftState) UpdateReference(entry ReferenceEntry) bool {
	if s.References == nil {
		return false
	}
	for i := range s.References.Referees {
		if s.References.Referees[i].ID == entry.ID {
			s.References.Referees[i] = entry
			return true
		}
	}
	return false
}

// RemoveReference deletes the row with the given ID.
func (s *DraftState) RemoveReference(id string) bool {
	if s.References == nil {
		return false
	}
	for i := range s.References.Referees {
		if s.References.Referees[i].ID == id {
			s.References.Referees = append(s.References.Referees[:i], s.References.Referees[i+1:]...)
			return true
		}
	}
	return false
}

// SetSupplementaryCard flips the supplementary gate. Turning it off discards
// the sub-record entirely; the record stays absent (not zeroed) until the
// applicant saves supplementary data again after re-enabling.
func (s *DraftState) SetSupplementaryCard(enabled bool) {
	s.HasSupplementaryCard = enabled
	if !enabled {
		s.SupplementaryCard = nil
	}
}

// SetAcceptance records the submission-gate flags; nil leaves a flag as is.
func (s *DraftState) SetAcceptance(terms, declaration *bool) {
	if terms != nil {
		s.TermsAccepted = *terms
	}
	if declaration != nil {
		s.DeclarationAccepted = *declaration
	}
}

// AdoptStep copies the named step's record wholesale from another draft
// state, along with any root flags that ride on that step. Reconciliation
// uses this when the other copy demonstrably carries a newer save; merging
// instead would resurrect fields the newer save cleared. Returns false for
// unknown names.
func (s *DraftState) AdoptStep(name string, from *DraftState) bool {
	if from == nil {
		return false
	}
	switch name {
	case StepPreApplication:
		s.PreApplication = from.PreApplication
	case StepCardSelection:
		s.CardSelection = from.CardSelection
	case StepPersonalInfo:
		s.PersonalInfo = from.PersonalInfo
	case StepProfessionalInfo:
		s.ProfessionalInfo = from.ProfessionalInfo
	case StepMonthlyIncome:
		s.MonthlyIncome = from.MonthlyIncome
	case StepBankAccounts:
		s.BankAccounts = from.BankAccounts
	case StepCreditFacilities:
		s.CreditFacilities = from.CreditFacilities
	case StepNominee:
		s.Nominee = from.Nominee
	case StepSupplementaryCard:
		s.SupplementaryCard = from.SupplementaryCard
		s.HasSupplementaryCard = from.HasSupplementaryCard
	case StepReferences:
		s.References = from.References
	case StepImageSignature:
		s.ImageSignature = from.ImageSignature
	case StepAutoDebit:
		s.AutoDebit = from.AutoDebit
	case StepMIDDeclarations:
		s.Declarations = from.Declarations
		s.TermsAccepted = from.TermsAccepted
		s.DeclarationAccepted = from.DeclarationAccepted
	default:
		return false
	}
	return true
}

// StepData returns the record owned by the named step (possibly a typed nil).
// The second result is false for unknown names.
func (s *DraftState) StepData(name string) (any, bool) {
	switch name {
	case StepPreApplication:
		return s.PreApplication, true
	case StepCardSelection:
		return s.CardSelection, true
	case StepPersonalInfo:
		return s.PersonalInfo, true
	case StepProfessionalInfo:
		return s.ProfessionalInfo, true
	case StepMonthlyIncome:
		return s.MonthlyIncome, true
	case StepBankAccounts:
		return s.BankAccounts, true
	case StepCreditFacilities:
		return s.CreditFacilities, true
	case StepNominee:
		return s.Nominee, true
	case StepSupplementaryCard:
		return s.SupplementaryCard, true
	case StepReferences:
		return s.References, true
	case StepImageSignature:
		return s.ImageSignature, true
	case StepAutoDebit:
		return s.AutoDebit, true
	case StepMIDDeclarations:
		return s.Declarations, true
	default:
		return nil, false
	}
}

// Touched reports whether the named step's record exists. Unknown names are
// untouched.
func (s *DraftState) Touched(name string) bool {
	switch name {
	case StepPreApplication:
		return s.PreApplication != nil
	case StepCardSelection:
		return s.CardSelection != nil
	case StepPersonalInfo:
		return s.PersonalInfo != nil
	case StepProfessionalInfo:
		return s.ProfessionalInfo != nil
	case StepMonthlyIncome:
		return s.MonthlyIncome != nil
	case StepBankAccounts:
		return s.BankAccounts != nil
	case StepCreditFacilities:
		return s.CreditFacilities != nil
	case StepNominee:
		return s.Nominee != nil
	case StepSupplementaryCard:
		return s.SupplementaryCard != nil
	case StepReferences:
		return s.References != nil
	case StepImageSignature:
		return s.ImageSignature != nil
	case StepAutoDebit:
		return s.AutoDebit != nil
	case StepMIDDeclarations:
		return s.Declarations != nil
	default:
		return false
	}
}

// OTPVerified reports the step-0 verification flag.
func (s *DraftState) OTPVerified() bool {
	return s.PreApplication != nil && s.PreApplication.OTPVerified
}
