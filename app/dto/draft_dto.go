package dto

import (
	"encoding/json"
	"time"
)

// SaveStepRequest records one step save. Data holds the step's sub-record as
// the client last rendered it; BaseVersion is the step version the client
// based its edit on. Autosaves may omit it and are accepted unconditionally.
type SaveStepRequest struct {
	StepNumber  *int            `json:"stepNumber" validate:"required,min=0,max=12"`
	BaseVersion *int            `json:"baseVersion" validate:"omitempty,min=0"`
	Data        json.RawMessage `json:"data" validate:"required"`
}

// StepValidationDTO is the advisory validation verdict attached to saves.
// Field errors are keyed by the JSON path inside the step record.
type StepValidationDTO struct {
	OK          bool              `json:"ok"`
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
}

// SaveStepResponse represents an accepted step save
type SaveStepResponse struct {
	Message    string            `json:"message"`
	StepNumber int               `json:"stepNumber"`
	StepName   string            `json:"stepName"`
	Version    int               `json:"version"`
	IsComplete bool              `json:"isComplete"`
	SavedAt    time.Time         `json:"savedAt"`
	Validation StepValidationDTO `json:"validation"`
}

// SaveConflictDTO rides the error detail of a version-conflict rejection so
// the client can rebase onto the authoritative copy.
type SaveConflictDTO struct {
	StepNumber     int             `json:"stepNumber"`
	CurrentVersion int             `json:"currentVersion"`
	ServerData     json.RawMessage `json:"serverData,omitempty"`
}

// StepInfoDTO describes one wizard step with its save metadata
type StepInfoDTO struct {
	Number     int    `json:"number"`
	Name       string `json:"name"`
	Title      string `json:"title"`
	Optional   bool   `json:"optional"`
	Version    int    `json:"version"`
	Touched    bool   `json:"touched"`
	IsComplete bool   `json:"isComplete"`
}

// DraftResponse is the full draft view used to rehydrate the form.
// RecoveredFromCache is set when the cache mirror carried newer saves than
// the database and the view was reconciled.
type DraftResponse struct {
	ApplicationUUID      string          `json:"applicationUuid"`
	Mode                 string          `json:"mode"`
	Status               string          `json:"status"`
	CurrentStep          int             `json:"currentStep"`
	HighestReachableStep int             `json:"highestReachableStep"`
	CanSubmit            bool            `json:"canSubmit"`
	State                json.RawMessage `json:"state"`
	Steps                []StepInfoDTO   `json:"steps"`
	RecoveredFromCache   bool            `json:"recoveredFromCache,omitempty"`
}

// BankAccountPayload is one row of the repeatable bank accounts section.
// Omitting the ID on add lets the server assign one.
type BankAccountPayload struct {
	ID            string `json:"id" validate:"omitempty,uuid4"`
	BankName      string `json:"bankName" validate:"required,max=120"`
	BranchName    string `json:"branchName" validate:"omitempty,max=120"`
	AccountNumber string `json:"accountNumber" validate:"required,digits,min=10,max=20"`
	AccountType   string `json:"accountType" validate:"required,oneof=SAVINGS CURRENT"`
}

// CreditFacilityPayload is one row of the repeatable credit facilities section
type CreditFacilityPayload struct {
	ID                 string `json:"id" validate:"omitempty,uuid4"`
	InstitutionName    string `json:"institutionName" validate:"required,max=160"`
	FacilityType       string `json:"facilityType" validate:"required,oneof=CREDIT_CARD LOAN OVERDRAFT"`
	LimitAmount        string `json:"limitAmount" validate:"required,decimal_amount"`
	OutstandingAmount  string `json:"outstandingAmount" validate:"omitempty,decimal_amount"`
	MonthlyInstallment string `json:"monthlyInstallment" validate:"omitempty,decimal_amount"`
}

// ReferencePayload is one row of the references section
type ReferencePayload struct {
	ID           string `json:"id" validate:"omitempty,uuid4"`
	FullName     string `json:"fullName" validate:"required,max=255"`
	Relationship string `json:"relationship" validate:"required,max=64"`
	MobileNumber string `json:"mobileNumber" validate:"required,bd_mobile"`
	Address      string `json:"address" validate:"omitempty,max=500"`
}

// SupplementaryToggleRequest flips the supplementary card gate
type SupplementaryToggleRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// AcceptanceRequest records the submission-gate consents; a nil flag leaves
// the stored value untouched
type AcceptanceRequest struct {
	TermsAccepted       *bool `json:"termsAccepted"`
	DeclarationAccepted *bool `json:"declarationAccepted"`
}

// DiscardDraftResponse represents a discarded draft
type DiscardDraftResponse struct {
	Message         string `json:"message"`
	ApplicationUUID string `json:"applicationUuid"`
}
