package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/appform-bd/cardapply/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ApplicationMode distinguishes who drives the wizard. Immutable after
// creation.
type ApplicationMode string

const (
	// ApplicationModeSelf is the applicant filling the form alone; leaving
	// step 0 requires OTP verification.
	ApplicationModeSelf ApplicationMode = "SELF"
	// ApplicationModeAssisted is a branch staff member filling the form for a
	// walk-in applicant; the OTP gate is bypassed.
	ApplicationModeAssisted ApplicationMode = "ASSISTED"
)

// String returns the string representation of the mode
func (m ApplicationMode) String() string {
	return string(m)
}

// Valid checks if the mode is valid
func (m ApplicationMode) Valid() bool {
	return m == ApplicationModeSelf || m == ApplicationModeAssisted
}

// Scan implements the sql.Scanner interface for ApplicationMode
func (m *ApplicationMode) Scan(value any) error {
	if value == nil {
		*m = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*m = ApplicationMode(v)
	case []byte:
		*m = ApplicationMode(string(v))
	default:
		return fmt.Errorf("cannot scan %T into ApplicationMode", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for ApplicationMode
func (m ApplicationMode) Value() (driver.Value, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("invalid ApplicationMode: %s", m)
	}
	return string(m), nil
}

// ApplicationStatus represents where an application sits in its lifecycle.
// Ranks only ever increase, with a single sanctioned exception: the
// draft/pending_otp toggle while the applicant verifies their mobile number.
type ApplicationStatus string

const (
	ApplicationStatusDraft             ApplicationStatus = "draft"
	ApplicationStatusPendingOTP        ApplicationStatus = "pending_otp"
	ApplicationStatusSubmitted         ApplicationStatus = "submitted"
	ApplicationStatusUnderReview       ApplicationStatus = "under_review"
	ApplicationStatusDocumentsRequired ApplicationStatus = "documents_required"
	ApplicationStatusApproved          ApplicationStatus = "approved"
	ApplicationStatusRejected          ApplicationStatus = "rejected"
	ApplicationStatusCardIssued        ApplicationStatus = "card_issued"
)

// String returns the string representation of the status
func (s ApplicationStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationStatusDraft, ApplicationStatusPendingOTP,
		ApplicationStatusSubmitted, ApplicationStatusUnderReview,
		ApplicationStatusDocumentsRequired, ApplicationStatusApproved,
		ApplicationStatusRejected, ApplicationStatusCardIssued:
		return true
	default:
		return false
	}
}

// Rank orders statuses for the monotonicity check. draft and pending_otp
// share a rank because they toggle freely before verification.
func (s ApplicationStatus) Rank() int {
	switch s {
	case ApplicationStatusDraft, ApplicationStatusPendingOTP:
		return 0
	case ApplicationStatusSubmitted:
		return 1
	case ApplicationStatusUnderReview:
		return 2
	case ApplicationStatusDocumentsRequired:
		return 3
	case ApplicationStatusApproved:
		return 4
	case ApplicationStatusRejected:
		return 5
	case ApplicationStatusCardIssued:
		return 6
	default:
		return -1
	}
}

// IsTerminal reports whether no further transitions exist.
func (s ApplicationStatus) IsTerminal() bool {
	return s == ApplicationStatusRejected || s == ApplicationStatusCardIssued
}

// IsEditable reports whether the wizard may still change the draft.
func (s ApplicationStatus) IsEditable() bool {
	return s == ApplicationStatusDraft || s == ApplicationStatusPendingOTP
}

// Scan implements the sql.Scanner interface for ApplicationStatus
func (s *ApplicationStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = ApplicationStatus(v)
	case []byte:
		*s = ApplicationStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into ApplicationStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for ApplicationStatus
func (s ApplicationStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid ApplicationStatus: %s", s)
	}
	return string(s), nil
}

// CardApplication is a credit-card application draft and, after submission,
// the record the review desk works on. The step sub-records live in State
// (jsonb); per-step save versions live in application_steps.
type CardApplication struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	UUID         uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:uk_card_applications_uuid" json:"uuid"`
	Mode         ApplicationMode   `gorm:"type:varchar(16);not null" json:"mode"`
	Status       ApplicationStatus `gorm:"type:varchar(32);not null;default:'draft';index:idx_card_applications_status" json:"status"`
	CurrentStep  int               `gorm:"not null;default:0" json:"current_step"`
	MobileNumber *string           `gorm:"type:varchar(16);index:idx_card_applications_mobile" json:"mobile_number,omitempty"`
	NationalID   *string           `gorm:"type:varchar(32);index:idx_card_applications_nid" json:"national_id,omitempty"`
	State        DraftState        `gorm:"type:jsonb;not null" json:"state"`

	// Review trail
	ReviewedByID *uint      `gorm:"index:idx_card_applications_reviewed_by" json:"reviewed_by_id,omitempty"`
	ReviewerNote *string    `gorm:"type:text" json:"reviewer_note,omitempty"`
	DecidedAt    *time.Time `json:"decided_at,omitempty"`

	CreatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_card_applications_created_at" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_card_applications_updated_at" json:"updated_at"`
	SubmittedAt *time.Time `gorm:"index:idx_card_applications_submitted_at" json:"submitted_at,omitempty"`

	// Relations
	ReviewedBy *StaffUser `gorm:"foreignKey:ReviewedByID;references:ID" json:"reviewed_by,omitempty"`
}

// TableName returns the table name for the model
func (CardApplication) TableName() string {
	return "card_applications"
}

// BeforeCreate is called before creating a new record
func (a *CardApplication) BeforeCreate(tx *gorm.DB) error {
	if a.UUID == uuid.Nil {
		a.UUID = uuid.New()
	}
	if a.Status == "" {
		a.Status = ApplicationStatusDraft
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = utils.UTCNow()
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = a.CreatedAt
	}
	return nil
}

// CanTransitionTo encodes the legal lifecycle edges. Rank never decreases,
// except the draft/pending_otp toggle.
func (a *CardApplication) CanTransitionTo(newStatus ApplicationStatus) bool {
	switch a.Status {
	case ApplicationStatusDraft:
		return newStatus == ApplicationStatusPendingOTP ||
			newStatus == ApplicationStatusSubmitted
	case ApplicationStatusPendingOTP:
		return newStatus == ApplicationStatusDraft
	case ApplicationStatusSubmitted:
		return newStatus == ApplicationStatusUnderReview
	case ApplicationStatusUnderReview:
		return newStatus == ApplicationStatusDocumentsRequired ||
			newStatus == ApplicationStatusApproved ||
			newStatus == ApplicationStatusRejected
	case ApplicationStatusDocumentsRequired:
		return newStatus == ApplicationStatusApproved ||
			newStatus == ApplicationStatusRejected
	case ApplicationStatusApproved:
		return newStatus == ApplicationStatusCardIssued
	default:
		return false
	}
}

// IsEditable reports whether draft content may still change.
func (a *CardApplication) IsEditable() bool {
	return a.Status.IsEditable()
}

// IsSubmitted reports whether the application has left the wizard.
func (a *CardApplication) IsSubmitted() bool {
	return a.Status.Rank() >= ApplicationStatusSubmitted.Rank()
}

// ApplicantName assembles a display name from the personal info record.
func (a *CardApplication) ApplicantName() string {
	pi := a.State.PersonalInfo
	if pi == nil {
		return ""
	}
	first := utils.Deref(pi.FirstName)
	last := utils.Deref(pi.LastName)
	switch {
	case first != "" && last != "":
		return first + " " + last
	case first != "":
		return first
	default:
		return last
	}
}

// CardApplicationFilter represents filter criteria for applications
type CardApplicationFilter struct {
	ID              *uint               `json:"id,omitempty"`
	UUID            *uuid.UUID          `json:"uuid,omitempty"`
	Mode            *ApplicationMode    `json:"mode,omitempty"`
	Status          *ApplicationStatus  `json:"status,omitempty"`
	Statuses        []ApplicationStatus `json:"statuses,omitempty"`
	MobileNumber    *string             `json:"mobile_number,omitempty"`
	NationalID      *string             `json:"national_id,omitempty"`
	ReviewedByID    *uint               `json:"reviewed_by_id,omitempty"`
	CreatedAfter    *time.Time          `json:"created_after,omitempty"`
	CreatedBefore   *time.Time          `json:"created_before,omitempty"`
	SubmittedAfter  *time.Time          `json:"submitted_after,omitempty"`
	SubmittedBefore *time.Time          `json:"submitted_before,omitempty"`
	UpdatedBefore   *time.Time          `json:"updated_before,omitempty"`
}
