// Package models contains domain entities and business models for the card application service
package models

import (
	"time"

	"github.com/appform-bd/cardapply/utils"
	"github.com/google/uuid"
)

// OTPVerification rows are immutable: a re-request expires the pending row
// and inserts a fresh one under the same correlation id, so the chain of
// attempts for an application stays auditable.
type OTPVerification struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	CorrelationID uuid.UUID  `gorm:"type:uuid;not null;index:idx_otp_correlation_id" json:"correlation_id"` // Groups related OTP records
	ApplicationID uint       `gorm:"not null;index:idx_otp_application_id" json:"application_id"`
	OTPCode       string     `gorm:"size:6;not null" json:"-"` // Never serialize OTP code
	MobileNumber  string     `gorm:"size:16;not null" json:"mobile_number"`
	Status        string     `gorm:"type:varchar(16);default:pending;index:idx_otp_status" json:"status"`
	AttemptsCount int        `gorm:"default:0" json:"attempts_count"`
	MaxAttempts   int        `gorm:"default:3" json:"max_attempts"`
	CreatedAt     time.Time  `gorm:"default:CURRENT_TIMESTAMP;index:idx_otp_created_at" json:"created_at"`
	ExpiresAt     time.Time  `gorm:"not null;index:idx_otp_expires_at" json:"expires_at"`
	VerifiedAt    *time.Time `json:"verified_at,omitempty"`
	IPAddress     *string    `gorm:"type:inet" json:"ip_address,omitempty"`
	UserAgent     *string    `gorm:"type:text" json:"user_agent,omitempty"`

	// Relations
	Application *CardApplication `gorm:"foreignKey:ApplicationID;references:ID;constraint:OnDelete:CASCADE" json:"application,omitempty"`
}

func (OTPVerification) TableName() string {
	return "otp_verifications"
}

// OTP status constants
const (
	OTPStatusPending  = "pending"
	OTPStatusVerified = "verified"
	OTPStatusExpired  = "expired"
	OTPStatusFailed   = "failed"
)

// OTPVerificationFilter represents filter criteria for OTP verification queries
type OTPVerificationFilter struct {
	ID            *uint
	CorrelationID *uuid.UUID
	ApplicationID *uint
	MobileNumber  *string
	Status        *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	ExpiresAfter  *time.Time
	ExpiresBefore *time.Time
}

func (o *OTPVerification) IsExpired() bool {
	return utils.UTCNow().After(o.ExpiresAt)
}

func (o *OTPVerification) IsVerified() bool {
	return o.Status == OTPStatusVerified
}

func (o *OTPVerification) IsPending() bool {
	return o.Status == OTPStatusPending
}

func (o *OTPVerification) CanAttempt() bool {
	return o.AttemptsCount < o.MaxAttempts && !o.IsExpired() && o.IsPending()
}

// RemainingAttempts never goes below zero.
func (o *OTPVerification) RemainingAttempts() int {
	remaining := o.MaxAttempts - o.AttemptsCount
	if remaining < 0 {
		return 0
	}
	return remaining
}
