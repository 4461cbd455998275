// Package models contains domain entities and business models for the card application service
package models

import (
	"time"

	"github.com/appform-bd/cardapply/utils"
	"github.com/google/uuid"
)

// ApplicantSession is one wizard session. Sessions are backend-owned: the
// expiry lives here, not in the token, and a deactivated or expired session
// stops every draft operation server-side. A session binds to exactly one
// application at a time; the binding can move during cross-session resume.
type ApplicantSession struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	SessionUUID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uk_applicant_sessions_uuid" json:"session_uuid"`
	ApplicationID  *uint           `gorm:"index:idx_applicant_sessions_application_id" json:"application_id,omitempty"`
	StaffUserID    *uint           `gorm:"index:idx_applicant_sessions_staff_user_id" json:"staff_user_id,omitempty"` // Set for assisted sessions
	Mode           ApplicationMode `gorm:"type:varchar(16);not null" json:"mode"`
	IPAddress      *string         `gorm:"type:inet" json:"ip_address,omitempty"`
	UserAgent      *string         `gorm:"type:text" json:"user_agent,omitempty"`
	TTLSeconds     int             `gorm:"not null" json:"ttl_seconds"`
	IsActive       *bool           `gorm:"default:true;index:idx_applicant_sessions_is_active" json:"is_active"`
	CreatedAt      time.Time       `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	LastAccessedAt time.Time       `gorm:"default:CURRENT_TIMESTAMP;index:idx_applicant_sessions_last_accessed" json:"last_accessed_at"`
	ExpiresAt      time.Time       `gorm:"not null;index:idx_applicant_sessions_expires_at" json:"expires_at"`

	// Relations
	Application *CardApplication `gorm:"foreignKey:ApplicationID;references:ID;constraint:OnDelete:SET NULL" json:"application,omitempty"`
	StaffUser   *StaffUser       `gorm:"foreignKey:StaffUserID;references:ID" json:"staff_user,omitempty"`
}

func (ApplicantSession) TableName() string {
	return "applicant_sessions"
}

func (s *ApplicantSession) IsExpired() bool {
	return utils.UTCNow().After(s.ExpiresAt)
}

func (s *ApplicantSession) IsValid() bool {
	return utils.IsTrue(s.IsActive) && !s.IsExpired()
}

// ApplicantSessionFilter represents filter criteria for session queries
type ApplicantSessionFilter struct {
	ID            *uint
	SessionUUID   *uuid.UUID
	ApplicationID *uint
	StaffUserID   *uint
	Mode          *ApplicationMode
	IsActive      *bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	ExpiresAfter  *time.Time
	ExpiresBefore *time.Time
}
