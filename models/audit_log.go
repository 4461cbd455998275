// Package models contains domain entities and business models for the card application service
package models

import (
	"encoding/json"
	"time"
)

type AuditLog struct {
	ID            uint             `gorm:"primaryKey" json:"id"`
	ApplicationID *uint            `gorm:"index:idx_audit_application_id" json:"application_id,omitempty"`
	Application   *CardApplication `gorm:"foreignKey:ApplicationID;references:ID;constraint:OnDelete:SET NULL" json:"application,omitempty"`
	StaffUserID   *uint            `gorm:"index:idx_audit_staff_user_id" json:"staff_user_id,omitempty"`
	StaffUser     *StaffUser       `gorm:"foreignKey:StaffUserID;references:ID" json:"staff_user,omitempty"`
	Action        string           `gorm:"type:varchar(64);not null;index:idx_audit_action" json:"action"`
	Description   *string          `gorm:"type:text" json:"description,omitempty"`
	IPAddress     *string          `gorm:"type:inet;index:idx_audit_ip_address" json:"ip_address,omitempty"`
	UserAgent     *string          `gorm:"type:text" json:"user_agent,omitempty"`
	RequestID     *string          `gorm:"size:255;index:idx_audit_request_id" json:"request_id,omitempty"`
	Metadata      json.RawMessage  `gorm:"type:jsonb;index:idx_audit_metadata,type:gin" json:"metadata,omitempty"`
	Success       *bool            `gorm:"default:true;index:idx_audit_success" json:"success"`
	ErrorMessage  *string          `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt     time.Time        `gorm:"default:CURRENT_TIMESTAMP;index:idx_audit_created_at" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_log"
}

// Audit action constants
const (
	AuditActionSessionStarted         = "session_started"
	AuditActionSessionRefreshed       = "session_refreshed"
	AuditActionSessionExpired         = "session_expired"
	AuditActionSessionRebound         = "session_rebound"
	AuditActionAssistedSessionStarted = "assisted_session_started"
	AuditActionOTPGenerated           = "otp_generated"
	AuditActionOTPVerified            = "otp_verified"
	AuditActionOTPFailed              = "otp_failed"
	AuditActionOTPSMSFailed           = "otp_sms_failed"
	AuditActionDraftDiscarded         = "draft_discarded"
	AuditActionApplicationSubmitted   = "application_submitted"
	AuditActionSubmissionRejected     = "submission_rejected"
	AuditActionReviewStarted          = "review_started"
	AuditActionDocumentsRequested     = "documents_requested"
	AuditActionApplicationApproved    = "application_approved"
	AuditActionApplicationRejected    = "application_rejected"
	AuditActionCardIssued             = "card_issued"
	AuditActionStaffLoginSuccess      = "staff_login_success"
	AuditActionStaffLoginFailed       = "staff_login_failed"
	AuditActionStaffLogout            = "staff_logout"
	AuditActionDraftPurged            = "draft_purged"
)

// AuditLogFilter represents filter criteria for audit log queries
type AuditLogFilter struct {
	ID            *uint
	ApplicationID *uint
	StaffUserID   *uint
	Action        *string
	Success       *bool
	IPAddress     *string
	RequestID     *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

func (a *AuditLog) IsFailed() bool {
	return a.Success != nil && !*a.Success
}

func (a *AuditLog) IsSecurityEvent() bool {
	securityActions := map[string]bool{
		AuditActionStaffLoginSuccess: true,
		AuditActionStaffLoginFailed:  true,
		AuditActionOTPFailed:         true,
		AuditActionSessionExpired:    true,
	}
	return securityActions[a.Action]
}
