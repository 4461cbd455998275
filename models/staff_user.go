// Package models contains domain entities and business models for the card application service
package models

import (
	"time"

	"github.com/google/uuid"
)

// Staff role constants
const (
	StaffRoleReviewer   = "reviewer"
	StaffRoleSupervisor = "supervisor"
)

// StaffUser is a bank employee account: reviewers work the decision queue,
// supervisors additionally issue cards and start assisted sessions.
type StaffUser struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UUID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_staff_users_uuid" json:"uuid"`
	Username     string    `gorm:"size:255;not null;uniqueIndex:uk_staff_users_username" json:"username"`
	FullName     string    `gorm:"size:255;not null" json:"full_name"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         string    `gorm:"type:varchar(32);not null;default:'reviewer'" json:"role"`
	BranchCode   *string   `gorm:"size:16" json:"branch_code,omitempty"`

	IsActive    *bool      `gorm:"default:true;index:idx_staff_users_is_active" json:"is_active"`
	CreatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
	LastLoginAt *time.Time `gorm:"index:idx_staff_users_last_login_at" json:"last_login_at,omitempty"`
}

func (StaffUser) TableName() string {
	return "staff_users"
}

// IsSupervisor reports whether the account may perform supervisor-only
// actions.
func (u *StaffUser) IsSupervisor() bool {
	return u.Role == StaffRoleSupervisor
}

// StaffUserFilter represents filter criteria for staff queries
type StaffUserFilter struct {
	ID              *uint
	UUID            *uuid.UUID
	Username        *string
	Role            *string
	BranchCode      *string
	IsActive        *bool
	CreatedAfter    *time.Time
	CreatedBefore   *time.Time
	LastLoginAfter  *time.Time
	LastLoginBefore *time.Time
}
