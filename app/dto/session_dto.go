// Package dto contains Data Transfer Objects for API request and response structures
package dto

import "time"

// StartApplicationRequest opens a wizard session together with a fresh draft.
// ASSISTED mode is only honored for authenticated branch staff.
type StartApplicationRequest struct {
	Mode string `json:"mode" validate:"required,oneof=SELF ASSISTED"`
}

// SessionDTO carries the bearer token for subsequent wizard calls. The expiry
// is authoritative server-side; the token merely names the session.
type SessionDTO struct {
	SessionToken string    `json:"sessionToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// StartApplicationResponse represents the response after a wizard session was
// opened
type StartApplicationResponse struct {
	Message         string     `json:"message"`
	ApplicationUUID string     `json:"applicationUuid"`
	Mode            string     `json:"mode"`
	Status          string     `json:"status"`
	CurrentStep     int        `json:"currentStep"`
	Session         SessionDTO `json:"session"`
}

// RefreshSessionResponse carries the replacement token after a sliding-expiry
// refresh
type RefreshSessionResponse struct {
	Message string     `json:"message"`
	Session SessionDTO `json:"session"`
}

// SessionStateResponse pairs the session's server-side expiry with the wizard
// view of its application
type SessionStateResponse struct {
	SessionUUID string              `json:"sessionUuid"`
	ExpiresAt   time.Time           `json:"expiresAt"`
	Wizard      WizardStateResponse `json:"wizard"`
}
