package dto

import "time"

// OTPRequestResponse represents the response after an OTP was generated and
// queued for delivery
type OTPRequestResponse struct {
	Message            string `json:"message"`
	OTPSent            bool   `json:"otpSent"`
	OTPTarget          string `json:"otpTarget"` // Mobile number (masked for security)
	ExpiresInSeconds   int    `json:"expiresInSeconds"`
	RemainingSends     int    `json:"remainingSends"`
	ResendAfterSeconds int    `json:"resendAfterSeconds"`
}

// OTPVerifyRequest represents the OTP verification request
type OTPVerifyRequest struct {
	OTPCode string `json:"otpCode" validate:"required,len=6,numeric"`
}

// OTPVerifyResponse represents the response after successful OTP verification.
// Resumed is set when verification rebound the session to an earlier
// unfinished application for the same mobile and NID pair.
type OTPVerifyResponse struct {
	Message         string `json:"message"`
	Verified        bool   `json:"verified"`
	Resumed         bool   `json:"resumed"`
	ApplicationUUID string `json:"applicationUuid"`
	CurrentStep     int    `json:"currentStep"`
}

// OTPStateResponse describes where the applicant stands in the verification
// sub-flow, including rate-limit standing
type OTPStateResponse struct {
	Verified          bool       `json:"verified"`
	PendingExpiresAt  *time.Time `json:"pendingExpiresAt,omitempty"`
	RemainingAttempts *int       `json:"remainingAttempts,omitempty"`
	RemainingSends    int        `json:"remainingSends"`
	Locked            bool       `json:"locked"`
	RetryAfterSeconds int        `json:"retryAfterSeconds"`
}
