package dto

import "time"

// CaptchaResponse carries a rotate-captcha challenge; images are base64 data
// URIs
type CaptchaResponse struct {
	CaptchaID   string `json:"captchaId"`
	MasterImage string `json:"masterImage"`
	ThumbImage  string `json:"thumbImage"`
}

// StaffLoginRequest represents the staff login form
type StaffLoginRequest struct {
	Username     string  `json:"username" validate:"required,max=255"`
	Password     string  `json:"password" validate:"required,max=255"`
	CaptchaID    string  `json:"captchaId" validate:"required"`
	CaptchaAngle float64 `json:"captchaAngle" validate:"required"`
}

// StaffDTO represents staff account data for API responses
type StaffDTO struct {
	ID          uint       `json:"id"`
	UUID        string     `json:"uuid"`
	Username    string     `json:"username"`
	FullName    string     `json:"fullName"`
	Role        string     `json:"role"`
	BranchCode  *string    `json:"branchCode,omitempty"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

// StaffLoginResponse represents the response after successful staff login
type StaffLoginResponse struct {
	Message      string   `json:"message"`
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	Staff        StaffDTO `json:"staff"`
}

// StaffRefreshRequest rotates a refresh token
type StaffRefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// StaffRefreshResponse carries the replacement token pair
type StaffRefreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// StaffLogoutRequest revokes the presented tokens
type StaffLogoutRequest struct {
	RefreshToken string `json:"refreshToken" validate:"omitempty"`
}
