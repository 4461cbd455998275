package businessflow

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/appform-bd/cardapply/app/dto"
	"github.com/appform-bd/cardapply/app/services"
	"github.com/appform-bd/cardapply/models"
	"github.com/appform-bd/cardapply/repository"
	"github.com/appform-bd/cardapply/utils"
)

// StaffAuthFlow handles back-office authentication. Logins are captcha-gated
// because the endpoint is reachable from the public internet.
type StaffAuthFlow interface {
	GenerateCaptcha(ctx context.Context) (*dto.CaptchaResponse, error)
	Login(ctx context.Context, req *dto.StaffLoginRequest, metadata *ClientMetadata) (*dto.StaffLoginResponse, error)
	RefreshTokens(ctx context.Context, req *dto.StaffRefreshRequest, metadata *ClientMetadata) (*dto.StaffRefreshResponse, error)
	Logout(ctx context.Context, staff *models.StaffUser, accessToken string, req *dto.StaffLogoutRequest, metadata *ClientMetadata) error

	// ResolveStaff loads and validates the staff account behind an access
	// token, used by the staff authentication middleware.
	ResolveStaff(ctx context.Context, staffID uint) (*models.StaffUser, error)

	// EnsureBootstrapSupervisor creates the configured supervisor account
	// when no account with that username exists yet. Called once at startup.
	EnsureBootstrapSupervisor(ctx context.Context, username, password, fullName string) error
}

// StaffAuthFlowImpl implements the staff authentication flow
type StaffAuthFlowImpl struct {
	staffRepo      repository.StaffUserRepository
	auditRepo      repository.AuditLogRepository
	tokenService   services.TokenService
	captchaService services.CaptchaService
	db             *gorm.DB
}

// NewStaffAuthFlow creates a new staff authentication flow
func NewStaffAuthFlow(
	staffRepo repository.StaffUserRepository,
	auditRepo repository.AuditLogRepository,
	tokenService services.TokenService,
	captchaService services.CaptchaService,
	db *gorm.DB,
) StaffAuthFlow {
	return &StaffAuthFlowImpl{
		staffRepo:      staffRepo,
		auditRepo:      auditRepo,
		tokenService:   tokenService,
		captchaService: captchaService,
		db:             db,
	}
}

// GenerateCaptcha issues a rotate-captcha challenge for the login form
func (s *StaffAuthFlowImpl) GenerateCaptcha(ctx context.Context) (*dto.CaptchaResponse, error) {
	challenge, err := s.captchaService.GenerateRotate(ctx)
	if err != nil {
		return nil, NewBusinessError("CAPTCHA_GENERATION_FAILED", "Failed to generate captcha", err)
	}
	return &dto.CaptchaResponse{
		CaptchaID:   challenge.ID,
		MasterImage: challenge.MasterImageBase64,
		ThumbImage:  challenge.ThumbImageBase64,
	}, nil
}

// Login verifies the captcha before touching the account, so credential
// probing costs a solved challenge per attempt.
func (s *StaffAuthFlowImpl) Login(ctx context.Context, req *dto.StaffLoginRequest, metadata *ClientMetadata) (*dto.StaffLoginResponse, error) {
	if !s.captchaService.VerifyRotate(ctx, req.CaptchaID, req.CaptchaAngle) {
		return nil, NewBusinessError("INVALID_CAPTCHA", "Captcha verification failed", ErrInvalidCaptcha)
	}

	staff, err := s.staffRepo.ByUsername(ctx, req.Username)
	if err != nil {
		return nil, NewBusinessError("STAFF_LOOKUP_FAILED", "Failed to load staff account", err)
	}
	if staff == nil {
		// Burn the same bcrypt cost as a real check so the response time
		// does not reveal whether the username exists.
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$12$000000000000000000000uGZLKQyGl3zipk5k1dcNXQYC9V1mJW6u"), []byte(req.Password))
		s.auditLoginFailure(ctx, nil, req.Username, "unknown username", metadata)
		return nil, NewBusinessError("INVALID_CREDENTIALS", "Invalid username or password", ErrStaffNotFound)
	}
	if !utils.IsTrue(staff.IsActive) {
		s.auditLoginFailure(ctx, &staff.ID, req.Username, "account inactive", metadata)
		return nil, NewBusinessError("ACCOUNT_INACTIVE", "Staff account is inactive", ErrStaffInactive)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(staff.PasswordHash), []byte(req.Password)); err != nil {
		s.auditLoginFailure(ctx, &staff.ID, req.Username, "incorrect password", metadata)
		return nil, NewBusinessError("INVALID_CREDENTIALS", "Invalid username or password", ErrIncorrectPassword)
	}

	accessToken, refreshToken, err := s.tokenService.GenerateStaffTokens(staff.ID)
	if err != nil {
		return nil, NewBusinessError("TOKEN_GENERATION_FAILED", "Failed to generate staff tokens", err)
	}

	now := utils.UTCNow()
	if err := s.staffRepo.UpdateLastLogin(ctx, staff.ID, now); err == nil {
		staff.LastLoginAt = &now
	}

	_ = s.createAuditLog(ctx, &staff.ID, models.AuditActionStaffLoginSuccess, "Staff login "+staff.Username, true, nil, metadata)

	return &dto.StaffLoginResponse{
		Message:      "Login successful",
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Staff:        staffDTO(staff),
	}, nil
}

// RefreshTokens rotates the staff token pair. The presented refresh token is
// revoked so it cannot be replayed.
func (s *StaffAuthFlowImpl) RefreshTokens(ctx context.Context, req *dto.StaffRefreshRequest, metadata *ClientMetadata) (*dto.StaffRefreshResponse, error) {
	claims, err := s.tokenService.ValidateStaffToken(req.RefreshToken)
	if err != nil {
		return nil, NewBusinessError("TOKEN_INVALID", "Invalid refresh token", err)
	}
	if claims.TokenType != "refresh" {
		return nil, NewBusinessError("TOKEN_INVALID", "A refresh token is required", nil)
	}

	// The account must still be active; a disabled reviewer keeps no backdoor
	// through an unexpired refresh token.
	if _, err := s.ResolveStaff(ctx, claims.StaffID); err != nil {
		return nil, err
	}

	accessToken, refreshToken, err := s.tokenService.RefreshStaffTokens(req.RefreshToken)
	if err != nil {
		return nil, NewBusinessError("TOKEN_REFRESH_FAILED", "Failed to refresh staff tokens", err)
	}

	return &dto.StaffRefreshResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Logout revokes the presented tokens. Revocation is in-memory per instance;
// the short access TTL bounds the exposure on other instances.
func (s *StaffAuthFlowImpl) Logout(ctx context.Context, staff *models.StaffUser, accessToken string, req *dto.StaffLogoutRequest, metadata *ClientMetadata) error {
	if err := s.tokenService.RevokeToken(accessToken); err != nil {
		return NewBusinessError("LOGOUT_FAILED", "Failed to revoke access token", err)
	}
	if req != nil && req.RefreshToken != "" {
		_ = s.tokenService.RevokeToken(req.RefreshToken)
	}

	var staffID *uint
	if staff != nil {
		staffID = &staff.ID
	}
	_ = s.createAuditLog(ctx, staffID, models.AuditActionStaffLogout, "Staff logout", true, nil, metadata)
	return nil
}

// ResolveStaff implements the per-request account check used by the staff
// middleware.
func (s *StaffAuthFlowImpl) ResolveStaff(ctx context.Context, staffID uint) (*models.StaffUser, error) {
	staff, err := s.staffRepo.ByID(ctx, staffID)
	if err != nil {
		return nil, NewBusinessError("STAFF_LOOKUP_FAILED", "Failed to load staff account", err)
	}
	if staff == nil {
		return nil, NewBusinessError("STAFF_NOT_FOUND", "Staff account not found", ErrStaffNotFound)
	}
	if !utils.IsTrue(staff.IsActive) {
		return nil, NewBusinessError("ACCOUNT_INACTIVE", "Staff account is inactive", ErrStaffInactive)
	}
	return staff, nil
}

// EnsureBootstrapSupervisor seeds the first supervisor so a fresh deployment
// has a working back office. Existing accounts are never overwritten.
func (s *StaffAuthFlowImpl) EnsureBootstrapSupervisor(ctx context.Context, username, password, fullName string) error {
	if username == "" || password == "" {
		return fmt.Errorf("bootstrap supervisor username and password are required")
	}

	existing, err := s.staffRepo.ByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to check bootstrap supervisor: %w", err)
	}
	if existing != nil {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash bootstrap password: %w", err)
	}

	staff := &models.StaffUser{
		UUID:         uuid.New(),
		Username:     username,
		FullName:     fullName,
		PasswordHash: string(hash),
		Role:         models.StaffRoleSupervisor,
		IsActive:     utils.ToPtr(true),
	}
	if err := s.staffRepo.Save(ctx, staff); err != nil {
		return fmt.Errorf("failed to create bootstrap supervisor: %w", err)
	}
	return nil
}

func (s *StaffAuthFlowImpl) auditLoginFailure(ctx context.Context, staffID *uint, username, reason string, metadata *ClientMetadata) {
	errMsg := reason
	_ = s.createAuditLog(ctx, staffID, models.AuditActionStaffLoginFailed, "Staff login failed "+username, false, &errMsg, metadata)
}

func (s *StaffAuthFlowImpl) createAuditLog(ctx context.Context, staffID *uint, action, description string, success bool, errorMsg *string, metadata *ClientMetadata) error {
	ipAddress := "127.0.0.1"
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
		StaffUserID:  staffID,
		Action:       action,
		Description:  &description,
		Success:      utils.ToPtr(success),
		IPAddress:    &ipAddress,
		UserAgent:    &userAgent,
		ErrorMessage: errorMsg,
	}

	// Extract request ID from context if available
	requestID := ctx.Value(RequestIDKey)
	if requestID != nil {
		requestIDStr, ok := requestID.(string)
		if ok {
			audit.RequestID = &requestIDStr
		}
	}

	return s.auditRepo.Save(ctx, audit)
}

func staffDTO(staff *models.StaffUser) dto.StaffDTO {
	return dto.StaffDTO{
		ID:          staff.ID,
		UUID:        staff.UUID.String(),
		Username:    staff.Username,
		FullName:    staff.FullName,
		Role:        staff.Role,
		BranchCode:  staff.BranchCode,
		LastLoginAt: staff.LastLoginAt,
	}
}
