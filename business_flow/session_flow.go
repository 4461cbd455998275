package businessflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/appform-bd/cardapply/app/dto"
	"github.com/appform-bd/cardapply/app/services"
	"github.com/appform-bd/cardapply/models"
	"github.com/appform-bd/cardapply/repository"
	"github.com/appform-bd/cardapply/utils"
)

// SessionFlow handles the wizard session lifecycle. Sessions are
// backend-owned: expiry and deactivation live in the database row, so a
// stolen token dies with its session.
type SessionFlow interface {
	StartApplication(ctx context.Context, req *dto.StartApplicationRequest, staff *models.StaffUser, metadata *ClientMetadata) (*dto.StartApplicationResponse, error)
	RefreshSession(ctx context.Context, sessionUUID uuid.UUID, metadata *ClientMetadata) (*dto.RefreshSessionResponse, error)
	// ResolveSession loads and validates a session for request authentication,
	// touching its last-accessed stamp on success.
	ResolveSession(ctx context.Context, sessionUUID uuid.UUID) (*models.ApplicantSession, error)
}

// SessionFlowImpl implements the session business flow
type SessionFlowImpl struct {
	applicationRepo repository.CardApplicationRepository
	sessionRepo     repository.ApplicantSessionRepository
	auditRepo       repository.AuditLogRepository
	tokenService    services.TokenService
	sessionTTL      time.Duration
	db              *gorm.DB
}

// NewSessionFlow creates a new session business flow
func NewSessionFlow(
	applicationRepo repository.CardApplicationRepository,
	sessionRepo repository.ApplicantSessionRepository,
	auditRepo repository.AuditLogRepository,
	tokenService services.TokenService,
	sessionTTL time.Duration,
	db *gorm.DB,
) SessionFlow {
	return &SessionFlowImpl{
		applicationRepo: applicationRepo,
		sessionRepo:     sessionRepo,
		auditRepo:       auditRepo,
		tokenService:    tokenService,
		sessionTTL:      sessionTTL,
		db:              db,
	}
}

// StartApplication creates a fresh draft and binds a new session to it.
// ASSISTED mode requires a supervisor account; the staff binding is recorded
// on the session for the audit trail.
func (s *SessionFlowImpl) StartApplication(ctx context.Context, req *dto.StartApplicationRequest, staff *models.StaffUser, metadata *ClientMetadata) (*dto.StartApplicationResponse, error) {
	mode := models.ApplicationMode(req.Mode)
	if !mode.Valid() {
		return nil, NewBusinessError("INVALID_MODE", "Unsupported application mode", nil)
	}

	var staffID *uint
	if mode == models.ApplicationModeAssisted {
		if staff == nil || !staff.IsSupervisor() {
			return nil, NewBusinessError("SUPERVISOR_REQUIRED", "Assisted applications require a supervisor account", ErrSupervisorRequired)
		}
		staffID = &staff.ID
	}

	// The token only names the session; generating it before the transaction
	// keeps token failures from leaving committed rows behind.
	sessionUUID := uuid.New()
	token, err := s.tokenService.GenerateSessionToken(sessionUUID, s.sessionTTL)
	if err != nil {
		return nil, NewBusinessError("TOKEN_GENERATION_FAILED", "Failed to generate session token", err)
	}

	var application *models.CardApplication
	var session *models.ApplicantSession

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		application = &models.CardApplication{
			UUID:        uuid.New(),
			Mode:        mode,
			Status:      models.ApplicationStatusDraft,
			CurrentStep: models.FirstStep,
			State:       models.DraftState{},
		}
		if err := s.applicationRepo.Save(txCtx, application); err != nil {
			return fmt.Errorf("failed to create application: %w", err)
		}

		now := utils.UTCNow()
		session = &models.ApplicantSession{
			SessionUUID:    sessionUUID,
			ApplicationID:  &application.ID,
			StaffUserID:    staffID,
			Mode:           mode,
			TTLSeconds:     int(s.sessionTTL.Seconds()),
			IsActive:       utils.ToPtr(true),
			CreatedAt:      now,
			LastAccessedAt: now,
			ExpiresAt:      now.Add(s.sessionTTL),
		}
		if metadata != nil {
			session.IPAddress = &metadata.IPAddress
			session.UserAgent = &metadata.UserAgent
		}
		if err := s.sessionRepo.Save(txCtx, session); err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}

		return nil
	})

	if err != nil {
		errMsg := err.Error()
		_ = s.createAuditLog(ctx, nil, staffID, models.AuditActionSessionStarted, "Failed to start application", false, &errMsg, metadata)
		return nil, NewBusinessError("SESSION_START_FAILED", "Failed to start application", err)
	}

	action := models.AuditActionSessionStarted
	description := "Application session started"
	if mode == models.ApplicationModeAssisted {
		action = models.AuditActionAssistedSessionStarted
		description = "Assisted application session started"
	}
	_ = s.createAuditLog(ctx, &application.ID, staffID, action, description, true, nil, metadata)

	return &dto.StartApplicationResponse{
		Message:         "Application started successfully",
		ApplicationUUID: application.UUID.String(),
		Mode:            mode.String(),
		Status:          application.Status.String(),
		CurrentStep:     application.CurrentStep,
		Session: dto.SessionDTO{
			SessionToken: token,
			ExpiresAt:    session.ExpiresAt,
		},
	}, nil
}

// RefreshSession extends a live session and reissues its token. Expired or
// deactivated sessions cannot be revived; the applicant resumes through OTP
// verification instead.
func (s *SessionFlowImpl) RefreshSession(ctx context.Context, sessionUUID uuid.UUID, metadata *ClientMetadata) (*dto.RefreshSessionResponse, error) {
	session, err := s.sessionRepo.BySessionUUID(ctx, sessionUUID)
	if err != nil {
		return nil, NewBusinessError("SESSION_LOOKUP_FAILED", "Failed to load session", err)
	}
	if session == nil {
		return nil, NewBusinessError("SESSION_NOT_FOUND", "Session not found", ErrSessionNotFound)
	}
	if !utils.IsTrue(session.IsActive) {
		return nil, NewBusinessError("SESSION_INACTIVE", "Session is no longer active", ErrSessionInactive)
	}
	if session.IsExpired() {
		return nil, NewBusinessError("SESSION_EXPIRED", "Session has expired", ErrSessionExpired)
	}

	token, err := s.tokenService.GenerateSessionToken(session.SessionUUID, s.sessionTTL)
	if err != nil {
		return nil, NewBusinessError("TOKEN_GENERATION_FAILED", "Failed to generate session token", err)
	}

	now := utils.UTCNow()
	session.LastAccessedAt = now
	session.ExpiresAt = now.Add(s.sessionTTL)
	session.TTLSeconds = int(s.sessionTTL.Seconds())
	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return nil, NewBusinessError("SESSION_REFRESH_FAILED", "Failed to refresh session", err)
	}

	_ = s.createAuditLog(ctx, session.ApplicationID, session.StaffUserID, models.AuditActionSessionRefreshed, "Session refreshed", true, nil, metadata)

	return &dto.RefreshSessionResponse{
		Message: "Session refreshed successfully",
		Session: dto.SessionDTO{
			SessionToken: token,
			ExpiresAt:    session.ExpiresAt,
		},
	}, nil
}

// ResolveSession implements the per-request session check used by the
// middleware. Expired sessions are deactivated on sight.
func (s *SessionFlowImpl) ResolveSession(ctx context.Context, sessionUUID uuid.UUID) (*models.ApplicantSession, error) {
	session, err := s.sessionRepo.BySessionUUID(ctx, sessionUUID)
	if err != nil {
		return nil, NewBusinessError("SESSION_LOOKUP_FAILED", "Failed to load session", err)
	}
	if session == nil {
		return nil, NewBusinessError("SESSION_NOT_FOUND", "Session not found", ErrSessionNotFound)
	}
	if !utils.IsTrue(session.IsActive) {
		return nil, NewBusinessError("SESSION_INACTIVE", "Session is no longer active", ErrSessionInactive)
	}
	if session.IsExpired() {
		_ = s.sessionRepo.ExpireSession(ctx, session.ID)
		return nil, NewBusinessError("SESSION_EXPIRED", "Session has expired", ErrSessionExpired)
	}

	_ = s.sessionRepo.Touch(ctx, session.ID, utils.UTCNow())

	return session, nil
}

func (s *SessionFlowImpl) createAuditLog(ctx context.Context, applicationID, staffID *uint, action, description string, success bool, errorMsg *string, metadata *ClientMetadata) error {
	ipAddress := "127.0.0.1"
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
		ApplicationID: applicationID,
		StaffUserID:   staffID,
		Action:        action,
		Description:   &description,
		Success:       utils.ToPtr(success),
		IPAddress:     &ipAddress,
		UserAgent:     &userAgent,
		ErrorMessage:  errorMsg,
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
