package businessflow

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"gorm.io/gorm"

	"github.com/appform-bd/cardapply/app/dto"
	"github.com/appform-bd/cardapply/app/services"
	"github.com/appform-bd/cardapply/models"
	"github.com/appform-bd/cardapply/repository"
	"github.com/appform-bd/cardapply/utils"
)

// OTPFlow handles mobile ownership verification for self-service
// applications. Assisted applications never enter this flow; the supervisor
// vouches for the walk-in applicant instead.
type OTPFlow interface {
	RequestOTP(ctx context.Context, session *models.ApplicantSession, metadata *ClientMetadata) (*dto.OTPRequestResponse, error)
	VerifyOTP(ctx context.Context, session *models.ApplicantSession, req *dto.OTPVerifyRequest, metadata *ClientMetadata) (*dto.OTPVerifyResponse, error)
	OTPState(ctx context.Context, session *models.ApplicantSession) (*dto.OTPStateResponse, error)
}

// OTPFlowImpl implements the OTP business flow
type OTPFlowImpl struct {
	applicationRepo     repository.CardApplicationRepository
	otpRepo             repository.OTPVerificationRepository
	sessionRepo         repository.ApplicantSessionRepository
	auditRepo           repository.AuditLogRepository
	rateLimiter         repository.OTPRateLimiter
	notificationService services.NotificationService
	otpExpiry           time.Duration
	db                  *gorm.DB
}

// NewOTPFlow creates a new OTP business flow
func NewOTPFlow(
	applicationRepo repository.CardApplicationRepository,
	otpRepo repository.OTPVerificationRepository,
	sessionRepo repository.ApplicantSessionRepository,
	auditRepo repository.AuditLogRepository,
	rateLimiter repository.OTPRateLimiter,
	notificationService services.NotificationService,
	otpExpiry time.Duration,
	db *gorm.DB,
) OTPFlow {
	return &OTPFlowImpl{
		applicationRepo:     applicationRepo,
		otpRepo:             otpRepo,
		sessionRepo:         sessionRepo,
		auditRepo:           auditRepo,
		rateLimiter:         rateLimiter,
		notificationService: notificationService,
		otpExpiry:           otpExpiry,
		db:                  db,
	}
}

// GenerateOTP generates a 6-digit OTP
func GenerateOTP() (string, error) {
	max := big.NewInt(900000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("failed to generate random number: %w", err)
	}

	otp := n.Int64() + 100000
	return fmt.Sprintf("%06d", otp), nil
}

// RequestOTP expires any pending code, issues a fresh one under the same
// correlation chain and queues the SMS. Re-requests count against the send
// budget enforced by the rate limiter.
func (s *OTPFlowImpl) RequestOTP(ctx context.Context, session *models.ApplicantSession, metadata *ClientMetadata) (*dto.OTPRequestResponse, error) {
	application, err := getBoundApplication(ctx, s.applicationRepo, session)
	if err != nil {
		return nil, NewBusinessError("APPLICATION_NOT_FOUND", "Application not found", err)
	}
	if !application.IsEditable() {
		return nil, NewBusinessError("APPLICATION_NOT_EDITABLE", "Application is no longer editable", ErrApplicationNotEditable)
	}
	if application.Mode == models.ApplicationModeAssisted {
		return nil, NewBusinessError("OTP_NOT_REQUIRED", "OTP verification is not required for assisted applications", nil)
	}

	mobile := preApplicationMobile(&application.State)
	if mobile == "" {
		return nil, NewBusinessError("MOBILE_REQUIRED", "Save a mobile number before requesting verification", ErrMobileRequired)
	}
	if !IsBDMobile(mobile) {
		return nil, NewBusinessError("INVALID_MOBILE", "Mobile number is not valid", nil)
	}

	allowed, retryAfter, err := s.rateLimiter.AllowSend(ctx, application.UUID)
	if err != nil {
		return nil, NewBusinessError("CACHE_UNAVAILABLE", "Verification service is temporarily unavailable", ErrCacheNotAvailable)
	}
	if !allowed {
		return nil, NewBusinessError("OTP_RATE_LIMITED",
			fmt.Sprintf("Too many OTP requests. Try again in %d seconds", int(retryAfter.Seconds())),
			ErrOTPRateLimited)
	}

	code, err := GenerateOTP()
	if err != nil {
		return nil, NewBusinessError("OTP_GENERATION_FAILED", "Failed to generate verification code", err)
	}

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		if err := s.otpRepo.ExpireOldOTPs(txCtx, application.ID); err != nil {
			return fmt.Errorf("failed to expire old OTPs: %w", err)
		}

		now := utils.UTCNow()
		otp := &models.OTPVerification{
			CorrelationID: application.UUID,
			ApplicationID: application.ID,
			OTPCode:       code,
			MobileNumber:  mobile,
			Status:        models.OTPStatusPending,
			MaxAttempts:   3,
			CreatedAt:     now,
			ExpiresAt:     now.Add(s.otpExpiry),
		}
		if metadata != nil {
			otp.IPAddress = &metadata.IPAddress
			otp.UserAgent = &metadata.UserAgent
		}
		if err := s.otpRepo.Save(txCtx, otp); err != nil {
			return fmt.Errorf("failed to save OTP: %w", err)
		}

		if application.Status == models.ApplicationStatusDraft {
			if err := s.applicationRepo.UpdateStatus(txCtx, application.ID, models.ApplicationStatusPendingOTP); err != nil {
				return fmt.Errorf("failed to update application status: %w", err)
			}
		}

		return nil
	})

	if err != nil {
		errMsg := err.Error()
		_ = s.createAuditLog(ctx, &application.ID, models.AuditActionOTPFailed, "Failed to generate OTP", false, &errMsg, metadata)
		return nil, NewBusinessError("OTP_REQUEST_FAILED", "Failed to generate verification code", err)
	}

	masked := maskMobileNumber(mobile)
	_ = s.createAuditLog(ctx, &application.ID, models.AuditActionOTPGenerated,
		fmt.Sprintf("OTP generated for %s", masked), true, nil, metadata)

	// Send SMS asynchronously so delivery latency never holds the request.
	go func() {
		message := fmt.Sprintf("Your card application verification code is %s. Valid for %d minutes.", code, int(s.otpExpiry.Minutes()))
		if smsErr := s.notificationService.SendSMS(mobile, message); smsErr != nil {
			errMsg := fmt.Sprintf("failed to send OTP SMS: %v", smsErr)
			_ = s.createAuditLog(context.Background(), &application.ID, models.AuditActionOTPSMSFailed, errMsg, false, &errMsg, metadata)
		}
	}()

	remainingSends := 0
	resendAfter := 0
	if status, statusErr := s.rateLimiter.Status(ctx, application.UUID); statusErr == nil && status != nil {
		remainingSends = status.RemainingSends
		resendAfter = status.RetryAfterSeconds
	}

	return &dto.OTPRequestResponse{
		Message:            "Verification code sent successfully",
		OTPSent:            true,
		OTPTarget:          masked,
		ExpiresInSeconds:   int(s.otpExpiry.Seconds()),
		RemainingSends:     remainingSends,
		ResendAfterSeconds: resendAfter,
	}, nil
}

// VerifyOTP checks the submitted code against the pending row. On success the
// draft is stamped with the verified identity, and when an older unfinished
// application exists for the same mobile and NID pair the session is rebound
// to it so the applicant continues where they left off. The freshly-created
// shell stays unstamped and is swept by the stale-draft cleanup later.
func (s *OTPFlowImpl) VerifyOTP(ctx context.Context, session *models.ApplicantSession, req *dto.OTPVerifyRequest, metadata *ClientMetadata) (*dto.OTPVerifyResponse, error) {
	application, err := getBoundApplication(ctx, s.applicationRepo, session)
	if err != nil {
		return nil, NewBusinessError("APPLICATION_NOT_FOUND", "Application not found", err)
	}
	if !application.IsEditable() {
		return nil, NewBusinessError("APPLICATION_NOT_EDITABLE", "Application is no longer editable", ErrApplicationNotEditable)
	}
	if application.Mode == models.ApplicationModeAssisted {
		return nil, NewBusinessError("OTP_NOT_REQUIRED", "OTP verification is not required for assisted applications", nil)
	}

	resumed := false
	target := application

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		otp, err := s.otpRepo.LatestPendingByApplication(txCtx, application.ID)
		if err != nil {
			return fmt.Errorf("failed to load pending OTP: %w", err)
		}
		if otp == nil {
			return NewBusinessError("NO_VALID_OTP", "No valid OTP found. Request a new code", ErrNoValidOTPFound)
		}
		if otp.IsExpired() {
			_ = s.otpRepo.ExpireOldOTPs(txCtx, application.ID)
			return NewBusinessError("OTP_EXPIRED", "Verification code has expired. Request a new code", ErrOTPExpired)
		}
		if !otp.CanAttempt() {
			return NewBusinessError("OTP_LOCKED", "Maximum verification attempts exceeded. Request a new code", ErrOTPLocked)
		}

		if otp.OTPCode != req.OTPCode {
			exhausted := otp.AttemptsCount+1 >= otp.MaxAttempts
			if err := s.otpRepo.IncrementAttempts(txCtx, otp.ID, exhausted); err != nil {
				return fmt.Errorf("failed to record OTP attempt: %w", err)
			}
			return NewBusinessError("INVALID_OTP", "Verification code is incorrect", ErrInvalidOTPCode)
		}

		if err := s.otpRepo.MarkVerified(txCtx, otp.ID); err != nil {
			return fmt.Errorf("failed to mark OTP verified: %w", err)
		}

		mobile := preApplicationMobile(&application.State)
		nationalID := preApplicationNationalID(&application.State)

		// Cross-session resume: the verified identity may already own an
		// unfinished draft from an earlier session.
		if mobile != "" && nationalID != "" {
			earlier, err := s.applicationRepo.LatestUnfinishedByIdentity(txCtx, mobile, nationalID, application.ID)
			if err != nil {
				return fmt.Errorf("failed to look up unfinished applications: %w", err)
			}
			if earlier != nil {
				earlier.State.MarkOTPVerified()
				if earlier.Status == models.ApplicationStatusPendingOTP {
					earlier.Status = models.ApplicationStatusDraft
				}
				if err := s.applicationRepo.Update(txCtx, earlier); err != nil {
					return fmt.Errorf("failed to update resumed application: %w", err)
				}

				session.ApplicationID = &earlier.ID
				if err := s.sessionRepo.Update(txCtx, session); err != nil {
					return fmt.Errorf("failed to rebind session: %w", err)
				}

				// The shell created at session start holds nothing beyond the
				// identity just verified; its step and OTP rows cascade. The
				// cache mirror, if any, ages out on its TTL.
				if err := s.applicationRepo.Delete(txCtx, application.ID); err != nil {
					return fmt.Errorf("failed to remove superseded application: %w", err)
				}

				resumed = true
				target = earlier
				return nil
			}
		}

		application.State.MarkOTPVerified()
		if mobile != "" {
			application.MobileNumber = &mobile
		}
		if nationalID != "" {
			application.NationalID = &nationalID
		}
		if application.Status == models.ApplicationStatusPendingOTP {
			application.Status = models.ApplicationStatusDraft
		}
		if err := s.applicationRepo.Update(txCtx, application); err != nil {
			return fmt.Errorf("failed to update application: %w", err)
		}

		return nil
	})

	if err != nil {
		metricOTPVerifications.WithLabelValues(otpResultFailed).Inc()
		errMsg := err.Error()
		_ = s.createAuditLog(ctx, &application.ID, models.AuditActionOTPFailed, "OTP verification failed", false, &errMsg, metadata)
		if IsBusinessError(err) {
			return nil, err
		}
		return nil, NewBusinessError("OTP_VERIFICATION_FAILED", "Failed to verify code", err)
	}

	metricOTPVerifications.WithLabelValues(otpResultVerified).Inc()
	_ = s.rateLimiter.Reset(ctx, application.UUID)

	_ = s.createAuditLog(ctx, &target.ID, models.AuditActionOTPVerified, "Mobile number verified", true, nil, metadata)
	if resumed {
		_ = s.createAuditLog(ctx, &target.ID, models.AuditActionSessionRebound,
			fmt.Sprintf("Session rebound to unfinished application %s", target.UUID), true, nil, metadata)
	}

	message := "Mobile number verified successfully"
	if resumed {
		message = "Mobile number verified. Resuming your earlier application"
	}

	return &dto.OTPVerifyResponse{
		Message:         message,
		Verified:        true,
		Resumed:         resumed,
		ApplicationUUID: target.UUID.String(),
		CurrentStep:     target.CurrentStep,
	}, nil
}

// OTPState reports where the applicant stands in the verification sub-flow.
func (s *OTPFlowImpl) OTPState(ctx context.Context, session *models.ApplicantSession) (*dto.OTPStateResponse, error) {
	application, err := getBoundApplication(ctx, s.applicationRepo, session)
	if err != nil {
		return nil, NewBusinessError("APPLICATION_NOT_FOUND", "Application not found", err)
	}

	resp := &dto.OTPStateResponse{
		Verified: application.State.OTPVerified() || application.Mode == models.ApplicationModeAssisted,
	}

	if pending, err := s.otpRepo.LatestPendingByApplication(ctx, application.ID); err == nil && pending != nil && !pending.IsExpired() {
		resp.PendingExpiresAt = &pending.ExpiresAt
		resp.RemainingAttempts = utils.ToPtr(pending.RemainingAttempts())
	}

	if status, err := s.rateLimiter.Status(ctx, application.UUID); err == nil && status != nil {
		resp.RemainingSends = status.RemainingSends
		resp.Locked = status.Locked
		resp.RetryAfterSeconds = status.RetryAfterSeconds
	}

	return resp, nil
}

func (s *OTPFlowImpl) createAuditLog(ctx context.Context, applicationID *uint, action, description string, success bool, errorMsg *string, metadata *ClientMetadata) error {
	ipAddress := "127.0.0.1"
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
		ApplicationID: applicationID,
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

func preApplicationMobile(state *models.DraftState) string {
	if state.PreApplication == nil || state.PreApplication.MobileNumber == nil {
		return ""
	}
	return *state.PreApplication.MobileNumber
}

func preApplicationNationalID(state *models.DraftState) string {
	if state.PreApplication == nil || state.PreApplication.NationalID == nil {
		return ""
	}
	return *state.PreApplication.NationalID
}
