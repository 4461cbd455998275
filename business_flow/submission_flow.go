package businessflow

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/appform-bd/cardapply/app/dto"
	"github.com/appform-bd/cardapply/app/services"
	"github.com/appform-bd/cardapply/models"
	"github.com/appform-bd/cardapply/repository"
	"github.com/appform-bd/cardapply/utils"
)

// SubmissionFlow handles the hand-off from the wizard to the review queue.
// Submission is the only operation that makes a draft immutable.
type SubmissionFlow interface {
	Submit(ctx context.Context, session *models.ApplicantSession, metadata *ClientMetadata) (*dto.SubmitApplicationResponse, error)
}

// SubmissionFlowImpl implements the submission business flow
type SubmissionFlowImpl struct {
	applicationRepo     repository.CardApplicationRepository
	stepRepo            repository.ApplicationStepRepository
	auditRepo           repository.AuditLogRepository
	snapshotRepo        repository.DraftSnapshotRepository
	validator           StepValidator
	notificationService services.NotificationService
	db                  *gorm.DB
}

// NewSubmissionFlow creates a new submission business flow
func NewSubmissionFlow(
	applicationRepo repository.CardApplicationRepository,
	stepRepo repository.ApplicationStepRepository,
	auditRepo repository.AuditLogRepository,
	snapshotRepo repository.DraftSnapshotRepository,
	validator StepValidator,
	notificationService services.NotificationService,
	db *gorm.DB,
) SubmissionFlow {
	return &SubmissionFlowImpl{
		applicationRepo:     applicationRepo,
		stepRepo:            stepRepo,
		auditRepo:           auditRepo,
		snapshotRepo:        snapshotRepo,
		validator:           validator,
		notificationService: notificationService,
		db:                  db,
	}
}

// Submit runs the full-draft validation gate and, when it passes, freezes
// the draft as a submitted application. A refused submission repositions the
// current step onto the first offending step so the form lands the applicant
// where the fix is needed.
func (s *SubmissionFlowImpl) Submit(ctx context.Context, session *models.ApplicantSession, metadata *ClientMetadata) (*dto.SubmitApplicationResponse, error) {
	application, err := getBoundApplication(ctx, s.applicationRepo, session)
	if err != nil {
		return nil, NewBusinessError("APPLICATION_NOT_FOUND", "Application not found", err)
	}
	if application.IsSubmitted() {
		return nil, NewBusinessError("APPLICATION_ALREADY_SUBMITTED", "Application has already been submitted", ErrApplicationSubmitted)
	}
	if !application.Status.IsEditable() {
		return nil, NewBusinessError("APPLICATION_NOT_EDITABLE", "Application can no longer be edited", ErrApplicationNotEditable)
	}

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		appRow, err := s.applicationRepo.ByIDForUpdate(txCtx, application.ID)
		if err != nil {
			return fmt.Errorf("failed to lock application: %w", err)
		}
		if appRow == nil {
			return NewBusinessError("APPLICATION_NOT_FOUND", "Application not found", ErrApplicationNotFound)
		}
		if appRow.IsSubmitted() {
			return NewBusinessError("APPLICATION_ALREADY_SUBMITTED", "Application has already been submitted", ErrApplicationSubmitted)
		}

		// Content completeness first; the consent flags are judged
		// separately so an unticked checkbox reads as its own error rather
		// than an incomplete step.
		blockers := s.contentBlockers(appRow)
		if len(blockers) > 0 {
			first := blockers[0].Number
			if appRow.CurrentStep != first {
				appRow.CurrentStep = first
				if err := s.applicationRepo.Update(txCtx, appRow); err != nil {
					return fmt.Errorf("failed to reposition current step: %w", err)
				}
			}
			return NewBusinessErrorWithDetails("SUBMISSION_REJECTED", "Application is not complete", ErrSubmissionRejected, s.blockedDetails(txCtx, appRow, blockers))
		}

		if !appRow.State.TermsAccepted || !appRow.State.DeclarationAccepted {
			return NewBusinessError("TERMS_NOT_ACCEPTED", "Terms and declarations must be accepted before submission", ErrTermsNotAccepted)
		}

		if !appRow.CanTransitionTo(models.ApplicationStatusSubmitted) {
			return NewBusinessError("INVALID_STATUS", "Application cannot be submitted from its current status", ErrApplicationNotDraft)
		}

		now := utils.UTCNow()
		appRow.Status = models.ApplicationStatusSubmitted
		appRow.SubmittedAt = &now

		// Assisted drafts skip OTP and so were never identity-stamped;
		// stamp them here so review filters find them.
		if appRow.MobileNumber == nil {
			if mobile := preApplicationMobile(&appRow.State); mobile != "" {
				appRow.MobileNumber = &mobile
			}
		}
		if appRow.NationalID == nil {
			if nationalID := preApplicationNationalID(&appRow.State); nationalID != "" {
				appRow.NationalID = &nationalID
			}
		}

		if err := s.applicationRepo.Update(txCtx, appRow); err != nil {
			return fmt.Errorf("failed to submit application: %w", err)
		}

		application = appRow
		return nil
	})
	if err != nil {
		metricSubmissions.WithLabelValues(submitOutcomeRejected).Inc()
		errMsg := err.Error()
		_ = s.createAuditLog(ctx, &application.ID, session.StaffUserID, models.AuditActionSubmissionRejected, "Submission refused", false, &errMsg, metadata)
		if IsBusinessError(err) {
			return nil, err
		}
		return nil, NewBusinessError("SUBMISSION_FAILED", "Failed to submit application", err)
	}

	metricSubmissions.WithLabelValues(submitOutcomeAccepted).Inc()

	// The draft is frozen; the mirror has nothing left to recover.
	_ = s.snapshotRepo.Clear(ctx, application.UUID)

	_ = s.createAuditLog(ctx, &application.ID, session.StaffUserID, models.AuditActionApplicationSubmitted, "Application submitted", true, nil, metadata)

	if mobile := preApplicationMobile(&application.State); mobile != "" {
		go func(mobile, reference string) {
			message := fmt.Sprintf("Your credit card application %s has been received and is pending review.", reference)
			if err := s.notificationService.SendSMS(mobile, message); err != nil {
				errMsg := err.Error()
				_ = s.createAuditLog(context.Background(), &application.ID, nil, models.AuditActionApplicationSubmitted, "Submission confirmation SMS failed", false, &errMsg, metadata)
			}
		}(mobile, application.UUID.String())
	}

	return &dto.SubmitApplicationResponse{
		Message:         "Application submitted successfully",
		ApplicationUUID: application.UUID.String(),
		Status:          application.Status.String(),
		SubmittedAt:     *application.SubmittedAt,
	}, nil
}

// contentBlockers lists steps whose content still blocks submission. The
// final step is judged on validation alone here; its consent flags have
// their own gate.
func (s *SubmissionFlowImpl) contentBlockers(application *models.CardApplication) []models.StepDefinition {
	var out []models.StepDefinition
	for _, def := range models.Steps() {
		if def.Name == models.StepMIDDeclarations {
			if !s.validator.Validate(&application.State, def.Number).OK {
				out = append(out, def)
			}
			continue
		}
		if !stepComplete(s.validator, application, def) {
			out = append(out, def)
		}
	}
	return out
}

// blockedDetails assembles the rejection payload. Version metadata is
// best-effort; the step list itself is what the client needs.
func (s *SubmissionFlowImpl) blockedDetails(ctx context.Context, application *models.CardApplication, blockers []models.StepDefinition) *dto.SubmissionBlockedDTO {
	var versions []models.StepVersion
	if rows, err := s.stepRepo.ListByApplication(ctx, application.ID); err == nil {
		for _, row := range rows {
			versions = append(versions, stepVersionFromRecord(row))
		}
	}

	blocked := make(map[int]bool, len(blockers))
	for _, def := range blockers {
		blocked[def.Number] = true
	}

	details := &dto.SubmissionBlockedDTO{CurrentStep: application.CurrentStep}
	for _, info := range buildStepInfos(s.validator, application, versions) {
		if blocked[info.Number] {
			info.IsComplete = false
			details.IncompleteSteps = append(details.IncompleteSteps, info)
		}
	}
	return details
}

func (s *SubmissionFlowImpl) createAuditLog(ctx context.Context, applicationID, staffID *uint, action, description string, success bool, errorMsg *string, metadata *ClientMetadata) error {
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
