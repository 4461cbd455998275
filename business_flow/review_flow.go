package businessflow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/appform-bd/cardapply/app/dto"
	"github.com/appform-bd/cardapply/app/services"
	"github.com/appform-bd/cardapply/models"
	"github.com/appform-bd/cardapply/repository"
	"github.com/appform-bd/cardapply/utils"
)

// ReviewFlow walks submitted applications through the decision lifecycle:
// under review, documents required, approved or rejected, and finally card
// issuance. Every transition goes through the status machine; there is no way
// to force an illegal edge from the API.
type ReviewFlow interface {
	ListApplications(ctx context.Context, req *dto.ApplicationListRequest) (*dto.ApplicationListResponse, error)
	GetApplication(ctx context.Context, applicationUUID uuid.UUID) (*dto.ApplicationDetailDTO, error)

	StartReview(ctx context.Context, staff *models.StaffUser, applicationUUID uuid.UUID, metadata *ClientMetadata) (*dto.ReviewActionResponse, error)
	RequestDocuments(ctx context.Context, staff *models.StaffUser, applicationUUID uuid.UUID, req *dto.ReviewActionRequest, metadata *ClientMetadata) (*dto.ReviewActionResponse, error)
	Approve(ctx context.Context, staff *models.StaffUser, applicationUUID uuid.UUID, req *dto.ReviewActionRequest, metadata *ClientMetadata) (*dto.ReviewActionResponse, error)
	Reject(ctx context.Context, staff *models.StaffUser, applicationUUID uuid.UUID, req *dto.ReviewActionRequest, metadata *ClientMetadata) (*dto.ReviewActionResponse, error)
	IssueCard(ctx context.Context, staff *models.StaffUser, applicationUUID uuid.UUID, metadata *ClientMetadata) (*dto.ReviewActionResponse, error)

	// ExportApplications renders the filtered queue as an xlsx workbook.
	ExportApplications(ctx context.Context, req *dto.ApplicationListRequest) (string, []byte, error)
}

// ReviewFlowImpl implements the review business flow
type ReviewFlowImpl struct {
	applicationRepo     repository.CardApplicationRepository
	stepRepo            repository.ApplicationStepRepository
	auditRepo           repository.AuditLogRepository
	validator           StepValidator
	notificationService services.NotificationService
	db                  *gorm.DB
}

// NewReviewFlow creates a new review business flow
func NewReviewFlow(
	applicationRepo repository.CardApplicationRepository,
	stepRepo repository.ApplicationStepRepository,
	auditRepo repository.AuditLogRepository,
	validator StepValidator,
	notificationService services.NotificationService,
	db *gorm.DB,
) ReviewFlow {
	return &ReviewFlowImpl{
		applicationRepo:     applicationRepo,
		stepRepo:            stepRepo,
		auditRepo:           auditRepo,
		validator:           validator,
		notificationService: notificationService,
		db:                  db,
	}
}

// ListApplications returns one page of the review queue, newest submissions
// first. Drafts never appear: the queue starts at submitted.
func (s *ReviewFlowImpl) ListApplications(ctx context.Context, req *dto.ApplicationListRequest) (*dto.ApplicationListResponse, error) {
	filter, page, pageSize, err := s.buildFilter(req)
	if err != nil {
		return nil, err
	}

	total, err := s.applicationRepo.Count(ctx, *filter)
	if err != nil {
		return nil, NewBusinessError("APPLICATION_LIST_FAILED", "Failed to count applications", err)
	}

	rows, err := s.applicationRepo.ByFilter(ctx, *filter, "submitted_at DESC NULLS LAST, id DESC", pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("APPLICATION_LIST_FAILED", "Failed to list applications", err)
	}

	summaries := make([]dto.ApplicationSummaryDTO, 0, len(rows))
	for _, app := range rows {
		summaries = append(summaries, applicationSummary(app))
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return &dto.ApplicationListResponse{
		Applications: summaries,
		Pagination: dto.PaginationDTO{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

// GetApplication returns the full application detail for the review desk
func (s *ReviewFlowImpl) GetApplication(ctx context.Context, applicationUUID uuid.UUID) (*dto.ApplicationDetailDTO, error) {
	application, err := getApplicationByUUID(ctx, s.applicationRepo, applicationUUID)
	if err != nil {
		return nil, NewBusinessError("APPLICATION_NOT_FOUND", "Application not found", err)
	}

	rows, err := s.stepRepo.ListByApplication(ctx, application.ID)
	if err != nil {
		return nil, NewBusinessError("APPLICATION_LIST_FAILED", "Failed to load step records", err)
	}
	versions := make([]models.StepVersion, 0, len(rows))
	for _, row := range rows {
		versions = append(versions, stepVersionFromRecord(row))
	}

	stateRaw, err := json.Marshal(&application.State)
	if err != nil {
		return nil, NewBusinessError("APPLICATION_LIST_FAILED", "Failed to encode application state", err)
	}

	detail := &dto.ApplicationDetailDTO{
		ApplicationUUID: application.UUID.String(),
		Mode:            application.Mode.String(),
		Status:          application.Status.String(),
		ApplicantName:   application.ApplicantName(),
		MobileNumber:    application.MobileNumber,
		NationalID:      application.NationalID,
		State:           stateRaw,
		Steps:           buildStepInfos(s.validator, application, versions),
		ReviewerNote:    application.ReviewerNote,
		DecidedAt:       application.DecidedAt,
		CreatedAt:       application.CreatedAt,
		SubmittedAt:     application.SubmittedAt,
	}
	if application.ReviewedBy != nil {
		detail.ReviewedBy = &application.ReviewedBy.FullName
	}
	return detail, nil
}

// StartReview claims a submitted application for the acting reviewer
func (s *ReviewFlowImpl) StartReview(ctx context.Context, staff *models.StaffUser, applicationUUID uuid.UUID, metadata *ClientMetadata) (*dto.ReviewActionResponse, error) {
	return s.transition(ctx, staff, applicationUUID, models.ApplicationStatusUnderReview, nil, models.AuditActionReviewStarted, "Review started", "Application review started", "", metadata)
}

// RequestDocuments sends the application back to the applicant for missing
// documents. The note is mandatory; the applicant has to know what to bring.
func (s *ReviewFlowImpl) RequestDocuments(ctx context.Context, staff *models.StaffUser, applicationUUID uuid.UUID, req *dto.ReviewActionRequest, metadata *ClientMetadata) (*dto.ReviewActionResponse, error) {
	if req == nil || req.Note == nil || *req.Note == "" {
		return nil, NewBusinessError("REVIEWER_NOTE_REQUIRED", "A note describing the required documents is needed", ErrReviewerNoteRequired)
	}
	message := "Additional documents are required for your credit card application: " + *req.Note
	return s.transition(ctx, staff, applicationUUID, models.ApplicationStatusDocumentsRequired, req.Note, models.AuditActionDocumentsRequested, "Documents requested", "Documents requested from applicant", message, metadata)
}

// Approve marks the application approved
func (s *ReviewFlowImpl) Approve(ctx context.Context, staff *models.StaffUser, applicationUUID uuid.UUID, req *dto.ReviewActionRequest, metadata *ClientMetadata) (*dto.ReviewActionResponse, error) {
	var note *string
	if req != nil {
		note = req.Note
	}
	message := "Congratulations! Your credit card application has been approved."
	return s.transition(ctx, staff, applicationUUID, models.ApplicationStatusApproved, note, models.AuditActionApplicationApproved, "Application approved", "Application approved", message, metadata)
}

// Reject marks the application rejected. The note is mandatory and surfaced
// verbatim to the applicant.
func (s *ReviewFlowImpl) Reject(ctx context.Context, staff *models.StaffUser, applicationUUID uuid.UUID, req *dto.ReviewActionRequest, metadata *ClientMetadata) (*dto.ReviewActionResponse, error) {
	if req == nil || req.Note == nil || *req.Note == "" {
		return nil, NewBusinessError("REVIEWER_NOTE_REQUIRED", "A rejection reason is required", ErrReviewerNoteRequired)
	}
	message := "We are sorry, your credit card application was not approved: " + *req.Note
	return s.transition(ctx, staff, applicationUUID, models.ApplicationStatusRejected, req.Note, models.AuditActionApplicationRejected, "Application rejected", "Application rejected", message, metadata)
}

// IssueCard records card issuance on an approved application. Supervisor
// only: issuance triggers embossing and delivery downstream.
func (s *ReviewFlowImpl) IssueCard(ctx context.Context, staff *models.StaffUser, applicationUUID uuid.UUID, metadata *ClientMetadata) (*dto.ReviewActionResponse, error) {
	if staff == nil || !staff.IsSupervisor() {
		return nil, NewBusinessError("SUPERVISOR_REQUIRED", "Card issuance requires a supervisor account", ErrSupervisorRequired)
	}
	message := "Your credit card has been issued and will be delivered to your present address."
	return s.transition(ctx, staff, applicationUUID, models.ApplicationStatusCardIssued, nil, models.AuditActionCardIssued, "Card issued", "Card issued", message, metadata)
}

// transition is the shared status walk. It locks the row, checks the edge,
// stamps the review trail, audits, and queues the applicant SMS.
func (s *ReviewFlowImpl) transition(
	ctx context.Context,
	staff *models.StaffUser,
	applicationUUID uuid.UUID,
	target models.ApplicationStatus,
	note *string,
	auditAction, auditDescription, successMessage, smsMessage string,
	metadata *ClientMetadata,
) (*dto.ReviewActionResponse, error) {
	application, err := getApplicationByUUID(ctx, s.applicationRepo, applicationUUID)
	if err != nil {
		return nil, NewBusinessError("APPLICATION_NOT_FOUND", "Application not found", err)
	}

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		appRow, err := s.applicationRepo.ByIDForUpdate(txCtx, application.ID)
		if err != nil {
			return fmt.Errorf("failed to lock application: %w", err)
		}
		if appRow == nil {
			return NewBusinessError("APPLICATION_NOT_FOUND", "Application not found", ErrApplicationNotFound)
		}
		if !appRow.CanTransitionTo(target) {
			return NewBusinessErrorf("INVALID_STATUS_TRANSITION", "Cannot move application from %s to %s", ErrReviewTransitionNotAllowed, appRow.Status, target)
		}

		now := utils.UTCNow()
		appRow.Status = target
		if staff != nil {
			appRow.ReviewedByID = &staff.ID
		}
		if note != nil {
			appRow.ReviewerNote = note
		}
		if target != models.ApplicationStatusUnderReview {
			appRow.DecidedAt = &now
		}

		if err := s.applicationRepo.Update(txCtx, appRow); err != nil {
			return fmt.Errorf("failed to update application status: %w", err)
		}

		application = appRow
		return nil
	})
	if err != nil {
		var staffID *uint
		if staff != nil {
			staffID = &staff.ID
		}
		errMsg := err.Error()
		_ = s.createAuditLog(ctx, &application.ID, staffID, auditAction, auditDescription+" failed", false, &errMsg, metadata)
		if IsBusinessError(err) {
			return nil, err
		}
		return nil, NewBusinessError("REVIEW_ACTION_FAILED", "Failed to update application", err)
	}

	metricReviewDecisions.WithLabelValues(target.String()).Inc()

	var staffID *uint
	if staff != nil {
		staffID = &staff.ID
	}
	_ = s.createAuditLog(ctx, &application.ID, staffID, auditAction, auditDescription, true, nil, metadata)

	if smsMessage != "" && application.MobileNumber != nil {
		go func(mobile, message string, applicationID uint) {
			if err := s.notificationService.SendSMS(mobile, message); err != nil {
				errMsg := err.Error()
				_ = s.createAuditLog(context.Background(), &applicationID, nil, auditAction, "Decision SMS failed", false, &errMsg, nil)
			}
		}(*application.MobileNumber, smsMessage, application.ID)
	}

	return &dto.ReviewActionResponse{
		Message:         successMessage,
		ApplicationUUID: application.UUID.String(),
		Status:          application.Status.String(),
		DecidedAt:       application.DecidedAt,
	}, nil
}

// ExportApplications renders the filtered queue into an xlsx workbook, one
// row per application.
func (s *ReviewFlowImpl) ExportApplications(ctx context.Context, req *dto.ApplicationListRequest) (string, []byte, error) {
	filter, _, _, err := s.buildFilter(req)
	if err != nil {
		return "", nil, err
	}

	rows, err := s.applicationRepo.ByFilter(ctx, *filter, "submitted_at DESC NULLS LAST, id DESC", utils.MaxExportRows, 0)
	if err != nil {
		return "", nil, NewBusinessError("EXPORT_FAILED", "Failed to fetch applications for export", err)
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	sheet := "Applications"
	xl.SetSheetName(xl.GetSheetName(0), sheet)

	header := []string{"uuid", "mode", "status", "applicant_name", "mobile_number", "national_id", "card_product", "monthly_income", "created_at", "submitted_at", "decided_at", "reviewer_note"}
	if err := xl.SetSheetRow(sheet, "A1", &header); err != nil {
		return "", nil, NewBusinessError("EXPORT_FAILED", "Failed to write export header", err)
	}

	for i, app := range rows {
		record := []string{
			app.UUID.String(),
			app.Mode.String(),
			app.Status.String(),
			app.ApplicantName(),
			utils.Deref(app.MobileNumber),
			utils.Deref(app.NationalID),
			exportProductCode(app),
			exportMonthlyIncome(app),
			app.CreatedAt.UTC().Format(time.RFC3339),
			exportTime(app.SubmittedAt),
			exportTime(app.DecidedAt),
			utils.Deref(app.ReviewerNote),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return "", nil, NewBusinessError("EXPORT_FAILED", "Failed to address export row", err)
		}
		if err := xl.SetSheetRow(sheet, cell, &record); err != nil {
			return "", nil, NewBusinessError("EXPORT_FAILED", "Failed to write export row", err)
		}
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("EXPORT_FAILED", "Failed to render export workbook", err)
	}

	filename := fmt.Sprintf("card_applications_%s.xlsx", utils.UTCNow().Format("20060102_150405"))
	return filename, buf.Bytes(), nil
}

// buildFilter converts the list request into a repository filter. The queue
// never shows editable drafts, so an absent status filter expands to every
// post-submission status.
func (s *ReviewFlowImpl) buildFilter(req *dto.ApplicationListRequest) (*models.CardApplicationFilter, int, int, error) {
	page := req.Page
	if page == 0 {
		page = 1
	}
	if page < 1 {
		return nil, 0, 0, NewBusinessError("VALIDATION_ERROR", "Page must be at least 1", ErrInvalidPage)
	}
	pageSize := req.PageSize
	if pageSize == 0 {
		pageSize = utils.DefaultPageSize
	}
	if pageSize < 1 || pageSize > utils.MaxPageSize {
		return nil, 0, 0, NewBusinessError("VALIDATION_ERROR", "Page size is out of range", ErrInvalidPageSize)
	}
	if req.SubmittedAfter != nil && req.SubmittedBefore != nil && req.SubmittedAfter.After(*req.SubmittedBefore) {
		return nil, 0, 0, NewBusinessError("VALIDATION_ERROR", "Start date cannot be after end date", ErrStartDateAfterEndDate)
	}

	filter := &models.CardApplicationFilter{
		MobileNumber:    req.MobileNumber,
		NationalID:      req.NationalID,
		SubmittedAfter:  req.SubmittedAfter,
		SubmittedBefore: req.SubmittedBefore,
	}
	if req.Mode != nil {
		mode := models.ApplicationMode(*req.Mode)
		filter.Mode = &mode
	}
	if req.Status != nil {
		status := models.ApplicationStatus(*req.Status)
		filter.Status = &status
	} else {
		filter.Statuses = []models.ApplicationStatus{
			models.ApplicationStatusSubmitted,
			models.ApplicationStatusUnderReview,
			models.ApplicationStatusDocumentsRequired,
			models.ApplicationStatusApproved,
			models.ApplicationStatusRejected,
			models.ApplicationStatusCardIssued,
		}
	}
	return filter, page, pageSize, nil
}

func (s *ReviewFlowImpl) createAuditLog(ctx context.Context, applicationID, staffID *uint, action, description string, success bool, errorMsg *string, metadata *ClientMetadata) error {
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

	requestID := ctx.Value(RequestIDKey)
	if requestID != nil {
		requestIDStr, ok := requestID.(string)
		if ok {
			audit.RequestID = &requestIDStr
		}
	}

	return s.auditRepo.Save(ctx, audit)
}

func applicationSummary(app *models.CardApplication) dto.ApplicationSummaryDTO {
	summary := dto.ApplicationSummaryDTO{
		ApplicationUUID: app.UUID.String(),
		Mode:            app.Mode.String(),
		Status:          app.Status.String(),
		ApplicantName:   app.ApplicantName(),
		ProductCode:     exportProductCode(app),
		SubmittedAt:     app.SubmittedAt,
		UpdatedAt:       app.UpdatedAt,
	}
	if app.MobileNumber != nil {
		summary.MobileNumber = maskMobileNumber(*app.MobileNumber)
	}
	if app.ReviewedBy != nil {
		summary.ReviewedBy = &app.ReviewedBy.FullName
	}
	return summary
}

func exportProductCode(app *models.CardApplication) string {
	if app.State.CardSelection == nil {
		return ""
	}
	return utils.Deref(app.State.CardSelection.ProductCode)
}

func exportMonthlyIncome(app *models.CardApplication) string {
	mi := app.State.MonthlyIncome
	if mi == nil {
		return ""
	}
	if utils.IsTrue(mi.IsSalaried) && mi.SalariedIncome != nil {
		return utils.Deref(mi.SalariedIncome.GrossMonthlyIncome)
	}
	if mi.BusinessIncome != nil {
		return utils.Deref(mi.BusinessIncome.MonthlyIncome)
	}
	return ""
}

func exportTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
