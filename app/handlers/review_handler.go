// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/appform-bd/cardapply/app/dto"
	"github.com/appform-bd/cardapply/app/middleware"
	businessflow "github.com/appform-bd/cardapply/business_flow"
	"github.com/appform-bd/cardapply/models"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// ReviewHandlerInterface defines the contract for review desk handlers
type ReviewHandlerInterface interface {
	ListApplications(c fiber.Ctx) error
	ExportApplications(c fiber.Ctx) error
	GetApplication(c fiber.Ctx) error
	StartReview(c fiber.Ctx) error
	RequestDocuments(c fiber.Ctx) error
	Approve(c fiber.Ctx) error
	Reject(c fiber.Ctx) error
	IssueCard(c fiber.Ctx) error
}

// ReviewHandler handles the staff review desk HTTP requests
type ReviewHandler struct {
	reviewFlow businessflow.ReviewFlow
	validator  *validator.Validate
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(reviewFlow businessflow.ReviewFlow) *ReviewHandler {
	handler := &ReviewHandler{
		reviewFlow: reviewFlow,
		validator:  validator.New(),
	}
	businessflow.RegisterWizardValidations(handler.validator)
	return handler
}

func (h *ReviewHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *ReviewHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// listRequest builds the queue filter from query parameters
func (h *ReviewHandler) listRequest(c fiber.Ctx) (*dto.ApplicationListRequest, error) {
	var req dto.ApplicationListRequest

	if v := c.Query("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil {
			return nil, h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid page", "VALIDATION_ERROR", nil)
		}
		req.Page = page
	}
	if v := c.Query("page_size"); v != "" {
		pageSize, err := strconv.Atoi(v)
		if err != nil {
			return nil, h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid page_size", "VALIDATION_ERROR", nil)
		}
		req.PageSize = pageSize
	}
	if v := c.Query("status"); v != "" {
		req.Status = &v
	}
	if v := c.Query("mode"); v != "" {
		req.Mode = &v
	}
	if v := c.Query("mobile_number"); v != "" {
		req.MobileNumber = &v
	}
	if v := c.Query("national_id"); v != "" {
		req.NationalID = &v
	}
	if v := c.Query("submitted_after"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid submitted_after format", "VALIDATION_ERROR", nil)
		}
		req.SubmittedAfter = &t
	}
	if v := c.Query("submitted_before"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid submitted_before format", "VALIDATION_ERROR", nil)
		}
		req.SubmittedBefore = &t
	}

	if err := h.validator.Struct(&req); err != nil {
		return nil, h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}
	return &req, nil
}

// ListApplications returns one page of the review queue
// @Summary List Applications
// @Description Get the filtered, paginated review queue
// @Tags Review
// @Produce json
// @Param page query int false "Page number (1-based)"
// @Param page_size query int false "Page size"
// @Param status query string false "Status filter"
// @Param mode query string false "Mode filter (SELF or ASSISTED)"
// @Param mobile_number query string false "Applicant mobile number"
// @Param national_id query string false "Applicant national ID"
// @Param submitted_after query string false "Submitted after (RFC3339)"
// @Param submitted_before query string false "Submitted before (RFC3339)"
// @Success 200 {object} dto.APIResponse{data=dto.ApplicationListResponse} "Applications retrieved successfully"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/staff/applications [get]
// @Security BearerAuth
func (h *ReviewHandler) ListApplications(c fiber.Ctx) error {
	req, errResp := h.listRequest(c)
	if errResp != nil {
		return errResp
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.reviewFlow.ListApplications(ctx, req)
	if err != nil {
		if businessflow.IsInvalidPage(err) || businessflow.IsInvalidPageSize(err) || businessflow.IsStartDateAfterEndDate(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), "VALIDATION_ERROR", nil)
		}

		log.Println("List applications failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve applications", "LIST_APPLICATIONS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Applications retrieved successfully", result)
}

// ExportApplications downloads the filtered queue as an xlsx workbook
// @Summary Export Applications
// @Description Download the filtered review queue as an Excel workbook
// @Tags Review
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param status query string false "Status filter"
// @Param mode query string false "Mode filter (SELF or ASSISTED)"
// @Param submitted_after query string false "Submitted after (RFC3339)"
// @Param submitted_before query string false "Submitted before (RFC3339)"
// @Success 200 {file} binary "Workbook"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/staff/applications/export [get]
// @Security BearerAuth
func (h *ReviewHandler) ExportApplications(c fiber.Ctx) error {
	req, errResp := h.listRequest(c)
	if errResp != nil {
		return errResp
	}

	ctx, cancel := requestContextWithTimeout(c, 2*time.Minute)
	defer cancel()

	filename, data, err := h.reviewFlow.ExportApplications(ctx, req)
	if err != nil {
		log.Println("Export applications failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to generate workbook", "EXPORT_FAILED", nil)
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", "attachment; filename="+filename)
	return c.Send(data)
}

// GetApplication returns the full application as the review desk sees it
// @Summary Get Application
// @Description Get one application with its draft state, step metadata and review trail
// @Tags Review
// @Produce json
// @Param uuid path string true "Application UUID"
// @Success 200 {object} dto.APIResponse{data=dto.ApplicationDetailDTO} "Application retrieved successfully"
// @Failure 400 {object} dto.APIResponse "Invalid UUID"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 404 {object} dto.APIResponse "Application not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/staff/applications/{uuid} [get]
// @Security BearerAuth
func (h *ReviewHandler) GetApplication(c fiber.Ctx) error {
	applicationUUID, errResp := h.applicationUUID(c)
	if errResp != nil {
		return errResp
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.reviewFlow.GetApplication(ctx, applicationUUID)
	if err != nil {
		if businessflow.IsApplicationNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Application not found", "APPLICATION_NOT_FOUND", nil)
		}

		log.Println("Get application failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve application", "GET_APPLICATION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Application retrieved successfully", result)
}

// StartReview claims a submitted application for review
// @Summary Start Review
// @Description Move a submitted application to under_review and claim it
// @Tags Review
// @Produce json
// @Param uuid path string true "Application UUID"
// @Success 200 {object} dto.APIResponse{data=dto.ReviewActionResponse} "Review started"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 404 {object} dto.APIResponse "Application not found"
// @Failure 409 {object} dto.APIResponse "Transition not allowed"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/staff/applications/{uuid}/review [post]
// @Security BearerAuth
func (h *ReviewHandler) StartReview(c fiber.Ctx) error {
	return h.transition(c, func(ctx context.Context, staff *models.StaffUser, applicationUUID uuid.UUID, req *dto.ReviewActionRequest, metadata *businessflow.ClientMetadata) (*dto.ReviewActionResponse, error) {
		return h.reviewFlow.StartReview(ctx, staff, applicationUUID, metadata)
	}, false, "Review started", "Start review failed")
}

// RequestDocuments asks the applicant for additional documents
// @Summary Request Documents
// @Description Move an application under review to documents_required with a reviewer note
// @Tags Review
// @Accept json
// @Produce json
// @Param uuid path string true "Application UUID"
// @Param request body dto.ReviewActionRequest true "Reviewer note"
// @Success 200 {object} dto.APIResponse{data=dto.ReviewActionResponse} "Documents requested"
// @Failure 400 {object} dto.APIResponse "Missing reviewer note"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 404 {object} dto.APIResponse "Application not found"
// @Failure 409 {object} dto.APIResponse "Transition not allowed"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/staff/applications/{uuid}/request-documents [post]
// @Security BearerAuth
func (h *ReviewHandler) RequestDocuments(c fiber.Ctx) error {
	return h.transition(c, h.reviewFlow.RequestDocuments, true, "Documents requested", "Request documents failed")
}

// Approve approves an application under review
// @Summary Approve Application
// @Description Approve an application under review
// @Tags Review
// @Accept json
// @Produce json
// @Param uuid path string true "Application UUID"
// @Param request body dto.ReviewActionRequest false "Optional reviewer note"
// @Success 200 {object} dto.APIResponse{data=dto.ReviewActionResponse} "Application approved"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 404 {object} dto.APIResponse "Application not found"
// @Failure 409 {object} dto.APIResponse "Transition not allowed"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/staff/applications/{uuid}/approve [post]
// @Security BearerAuth
func (h *ReviewHandler) Approve(c fiber.Ctx) error {
	return h.transition(c, h.reviewFlow.Approve, true, "Application approved", "Approve failed")
}

// Reject rejects an application under review
// @Summary Reject Application
// @Description Reject an application under review with a reviewer note
// @Tags Review
// @Accept json
// @Produce json
// @Param uuid path string true "Application UUID"
// @Param request body dto.ReviewActionRequest true "Reviewer note"
// @Success 200 {object} dto.APIResponse{data=dto.ReviewActionResponse} "Application rejected"
// @Failure 400 {object} dto.APIResponse "Missing reviewer note"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 404 {object} dto.APIResponse "Application not found"
// @Failure 409 {object} dto.APIResponse "Transition not allowed"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/staff/applications/{uuid}/reject [post]
// @Security BearerAuth
func (h *ReviewHandler) Reject(c fiber.Ctx) error {
	return h.transition(c, h.reviewFlow.Reject, true, "Application rejected", "Reject failed")
}

// IssueCard records card issuance for an approved application
// @Summary Issue Card
// @Description Mark an approved application as card_issued; requires the supervisor role
// @Tags Review
// @Produce json
// @Param uuid path string true "Application UUID"
// @Success 200 {object} dto.APIResponse{data=dto.ReviewActionResponse} "Card issued"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 403 {object} dto.APIResponse "Supervisor role required"
// @Failure 404 {object} dto.APIResponse "Application not found"
// @Failure 409 {object} dto.APIResponse "Transition not allowed"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/staff/applications/{uuid}/issue-card [post]
// @Security BearerAuth
func (h *ReviewHandler) IssueCard(c fiber.Ctx) error {
	return h.transition(c, func(ctx context.Context, staff *models.StaffUser, applicationUUID uuid.UUID, req *dto.ReviewActionRequest, metadata *businessflow.ClientMetadata) (*dto.ReviewActionResponse, error) {
		return h.reviewFlow.IssueCard(ctx, staff, applicationUUID, metadata)
	}, false, "Card issued", "Issue card failed")
}

func (h *ReviewHandler) applicationUUID(c fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("uuid"))
	if err != nil {
		return uuid.Nil, h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid application UUID", "INVALID_APPLICATION_UUID", nil)
	}
	return id, nil
}

func (h *ReviewHandler) transition(c fiber.Ctx, op func(ctx context.Context, staff *models.StaffUser, applicationUUID uuid.UUID, req *dto.ReviewActionRequest, metadata *businessflow.ClientMetadata) (*dto.ReviewActionResponse, error), hasBody bool, successMessage, logPrefix string) error {
	staff, ok := middleware.StaffFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Staff account not found in context", "MISSING_STAFF_ACCOUNT", nil)
	}

	applicationUUID, errResp := h.applicationUUID(c)
	if errResp != nil {
		return errResp
	}

	var req dto.ReviewActionRequest
	if hasBody {
		if err := c.Bind().JSON(&req); err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
		}
		if err := h.validator.Struct(&req); err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
		}
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := op(ctx, staff, applicationUUID, &req, clientMetadata(c))
	if err != nil {
		switch {
		case businessflow.IsApplicationNotFound(err):
			return h.ErrorResponse(c, fiber.StatusNotFound, "Application not found", "APPLICATION_NOT_FOUND", nil)
		case businessflow.IsReviewTransitionNotAllowed(err), businessflow.IsApplicationNotUnderReview(err):
			return h.ErrorResponse(c, fiber.StatusConflict, "Status transition not allowed", "TRANSITION_NOT_ALLOWED", businessErrorDetails(err))
		case businessflow.IsReviewerNoteRequired(err):
			return h.ErrorResponse(c, fiber.StatusBadRequest, "A reviewer note is required", "REVIEWER_NOTE_REQUIRED", nil)
		case businessflow.IsSupervisorRequired(err):
			return h.ErrorResponse(c, fiber.StatusForbidden, "Supervisor role is required", "SUPERVISOR_REQUIRED", nil)
		}

		log.Println(logPrefix, err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Review action failed", "REVIEW_ACTION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, successMessage, result)
}
