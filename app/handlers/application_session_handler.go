// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"log"

	"github.com/appform-bd/cardapply/app/dto"
	"github.com/appform-bd/cardapply/app/middleware"
	businessflow "github.com/appform-bd/cardapply/business_flow"
	"github.com/appform-bd/cardapply/models"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// ApplicationSessionHandlerInterface defines the contract for session handlers
type ApplicationSessionHandlerInterface interface {
	StartApplication(c fiber.Ctx) error
	StartAssisted(c fiber.Ctx) error
	SessionState(c fiber.Ctx) error
	RefreshSession(c fiber.Ctx) error
}

// ApplicationSessionHandler handles wizard session lifecycle requests
type ApplicationSessionHandler struct {
	sessionFlow businessflow.SessionFlow
	wizardFlow  businessflow.WizardFlow
	validator   *validator.Validate
}

// NewApplicationSessionHandler creates a new session handler
func NewApplicationSessionHandler(sessionFlow businessflow.SessionFlow, wizardFlow businessflow.WizardFlow) *ApplicationSessionHandler {
	handler := &ApplicationSessionHandler{
		sessionFlow: sessionFlow,
		wizardFlow:  wizardFlow,
		validator:   validator.New(),
	}
	businessflow.RegisterWizardValidations(handler.validator)
	return handler
}

func (h *ApplicationSessionHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *ApplicationSessionHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// StartApplication opens a self-service wizard session with a fresh draft
// @Summary Start Application
// @Description Open a new card application draft and wizard session
// @Tags Applications
// @Accept json
// @Produce json
// @Param request body dto.StartApplicationRequest true "Application start data"
// @Success 201 {object} dto.APIResponse{data=dto.StartApplicationResponse} "Application started successfully"
// @Failure 400 {object} dto.APIResponse "Validation error or invalid request"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/applications/start [post]
func (h *ApplicationSessionHandler) StartApplication(c fiber.Ctx) error {
	return h.start(c, nil)
}

// StartAssisted opens a wizard session on behalf of a walk-in applicant
// @Summary Start Assisted Application
// @Description Open a branch-assisted card application draft for a walk-in applicant
// @Tags Staff
// @Accept json
// @Produce json
// @Param request body dto.StartApplicationRequest true "Application start data"
// @Success 201 {object} dto.APIResponse{data=dto.StartApplicationResponse} "Application started successfully"
// @Failure 400 {object} dto.APIResponse "Validation error or invalid request"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/staff/sessions [post]
// @Security BearerAuth
func (h *ApplicationSessionHandler) StartAssisted(c fiber.Ctx) error {
	staff, ok := middleware.StaffFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Staff account not found in context", "MISSING_STAFF_ACCOUNT", nil)
	}
	return h.start(c, staff)
}

func (h *ApplicationSessionHandler) start(c fiber.Ctx, staff *models.StaffUser) error {
	var req dto.StartApplicationRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.sessionFlow.StartApplication(ctx, &req, staff, clientMetadata(c))
	if err != nil {
		if businessflow.IsStaffInactive(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Staff account is inactive", "ACCOUNT_INACTIVE", nil)
		}

		log.Println("Start application failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to start application", "START_APPLICATION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Application started successfully", result)
}

// SessionState returns the wizard view of the authenticated session
// @Summary Session State
// @Description Get the wizard navigation state for the authenticated session
// @Tags Applications
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.SessionStateResponse} "Session state retrieved successfully"
// @Failure 401 {object} dto.APIResponse "Unauthorized or session expired"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/applications/session [get]
// @Security BearerAuth
func (h *ApplicationSessionHandler) SessionState(c fiber.Ctx) error {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Session not found in context", "MISSING_SESSION", nil)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	wizard, err := h.wizardFlow.WizardState(ctx, session)
	if err != nil {
		if businessflow.IsApplicationNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Application not found", "APPLICATION_NOT_FOUND", nil)
		}

		log.Println("Session state failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve session state", "SESSION_STATE_FAILED", nil)
	}

	result := &dto.SessionStateResponse{
		SessionUUID: session.SessionUUID.String(),
		ExpiresAt:   session.ExpiresAt,
		Wizard:      *wizard,
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Session state retrieved successfully", result)
}

// RefreshSession rotates the session token under the sliding expiry window
// @Summary Refresh Session
// @Description Extend the wizard session and receive a replacement token
// @Tags Applications
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.RefreshSessionResponse} "Session refreshed successfully"
// @Failure 401 {object} dto.APIResponse "Unauthorized or session expired"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/applications/session/refresh [post]
// @Security BearerAuth
func (h *ApplicationSessionHandler) RefreshSession(c fiber.Ctx) error {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Session not found in context", "MISSING_SESSION", nil)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.sessionFlow.RefreshSession(ctx, session.SessionUUID, clientMetadata(c))
	if err != nil {
		if businessflow.IsSessionExpired(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Session has expired", "SESSION_EXPIRED", nil)
		}
		if businessflow.IsSessionInactive(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Session is no longer active", "SESSION_INACTIVE", nil)
		}

		log.Println("Session refresh failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to refresh session", "SESSION_REFRESH_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Session refreshed successfully", result)
}
