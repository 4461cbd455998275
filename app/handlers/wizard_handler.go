// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"

	"github.com/appform-bd/cardapply/app/dto"
	"github.com/appform-bd/cardapply/app/middleware"
	businessflow "github.com/appform-bd/cardapply/business_flow"
	"github.com/appform-bd/cardapply/models"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// WizardHandlerInterface defines the contract for wizard navigation handlers
type WizardHandlerInterface interface {
	Advance(c fiber.Ctx) error
	Retreat(c fiber.Ctx) error
	JumpTo(c fiber.Ctx) error
}

// WizardHandler handles wizard navigation HTTP requests
type WizardHandler struct {
	wizardFlow businessflow.WizardFlow
	validator  *validator.Validate
}

// NewWizardHandler creates a new wizard handler
func NewWizardHandler(wizardFlow businessflow.WizardFlow) *WizardHandler {
	handler := &WizardHandler{
		wizardFlow: wizardFlow,
		validator:  validator.New(),
	}
	businessflow.RegisterWizardValidations(handler.validator)
	return handler
}

func (h *WizardHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *WizardHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Advance moves the wizard forward one step
// @Summary Advance Step
// @Description Move forward to the next wizard step; blocked while the current required step is incomplete
// @Tags Wizard
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.WizardStateResponse} "Advanced successfully"
// @Failure 401 {object} dto.APIResponse "Unauthorized or session expired"
// @Failure 403 {object} dto.APIResponse "Current step incomplete"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/applications/draft/advance [post]
// @Security BearerAuth
func (h *WizardHandler) Advance(c fiber.Ctx) error {
	return h.navigate(c, func(ctx context.Context, session *models.ApplicantSession, metadata *businessflow.ClientMetadata) (*dto.WizardStateResponse, error) {
		return h.wizardFlow.Advance(ctx, session, metadata)
	}, "Advanced successfully", "Wizard advance failed")
}

// Retreat moves the wizard back one step
// @Summary Retreat Step
// @Description Move back to the previous wizard step; always allowed within bounds
// @Tags Wizard
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.WizardStateResponse} "Retreated successfully"
// @Failure 401 {object} dto.APIResponse "Unauthorized or session expired"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/applications/draft/retreat [post]
// @Security BearerAuth
func (h *WizardHandler) Retreat(c fiber.Ctx) error {
	return h.navigate(c, func(ctx context.Context, session *models.ApplicantSession, metadata *businessflow.ClientMetadata) (*dto.WizardStateResponse, error) {
		return h.wizardFlow.Retreat(ctx, session, metadata)
	}, "Retreated successfully", "Wizard retreat failed")
}

// JumpTo moves the wizard directly to a visited or reachable step
// @Summary Jump To Step
// @Description Jump directly to a step no further than the highest reachable step
// @Tags Wizard
// @Accept json
// @Produce json
// @Param request body dto.JumpToStepRequest true "Jump target"
// @Success 200 {object} dto.APIResponse{data=dto.WizardStateResponse} "Moved successfully"
// @Failure 400 {object} dto.APIResponse "Validation error or unknown step"
// @Failure 401 {object} dto.APIResponse "Unauthorized or session expired"
// @Failure 403 {object} dto.APIResponse "Step not reachable yet"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/applications/draft/goto [post]
// @Security BearerAuth
func (h *WizardHandler) JumpTo(c fiber.Ctx) error {
	var req dto.JumpToStepRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	return h.navigate(c, func(ctx context.Context, session *models.ApplicantSession, metadata *businessflow.ClientMetadata) (*dto.WizardStateResponse, error) {
		return h.wizardFlow.JumpTo(ctx, session, &req, metadata)
	}, "Moved successfully", "Wizard jump failed")
}

func (h *WizardHandler) navigate(c fiber.Ctx, op func(ctx context.Context, session *models.ApplicantSession, metadata *businessflow.ClientMetadata) (*dto.WizardStateResponse, error), successMessage, logPrefix string) error {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Session not found in context", "MISSING_SESSION", nil)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := op(ctx, session, clientMetadata(c))
	if err != nil {
		switch {
		case businessflow.IsApplicationNotFound(err):
			return h.ErrorResponse(c, fiber.StatusNotFound, "Application not found", "APPLICATION_NOT_FOUND", nil)
		case businessflow.IsApplicationNotEditable(err):
			return h.ErrorResponse(c, fiber.StatusConflict, "Application is no longer editable", "APPLICATION_NOT_EDITABLE", nil)
		case businessflow.IsUnknownStep(err):
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Unknown step", "UNKNOWN_STEP", nil)
		case businessflow.IsStepNotReachable(err):
			return h.ErrorResponse(c, fiber.StatusForbidden, "Step is not reachable yet", "STEP_NOT_REACHABLE", businessErrorDetails(err))
		}

		log.Println(logPrefix, err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to move through the wizard", "WIZARD_NAVIGATION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, successMessage, result)
}
