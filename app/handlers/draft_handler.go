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
	"github.com/google/uuid"
)

// DraftHandlerInterface defines the contract for draft handlers
type DraftHandlerInterface interface {
	FetchDraft(c fiber.Ctx) error
	SaveStep(c fiber.Ctx) error
	AddBankAccount(c fiber.Ctx) error
	UpdateBankAccount(c fiber.Ctx) error
	RemoveBankAccount(c fiber.Ctx) error
	AddCreditFacility(c fiber.Ctx) error
	UpdateCreditFacility(c fiber.Ctx) error
	RemoveCreditFacility(c fiber.Ctx) error
	AddReference(c fiber.Ctx) error
	UpdateReference(c fiber.Ctx) error
	RemoveReference(c fiber.Ctx) error
	SetSupplementaryCard(c fiber.Ctx) error
	SetAcceptance(c fiber.Ctx) error
	DiscardDraft(c fiber.Ctx) error
}

// DraftHandler handles draft persistence HTTP requests
type DraftHandler struct {
	draftFlow businessflow.DraftFlow
	validator *validator.Validate
}

// NewDraftHandler creates a new draft handler
func NewDraftHandler(draftFlow businessflow.DraftFlow) *DraftHandler {
	handler := &DraftHandler{
		draftFlow: draftFlow,
		validator: validator.New(),
	}
	businessflow.RegisterWizardValidations(handler.validator)
	return handler
}

func (h *DraftHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *DraftHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// session pulls the middleware-resolved session or reports the missing one
func (h *DraftHandler) session(c fiber.Ctx) (*models.ApplicantSession, error) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		return nil, h.ErrorResponse(c, fiber.StatusUnauthorized, "Session not found in context", "MISSING_SESSION", nil)
	}
	return session, nil
}

// saveError maps the shared error surface of every draft mutation
func (h *DraftHandler) saveError(c fiber.Ctx, err error, logPrefix string) error {
	switch {
	case businessflow.IsApplicationNotFound(err):
		return h.ErrorResponse(c, fiber.StatusNotFound, "Application not found", "APPLICATION_NOT_FOUND", nil)
	case businessflow.IsApplicationNotEditable(err):
		return h.ErrorResponse(c, fiber.StatusConflict, "Application is no longer editable", "APPLICATION_NOT_EDITABLE", nil)
	case businessflow.IsUnknownStep(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Unknown step", "UNKNOWN_STEP", nil)
	case businessflow.IsStepNotReachable(err):
		return h.ErrorResponse(c, fiber.StatusForbidden, "Step is not reachable yet", "STEP_NOT_REACHABLE", nil)
	case businessflow.IsStepDataMalformed(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Step data is malformed", "STEP_DATA_MALFORMED", businessErrorDetails(err))
	case businessflow.IsSaveConflict(err):
		return h.ErrorResponse(c, fiber.StatusConflict, "A newer save already exists for this step", "SAVE_CONFLICT", businessErrorDetails(err))
	case businessflow.IsTransientSave(err):
		return h.ErrorResponse(c, fiber.StatusServiceUnavailable, "Draft could not be saved, please retry", "SAVE_TRANSIENT", nil)
	}

	log.Println(logPrefix, err)
	return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to save draft", "DRAFT_SAVE_FAILED", nil)
}

// businessErrorDetails surfaces the structured payload attached to a
// business error, e.g. the authoritative copy on a save conflict.
func businessErrorDetails(err error) any {
	if bizErr, ok := err.(*businessflow.BusinessError); ok {
		return bizErr.Details
	}
	return nil
}

// FetchDraft returns the reconciled draft for form rehydration
// @Summary Fetch Draft
// @Description Get the full draft state, step metadata and navigation view
// @Tags Draft
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.DraftResponse} "Draft retrieved successfully"
// @Failure 401 {object} dto.APIResponse "Unauthorized or session expired"
// @Failure 404 {object} dto.APIResponse "Application not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/applications/draft [get]
// @Security BearerAuth
func (h *DraftHandler) FetchDraft(c fiber.Ctx) error {
	session, errResp := h.session(c)
	if errResp != nil {
		return errResp
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.draftFlow.FetchDraft(ctx, session, clientMetadata(c))
	if err != nil {
		if businessflow.IsApplicationNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Application not found", "APPLICATION_NOT_FOUND", nil)
		}

		log.Println("Fetch draft failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve draft", "FETCH_DRAFT_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Draft retrieved successfully", result)
}

// SaveStep persists one wizard step against its base version
// @Summary Save Step
// @Description Save one wizard step's data; validation is advisory and rides the response
// @Tags Draft
// @Accept json
// @Produce json
// @Param request body dto.SaveStepRequest true "Step save data"
// @Success 200 {object} dto.APIResponse{data=dto.SaveStepResponse} "Step saved successfully"
// @Failure 400 {object} dto.APIResponse "Validation error or malformed step data"
// @Failure 401 {object} dto.APIResponse "Unauthorized or session expired"
// @Failure 403 {object} dto.APIResponse "Step not reachable yet"
// @Failure 409 {object} dto.APIResponse "Version conflict or application no longer editable"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/applications/draft/steps [put]
// @Security BearerAuth
func (h *DraftHandler) SaveStep(c fiber.Ctx) error {
	session, errResp := h.session(c)
	if errResp != nil {
		return errResp
	}

	var req dto.SaveStepRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.draftFlow.SaveStep(ctx, session, &req, clientMetadata(c))
	if err != nil {
		return h.saveError(c, err, "Save step failed")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Step saved successfully", result)
}

// AddBankAccount appends a row to the bank accounts section
// @Summary Add Bank Account
// @Description Append one bank account row to the banking relations step
// @Tags Draft
// @Accept json
// @Produce json
// @Param request body dto.BankAccountPayload true "Bank account data"
// @Success 200 {object} dto.APIResponse{data=dto.SaveStepResponse} "Bank account added successfully"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Unauthorized or session expired"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/applications/draft/bank-accounts [post]
// @Security BearerAuth
func (h *DraftHandler) AddBankAccount(c fiber.Ctx) error {
	return h.bankAccountMutation(c, h.draftFlow.AddBankAccount, "Bank account added successfully", "Add bank account failed")
}

// UpdateBankAccount replaces a bank account row in place
// @Summary Update Bank Account
// @Description Update one bank account row by its ID
// @Tags Draft
// @Accept json
// @Produce json
// @Param request body dto.BankAccountPayload true "Bank account data"
// @Success 200 {object} dto.APIResponse{data=dto.SaveStepResponse} "Bank account updated successfully"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Unauthorized or session expired"
// @Failure 404 {object} dto.APIResponse "Row not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/applications/draft/bank-accounts/{id} [put]
// @Security BearerAuth
func (h *DraftHandler) UpdateBankAccount(c fiber.Ctx) error {
	return h.bankAccountMutation(c, h.draftFlow.UpdateBankAccount, "Bank account updated successfully", "Update bank account failed")
}

func (h *DraftHandler) bankAccountMutation(c fiber.Ctx, op func(ctx context.Context, session *models.ApplicantSession, payload *dto.BankAccountPayload, metadata *businessflow.ClientMetadata) (*dto.SaveStepResponse, error), successMessage, logPrefix string) error {
	session, errResp := h.session(c)
	if errResp != nil {
		return errResp
	}

	var payload dto.BankAccountPayload
	if err := c.Bind().JSON(&payload); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if id := c.Params("id"); id != "" {
		payload.ID = id
	}

	if err := h.validator.Struct(&payload); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := op(ctx, session, &payload, clientMetadata(c))
	if err != nil {
		return h.saveError(c, err, logPrefix)
	}

	return h.SuccessResponse(c, fiber.StatusOK, successMessage, result)
}

// RemoveBankAccount deletes a bank account row
// @Summary Remove Bank Account
// @Description Remove one bank account row by its ID
// @Tags Draft
// @Produce json
// @Param id path string true "Bank account row ID"
// @Success 200 {object} dto.APIResponse{data=dto.SaveStepResponse} "Bank account removed successfully"
// @Failure 401 {object} dto.APIResponse "Unauthorized or session expired"
// @Failure 404 {object} dto.APIResponse "Row not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/applications/draft/bank-accounts/{id} [delete]
// @Security BearerAuth
func (h *DraftHandler) RemoveBankAccount(c fiber.Ctx) error {
	return h.rowRemoval(c, h.draftFlow.RemoveBankAccount, "Bank account removed successfully", "Remove bank account failed")
}

// AddCreditFacility appends a row to the credit facilities section
// @Summary Add Credit Facility
// @Description Append one existing credit facility row to the financial obligations step
// @Tags Draft
// @Accept json
// @Produce json
// @Param request body dto.CreditFacilityPayload true "Credit facility data"
// @Success 200 {object} dto.APIResponse{data=dto.SaveStepResponse} "Credit facility added successfully"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Unauthorized or session expired"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/applications/draft/credit-facilities [post]
// @Security BearerAuth
func (h *DraftHandler) AddCreditFacility(c fiber.Ctx) error {
	return h.creditFacilityMutation(c, h.draftFlow.AddCreditFacility, "Credit facility added successfully", "Add credit facility failed")
}

// UpdateCreditFacility replaces a credit facility row in place
// @Summary Update Credit Facility
// @Description Update one credit facility row by its ID
// @Tags Draft
// @Accept json
// @Produce json
// @Param request body dto.CreditFacilityPayload true "Credit facility data"
// @Success 200 {object} dto.APIResponse{data=dto.SaveStepResponse} "Credit facility updated successfully"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Unauthorized or session expired"
// @Failure 404 {object} dto.APIResponse "Row not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/applications/draft/credit-facilities/{id} [put]
// @Security BearerAuth
func (h *DraftHandler) UpdateCreditFacility(c fiber.Ctx) error {
	return h.creditFacilityMutation(c, h.draftFlow.UpdateCreditFacility, "Credit facility updated successfully", "Update credit facility failed")
}

func (h *DraftHandler) creditFacilityMutation(c fiber.Ctx, op func(ctx context.Context, session *models.ApplicantSession, payload *dto.CreditFacilityPayload, metadata *businessflow.ClientMetadata) (*dto.SaveStepResponse, error), successMessage, logPrefix string) error {
	session, errResp := h.session(c)
	if errResp != nil {
		return errResp
	}

	var payload dto.CreditFacilityPayload
	if err := c.Bind().JSON(&payload); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if id := c.Params("id"); id != "" {
		payload.ID = id
	}

	if err := h.validator.Struct(&payload); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := op(ctx, session, &payload, clientMetadata(c))
	if err != nil {
		return h.saveError(c, err, logPrefix)
	}

	return h.SuccessResponse(c, fiber.StatusOK, successMessage, result)
}

// RemoveCreditFacility deletes a credit facility row
// @Summary Remove Credit Facility
// @Description Remove one credit facility row by its ID
// @Tags Draft
// @Produce json
// @Param id path string true "Credit facility row ID"
// @Success 200 {object} dto.APIResponse{data=dto.SaveStepResponse} "Credit facility removed successfully"
// @Failure 401 {object} dto.APIResponse "Unauthorized or session expired"
// @Failure 404 {object} dto.APIResponse "Row not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/applications/draft/credit-facilities/{id} [delete]
// @Security BearerAuth
func (h *DraftHandler) RemoveCreditFacility(c fiber.Ctx) error {
	return h.rowRemoval(c, h.draftFlow.RemoveCreditFacility, "Credit facility removed successfully", "Remove credit facility failed")
}

// AddReference appends a row to the references section
// @Summary Add Reference
// @Description Append one personal reference row to the references step
// @Tags Draft
// @Accept json
// @Produce json
// @Param request body dto.ReferencePayload true "Reference data"
// @Success 200 {object} dto.APIResponse{data=dto.SaveStepResponse} "Reference added successfully"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Unauthorized or session expired"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/applications/draft/references [post]
// @Security BearerAuth
func (h *DraftHandler) AddReference(c fiber.Ctx) error {
	return h.referenceMutation(c, h.draftFlow.AddReference, "Reference added successfully", "Add reference failed")
}

// UpdateReference replaces a reference row in place
// @Summary Update Reference
// @Description Update one personal reference row by its ID
// @Tags Draft
// @Accept json
// @Produce json
// @Param request body dto.ReferencePayload true "Reference data"
// @Success 200 {object} dto.APIResponse{data=dto.SaveStepResponse} "Reference updated successfully"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Unauthorized or session expired"
// @Failure 404 {object} dto.APIResponse "Row not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/applications/draft/references/{id} [put]
// @Security BearerAuth
func (h *DraftHandler) UpdateReference(c fiber.Ctx) error {
	return h.referenceMutation(c, h.draftFlow.UpdateReference, "Reference updated successfully", "Update reference failed")
}

func (h *DraftHandler) referenceMutation(c fiber.Ctx, op func(ctx context.Context, session *models.ApplicantSession, payload *dto.ReferencePayload, metadata *businessflow.ClientMetadata) (*dto.SaveStepResponse, error), successMessage, logPrefix string) error {
	session, errResp := h.session(c)
	if errResp != nil {
		return errResp
	}

	var payload dto.ReferencePayload
	if err := c.Bind().JSON(&payload); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if id := c.Params("id"); id != "" {
		payload.ID = id
	}

	if err := h.validator.Struct(&payload); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := op(ctx, session, &payload, clientMetadata(c))
	if err != nil {
		return h.saveError(c, err, logPrefix)
	}

	return h.SuccessResponse(c, fiber.StatusOK, successMessage, result)
}

// RemoveReference deletes a reference row
// @Summary Remove Reference
// @Description Remove one personal reference row by its ID
// @Tags Draft
// @Produce json
// @Param id path string true "Reference row ID"
// @Success 200 {object} dto.APIResponse{data=dto.SaveStepResponse} "Reference removed successfully"
// @Failure 401 {object} dto.APIResponse "Unauthorized or session expired"
// @Failure 404 {object} dto.APIResponse "Row not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/applications/draft/references/{id} [delete]
// @Security BearerAuth
func (h *DraftHandler) RemoveReference(c fiber.Ctx) error {
	return h.rowRemoval(c, h.draftFlow.RemoveReference, "Reference removed successfully", "Remove reference failed")
}

func (h *DraftHandler) rowRemoval(c fiber.Ctx, op func(ctx context.Context, session *models.ApplicantSession, rowID string, metadata *businessflow.ClientMetadata) (*dto.SaveStepResponse, error), successMessage, logPrefix string) error {
	session, errResp := h.session(c)
	if errResp != nil {
		return errResp
	}

	rowID := c.Params("id")
	if _, err := uuid.Parse(rowID); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid row ID", "INVALID_ROW_ID", nil)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := op(ctx, session, rowID, clientMetadata(c))
	if err != nil {
		return h.saveError(c, err, logPrefix)
	}

	return h.SuccessResponse(c, fiber.StatusOK, successMessage, result)
}

// SetSupplementaryCard flips the supplementary card gate
// @Summary Toggle Supplementary Card
// @Description Enable or disable the supplementary card; disabling wipes the stored holder
// @Tags Draft
// @Accept json
// @Produce json
// @Param request body dto.SupplementaryToggleRequest true "Supplementary toggle"
// @Success 200 {object} dto.APIResponse{data=dto.SaveStepResponse} "Supplementary card preference saved"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Unauthorized or session expired"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/applications/draft/supplementary [put]
// @Security BearerAuth
func (h *DraftHandler) SetSupplementaryCard(c fiber.Ctx) error {
	session, errResp := h.session(c)
	if errResp != nil {
		return errResp
	}

	var req dto.SupplementaryToggleRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.draftFlow.SetSupplementaryCard(ctx, session, &req, clientMetadata(c))
	if err != nil {
		return h.saveError(c, err, "Toggle supplementary card failed")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Supplementary card preference saved", result)
}

// SetAcceptance records the submission-gate consents
// @Summary Set Acceptance
// @Description Record the terms and declaration consents gating submission
// @Tags Draft
// @Accept json
// @Produce json
// @Param request body dto.AcceptanceRequest true "Acceptance flags"
// @Success 200 {object} dto.APIResponse{data=dto.SaveStepResponse} "Acceptance saved"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Unauthorized or session expired"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/applications/draft/acceptance [put]
// @Security BearerAuth
func (h *DraftHandler) SetAcceptance(c fiber.Ctx) error {
	session, errResp := h.session(c)
	if errResp != nil {
		return errResp
	}

	var req dto.AcceptanceRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.draftFlow.SetAcceptance(ctx, session, &req, clientMetadata(c))
	if err != nil {
		return h.saveError(c, err, "Set acceptance failed")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Acceptance saved", result)
}

// DiscardDraft hard-deletes the draft and retires the session
// @Summary Discard Draft
// @Description Permanently delete the draft application and close the session
// @Tags Draft
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.DiscardDraftResponse} "Draft discarded successfully"
// @Failure 401 {object} dto.APIResponse "Unauthorized or session expired"
// @Failure 404 {object} dto.APIResponse "Application not found"
// @Failure 409 {object} dto.APIResponse "Application already submitted"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/applications/draft [delete]
// @Security BearerAuth
func (h *DraftHandler) DiscardDraft(c fiber.Ctx) error {
	session, errResp := h.session(c)
	if errResp != nil {
		return errResp
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.draftFlow.DiscardDraft(ctx, session, clientMetadata(c))
	if err != nil {
		if businessflow.IsApplicationNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Application not found", "APPLICATION_NOT_FOUND", nil)
		}
		if businessflow.IsApplicationSubmitted(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Submitted applications cannot be discarded", "APPLICATION_SUBMITTED", nil)
		}

		log.Println("Discard draft failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to discard draft", "DISCARD_DRAFT_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Draft discarded successfully", result)
}
