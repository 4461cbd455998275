// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"log"

	"github.com/appform-bd/cardapply/app/dto"
	"github.com/appform-bd/cardapply/app/middleware"
	businessflow "github.com/appform-bd/cardapply/business_flow"
	"github.com/gofiber/fiber/v3"
)

// SubmissionHandlerInterface defines the contract for submission handlers
type SubmissionHandlerInterface interface {
	Submit(c fiber.Ctx) error
}

// SubmissionHandler handles the application submission HTTP request
type SubmissionHandler struct {
	submissionFlow businessflow.SubmissionFlow
}

// NewSubmissionHandler creates a new submission handler
func NewSubmissionHandler(submissionFlow businessflow.SubmissionFlow) *SubmissionHandler {
	return &SubmissionHandler{submissionFlow: submissionFlow}
}

func (h *SubmissionHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *SubmissionHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Submit finalizes the draft and hands it to the review queue
// @Summary Submit Application
// @Description Submit the completed application; re-validates every step server-side
// @Tags Applications
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.SubmitApplicationResponse} "Application submitted successfully"
// @Failure 401 {object} dto.APIResponse "Unauthorized or session expired"
// @Failure 409 {object} dto.APIResponse "Already submitted"
// @Failure 422 {object} dto.APIResponse "Application incomplete"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/applications/submit [post]
// @Security BearerAuth
func (h *SubmissionHandler) Submit(c fiber.Ctx) error {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Session not found in context", "MISSING_SESSION", nil)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.submissionFlow.Submit(ctx, session, clientMetadata(c))
	if err != nil {
		switch {
		case businessflow.IsApplicationNotFound(err):
			return h.ErrorResponse(c, fiber.StatusNotFound, "Application not found", "APPLICATION_NOT_FOUND", nil)
		case businessflow.IsApplicationSubmitted(err):
			return h.ErrorResponse(c, fiber.StatusConflict, "Application has already been submitted", "APPLICATION_SUBMITTED", nil)
		case businessflow.IsOTPNotVerified(err):
			return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, "Mobile number is not verified", "OTP_NOT_VERIFIED", nil)
		case businessflow.IsTermsNotAccepted(err):
			return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, "Terms and declarations must be accepted", "TERMS_NOT_ACCEPTED", nil)
		case businessflow.IsSubmissionRejected(err):
			return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, "Application is not complete", "SUBMISSION_REJECTED", businessErrorDetails(err))
		}

		log.Println("Submission failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to submit application", "SUBMISSION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Application submitted successfully", result)
}
