// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"log"

	"github.com/appform-bd/cardapply/app/dto"
	"github.com/appform-bd/cardapply/app/middleware"
	businessflow "github.com/appform-bd/cardapply/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// OTPHandlerInterface defines the contract for OTP verification handlers
type OTPHandlerInterface interface {
	RequestOTP(c fiber.Ctx) error
	VerifyOTP(c fiber.Ctx) error
	OTPState(c fiber.Ctx) error
}

// OTPHandler handles mobile verification HTTP requests
type OTPHandler struct {
	otpFlow   businessflow.OTPFlow
	validator *validator.Validate
}

// NewOTPHandler creates a new OTP handler
func NewOTPHandler(otpFlow businessflow.OTPFlow) *OTPHandler {
	handler := &OTPHandler{
		otpFlow:   otpFlow,
		validator: validator.New(),
	}
	businessflow.RegisterWizardValidations(handler.validator)
	return handler
}

func (h *OTPHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *OTPHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// RequestOTP generates a verification code and queues it for SMS delivery
// @Summary Request OTP
// @Description Generate a verification code for the draft's mobile number
// @Tags OTP
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.OTPRequestResponse} "OTP sent successfully"
// @Failure 400 {object} dto.APIResponse "Mobile number missing from draft"
// @Failure 401 {object} dto.APIResponse "Unauthorized or session expired"
// @Failure 409 {object} dto.APIResponse "Mobile number already verified"
// @Failure 423 {object} dto.APIResponse "Verification locked"
// @Failure 429 {object} dto.APIResponse "Too many OTP requests"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/applications/otp/request [post]
// @Security BearerAuth
func (h *OTPHandler) RequestOTP(c fiber.Ctx) error {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Session not found in context", "MISSING_SESSION", nil)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.otpFlow.RequestOTP(ctx, session, clientMetadata(c))
	if err != nil {
		switch {
		case businessflow.IsMobileRequired(err):
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Save a mobile number before requesting verification", "MOBILE_REQUIRED", nil)
		case businessflow.IsAlreadyVerified(err):
			return h.ErrorResponse(c, fiber.StatusConflict, "Mobile number is already verified", "ALREADY_VERIFIED", nil)
		case businessflow.IsOTPLocked(err):
			return h.ErrorResponse(c, fiber.StatusLocked, "Verification is locked, try again later", "OTP_LOCKED", businessErrorDetails(err))
		case businessflow.IsOTPRateLimited(err):
			return h.ErrorResponse(c, fiber.StatusTooManyRequests, "Too many OTP requests", "OTP_RATE_LIMITED", businessErrorDetails(err))
		case businessflow.IsApplicationNotFound(err):
			return h.ErrorResponse(c, fiber.StatusNotFound, "Application not found", "APPLICATION_NOT_FOUND", nil)
		}

		log.Println("OTP request failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to send verification code", "OTP_REQUEST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Verification code sent", result)
}

// VerifyOTP checks the submitted code and marks the mobile number verified
// @Summary Verify OTP
// @Description Verify the submitted code; on success an earlier unfinished draft for the same identity may be resumed
// @Tags OTP
// @Accept json
// @Produce json
// @Param request body dto.OTPVerifyRequest true "OTP code"
// @Success 200 {object} dto.APIResponse{data=dto.OTPVerifyResponse} "Mobile number verified"
// @Failure 400 {object} dto.APIResponse "Invalid or expired code"
// @Failure 401 {object} dto.APIResponse "Unauthorized or session expired"
// @Failure 423 {object} dto.APIResponse "Verification locked"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/applications/otp/verify [post]
// @Security BearerAuth
func (h *OTPHandler) VerifyOTP(c fiber.Ctx) error {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Session not found in context", "MISSING_SESSION", nil)
	}

	var req dto.OTPVerifyRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.otpFlow.VerifyOTP(ctx, session, &req, clientMetadata(c))
	if err != nil {
		switch {
		case businessflow.IsNoValidOTPFound(err):
			return h.ErrorResponse(c, fiber.StatusBadRequest, "No verification code is pending, request a new one", "NO_VALID_OTP", nil)
		case businessflow.IsInvalidOTPCode(err):
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Incorrect verification code", "INVALID_OTP_CODE", businessErrorDetails(err))
		case businessflow.IsOTPExpired(err):
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Verification code has expired", "OTP_EXPIRED", nil)
		case businessflow.IsOTPLocked(err):
			return h.ErrorResponse(c, fiber.StatusLocked, "Verification is locked, try again later", "OTP_LOCKED", businessErrorDetails(err))
		case businessflow.IsAlreadyVerified(err):
			return h.ErrorResponse(c, fiber.StatusConflict, "Mobile number is already verified", "ALREADY_VERIFIED", nil)
		case businessflow.IsApplicationNotFound(err):
			return h.ErrorResponse(c, fiber.StatusNotFound, "Application not found", "APPLICATION_NOT_FOUND", nil)
		}

		log.Println("OTP verification failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to verify code", "OTP_VERIFICATION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Mobile number verified", result)
}

// OTPState describes the verification standing of the session's draft
// @Summary OTP State
// @Description Get the verification state, including rate-limit standing
// @Tags OTP
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.OTPStateResponse} "OTP state retrieved successfully"
// @Failure 401 {object} dto.APIResponse "Unauthorized or session expired"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/applications/otp/state [get]
// @Security BearerAuth
func (h *OTPHandler) OTPState(c fiber.Ctx) error {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Session not found in context", "MISSING_SESSION", nil)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.otpFlow.OTPState(ctx, session)
	if err != nil {
		if businessflow.IsApplicationNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Application not found", "APPLICATION_NOT_FOUND", nil)
		}

		log.Println("OTP state failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve verification state", "OTP_STATE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Verification state retrieved successfully", result)
}
