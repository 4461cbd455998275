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

// StaffAuthHandlerInterface defines the contract for staff authentication handlers
type StaffAuthHandlerInterface interface {
	GenerateCaptcha(c fiber.Ctx) error
	Login(c fiber.Ctx) error
	RefreshTokens(c fiber.Ctx) error
	Logout(c fiber.Ctx) error
}

// StaffAuthHandler handles staff authentication HTTP requests
type StaffAuthHandler struct {
	staffAuthFlow businessflow.StaffAuthFlow
	validator     *validator.Validate
}

// NewStaffAuthHandler creates a new staff authentication handler
func NewStaffAuthHandler(staffAuthFlow businessflow.StaffAuthFlow) *StaffAuthHandler {
	return &StaffAuthHandler{
		staffAuthFlow: staffAuthFlow,
		validator:     validator.New(),
	}
}

func (h *StaffAuthHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *StaffAuthHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// GenerateCaptcha issues a rotate-captcha challenge for the login form
// @Summary Generate Captcha
// @Description Get a rotation captcha challenge required before staff login
// @Tags Staff
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.CaptchaResponse} "Captcha generated successfully"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/staff/captcha [get]
func (h *StaffAuthHandler) GenerateCaptcha(c fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.staffAuthFlow.GenerateCaptcha(ctx)
	if err != nil {
		log.Println("Captcha generation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to generate captcha", "CAPTCHA_GENERATION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Captcha generated successfully", result)
}

// Login authenticates a staff account
// @Summary Staff Login
// @Description Authenticate with username, password and a solved captcha
// @Tags Staff
// @Accept json
// @Produce json
// @Param request body dto.StaffLoginRequest true "Login credentials"
// @Success 200 {object} dto.APIResponse{data=dto.StaffLoginResponse} "Login successful"
// @Failure 400 {object} dto.APIResponse "Validation error or captcha failure"
// @Failure 401 {object} dto.APIResponse "Invalid credentials or inactive account"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/staff/login [post]
func (h *StaffAuthHandler) Login(c fiber.Ctx) error {
	var req dto.StaffLoginRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.staffAuthFlow.Login(ctx, &req, clientMetadata(c))
	if err != nil {
		switch {
		case businessflow.IsInvalidCaptcha(err):
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Captcha verification failed", "INVALID_CAPTCHA", nil)
		case businessflow.IsStaffNotFound(err), businessflow.IsIncorrectPassword(err):
			// One code for both so usernames cannot be probed
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid username or password", "INVALID_CREDENTIALS", nil)
		case businessflow.IsStaffInactive(err):
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Staff account is inactive", "ACCOUNT_INACTIVE", nil)
		}

		log.Println("Staff login failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Login failed", "LOGIN_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Login successful", result)
}

// RefreshTokens rotates a staff refresh token into a fresh token pair
// @Summary Refresh Staff Tokens
// @Description Exchange a valid refresh token for a new access/refresh pair
// @Tags Staff
// @Accept json
// @Produce json
// @Param request body dto.StaffRefreshRequest true "Refresh token"
// @Success 200 {object} dto.APIResponse{data=dto.StaffRefreshResponse} "Tokens refreshed successfully"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Invalid, expired or revoked refresh token"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/staff/refresh [post]
func (h *StaffAuthHandler) RefreshTokens(c fiber.Ctx) error {
	var req dto.StaffRefreshRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.staffAuthFlow.RefreshTokens(ctx, &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsStaffInactive(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Staff account is inactive", "ACCOUNT_INACTIVE", nil)
		}

		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Refresh token is invalid or expired", "INVALID_REFRESH_TOKEN", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Tokens refreshed successfully", result)
}

// Logout revokes the presented tokens
// @Summary Staff Logout
// @Description Revoke the current access token and, when supplied, the refresh token
// @Tags Staff
// @Accept json
// @Produce json
// @Param request body dto.StaffLogoutRequest false "Refresh token to revoke"
// @Success 200 {object} dto.APIResponse "Logged out successfully"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/staff/logout [post]
// @Security BearerAuth
func (h *StaffAuthHandler) Logout(c fiber.Ctx) error {
	staff, ok := middleware.StaffFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Staff account not found in context", "MISSING_STAFF_ACCOUNT", nil)
	}
	accessToken, _ := c.Locals(middleware.AccessTokenLocal).(string)

	var req dto.StaffLogoutRequest
	// Body is optional; ignore bind errors for an empty body
	_ = c.Bind().JSON(&req)

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.staffAuthFlow.Logout(ctx, staff, accessToken, &req, clientMetadata(c)); err != nil {
		log.Println("Staff logout failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Logout failed", "LOGOUT_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Logged out successfully", nil)
}
