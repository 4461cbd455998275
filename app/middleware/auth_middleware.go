// Package middleware contains HTTP middleware functions for request processing
package middleware

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/appform-bd/cardapply/app/dto"
	"github.com/appform-bd/cardapply/app/services"
	businessflow "github.com/appform-bd/cardapply/business_flow"
	"github.com/appform-bd/cardapply/models"
)

// Context locals set by the middleware for downstream handlers
const (
	// SessionLocal holds the resolved *models.ApplicantSession
	SessionLocal = "applicant_session"
	// StaffLocal holds the resolved *models.StaffUser
	StaffLocal = "staff_user"
	// AccessTokenLocal holds the raw bearer token (staff logout revokes it)
	AccessTokenLocal = "access_token"
)

// AuthMiddleware guards the two protected route groups: applicant wizard
// sessions and staff back-office accounts. Tokens only name the principal;
// the database row decides whether the principal is still welcome.
type AuthMiddleware struct {
	tokenService  services.TokenService
	sessionFlow   businessflow.SessionFlow
	staffAuthFlow businessflow.StaffAuthFlow
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(tokenService services.TokenService, sessionFlow businessflow.SessionFlow, staffAuthFlow businessflow.StaffAuthFlow) *AuthMiddleware {
	return &AuthMiddleware{
		tokenService:  tokenService,
		sessionFlow:   sessionFlow,
		staffAuthFlow: staffAuthFlow,
	}
}

// AuthenticateSession validates the wizard session token and resolves the
// live session row. Expired sessions surface SESSION_EXPIRED so the client
// knows the local draft is kept and a fresh OTP round will resume it.
func (m *AuthMiddleware) AuthenticateSession() fiber.Handler {
	return func(c fiber.Ctx) error {
		token, errResp := bearerToken(c)
		if errResp != nil {
			return errResp(c)
		}

		claims, err := m.tokenService.ValidateSessionToken(token)
		if err != nil {
			return unauthorized(c, tokenErrorCode(err), tokenErrorMessage(err))
		}
		if claims.SessionUUID == uuid.Nil {
			return unauthorized(c, "TOKEN_INVALID", "Invalid session token")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		session, err := m.sessionFlow.ResolveSession(ctx, claims.SessionUUID)
		if err != nil {
			switch {
			case businessflow.IsSessionExpired(err):
				return unauthorized(c, "SESSION_EXPIRED", "Session has expired. Your draft is preserved; verify your mobile number to resume.")
			case businessflow.IsSessionInactive(err):
				return unauthorized(c, "SESSION_INACTIVE", "Session is no longer active")
			case businessflow.IsSessionNotFound(err):
				return unauthorized(c, "SESSION_NOT_FOUND", "Session not found")
			default:
				return unauthorized(c, "SESSION_VALIDATION_FAILED", "Session validation failed")
			}
		}

		c.Locals(SessionLocal, session)

		// Store RequestID for audit logging
		if requestID := c.Get("X-Request-ID"); requestID != "" {
			c.Locals("request_id", requestID)
		}

		return c.Next()
	}
}

// AuthenticateStaff validates a staff access token and resolves the account
func (m *AuthMiddleware) AuthenticateStaff() fiber.Handler {
	return func(c fiber.Ctx) error {
		token, errResp := bearerToken(c)
		if errResp != nil {
			return errResp(c)
		}

		claims, err := m.tokenService.ValidateStaffToken(token)
		if err != nil {
			return unauthorized(c, tokenErrorCode(err), tokenErrorMessage(err))
		}
		if claims.TokenType != "access" {
			return unauthorized(c, "TOKEN_INVALID", "An access token is required")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		staff, err := m.staffAuthFlow.ResolveStaff(ctx, claims.StaffID)
		if err != nil {
			if businessflow.IsStaffInactive(err) {
				return unauthorized(c, "ACCOUNT_INACTIVE", "Staff account is inactive")
			}
			return unauthorized(c, "STAFF_VALIDATION_FAILED", "Staff validation failed")
		}

		c.Locals(StaffLocal, staff)
		c.Locals(AccessTokenLocal, token)

		// Store RequestID for audit logging
		if requestID := c.Get("X-Request-ID"); requestID != "" {
			c.Locals("request_id", requestID)
		}

		return c.Next()
	}
}

// SessionFromContext returns the session resolved by AuthenticateSession
func SessionFromContext(c fiber.Ctx) (*models.ApplicantSession, bool) {
	session, ok := c.Locals(SessionLocal).(*models.ApplicantSession)
	return session, ok
}

// StaffFromContext returns the staff account resolved by AuthenticateStaff
func StaffFromContext(c fiber.Ctx) (*models.StaffUser, bool) {
	staff, ok := c.Locals(StaffLocal).(*models.StaffUser)
	return staff, ok
}

// bearerToken extracts the bearer token, or returns the error responder for
// a malformed header.
func bearerToken(c fiber.Ctx) (string, func(fiber.Ctx) error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", func(c fiber.Ctx) error {
			return unauthorized(c, "MISSING_AUTHORIZATION_HEADER", "Authorization header is required")
		}
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", func(c fiber.Ctx) error {
			return unauthorized(c, "INVALID_AUTHORIZATION_FORMAT", "Invalid authorization header format. Expected 'Bearer <token>'")
		}
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return "", func(c fiber.Ctx) error {
			return unauthorized(c, "MISSING_ACCESS_TOKEN", "Access token is required")
		}
	}
	return token, nil
}

func tokenErrorCode(err error) string {
	switch {
	case errors.Is(err, services.ErrTokenExpired):
		return "TOKEN_EXPIRED"
	case errors.Is(err, services.ErrTokenRevoked):
		return "TOKEN_REVOKED"
	case errors.Is(err, services.ErrTokenInvalid):
		return "TOKEN_INVALID"
	default:
		return "TOKEN_VALIDATION_FAILED"
	}
}

func tokenErrorMessage(err error) string {
	switch {
	case errors.Is(err, services.ErrTokenExpired):
		return "Token has expired"
	case errors.Is(err, services.ErrTokenRevoked):
		return "Token has been revoked"
	case errors.Is(err, services.ErrTokenInvalid):
		return "Invalid token"
	default:
		return "Token validation failed"
	}
}

func unauthorized(c fiber.Ctx, code, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code: code,
		},
	})
}
