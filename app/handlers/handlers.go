// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"fmt"
	"time"

	businessflow "github.com/appform-bd/cardapply/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

func getValidationErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return err.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		return err.Field() + " must be at least " + err.Param()
	case "max":
		return err.Field() + " must be at most " + err.Param()
	case "len":
		return err.Field() + " must be exactly " + err.Param() + " characters"
	case "oneof":
		return err.Field() + " must be one of: " + err.Param()
	case "uuid4":
		return err.Field() + " must be a valid UUID"
	case "numeric", "digits":
		return err.Field() + " must contain only numbers"
	case "bd_mobile":
		return "Mobile number must be 11 digits starting with 01"
	case "bd_nid":
		return "National ID must be 10, 13 or 17 digits"
	case "bd_postcode":
		return "Postcode must be 4 digits"
	case "bd_tin":
		return "TIN must be 12 digits"
	case "decimal_amount":
		return err.Field() + " must be a non-negative decimal amount"
	case "decimal_percent":
		return err.Field() + " must be a percentage between 0 and 100"
	case "date_ymd":
		return err.Field() + " must be a date in YYYY-MM-DD format"
	case "adult_18":
		return "Applicant must be at least 18 years old"
	case "emboss_name":
		return err.Field() + " must be uppercase letters, spaces and dots only"
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", err.Field(), err.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", err.Field(), err.Param())
	default:
		return err.Field() + " is invalid"
	}
}

// validationMessages flattens validator errors into the message list carried
// by VALIDATION_ERROR responses.
func validationMessages(err error) []string {
	var messages []string
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, verr := range verrs {
			messages = append(messages, getValidationErrorMessage(verr))
		}
		return messages
	}
	return []string{err.Error()}
}

// requestContext creates a context with request-scoped values for
// observability and a default timeout. Callers must defer the cancel func.
func requestContext(c fiber.Ctx) (context.Context, context.CancelFunc) {
	return requestContextWithTimeout(c, 30*time.Second)
}

func requestContextWithTimeout(c fiber.Ctx, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, businessflow.RequestIDKey, c.Get("X-Request-ID"))
	return ctx, cancel
}

// clientMetadata captures the caller identity recorded on audit rows
func clientMetadata(c fiber.Ctx) *businessflow.ClientMetadata {
	return businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
}
