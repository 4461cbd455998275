// Package businessflow contains the core business logic and use cases for card application workflows
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Session-related errors
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session has expired")
	ErrSessionInactive = errors.New("session is inactive")

	// Application-related errors
	ErrApplicationNotFound    = errors.New("application not found")
	ErrApplicationNotEditable = errors.New("application is no longer editable")
	ErrApplicationSubmitted   = errors.New("application has already been submitted")
	ErrApplicationNotDraft    = errors.New("application is not in draft state")
	ErrIdentityRequired       = errors.New("mobile number and national ID are required")

	// Step-related errors
	ErrUnknownStep       = errors.New("unknown step")
	ErrStepNotReachable  = errors.New("step is not reachable yet")
	ErrStepDataMalformed = errors.New("step data is malformed")
	ErrSaveConflict      = errors.New("a newer save already exists for this step")
	ErrTransientSave     = errors.New("draft could not be saved")

	// OTP-related errors
	ErrNoValidOTPFound   = errors.New("no valid OTP found")
	ErrInvalidOTPCode    = errors.New("invalid OTP code")
	ErrOTPExpired        = errors.New("OTP has expired")
	ErrOTPNotVerified    = errors.New("mobile number is not verified")
	ErrOTPLocked         = errors.New("OTP verification is locked")
	ErrOTPRateLimited    = errors.New("too many OTP requests")
	ErrAlreadyVerified   = errors.New("already verified")
	ErrMobileRequired    = errors.New("mobile number is required")
	ErrCacheNotAvailable = errors.New("cache not available")

	// Submission errors
	ErrSubmissionRejected = errors.New("application is not complete")
	ErrTermsNotAccepted   = errors.New("terms and declarations must be accepted")

	// Review lifecycle errors
	ErrReviewTransitionNotAllowed = errors.New("status transition not allowed")
	ErrReviewerNoteRequired       = errors.New("reviewer note is required")
	ErrApplicationNotUnderReview  = errors.New("application is not under review")

	// Card product errors
	ErrCardProductNotFound = errors.New("card product not found")
	ErrCardProductInactive = errors.New("card product is inactive")

	// Staff-related errors
	ErrStaffNotFound      = errors.New("staff user not found")
	ErrStaffInactive      = errors.New("staff account is inactive")
	ErrIncorrectPassword  = errors.New("incorrect password")
	ErrInvalidCaptcha     = errors.New("captcha verification failed")
	ErrSupervisorRequired = errors.New("supervisor role is required")

	// Filter errors
	ErrInvalidPage           = errors.New("page must be at least 1")
	ErrInvalidPageSize       = errors.New("page size must be between 1 and 100")
	ErrStartDateAfterEndDate = errors.New("start date cannot be after end date")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error

	// Details optionally carries a structured payload for the API error
	// body, e.g. the authoritative step copy on a save conflict.
	Details any
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

// NewBusinessErrorWithDetails attaches a structured payload for the API
// error body.
func NewBusinessErrorWithDetails(code, message string, err error, details any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
		Details: details,
	}
}

// IsBusinessError reports whether err already carries a business error code.
func IsBusinessError(err error) bool {
	var be *BusinessError
	return errors.As(err, &be)
}

// AsBusinessError unwraps the business error carried by err, if any.
func AsBusinessError(err error) (*BusinessError, bool) {
	var be *BusinessError
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}

func IsSessionNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound)
}

func IsSessionExpired(err error) bool {
	return errors.Is(err, ErrSessionExpired)
}

func IsSessionInactive(err error) bool {
	return errors.Is(err, ErrSessionInactive)
}

func IsApplicationNotFound(err error) bool {
	return errors.Is(err, ErrApplicationNotFound)
}

func IsApplicationNotEditable(err error) bool {
	return errors.Is(err, ErrApplicationNotEditable)
}

func IsApplicationSubmitted(err error) bool {
	return errors.Is(err, ErrApplicationSubmitted)
}

func IsApplicationNotDraft(err error) bool {
	return errors.Is(err, ErrApplicationNotDraft)
}

func IsIdentityRequired(err error) bool {
	return errors.Is(err, ErrIdentityRequired)
}

func IsUnknownStep(err error) bool {
	return errors.Is(err, ErrUnknownStep)
}

func IsStepNotReachable(err error) bool {
	return errors.Is(err, ErrStepNotReachable)
}

func IsStepDataMalformed(err error) bool {
	return errors.Is(err, ErrStepDataMalformed)
}

func IsSaveConflict(err error) bool {
	return errors.Is(err, ErrSaveConflict)
}

func IsTransientSave(err error) bool {
	return errors.Is(err, ErrTransientSave)
}

func IsNoValidOTPFound(err error) bool {
	return errors.Is(err, ErrNoValidOTPFound)
}

func IsInvalidOTPCode(err error) bool {
	return errors.Is(err, ErrInvalidOTPCode)
}

func IsOTPExpired(err error) bool {
	return errors.Is(err, ErrOTPExpired)
}

func IsOTPNotVerified(err error) bool {
	return errors.Is(err, ErrOTPNotVerified)
}

func IsOTPLocked(err error) bool {
	return errors.Is(err, ErrOTPLocked)
}

func IsOTPRateLimited(err error) bool {
	return errors.Is(err, ErrOTPRateLimited)
}

func IsAlreadyVerified(err error) bool {
	return errors.Is(err, ErrAlreadyVerified)
}

func IsMobileRequired(err error) bool {
	return errors.Is(err, ErrMobileRequired)
}

func IsCacheNotAvailable(err error) bool {
	return errors.Is(err, ErrCacheNotAvailable)
}

func IsSubmissionRejected(err error) bool {
	return errors.Is(err, ErrSubmissionRejected)
}

func IsTermsNotAccepted(err error) bool {
	return errors.Is(err, ErrTermsNotAccepted)
}

func IsReviewTransitionNotAllowed(err error) bool {
	return errors.Is(err, ErrReviewTransitionNotAllowed)
}

func IsReviewerNoteRequired(err error) bool {
	return errors.Is(err, ErrReviewerNoteRequired)
}

func IsApplicationNotUnderReview(err error) bool {
	return errors.Is(err, ErrApplicationNotUnderReview)
}

func IsCardProductNotFound(err error) bool {
	return errors.Is(err, ErrCardProductNotFound)
}

func IsCardProductInactive(err error) bool {
	return errors.Is(err, ErrCardProductInactive)
}

func IsStaffNotFound(err error) bool {
	return errors.Is(err, ErrStaffNotFound)
}

func IsStaffInactive(err error) bool {
	return errors.Is(err, ErrStaffInactive)
}

func IsIncorrectPassword(err error) bool {
	return errors.Is(err, ErrIncorrectPassword)
}

func IsInvalidCaptcha(err error) bool {
	return errors.Is(err, ErrInvalidCaptcha)
}

func IsSupervisorRequired(err error) bool {
	return errors.Is(err, ErrSupervisorRequired)
}

func IsInvalidPage(err error) bool {
	return errors.Is(err, ErrInvalidPage)
}

func IsInvalidPageSize(err error) bool {
	return errors.Is(err, ErrInvalidPageSize)
}

func IsStartDateAfterEndDate(err error) bool {
	return errors.Is(err, ErrStartDateAfterEndDate)
}
