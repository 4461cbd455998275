// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/appform-bd/cardapply/models"
	"github.com/google/uuid"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// CardApplicationRepository defines operations for application drafts
type CardApplicationRepository interface {
	Repository[models.CardApplication, models.CardApplicationFilter]
	ByUUID(ctx context.Context, id uuid.UUID) (*models.CardApplication, error)
	// ByIDForUpdate loads the application row under a row lock. Draft
	// mutations use it inside a transaction so concurrent writers serialize
	// on the aggregate instead of clobbering each other's state column.
	ByIDForUpdate(ctx context.Context, id uint) (*models.CardApplication, error)
	// LatestUnfinishedByIdentity returns the newest editable application for
	// the mobile+NID pair, used by cross-session resume. excludeID removes the
	// caller's own freshly-created draft from consideration.
	LatestUnfinishedByIdentity(ctx context.Context, mobile, nationalID string, excludeID uint) (*models.CardApplication, error)
	Update(ctx context.Context, application *models.CardApplication) error
	UpdateStatus(ctx context.Context, applicationID uint, status models.ApplicationStatus) error
	Delete(ctx context.Context, applicationID uint) error
	// ListStaleDrafts returns editable applications untouched since the cutoff.
	ListStaleDrafts(ctx context.Context, updatedBefore time.Time, limit int) ([]*models.CardApplication, error)
}

// ApplicationStepRepository defines operations for per-step versioned records
type ApplicationStepRepository interface {
	Repository[models.ApplicationStepRecord, models.ApplicationStepFilter]
	ByApplicationAndStep(ctx context.Context, applicationID uint, stepNumber int) (*models.ApplicationStepRecord, error)
	ListByApplication(ctx context.Context, applicationID uint) ([]*models.ApplicationStepRecord, error)
	// UpsertVersioned records a step save: it creates the row at version 1 or
	// advances an existing row from expectedVersion to expectedVersion+1. A
	// false result means the optimistic guard lost (somebody else claimed the
	// successor version first).
	UpsertVersioned(ctx context.Context, record *models.ApplicationStepRecord, expectedVersion int) (bool, error)
	// RestoreVersion fast-forwards a row to a version recovered from the
	// cache mirror during reconciliation. It inserts a missing row, advances
	// a lower one, and never downgrades.
	RestoreVersion(ctx context.Context, record *models.ApplicationStepRecord) error
	DeleteByApplication(ctx context.Context, applicationID uint) error
}

// ApplicantSessionRepository defines operations for wizard sessions
type ApplicantSessionRepository interface {
	Repository[models.ApplicantSession, models.ApplicantSessionFilter]
	BySessionUUID(ctx context.Context, id uuid.UUID) (*models.ApplicantSession, error)
	Update(ctx context.Context, session *models.ApplicantSession) error
	Touch(ctx context.Context, sessionID uint, lastAccessedAt time.Time) error
	ExpireSession(ctx context.Context, sessionID uint) error
	// DeactivateExpired flips IsActive off for sessions past their expiry and
	// returns how many rows changed.
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

// OTPVerificationRepository defines operations for OTP verifications
type OTPVerificationRepository interface {
	Repository[models.OTPVerification, models.OTPVerificationFilter]
	LatestPendingByApplication(ctx context.Context, applicationID uint) (*models.OTPVerification, error)
	ExpireOldOTPs(ctx context.Context, applicationID uint) error
	GetLatestByCorrelationID(ctx context.Context, correlationID uuid.UUID) (*models.OTPVerification, error)
	GetHistoryByCorrelationID(ctx context.Context, correlationID uuid.UUID) ([]*models.OTPVerification, error)
	MarkVerified(ctx context.Context, otpID uint) error
	IncrementAttempts(ctx context.Context, otpID uint, failed bool) error
}

// CardProductRepository defines operations for the card catalog
type CardProductRepository interface {
	Repository[models.CardProduct, models.CardProductFilter]
	ByCode(ctx context.Context, code string) (*models.CardProduct, error)
	ListActive(ctx context.Context) ([]*models.CardProduct, error)
}

// StaffUserRepository defines operations for staff accounts
type StaffUserRepository interface {
	Repository[models.StaffUser, models.StaffUserFilter]
	ByUsername(ctx context.Context, username string) (*models.StaffUser, error)
	UpdateLastLogin(ctx context.Context, staffID uint, at time.Time) error
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
	ListByApplication(ctx context.Context, applicationID uint, limit, offset int) ([]*models.AuditLog, error)
	ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.AuditLog, error)
	ListFailedActions(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)
	ListSecurityEvents(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)
}
