// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"

	"github.com/appform-bd/cardapply/models"
	"github.com/appform-bd/cardapply/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OTPVerificationRepositoryImpl implements OTPVerificationRepository interface
type OTPVerificationRepositoryImpl struct {
	*BaseRepository[models.OTPVerification, models.OTPVerificationFilter]
}

// NewOTPVerificationRepository creates a new OTP verification repository
func NewOTPVerificationRepository(db *gorm.DB) OTPVerificationRepository {
	return &OTPVerificationRepositoryImpl{
		BaseRepository: NewBaseRepository[models.OTPVerification, models.OTPVerificationFilter](db),
	}
}

// LatestPendingByApplication retrieves the newest pending OTP for an application
func (r *OTPVerificationRepositoryImpl) LatestPendingByApplication(ctx context.Context, applicationID uint) (*models.OTPVerification, error) {
	db := r.getDB(ctx)

	var otp models.OTPVerification
	err := db.Where("application_id = ? AND status = ?", applicationID, models.OTPStatusPending).
		Order("created_at DESC").
		First(&otp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &otp, nil
}

// ExpireOldOTPs marks pending OTPs of an application as expired. Only the
// status column moves; the code and attempt history stay for audit.
func (r *OTPVerificationRepositoryImpl) ExpireOldOTPs(ctx context.Context, applicationID uint) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Model(&models.OTPVerification{}).
		Where("application_id = ? AND status = ?", applicationID, models.OTPStatusPending).
		Update("status", models.OTPStatusExpired).Error
	if err != nil {
		return err
	}

	return nil
}

// GetLatestByCorrelationID retrieves the most recent OTP row in a correlation chain
func (r *OTPVerificationRepositoryImpl) GetLatestByCorrelationID(ctx context.Context, correlationID uuid.UUID) (*models.OTPVerification, error) {
	db := r.getDB(ctx)

	var otp models.OTPVerification
	err := db.Where("correlation_id = ?", correlationID).
		Order("created_at DESC").
		First(&otp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &otp, nil
}

// GetHistoryByCorrelationID retrieves the full OTP chain oldest-first
func (r *OTPVerificationRepositoryImpl) GetHistoryByCorrelationID(ctx context.Context, correlationID uuid.UUID) ([]*models.OTPVerification, error) {
	filter := models.OTPVerificationFilter{CorrelationID: &correlationID}
	return r.ByFilter(ctx, filter, "created_at ASC", 0, 0)
}

// MarkVerified records a successful verification on an OTP row
func (r *OTPVerificationRepositoryImpl) MarkVerified(ctx context.Context, otpID uint) error {
	db := r.getDB(ctx)
	return db.Model(&models.OTPVerification{}).
		Where("id = ?", otpID).
		Updates(map[string]any{
			"status":      models.OTPStatusVerified,
			"verified_at": utils.UTCNow(),
		}).Error
}

// IncrementAttempts bumps the attempt counter; failed additionally flips the
// row to failed once the caller decides attempts are exhausted.
func (r *OTPVerificationRepositoryImpl) IncrementAttempts(ctx context.Context, otpID uint, failed bool) error {
	db := r.getDB(ctx)

	updates := map[string]any{
		"attempts_count": gorm.Expr("attempts_count + 1"),
	}
	if failed {
		updates["status"] = models.OTPStatusFailed
	}

	return db.Model(&models.OTPVerification{}).
		Where("id = ?", otpID).
		Updates(updates).Error
}

// ByFilter retrieves OTP verifications based on filter criteria
func (r *OTPVerificationRepositoryImpl) ByFilter(ctx context.Context, filter models.OTPVerificationFilter, orderBy string, limit, offset int) ([]*models.OTPVerification, error) {
	db := r.getDB(ctx)

	var otps []*models.OTPVerification
	query := r.applyFilter(db, filter)

	if orderBy != "" {
		query = query.Order(orderBy)
	}

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&otps).Error
	if err != nil {
		return nil, err
	}

	return otps, nil
}

// Count returns the number of OTP verifications matching the filter
func (r *OTPVerificationRepositoryImpl) Count(ctx context.Context, filter models.OTPVerificationFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.OTPVerification{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any OTP verification matching the filter exists
func (r *OTPVerificationRepositoryImpl) Exists(ctx context.Context, filter models.OTPVerificationFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *OTPVerificationRepositoryImpl) applyFilter(db *gorm.DB, filter models.OTPVerificationFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.CorrelationID != nil {
		db = db.Where("correlation_id = ?", *filter.CorrelationID)
	}
	if filter.ApplicationID != nil {
		db = db.Where("application_id = ?", *filter.ApplicationID)
	}
	if filter.MobileNumber != nil {
		db = db.Where("mobile_number = ?", *filter.MobileNumber)
	}
	if filter.Status != nil {
		db = db.Where("status = ?", *filter.Status)
	}
	if filter.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("created_at < ?", *filter.CreatedBefore)
	}
	if filter.ExpiresAfter != nil {
		db = db.Where("expires_at >= ?", *filter.ExpiresAfter)
	}
	if filter.ExpiresBefore != nil {
		db = db.Where("expires_at < ?", *filter.ExpiresBefore)
	}

	return db
}
