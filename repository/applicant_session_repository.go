package repository

import (
	"context"
	"errors"
	"time"

	"github.com/appform-bd/cardapply/models"
	"github.com/appform-bd/cardapply/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ApplicantSessionRepositoryImpl implements the ApplicantSessionRepository interface
type ApplicantSessionRepositoryImpl struct {
	*BaseRepository[models.ApplicantSession, models.ApplicantSessionFilter]
}

// NewApplicantSessionRepository creates a new applicant session repository
func NewApplicantSessionRepository(db *gorm.DB) ApplicantSessionRepository {
	return &ApplicantSessionRepositoryImpl{
		BaseRepository: NewBaseRepository[models.ApplicantSession, models.ApplicantSessionFilter](db),
	}
}

// BySessionUUID retrieves a session by its public UUID
func (r *ApplicantSessionRepositoryImpl) BySessionUUID(ctx context.Context, id uuid.UUID) (*models.ApplicantSession, error) {
	db := r.getDB(ctx)

	var session models.ApplicantSession
	err := db.Where("session_uuid = ?", id).Last(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &session, nil
}

// Update persists all fields of the session
func (r *ApplicantSessionRepositoryImpl) Update(ctx context.Context, session *models.ApplicantSession) error {
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

	err = db.Save(session).Error
	if err != nil {
		return err
	}

	return nil
}

// Touch refreshes last_accessed_at without touching anything else
func (r *ApplicantSessionRepositoryImpl) Touch(ctx context.Context, sessionID uint, lastAccessedAt time.Time) error {
	db := r.getDB(ctx)
	return db.Model(&models.ApplicantSession{}).
		Where("id = ?", sessionID).
		Update("last_accessed_at", lastAccessedAt).Error
}

// ExpireSession deactivates a session and pulls its expiry to now
func (r *ApplicantSessionRepositoryImpl) ExpireSession(ctx context.Context, sessionID uint) error {
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

	now := utils.UTCNow()
	err = db.Model(&models.ApplicantSession{}).
		Where("id = ?", sessionID).
		Updates(map[string]any{
			"is_active":  false,
			"expires_at": now,
		}).Error
	if err != nil {
		return err
	}

	return nil
}

// DeactivateExpired flips is_active off for sessions past their expiry
func (r *ApplicantSessionRepositoryImpl) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	db := r.getDB(ctx)

	res := db.Model(&models.ApplicantSession{}).
		Where("is_active = ? AND expires_at <= ?", true, now).
		Update("is_active", false)
	if res.Error != nil {
		return 0, res.Error
	}

	return res.RowsAffected, nil
}

// ByFilter retrieves sessions based on filter criteria
func (r *ApplicantSessionRepositoryImpl) ByFilter(ctx context.Context, filter models.ApplicantSessionFilter, orderBy string, limit, offset int) ([]*models.ApplicantSession, error) {
	db := r.getDB(ctx)

	var sessions []*models.ApplicantSession
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

	err := query.Find(&sessions).Error
	if err != nil {
		return nil, err
	}

	return sessions, nil
}

// Count returns the number of sessions matching the filter
func (r *ApplicantSessionRepositoryImpl) Count(ctx context.Context, filter models.ApplicantSessionFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.ApplicantSession{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any session matching the filter exists
func (r *ApplicantSessionRepositoryImpl) Exists(ctx context.Context, filter models.ApplicantSessionFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *ApplicantSessionRepositoryImpl) applyFilter(db *gorm.DB, filter models.ApplicantSessionFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.SessionUUID != nil {
		db = db.Where("session_uuid = ?", *filter.SessionUUID)
	}
	if filter.ApplicationID != nil {
		db = db.Where("application_id = ?", *filter.ApplicationID)
	}
	if filter.StaffUserID != nil {
		db = db.Where("staff_user_id = ?", *filter.StaffUserID)
	}
	if filter.Mode != nil {
		db = db.Where("mode = ?", *filter.Mode)
	}
	if filter.IsActive != nil {
		db = db.Where("is_active = ?", *filter.IsActive)
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
