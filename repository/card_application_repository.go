package repository

import (
	"context"
	"errors"
	"time"

	"github.com/appform-bd/cardapply/models"
	"github.com/appform-bd/cardapply/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CardApplicationRepositoryImpl implements the CardApplicationRepository interface
type CardApplicationRepositoryImpl struct {
	*BaseRepository[models.CardApplication, models.CardApplicationFilter]
}

// NewCardApplicationRepository creates a new card application repository
func NewCardApplicationRepository(db *gorm.DB) CardApplicationRepository {
	return &CardApplicationRepositoryImpl{
		BaseRepository: NewBaseRepository[models.CardApplication, models.CardApplicationFilter](db),
	}
}

// ByUUID retrieves an application by its public UUID
func (r *CardApplicationRepositoryImpl) ByUUID(ctx context.Context, id uuid.UUID) (*models.CardApplication, error) {
	db := r.getDB(ctx)

	var application models.CardApplication
	err := db.Preload("ReviewedBy").Where("uuid = ?", id).Last(&application).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &application, nil
}

// ByIDForUpdate loads the application row under FOR UPDATE. Only meaningful
// inside a transaction; concurrent draft writers queue here instead of
// overwriting each other's state column.
func (r *CardApplicationRepositoryImpl) ByIDForUpdate(ctx context.Context, id uint) (*models.CardApplication, error) {
	db := r.getDB(ctx)

	var application models.CardApplication
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&application, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &application, nil
}

// LatestUnfinishedByIdentity returns the newest editable application matching
// the mobile+NID pair, or nil when the applicant has no other draft in
// flight. The row most recently worked on wins, not the most recently
// created, so an abandoned newer shell never shadows real progress.
func (r *CardApplicationRepositoryImpl) LatestUnfinishedByIdentity(ctx context.Context, mobile, nationalID string, excludeID uint) (*models.CardApplication, error) {
	db := r.getDB(ctx)

	var application models.CardApplication
	err := db.Where("mobile_number = ? AND national_id = ? AND id <> ? AND status IN ?",
		mobile, nationalID, excludeID,
		[]models.ApplicationStatus{models.ApplicationStatusDraft, models.ApplicationStatusPendingOTP}).
		Order("updated_at DESC").
		First(&application).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &application, nil
}

// Update persists all fields of the application and refreshes updated_at
func (r *CardApplicationRepositoryImpl) Update(ctx context.Context, application *models.CardApplication) error {
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

	application.UpdatedAt = utils.UTCNow()

	err = db.Save(application).Error
	if err != nil {
		return err
	}

	return nil
}

// UpdateStatus updates only the status of an application
func (r *CardApplicationRepositoryImpl) UpdateStatus(ctx context.Context, applicationID uint, status models.ApplicationStatus) error {
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

	err = db.Model(&models.CardApplication{}).
		Where("id = ?", applicationID).
		Updates(map[string]any{
			"status":     status,
			"updated_at": utils.UTCNow(),
		}).Error

	if err != nil {
		return err
	}

	return nil
}

// Delete removes the application row. Step records are deleted by the caller
// inside the same transaction; nothing cascades implicitly.
func (r *CardApplicationRepositoryImpl) Delete(ctx context.Context, applicationID uint) error {
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

	err = db.Where("id = ?", applicationID).Delete(&models.CardApplication{}).Error
	if err != nil {
		return err
	}

	return nil
}

// ListStaleDrafts returns editable applications untouched since the cutoff
func (r *CardApplicationRepositoryImpl) ListStaleDrafts(ctx context.Context, updatedBefore time.Time, limit int) ([]*models.CardApplication, error) {
	filter := models.CardApplicationFilter{
		Statuses:      []models.ApplicationStatus{models.ApplicationStatusDraft, models.ApplicationStatusPendingOTP},
		UpdatedBefore: &updatedBefore,
	}
	return r.ByFilter(ctx, filter, "updated_at ASC", limit, 0)
}

// ByFilter retrieves applications based on filter criteria
func (r *CardApplicationRepositoryImpl) ByFilter(ctx context.Context, filter models.CardApplicationFilter, orderBy string, limit, offset int) ([]*models.CardApplication, error) {
	db := r.getDB(ctx)

	var applications []*models.CardApplication
	query := r.applyFilter(db.Preload("ReviewedBy"), filter)

	if orderBy != "" {
		query = query.Order(orderBy)
	}

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&applications).Error
	if err != nil {
		return nil, err
	}

	return applications, nil
}

// Count returns the number of applications matching the filter
func (r *CardApplicationRepositoryImpl) Count(ctx context.Context, filter models.CardApplicationFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.CardApplication{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any application matching the filter exists
func (r *CardApplicationRepositoryImpl) Exists(ctx context.Context, filter models.CardApplicationFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *CardApplicationRepositoryImpl) applyFilter(db *gorm.DB, filter models.CardApplicationFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.Mode != nil {
		db = db.Where("mode = ?", *filter.Mode)
	}
	if filter.Status != nil {
		db = db.Where("status = ?", *filter.Status)
	}
	if len(filter.Statuses) > 0 {
		db = db.Where("status IN ?", filter.Statuses)
	}
	if filter.MobileNumber != nil {
		db = db.Where("mobile_number = ?", *filter.MobileNumber)
	}
	if filter.NationalID != nil {
		db = db.Where("national_id = ?", *filter.NationalID)
	}
	if filter.ReviewedByID != nil {
		db = db.Where("reviewed_by_id = ?", *filter.ReviewedByID)
	}
	if filter.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("created_at < ?", *filter.CreatedBefore)
	}
	if filter.SubmittedAfter != nil {
		db = db.Where("submitted_at >= ?", *filter.SubmittedAfter)
	}
	if filter.SubmittedBefore != nil {
		db = db.Where("submitted_at < ?", *filter.SubmittedBefore)
	}
	if filter.UpdatedBefore != nil {
		db = db.Where("updated_at < ?", *filter.UpdatedBefore)
	}

	return db
}
