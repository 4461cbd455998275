package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/appform-bd/cardapply/models"
	"github.com/appform-bd/cardapply/utils"
	"gorm.io/gorm"
)

// ApplicationStepRepositoryImpl implements the ApplicationStepRepository interface
type ApplicationStepRepositoryImpl struct {
	*BaseRepository[models.ApplicationStepRecord, models.ApplicationStepFilter]
}

// NewApplicationStepRepository creates a new application step repository
func NewApplicationStepRepository(db *gorm.DB) ApplicationStepRepository {
	return &ApplicationStepRepositoryImpl{
		BaseRepository: NewBaseRepository[models.ApplicationStepRecord, models.ApplicationStepFilter](db),
	}
}

// ByApplicationAndStep retrieves the version row for one step of one application
func (r *ApplicationStepRepositoryImpl) ByApplicationAndStep(ctx context.Context, applicationID uint, stepNumber int) (*models.ApplicationStepRecord, error) {
	db := r.getDB(ctx)

	var record models.ApplicationStepRecord
	err := db.Where("application_id = ? AND step_number = ?", applicationID, stepNumber).
		Last(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &record, nil
}

// ListByApplication returns all step rows of an application in step order
func (r *ApplicationStepRepositoryImpl) ListByApplication(ctx context.Context, applicationID uint) ([]*models.ApplicationStepRecord, error) {
	filter := models.ApplicationStepFilter{ApplicationID: &applicationID}
	return r.ByFilter(ctx, filter, "step_number ASC", 0, 0)
}

// UpsertVersioned records an accepted save. expectedVersion 0 inserts the row
// at version 1; otherwise the row advances expectedVersion -> expectedVersion+1
// under an optimistic WHERE guard. A false result means another writer claimed
// the successor version first; the caller reloads and decides.
func (r *ApplicationStepRepositoryImpl) UpsertVersioned(ctx context.Context, record *models.ApplicationStepRecord, expectedVersion int) (bool, error) {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return false, err
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

	record.SavedAt = utils.UTCNow()

	if expectedVersion == 0 {
		record.Version = 1
		err = db.Create(record).Error
		if err != nil {
			// Unique violation on (application_id, step_number): a concurrent
			// first save won the race.
			if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "duplicate key") {
				err = nil
				return false, nil
			}
			return false, err
		}
		return true, nil
	}

	record.Version = expectedVersion + 1
	res := db.Model(&models.ApplicationStepRecord{}).
		Where("application_id = ? AND step_number = ? AND version = ?",
			record.ApplicationID, record.StepNumber, expectedVersion).
		Updates(map[string]any{
			"step_name":   record.StepName,
			"version":     record.Version,
			"data":        record.Data,
			"is_complete": record.IsComplete,
			"saved_at":    record.SavedAt,
		})
	if res.Error != nil {
		err = res.Error
		return false, err
	}

	return res.RowsAffected == 1, nil
}

// RestoreVersion fast-forwards a step row to a version recovered from the
// cache mirror. A stored version at or above the target is left untouched.
func (r *ApplicationStepRepositoryImpl) RestoreVersion(ctx context.Context, record *models.ApplicationStepRecord) error {
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

	res := db.Model(&models.ApplicationStepRecord{}).
		Where("application_id = ? AND step_number = ? AND version < ?",
			record.ApplicationID, record.StepNumber, record.Version).
		Updates(map[string]any{
			"step_name":   record.StepName,
			"version":     record.Version,
			"data":        record.Data,
			"is_complete": record.IsComplete,
			"saved_at":    record.SavedAt,
		})
	if res.Error != nil {
		err = res.Error
		return err
	}
	if res.RowsAffected == 1 {
		return nil
	}

	// Either no row exists yet or the stored version already caught up.
	var existing models.ApplicationStepRecord
	findErr := db.Where("application_id = ? AND step_number = ?",
		record.ApplicationID, record.StepNumber).
		First(&existing).Error
	if errors.Is(findErr, gorm.ErrRecordNotFound) {
		err = db.Create(record).Error
		if err != nil && (errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "duplicate key")) {
			err = nil
		}
		return err
	}

	err = findErr
	return err
}

// DeleteByApplication removes every step row of an application
func (r *ApplicationStepRepositoryImpl) DeleteByApplication(ctx context.Context, applicationID uint) error {
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

	err = db.Where("application_id = ?", applicationID).
		Delete(&models.ApplicationStepRecord{}).Error
	if err != nil {
		return err
	}

	return nil
}

// ByFilter retrieves step records based on filter criteria
func (r *ApplicationStepRepositoryImpl) ByFilter(ctx context.Context, filter models.ApplicationStepFilter, orderBy string, limit, offset int) ([]*models.ApplicationStepRecord, error) {
	db := r.getDB(ctx)

	var records []*models.ApplicationStepRecord
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

	err := query.Find(&records).Error
	if err != nil {
		return nil, err
	}

	return records, nil
}

// Count returns the number of step records matching the filter
func (r *ApplicationStepRepositoryImpl) Count(ctx context.Context, filter models.ApplicationStepFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.ApplicationStepRecord{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any step record matching the filter exists
func (r *ApplicationStepRepositoryImpl) Exists(ctx context.Context, filter models.ApplicationStepFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *ApplicationStepRepositoryImpl) applyFilter(db *gorm.DB, filter models.ApplicationStepFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.ApplicationID != nil {
		db = db.Where("application_id = ?", *filter.ApplicationID)
	}
	if filter.StepNumber != nil {
		db = db.Where("step_number = ?", *filter.StepNumber)
	}
	if filter.StepName != nil {
		db = db.Where("step_name = ?", *filter.StepName)
	}
	if filter.IsComplete != nil {
		db = db.Where("is_complete = ?", *filter.IsComplete)
	}

	return db
}
