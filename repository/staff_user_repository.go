package repository

import (
	"context"
	"errors"
	"time"

	"github.com/appform-bd/cardapply/models"
	"gorm.io/gorm"
)

// StaffUserRepositoryImpl implements the StaffUserRepository interface
type StaffUserRepositoryImpl struct {
	*BaseRepository[models.StaffUser, models.StaffUserFilter]
}

// NewStaffUserRepository creates a new staff user repository
func NewStaffUserRepository(db *gorm.DB) StaffUserRepository {
	return &StaffUserRepositoryImpl{
		BaseRepository: NewBaseRepository[models.StaffUser, models.StaffUserFilter](db),
	}
}

// ByUsername retrieves a staff account by username
func (r *StaffUserRepositoryImpl) ByUsername(ctx context.Context, username string) (*models.StaffUser, error) {
	db := r.getDB(ctx)

	var staff models.StaffUser
	err := db.Where("username = ?", username).Last(&staff).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &staff, nil
}

// UpdateLastLogin stamps a successful login
func (r *StaffUserRepositoryImpl) UpdateLastLogin(ctx context.Context, staffID uint, at time.Time) error {
	db := r.getDB(ctx)
	return db.Model(&models.StaffUser{}).
		Where("id = ?", staffID).
		Update("last_login_at", at).Error
}

// ByFilter retrieves staff accounts based on filter criteria
func (r *StaffUserRepositoryImpl) ByFilter(ctx context.Context, filter models.StaffUserFilter, orderBy string, limit, offset int) ([]*models.StaffUser, error) {
	db := r.getDB(ctx)

	var staff []*models.StaffUser
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

	err := query.Find(&staff).Error
	if err != nil {
		return nil, err
	}

	return staff, nil
}

// Count returns the number of staff accounts matching the filter
func (r *StaffUserRepositoryImpl) Count(ctx context.Context, filter models.StaffUserFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.StaffUser{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any staff account matching the filter exists
func (r *StaffUserRepositoryImpl) Exists(ctx context.Context, filter models.StaffUserFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *StaffUserRepositoryImpl) applyFilter(db *gorm.DB, filter models.StaffUserFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.Username != nil {
		db = db.Where("username = ?", *filter.Username)
	}
	if filter.Role != nil {
		db = db.Where("role = ?", *filter.Role)
	}
	if filter.BranchCode != nil {
		db = db.Where("branch_code = ?", *filter.BranchCode)
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
	if filter.LastLoginAfter != nil {
		db = db.Where("last_login_at >= ?", *filter.LastLoginAfter)
	}
	if filter.LastLoginBefore != nil {
		db = db.Where("last_login_at < ?", *filter.LastLoginBefore)
	}

	return db
}
