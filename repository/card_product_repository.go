package repository

import (
	"context"
	"errors"

	"github.com/appform-bd/cardapply/models"
	"github.com/appform-bd/cardapply/utils"
	"gorm.io/gorm"
)

// CardProductRepositoryImpl implements the CardProductRepository interface
type CardProductRepositoryImpl struct {
	*BaseRepository[models.CardProduct, models.CardProductFilter]
}

// NewCardProductRepository creates a new card product repository
func NewCardProductRepository(db *gorm.DB) CardProductRepository {
	return &CardProductRepositoryImpl{
		BaseRepository: NewBaseRepository[models.CardProduct, models.CardProductFilter](db),
	}
}

// ByCode retrieves a card product by its catalog code
func (r *CardProductRepositoryImpl) ByCode(ctx context.Context, code string) (*models.CardProduct, error) {
	db := r.getDB(ctx)

	var product models.CardProduct
	err := db.Where("code = ?", code).Last(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &product, nil
}

// ListActive returns the sellable catalog in a stable order
func (r *CardProductRepositoryImpl) ListActive(ctx context.Context) ([]*models.CardProduct, error) {
	filter := models.CardProductFilter{IsActive: utils.ToPtr(true)}
	return r.ByFilter(ctx, filter, "tier ASC, code ASC", 0, 0)
}

// ByFilter retrieves card products based on filter criteria
func (r *CardProductRepositoryImpl) ByFilter(ctx context.Context, filter models.CardProductFilter, orderBy string, limit, offset int) ([]*models.CardProduct, error) {
	db := r.getDB(ctx)

	var products []*models.CardProduct
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

	err := query.Find(&products).Error
	if err != nil {
		return nil, err
	}

	return products, nil
}

// Count returns the number of card products matching the filter
func (r *CardProductRepositoryImpl) Count(ctx context.Context, filter models.CardProductFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.CardProduct{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any card product matching the filter exists
func (r *CardProductRepositoryImpl) Exists(ctx context.Context, filter models.CardProductFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *CardProductRepositoryImpl) applyFilter(db *gorm.DB, filter models.CardProductFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.Code != nil {
		db = db.Where("code = ?", *filter.Code)
	}
	if filter.Network != nil {
		db = db.Where("network = ?", *filter.Network)
	}
	if filter.Tier != nil {
		db = db.Where("tier = ?", *filter.Tier)
	}
	if filter.IsActive != nil {
		db = db.Where("is_active = ?", *filter.IsActive)
	}

	return db
}
