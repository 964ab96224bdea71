package persistence

import (
	"context"
	"errors"

	"github.com/clinicore/backend/internal/domain/inventory"
	"github.com/clinicore/backend/internal/domain/shared"
	"github.com/clinicore/backend/internal/infrastructure/persistence/clinic"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStockItemRepository implements StockItemRepository using GORM
type GormStockItemRepository struct {
	db *gorm.DB
}

// NewGormStockItemRepository creates a new GormStockItemRepository
func NewGormStockItemRepository(db *gorm.DB) *GormStockItemRepository {
	return &GormStockItemRepository{db: db}
}

// FindByIDForClinic finds a stock item by ID within a clinic
func (r *GormStockItemRepository) FindByIDForClinic(ctx context.Context, clinicID, id uuid.UUID) (*inventory.StockItem, error) {
	var item inventory.StockItem
	if err := r.db.WithContext(ctx).
		Scopes(clinic.Scope(clinicID)).
		Where("id = ?", id).
		First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// FindAllForClinic finds all stock items for a clinic
func (r *GormStockItemRepository) FindAllForClinic(ctx context.Context, clinicID uuid.UUID, filter shared.Filter) ([]inventory.StockItem, error) {
	query := r.db.WithContext(ctx).Model(&inventory.StockItem{}).
		Scopes(clinic.Scope(clinicID))

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("name LIKE ? OR sku LIKE ?", pattern, pattern)
	}

	var items []inventory.StockItem
	filter.OrderBy = ValidateSortField(filter.OrderBy, StockItemSortFields, "")
	if err := applyListing(query, filter, "name ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// FindLowStock finds items at or below the reorder threshold
func (r *GormStockItemRepository) FindLowStock(ctx context.Context, clinicID uuid.UUID, threshold int64) ([]inventory.StockItem, error) {
	var items []inventory.StockItem
	if err := r.db.WithContext(ctx).
		Scopes(clinic.Scope(clinicID)).
		Where("quantity <= ?", threshold).
		Order("quantity ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Save creates or updates a stock item without a version check
func (r *GormStockItemRepository) Save(ctx context.Context, item *inventory.StockItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// SaveWithVersion persists the item only if the stored row still carries
// item.Version-1. Concurrent deductions of the same row then serialize:
// the loser sees ErrConcurrencyConflict and its transaction rolls back.
func (r *GormStockItemRepository) SaveWithVersion(ctx context.Context, item *inventory.StockItem) error {
	result := r.db.WithContext(ctx).
		Model(&inventory.StockItem{}).
		Scopes(clinic.Scope(item.ClinicID)).
		Where("id = ? AND version = ?", item.ID, item.Version-1).
		Select("*").
		Omit("id", "clinic_id", "created_at").
		Updates(item)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// DeleteForClinic removes a stock item within a clinic
func (r *GormStockItemRepository) DeleteForClinic(ctx context.Context, clinicID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Scopes(clinic.Scope(clinicID)).
		Delete(&inventory.StockItem{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormStockItemRepository implements StockItemRepository
var _ inventory.StockItemRepository = (*GormStockItemRepository)(nil)
