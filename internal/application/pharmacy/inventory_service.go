package pharmacy

import (
	"context"

	"github.com/clinicore/backend/internal/domain/inventory"
	"github.com/clinicore/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// InventoryService manages the clinic's stock catalog. Quantity-changing
// fulfillment paths live on FulfillmentService; this service covers the
// catalog CRUD and reorder reporting.
type InventoryService struct {
	stockRepo inventory.StockItemRepository
}

// NewInventoryService creates a new InventoryService
func NewInventoryService(stockRepo inventory.StockItemRepository) *InventoryService {
	return &InventoryService{stockRepo: stockRepo}
}

// Create adds a stock item to the clinic's inventory
func (s *InventoryService) Create(ctx context.Context, clinicID uuid.UUID, req CreateStockItemRequest) (*StockItemResponse, error) {
	item, err := inventory.NewStockItem(clinicID, req.Name, req.SKU, req.Quantity, req.UnitPrice, req.ExpiryDate)
	if err != nil {
		return nil, err
	}
	if err := s.stockRepo.Save(ctx, item); err != nil {
		return nil, err
	}
	response := ToStockItemResponse(item)
	return &response, nil
}

// GetByID retrieves a stock item within a clinic
func (s *InventoryService) GetByID(ctx context.Context, clinicID, itemID uuid.UUID) (*StockItemResponse, error) {
	item, err := s.stockRepo.FindByIDForClinic(ctx, clinicID, itemID)
	if err != nil {
		return nil, err
	}
	response := ToStockItemResponse(item)
	return &response, nil
}

// Update replaces the mutable fields of a stock item
func (s *InventoryService) Update(ctx context.Context, clinicID, itemID uuid.UUID, req UpdateStockItemRequest) (*StockItemResponse, error) {
	item, err := s.stockRepo.FindByIDForClinic(ctx, clinicID, itemID)
	if err != nil {
		return nil, err
	}
	if err := item.Update(req.Name, req.SKU, req.Quantity, req.UnitPrice, req.ExpiryDate); err != nil {
		return nil, err
	}
	if err := s.stockRepo.SaveWithVersion(ctx, item); err != nil {
		return nil, err
	}
	response := ToStockItemResponse(item)
	return &response, nil
}

// Restock adds quantity to an existing item
func (s *InventoryService) Restock(ctx context.Context, clinicID, itemID uuid.UUID, req RestockRequest) (*StockItemResponse, error) {
	item, err := s.stockRepo.FindByIDForClinic(ctx, clinicID, itemID)
	if err != nil {
		return nil, err
	}
	if err := item.Restock(req.Quantity); err != nil {
		return nil, err
	}
	if err := s.stockRepo.SaveWithVersion(ctx, item); err != nil {
		return nil, err
	}
	response := ToStockItemResponse(item)
	return &response, nil
}

// Delete removes a stock item from the clinic's catalog
func (s *InventoryService) Delete(ctx context.Context, clinicID, itemID uuid.UUID) error {
	return s.stockRepo.DeleteForClinic(ctx, clinicID, itemID)
}

// List returns the clinic's stock catalog
func (s *InventoryService) List(ctx context.Context, clinicID uuid.UUID, filter StockListFilter) ([]StockItemResponse, error) {
	domainFilter := shared.DefaultFilter()
	domainFilter.Search = filter.Search
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	items, err := s.stockRepo.FindAllForClinic(ctx, clinicID, domainFilter)
	if err != nil {
		return nil, err
	}
	return ToStockItemResponses(items), nil
}

// ListLowStock returns items at or below the reorder threshold
func (s *InventoryService) ListLowStock(ctx context.Context, clinicID uuid.UUID) ([]StockItemResponse, error) {
	items, err := s.stockRepo.FindLowStock(ctx, clinicID, inventory.LowStockThreshold)
	if err != nil {
		return nil, err
	}
	return ToStockItemResponses(items), nil
}
