package inventory

import (
	"context"

	"github.com/clinicore/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// StockItemRepository provides persistence for stock items
type StockItemRepository interface {
	FindByIDForClinic(ctx context.Context, clinicID, id uuid.UUID) (*StockItem, error)
	FindAllForClinic(ctx context.Context, clinicID uuid.UUID, filter shared.Filter) ([]StockItem, error)
	FindLowStock(ctx context.Context, clinicID uuid.UUID, threshold int64) ([]StockItem, error)
	Save(ctx context.Context, item *StockItem) error
	// SaveWithVersion persists the item only if its stored version matches
	// item.Version-1, returning ErrConcurrencyConflict otherwise. Used by
	// the fulfillment transaction so concurrent deductions of the same row
	// serialize instead of both committing a stale quantity.
	SaveWithVersion(ctx context.Context, item *StockItem) error
	DeleteForClinic(ctx context.Context, clinicID, id uuid.UUID) error
}
