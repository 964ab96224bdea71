package inventory

import (
	"fmt"
	"time"

	"github.com/clinicore/backend/internal/domain/shared"
	"github.com/clinicore/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LowStockThreshold is the on-hand quantity at or below which an item is
// flagged for reordering.
const LowStockThreshold int64 = 10

// StockItem represents a dispensable item held by a clinic's pharmacy.
// It is the only aggregate with a hard physical invariant: quantity never
// goes negative. Deductions that would violate it abort the enclosing
// transaction.
type StockItem struct {
	shared.ClinicAggregateRoot
	Name       string          `gorm:"type:varchar(255);not null"`
	SKU        string          `gorm:"type:varchar(64);index"`
	Quantity   int64           `gorm:"not null;default:0"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	ExpiryDate *time.Time
}

// TableName returns the table name for GORM
func (StockItem) TableName() string {
	return "stock_items"
}

// NewStockItem creates a stock item for a clinic
func NewStockItem(clinicID uuid.UUID, name, sku string, quantity int64, unitPrice decimal.Decimal, expiry *time.Time) (*StockItem, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Item name cannot be empty")
	}
	if quantity < 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity cannot be negative")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	return &StockItem{
		ClinicAggregateRoot: shared.NewClinicAggregateRoot(clinicID),
		Name:                name,
		SKU:                 sku,
		Quantity:            quantity,
		UnitPrice:           unitPrice,
		ExpiryDate:          expiry,
	}, nil
}

// CanFulfill reports whether the requested quantity is on hand
func (i *StockItem) CanFulfill(quantity int64) bool {
	return i.Quantity >= quantity
}

// Deduct removes quantity from stock. The caller must have re-read the
// item inside the fulfillment transaction; a stale quantity here would let
// two concurrent fulfillments over-deduct.
func (i *StockItem) Deduct(quantity int64) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Deduction quantity must be positive")
	}
	if i.Quantity < quantity {
		return shared.NewInsufficientStockError(i.Name)
	}
	i.Quantity -= quantity
	i.touch()
	return nil
}

// Restock adds quantity back to stock
func (i *StockItem) Restock(quantity int64) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Restock quantity must be positive")
	}
	i.Quantity += quantity
	i.touch()
	return nil
}

// Update replaces the descriptive fields and absolute quantity
func (i *StockItem) Update(name, sku string, quantity int64, unitPrice decimal.Decimal, expiry *time.Time) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Item name cannot be empty")
	}
	if quantity < 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity cannot be negative")
	}
	if unitPrice.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	i.Name = name
	i.SKU = sku
	i.Quantity = quantity
	i.UnitPrice = unitPrice
	i.ExpiryDate = expiry
	i.touch()
	return nil
}

// UnitPriceMoney returns the unit price as a Money value object
func (i *StockItem) UnitPriceMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(i.UnitPrice)
}

// IsExpired reports whether the item is past its expiry date
func (i *StockItem) IsExpired(now time.Time) bool {
	return i.ExpiryDate != nil && i.ExpiryDate.Before(now)
}

// IsLowStock reports whether the quantity is at or below the threshold
func (i *StockItem) IsLowStock(threshold int64) bool {
	return i.Quantity <= threshold
}

func (i *StockItem) touch() {
	i.UpdatedAt = time.Now()
	i.IncrementVersion()
}

// String implements fmt.Stringer for log output
func (i *StockItem) String() string {
	return fmt.Sprintf("StockItem(%s, qty=%d)", i.Name, i.Quantity)
}
