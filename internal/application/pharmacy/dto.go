package pharmacy

import (
	"time"

	"github.com/clinicore/backend/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FulfillmentLineInput is one dispensed line of a pharmacy fulfillment.
// PriceOverride, when set, replaces the stock item's unit price for this
// line only.
type FulfillmentLineInput struct {
	InventoryID   uuid.UUID        `json:"inventory_id" binding:"required"`
	Quantity      int64            `json:"quantity" binding:"required,min=1"`
	PriceOverride *decimal.Decimal `json:"price_override"`
}

// FulfillOrderRequest completes a pharmacy order: stock is deducted, an
// invoice is raised and the order is stamped with the receipt, all in one
// transaction. ManualAmount, when set, replaces the computed total.
type FulfillOrderRequest struct {
	Items        []FulfillmentLineInput `json:"items" binding:"required,min=1,dive"`
	ManualAmount *decimal.Decimal       `json:"manual_amount"`
	MarkPaid     bool                   `json:"mark_paid"`
}

// DirectSaleLineInput is one line of a walk-in counter sale
type DirectSaleLineInput struct {
	InventoryID uuid.UUID `json:"inventory_id" binding:"required"`
	Quantity    int64     `json:"quantity" binding:"required,min=1"`
}

// DirectSaleRequest is a walk-in counter sale. MarkPaid records whether the
// patient settled at the desk; an unpaid sale raises a Pending invoice.
type DirectSaleRequest struct {
	PatientID uuid.UUID             `json:"patient_id" binding:"required"`
	Items     []DirectSaleLineInput `json:"items" binding:"required,min=1,dive"`
	MarkPaid  bool                  `json:"mark_paid"`
}

// FulfillmentResponse reports the outcome of a fulfillment or direct sale
type FulfillmentResponse struct {
	OrderID       *uuid.UUID      `json:"order_id,omitempty"`
	InvoiceNumber string          `json:"invoice_number"`
	Amount        decimal.Decimal `json:"amount"`
	Paid          bool            `json:"paid"`
	Dispensed     []string        `json:"dispensed"`
}

// CreateStockItemRequest adds a new item to the clinic's inventory
type CreateStockItemRequest struct {
	Name      string          `json:"name" binding:"required,min=1,max=200"`
	SKU       string          `json:"sku" binding:"max=100"`
	Quantity  int64           `json:"quantity" binding:"min=0"`
	UnitPrice decimal.Decimal `json:"unit_price" binding:"required"`
	ExpiryDate *time.Time     `json:"expiry_date"`
}

// UpdateStockItemRequest replaces the mutable fields of a stock item
type UpdateStockItemRequest struct {
	Name      string          `json:"name" binding:"required,min=1,max=200"`
	SKU       string          `json:"sku" binding:"max=100"`
	Quantity  int64           `json:"quantity" binding:"min=0"`
	UnitPrice decimal.Decimal `json:"unit_price" binding:"required"`
	ExpiryDate *time.Time     `json:"expiry_date"`
}

// RestockRequest adds quantity to an existing stock item
type RestockRequest struct {
	Quantity int64 `json:"quantity" binding:"required,min=1"`
}

// StockListFilter filters inventory listings
type StockListFilter struct {
	Search   string `form:"search"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// StockItemResponse is the API representation of a stock item
type StockItemResponse struct {
	ID         uuid.UUID       `json:"id"`
	ClinicID   uuid.UUID       `json:"clinic_id"`
	Name       string          `json:"name"`
	SKU        string          `json:"sku"`
	Quantity   int64           `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	ExpiryDate *time.Time      `json:"expiry_date,omitempty"`
	LowStock   bool            `json:"low_stock"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// ToStockItemResponse converts a domain stock item to its API representation
func ToStockItemResponse(item *inventory.StockItem) StockItemResponse {
	return StockItemResponse{
		ID:         item.ID,
		ClinicID:   item.ClinicID,
		Name:       item.Name,
		SKU:        item.SKU,
		Quantity:   item.Quantity,
		UnitPrice:  item.UnitPrice,
		ExpiryDate: item.ExpiryDate,
		LowStock:   item.IsLowStock(inventory.LowStockThreshold),
		CreatedAt:  item.CreatedAt,
		UpdatedAt:  item.UpdatedAt,
	}
}

// ToStockItemResponses converts a slice of domain stock items
func ToStockItemResponses(items []inventory.StockItem) []StockItemResponse {
	responses := make([]StockItemResponse, 0, len(items))
	for idx := range items {
		responses = append(responses, ToStockItemResponse(&items[idx]))
	}
	return responses
}
