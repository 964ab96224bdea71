package ordering

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PrescriptionLine is one medicine requested by the ordering doctor.
// InventoryID is nil for free-text prescriptions that were never matched to
// a stock item.
type PrescriptionLine struct {
	InventoryID  *uuid.UUID      `json:"inventoryId,omitempty"`
	MedicineName string          `json:"medicineName"`
	Quantity     int64           `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
}

// FulfillmentReceipt records the billing outcome stamped onto a pharmacy
// order when it is fulfilled. Exactly one receipt exists per completed
// fulfillment; its invoice number links back to the invoice created in the
// same transaction.
type FulfillmentReceipt struct {
	InvoiceNumber string          `json:"invoiceNumber"`
	Amount        decimal.Decimal `json:"amount"`
	Paid          bool            `json:"paid"`
	Dispensed     []string        `json:"dispensed"`
}

// ResultDocument is the structured payload stored on a service order.
// It replaces the free-text result column of earlier systems: each order
// type populates only its own sections and consumers decode it exactly once
// at the persistence boundary.
type ResultDocument struct {
	// Findings holds the uploaded report for lab/radiology orders.
	Findings string `json:"findings,omitempty"`
	// Priority and Notes carry the ordering doctor's annotations.
	Priority string `json:"priority,omitempty"`
	Notes    string `json:"notes,omitempty"`
	// Items lists prescribed medicines for pharmacy orders.
	Items []PrescriptionLine `json:"items,omitempty"`
	// Receipt is set when a pharmacy order has been fulfilled.
	Receipt *FulfillmentReceipt `json:"receipt,omitempty"`
}

// IsEmpty reports whether the document carries no data
func (d ResultDocument) IsEmpty() bool {
	return d.Findings == "" && d.Priority == "" && d.Notes == "" &&
		len(d.Items) == 0 && d.Receipt == nil
}

// PrescriptionSummary joins the prescribed lines into a human-readable
// description, used as the invoice fallback when no stock items matched.
func (d ResultDocument) PrescriptionSummary() string {
	if len(d.Items) == 0 {
		return ""
	}
	parts := make([]string, 0, len(d.Items))
	for _, line := range d.Items {
		parts = append(parts, fmt.Sprintf("%s x%d", line.MedicineName, line.Quantity))
	}
	return strings.Join(parts, ", ")
}

// Value implements driver.Valuer, serializing the document to a text column
func (d ResultDocument) Value() (driver.Value, error) {
	if d.IsEmpty() {
		return "", nil
	}
	data, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner
func (d *ResultDocument) Scan(value interface{}) error {
	if value == nil {
		*d = ResultDocument{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return errors.New("unsupported type for ResultDocument")
	}
	if len(raw) == 0 {
		*d = ResultDocument{}
		return nil
	}
	return json.Unmarshal(raw, d)
}
