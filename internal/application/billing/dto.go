package billing

import (
	"time"

	"github.com/clinicore/backend/internal/domain/billing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateInvoiceRequest raises a manual invoice against a patient
type CreateInvoiceRequest struct {
	PatientID uuid.UUID       `json:"patient_id" binding:"required"`
	DoctorID  *uuid.UUID      `json:"doctor_id"`
	Service   string          `json:"service" binding:"required,min=1,max=500"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
}

// UpdateInvoiceStatusRequest settles or reopens an invoice
type UpdateInvoiceStatusRequest struct {
	Status billing.InvoiceStatus `json:"status" binding:"required"`
}

// InvoiceListFilter filters invoice listings
type InvoiceListFilter struct {
	Status   string `form:"status"`
	Search   string `form:"search"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// InvoiceResponse is the API representation of an invoice
type InvoiceResponse struct {
	ID        uuid.UUID             `json:"id"`
	ClinicID  uuid.UUID             `json:"clinic_id"`
	Number    string                `json:"number"`
	PatientID uuid.UUID             `json:"patient_id"`
	DoctorID  *uuid.UUID            `json:"doctor_id,omitempty"`
	Service   string                `json:"service"`
	Amount    decimal.Decimal       `json:"amount"`
	Status    billing.InvoiceStatus `json:"status"`
	Date      time.Time             `json:"date"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// SettlementResponse reports what a settlement unlocked alongside the
// updated invoice.
type SettlementResponse struct {
	Invoice         InvoiceResponse `json:"invoice"`
	AlreadyPaid     bool            `json:"already_paid"`
	AppointmentPaid bool            `json:"appointment_paid"`
	OrdersReleased  int64           `json:"orders_released"`
}

// DashboardResponse carries the billing dashboard aggregates
type DashboardResponse struct {
	RevenueToday  decimal.Decimal `json:"revenue_today"`
	RevenueTotal  decimal.Decimal `json:"revenue_total"`
	PendingAmount decimal.Decimal `json:"pending_amount"`
	PendingCount  int64           `json:"pending_count"`
	PaidCount     int64           `json:"paid_count"`
}

// ToInvoiceResponse converts a domain invoice to its API representation
func ToInvoiceResponse(invoice *billing.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:        invoice.ID,
		ClinicID:  invoice.ClinicID,
		Number:    invoice.Number,
		PatientID: invoice.PatientID,
		DoctorID:  invoice.DoctorID,
		Service:   invoice.Service,
		Amount:    invoice.Amount,
		Status:    invoice.Status,
		Date:      invoice.Date,
		CreatedAt: invoice.CreatedAt,
		UpdatedAt: invoice.UpdatedAt,
	}
}

// ToInvoiceResponses converts a slice of domain invoices
func ToInvoiceResponses(invoices []billing.Invoice) []InvoiceResponse {
	responses := make([]InvoiceResponse, 0, len(invoices))
	for idx := range invoices {
		responses = append(responses, ToInvoiceResponse(&invoices[idx]))
	}
	return responses
}
