package billing

import (
	"context"
	"time"

	"github.com/clinicore/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus is the settlement state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "Pending"
	InvoiceStatusPaid    InvoiceStatus = "Paid"
)

// IsValid checks if the status is a known InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	return s == InvoiceStatusPending || s == InvoiceStatusPaid
}

// Invoice represents a charge raised against a patient. Invoices are
// created as a side effect of consultation completion, department
// fulfillment or a direct sale, identified by a human-readable prefixed
// number, and never deleted.
type Invoice struct {
	shared.ClinicAggregateRoot
	Number    string          `gorm:"type:varchar(32);not null;uniqueIndex"`
	PatientID uuid.UUID       `gorm:"type:uuid;not null;index"`
	DoctorID  *uuid.UUID      `gorm:"type:uuid;index"`
	Service   string          `gorm:"type:varchar(512);not null"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Status    InvoiceStatus   `gorm:"type:varchar(16);not null;default:'Pending';index"`
	Date      time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (Invoice) TableName() string {
	return "invoices"
}

// NewInvoice creates an invoice for a clinic
func NewInvoice(clinicID uuid.UUID, number string, patientID uuid.UUID, doctorID *uuid.UUID, service string, amount decimal.Decimal, status InvoiceStatus) (*Invoice, error) {
	if number == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Invoice number cannot be empty")
	}
	if patientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PATIENT", "Patient ID cannot be empty")
	}
	if service == "" {
		return nil, shared.NewDomainError("INVALID_SERVICE", "Service description cannot be empty")
	}
	if amount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Invoice amount cannot be negative")
	}
	if !status.IsValid() {
		return nil, shared.NewDomainError("INVALID_STATUS", "Unknown invoice status: "+string(status))
	}
	return &Invoice{
		ClinicAggregateRoot: shared.NewClinicAggregateRoot(clinicID),
		Number:              number,
		PatientID:           patientID,
		DoctorID:            doctorID,
		Service:             service,
		Amount:              amount,
		Status:              status,
		Date:                time.Now(),
	}, nil
}

// MarkPaid settles the invoice. Returns true when the status actually
// changed; a second call is a no-op so downstream reconciliation stays
// idempotent.
func (i *Invoice) MarkPaid() bool {
	if i.Status == InvoiceStatusPaid {
		return false
	}
	i.Status = InvoiceStatusPaid
	i.UpdatedAt = time.Now()
	i.IncrementVersion()
	return true
}

// IsPaid reports whether the invoice is settled
func (i *Invoice) IsPaid() bool {
	return i.Status == InvoiceStatusPaid
}

// InvoiceRepository provides persistence for invoices
type InvoiceRepository interface {
	FindByNumberForClinic(ctx context.Context, clinicID uuid.UUID, number string) (*Invoice, error)
	FindAllForClinic(ctx context.Context, clinicID uuid.UUID, filter shared.Filter) ([]Invoice, error)
	FindByPatient(ctx context.Context, clinicID, patientID uuid.UUID, filter shared.Filter) ([]Invoice, error)
	// FindDirectSales lists point-of-sale invoices (direct sale origin).
	FindDirectSales(ctx context.Context, clinicID uuid.UUID, filter shared.Filter) ([]Invoice, error)
	// SumAmountByStatus totals invoice amounts for dashboard aggregates.
	SumAmountByStatus(ctx context.Context, clinicID uuid.UUID, status InvoiceStatus, since, until *time.Time) (decimal.Decimal, error)
	CountByStatus(ctx context.Context, clinicID uuid.UUID, status InvoiceStatus) (int64, error)
	Save(ctx context.Context, invoice *Invoice) error
}
