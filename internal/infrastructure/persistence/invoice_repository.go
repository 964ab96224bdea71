package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/clinicore/backend/internal/domain/billing"
	"github.com/clinicore/backend/internal/domain/shared"
	"github.com/clinicore/backend/internal/infrastructure/persistence/clinic"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormInvoiceRepository implements InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByNumberForClinic finds an invoice by its human-readable number
func (r *GormInvoiceRepository) FindByNumberForClinic(ctx context.Context, clinicID uuid.UUID, number string) (*billing.Invoice, error) {
	var inv billing.Invoice
	if err := r.db.WithContext(ctx).
		Scopes(clinic.Scope(clinicID)).
		Where("number = ?", number).
		First(&inv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &inv, nil
}

// FindAllForClinic finds all invoices for a clinic
func (r *GormInvoiceRepository) FindAllForClinic(ctx context.Context, clinicID uuid.UUID, filter shared.Filter) ([]billing.Invoice, error) {
	query := r.db.WithContext(ctx).Model(&billing.Invoice{}).
		Scopes(clinic.Scope(clinicID))

	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("number LIKE ? OR service LIKE ?", pattern, pattern)
	}

	var invoices []billing.Invoice
	filter.OrderBy = ValidateSortField(filter.OrderBy, InvoiceSortFields, "")
	if err := applyListing(query, filter, "date DESC").Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// FindByPatient finds invoices raised against a patient
func (r *GormInvoiceRepository) FindByPatient(ctx context.Context, clinicID, patientID uuid.UUID, filter shared.Filter) ([]billing.Invoice, error) {
	query := r.db.WithContext(ctx).Model(&billing.Invoice{}).
		Scopes(clinic.Scope(clinicID)).
		Where("patient_id = ?", patientID)

	var invoices []billing.Invoice
	filter.OrderBy = ValidateSortField(filter.OrderBy, InvoiceSortFields, "")
	if err := applyListing(query, filter, "date DESC").Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// FindDirectSales lists point-of-sale invoices. The origin lives in the
// number prefix, so the query matches on it.
func (r *GormInvoiceRepository) FindDirectSales(ctx context.Context, clinicID uuid.UUID, filter shared.Filter) ([]billing.Invoice, error) {
	query := r.db.WithContext(ctx).Model(&billing.Invoice{}).
		Scopes(clinic.Scope(clinicID)).
		Where("number LIKE ?", string(billing.OriginDirectSale)+"-%")

	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}

	var invoices []billing.Invoice
	filter.OrderBy = ValidateSortField(filter.OrderBy, InvoiceSortFields, "")
	if err := applyListing(query, filter, "date DESC").Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// SumAmountByStatus totals invoice amounts for dashboard aggregates.
// Nil bounds leave the range open on that side.
func (r *GormInvoiceRepository) SumAmountByStatus(ctx context.Context, clinicID uuid.UUID, status billing.InvoiceStatus, since, until *time.Time) (decimal.Decimal, error) {
	query := r.db.WithContext(ctx).Model(&billing.Invoice{}).
		Scopes(clinic.Scope(clinicID)).
		Where("status = ?", status)
	if since != nil {
		query = query.Where("date >= ?", *since)
	}
	if until != nil {
		query = query.Where("date < ?", *until)
	}

	var total decimal.NullDecimal
	if err := query.Select("SUM(amount)").Scan(&total).Error; err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

// CountByStatus counts invoices by settlement status
func (r *GormInvoiceRepository) CountByStatus(ctx context.Context, clinicID uuid.UUID, status billing.InvoiceStatus) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&billing.Invoice{}).
		Scopes(clinic.Scope(clinicID)).
		Where("status = ?", status).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates an invoice. A duplicate number surfaces as
// ErrAlreadyExists so the caller can regenerate and retry.
func (r *GormInvoiceRepository) Save(ctx context.Context, inv *billing.Invoice) error {
	if err := r.db.WithContext(ctx).Save(inv).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Ensure GormInvoiceRepository implements InvoiceRepository
var _ billing.InvoiceRepository = (*GormInvoiceRepository)(nil)
