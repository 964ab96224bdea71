package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/clinicore/backend/internal/domain/ordering"
	"github.com/clinicore/backend/internal/domain/shared"
	"github.com/clinicore/backend/internal/infrastructure/persistence/clinic"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormServiceOrderRepository implements ServiceOrderRepository using GORM
type GormServiceOrderRepository struct {
	db *gorm.DB
}

// NewGormServiceOrderRepository creates a new GormServiceOrderRepository
func NewGormServiceOrderRepository(db *gorm.DB) *GormServiceOrderRepository {
	return &GormServiceOrderRepository{db: db}
}

// FindByIDForClinic finds a service order by ID within a clinic
func (r *GormServiceOrderRepository) FindByIDForClinic(ctx context.Context, clinicID, id uuid.UUID) (*ordering.ServiceOrder, error) {
	var o ordering.ServiceOrder
	if err := r.db.WithContext(ctx).
		Scopes(clinic.Scope(clinicID)).
		Where("id = ?", id).
		First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// FindForDepartment lists paid orders of the given type. The payment gate
// lives in this query: unpaid orders never reach department staff.
func (r *GormServiceOrderRepository) FindForDepartment(ctx context.Context, clinicID uuid.UUID, orderType ordering.OrderType, statusFilter ordering.TestStatus, filter shared.Filter) ([]ordering.ServiceOrder, error) {
	query := r.db.WithContext(ctx).Model(&ordering.ServiceOrder{}).
		Scopes(clinic.Scope(clinicID)).
		Where("type = ? AND payment_status = ?", orderType, ordering.PaymentStatusPaid)

	if statusFilter != "" {
		query = query.Where("test_status = ?", statusFilter)
	}

	var orders []ordering.ServiceOrder
	filter.OrderBy = ValidateSortField(filter.OrderBy, ServiceOrderSortFields, "")
	if err := applyListing(query, filter, "created_at DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// FindPublishedForPatient lists orders visible on the patient read path
func (r *GormServiceOrderRepository) FindPublishedForPatient(ctx context.Context, clinicID, patientID uuid.UUID) ([]ordering.ServiceOrder, error) {
	var orders []ordering.ServiceOrder
	if err := r.db.WithContext(ctx).
		Scopes(clinic.Scope(clinicID)).
		Where("patient_id = ? AND test_status = ?", patientID, ordering.TestStatusPublished).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// FindByPatient finds all orders for a patient
func (r *GormServiceOrderRepository) FindByPatient(ctx context.Context, clinicID, patientID uuid.UUID, filter shared.Filter) ([]ordering.ServiceOrder, error) {
	query := r.db.WithContext(ctx).Model(&ordering.ServiceOrder{}).
		Scopes(clinic.Scope(clinicID)).
		Where("patient_id = ?", patientID)

	var orders []ordering.ServiceOrder
	filter.OrderBy = ValidateSortField(filter.OrderBy, ServiceOrderSortFields, "")
	if err := applyListing(query, filter, "created_at DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// FindByDoctor finds all orders placed by a doctor
func (r *GormServiceOrderRepository) FindByDoctor(ctx context.Context, clinicID, doctorID uuid.UUID, filter shared.Filter) ([]ordering.ServiceOrder, error) {
	query := r.db.WithContext(ctx).Model(&ordering.ServiceOrder{}).
		Scopes(clinic.Scope(clinicID)).
		Where("doctor_id = ?", doctorID)

	var orders []ordering.ServiceOrder
	filter.OrderBy = ValidateSortField(filter.OrderBy, ServiceOrderSortFields, "")
	if err := applyListing(query, filter, "created_at DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// ReleasePendingPayments flips every payment-pending order for the patient
// to Paid and returns how many were released. A nil doctor ID releases
// across all doctors; department and counter invoices settle without a
// doctor attached.
func (r *GormServiceOrderRepository) ReleasePendingPayments(ctx context.Context, clinicID, patientID, doctorID uuid.UUID) (int64, error) {
	query := r.db.WithContext(ctx).Model(&ordering.ServiceOrder{}).
		Scopes(clinic.Scope(clinicID)).
		Where("patient_id = ? AND payment_status = ?", patientID, ordering.PaymentStatusPending)
	if doctorID != uuid.Nil {
		query = query.Where("doctor_id = ?", doctorID)
	}

	result := query.Updates(map[string]interface{}{
		"payment_status": ordering.PaymentStatusPaid,
		"updated_at":     time.Now(),
	})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// Save creates or updates a service order
func (r *GormServiceOrderRepository) Save(ctx context.Context, o *ordering.ServiceOrder) error {
	return r.db.WithContext(ctx).Save(o).Error
}

// Ensure GormServiceOrderRepository implements ServiceOrderRepository
var _ ordering.ServiceOrderRepository = (*GormServiceOrderRepository)(nil)
