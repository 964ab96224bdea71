package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/clinicore/backend/internal/domain/patient"
	"github.com/clinicore/backend/internal/domain/shared"
	"github.com/clinicore/backend/internal/infrastructure/persistence/clinic"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAppointmentRepository implements AppointmentRepository using GORM
type GormAppointmentRepository struct {
	db *gorm.DB
}

// NewGormAppointmentRepository creates a new GormAppointmentRepository
func NewGormAppointmentRepository(db *gorm.DB) *GormAppointmentRepository {
	return &GormAppointmentRepository{db: db}
}

// FindByIDForClinic finds an appointment by ID within a clinic
func (r *GormAppointmentRepository) FindByIDForClinic(ctx context.Context, clinicID, id uuid.UUID) (*patient.Appointment, error) {
	var a patient.Appointment
	if err := r.db.WithContext(ctx).
		Scopes(clinic.Scope(clinicID)).
		Where("id = ?", id).
		First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// FindAllForClinic finds all appointments for a clinic
func (r *GormAppointmentRepository) FindAllForClinic(ctx context.Context, clinicID uuid.UUID, filter shared.Filter) ([]patient.Appointment, error) {
	query := r.db.WithContext(ctx).Model(&patient.Appointment{}).
		Scopes(clinic.Scope(clinicID))

	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	if doctorID, ok := filter.Filters["doctor_id"]; ok {
		query = query.Where("doctor_id = ?", doctorID)
	}
	if patientID, ok := filter.Filters["patient_id"]; ok {
		query = query.Where("patient_id = ?", patientID)
	}

	var appointments []patient.Appointment
	filter.OrderBy = ValidateSortField(filter.OrderBy, AppointmentSortFields, "")
	if err := applyListing(query, filter, "date DESC").Find(&appointments).Error; err != nil {
		return nil, err
	}
	return appointments, nil
}

// FindLatestPendingPayment returns the most recent appointment for the
// patient that is parked at the cashier, or ErrNotFound.
func (r *GormAppointmentRepository) FindLatestPendingPayment(ctx context.Context, clinicID, patientID uuid.UUID) (*patient.Appointment, error) {
	var a patient.Appointment
	if err := r.db.WithContext(ctx).
		Scopes(clinic.Scope(clinicID)).
		Where("patient_id = ? AND queue_status = ?", patientID, patient.QueueStatusPendingPayment).
		Order("date DESC").
		First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// FindDoctorQueue returns the doctor's checked-in appointments for the day.
// Visits already in consultation stay listed; only payment hand-off or
// completion removes them.
func (r *GormAppointmentRepository) FindDoctorQueue(ctx context.Context, clinicID, doctorID uuid.UUID, day time.Time) ([]patient.Appointment, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.Add(24 * time.Hour)

	var appointments []patient.Appointment
	if err := r.db.WithContext(ctx).
		Scopes(clinic.Scope(clinicID)).
		Where("doctor_id = ? AND date >= ? AND date < ? AND queue_status IN ?", doctorID, start, end,
			[]patient.QueueStatus{patient.QueueStatusCheckedIn, patient.QueueStatusInConsultation}).
		Order("date ASC").
		Find(&appointments).Error; err != nil {
		return nil, err
	}
	return appointments, nil
}

// Save creates or updates an appointment
func (r *GormAppointmentRepository) Save(ctx context.Context, a *patient.Appointment) error {
	return r.db.WithContext(ctx).Save(a).Error
}

// Ensure GormAppointmentRepository implements AppointmentRepository
var _ patient.AppointmentRepository = (*GormAppointmentRepository)(nil)
