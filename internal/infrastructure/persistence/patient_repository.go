package persistence

import (
	"context"
	"errors"

	"github.com/clinicore/backend/internal/domain/patient"
	"github.com/clinicore/backend/internal/domain/shared"
	"github.com/clinicore/backend/internal/infrastructure/persistence/clinic"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPatientRepository implements PatientRepository using GORM
type GormPatientRepository struct {
	db *gorm.DB
}

// NewGormPatientRepository creates a new GormPatientRepository
func NewGormPatientRepository(db *gorm.DB) *GormPatientRepository {
	return &GormPatientRepository{db: db}
}

// FindByIDForClinic finds a patient by ID within a clinic
func (r *GormPatientRepository) FindByIDForClinic(ctx context.Context, clinicID, id uuid.UUID) (*patient.Patient, error) {
	var p patient.Patient
	if err := r.db.WithContext(ctx).
		Scopes(clinic.Scope(clinicID)).
		Where("id = ?", id).
		First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// FindAllForClinic finds all patients for a clinic
func (r *GormPatientRepository) FindAllForClinic(ctx context.Context, clinicID uuid.UUID, filter shared.Filter) ([]patient.Patient, error) {
	query := r.db.WithContext(ctx).Model(&patient.Patient{}).
		Scopes(clinic.Scope(clinicID))

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("name LIKE ? OR phone LIKE ? OR email LIKE ?", pattern, pattern, pattern)
	}
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}

	var patients []patient.Patient
	filter.OrderBy = ValidateSortField(filter.OrderBy, PatientSortFields, "")
	if err := applyListing(query, filter, "name ASC").Find(&patients).Error; err != nil {
		return nil, err
	}
	return patients, nil
}

// ExistsForClinic checks that a patient with the given ID belongs to the clinic
func (r *GormPatientRepository) ExistsForClinic(ctx context.Context, clinicID, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&patient.Patient{}).
		Scopes(clinic.Scope(clinicID)).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a patient
func (r *GormPatientRepository) Save(ctx context.Context, p *patient.Patient) error {
	return r.db.WithContext(ctx).Save(p).Error
}

// Ensure GormPatientRepository implements PatientRepository
var _ patient.PatientRepository = (*GormPatientRepository)(nil)
