package persistence

import (
	"context"

	"github.com/clinicore/backend/internal/domain/record"
	"github.com/clinicore/backend/internal/domain/shared"
	"github.com/clinicore/backend/internal/infrastructure/persistence/clinic"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormMedicalRecordRepository implements MedicalRecordRepository using GORM
type GormMedicalRecordRepository struct {
	db *gorm.DB
}

// NewGormMedicalRecordRepository creates a new GormMedicalRecordRepository
func NewGormMedicalRecordRepository(db *gorm.DB) *GormMedicalRecordRepository {
	return &GormMedicalRecordRepository{db: db}
}

// FindByPatient finds a patient's clinical records, newest first
func (r *GormMedicalRecordRepository) FindByPatient(ctx context.Context, clinicID, patientID uuid.UUID, filter shared.Filter) ([]record.MedicalRecord, error) {
	query := r.db.WithContext(ctx).Model(&record.MedicalRecord{}).
		Scopes(clinic.Scope(clinicID)).
		Where("patient_id = ?", patientID)

	if recordType, ok := filter.Filters["type"]; ok {
		query = query.Where("type = ?", recordType)
	}
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}

	var records []record.MedicalRecord
	filter.OrderBy = ValidateSortField(filter.OrderBy, MedicalRecordSortFields, "")
	if err := applyListing(query, filter, "created_at DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Save creates or updates a medical record
func (r *GormMedicalRecordRepository) Save(ctx context.Context, rec *record.MedicalRecord) error {
	return r.db.WithContext(ctx).Save(rec).Error
}

// Ensure GormMedicalRecordRepository implements MedicalRecordRepository
var _ record.MedicalRecordRepository = (*GormMedicalRecordRepository)(nil)
