package patient

import (
	"context"
	"time"

	"github.com/clinicore/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// PatientStatus is a coarse billing-tracking status shown on patient lists
type PatientStatus string

const (
	PatientStatusActive         PatientStatus = "Active"
	PatientStatusPendingPayment PatientStatus = "Pending Payment"
)

// Patient represents a registered patient of a clinic
type Patient struct {
	shared.ClinicAggregateRoot
	Name   string        `gorm:"type:varchar(255);not null"`
	Email  string        `gorm:"type:varchar(255)"`
	Phone  string        `gorm:"type:varchar(64)"`
	Status PatientStatus `gorm:"type:varchar(32);not null;default:'Active'"`
}

// TableName returns the table name for GORM
func (Patient) TableName() string {
	return "patients"
}

// NewPatient creates a new patient for a clinic
func NewPatient(clinicID uuid.UUID, name string) (*Patient, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Patient name cannot be empty")
	}
	return &Patient{
		ClinicAggregateRoot: shared.NewClinicAggregateRoot(clinicID),
		Name:                name,
		Status:              PatientStatusActive,
	}, nil
}

// MarkPendingPayment flags the patient as awaiting payment after a consultation
func (p *Patient) MarkPendingPayment() {
	p.Status = PatientStatusPendingPayment
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// ClearPendingPayment restores the patient to the active status. Returns
// false when the patient was not awaiting payment, so settlement retries
// skip the redundant save.
func (p *Patient) ClearPendingPayment() bool {
	if p.Status != PatientStatusPendingPayment {
		return false
	}
	p.Status = PatientStatusActive
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return true
}

// PatientRepository provides persistence for patients
type PatientRepository interface {
	FindByIDForClinic(ctx context.Context, clinicID, id uuid.UUID) (*Patient, error)
	FindAllForClinic(ctx context.Context, clinicID uuid.UUID, filter shared.Filter) ([]Patient, error)
	ExistsForClinic(ctx context.Context, clinicID, id uuid.UUID) (bool, error)
	Save(ctx context.Context, patient *Patient) error
}
