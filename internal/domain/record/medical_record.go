package record

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/clinicore/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// RecordType distinguishes the clinical documents written at consultation
type RecordType string

const (
	RecordTypeAssessment   RecordType = "ASSESSMENT"
	RecordTypePrescription RecordType = "PRESCRIPTION"
)

// IsValid checks if the type is a known RecordType
func (t RecordType) IsValid() bool {
	return t == RecordTypeAssessment || t == RecordTypePrescription
}

// PrescriptionStatus tracks pharmacy handling of a prescription record
type PrescriptionStatus string

const (
	PrescriptionStatusNone    PrescriptionStatus = ""
	PrescriptionStatusPending PrescriptionStatus = "Pending"
	PrescriptionStatusHandled PrescriptionStatus = "Handled"
)

// Document is the serialized clinical payload of a record. Its schema is a
// convention per record type: assessments hold the template fields the
// doctor filled in, prescriptions hold the prescribed lines.
type Document map[string]interface{}

// Value implements driver.Valuer
func (d Document) Value() (driver.Value, error) {
	if d == nil {
		return "{}", nil
	}
	data, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner
func (d *Document) Scan(value interface{}) error {
	if value == nil {
		*d = Document{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return errors.New("unsupported type for Document")
	}
	if len(raw) == 0 {
		*d = Document{}
		return nil
	}
	return json.Unmarshal(raw, d)
}

// MedicalRecord is a clinical document written during an encounter
type MedicalRecord struct {
	shared.ClinicAggregateRoot
	PatientID uuid.UUID          `gorm:"type:uuid;not null;index"`
	DoctorID  uuid.UUID          `gorm:"type:uuid;not null;index"`
	Type      RecordType         `gorm:"type:varchar(32);not null"`
	Data      Document           `gorm:"type:text"`
	Status    PrescriptionStatus `gorm:"type:varchar(16)"`
	IsClosed  bool               `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (MedicalRecord) TableName() string {
	return "medical_records"
}

// NewAssessment creates a closed assessment record
func NewAssessment(clinicID, patientID, doctorID uuid.UUID, data Document) (*MedicalRecord, error) {
	return newRecord(clinicID, patientID, doctorID, RecordTypeAssessment, data, PrescriptionStatusNone, true)
}

// NewPrescription creates a pending prescription record for pharmacy
func NewPrescription(clinicID, patientID, doctorID uuid.UUID, data Document) (*MedicalRecord, error) {
	return newRecord(clinicID, patientID, doctorID, RecordTypePrescription, data, PrescriptionStatusPending, false)
}

func newRecord(clinicID, patientID, doctorID uuid.UUID, recordType RecordType, data Document, status PrescriptionStatus, closed bool) (*MedicalRecord, error) {
	if patientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PATIENT", "Patient ID cannot be empty")
	}
	if doctorID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_DOCTOR", "Doctor ID cannot be empty")
	}
	return &MedicalRecord{
		ClinicAggregateRoot: shared.NewClinicAggregateRoot(clinicID),
		PatientID:           patientID,
		DoctorID:            doctorID,
		Type:                recordType,
		Data:                data,
		Status:              status,
		IsClosed:            closed,
	}, nil
}

// MarkHandled records that pharmacy processed the prescription
func (r *MedicalRecord) MarkHandled() error {
	if r.Type != RecordTypePrescription {
		return shared.NewDomainError("INVALID_TRANSITION", "Only prescriptions can be marked handled")
	}
	r.Status = PrescriptionStatusHandled
	r.UpdatedAt = time.Now()
	r.IncrementVersion()
	return nil
}

// MedicalRecordRepository provides persistence for medical records
type MedicalRecordRepository interface {
	FindByPatient(ctx context.Context, clinicID, patientID uuid.UUID, filter shared.Filter) ([]MedicalRecord, error)
	Save(ctx context.Context, record *MedicalRecord) error
}
