package consultation

import (
	"time"

	"github.com/clinicore/backend/internal/domain/patient"
	"github.com/clinicore/backend/internal/domain/record"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AssessmentInput is the clinical note recorded at the end of a visit
type AssessmentInput struct {
	Diagnosis string `json:"diagnosis" binding:"required,min=1"`
	Symptoms  string `json:"symptoms"`
	Notes     string `json:"notes"`
}

// PrescriptionInput is one prescribed medicine. InventoryID links the line
// to a stock item when the doctor picked from the catalog; free-text
// prescriptions leave it unset.
type PrescriptionInput struct {
	InventoryID  *uuid.UUID      `json:"inventory_id"`
	MedicineName string          `json:"medicine_name" binding:"required,min=1,max=200"`
	Dosage       string          `json:"dosage"`
	Quantity     int64           `json:"quantity" binding:"required,min=1"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
}

// TestOrderInput is one lab or radiology test requested during the visit
type TestOrderInput struct {
	TestName string `json:"test_name" binding:"required,min=1,max=200"`
	Priority string `json:"priority"`
	Notes    string `json:"notes"`
}

// CompleteConsultationRequest finalizes a visit: the assessment, the
// prescriptions and test orders, the consultation invoice and the queue
// update are all applied in one transaction.
type CompleteConsultationRequest struct {
	PatientID uuid.UUID `json:"patient_id" binding:"required"`
	// AppointmentID links the finalization to a queued visit. Walk-in
	// consultations without a booking leave it unset; no invoice or
	// queue update happens then.
	AppointmentID   *uuid.UUID          `json:"appointment_id"`
	Assessment      AssessmentInput     `json:"assessment" binding:"required"`
	Prescriptions   []PrescriptionInput `json:"prescriptions" binding:"dive"`
	LabOrders       []TestOrderInput    `json:"lab_orders" binding:"dive"`
	RadiologyOrders []TestOrderInput    `json:"radiology_orders" binding:"dive"`
	// ConsultationFee overrides the clinic's default fee when set.
	ConsultationFee *decimal.Decimal `json:"consultation_fee"`
}

// CompleteConsultationResponse reports everything the finalization created
type CompleteConsultationResponse struct {
	AppointmentID  uuid.UUID       `json:"appointment_id"`
	InvoiceNumber  string          `json:"invoice_number"`
	InvoiceAmount  decimal.Decimal `json:"invoice_amount"`
	OrdersCreated  int             `json:"orders_created"`
	RecordsCreated int             `json:"records_created"`
}

// QueueEntryResponse is one visit in the doctor's same-day queue
type QueueEntryResponse struct {
	AppointmentID uuid.UUID           `json:"appointment_id"`
	PatientID     uuid.UUID           `json:"patient_id"`
	Date          time.Time           `json:"date"`
	Status        patient.AppointmentStatus `json:"status"`
	QueueStatus   patient.QueueStatus `json:"queue_status"`
	IsPaid        bool                `json:"is_paid"`
}

// MedicalRecordResponse is the API representation of a medical record
type MedicalRecordResponse struct {
	ID        uuid.UUID                 `json:"id"`
	PatientID uuid.UUID                 `json:"patient_id"`
	DoctorID  uuid.UUID                 `json:"doctor_id"`
	Type      record.RecordType         `json:"type"`
	Data      record.Document           `json:"data"`
	Status    record.PrescriptionStatus `json:"status,omitempty"`
	IsClosed  bool                      `json:"is_closed"`
	CreatedAt time.Time                 `json:"created_at"`
}

// ToQueueEntryResponses converts appointments to queue entries
func ToQueueEntryResponses(appointments []patient.Appointment) []QueueEntryResponse {
	entries := make([]QueueEntryResponse, 0, len(appointments))
	for _, appt := range appointments {
		entries = append(entries, QueueEntryResponse{
			AppointmentID: appt.ID,
			PatientID:     appt.PatientID,
			Date:          appt.Date,
			Status:        appt.Status,
			QueueStatus:   appt.QueueStatus,
			IsPaid:        appt.IsPaid,
		})
	}
	return entries
}

// ToMedicalRecordResponses converts domain records
func ToMedicalRecordResponses(records []record.MedicalRecord) []MedicalRecordResponse {
	responses := make([]MedicalRecordResponse, 0, len(records))
	for _, rec := range records {
		responses = append(responses, MedicalRecordResponse{
			ID:        rec.ID,
			PatientID: rec.PatientID,
			DoctorID:  rec.DoctorID,
			Type:      rec.Type,
			Data:      rec.Data,
			Status:    rec.Status,
			IsClosed:  rec.IsClosed,
			CreatedAt: rec.CreatedAt,
		})
	}
	return responses
}
