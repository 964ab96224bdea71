package reception

import (
	"time"

	"github.com/clinicore/backend/internal/domain/patient"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RegisterPatientRequest adds a patient to the clinic's register
type RegisterPatientRequest struct {
	Name  string `json:"name" binding:"required,min=1,max=200"`
	Email string `json:"email" binding:"omitempty,email"`
	Phone string `json:"phone" binding:"max=32"`
}

// BookAppointmentRequest books a visit with a doctor
type BookAppointmentRequest struct {
	PatientID uuid.UUID `json:"patient_id" binding:"required"`
	DoctorID  uuid.UUID `json:"doctor_id" binding:"required"`
	Date      time.Time `json:"date" binding:"required"`
	Notes     string    `json:"notes"`
}

// AppointmentListFilter filters appointment listings
type AppointmentListFilter struct {
	Status   string `form:"status"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// PatientListFilter filters the patient register
type PatientListFilter struct {
	Search   string `form:"search"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// PatientResponse is the API representation of a patient
type PatientResponse struct {
	ID        uuid.UUID             `json:"id"`
	ClinicID  uuid.UUID             `json:"clinic_id"`
	Name      string                `json:"name"`
	Email     string                `json:"email,omitempty"`
	Phone     string                `json:"phone,omitempty"`
	Status    patient.PatientStatus `json:"status"`
	CreatedAt time.Time             `json:"created_at"`
}

// AppointmentResponse is the API representation of an appointment
type AppointmentResponse struct {
	ID            uuid.UUID                 `json:"id"`
	ClinicID      uuid.UUID                 `json:"clinic_id"`
	PatientID     uuid.UUID                 `json:"patient_id"`
	DoctorID      uuid.UUID                 `json:"doctor_id"`
	Date          time.Time                 `json:"date"`
	Status        patient.AppointmentStatus `json:"status"`
	QueueStatus   patient.QueueStatus       `json:"queue_status,omitempty"`
	IsPaid        bool                      `json:"is_paid"`
	BillingAmount decimal.Decimal           `json:"billing_amount"`
	Notes         string                    `json:"notes,omitempty"`
	CreatedAt     time.Time                 `json:"created_at"`
	UpdatedAt     time.Time                 `json:"updated_at"`
}

// ToPatientResponse converts a domain patient
func ToPatientResponse(p *patient.Patient) PatientResponse {
	return PatientResponse{
		ID:        p.ID,
		ClinicID:  p.ClinicID,
		Name:      p.Name,
		Email:     p.Email,
		Phone:     p.Phone,
		Status:    p.Status,
		CreatedAt: p.CreatedAt,
	}
}

// ToPatientResponses converts a slice of domain patients
func ToPatientResponses(patients []patient.Patient) []PatientResponse {
	responses := make([]PatientResponse, 0, len(patients))
	for idx := range patients {
		responses = append(responses, ToPatientResponse(&patients[idx]))
	}
	return responses
}

// ToAppointmentResponse converts a domain appointment
func ToAppointmentResponse(a *patient.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:            a.ID,
		ClinicID:      a.ClinicID,
		PatientID:     a.PatientID,
		DoctorID:      a.DoctorID,
		Date:          a.Date,
		Status:        a.Status,
		QueueStatus:   a.QueueStatus,
		IsPaid:        a.IsPaid,
		BillingAmount: a.BillingAmount,
		Notes:         a.Notes,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

// ToAppointmentResponses converts a slice of domain appointments
func ToAppointmentResponses(appointments []patient.Appointment) []AppointmentResponse {
	responses := make([]AppointmentResponse, 0, len(appointments))
	for idx := range appointments {
		responses = append(responses, ToAppointmentResponse(&appointments[idx]))
	}
	return responses
}
