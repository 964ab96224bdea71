package reception

import (
	"context"

	"github.com/clinicore/backend/internal/domain/patient"
	"github.com/clinicore/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ReceptionService covers the front desk: the patient register, bookings
// and the same-day check-in that feeds the doctor queue.
type ReceptionService struct {
	patientRepo     patient.PatientRepository
	appointmentRepo patient.AppointmentRepository
}

// NewReceptionService creates a new ReceptionService
func NewReceptionService(patientRepo patient.PatientRepository, appointmentRepo patient.AppointmentRepository) *ReceptionService {
	return &ReceptionService{
		patientRepo:     patientRepo,
		appointmentRepo: appointmentRepo,
	}
}

// RegisterPatient adds a patient to the clinic's register
func (s *ReceptionService) RegisterPatient(ctx context.Context, clinicID uuid.UUID, req RegisterPatientRequest) (*PatientResponse, error) {
	person, err := patient.NewPatient(clinicID, req.Name)
	if err != nil {
		return nil, err
	}
	person.Email = req.Email
	person.Phone = req.Phone
	if err := s.patientRepo.Save(ctx, person); err != nil {
		return nil, err
	}
	response := ToPatientResponse(person)
	return &response, nil
}

// GetPatient retrieves a patient within a clinic
func (s *ReceptionService) GetPatient(ctx context.Context, clinicID, patientID uuid.UUID) (*PatientResponse, error) {
	person, err := s.patientRepo.FindByIDForClinic(ctx, clinicID, patientID)
	if err != nil {
		return nil, err
	}
	response := ToPatientResponse(person)
	return &response, nil
}

// ListPatients returns the clinic's patient register
func (s *ReceptionService) ListPatients(ctx context.Context, clinicID uuid.UUID, filter PatientListFilter) ([]PatientResponse, error) {
	domainFilter := shared.DefaultFilter()
	domainFilter.Search = filter.Search
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	patients, err := s.patientRepo.FindAllForClinic(ctx, clinicID, domainFilter)
	if err != nil {
		return nil, err
	}
	return ToPatientResponses(patients), nil
}

// BookAppointment books a visit. The booking starts Pending until the
// desk approves it.
func (s *ReceptionService) BookAppointment(ctx context.Context, clinicID uuid.UUID, req BookAppointmentRequest) (*AppointmentResponse, error) {
	exists, err := s.patientRepo.ExistsForClinic(ctx, clinicID, req.PatientID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invalid patient selected")
	}

	appt, err := patient.NewAppointment(clinicID, req.PatientID, req.DoctorID, req.Date)
	if err != nil {
		return nil, err
	}
	appt.Notes = req.Notes
	if err := s.appointmentRepo.Save(ctx, appt); err != nil {
		return nil, err
	}
	response := ToAppointmentResponse(appt)
	return &response, nil
}

// ApproveAppointment confirms a pending booking
func (s *ReceptionService) ApproveAppointment(ctx context.Context, clinicID, appointmentID uuid.UUID) (*AppointmentResponse, error) {
	return s.applyTransition(ctx, clinicID, appointmentID, (*patient.Appointment).Approve)
}

// CheckIn marks the patient as arrived; the visit enters the doctor's
// same-day queue.
func (s *ReceptionService) CheckIn(ctx context.Context, clinicID, appointmentID uuid.UUID) (*AppointmentResponse, error) {
	return s.applyTransition(ctx, clinicID, appointmentID, (*patient.Appointment).CheckIn)
}

// CancelAppointment cancels a booking
func (s *ReceptionService) CancelAppointment(ctx context.Context, clinicID, appointmentID uuid.UUID) (*AppointmentResponse, error) {
	return s.applyTransition(ctx, clinicID, appointmentID, (*patient.Appointment).Cancel)
}

// ListAppointments returns the clinic's appointments
func (s *ReceptionService) ListAppointments(ctx context.Context, clinicID uuid.UUID, filter AppointmentListFilter) ([]AppointmentResponse, error) {
	domainFilter := shared.DefaultFilter()
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	appointments, err := s.appointmentRepo.FindAllForClinic(ctx, clinicID, domainFilter)
	if err != nil {
		return nil, err
	}
	return ToAppointmentResponses(appointments), nil
}

func (s *ReceptionService) applyTransition(ctx context.Context, clinicID, appointmentID uuid.UUID, fn func(*patient.Appointment) error) (*AppointmentResponse, error) {
	appt, err := s.appointmentRepo.FindByIDForClinic(ctx, clinicID, appointmentID)
	if err != nil {
		return nil, err
	}
	if err := fn(appt); err != nil {
		return nil, err
	}
	if err := s.appointmentRepo.Save(ctx, appt); err != nil {
		return nil, err
	}
	response := ToAppointmentResponse(appt)
	return &response, nil
}
