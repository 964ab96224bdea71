package patient

import (
	"context"
	"fmt"
	"time"

	"github.com/clinicore/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AppointmentStatus is the coarse booking status of an appointment
type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "Pending"
	AppointmentStatusApproved  AppointmentStatus = "Approved"
	AppointmentStatusCheckedIn AppointmentStatus = "Checked-In"
	AppointmentStatusCompleted AppointmentStatus = "Completed"
	AppointmentStatusCancelled AppointmentStatus = "Cancelled"
)

// IsValid checks if the status is a known AppointmentStatus
func (s AppointmentStatus) IsValid() bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusApproved, AppointmentStatusCheckedIn,
		AppointmentStatusCompleted, AppointmentStatusCancelled:
		return true
	}
	return false
}

// QueueStatus is the fine-grained same-day tracking state of an appointment,
// distinct from the coarse booking status.
type QueueStatus string

const (
	QueueStatusNone           QueueStatus = ""
	QueueStatusCheckedIn      QueueStatus = "Checked-In"
	QueueStatusInConsultation QueueStatus = "In-Consultation"
	QueueStatusPendingPayment QueueStatus = "Pending-Payment"
	QueueStatusPaid           QueueStatus = "Paid"
)

// CanTransitionTo checks if the queue status can advance to the target.
// The queue only moves forward within a visit day.
func (s QueueStatus) CanTransitionTo(target QueueStatus) bool {
	switch s {
	case QueueStatusNone:
		return target == QueueStatusCheckedIn
	case QueueStatusCheckedIn:
		return target == QueueStatusInConsultation || target == QueueStatusPendingPayment
	case QueueStatusInConsultation:
		return target == QueueStatusPendingPayment
	case QueueStatusPendingPayment:
		return target == QueueStatusPaid
	case QueueStatusPaid:
		return false
	}
	return false
}

// Appointment represents a patient visit booked with a doctor at a clinic
type Appointment struct {
	shared.ClinicAggregateRoot
	PatientID     uuid.UUID         `gorm:"type:uuid;not null;index"`
	DoctorID      uuid.UUID         `gorm:"type:uuid;not null;index"`
	Date          time.Time         `gorm:"not null;index"`
	Status        AppointmentStatus `gorm:"type:varchar(32);not null;default:'Pending'"`
	QueueStatus   QueueStatus       `gorm:"type:varchar(32);not null;default:''"`
	IsPaid        bool              `gorm:"not null;default:false"`
	BillingAmount decimal.Decimal   `gorm:"type:decimal(18,2);not null;default:0"`
	Notes         string            `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Appointment) TableName() string {
	return "appointments"
}

// NewAppointment books a new appointment
func NewAppointment(clinicID, patientID, doctorID uuid.UUID, date time.Time) (*Appointment, error) {
	if patientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PATIENT", "Patient ID cannot be empty")
	}
	if doctorID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_DOCTOR", "Doctor ID cannot be empty")
	}
	if date.IsZero() {
		return nil, shared.NewDomainError("INVALID_DATE", "Appointment date cannot be empty")
	}
	return &Appointment{
		ClinicAggregateRoot: shared.NewClinicAggregateRoot(clinicID),
		PatientID:           patientID,
		DoctorID:            doctorID,
		Date:                date,
		Status:              AppointmentStatusPending,
		QueueStatus:         QueueStatusNone,
		BillingAmount:       decimal.Zero,
	}, nil
}

// Approve confirms a pending booking
func (a *Appointment) Approve() error {
	if a.Status != AppointmentStatusPending {
		return shared.NewDomainError("INVALID_TRANSITION", fmt.Sprintf("Cannot approve appointment in %s status", a.Status))
	}
	a.Status = AppointmentStatusApproved
	a.touch()
	return nil
}

// CheckIn marks the patient as arrived and enters the same-day queue
func (a *Appointment) CheckIn() error {
	if a.Status != AppointmentStatusPending && a.Status != AppointmentStatusApproved {
		return shared.NewDomainError("INVALID_TRANSITION", fmt.Sprintf("Cannot check in appointment in %s status", a.Status))
	}
	if !a.QueueStatus.CanTransitionTo(QueueStatusCheckedIn) {
		return shared.ErrInvalidTransition
	}
	a.Status = AppointmentStatusCheckedIn
	a.QueueStatus = QueueStatusCheckedIn
	a.touch()
	return nil
}

// StartConsultation moves the visit into the consultation room
func (a *Appointment) StartConsultation() error {
	if !a.QueueStatus.CanTransitionTo(QueueStatusInConsultation) {
		return shared.ErrInvalidTransition
	}
	a.QueueStatus = QueueStatusInConsultation
	a.touch()
	return nil
}

// CompleteConsultation finishes the encounter and parks the visit at the
// cashier. The billing amount is recorded when the doctor supplies one.
func (a *Appointment) CompleteConsultation(billingAmount *decimal.Decimal) error {
	if !a.QueueStatus.CanTransitionTo(QueueStatusPendingPayment) {
		return shared.ErrInvalidTransition
	}
	a.Status = AppointmentStatusCompleted
	a.QueueStatus = QueueStatusPendingPayment
	if billingAmount != nil {
		a.BillingAmount = *billingAmount
	}
	a.touch()
	return nil
}

// MarkPaid records a settled consultation invoice against the visit.
// Only reachable from Pending-Payment; the billing reconciler is the sole
// caller.
func (a *Appointment) MarkPaid() error {
	if !a.QueueStatus.CanTransitionTo(QueueStatusPaid) {
		return shared.ErrInvalidTransition
	}
	a.QueueStatus = QueueStatusPaid
	a.IsPaid = true
	a.touch()
	return nil
}

// Cancel cancels the booking
func (a *Appointment) Cancel() error {
	if a.Status == AppointmentStatusCompleted || a.Status == AppointmentStatusCancelled {
		return shared.NewDomainError("INVALID_TRANSITION", fmt.Sprintf("Cannot cancel appointment in %s status", a.Status))
	}
	a.Status = AppointmentStatusCancelled
	a.touch()
	return nil
}

func (a *Appointment) touch() {
	a.UpdatedAt = time.Now()
	a.IncrementVersion()
}

// AppointmentRepository provides persistence for appointments
type AppointmentRepository interface {
	FindByIDForClinic(ctx context.Context, clinicID, id uuid.UUID) (*Appointment, error)
	FindAllForClinic(ctx context.Context, clinicID uuid.UUID, filter shared.Filter) ([]Appointment, error)
	// FindLatestPendingPayment returns the most recent appointment for the
	// patient that is parked at the cashier, or ErrNotFound.
	FindLatestPendingPayment(ctx context.Context, clinicID, patientID uuid.UUID) (*Appointment, error)
	// FindDoctorQueue returns today's checked-in appointments for a doctor.
	FindDoctorQueue(ctx context.Context, clinicID, doctorID uuid.UUID, day time.Time) ([]Appointment, error)
	Save(ctx context.Context, appointment *Appointment) error
}
