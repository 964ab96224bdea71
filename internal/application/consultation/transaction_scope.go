package consultation

import (
	"context"

	"github.com/clinicore/backend/internal/domain/billing"
	"github.com/clinicore/backend/internal/domain/notification"
	"github.com/clinicore/backend/internal/domain/ordering"
	"github.com/clinicore/backend/internal/domain/patient"
	"github.com/clinicore/backend/internal/domain/record"
)

// TransactionScope provides transactional access to the repositories a
// consultation finalization touches. The assessment, the prescriptions,
// the service orders, the invoice and the queue update commit as one unit;
// a failure anywhere leaves the visit In-Consultation.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the consultation
// repositories within a transaction. All repositories returned share the
// same underlying database transaction.
type TransactionalRepositories interface {
	// AppointmentRepo returns the appointment repository scoped to the current transaction
	AppointmentRepo() patient.AppointmentRepository
	// PatientRepo returns the patient repository scoped to the current transaction
	PatientRepo() patient.PatientRepository
	// RecordRepo returns the medical record repository scoped to the current transaction
	RecordRepo() record.MedicalRecordRepository
	// OrderRepo returns the service order repository scoped to the current transaction
	OrderRepo() ordering.ServiceOrderRepository
	// InvoiceRepo returns the invoice repository scoped to the current transaction
	InvoiceRepo() billing.InvoiceRepository
	// NotificationRepo returns the notification repository scoped to the current transaction
	NotificationRepo() notification.NotificationRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. Useful for tests built on mock repositories.
type NoOpTransactionScope struct {
	appointmentRepo  patient.AppointmentRepository
	patientRepo      patient.PatientRepository
	recordRepo       record.MedicalRecordRepository
	orderRepo        ordering.ServiceOrderRepository
	invoiceRepo      billing.InvoiceRepository
	notificationRepo notification.NotificationRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	appointmentRepo patient.AppointmentRepository,
	patientRepo patient.PatientRepository,
	recordRepo record.MedicalRecordRepository,
	orderRepo ordering.ServiceOrderRepository,
	invoiceRepo billing.InvoiceRepository,
	notificationRepo notification.NotificationRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		appointmentRepo:  appointmentRepo,
		patientRepo:      patientRepo,
		recordRepo:       recordRepo,
		orderRepo:        orderRepo,
		invoiceRepo:      invoiceRepo,
		notificationRepo: notificationRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// AppointmentRepo returns the appointment repository.
func (s *NoOpTransactionScope) AppointmentRepo() patient.AppointmentRepository {
	return s.appointmentRepo
}

// PatientRepo returns the patient repository.
func (s *NoOpTransactionScope) PatientRepo() patient.PatientRepository {
	return s.patientRepo
}

// RecordRepo returns the medical record repository.
func (s *NoOpTransactionScope) RecordRepo() record.MedicalRecordRepository {
	return s.recordRepo
}

// OrderRepo returns the service order repository.
func (s *NoOpTransactionScope) OrderRepo() ordering.ServiceOrderRepository {
	return s.orderRepo
}

// InvoiceRepo returns the invoice repository.
func (s *NoOpTransactionScope) InvoiceRepo() billing.InvoiceRepository {
	return s.invoiceRepo
}

// NotificationRepo returns the notification repository.
func (s *NoOpTransactionScope) NotificationRepo() notification.NotificationRepository {
	return s.notificationRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
