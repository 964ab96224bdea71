package billing

import (
	"context"

	"github.com/clinicore/backend/internal/domain/billing"
	"github.com/clinicore/backend/internal/domain/ordering"
	"github.com/clinicore/backend/internal/domain/patient"
)

// TransactionScope provides transactional access to the repositories the
// billing reconciler touches. Settling an invoice updates the invoice, the
// patient's queue entry, the patient flag and the pending orders as one
// atomic unit.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the billing repositories
// within a transaction. All repositories returned share the same underlying
// database transaction.
type TransactionalRepositories interface {
	// InvoiceRepo returns the invoice repository scoped to the current transaction
	InvoiceRepo() billing.InvoiceRepository
	// AppointmentRepo returns the appointment repository scoped to the current transaction
	AppointmentRepo() patient.AppointmentRepository
	// PatientRepo returns the patient repository scoped to the current transaction
	PatientRepo() patient.PatientRepository
	// OrderRepo returns the service order repository scoped to the current transaction
	OrderRepo() ordering.ServiceOrderRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. Useful for tests built on mock repositories.
type NoOpTransactionScope struct {
	invoiceRepo     billing.InvoiceRepository
	appointmentRepo patient.AppointmentRepository
	patientRepo     patient.PatientRepository
	orderRepo       ordering.ServiceOrderRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	invoiceRepo billing.InvoiceRepository,
	appointmentRepo patient.AppointmentRepository,
	patientRepo patient.PatientRepository,
	orderRepo ordering.ServiceOrderRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		invoiceRepo:     invoiceRepo,
		appointmentRepo: appointmentRepo,
		patientRepo:     patientRepo,
		orderRepo:       orderRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// InvoiceRepo returns the invoice repository.
func (s *NoOpTransactionScope) InvoiceRepo() billing.InvoiceRepository {
	return s.invoiceRepo
}

// AppointmentRepo returns the appointment repository.
func (s *NoOpTransactionScope) AppointmentRepo() patient.AppointmentRepository {
	return s.appointmentRepo
}

// PatientRepo returns the patient repository.
func (s *NoOpTransactionScope) PatientRepo() patient.PatientRepository {
	return s.patientRepo
}

// OrderRepo returns the service order repository.
func (s *NoOpTransactionScope) OrderRepo() ordering.ServiceOrderRepository {
	return s.orderRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
