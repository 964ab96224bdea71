package persistence

import (
	"context"

	appbilling "github.com/clinicore/backend/internal/application/billing"
	"github.com/clinicore/backend/internal/domain/billing"
	"github.com/clinicore/backend/internal/domain/ordering"
	"github.com/clinicore/backend/internal/domain/patient"
	"gorm.io/gorm"
)

// GormBillingTransactionScope implements the billing TransactionScope
// using GORM transactions. Settlement touches the invoice, the queued
// appointment, the patient flag and pending orders atomically.
type GormBillingTransactionScope struct {
	db *gorm.DB
}

// NewGormBillingTransactionScope creates a new GormBillingTransactionScope
func NewGormBillingTransactionScope(db *gorm.DB) *GormBillingTransactionScope {
	return &GormBillingTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *GormBillingTransactionScope) Execute(ctx context.Context, fn func(repos appbilling.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&billingTxRepositories{tx: tx})
	})
}

type billingTxRepositories struct {
	tx *gorm.DB
}

// InvoiceRepo returns the invoice repository scoped to the transaction
func (r *billingTxRepositories) InvoiceRepo() billing.InvoiceRepository {
	return NewGormInvoiceRepository(r.tx)
}

// AppointmentRepo returns the appointment repository scoped to the transaction
func (r *billingTxRepositories) AppointmentRepo() patient.AppointmentRepository {
	return NewGormAppointmentRepository(r.tx)
}

// PatientRepo returns the patient repository scoped to the transaction
func (r *billingTxRepositories) PatientRepo() patient.PatientRepository {
	return NewGormPatientRepository(r.tx)
}

// OrderRepo returns the service order repository scoped to the transaction
func (r *billingTxRepositories) OrderRepo() ordering.ServiceOrderRepository {
	return NewGormServiceOrderRepository(r.tx)
}

// Ensure the scope and its repositories satisfy the application interfaces
var (
	_ appbilling.TransactionScope          = (*GormBillingTransactionScope)(nil)
	_ appbilling.TransactionalRepositories = (*billingTxRepositories)(nil)
)
