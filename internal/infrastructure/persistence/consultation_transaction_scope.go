package persistence

import (
	"context"

	appconsultation "github.com/clinicore/backend/internal/application/consultation"
	"github.com/clinicore/backend/internal/domain/billing"
	"github.com/clinicore/backend/internal/domain/notification"
	"github.com/clinicore/backend/internal/domain/ordering"
	"github.com/clinicore/backend/internal/domain/patient"
	"github.com/clinicore/backend/internal/domain/record"
	"gorm.io/gorm"
)

// GormConsultationTransactionScope implements the consultation
// TransactionScope using GORM transactions. Finalizing a visit writes
// records, orders, notifications, the invoice and the queue update as one
// unit.
type GormConsultationTransactionScope struct {
	db *gorm.DB
}

// NewGormConsultationTransactionScope creates a new GormConsultationTransactionScope
func NewGormConsultationTransactionScope(db *gorm.DB) *GormConsultationTransactionScope {
	return &GormConsultationTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *GormConsultationTransactionScope) Execute(ctx context.Context, fn func(repos appconsultation.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&consultationTxRepositories{tx: tx})
	})
}

type consultationTxRepositories struct {
	tx *gorm.DB
}

// AppointmentRepo returns the appointment repository scoped to the transaction
func (r *consultationTxRepositories) AppointmentRepo() patient.AppointmentRepository {
	return NewGormAppointmentRepository(r.tx)
}

// PatientRepo returns the patient repository scoped to the transaction
func (r *consultationTxRepositories) PatientRepo() patient.PatientRepository {
	return NewGormPatientRepository(r.tx)
}

// RecordRepo returns the medical record repository scoped to the transaction
func (r *consultationTxRepositories) RecordRepo() record.MedicalRecordRepository {
	return NewGormMedicalRecordRepository(r.tx)
}

// OrderRepo returns the service order repository scoped to the transaction
func (r *consultationTxRepositories) OrderRepo() ordering.ServiceOrderRepository {
	return NewGormServiceOrderRepository(r.tx)
}

// InvoiceRepo returns the invoice repository scoped to the transaction
func (r *consultationTxRepositories) InvoiceRepo() billing.InvoiceRepository {
	return NewGormInvoiceRepository(r.tx)
}

// NotificationRepo returns the notification repository scoped to the transaction
func (r *consultationTxRepositories) NotificationRepo() notification.NotificationRepository {
	return NewGormNotificationRepository(r.tx)
}

// Ensure the scope and its repositories satisfy the application interfaces
var (
	_ appconsultation.TransactionScope          = (*GormConsultationTransactionScope)(nil)
	_ appconsultation.TransactionalRepositories = (*consultationTxRepositories)(nil)
)
