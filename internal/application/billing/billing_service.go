package billing

import (
	"context"
	"errors"
	"time"

	"github.com/clinicore/backend/internal/domain/billing"
	"github.com/clinicore/backend/internal/domain/patient"
	"github.com/clinicore/backend/internal/domain/shared"
	"github.com/clinicore/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// settlementTimeout bounds the settlement transaction
const settlementTimeout = 20 * time.Second

// BillingService raises invoices and reconciles settlements. Settling an
// invoice is the event that unlocks downstream work: the patient's queue
// entry, the patient's payment flag and every payment-pending order for
// the visit flip in the same transaction as the invoice.
type BillingService struct {
	scope       TransactionScope
	invoiceRepo billing.InvoiceRepository
	patientRepo patient.PatientRepository
	logger      *zap.Logger
}

// NewBillingService creates a new BillingService
func NewBillingService(scope TransactionScope, invoiceRepo billing.InvoiceRepository, patientRepo patient.PatientRepository, logger *zap.Logger) *BillingService {
	return &BillingService{
		scope:       scope,
		invoiceRepo: invoiceRepo,
		patientRepo: patientRepo,
		logger:      logger,
	}
}

// CreateInvoice raises a manual invoice. The generated number carries the
// manual-invoice prefix; on the rare number collision the save is retried
// with a fresh number.
func (s *BillingService) CreateInvoice(ctx context.Context, clinicID uuid.UUID, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	exists, err := s.patientRepo.ExistsForClinic(ctx, clinicID, req.PatientID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invalid patient selected")
	}

	var invoice *billing.Invoice
	for attempt := 0; attempt < 3; attempt++ {
		number := billing.NewInvoiceNumber(billing.OriginManual)
		invoice, err = billing.NewInvoice(clinicID, number, req.PatientID, req.DoctorID, req.Service, req.Amount, billing.InvoiceStatusPending)
		if err != nil {
			return nil, err
		}
		err = s.invoiceRepo.Save(ctx, invoice)
		if err == nil {
			break
		}
		if !errors.Is(err, shared.ErrAlreadyExists) {
			return nil, err
		}
	}
	if err != nil {
		return nil, err
	}

	response := ToInvoiceResponse(invoice)
	return &response, nil
}

// GetByNumber retrieves an invoice by its human-readable number
func (s *BillingService) GetByNumber(ctx context.Context, clinicID uuid.UUID, number string) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByNumberForClinic(ctx, clinicID, number)
	if err != nil {
		return nil, err
	}
	response := ToInvoiceResponse(invoice)
	return &response, nil
}

// List returns the clinic's invoices
func (s *BillingService) List(ctx context.Context, clinicID uuid.UUID, filter InvoiceListFilter) ([]InvoiceResponse, error) {
	invoices, err := s.invoiceRepo.FindAllForClinic(ctx, clinicID, toDomainFilter(filter))
	if err != nil {
		return nil, err
	}
	return ToInvoiceResponses(invoices), nil
}

// ListByPatient returns a patient's invoices
func (s *BillingService) ListByPatient(ctx context.Context, clinicID, patientID uuid.UUID, filter InvoiceListFilter) ([]InvoiceResponse, error) {
	invoices, err := s.invoiceRepo.FindByPatient(ctx, clinicID, patientID, toDomainFilter(filter))
	if err != nil {
		return nil, err
	}
	return ToInvoiceResponses(invoices), nil
}

// ListDirectSales returns walk-in counter sale invoices
func (s *BillingService) ListDirectSales(ctx context.Context, clinicID uuid.UUID, filter InvoiceListFilter) ([]InvoiceResponse, error) {
	invoices, err := s.invoiceRepo.FindDirectSales(ctx, clinicID, toDomainFilter(filter))
	if err != nil {
		return nil, err
	}
	return ToInvoiceResponses(invoices), nil
}

// Settle marks an invoice Paid and reconciles everything that payment
// unlocks, atomically:
//   - the patient's latest pending-payment visit is marked paid,
//   - the patient's pending-payment flag is cleared,
//   - every payment-pending order for the visit becomes department-visible.
//
// Settling an already-paid invoice is a no-op reported as such, so retried
// requests never double-release.
func (s *BillingService) Settle(ctx context.Context, clinicID uuid.UUID, number string) (*SettlementResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, settlementTimeout)
	defer cancel()

	ctx, span := telemetry.StartServiceSpan(ctx, "billing", "settle",
		telemetry.WithAttribute(telemetry.SpanAttrClinicID, clinicID),
		telemetry.WithAttribute(telemetry.SpanAttrInvoiceNumber, number),
	)
	defer span.End()

	var response *SettlementResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		invoice, err := repos.InvoiceRepo().FindByNumberForClinic(ctx, clinicID, number)
		if err != nil {
			return err
		}

		if !invoice.MarkPaid() {
			response = &SettlementResponse{Invoice: ToInvoiceResponse(invoice), AlreadyPaid: true}
			return nil
		}
		if err := repos.InvoiceRepo().Save(ctx, invoice); err != nil {
			return err
		}

		result := &SettlementResponse{Invoice: ToInvoiceResponse(invoice)}

		doctorID := uuid.Nil
		if invoice.DoctorID != nil {
			doctorID = *invoice.DoctorID
		}

		appointment, err := repos.AppointmentRepo().FindLatestPendingPayment(ctx, clinicID, invoice.PatientID)
		switch {
		case err == nil:
			if err := appointment.MarkPaid(); err != nil {
				return err
			}
			if err := repos.AppointmentRepo().Save(ctx, appointment); err != nil {
				return err
			}
			result.AppointmentPaid = true
			doctorID = appointment.DoctorID
		case errors.Is(err, shared.ErrNotFound):
			// Department and direct-sale invoices settle without a
			// queued visit.
		default:
			return err
		}

		person, err := repos.PatientRepo().FindByIDForClinic(ctx, clinicID, invoice.PatientID)
		if err != nil {
			return err
		}
		if person.ClearPendingPayment() {
			if err := repos.PatientRepo().Save(ctx, person); err != nil {
				return err
			}
		}

		released, err := repos.OrderRepo().ReleasePendingPayments(ctx, clinicID, invoice.PatientID, doctorID)
		if err != nil {
			return err
		}
		result.OrdersReleased = released

		response = result
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if !response.AlreadyPaid {
		s.logger.Info("invoice settled",
			zap.String("number", number),
			zap.Bool("appointment_paid", response.AppointmentPaid),
			zap.Int64("orders_released", response.OrdersReleased),
		)
	}
	return response, nil
}

// UpdateStatus applies a status change to an invoice. Only settlement is
// supported; invoices never move back to Pending.
func (s *BillingService) UpdateStatus(ctx context.Context, clinicID uuid.UUID, number string, req UpdateInvoiceStatusRequest) (*SettlementResponse, error) {
	switch req.Status {
	case billing.InvoiceStatusPaid:
		return s.Settle(ctx, clinicID, number)
	case billing.InvoiceStatusPending:
		return nil, shared.NewDomainError("INVALID_STATUS", "A settled invoice cannot be reopened")
	default:
		return nil, shared.NewDomainError("INVALID_STATUS", "Unknown invoice status: "+string(req.Status))
	}
}

// Dashboard computes the billing aggregates for the clinic dashboard
func (s *BillingService) Dashboard(ctx context.Context, clinicID uuid.UUID) (*DashboardResponse, error) {
	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	revenueToday, err := s.invoiceRepo.SumAmountByStatus(ctx, clinicID, billing.InvoiceStatusPaid, &startOfDay, nil)
	if err != nil {
		return nil, err
	}
	revenueTotal, err := s.invoiceRepo.SumAmountByStatus(ctx, clinicID, billing.InvoiceStatusPaid, nil, nil)
	if err != nil {
		return nil, err
	}
	pendingAmount, err := s.invoiceRepo.SumAmountByStatus(ctx, clinicID, billing.InvoiceStatusPending, nil, nil)
	if err != nil {
		return nil, err
	}
	pendingCount, err := s.invoiceRepo.CountByStatus(ctx, clinicID, billing.InvoiceStatusPending)
	if err != nil {
		return nil, err
	}
	paidCount, err := s.invoiceRepo.CountByStatus(ctx, clinicID, billing.InvoiceStatusPaid)
	if err != nil {
		return nil, err
	}

	return &DashboardResponse{
		RevenueToday:  revenueToday,
		RevenueTotal:  revenueTotal,
		PendingAmount: pendingAmount,
		PendingCount:  pendingCount,
		PaidCount:     paidCount,
	}, nil
}

func toDomainFilter(filter InvoiceListFilter) shared.Filter {
	domainFilter := shared.DefaultFilter()
	domainFilter.Search = filter.Search
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	return domainFilter
}
