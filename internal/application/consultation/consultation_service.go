package consultation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/clinicore/backend/internal/domain/billing"
	"github.com/clinicore/backend/internal/domain/notification"
	"github.com/clinicore/backend/internal/domain/ordering"
	"github.com/clinicore/backend/internal/domain/patient"
	"github.com/clinicore/backend/internal/domain/record"
	"github.com/clinicore/backend/internal/domain/shared"
	"github.com/clinicore/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// finalizationTimeout bounds the finalization transaction
const finalizationTimeout = 20 * time.Second

// defaultConsultationFee is charged when the doctor does not set an amount
var defaultConsultationFee = decimal.NewFromInt(150)

// ConsultationService finalizes doctor visits. Completing a consultation
// fans out into every downstream module in one transaction: the clinical
// record, the pharmacy and test orders with their department
// notifications, the consultation invoice and the cashier queue update.
type ConsultationService struct {
	scope           TransactionScope
	appointmentRepo patient.AppointmentRepository
	recordRepo      record.MedicalRecordRepository
	logger          *zap.Logger
}

// NewConsultationService creates a new ConsultationService
func NewConsultationService(scope TransactionScope, appointmentRepo patient.AppointmentRepository, recordRepo record.MedicalRecordRepository, logger *zap.Logger) *ConsultationService {
	return &ConsultationService{
		scope:           scope,
		appointmentRepo: appointmentRepo,
		recordRepo:      recordRepo,
		logger:          logger,
	}
}

// Start moves a checked-in visit into the consultation room
func (s *ConsultationService) Start(ctx context.Context, clinicID, doctorID, appointmentID uuid.UUID) error {
	appt, err := s.appointmentRepo.FindByIDForClinic(ctx, clinicID, appointmentID)
	if err != nil {
		return err
	}
	if appt.DoctorID != doctorID {
		return shared.ErrForbidden
	}
	if err := appt.StartConsultation(); err != nil {
		return err
	}
	return s.appointmentRepo.Save(ctx, appt)
}

// Complete finalizes a consultation. Everything the visit produced is
// written in a single transaction; if any part fails the visit stays
// In-Consultation and nothing is billed.
func (s *ConsultationService) Complete(ctx context.Context, clinicID, doctorID uuid.UUID, req CompleteConsultationRequest) (*CompleteConsultationResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, finalizationTimeout)
	defer cancel()

	ctx, span := telemetry.StartServiceSpan(ctx, "consultation", "complete",
		telemetry.WithAttribute(telemetry.SpanAttrClinicID, clinicID),
		telemetry.WithAttribute(telemetry.SpanAttrPatientID, req.PatientID),
	)
	defer span.End()

	var response *CompleteConsultationResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		person, err := repos.PatientRepo().FindByIDForClinic(ctx, clinicID, req.PatientID)
		if err != nil {
			return err
		}

		result := &CompleteConsultationResponse{}

		assessment, err := record.NewAssessment(clinicID, req.PatientID, doctorID, record.Document{
			"diagnosis": req.Assessment.Diagnosis,
			"symptoms":  req.Assessment.Symptoms,
			"notes":     req.Assessment.Notes,
		})
		if err != nil {
			return err
		}
		if err := repos.RecordRepo().Save(ctx, assessment); err != nil {
			return err
		}
		result.RecordsCreated++

		if len(req.Prescriptions) > 0 {
			if err := s.createPrescriptionOrder(ctx, repos, clinicID, doctorID, req, result); err != nil {
				return err
			}
		}
		for _, test := range req.LabOrders {
			if err := s.createTestOrder(ctx, repos, clinicID, doctorID, req.PatientID, ordering.OrderTypeLab, test); err != nil {
				return err
			}
			result.OrdersCreated++
		}
		for _, test := range req.RadiologyOrders {
			if err := s.createTestOrder(ctx, repos, clinicID, doctorID, req.PatientID, ordering.OrderTypeRadiology, test); err != nil {
				return err
			}
			result.OrdersCreated++
		}

		if req.AppointmentID != nil {
			appt, err := repos.AppointmentRepo().FindByIDForClinic(ctx, clinicID, *req.AppointmentID)
			if err != nil {
				return err
			}
			if appt.DoctorID != doctorID || appt.PatientID != req.PatientID {
				return shared.ErrForbidden
			}

			fee := defaultConsultationFee
			if req.ConsultationFee != nil && req.ConsultationFee.IsPositive() {
				fee = *req.ConsultationFee
			}
			if err := appt.CompleteConsultation(&fee); err != nil {
				return err
			}
			if err := repos.AppointmentRepo().Save(ctx, appt); err != nil {
				return err
			}

			number := billing.NewInvoiceNumber(billing.OriginConsultation)
			invoice, err := billing.NewInvoice(clinicID, number, req.PatientID, &doctorID, "Consultation Fee", fee, billing.InvoiceStatusPending)
			if err != nil {
				return err
			}
			if err := repos.InvoiceRepo().Save(ctx, invoice); err != nil {
				return err
			}

			person.MarkPendingPayment()
			if err := repos.PatientRepo().Save(ctx, person); err != nil {
				return err
			}

			result.AppointmentID = appt.ID
			result.InvoiceNumber = number
			result.InvoiceAmount = fee
		}

		response = result
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrInvoiceNumber, response.InvoiceNumber)

	s.logger.Info("consultation completed",
		zap.String("patient_id", req.PatientID.String()),
		zap.Int("orders_created", response.OrdersCreated),
		zap.String("invoice_number", response.InvoiceNumber),
	)
	return response, nil
}

// createPrescriptionOrder writes the prescription record and the pharmacy
// order it is dispensed from, and notifies the pharmacy.
func (s *ConsultationService) createPrescriptionOrder(ctx context.Context, repos TransactionalRepositories, clinicID, doctorID uuid.UUID, req CompleteConsultationRequest, result *CompleteConsultationResponse) error {
	lines := make([]ordering.PrescriptionLine, 0, len(req.Prescriptions))
	medicines := make([]record.Document, 0, len(req.Prescriptions))
	names := make([]string, 0, len(req.Prescriptions))
	for _, p := range req.Prescriptions {
		lines = append(lines, ordering.PrescriptionLine{
			InventoryID:  p.InventoryID,
			MedicineName: p.MedicineName,
			Quantity:     p.Quantity,
			UnitPrice:    p.UnitPrice,
		})
		medicines = append(medicines, record.Document{
			"medicine": p.MedicineName,
			"dosage":   p.Dosage,
			"quantity": p.Quantity,
		})
		names = append(names, fmt.Sprintf("%s x%d", p.MedicineName, p.Quantity))
	}

	prescription, err := record.NewPrescription(clinicID, req.PatientID, doctorID, record.Document{
		"medicines": medicines,
	})
	if err != nil {
		return err
	}
	if err := repos.RecordRepo().Save(ctx, prescription); err != nil {
		return err
	}
	result.RecordsCreated++

	order, err := ordering.NewServiceOrder(clinicID, req.PatientID, doctorID, ordering.OrderTypePharmacy, strings.Join(names, ", "))
	if err != nil {
		return err
	}
	order.Result.Items = lines
	if err := repos.OrderRepo().Save(ctx, order); err != nil {
		return err
	}
	result.OrdersCreated++

	notice, err := notification.NewNotification(clinicID, ordering.OrderTypePharmacy.Department(), notification.Message{
		PatientID: req.PatientID,
		OrderID:   &order.ID,
		Type:      string(ordering.OrderTypePharmacy),
		Action:    "NEW_ORDER",
		Text:      "New prescription: " + strings.Join(names, ", "),
	})
	if err != nil {
		return err
	}
	return repos.NotificationRepo().Save(ctx, notice)
}

// createTestOrder writes one lab/radiology order and its department notification
func (s *ConsultationService) createTestOrder(ctx context.Context, repos TransactionalRepositories, clinicID, doctorID, patientID uuid.UUID, orderType ordering.OrderType, test TestOrderInput) error {
	order, err := ordering.NewServiceOrder(clinicID, patientID, doctorID, orderType, test.TestName)
	if err != nil {
		return err
	}
	order.Result.Priority = test.Priority
	order.Result.Notes = test.Notes
	if err := repos.OrderRepo().Save(ctx, order); err != nil {
		return err
	}

	notice, err := notification.NewNotification(clinicID, orderType.Department(), notification.Message{
		PatientID: patientID,
		OrderID:   &order.ID,
		Type:      string(orderType),
		Action:    "NEW_ORDER",
		Text:      fmt.Sprintf("New %s order: %s", orderType.Department(), test.TestName),
	})
	if err != nil {
		return err
	}
	return repos.NotificationRepo().Save(ctx, notice)
}

// Queue returns today's checked-in visits for the doctor
func (s *ConsultationService) Queue(ctx context.Context, clinicID, doctorID uuid.UUID) ([]QueueEntryResponse, error) {
	appointments, err := s.appointmentRepo.FindDoctorQueue(ctx, clinicID, doctorID, time.Now())
	if err != nil {
		return nil, err
	}
	return ToQueueEntryResponses(appointments), nil
}

// History returns a patient's medical records
func (s *ConsultationService) History(ctx context.Context, clinicID, patientID uuid.UUID) ([]MedicalRecordResponse, error) {
	records, err := s.recordRepo.FindByPatient(ctx, clinicID, patientID, shared.DefaultFilter())
	if err != nil {
		return nil, err
	}
	return ToMedicalRecordResponses(records), nil
}
