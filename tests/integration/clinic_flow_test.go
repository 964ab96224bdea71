package integration

import (
	"context"
	"strings"
	"testing"
	"time"

	consultationapp "github.com/clinicore/backend/internal/application/consultation"
	orderingapp "github.com/clinicore/backend/internal/application/ordering"
	receptionapp "github.com/clinicore/backend/internal/application/reception"
	"github.com/clinicore/backend/internal/domain/ordering"
	"github.com/clinicore/backend/internal/domain/patient"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPatientJourney walks a visit through the whole clinic: registration,
// booking, check-in, consultation, the cashier, and the lab.
func TestPatientJourney(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newClinicEnv(t)
	ctx := context.Background()
	clinicID := uuid.New()
	doctorID := uuid.New()

	// Reception: register and book.
	person, err := env.Reception.RegisterPatient(ctx, clinicID, receptionapp.RegisterPatientRequest{
		Name:  "Amina Yusuf",
		Phone: "0700123456",
	})
	require.NoError(t, err)

	appt, err := env.Reception.BookAppointment(ctx, clinicID, receptionapp.BookAppointmentRequest{
		PatientID: person.ID,
		DoctorID:  doctorID,
		Date:      time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, patient.AppointmentStatusPending, appt.Status)

	appt, err = env.Reception.ApproveAppointment(ctx, clinicID, appt.ID)
	require.NoError(t, err)
	appt, err = env.Reception.CheckIn(ctx, clinicID, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, patient.AppointmentStatusCheckedIn, appt.Status)
	assert.Equal(t, patient.QueueStatusCheckedIn, appt.QueueStatus)

	// The visit shows up in the doctor's queue.
	queue, err := env.Consultation.Queue(ctx, clinicID, doctorID)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, appt.ID, queue[0].AppointmentID)

	// Consultation: start and finalize with a lab order.
	require.NoError(t, env.Consultation.Start(ctx, clinicID, doctorID, appt.ID))

	fee := decimal.NewFromInt(200)
	result, err := env.Consultation.Complete(ctx, clinicID, doctorID, consultationapp.CompleteConsultationRequest{
		PatientID:     person.ID,
		AppointmentID: &appt.ID,
		Assessment: consultationapp.AssessmentInput{
			Diagnosis: "Suspected anemia",
			Symptoms:  "Fatigue",
		},
		LabOrders: []consultationapp.TestOrderInput{
			{TestName: "Complete Blood Count"},
		},
		ConsultationFee: &fee,
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.InvoiceNumber, "CONS-"), "invoice number %q", result.InvoiceNumber)
	assert.True(t, fee.Equal(result.InvoiceAmount))
	assert.Equal(t, 1, result.OrdersCreated)

	// The lab must not see the order before the visit is paid.
	worklist, err := env.Orders.ListForDepartment(ctx, clinicID, ordering.OrderTypeLab, orderingapp.OrderListFilter{})
	require.NoError(t, err)
	assert.Empty(t, worklist)

	// Cashier: settling the consultation invoice releases the visit
	// and its orders.
	settlement, err := env.Billing.Settle(ctx, clinicID, result.InvoiceNumber)
	require.NoError(t, err)
	assert.False(t, settlement.AlreadyPaid)
	assert.True(t, settlement.AppointmentPaid)
	assert.EqualValues(t, 1, settlement.OrdersReleased)

	paidAppt, err := env.AppointmentRepo.FindByIDForClinic(ctx, clinicID, appt.ID)
	require.NoError(t, err)
	assert.True(t, paidAppt.IsPaid)
	assert.Equal(t, patient.QueueStatusPaid, paidAppt.QueueStatus)
	assert.Equal(t, patient.AppointmentStatusCompleted, paidAppt.Status)

	// A second settlement is a no-op.
	again, err := env.Billing.Settle(ctx, clinicID, result.InvoiceNumber)
	require.NoError(t, err)
	assert.True(t, again.AlreadyPaid)
	assert.False(t, again.AppointmentPaid)
	assert.Zero(t, again.OrdersReleased)

	// Lab: the released order runs through its transitions.
	worklist, err = env.Orders.ListForDepartment(ctx, clinicID, ordering.OrderTypeLab, orderingapp.OrderListFilter{})
	require.NoError(t, err)
	require.Len(t, worklist, 1)
	orderID := worklist[0].ID

	_, err = env.Orders.CollectSample(ctx, clinicID, orderID)
	require.NoError(t, err)
	_, err = env.Orders.UploadReport(ctx, clinicID, orderID, orderingapp.UploadReportRequest{
		Findings: "Hemoglobin 9.8 g/dL",
	})
	require.NoError(t, err)
	published, err := env.Orders.Publish(ctx, clinicID, orderID)
	require.NoError(t, err)
	assert.Equal(t, ordering.TestStatusPublished, published.TestStatus)

	// Patient portal: only published results are visible.
	results, err := env.Orders.ListPublishedForPatient(ctx, clinicID, person.ID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, orderID, results[0].ID)

	// The visit left a medical record behind.
	history, err := env.Consultation.History(ctx, clinicID, person.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, history)
}

// TestConsultationRollback verifies that a failed finalization leaves no
// partial state behind.
func TestConsultationRollback(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newClinicEnv(t)
	ctx := context.Background()
	clinicID := uuid.New()
	doctorID := uuid.New()

	person, err := env.Reception.RegisterPatient(ctx, clinicID, receptionapp.RegisterPatientRequest{Name: "Walk In"})
	require.NoError(t, err)

	// Finalizing against an appointment that does not exist fails after
	// the assessment was written inside the transaction; the rollback
	// must discard it.
	missing := uuid.New()
	_, err = env.Consultation.Complete(ctx, clinicID, doctorID, consultationapp.CompleteConsultationRequest{
		PatientID:     person.ID,
		AppointmentID: &missing,
		Assessment:    consultationapp.AssessmentInput{Diagnosis: "n/a"},
	})
	require.Error(t, err)

	history, err := env.Consultation.History(ctx, clinicID, person.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}
