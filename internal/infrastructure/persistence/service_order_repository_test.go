package persistence

import (
	"context"
	"testing"

	"github.com/clinicore/backend/internal/domain/ordering"
	"github.com/clinicore/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrder(t *testing.T, clinicID, patientID, doctorID uuid.UUID, orderType ordering.OrderType) *ordering.ServiceOrder {
	t.Helper()
	order, err := ordering.NewServiceOrder(clinicID, patientID, doctorID, orderType, "Blood Panel")
	require.NoError(t, err)
	return order
}

func TestGormServiceOrderRepository_FindByIDForClinic(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormServiceOrderRepository(db)
	ctx := context.Background()
	clinicID := uuid.New()

	order := newTestOrder(t, clinicID, uuid.New(), uuid.New(), ordering.OrderTypeLab)
	require.NoError(t, repo.Save(ctx, order))

	found, err := repo.FindByIDForClinic(ctx, clinicID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)
	assert.Equal(t, ordering.TestStatusPending, found.TestStatus)

	// A different clinic gets the same NotFound a missing order would.
	_, err = repo.FindByIDForClinic(ctx, uuid.New(), order.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormServiceOrderRepository_FindForDepartment_PaymentGate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormServiceOrderRepository(db)
	ctx := context.Background()
	clinicID := uuid.New()

	unpaid := newTestOrder(t, clinicID, uuid.New(), uuid.New(), ordering.OrderTypeLab)
	require.NoError(t, repo.Save(ctx, unpaid))

	paid := newTestOrder(t, clinicID, uuid.New(), uuid.New(), ordering.OrderTypeLab)
	paid.ReleasePayment()
	require.NoError(t, repo.Save(ctx, paid))

	paidRadiology := newTestOrder(t, clinicID, uuid.New(), uuid.New(), ordering.OrderTypeRadiology)
	paidRadiology.ReleasePayment()
	require.NoError(t, repo.Save(ctx, paidRadiology))

	orders, err := repo.FindForDepartment(ctx, clinicID, ordering.OrderTypeLab, "", shared.DefaultFilter())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, paid.ID, orders[0].ID)
}

func TestGormServiceOrderRepository_FindForDepartment_StatusFilter(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormServiceOrderRepository(db)
	ctx := context.Background()
	clinicID := uuid.New()

	pending := newTestOrder(t, clinicID, uuid.New(), uuid.New(), ordering.OrderTypeLab)
	pending.ReleasePayment()
	require.NoError(t, repo.Save(ctx, pending))

	collected := newTestOrder(t, clinicID, uuid.New(), uuid.New(), ordering.OrderTypeLab)
	collected.ReleasePayment()
	require.NoError(t, collected.CollectSample())
	require.NoError(t, repo.Save(ctx, collected))

	orders, err := repo.FindForDepartment(ctx, clinicID, ordering.OrderTypeLab, ordering.TestStatusSampleCollected, shared.DefaultFilter())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, collected.ID, orders[0].ID)
}

func TestGormServiceOrderRepository_FindPublishedForPatient(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormServiceOrderRepository(db)
	ctx := context.Background()
	clinicID := uuid.New()
	patientID := uuid.New()

	published := newTestOrder(t, clinicID, patientID, uuid.New(), ordering.OrderTypeLab)
	published.ReleasePayment()
	require.NoError(t, published.CollectSample())
	require.NoError(t, published.UploadReport("all values nominal"))
	require.NoError(t, published.Publish())
	require.NoError(t, repo.Save(ctx, published))

	// Report uploaded but not yet published: invisible to the patient.
	uploaded := newTestOrder(t, clinicID, patientID, uuid.New(), ordering.OrderTypeLab)
	uploaded.ReleasePayment()
	require.NoError(t, uploaded.CollectSample())
	require.NoError(t, uploaded.UploadReport("pending review"))
	require.NoError(t, repo.Save(ctx, uploaded))

	orders, err := repo.FindPublishedForPatient(ctx, clinicID, patientID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, published.ID, orders[0].ID)
	assert.Equal(t, "all values nominal", orders[0].Result.Findings)
}

func TestGormServiceOrderRepository_ReleasePendingPayments(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormServiceOrderRepository(db)
	ctx := context.Background()
	clinicID := uuid.New()
	patientID := uuid.New()
	doctorID := uuid.New()

	first := newTestOrder(t, clinicID, patientID, doctorID, ordering.OrderTypeLab)
	require.NoError(t, repo.Save(ctx, first))
	second := newTestOrder(t, clinicID, patientID, doctorID, ordering.OrderTypePharmacy)
	require.NoError(t, repo.Save(ctx, second))

	// Same patient, different doctor: untouched when a doctor is named.
	otherDoctor := newTestOrder(t, clinicID, patientID, uuid.New(), ordering.OrderTypeLab)
	require.NoError(t, repo.Save(ctx, otherDoctor))

	released, err := repo.ReleasePendingPayments(ctx, clinicID, patientID, doctorID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), released)

	found, err := repo.FindByIDForClinic(ctx, clinicID, first.ID)
	require.NoError(t, err)
	assert.Equal(t, ordering.PaymentStatusPaid, found.PaymentStatus)

	found, err = repo.FindByIDForClinic(ctx, clinicID, otherDoctor.ID)
	require.NoError(t, err)
	assert.Equal(t, ordering.PaymentStatusPending, found.PaymentStatus)

	// Releasing again is a no-op.
	released, err = repo.ReleasePendingPayments(ctx, clinicID, patientID, doctorID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), released)
}

func TestGormServiceOrderRepository_ReleasePendingPayments_NilDoctorReleasesAll(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormServiceOrderRepository(db)
	ctx := context.Background()
	clinicID := uuid.New()
	patientID := uuid.New()

	require.NoError(t, repo.Save(ctx, newTestOrder(t, clinicID, patientID, uuid.New(), ordering.OrderTypeLab)))
	require.NoError(t, repo.Save(ctx, newTestOrder(t, clinicID, patientID, uuid.New(), ordering.OrderTypeRadiology)))

	released, err := repo.ReleasePendingPayments(ctx, clinicID, patientID, uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), released)
}

func TestGormServiceOrderRepository_FindByDoctor(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormServiceOrderRepository(db)
	ctx := context.Background()
	clinicID := uuid.New()
	doctorID := uuid.New()

	require.NoError(t, repo.Save(ctx, newTestOrder(t, clinicID, uuid.New(), doctorID, ordering.OrderTypeLab)))
	require.NoError(t, repo.Save(ctx, newTestOrder(t, clinicID, uuid.New(), uuid.New(), ordering.OrderTypeLab)))

	orders, err := repo.FindByDoctor(ctx, clinicID, doctorID, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}
