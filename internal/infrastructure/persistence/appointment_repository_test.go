package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/clinicore/backend/internal/domain/patient"
	"github.com/clinicore/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCheckedInAppointment(t *testing.T, clinicID, patientID, doctorID uuid.UUID, date time.Time) *patient.Appointment {
	t.Helper()
	a, err := patient.NewAppointment(clinicID, patientID, doctorID, date)
	require.NoError(t, err)
	require.NoError(t, a.Approve())
	require.NoError(t, a.CheckIn())
	return a
}

func TestGormAppointmentRepository_SaveAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormAppointmentRepository(db)
	ctx := context.Background()
	clinicID := uuid.New()

	a, err := patient.NewAppointment(clinicID, uuid.New(), uuid.New(), time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, a))

	found, err := repo.FindByIDForClinic(ctx, clinicID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, patient.AppointmentStatusPending, found.Status)

	_, err = repo.FindByIDForClinic(ctx, uuid.New(), a.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormAppointmentRepository_FindLatestPendingPayment(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormAppointmentRepository(db)
	ctx := context.Background()
	clinicID := uuid.New()
	patientID := uuid.New()

	older := newCheckedInAppointment(t, clinicID, patientID, uuid.New(), time.Now().Add(-2*time.Hour))
	require.NoError(t, older.StartConsultation())
	require.NoError(t, older.CompleteConsultation(nil))
	require.NoError(t, repo.Save(ctx, older))

	newer := newCheckedInAppointment(t, clinicID, patientID, uuid.New(), time.Now().Add(-time.Hour))
	require.NoError(t, newer.StartConsultation())
	require.NoError(t, newer.CompleteConsultation(nil))
	require.NoError(t, repo.Save(ctx, newer))

	// Still in consultation: not parked at the cashier yet.
	current := newCheckedInAppointment(t, clinicID, patientID, uuid.New(), time.Now())
	require.NoError(t, current.StartConsultation())
	require.NoError(t, repo.Save(ctx, current))

	found, err := repo.FindLatestPendingPayment(ctx, clinicID, patientID)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, found.ID)
}

func TestGormAppointmentRepository_FindLatestPendingPayment_NoneQueued(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormAppointmentRepository(db)
	ctx := context.Background()

	_, err := repo.FindLatestPendingPayment(ctx, uuid.New(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormAppointmentRepository_FindDoctorQueue(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormAppointmentRepository(db)
	ctx := context.Background()
	clinicID := uuid.New()
	doctorID := uuid.New()
	now := time.Now()

	checkedIn := newCheckedInAppointment(t, clinicID, uuid.New(), doctorID, now)
	require.NoError(t, repo.Save(ctx, checkedIn))

	inConsultation := newCheckedInAppointment(t, clinicID, uuid.New(), doctorID, now.Add(time.Minute))
	require.NoError(t, inConsultation.StartConsultation())
	require.NoError(t, repo.Save(ctx, inConsultation))

	// Finished visits leave the queue.
	done := newCheckedInAppointment(t, clinicID, uuid.New(), doctorID, now.Add(2*time.Minute))
	require.NoError(t, done.StartConsultation())
	require.NoError(t, done.CompleteConsultation(nil))
	require.NoError(t, repo.Save(ctx, done))

	// Yesterday's stragglers are not today's queue.
	yesterday := newCheckedInAppointment(t, clinicID, uuid.New(), doctorID, now.Add(-25*time.Hour))
	require.NoError(t, repo.Save(ctx, yesterday))

	// Another doctor's patient.
	other := newCheckedInAppointment(t, clinicID, uuid.New(), uuid.New(), now)
	require.NoError(t, repo.Save(ctx, other))

	queue, err := repo.FindDoctorQueue(ctx, clinicID, doctorID, now)
	require.NoError(t, err)
	require.Len(t, queue, 2)
	assert.Equal(t, checkedIn.ID, queue[0].ID)
	assert.Equal(t, inConsultation.ID, queue[1].ID)
}

func TestGormAppointmentRepository_FindAllForClinic_Filters(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormAppointmentRepository(db)
	ctx := context.Background()
	clinicID := uuid.New()
	doctorID := uuid.New()

	a, err := patient.NewAppointment(clinicID, uuid.New(), doctorID, time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, a))

	b, err := patient.NewAppointment(clinicID, uuid.New(), uuid.New(), time.Now())
	require.NoError(t, err)
	require.NoError(t, b.Approve())
	require.NoError(t, repo.Save(ctx, b))

	filter := shared.DefaultFilter()
	filter.OrderBy = ""
	filter.Filters["doctor_id"] = doctorID

	appointments, err := repo.FindAllForClinic(ctx, clinicID, filter)
	require.NoError(t, err)
	require.Len(t, appointments, 1)
	assert.Equal(t, a.ID, appointments[0].ID)

	filter = shared.DefaultFilter()
	filter.OrderBy = ""
	filter.Filters["status"] = patient.AppointmentStatusApproved

	appointments, err = repo.FindAllForClinic(ctx, clinicID, filter)
	require.NoError(t, err)
	require.Len(t, appointments, 1)
	assert.Equal(t, b.ID, appointments[0].ID)
}
