package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/clinicore/backend/internal/domain/billing"
	"github.com/clinicore/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInvoice(t *testing.T, clinicID uuid.UUID, number string, amount float64, status billing.InvoiceStatus) *billing.Invoice {
	t.Helper()
	inv, err := billing.NewInvoice(clinicID, number, uuid.New(), nil, "Consultation Fee", decimal.NewFromFloat(amount), status)
	require.NoError(t, err)
	return inv
}

func TestGormInvoiceRepository_SaveAndFindByNumber(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()
	clinicID := uuid.New()

	inv := newTestInvoice(t, clinicID, "CONS-1234-5678", 150, billing.InvoiceStatusPending)
	require.NoError(t, repo.Save(ctx, inv))

	found, err := repo.FindByNumberForClinic(ctx, clinicID, "CONS-1234-5678")
	require.NoError(t, err)
	assert.Equal(t, inv.ID, found.ID)
	assert.True(t, decimal.NewFromInt(150).Equal(found.Amount))

	_, err = repo.FindByNumberForClinic(ctx, uuid.New(), "CONS-1234-5678")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormInvoiceRepository_Save_DuplicateNumber(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()
	clinicID := uuid.New()

	require.NoError(t, repo.Save(ctx, newTestInvoice(t, clinicID, "INV-0001-0001", 10, billing.InvoiceStatusPending)))

	err := repo.Save(ctx, newTestInvoice(t, clinicID, "INV-0001-0001", 20, billing.InvoiceStatusPending))
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestGormInvoiceRepository_FindDirectSales(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()
	clinicID := uuid.New()

	require.NoError(t, repo.Save(ctx, newTestInvoice(t, clinicID, "RX-POS-1111-2222", 55.5, billing.InvoiceStatusPaid)))
	require.NoError(t, repo.Save(ctx, newTestInvoice(t, clinicID, "PH-1111-2222", 30, billing.InvoiceStatusPaid)))
	require.NoError(t, repo.Save(ctx, newTestInvoice(t, clinicID, "CONS-1111-2222", 150, billing.InvoiceStatusPending)))

	sales, err := repo.FindDirectSales(ctx, clinicID, shared.DefaultFilter())
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, "RX-POS-1111-2222", sales[0].Number)
}

func TestGormInvoiceRepository_SumAmountByStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()
	clinicID := uuid.New()

	require.NoError(t, repo.Save(ctx, newTestInvoice(t, clinicID, "CONS-0001-0001", 150, billing.InvoiceStatusPaid)))
	require.NoError(t, repo.Save(ctx, newTestInvoice(t, clinicID, "PH-0001-0001", 42.5, billing.InvoiceStatusPaid)))
	require.NoError(t, repo.Save(ctx, newTestInvoice(t, clinicID, "LAB-0001-0001", 60, billing.InvoiceStatusPending)))

	total, err := repo.SumAmountByStatus(ctx, clinicID, billing.InvoiceStatusPaid, nil, nil)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromFloat(192.5).Equal(total), "got %s", total)

	pending, err := repo.SumAmountByStatus(ctx, clinicID, billing.InvoiceStatusPending, nil, nil)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(60).Equal(pending), "got %s", pending)
}

func TestGormInvoiceRepository_SumAmountByStatus_TimeWindow(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()
	clinicID := uuid.New()

	old := newTestInvoice(t, clinicID, "CONS-0001-0001", 100, billing.InvoiceStatusPaid)
	old.Date = time.Now().Add(-48 * time.Hour)
	require.NoError(t, repo.Save(ctx, old))

	today := newTestInvoice(t, clinicID, "CONS-0001-0002", 150, billing.InvoiceStatusPaid)
	require.NoError(t, repo.Save(ctx, today))

	since := time.Now().Add(-time.Hour)
	total, err := repo.SumAmountByStatus(ctx, clinicID, billing.InvoiceStatusPaid, &since, nil)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(150).Equal(total), "got %s", total)
}

func TestGormInvoiceRepository_SumAmountByStatus_NoRows(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()

	total, err := repo.SumAmountByStatus(ctx, uuid.New(), billing.InvoiceStatusPaid, nil, nil)
	require.NoError(t, err)
	assert.True(t, total.IsZero())
}

func TestGormInvoiceRepository_CountByStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()
	clinicID := uuid.New()

	require.NoError(t, repo.Save(ctx, newTestInvoice(t, clinicID, "CONS-0001-0001", 150, billing.InvoiceStatusPending)))
	require.NoError(t, repo.Save(ctx, newTestInvoice(t, clinicID, "CONS-0001-0002", 150, billing.InvoiceStatusPending)))
	require.NoError(t, repo.Save(ctx, newTestInvoice(t, clinicID, "CONS-0001-0003", 150, billing.InvoiceStatusPaid)))

	count, err := repo.CountByStatus(ctx, clinicID, billing.InvoiceStatusPending)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestGormInvoiceRepository_FindAllForClinic_StatusFilter(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()
	clinicID := uuid.New()

	require.NoError(t, repo.Save(ctx, newTestInvoice(t, clinicID, "CONS-0001-0001", 150, billing.InvoiceStatusPending)))
	require.NoError(t, repo.Save(ctx, newTestInvoice(t, clinicID, "PH-0001-0001", 30, billing.InvoiceStatusPaid)))

	filter := shared.DefaultFilter()
	filter.OrderBy = ""
	filter.Filters["status"] = billing.InvoiceStatusPaid

	invoices, err := repo.FindAllForClinic(ctx, clinicID, filter)
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, "PH-0001-0001", invoices[0].Number)
}
