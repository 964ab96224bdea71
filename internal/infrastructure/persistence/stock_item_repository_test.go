package persistence

import (
	"context"
	"testing"

	"github.com/clinicore/backend/internal/domain/inventory"
	"github.com/clinicore/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStockItem(t *testing.T, clinicID uuid.UUID, name string, quantity int64) *inventory.StockItem {
	t.Helper()
	item, err := inventory.NewStockItem(clinicID, name, "SKU-"+name, quantity, decimal.NewFromFloat(4.25), nil)
	require.NoError(t, err)
	return item
}

func TestGormStockItemRepository_SaveAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormStockItemRepository(db)
	ctx := context.Background()
	clinicID := uuid.New()

	item := newTestStockItem(t, clinicID, "Panadol", 40)
	require.NoError(t, repo.Save(ctx, item))

	found, err := repo.FindByIDForClinic(ctx, clinicID, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Panadol", found.Name)
	assert.Equal(t, int64(40), found.Quantity)
	assert.True(t, decimal.NewFromFloat(4.25).Equal(found.UnitPrice))
}

func TestGormStockItemRepository_FindByIDForClinic_WrongClinic(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormStockItemRepository(db)
	ctx := context.Background()

	item := newTestStockItem(t, uuid.New(), "Panadol", 40)
	require.NoError(t, repo.Save(ctx, item))

	// Another clinic cannot see the item; the error is the same NotFound
	// a missing ID produces.
	_, err := repo.FindByIDForClinic(ctx, uuid.New(), item.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormStockItemRepository_SaveWithVersion(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormStockItemRepository(db)
	ctx := context.Background()
	clinicID := uuid.New()

	item := newTestStockItem(t, clinicID, "Amoxicillin", 30)
	require.NoError(t, repo.Save(ctx, item))

	require.NoError(t, item.Deduct(5))
	require.NoError(t, repo.SaveWithVersion(ctx, item))

	found, err := repo.FindByIDForClinic(ctx, clinicID, item.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(25), found.Quantity)
	assert.Equal(t, 2, found.Version)
}

func TestGormStockItemRepository_SaveWithVersion_StaleVersion(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormStockItemRepository(db)
	ctx := context.Background()
	clinicID := uuid.New()

	item := newTestStockItem(t, clinicID, "Amoxicillin", 30)
	require.NoError(t, repo.Save(ctx, item))

	// Two in-memory copies deduct concurrently; the second write loses.
	first, err := repo.FindByIDForClinic(ctx, clinicID, item.ID)
	require.NoError(t, err)
	second, err := repo.FindByIDForClinic(ctx, clinicID, item.ID)
	require.NoError(t, err)

	require.NoError(t, first.Deduct(10))
	require.NoError(t, repo.SaveWithVersion(ctx, first))

	require.NoError(t, second.Deduct(25))
	err = repo.SaveWithVersion(ctx, second)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)

	// The committed quantity reflects only the first deduction.
	found, err := repo.FindByIDForClinic(ctx, clinicID, item.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(20), found.Quantity)
}

func TestGormStockItemRepository_SaveWithVersion_WritesZeroQuantity(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormStockItemRepository(db)
	ctx := context.Background()
	clinicID := uuid.New()

	item := newTestStockItem(t, clinicID, "Ibuprofen", 3)
	require.NoError(t, repo.Save(ctx, item))

	require.NoError(t, item.Deduct(3))
	require.NoError(t, repo.SaveWithVersion(ctx, item))

	found, err := repo.FindByIDForClinic(ctx, clinicID, item.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), found.Quantity)
}

func TestGormStockItemRepository_FindLowStock(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormStockItemRepository(db)
	ctx := context.Background()
	clinicID := uuid.New()

	require.NoError(t, repo.Save(ctx, newTestStockItem(t, clinicID, "Low", 3)))
	require.NoError(t, repo.Save(ctx, newTestStockItem(t, clinicID, "AtThreshold", inventory.LowStockThreshold)))
	require.NoError(t, repo.Save(ctx, newTestStockItem(t, clinicID, "Plenty", 100)))
	// Other clinic's shortage must not leak in.
	require.NoError(t, repo.Save(ctx, newTestStockItem(t, uuid.New(), "OtherClinicLow", 1)))

	items, err := repo.FindLowStock(ctx, clinicID, inventory.LowStockThreshold)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Low", items[0].Name)
	assert.Equal(t, "AtThreshold", items[1].Name)
}

func TestGormStockItemRepository_FindAllForClinic_Search(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormStockItemRepository(db)
	ctx := context.Background()
	clinicID := uuid.New()

	require.NoError(t, repo.Save(ctx, newTestStockItem(t, clinicID, "Panadol", 10)))
	require.NoError(t, repo.Save(ctx, newTestStockItem(t, clinicID, "Amoxicillin", 10)))

	filter := shared.DefaultFilter()
	filter.Search = "Pana"
	filter.OrderBy = ""

	items, err := repo.FindAllForClinic(ctx, clinicID, filter)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Panadol", items[0].Name)
}

func TestGormStockItemRepository_DeleteForClinic(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormStockItemRepository(db)
	ctx := context.Background()
	clinicID := uuid.New()

	item := newTestStockItem(t, clinicID, "Panadol", 10)
	require.NoError(t, repo.Save(ctx, item))

	require.NoError(t, repo.DeleteForClinic(ctx, clinicID, item.ID))

	_, err := repo.FindByIDForClinic(ctx, clinicID, item.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	err = repo.DeleteForClinic(ctx, clinicID, item.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
