package clinic

import (
	"context"
	"testing"

	"github.com/clinicore/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type scopedRow struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	ClinicID uuid.UUID `gorm:"type:uuid;index"`
	Name     string
}

func newScopeTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&scopedRow{}))
	return db
}

func seedTwoClinics(t *testing.T, db *gorm.DB) (uuid.UUID, uuid.UUID) {
	t.Helper()

	clinicA := uuid.New()
	clinicB := uuid.New()
	rows := []scopedRow{
		{ID: uuid.New(), ClinicID: clinicA, Name: "a-1"},
		{ID: uuid.New(), ClinicID: clinicA, Name: "a-2"},
		{ID: uuid.New(), ClinicID: clinicB, Name: "b-1"},
	}
	require.NoError(t, db.Create(&rows).Error)
	return clinicA, clinicB
}

func TestScope_FiltersToOneClinic(t *testing.T) {
	db := newScopeTestDB(t)
	clinicA, clinicB := seedTwoClinics(t, db)

	var rows []scopedRow
	require.NoError(t, db.Scopes(Scope(clinicA)).Find(&rows).Error)
	assert.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, clinicA, row.ClinicID)
	}

	rows = nil
	require.NoError(t, db.Scopes(Scope(clinicB)).Find(&rows).Error)
	assert.Len(t, rows, 1)
}

func TestScope_NilClinicIDFailsQuery(t *testing.T) {
	db := newScopeTestDB(t)
	seedTwoClinics(t, db)

	var rows []scopedRow
	err := db.Scopes(Scope(uuid.Nil)).Find(&rows).Error
	assert.ErrorIs(t, err, ErrClinicIDRequired)
}

func TestScopeString(t *testing.T) {
	db := newScopeTestDB(t)
	clinicA, _ := seedTwoClinics(t, db)

	var rows []scopedRow
	require.NoError(t, db.Scopes(ScopeString(clinicA.String())).Find(&rows).Error)
	assert.Len(t, rows, 2)

	err := db.Scopes(ScopeString("not-a-uuid")).Find(&rows).Error
	assert.ErrorIs(t, err, ErrInvalidClinicID)

	err = db.Scopes(ScopeString("")).Find(&rows).Error
	assert.ErrorIs(t, err, ErrClinicIDRequired)
}

func TestFromContext(t *testing.T) {
	db := newScopeTestDB(t)
	clinicA, _ := seedTwoClinics(t, db)

	ctx, _ := logger.WithClinicID(context.Background(), zap.NewNop(), clinicA.String())

	var rows []scopedRow
	require.NoError(t, db.Scopes(FromContext(ctx)).Find(&rows).Error)
	assert.Len(t, rows, 2)

	err := db.Scopes(FromContext(context.Background())).Find(&rows).Error
	assert.ErrorIs(t, err, ErrClinicIDRequired)
}
