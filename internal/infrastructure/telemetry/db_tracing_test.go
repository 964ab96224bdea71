package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type stockRow struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:100"`
}

func openTraceTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&stockRow{}))
	return db
}

func recordedSession(t *testing.T, db *gorm.DB) (*gorm.DB, *tracetest.SpanRecorder, func()) {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	ctx, span := provider.Tracer("db-tracing-test").Start(context.Background(), "db.query")

	return db.Session(&gorm.Session{Context: ctx}), recorder, func() { span.End() }
}

func enabledPlugin(thresh time.Duration) *DBTracingPlugin {
	return NewDBTracingPlugin(DBTracingConfig{
		Enabled:         true,
		SlowQueryThresh: thresh,
		DBSystem:        "sqlite",
	}, zap.NewNop())
}

func TestDefaultDBTracingConfig(t *testing.T) {
	cfg := DefaultDBTracingConfig()
	assert.False(t, cfg.Enabled)
	assert.False(t, cfg.LogFullSQL)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThresh)
	assert.Equal(t, "postgresql", cfg.DBSystem)
}

func TestDBTracingPlugin_Register(t *testing.T) {
	t.Run("disabled is a no-op", func(t *testing.T) {
		db := openTraceTestDB(t)
		plugin := NewDBTracingPlugin(DefaultDBTracingConfig(), zap.NewNop())
		assert.NoError(t, plugin.Register(db))
	})

	t.Run("enabled keeps queries working", func(t *testing.T) {
		db := openTraceTestDB(t)
		require.NoError(t, enabledPlugin(200*time.Millisecond).Register(db))
		assert.NoError(t, db.Create(&stockRow{Name: "gauze"}).Error)
	})

	t.Run("double registration is rejected", func(t *testing.T) {
		db := openTraceTestDB(t)
		plugin := enabledPlugin(200 * time.Millisecond)
		require.NoError(t, plugin.Register(db))
		assert.Error(t, plugin.Register(db))
	})
}

func TestAnnotateSpan_RowsAndTable(t *testing.T) {
	session, recorder, end := recordedSession(t, openTraceTestDB(t))
	session.Statement.RowsAffected = 3
	session.Statement.Table = "stock_rows"

	enabledPlugin(200 * time.Millisecond).annotateSpan(session)
	end()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Contains(t, spans[0].Attributes(), attribute.Int64("db.rows_affected", 3))
	assert.Contains(t, spans[0].Attributes(), attribute.String("db.sql.table", "stock_rows"))
}

func TestAnnotateSpan_SlowQuery(t *testing.T) {
	db := openTraceTestDB(t)
	session, recorder, end := recordedSession(t, db)
	markQueryStart(session)
	time.Sleep(2 * time.Millisecond)

	enabledPlugin(time.Nanosecond).annotateSpan(session)
	end()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Contains(t, spans[0].Attributes(), attribute.Bool("db.slow_query", true))
	require.NotEmpty(t, spans[0].Events())
	assert.Equal(t, "slow_query_warning", spans[0].Events()[0].Name)
}

func TestAnnotateSpan_Error(t *testing.T) {
	session, recorder, end := recordedSession(t, openTraceTestDB(t))
	session.Error = assert.AnError

	enabledPlugin(200 * time.Millisecond).annotateSpan(session)
	end()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}

func TestAnnotateSpan_RecordNotFoundIsClean(t *testing.T) {
	session, recorder, end := recordedSession(t, openTraceTestDB(t))
	session.Error = gorm.ErrRecordNotFound

	enabledPlugin(200 * time.Millisecond).annotateSpan(session)
	end()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.NotEqual(t, codes.Error, spans[0].Status().Code)
}

func TestMarkQueryStart(t *testing.T) {
	session := openTraceTestDB(t).Session(&gorm.Session{Context: context.Background()})
	markQueryStart(session)

	start, ok := session.Statement.Context.Value(queryStartKey).(time.Time)
	require.True(t, ok)
	assert.WithinDuration(t, time.Now(), start, time.Second)
}
