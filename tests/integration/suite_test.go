package integration

import (
	"testing"

	billingapp "github.com/clinicore/backend/internal/application/billing"
	consultationapp "github.com/clinicore/backend/internal/application/consultation"
	notificationapp "github.com/clinicore/backend/internal/application/notification"
	orderingapp "github.com/clinicore/backend/internal/application/ordering"
	pharmacyapp "github.com/clinicore/backend/internal/application/pharmacy"
	receptionapp "github.com/clinicore/backend/internal/application/reception"
	"github.com/clinicore/backend/internal/infrastructure/cache"
	"github.com/clinicore/backend/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

// clinicEnv wires the full application stack over a real database, the
// same way cmd/server does it.
type clinicEnv struct {
	DB *TestDB

	PatientRepo      *persistence.GormPatientRepository
	AppointmentRepo  *persistence.GormAppointmentRepository
	OrderRepo        *persistence.GormServiceOrderRepository
	StockRepo        *persistence.GormStockItemRepository
	InvoiceRepo      *persistence.GormInvoiceRepository
	RecordRepo       *persistence.GormMedicalRecordRepository
	NotificationRepo *persistence.GormNotificationRepository

	Reception     *receptionapp.ReceptionService
	Consultation  *consultationapp.ConsultationService
	Orders        *orderingapp.OrderService
	Fulfillment   *pharmacyapp.FulfillmentService
	Inventory     *pharmacyapp.InventoryService
	Billing       *billingapp.BillingService
	Notifications *notificationapp.NotificationService
}

func newClinicEnv(t *testing.T) *clinicEnv {
	t.Helper()

	tdb := NewTestDB(t)
	db := tdb.DB
	log := zap.NewNop()

	patients := persistence.NewGormPatientRepository(db)
	appointments := persistence.NewGormAppointmentRepository(db)
	orders := persistence.NewGormServiceOrderRepository(db)
	stock := persistence.NewGormStockItemRepository(db)
	invoices := persistence.NewGormInvoiceRepository(db)
	records := persistence.NewGormMedicalRecordRepository(db)
	notifications := persistence.NewGormNotificationRepository(db)

	consultationScope := persistence.NewGormConsultationTransactionScope(db)
	pharmacyScope := persistence.NewGormPharmacyTransactionScope(db)
	billingScope := persistence.NewGormBillingTransactionScope(db)

	return &clinicEnv{
		DB:               tdb,
		PatientRepo:      patients,
		AppointmentRepo:  appointments,
		OrderRepo:        orders,
		StockRepo:        stock,
		InvoiceRepo:      invoices,
		RecordRepo:       records,
		NotificationRepo: notifications,

		Reception:     receptionapp.NewReceptionService(patients, appointments),
		Consultation:  consultationapp.NewConsultationService(consultationScope, appointments, records, log),
		Orders:        orderingapp.NewOrderService(orders, patients, notifications),
		Fulfillment:   pharmacyapp.NewFulfillmentService(pharmacyScope, patients),
		Inventory:     pharmacyapp.NewInventoryService(stock),
		Billing:       billingapp.NewBillingService(billingScope, invoices, patients, log),
		Notifications: notificationapp.NewNotificationService(notifications, orders, cache.NewInMemoryBadgeCache(), log),
	}
}
