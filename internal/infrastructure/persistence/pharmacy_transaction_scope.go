package persistence

import (
	"context"

	apppharmacy "github.com/clinicore/backend/internal/application/pharmacy"
	"github.com/clinicore/backend/internal/domain/billing"
	"github.com/clinicore/backend/internal/domain/inventory"
	"github.com/clinicore/backend/internal/domain/notification"
	"github.com/clinicore/backend/internal/domain/ordering"
	"gorm.io/gorm"
)

// GormPharmacyTransactionScope implements the pharmacy TransactionScope
// using GORM transactions. Stock deductions, the invoice and the order
// update commit or roll back as one unit.
type GormPharmacyTransactionScope struct {
	db *gorm.DB
}

// NewGormPharmacyTransactionScope creates a new GormPharmacyTransactionScope
func NewGormPharmacyTransactionScope(db *gorm.DB) *GormPharmacyTransactionScope {
	return &GormPharmacyTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *GormPharmacyTransactionScope) Execute(ctx context.Context, fn func(repos apppharmacy.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&pharmacyTxRepositories{tx: tx})
	})
}

type pharmacyTxRepositories struct {
	tx *gorm.DB
}

// StockRepo returns the stock item repository scoped to the transaction
func (r *pharmacyTxRepositories) StockRepo() inventory.StockItemRepository {
	return NewGormStockItemRepository(r.tx)
}

// OrderRepo returns the service order repository scoped to the transaction
func (r *pharmacyTxRepositories) OrderRepo() ordering.ServiceOrderRepository {
	return NewGormServiceOrderRepository(r.tx)
}

// InvoiceRepo returns the invoice repository scoped to the transaction
func (r *pharmacyTxRepositories) InvoiceRepo() billing.InvoiceRepository {
	return NewGormInvoiceRepository(r.tx)
}

// NotificationRepo returns the notification repository scoped to the transaction
func (r *pharmacyTxRepositories) NotificationRepo() notification.NotificationRepository {
	return NewGormNotificationRepository(r.tx)
}

// Ensure the scope and its repositories satisfy the application interfaces
var (
	_ apppharmacy.TransactionScope          = (*GormPharmacyTransactionScope)(nil)
	_ apppharmacy.TransactionalRepositories = (*pharmacyTxRepositories)(nil)
)
