package pharmacy

import (
	"context"

	"github.com/clinicore/backend/internal/domain/billing"
	"github.com/clinicore/backend/internal/domain/inventory"
	"github.com/clinicore/backend/internal/domain/notification"
	"github.com/clinicore/backend/internal/domain/ordering"
)

// TransactionScope provides transactional access to the repositories a
// pharmacy fulfillment touches. The stock deduction, the invoice and the
// order completion must commit or roll back as one unit.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the pharmacy repositories
// within a transaction. All repositories returned share the same underlying
// database transaction.
type TransactionalRepositories interface {
	// StockRepo returns the stock item repository scoped to the current transaction
	StockRepo() inventory.StockItemRepository
	// OrderRepo returns the service order repository scoped to the current transaction
	OrderRepo() ordering.ServiceOrderRepository
	// InvoiceRepo returns the invoice repository scoped to the current transaction
	InvoiceRepo() billing.InvoiceRepository
	// NotificationRepo returns the notification repository scoped to the current transaction
	NotificationRepo() notification.NotificationRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. Useful for tests built on mock repositories.
type NoOpTransactionScope struct {
	stockRepo        inventory.StockItemRepository
	orderRepo        ordering.ServiceOrderRepository
	invoiceRepo      billing.InvoiceRepository
	notificationRepo notification.NotificationRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	stockRepo inventory.StockItemRepository,
	orderRepo ordering.ServiceOrderRepository,
	invoiceRepo billing.InvoiceRepository,
	notificationRepo notification.NotificationRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		stockRepo:        stockRepo,
		orderRepo:        orderRepo,
		invoiceRepo:      invoiceRepo,
		notificationRepo: notificationRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// StockRepo returns the stock item repository.
func (s *NoOpTransactionScope) StockRepo() inventory.StockItemRepository {
	return s.stockRepo
}

// OrderRepo returns the service order repository.
func (s *NoOpTransactionScope) OrderRepo() ordering.ServiceOrderRepository {
	return s.orderRepo
}

// InvoiceRepo returns the invoice repository.
func (s *NoOpTransactionScope) InvoiceRepo() billing.InvoiceRepository {
	return s.invoiceRepo
}

// NotificationRepo returns the notification repository.
func (s *NoOpTransactionScope) NotificationRepo() notification.NotificationRepository {
	return s.notificationRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
