package receiving

import (
	"context"

	"github.com/retailops/backoffice/internal/domain/audit"
	"github.com/retailops/backoffice/internal/domain/inventory"
	"github.com/retailops/backoffice/internal/domain/receiving"
)

// TransactionScope provides transactional access to the repositories a
// receipt application touches. Everything executed within one scope commits
// or rolls back atomically: order state, stock credits, movement journal
// and audit trail all land together or not at all.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all receiving repositories
// within a transaction. All repositories returned share the same underlying
// database transaction.
type TransactionalRepositories interface {
	// OrderRepo returns the order repository scoped to the current transaction
	OrderRepo() receiving.OrderRepository
	// StockLevelRepo returns the stock level repository scoped to the current transaction
	StockLevelRepo() inventory.StockLevelRepository
	// StockMovementRepo returns the movement journal repository scoped to the current transaction
	StockMovementRepo() inventory.StockMovementRepository
	// AuditRepo returns the audit trail repository scoped to the current transaction
	AuditRepo() audit.EventRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. This is useful for testing or when transaction support is
// not required.
type NoOpTransactionScope struct {
	orderRepo         receiving.OrderRepository
	stockLevelRepo    inventory.StockLevelRepository
	stockMovementRepo inventory.StockMovementRepository
	auditRepo         audit.EventRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	orderRepo receiving.OrderRepository,
	stockLevelRepo inventory.StockLevelRepository,
	stockMovementRepo inventory.StockMovementRepository,
	auditRepo audit.EventRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		orderRepo:         orderRepo,
		stockLevelRepo:    stockLevelRepo,
		stockMovementRepo: stockMovementRepo,
		auditRepo:         auditRepo,
	}
}

// Execute runs the function without a real transaction (for testing/compatibility).
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// OrderRepo returns the order repository.
func (s *NoOpTransactionScope) OrderRepo() receiving.OrderRepository {
	return s.orderRepo
}

// StockLevelRepo returns the stock level repository.
func (s *NoOpTransactionScope) StockLevelRepo() inventory.StockLevelRepository {
	return s.stockLevelRepo
}

// StockMovementRepo returns the movement journal repository.
func (s *NoOpTransactionScope) StockMovementRepo() inventory.StockMovementRepository {
	return s.stockMovementRepo
}

// AuditRepo returns the audit trail repository.
func (s *NoOpTransactionScope) AuditRepo() audit.EventRepository {
	return s.auditRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
