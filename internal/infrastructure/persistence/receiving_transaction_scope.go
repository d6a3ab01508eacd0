package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	apprecv "github.com/retailops/backoffice/internal/application/receiving"
	"github.com/retailops/backoffice/internal/domain/audit"
	"github.com/retailops/backoffice/internal/domain/inventory"
	"github.com/retailops/backoffice/internal/domain/receiving"
	"github.com/retailops/backoffice/internal/domain/shared"
	"gorm.io/gorm"
)

// pgLockNotAvailable is the SQLSTATE Postgres raises when lock_timeout expires.
const pgLockNotAvailable = "55P03"

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db          *gorm.DB
	lockTimeout time.Duration
}

// NewGormTransactionScope creates a new GormTransactionScope. lockTimeout
// bounds how long any statement in the transaction may wait on a row lock;
// zero leaves the server default in place.
func NewGormTransactionScope(db *gorm.DB, lockTimeout time.Duration) *GormTransactionScope {
	return &GormTransactionScope{db: db, lockTimeout: lockTimeout}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
//
// Two workers applying receipts to the same order contend on the
// SELECT ... FOR UPDATE row lock. A SET LOCAL lock_timeout caps the wait,
// and the resulting lock_not_available error surfaces as
// shared.ErrConcurrentModification so callers can retry instead of
// hanging behind a stuck transaction.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos apprecv.TransactionalRepositories) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if s.lockTimeout > 0 {
			// SET LOCAL only accepts a literal, not a bind parameter.
			stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds())
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("failed to set lock timeout: %w", err)
			}
		}
		repos := &gormTransactionalRepositories{tx: tx}
		return fn(repos)
	})
	if isLockTimeout(err) {
		return shared.ErrConcurrentModification
	}
	return err
}

// isLockTimeout reports whether err carries the Postgres lock_not_available
// SQLSTATE raised when a lock_timeout expires.
func isLockTimeout(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// OrderRepo returns the order repository scoped to the current transaction.
func (r *gormTransactionalRepositories) OrderRepo() receiving.OrderRepository {
	return NewGormOrderRepository(r.tx)
}

// StockLevelRepo returns the stock level repository scoped to the current transaction.
func (r *gormTransactionalRepositories) StockLevelRepo() inventory.StockLevelRepository {
	return NewGormStockLevelRepository(r.tx)
}

// StockMovementRepo returns the movement journal repository scoped to the current transaction.
func (r *gormTransactionalRepositories) StockMovementRepo() inventory.StockMovementRepository {
	return NewGormStockMovementRepository(r.tx)
}

// AuditRepo returns the audit trail repository scoped to the current transaction.
func (r *gormTransactionalRepositories) AuditRepo() audit.EventRepository {
	return NewGormEventRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ apprecv.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ apprecv.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
