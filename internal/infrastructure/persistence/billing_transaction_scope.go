package persistence

import (
	"context"

	"gorm.io/gorm"

	appbilling "github.com/hims/backend/internal/application/billing"
	"github.com/hims/backend/internal/domain/advance"
	"github.com/hims/backend/internal/domain/billing"
)

// GormBillingTransactionScope implements the billing TransactionScope using
// GORM transactions. It provides atomic execution of multiple repository
// operations.
type GormBillingTransactionScope struct {
	db *gorm.DB
}

// NewGormBillingTransactionScope creates a new GormBillingTransactionScope.
func NewGormBillingTransactionScope(db *gorm.DB) *GormBillingTransactionScope {
	return &GormBillingTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormBillingTransactionScope) Execute(ctx context.Context, fn func(repos appbilling.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormTransactionalRepositories{tx: tx}
		return fn(repos)
	})
}

// gormTransactionalRepositories provides access to the billing and advance
// repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// InvoiceRepo returns the invoice repository scoped to the current transaction.
func (r *gormTransactionalRepositories) InvoiceRepo() billing.InvoiceRepository {
	return NewGormInvoiceRepository(r.tx)
}

// AdvanceRepo returns the advance deposit repository scoped to the current transaction.
func (r *gormTransactionalRepositories) AdvanceRepo() advance.AdvanceRepository {
	return NewGormAdvanceRepository(r.tx)
}

// AdjustmentRepo returns the advance adjustment repository scoped to the current transaction.
func (r *gormTransactionalRepositories) AdjustmentRepo() advance.AdvanceAdjustmentRepository {
	return NewGormAdvanceAdjustmentRepository(r.tx)
}

// Ensure GormBillingTransactionScope implements TransactionScope
var _ appbilling.TransactionScope = (*GormBillingTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appbilling.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
