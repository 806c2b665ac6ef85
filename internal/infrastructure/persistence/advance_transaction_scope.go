package persistence

import (
	"context"

	"gorm.io/gorm"

	appadvance "github.com/hims/backend/internal/application/advance"
)

// GormAdvanceTransactionScope implements the advance TransactionScope using
// GORM transactions. The advance application package declares its own scope
// interface, so it gets its own implementation even though the repository
// accessors are shared with the billing scope.
type GormAdvanceTransactionScope struct {
	db *gorm.DB
}

// NewGormAdvanceTransactionScope creates a new GormAdvanceTransactionScope.
func NewGormAdvanceTransactionScope(db *gorm.DB) *GormAdvanceTransactionScope {
	return &GormAdvanceTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormAdvanceTransactionScope) Execute(ctx context.Context, fn func(repos appadvance.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormTransactionalRepositories{tx: tx}
		return fn(repos)
	})
}

// Ensure GormAdvanceTransactionScope implements TransactionScope
var _ appadvance.TransactionScope = (*GormAdvanceTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appadvance.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
