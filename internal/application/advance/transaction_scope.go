package advance

import (
	"context"

	"github.com/hims/backend/internal/domain/advance"
	"github.com/hims/backend/internal/domain/billing"
)

// TransactionScope provides transactional access to the advance ledger
// repositories. Applying deposit money to an invoice mutates three
// records (deposit, adjustment, invoice) that must commit atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the repositories an
// advance operation may touch, all scoped to the same transaction.
type TransactionalRepositories interface {
	// AdvanceRepo returns the advance deposit repository scoped to the current transaction
	AdvanceRepo() advance.AdvanceRepository
	// AdjustmentRepo returns the advance adjustment repository scoped to the current transaction
	AdjustmentRepo() advance.AdvanceAdjustmentRepository
	// InvoiceRepo returns the invoice repository scoped to the current transaction
	InvoiceRepo() billing.InvoiceRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. Used in tests with mocked repositories.
type NoOpTransactionScope struct {
	advanceRepo    advance.AdvanceRepository
	adjustmentRepo advance.AdvanceAdjustmentRepository
	invoiceRepo    billing.InvoiceRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories
func NewNoOpTransactionScope(
	advanceRepo advance.AdvanceRepository,
	adjustmentRepo advance.AdvanceAdjustmentRepository,
	invoiceRepo billing.InvoiceRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		advanceRepo:    advanceRepo,
		adjustmentRepo: adjustmentRepo,
		invoiceRepo:    invoiceRepo,
	}
}

// Execute runs the function without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// AdvanceRepo returns the advance deposit repository
func (s *NoOpTransactionScope) AdvanceRepo() advance.AdvanceRepository {
	return s.advanceRepo
}

// AdjustmentRepo returns the advance adjustment repository
func (s *NoOpTransactionScope) AdjustmentRepo() advance.AdvanceAdjustmentRepository {
	return s.adjustmentRepo
}

// InvoiceRepo returns the invoice repository
func (s *NoOpTransactionScope) InvoiceRepo() billing.InvoiceRepository {
	return s.invoiceRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
