package billing

import (
	"context"

	"github.com/hims/backend/internal/domain/advance"
	"github.com/hims/backend/internal/domain/billing"
)

// TransactionScope provides transactional access to the billing repositories.
// When a function is executed within a transaction scope, all repository
// operations are part of the same database transaction and commit or roll
// back atomically.
//
// Invoice mutations that touch deposits (cancellation reverses outstanding
// adjustments) and the anti-double-billing lookup both depend on this: the
// check, the aggregate save and the deposit updates must land together.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the repositories a billing
// operation may touch, all scoped to the same transaction.
type TransactionalRepositories interface {
	// InvoiceRepo returns the invoice repository scoped to the current transaction
	InvoiceRepo() billing.InvoiceRepository
	// AdvanceRepo returns the advance deposit repository scoped to the current transaction
	AdvanceRepo() advance.AdvanceRepository
	// AdjustmentRepo returns the advance adjustment repository scoped to the current transaction
	AdjustmentRepo() advance.AdvanceAdjustmentRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. Used in tests with mocked repositories.
type NoOpTransactionScope struct {
	invoiceRepo    billing.InvoiceRepository
	advanceRepo    advance.AdvanceRepository
	adjustmentRepo advance.AdvanceAdjustmentRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories
func NewNoOpTransactionScope(
	invoiceRepo billing.InvoiceRepository,
	advanceRepo advance.AdvanceRepository,
	adjustmentRepo advance.AdvanceAdjustmentRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		invoiceRepo:    invoiceRepo,
		advanceRepo:    advanceRepo,
		adjustmentRepo: adjustmentRepo,
	}
}

// Execute runs the function without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// InvoiceRepo returns the invoice repository
func (s *NoOpTransactionScope) InvoiceRepo() billing.InvoiceRepository {
	return s.invoiceRepo
}

// AdvanceRepo returns the advance deposit repository
func (s *NoOpTransactionScope) AdvanceRepo() advance.AdvanceRepository {
	return s.advanceRepo
}

// AdjustmentRepo returns the advance adjustment repository
func (s *NoOpTransactionScope) AdjustmentRepo() advance.AdvanceAdjustmentRepository {
	return s.adjustmentRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
