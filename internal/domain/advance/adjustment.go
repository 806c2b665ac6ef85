package advance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hims/backend/internal/domain/shared"
	"github.com/hims/backend/internal/domain/shared/valueobject"
)

// AdvanceAdjustment is the join record between a deposit and an invoice:
// one application of deposit money against an invoice's balance. A single
// invoice may hold adjustments from several deposits and a single deposit
// may fund several invoices. Adjustments are immutable; undoing one means
// deleting it and restoring the deposit in the same transaction.
type AdvanceAdjustment struct {
	ID            uuid.UUID
	AdvanceID     uuid.UUID
	InvoiceID     uuid.UUID
	AmountApplied decimal.Decimal
	AppliedAt     time.Time
}

// NewAdvanceAdjustment creates a new adjustment record
func NewAdvanceAdjustment(advanceID, invoiceID uuid.UUID, amount valueobject.Money) (*AdvanceAdjustment, error) {
	if advanceID == uuid.Nil || invoiceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Adjustment requires an advance and an invoice")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Adjustment amount must be positive")
	}

	return &AdvanceAdjustment{
		ID:            uuid.New(),
		AdvanceID:     advanceID,
		InvoiceID:     invoiceID,
		AmountApplied: amount.Amount(),
		AppliedAt:     time.Now(),
	}, nil
}

// GetAmountMoney returns the applied amount as Money
func (a *AdvanceAdjustment) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyINR(a.AmountApplied)
}
